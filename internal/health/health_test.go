package health

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func TestCheckBasic(t *testing.T) {
	st := NewHealthChecker(pinger{}, "memory", "").CheckBasic(context.Background())
	assert.Equal(t, "healthy", st.Status)
	assert.Equal(t, "memory", st.Storage.Driver)
	assert.Nil(t, st.Disk)

	st = NewHealthChecker(pinger{err: errors.New("down")}, "postgres", "").CheckBasic(context.Background())
	assert.Equal(t, "unhealthy", st.Status)
	assert.Equal(t, "down", st.Storage.Error)
}

func TestCheckDetailedReportsDisk(t *testing.T) {
	st := NewHealthChecker(pinger{}, "file", t.TempDir()).CheckDetailed(context.Background())
	require.NotNil(t, st.Disk)
	assert.Greater(t, st.Disk.TotalBytes, uint64(0))
}

func TestCheckDetailedReportsSystem(t *testing.T) {
	st := NewHealthChecker(pinger{}, "memory", "").CheckDetailed(context.Background())
	require.NotNil(t, st.System)
	assert.Greater(t, st.System.MemoryTotal, uint64(0))
	assert.Nil(t, st.Disk)
}
