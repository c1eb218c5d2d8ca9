package logging

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestEvents_AuthFailureIsWarn(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	ev := NewEvents(zap.New(core))

	ev.Auth("login", "a@b.c", false, "bad credentials")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.Equal(t, "auth", entries[0].LoggerName)
	fields := entries[0].ContextMap()
	assert.Equal(t, "login", fields["event_type"])
	assert.Equal(t, "a@b.c", fields["user_email"])
	assert.Equal(t, false, fields["success"])
}

func TestEvents_DatabaseOmitsZeroIDs(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	ev := NewEvents(zap.New(core))

	ev.Database("create", "clients", 4, 0)

	entries := logs.FilterLoggerName("database").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, int64(4), fields["record_id"])
	_, hasUser := fields["user_id"]
	assert.False(t, hasUser)
}

func TestEvents_BusinessAndError(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	ev := NewEvents(zap.New(core))

	ev.Business("invoice_created", "INV-0001", 2, zap.Float64("total_amount", 115))
	ev.Error(errors.New("disk full"), "snapshot", 0)

	assert.Equal(t, 1, logs.FilterLoggerName("business").Len())
	errs := logs.FilterLoggerName("errors").All()
	require.Len(t, errs, 1)
	assert.Equal(t, zapcore.ErrorLevel, errs[0].Level)
}

func TestNew_RejectsUnknownLevel(t *testing.T) {
	_, err := New(Options{Level: "loud"})
	assert.Error(t, err)

	log, err := New(Options{Level: "debug", Development: true})
	require.NoError(t, err)
	assert.True(t, log.Core().Enabled(zapcore.DebugLevel))
}

func TestMaskToken(t *testing.T) {
	assert.Equal(t, "********wxyz", MaskToken("abcdefghijklmnopqrstuvwxyz"))
	assert.Equal(t, "***", MaskToken("abc"))
}
