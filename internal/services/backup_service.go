package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.uber.org/zap"

	"invoice-backend/internal/apperr"
	"invoice-backend/internal/config"
	"invoice-backend/internal/logging"
	"invoice-backend/internal/timeutil"
)

// ObjectStore is the part of *s3.Client the backups use.
type ObjectStore interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// Snapshottable is a collection that can be dumped and restored as raw JSON.
// *store.Collection implements it.
type Snapshottable interface {
	Name() string
	Export(ctx context.Context) ([]byte, error)
	Import(ctx context.Context, data []byte) error
}

// Backup describes one snapshot in the bucket.
type Backup struct {
	Stamp       string    `json:"stamp"`
	TakenAt     time.Time `json:"taken_at"`
	Collections []string  `json:"collections"`
	SizeBytes   int64     `json:"size_bytes"`
}

type BackupService struct {
	client      ObjectStore
	bucket      string
	prefix      string
	collections []Snapshottable
	events      logging.Events
	now         timeutil.Clock
}

// NewS3Client builds a client for an S3-compatible endpoint (R2, MinIO, AWS).
func NewS3Client(ctx context.Context, cfg config.BackupConfig) (*s3.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
		awsconfig.WithRegion(cfg.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("configure object storage client: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

func NewBackupService(client ObjectStore, cfg config.BackupConfig, events logging.Events, collections ...Snapshottable) *BackupService {
	return &BackupService{
		client:      client,
		bucket:      cfg.Bucket,
		prefix:      strings.Trim(cfg.Prefix, "/"),
		collections: collections,
		events:      events,
		now:         timeutil.Now,
	}
}

func (s *BackupService) key(stamp, collection string) string {
	return path.Join(s.prefix, stamp, collection+".json")
}

// Snapshot uploads every collection under a new UTC timestamp and returns it.
func (s *BackupService) Snapshot(ctx context.Context) (*Backup, error) {
	taken := s.now().UTC()
	b := &Backup{Stamp: taken.Format(timeutil.StampLayout), TakenAt: taken}

	for _, c := range s.collections {
		data, err := c.Export(ctx)
		if err != nil {
			return nil, err
		}
		_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(s.bucket),
			Key:         aws.String(s.key(b.Stamp, c.Name())),
			Body:        bytes.NewReader(data),
			ContentType: aws.String("application/json"),
		})
		if err != nil {
			return nil, fmt.Errorf("upload %s: %w", c.Name(), err)
		}
		b.Collections = append(b.Collections, c.Name())
		b.SizeBytes += int64(len(data))
	}

	s.events.Business("backup_created", "Snapshot "+b.Stamp+" uploaded", 0,
		zap.String("stamp", b.Stamp), zap.Int64("size_bytes", b.SizeBytes))
	return b, nil
}

// List returns the snapshots in the bucket, newest first.
func (s *BackupService) List(ctx context.Context) ([]Backup, error) {
	byStamp := make(map[string]*Backup)
	var token *string
	for {
		out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(s.bucket),
			Prefix:            aws.String(s.prefix + "/"),
			ContinuationToken: token,
		})
		if err != nil {
			return nil, fmt.Errorf("list backups: %w", err)
		}
		for _, obj := range out.Contents {
			stamp, name, ok := s.parseKey(aws.ToString(obj.Key))
			if !ok {
				continue
			}
			b, seen := byStamp[stamp]
			if !seen {
				taken, err := time.Parse(timeutil.StampLayout, stamp)
				if err != nil {
					continue
				}
				b = &Backup{Stamp: stamp, TakenAt: taken}
				byStamp[stamp] = b
			}
			b.Collections = append(b.Collections, name)
			b.SizeBytes += aws.ToInt64(obj.Size)
		}
		if !aws.ToBool(out.IsTruncated) {
			break
		}
		token = out.NextContinuationToken
	}

	backups := make([]Backup, 0, len(byStamp))
	for _, b := range byStamp {
		sort.Strings(b.Collections)
		backups = append(backups, *b)
	}
	sort.Slice(backups, func(i, j int) bool { return backups[i].Stamp > backups[j].Stamp })
	return backups, nil
}

func (s *BackupService) parseKey(key string) (stamp, collection string, ok bool) {
	rest, found := strings.CutPrefix(key, s.prefix+"/")
	if !found {
		return "", "", false
	}
	stamp, file, found := strings.Cut(rest, "/")
	if !found || !strings.HasSuffix(file, ".json") {
		return "", "", false
	}
	return stamp, strings.TrimSuffix(file, ".json"), true
}

// Restore replaces every collection with its copy from the snapshot stamp.
// Collections missing from the snapshot are left alone.
func (s *BackupService) Restore(ctx context.Context, stamp string, actorID int) error {
	if _, err := time.Parse(timeutil.StampLayout, stamp); err != nil {
		return fmt.Errorf("%w: bad backup stamp %q", apperr.ErrValidation, stamp)
	}

	// Fetch everything first so a transport failure never leaves a half-restored store.
	snapshot := make(map[string][]byte, len(s.collections))
	for _, c := range s.collections {
		out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(s.key(stamp, c.Name())),
		})
		var missing *types.NoSuchKey
		if errors.As(err, &missing) {
			continue
		}
		if err != nil {
			return fmt.Errorf("fetch backup %s/%s: %w", stamp, c.Name(), err)
		}
		data, err := io.ReadAll(out.Body)
		out.Body.Close()
		if err != nil {
			return fmt.Errorf("read backup %s/%s: %w", stamp, c.Name(), err)
		}
		snapshot[c.Name()] = data
	}

	restored := 0
	for _, c := range s.collections {
		data, ok := snapshot[c.Name()]
		if !ok {
			continue
		}
		if err := c.Import(ctx, data); err != nil {
			return err
		}
		restored++
	}
	if restored == 0 {
		return fmt.Errorf("backup %s: %w", stamp, apperr.ErrNotFound)
	}

	s.events.Business("backup_restored", "Snapshot "+stamp+" restored", actorID,
		zap.String("stamp", stamp), zap.Int("collections", restored))
	return nil
}
