// Package backup archives the workspace and ships it to S3-compatible
// storage on a cron schedule.
package backup

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/mileusna/crontab"
	"github.com/rs/zerolog"

	"github.com/JULIANJUAREZMX01/nanobot-cloud/internal/config"
)

var errBackupDisabled = errors.New("backup is not configured; set the backup bucket and credentials to enable it")

// keyPrefix is where archives land inside the bucket.
const keyPrefix = "backups/"

// Service zips the workspace and uploads it. When the bucket or
// credentials are missing it stays constructible but disabled.
type Service struct {
	workspaceDir string
	bucket       string
	client       *s3.Client
	log          zerolog.Logger
	disabled     bool
	schedule     string
	cron         *crontab.Crontab
}

// New creates a backup service from the config.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Service, error) {
	logger := log.With().Str("component", "backup").Logger()
	svc := &Service{
		workspaceDir: cfg.WorkspaceDir(),
		bucket:       strings.TrimSpace(cfg.Backup.Bucket),
		schedule:     cfg.Backup.Schedule,
		log:          logger,
	}

	accessKey := strings.TrimSpace(cfg.Backup.AccessKeyID)
	secretKey := strings.TrimSpace(cfg.Backup.SecretAccessKey)
	if svc.bucket == "" || accessKey == "" || secretKey == "" {
		logger.Warn().Msg("backup bucket or credentials not set; backups disabled until configured")
		svc.disabled = true
		return svc, nil
	}

	resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		if cfg.Backup.Endpoint != "" {
			return aws.Endpoint{
				URL:           cfg.Backup.Endpoint,
				PartitionID:   "aws",
				SigningRegion: cfg.Backup.Region,
			}, nil
		}
		return aws.Endpoint{}, &aws.EndpointNotFoundError{}
	})

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Backup.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")),
		awsconfig.WithEndpointResolverWithOptions(resolver),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	svc.client = s3.NewFromConfig(awsCfg)
	return svc, nil
}

// Enabled reports whether backups will actually upload anything.
func (s *Service) Enabled() bool {
	return !s.disabled
}

// Start registers the cron schedule. It is a no-op when disabled.
func (s *Service) Start(ctx context.Context) error {
	if s.disabled {
		return nil
	}

	s.cron = crontab.New()
	err := s.cron.AddJob(s.schedule, func() {
		if err := s.Run(ctx); err != nil {
			s.log.Error().Err(err).Msg("scheduled backup failed")
		}
	})
	if err != nil {
		return fmt.Errorf("invalid backup schedule %q: %w", s.schedule, err)
	}

	s.log.Info().Str("schedule", s.schedule).Msg("backup schedule registered")
	return nil
}

// Stop clears the cron schedule.
func (s *Service) Stop() {
	if s.cron != nil {
		s.cron.Clear()
	}
}

// Run performs one backup: archive the workspace, upload the zip.
func (s *Service) Run(ctx context.Context) error {
	if s.disabled {
		return errBackupDisabled
	}

	archive, err := ArchiveWorkspace(s.workspaceDir)
	if err != nil {
		return fmt.Errorf("failed to archive workspace: %w", err)
	}

	key := keyPrefix + "workspace_" + time.Now().UTC().Format(time.RFC3339) + ".zip"
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(archive),
		ContentType: aws.String("application/zip"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload backup: %w", err)
	}

	s.log.Info().Str("key", key).Int("bytes", len(archive)).Msg("backup uploaded")
	return nil
}

// ArchiveWorkspace zips the directory tree into memory. Paths inside the
// archive are relative to the workspace root.
func ArchiveWorkspace(dir string) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}

		w, err := zw.Create(filepath.ToSlash(rel))
		if err != nil {
			return err
		}

		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()

		_, err = io.Copy(w, f)
		return err
	})
	if err != nil {
		zw.Close()
		return nil, err
	}

	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
