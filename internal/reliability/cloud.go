package reliability

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"

	"github.com/askourtis/payoff/internal/config"
	"github.com/askourtis/payoff/internal/events"
)

const backupPrefix = "backups/"

// CloudBackupService uploads backup archives to S3-compatible storage.
// A custom endpoint makes it work against R2/MinIO as well as plain S3.
type CloudBackupService struct {
	client        *s3.Client
	uploader      *manager.Uploader
	backupService *BackupService
	bucket        string
	keep          int
	eventBus      *events.Bus
	log           zerolog.Logger
}

// NewCloudBackupService creates the S3 client and wires it to the local
// backup service.
func NewCloudBackupService(
	ctx context.Context,
	cfg *config.BackupConfig,
	backupService *BackupService,
	eventBus *events.Bus,
	log zerolog.Logger,
) (*CloudBackupService, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			// R2/MinIO style endpoints address buckets by path
			o.UsePathStyle = true
		}
	})

	return &CloudBackupService{
		client:        client,
		uploader:      manager.NewUploader(client),
		backupService: backupService,
		bucket:        cfg.Bucket,
		keep:          cfg.Keep,
		eventBus:      eventBus,
		log:           log.With().Str("service", "cloud_backup").Logger(),
	}, nil
}

// CreateAndUpload creates a fresh backup archive, uploads it, then prunes
// remote backups beyond the retention count.
func (s *CloudBackupService) CreateAndUpload(ctx context.Context) error {
	archivePath, meta, err := s.backupService.CreateArchive()
	if err != nil {
		return err
	}
	defer os.Remove(archivePath)

	f, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer f.Close()

	key := backupPrefix + filepath.Base(archivePath)
	if _, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   f,
	}); err != nil {
		return fmt.Errorf("failed to upload backup: %w", err)
	}

	info, err := os.Stat(archivePath)
	if err != nil {
		return fmt.Errorf("failed to stat archive: %w", err)
	}

	s.log.Info().
		Str("key", key).
		Int64("size_bytes", info.Size()).
		Str("checksum", meta.Checksum).
		Msg("Backup uploaded")

	if s.eventBus != nil {
		s.eventBus.Publish(&events.BackupCompletedData{Key: key, SizeBytes: info.Size()})
	}

	return s.prune(ctx)
}

// prune deletes remote backups beyond the retention count, oldest first
func (s *CloudBackupService) prune(ctx context.Context) error {
	if s.keep <= 0 {
		return nil
	}

	out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(backupPrefix),
	})
	if err != nil {
		return fmt.Errorf("failed to list remote backups: %w", err)
	}

	keys := make([]string, 0, len(out.Contents))
	for _, obj := range out.Contents {
		if obj.Key != nil && strings.HasSuffix(*obj.Key, ".tar.gz") {
			keys = append(keys, *obj.Key)
		}
	}
	// Archive names carry a sortable timestamp
	sort.Strings(keys)

	for len(keys) > s.keep {
		key := keys[0]
		keys = keys[1:]
		if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		}); err != nil {
			return fmt.Errorf("failed to delete old backup %s: %w", key, err)
		}
		s.log.Info().Str("key", key).Msg("Old backup pruned")
	}

	return nil
}
