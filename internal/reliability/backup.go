// Package reliability provides database snapshots and cloud backup uploads.
package reliability

import (
	"archive/tar"
	"compress/gzip"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// BackupService creates consistent snapshots of the portfolio database and
// packages them into checksummed tar.gz archives.
type BackupService struct {
	db      *sql.DB
	dataDir string
	log     zerolog.Logger
}

// ArchiveMetadata describes one backup archive
type ArchiveMetadata struct {
	Timestamp time.Time `json:"timestamp"`
	Database  string    `json:"database"`
	SizeBytes int64     `json:"size_bytes"`
	Checksum  string    `json:"checksum"`
}

// NewBackupService creates a new backup service
func NewBackupService(db *sql.DB, dataDir string, log zerolog.Logger) *BackupService {
	return &BackupService{
		db:      db,
		dataDir: dataDir,
		log:     log.With().Str("service", "backup").Logger(),
	}
}

// Snapshot writes a consistent copy of the live database to destPath using
// VACUUM INTO, which is safe against concurrent writers in WAL mode.
func (s *BackupService) Snapshot(destPath string) error {
	// VACUUM INTO refuses to overwrite
	if err := os.Remove(destPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove stale snapshot: %w", err)
	}

	if _, err := s.db.Exec(`VACUUM INTO ?`, destPath); err != nil {
		return fmt.Errorf("failed to snapshot database: %w", err)
	}
	return nil
}

// CreateArchive snapshots the database and packages it with metadata into a
// timestamped tar.gz under the staging directory. Returns the archive path
// and its metadata.
func (s *BackupService) CreateArchive() (string, *ArchiveMetadata, error) {
	stagingDir := filepath.Join(s.dataDir, "backup-staging")
	if err := os.MkdirAll(stagingDir, 0755); err != nil {
		return "", nil, fmt.Errorf("failed to create staging directory: %w", err)
	}

	snapshotPath := filepath.Join(stagingDir, "portfolio.db")
	if err := s.Snapshot(snapshotPath); err != nil {
		return "", nil, err
	}
	defer os.Remove(snapshotPath)

	info, err := os.Stat(snapshotPath)
	if err != nil {
		return "", nil, fmt.Errorf("failed to stat snapshot: %w", err)
	}
	checksum, err := fileChecksum(snapshotPath)
	if err != nil {
		return "", nil, fmt.Errorf("failed to checksum snapshot: %w", err)
	}

	meta := &ArchiveMetadata{
		Timestamp: time.Now().UTC(),
		Database:  "portfolio",
		SizeBytes: info.Size(),
		Checksum:  checksum,
	}

	archivePath := filepath.Join(stagingDir,
		fmt.Sprintf("payoff-backup-%s.tar.gz", meta.Timestamp.Format("20060102-150405")))
	if err := writeArchive(archivePath, snapshotPath, meta); err != nil {
		return "", nil, err
	}

	s.log.Info().
		Str("archive", filepath.Base(archivePath)).
		Int64("size_bytes", meta.SizeBytes).
		Msg("Backup archive created")

	return archivePath, meta, nil
}

// writeArchive produces a tar.gz containing the snapshot and metadata.json
func writeArchive(archivePath, snapshotPath string, meta *ArchiveMetadata) error {
	out, err := os.Create(archivePath)
	if err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}
	defer out.Close()

	gzw := gzip.NewWriter(out)
	defer gzw.Close()
	tw := tar.NewWriter(gzw)
	defer tw.Close()

	metaJSON, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}
	if err := tw.WriteHeader(&tar.Header{
		Name:    "metadata.json",
		Mode:    0644,
		Size:    int64(len(metaJSON)),
		ModTime: meta.Timestamp,
	}); err != nil {
		return fmt.Errorf("failed to write metadata header: %w", err)
	}
	if _, err := tw.Write(metaJSON); err != nil {
		return fmt.Errorf("failed to write metadata: %w", err)
	}

	snapshot, err := os.Open(snapshotPath)
	if err != nil {
		return fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer snapshot.Close()

	if err := tw.WriteHeader(&tar.Header{
		Name:    "portfolio.db",
		Mode:    0644,
		Size:    meta.SizeBytes,
		ModTime: meta.Timestamp,
	}); err != nil {
		return fmt.Errorf("failed to write snapshot header: %w", err)
	}
	if _, err := io.Copy(tw, snapshot); err != nil {
		return fmt.Errorf("failed to write snapshot to archive: %w", err)
	}

	return nil
}

// fileChecksum returns the hex sha256 of a file
func fileChecksum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
