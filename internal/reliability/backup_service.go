package reliability

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const backupPrefix = "boru-backup-"

// backupFiles are the persisted state files included in every archive.
// Missing files are skipped: a fresh deployment has no journal yet.
var backupFiles = []string{"orders.jsonl", "admin_mode.json"}

// BackupService archives the journal and mode file and ships the archive
// to S3-compatible storage.
type BackupService struct {
	s3      *S3Client
	dataDir string
	log     zerolog.Logger
}

// BackupMetadata contains metadata about a backup
type BackupMetadata struct {
	Timestamp time.Time      `json:"timestamp"`
	Service   string         `json:"service"`
	Files     []FileMetadata `json:"files"`
}

// FileMetadata describes one file inside the archive
type FileMetadata struct {
	Filename  string `json:"filename"`
	SizeBytes int64  `json:"size_bytes"`
	Checksum  string `json:"checksum"`
}

// BackupInfo represents a backup stored remotely
type BackupInfo struct {
	Filename  string    `json:"filename"`
	Timestamp time.Time `json:"timestamp"`
	SizeBytes int64     `json:"size_bytes"`
	AgeHours  int64     `json:"age_hours"`
}

// NewBackupService creates a backup service. s3 may be nil, in which case
// every operation reports backups as unconfigured.
func NewBackupService(s3 *S3Client, dataDir string, log zerolog.Logger) *BackupService {
	return &BackupService{
		s3:      s3,
		dataDir: dataDir,
		log:     log.With().Str("service", "backup").Logger(),
	}
}

// Enabled reports whether backup storage is wired up
func (s *BackupService) Enabled() bool {
	return s != nil && s.s3 != nil
}

// CreateAndUploadBackup stages the state files, archives them and uploads
// the archive. Returns the archive name.
func (s *BackupService) CreateAndUploadBackup(ctx context.Context) (string, error) {
	if !s.Enabled() {
		return "", fmt.Errorf("backup storage is not configured")
	}

	s.log.Info().Msg("Starting backup")
	startTime := time.Now()

	stagingDir, err := os.MkdirTemp(s.dataDir, "backup-staging-")
	if err != nil {
		return "", fmt.Errorf("failed to create staging directory: %w", err)
	}
	defer os.RemoveAll(stagingDir)

	archiveName := fmt.Sprintf("%s%s.tar.gz", backupPrefix, time.Now().UTC().Format("2006-01-02-150405"))
	archivePath := filepath.Join(stagingDir, archiveName)

	staged, err := s.stageFiles(stagingDir)
	if err != nil {
		return "", err
	}
	if err := createArchive(archivePath, stagingDir, staged); err != nil {
		return "", fmt.Errorf("failed to create archive: %w", err)
	}

	archiveFile, err := os.Open(archivePath)
	if err != nil {
		return "", fmt.Errorf("failed to open archive: %w", err)
	}
	defer archiveFile.Close()

	if err := s.s3.Upload(ctx, archiveName, archiveFile); err != nil {
		return "", err
	}

	s.log.Info().
		Dur("duration_ms", time.Since(startTime)).
		Str("archive", archiveName).
		Msg("Backup completed successfully")

	return archiveName, nil
}

// stageFiles copies the state files into the staging dir and writes the
// metadata file. Returns the archive member filenames.
func (s *BackupService) stageFiles(stagingDir string) ([]string, error) {
	metadata := BackupMetadata{
		Timestamp: time.Now().UTC(),
		Service:   "esentrader-boru-api",
		Files:     make([]FileMetadata, 0, len(backupFiles)),
	}

	staged := make([]string, 0, len(backupFiles)+1)
	for _, name := range backupFiles {
		srcPath := filepath.Join(s.dataDir, name)
		info, err := os.Stat(srcPath)
		if err != nil {
			if os.IsNotExist(err) {
				s.log.Debug().Str("file", name).Msg("State file missing, skipping")
				continue
			}
			return nil, fmt.Errorf("failed to stat %s: %w", name, err)
		}

		dstPath := filepath.Join(stagingDir, name)
		if err := copyFile(srcPath, dstPath); err != nil {
			return nil, fmt.Errorf("failed to stage %s: %w", name, err)
		}

		checksum, err := calculateChecksum(dstPath)
		if err != nil {
			return nil, fmt.Errorf("failed to calculate checksum for %s: %w", name, err)
		}

		metadata.Files = append(metadata.Files, FileMetadata{
			Filename:  name,
			SizeBytes: info.Size(),
			Checksum:  checksum,
		})
		staged = append(staged, name)
	}

	metadataPath := filepath.Join(stagingDir, "backup-metadata.json")
	if err := writeMetadata(metadataPath, metadata); err != nil {
		return nil, fmt.Errorf("failed to write metadata: %w", err)
	}
	staged = append(staged, "backup-metadata.json")

	return staged, nil
}

// ListBackups lists the stored backups, newest first
func (s *BackupService) ListBackups(ctx context.Context) ([]BackupInfo, error) {
	if !s.Enabled() {
		return nil, fmt.Errorf("backup storage is not configured")
	}

	objects, err := s.s3.List(ctx, backupPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list backups: %w", err)
	}

	backups := make([]BackupInfo, 0, len(objects))
	now := time.Now()

	for _, obj := range objects {
		if obj.Key == nil {
			continue
		}

		filename := *obj.Key
		timestamp, ok := parseBackupTimestamp(filename)
		if !ok {
			s.log.Warn().Str("filename", filename).Msg("Failed to parse timestamp from filename")
			continue
		}

		var sizeBytes int64
		if obj.Size != nil {
			sizeBytes = *obj.Size
		}

		backups = append(backups, BackupInfo{
			Filename:  filename,
			Timestamp: timestamp,
			SizeBytes: sizeBytes,
			AgeHours:  int64(now.Sub(timestamp).Hours()),
		})
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].Timestamp.After(backups[j].Timestamp)
	})

	return backups, nil
}

// RotateOldBackups deletes backups older than the retention period.
// Keeps a minimum of 3 backups regardless of age; retentionDays 0 keeps
// everything.
func (s *BackupService) RotateOldBackups(ctx context.Context, retentionDays int) error {
	if !s.Enabled() {
		return fmt.Errorf("backup storage is not configured")
	}

	backups, err := s.ListBackups(ctx)
	if err != nil {
		return err
	}

	const minBackupsToKeep = 3
	if len(backups) <= minBackupsToKeep || retentionDays <= 0 {
		return nil
	}

	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	deleted := 0

	for i, backup := range backups {
		if i < minBackupsToKeep {
			continue
		}
		if backup.Timestamp.Before(cutoff) {
			if err := s.s3.Delete(ctx, backup.Filename); err != nil {
				s.log.Error().Err(err).Str("filename", backup.Filename).Msg("Failed to delete old backup")
				continue
			}
			deleted++
		}
	}

	s.log.Info().
		Int("deleted", deleted).
		Int("remaining", len(backups)-deleted).
		Msg("Backup rotation completed")

	return nil
}

// parseBackupTimestamp extracts the timestamp from an archive name like
// boru-backup-2026-08-31-143022.tar.gz
func parseBackupTimestamp(filename string) (time.Time, bool) {
	if !strings.HasPrefix(filename, backupPrefix) || !strings.HasSuffix(filename, ".tar.gz") {
		return time.Time{}, false
	}
	raw := strings.TrimSuffix(strings.TrimPrefix(filename, backupPrefix), ".tar.gz")
	timestamp, err := time.Parse("2006-01-02-150405", raw)
	if err != nil {
		return time.Time{}, false
	}
	return timestamp, true
}

// calculateChecksum calculates SHA256 checksum of a file
func calculateChecksum(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}

	return fmt.Sprintf("sha256:%x", hash.Sum(nil)), nil
}

// writeMetadata writes backup metadata to a JSON file
func writeMetadata(path string, metadata BackupMetadata) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(metadata)
}

// copyFile copies src to dst
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}

// createArchive creates a tar.gz archive of the named files in sourceDir
func createArchive(archivePath, sourceDir string, filenames []string) error {
	archiveFile, err := os.Create(archivePath)
	if err != nil {
		return fmt.Errorf("failed to create archive file: %w", err)
	}
	defer archiveFile.Close()

	gzipWriter := gzip.NewWriter(archiveFile)
	defer gzipWriter.Close()

	tarWriter := tar.NewWriter(gzipWriter)
	defer tarWriter.Close()

	for _, filename := range filenames {
		if err := addFileToArchive(tarWriter, filepath.Join(sourceDir, filename), filename); err != nil {
			return fmt.Errorf("failed to add %s to archive: %w", filename, err)
		}
	}

	return nil
}

// addFileToArchive adds a single file to a tar archive
func addFileToArchive(tarWriter *tar.Writer, filePath, nameInArchive string) error {
	file, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return err
	}

	header := &tar.Header{
		Name:    nameInArchive,
		Size:    info.Size(),
		Mode:    int64(info.Mode()),
		ModTime: info.ModTime(),
	}

	if err := tarWriter.WriteHeader(header); err != nil {
		return err
	}

	if _, err := io.Copy(tarWriter, file); err != nil {
		return err
	}

	return nil
}
