package registry

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

const (
	snapshotCacheDirectoryNameConstant         = "cache"
	snapshotFileNameConstant                   = "registry.snapshot"
	compressedSnapshotPatternConstant          = "registry.snapshot.*.gz"
	stagedSnapshotPatternConstant              = "registry.snapshot.*.tmp"
	cacheDirectoryPermissionsConstant          = 0o755
	maxSnapshotBytesConstant                   = int64(1) << 30
	snapshotInspectionErrorTemplateConstant    = "unable to inspect registry snapshot %s: %w"
	cacheDirectoryErrorTemplateConstant        = "unable to create registry cache directory %s: %w"
	stageSnapshotErrorTemplateConstant         = "unable to stage registry snapshot: %w"
	snapshotDownloadErrorTemplateConstant      = "registry preparation failed: %w"
	snapshotDecompressionErrorTemplateConstant = "unable to decompress registry snapshot: %w"
	snapshotInstallErrorTemplateConstant       = "unable to install registry snapshot %s: %w"
	snapshotTooLargeErrorMessageConstant       = "registry snapshot exceeds the size limit"
	snapshotPresentLogMessageConstant          = "registry snapshot already present"
	snapshotReadyLogMessageConstant            = "registry snapshot downloaded"
	snapshotPathLogFieldConstant               = "snapshot_path"
	downloadedBytesLogFieldConstant            = "downloaded_bytes"
)

// SnapshotDownloader streams the compressed registry snapshot.
type SnapshotDownloader interface {
	DownloadRegistrySnapshot(requestContext context.Context, sink io.Writer) (int64, error)
}

// SnapshotManager materializes the local registry snapshot required before
// any registry operation runs.
type SnapshotManager struct {
	logger        *zap.Logger
	downloader    SnapshotDownloader
	homeDirectory string
}

// NewSnapshotManager wires a snapshot manager for the given keg home
// directory.
func NewSnapshotManager(logger *zap.Logger, downloader SnapshotDownloader, homeDirectory string) *SnapshotManager {
	resolvedLogger := logger
	if resolvedLogger == nil {
		resolvedLogger = zap.NewNop()
	}

	return &SnapshotManager{
		logger:        resolvedLogger,
		downloader:    downloader,
		homeDirectory: homeDirectory,
	}
}

// SnapshotPath reports where the decompressed registry snapshot lives.
func (manager *SnapshotManager) SnapshotPath() string {
	return filepath.Join(manager.homeDirectory, snapshotCacheDirectoryNameConstant, snapshotFileNameConstant)
}

// EnsureReady guarantees a registry snapshot exists locally, downloading and
// decompressing it on first use. A snapshot already on disk is trusted as-is.
func (manager *SnapshotManager) EnsureReady(executionContext context.Context) error {
	snapshotPath := manager.SnapshotPath()

	_, statError := os.Stat(snapshotPath)
	if statError == nil {
		manager.logger.Debug(snapshotPresentLogMessageConstant, zap.String(snapshotPathLogFieldConstant, snapshotPath))
		return nil
	}
	if !errors.Is(statError, fs.ErrNotExist) {
		return fmt.Errorf(snapshotInspectionErrorTemplateConstant, snapshotPath, statError)
	}

	cacheDirectory := filepath.Dir(snapshotPath)
	if directoryError := os.MkdirAll(cacheDirectory, cacheDirectoryPermissionsConstant); directoryError != nil {
		return fmt.Errorf(cacheDirectoryErrorTemplateConstant, cacheDirectory, directoryError)
	}

	compressedFile, tempError := os.CreateTemp(cacheDirectory, compressedSnapshotPatternConstant)
	if tempError != nil {
		return fmt.Errorf(stageSnapshotErrorTemplateConstant, tempError)
	}
	compressedPath := compressedFile.Name()
	defer func() {
		_ = os.Remove(compressedPath)
	}()

	downloadedBytes, downloadError := manager.downloader.DownloadRegistrySnapshot(executionContext, compressedFile)
	closeError := compressedFile.Close()
	if downloadError != nil {
		return fmt.Errorf(snapshotDownloadErrorTemplateConstant, downloadError)
	}
	if closeError != nil {
		return fmt.Errorf(stageSnapshotErrorTemplateConstant, closeError)
	}

	if installError := manager.installSnapshot(compressedPath, snapshotPath); installError != nil {
		return installError
	}

	manager.logger.Info(snapshotReadyLogMessageConstant,
		zap.String(snapshotPathLogFieldConstant, snapshotPath),
		zap.Int64(downloadedBytesLogFieldConstant, downloadedBytes),
	)

	return nil
}

func (manager *SnapshotManager) installSnapshot(compressedPath string, snapshotPath string) error {
	compressedFile, openError := os.Open(compressedPath)
	if openError != nil {
		return fmt.Errorf(stageSnapshotErrorTemplateConstant, openError)
	}
	defer func() {
		_ = compressedFile.Close()
	}()

	gzipReader, gzipError := gzip.NewReader(compressedFile)
	if gzipError != nil {
		return fmt.Errorf(snapshotDecompressionErrorTemplateConstant, gzipError)
	}
	defer func() {
		_ = gzipReader.Close()
	}()

	stagedFile, stageError := os.CreateTemp(filepath.Dir(snapshotPath), stagedSnapshotPatternConstant)
	if stageError != nil {
		return fmt.Errorf(stageSnapshotErrorTemplateConstant, stageError)
	}
	stagedPath := stagedFile.Name()
	defer func() {
		_ = os.Remove(stagedPath)
	}()

	writtenBytes, copyError := io.Copy(stagedFile, io.LimitReader(gzipReader, maxSnapshotBytesConstant+1))
	closeError := stagedFile.Close()
	if copyError != nil {
		return fmt.Errorf(snapshotDecompressionErrorTemplateConstant, copyError)
	}
	if writtenBytes > maxSnapshotBytesConstant {
		return errors.New(snapshotTooLargeErrorMessageConstant)
	}
	if closeError != nil {
		return fmt.Errorf(stageSnapshotErrorTemplateConstant, closeError)
	}

	if renameError := os.Rename(stagedPath, snapshotPath); renameError != nil {
		return fmt.Errorf(snapshotInstallErrorTemplateConstant, snapshotPath, renameError)
	}

	return nil
}
