package docs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/kegpkg/keg/internal/archive"
	"github.com/kegpkg/keg/internal/browser"
	"github.com/kegpkg/keg/internal/credentials"
)

const (
	documentationIndexFileNameConstant    = "index.html"
	docsDirectoryTemplateConstant         = "%s-%s"
	archiveFileNameTemplateConstant       = "%s-%s.tar.gz"
	archiveStagePatternConstant           = "docs-archive-*.partial"
	docsDirectoryPermissionsConstant      = 0o755
	versionPrefixConstant                 = "v"
	docsDirectoryErrorTemplateConstant    = "unable to create documentation directory %s: %w"
	stageArchiveErrorTemplateConstant     = "unable to stage documentation archive: %w"
	fetchFailureTemplateConstant          = "fetching documentation for %s %s failed: %w"
	revertFailureTemplateConstant         = "reverting documentation for %s %s failed: %w"
	invalidVersionTemplateConstant        = "invalid documentation version %q: %w"
	keySourceErrorTemplateConstant        = "invalid API key source: %w"
	keyResolutionErrorTemplateConstant    = "unable to resolve registry API key: %w"
	indexInspectionErrorTemplateConstant  = "unable to inspect %s: %w"
	documentationNotFoundTemplateConstant = "documentation file not found: %s"
	fetchCompletedTemplateConstant        = "Docs fetched: %s\n"
	openingDocumentTemplateConstant       = "Opening %s\n"
	revertCompletedTemplateConstant       = "Reverted docs for %s %s\n"
	downloadProgressTemplateConstant      = "Downloaded %s in %s\n"
	archiveDownloadedLogMessageConstant   = "documentation archive downloaded"
	docsFetchedLogMessageConstant         = "documentation fetched"
	docsRevertedLogMessageConstant        = "documentation reverted"
	packageNameLogFieldConstant           = "package_name"
	packageVersionLogFieldConstant        = "package_version"
	docsDirectoryLogFieldConstant         = "docs_directory"
	downloadedBytesLogFieldConstant       = "downloaded_bytes"
)

// Target identifies the package release whose documentation an operation
// addresses.
type Target struct {
	Name    string
	Version string
}

// FetchOptions adjust documentation fetch behavior.
type FetchOptions struct {
	Target         Target
	ReportProgress bool
}

// ArchiveDownloader streams documentation archives from the registry.
type ArchiveDownloader interface {
	DownloadDocsArchive(requestContext context.Context, packageName string, packageVersion string, sink io.Writer) (int64, error)
}

// ReleaseDocsRemover deletes published documentation from the registry.
type ReleaseDocsRemover interface {
	DeleteReleaseDocs(requestContext context.Context, packageName string, packageVersion string, apiKey string) error
}

// DocumentationNotFoundError reports a missing local documentation tree.
type DocumentationNotFoundError struct {
	Path string
}

// Error names the missing documentation file.
func (notFoundError *DocumentationNotFoundError) Error() string {
	return fmt.Sprintf(documentationNotFoundTemplateConstant, notFoundError.Path)
}

// ServiceDependencies carries the collaborators a documentation service
// needs.
type ServiceDependencies struct {
	Logger      *zap.Logger
	Downloader  ArchiveDownloader
	Remover     ReleaseDocsRemover
	KeyResolver credentials.KeyResolver
	Launcher    browser.Launcher
	Output      io.Writer
}

// Service performs the fetch, open, and revert documentation operations.
type Service struct {
	logger        *zap.Logger
	downloader    ArchiveDownloader
	remover       ReleaseDocsRemover
	keyResolver   credentials.KeyResolver
	launcher      browser.Launcher
	output        io.Writer
	configuration Configuration
}

// NewService wires a documentation service from its dependencies.
func NewService(configuration Configuration, dependencies ServiceDependencies) *Service {
	resolvedLogger := dependencies.Logger
	if resolvedLogger == nil {
		resolvedLogger = zap.NewNop()
	}

	resolvedOutput := dependencies.Output
	if resolvedOutput == nil {
		resolvedOutput = os.Stdout
	}

	return &Service{
		logger:        resolvedLogger,
		downloader:    dependencies.Downloader,
		remover:       dependencies.Remover,
		keyResolver:   dependencies.KeyResolver,
		launcher:      dependencies.Launcher,
		output:        resolvedOutput,
		configuration: configuration,
	}
}

// DocsDirectory reports the extraction directory for a release.
func (service *Service) DocsDirectory(target Target) string {
	directoryName := fmt.Sprintf(docsDirectoryTemplateConstant, target.Name, target.Version)
	return filepath.Join(service.configuration.DocsRootDirectory(), directoryName)
}

// Fetch downloads the documentation archive for the target release and
// extracts it in place. The downloaded archive stays next to the extracted
// files, even when extraction fails.
func (service *Service) Fetch(executionContext context.Context, options FetchOptions) (string, error) {
	target := options.Target
	docsDirectory := service.DocsDirectory(target)

	if directoryError := os.MkdirAll(docsDirectory, docsDirectoryPermissionsConstant); directoryError != nil {
		return "", fmt.Errorf(docsDirectoryErrorTemplateConstant, docsDirectory, directoryError)
	}

	archivePath := filepath.Join(docsDirectory, fmt.Sprintf(archiveFileNameTemplateConstant, target.Name, target.Version))

	downloadStart := time.Now()
	downloadedBytes, downloadError := service.downloadArchive(executionContext, target, docsDirectory, archivePath)
	if downloadError != nil {
		return "", fmt.Errorf(fetchFailureTemplateConstant, target.Name, target.Version, downloadError)
	}

	if options.ReportProgress {
		downloadDuration := time.Since(downloadStart).Round(time.Millisecond)
		fmt.Fprintf(service.output, downloadProgressTemplateConstant, humanize.Bytes(uint64(downloadedBytes)), downloadDuration)
	}

	service.logger.Debug(archiveDownloadedLogMessageConstant,
		zap.String(packageNameLogFieldConstant, target.Name),
		zap.String(packageVersionLogFieldConstant, target.Version),
		zap.Int64(downloadedBytesLogFieldConstant, downloadedBytes),
	)

	if extractionError := archive.ExtractTarGz(archivePath, docsDirectory); extractionError != nil {
		return "", fmt.Errorf(fetchFailureTemplateConstant, target.Name, target.Version, extractionError)
	}

	fmt.Fprintf(service.output, fetchCompletedTemplateConstant, docsDirectory)
	service.logger.Info(docsFetchedLogMessageConstant,
		zap.String(packageNameLogFieldConstant, target.Name),
		zap.String(packageVersionLogFieldConstant, target.Version),
		zap.String(docsDirectoryLogFieldConstant, docsDirectory),
	)

	return docsDirectory, nil
}

// Open launches the default browser on the locally fetched documentation and
// reports the opened index path.
func (service *Service) Open(target Target) (string, error) {
	indexPath := filepath.Join(service.DocsDirectory(target), documentationIndexFileNameConstant)

	if _, statError := os.Stat(indexPath); statError != nil {
		if errors.Is(statError, fs.ErrNotExist) {
			return "", &DocumentationNotFoundError{Path: indexPath}
		}
		return "", fmt.Errorf(indexInspectionErrorTemplateConstant, indexPath, statError)
	}

	fmt.Fprintf(service.output, openingDocumentTemplateConstant, indexPath)
	if launchError := service.launcher.OpenDocument(indexPath); launchError != nil {
		return "", launchError
	}

	return indexPath, nil
}

// Revert removes the published documentation for the target release. The
// version must be a valid release version; local files are never touched.
func (service *Service) Revert(executionContext context.Context, target Target) error {
	normalizedVersion, versionError := normalizeReleaseVersion(target.Version)
	if versionError != nil {
		return versionError
	}

	keySource, keySourceError := credentials.ParseKeySource(service.configuration.APIKeySource)
	if keySourceError != nil {
		return fmt.Errorf(keySourceErrorTemplateConstant, keySourceError)
	}

	apiKey, keyError := service.keyResolver.ResolveKey(executionContext, keySource)
	if keyError != nil {
		return fmt.Errorf(keyResolutionErrorTemplateConstant, keyError)
	}

	if revertError := service.remover.DeleteReleaseDocs(executionContext, target.Name, normalizedVersion, apiKey); revertError != nil {
		return fmt.Errorf(revertFailureTemplateConstant, target.Name, normalizedVersion, revertError)
	}

	fmt.Fprintf(service.output, revertCompletedTemplateConstant, target.Name, normalizedVersion)
	service.logger.Info(docsRevertedLogMessageConstant,
		zap.String(packageNameLogFieldConstant, target.Name),
		zap.String(packageVersionLogFieldConstant, normalizedVersion),
	)

	return nil
}

func (service *Service) downloadArchive(executionContext context.Context, target Target, docsDirectory string, archivePath string) (int64, error) {
	stagedFile, stageError := os.CreateTemp(docsDirectory, archiveStagePatternConstant)
	if stageError != nil {
		return 0, fmt.Errorf(stageArchiveErrorTemplateConstant, stageError)
	}
	stagedPath := stagedFile.Name()

	downloadedBytes, downloadError := service.downloader.DownloadDocsArchive(executionContext, target.Name, target.Version, stagedFile)
	closeError := stagedFile.Close()
	if downloadError != nil {
		_ = os.Remove(stagedPath)
		return 0, downloadError
	}
	if closeError != nil {
		_ = os.Remove(stagedPath)
		return 0, fmt.Errorf(stageArchiveErrorTemplateConstant, closeError)
	}

	if renameError := os.Rename(stagedPath, archivePath); renameError != nil {
		_ = os.Remove(stagedPath)
		return 0, fmt.Errorf(stageArchiveErrorTemplateConstant, renameError)
	}

	return downloadedBytes, nil
}

func normalizeReleaseVersion(rawVersion string) (string, error) {
	trimmedVersion := strings.TrimSpace(rawVersion)
	trimmedVersion = strings.TrimPrefix(trimmedVersion, versionPrefixConstant)

	parsedVersion, parseError := semver.StrictNewVersion(trimmedVersion)
	if parseError != nil {
		return "", fmt.Errorf(invalidVersionTemplateConstant, rawVersion, parseError)
	}

	return parsedVersion.String(), nil
}
