package archive

import (
	"archive/tar"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const (
	openArchiveErrorTemplateConstant     = "unable to open archive %s: %w"
	gzipReaderErrorTemplateConstant      = "unable to decompress archive %s: %w"
	tarEntryErrorTemplateConstant        = "unable to read entry from archive %s: %w"
	unsafeEntryPathTemplateConstant      = "archive %s contains unsafe entry path %q"
	entryTooLargeTemplateConstant        = "archive entry %s exceeds the extraction size limit"
	createDirectoryErrorTemplateConstant = "unable to create directory %s: %w"
	createFileErrorTemplateConstant      = "unable to create file %s: %w"
	writeFileErrorTemplateConstant       = "unable to write file %s: %w"
	createArchiveErrorTemplateConstant   = "unable to create archive %s: %w"
	writeEntryErrorTemplateConstant      = "unable to write archive entry %s: %w"
	closeArchiveErrorTemplateConstant    = "unable to finalize archive %s: %w"
	extractedDirectoryPermissions        = 0o755
	archiveEntryPermissions              = 0o644
	maxExtractedEntryBytesConstant       = int64(1) << 30
)

// ExtractTarGz unpacks a gzip-compressed tar archive into the destination
// directory. Entry paths are validated before extraction so an archive can
// never write outside the destination.
func ExtractTarGz(archivePath string, destinationDirectory string) error {
	archiveFile, openError := os.Open(archivePath)
	if openError != nil {
		return fmt.Errorf(openArchiveErrorTemplateConstant, archivePath, openError)
	}
	defer func() {
		_ = archiveFile.Close()
	}()

	gzipReader, gzipError := gzip.NewReader(archiveFile)
	if gzipError != nil {
		return fmt.Errorf(gzipReaderErrorTemplateConstant, archivePath, gzipError)
	}
	defer func() {
		_ = gzipReader.Close()
	}()

	tarReader := tar.NewReader(gzipReader)
	for {
		entryHeader, entryError := tarReader.Next()
		if errors.Is(entryError, io.EOF) {
			return nil
		}
		if entryError != nil {
			return fmt.Errorf(tarEntryErrorTemplateConstant, archivePath, entryError)
		}

		if !isSafeRelativePath(entryHeader.Name) {
			return fmt.Errorf(unsafeEntryPathTemplateConstant, archivePath, entryHeader.Name)
		}

		entryDestination := filepath.Join(destinationDirectory, filepath.FromSlash(entryHeader.Name))

		switch entryHeader.Typeflag {
		case tar.TypeDir:
			if directoryError := os.MkdirAll(entryDestination, extractedDirectoryPermissions); directoryError != nil {
				return fmt.Errorf(createDirectoryErrorTemplateConstant, entryDestination, directoryError)
			}
		case tar.TypeReg:
			if extractionError := extractRegularFile(tarReader, entryHeader, entryDestination); extractionError != nil {
				return extractionError
			}
		default:
			continue
		}
	}
}

// WriteTarGz creates a gzip-compressed tar archive at destinationPath holding
// the given entries. Entry names use forward slashes relative to the archive
// root.
func WriteTarGz(destinationPath string, archiveEntries map[string][]byte) error {
	destinationFile, createError := os.Create(destinationPath)
	if createError != nil {
		return fmt.Errorf(createArchiveErrorTemplateConstant, destinationPath, createError)
	}
	defer func() {
		_ = destinationFile.Close()
	}()

	gzipWriter := gzip.NewWriter(destinationFile)
	tarWriter := tar.NewWriter(gzipWriter)

	entryNames := make([]string, 0, len(archiveEntries))
	for entryName := range archiveEntries {
		entryNames = append(entryNames, entryName)
	}
	sort.Strings(entryNames)

	for _, entryName := range entryNames {
		entryContents := archiveEntries[entryName]
		entryHeader := &tar.Header{
			Name:     entryName,
			Typeflag: tar.TypeReg,
			Mode:     archiveEntryPermissions,
			Size:     int64(len(entryContents)),
			ModTime:  time.Now(),
		}
		if headerError := tarWriter.WriteHeader(entryHeader); headerError != nil {
			return fmt.Errorf(writeEntryErrorTemplateConstant, entryName, headerError)
		}
		if _, contentError := tarWriter.Write(entryContents); contentError != nil {
			return fmt.Errorf(writeEntryErrorTemplateConstant, entryName, contentError)
		}
	}

	if tarCloseError := tarWriter.Close(); tarCloseError != nil {
		return fmt.Errorf(closeArchiveErrorTemplateConstant, destinationPath, tarCloseError)
	}
	if gzipCloseError := gzipWriter.Close(); gzipCloseError != nil {
		return fmt.Errorf(closeArchiveErrorTemplateConstant, destinationPath, gzipCloseError)
	}
	if fileCloseError := destinationFile.Close(); fileCloseError != nil {
		return fmt.Errorf(closeArchiveErrorTemplateConstant, destinationPath, fileCloseError)
	}

	return nil
}

func extractRegularFile(tarReader *tar.Reader, entryHeader *tar.Header, entryDestination string) error {
	parentDirectory := filepath.Dir(entryDestination)
	if directoryError := os.MkdirAll(parentDirectory, extractedDirectoryPermissions); directoryError != nil {
		return fmt.Errorf(createDirectoryErrorTemplateConstant, parentDirectory, directoryError)
	}

	entryPermissions := entryHeader.FileInfo().Mode().Perm()
	if entryPermissions == 0 {
		entryPermissions = archiveEntryPermissions
	}

	destinationFile, createError := os.OpenFile(entryDestination, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, entryPermissions)
	if createError != nil {
		return fmt.Errorf(createFileErrorTemplateConstant, entryDestination, createError)
	}

	writtenBytes, copyError := io.Copy(destinationFile, io.LimitReader(tarReader, maxExtractedEntryBytesConstant+1))
	closeError := destinationFile.Close()

	if copyError != nil {
		return fmt.Errorf(writeFileErrorTemplateConstant, entryDestination, copyError)
	}
	if writtenBytes > maxExtractedEntryBytesConstant {
		return fmt.Errorf(entryTooLargeTemplateConstant, entryHeader.Name)
	}
	if closeError != nil {
		return fmt.Errorf(writeFileErrorTemplateConstant, entryDestination, closeError)
	}

	return nil
}

func isSafeRelativePath(entryName string) bool {
	if len(entryName) == 0 || strings.Contains(entryName, `\`) || strings.HasPrefix(entryName, "/") {
		return false
	}
	for _, pathElement := range strings.Split(entryName, "/") {
		if pathElement == ".." {
			return false
		}
	}
	return true
}
