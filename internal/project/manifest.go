package project

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// ManifestFileName is the manifest file looked up in a project directory.
	ManifestFileName = "keg.yaml"

	manifestReadErrorTemplateConstant  = "unable to read %s: %w"
	manifestParseErrorTemplateConstant = "unable to parse %s: %w"
)

// ErrManifestNotFound reports that the project directory carries no manifest.
var ErrManifestNotFound = errors.New("keg.yaml not found")

// Manifest mirrors the keg.yaml document structure.
type Manifest struct {
	Package PackageDeclaration `yaml:"package"`
}

// PackageDeclaration identifies the package a project publishes.
type PackageDeclaration struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

// LoadManifest reads the manifest from the provided directory. A missing file
// yields ErrManifestNotFound; unreadable or malformed manifests fail loudly.
func LoadManifest(projectDirectory string) (Manifest, error) {
	manifestPath := filepath.Join(projectDirectory, ManifestFileName)

	manifestData, readError := os.ReadFile(manifestPath)
	if readError != nil {
		if errors.Is(readError, fs.ErrNotExist) {
			return Manifest{}, fmt.Errorf("%w in %s", ErrManifestNotFound, projectDirectory)
		}
		return Manifest{}, fmt.Errorf(manifestReadErrorTemplateConstant, manifestPath, readError)
	}

	parsedManifest := Manifest{}
	if parseError := yaml.Unmarshal(manifestData, &parsedManifest); parseError != nil {
		return Manifest{}, fmt.Errorf(manifestParseErrorTemplateConstant, manifestPath, parseError)
	}

	return parsedManifest.sanitize(), nil
}

func (manifest Manifest) sanitize() Manifest {
	sanitized := manifest
	sanitized.Package.Name = strings.TrimSpace(manifest.Package.Name)
	sanitized.Package.Version = strings.TrimSpace(manifest.Package.Version)
	return sanitized
}
