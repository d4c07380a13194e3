package project_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kegpkg/keg/internal/project"
)

const (
	manifestTestPackageNameConstant     = "sample_http"
	manifestTestPackageVersionConstant  = "1.4.2"
	manifestTestContentTemplateConstant = "package:\n  name: %s\n  version: %s\n"
	manifestTestSubtestTemplateConstant = "%d_%s"
)

func TestLoadManifest(testInstance *testing.T) {
	testCases := []struct {
		name            string
		manifestContent string
		expectedName    string
		expectedVersion string
		expectParseFail bool
	}{
		{
			name:            "declared_package_parsed",
			manifestContent: fmt.Sprintf(manifestTestContentTemplateConstant, manifestTestPackageNameConstant, manifestTestPackageVersionConstant),
			expectedName:    manifestTestPackageNameConstant,
			expectedVersion: manifestTestPackageVersionConstant,
		},
		{
			name:            "surrounding_whitespace_trimmed",
			manifestContent: "package:\n  name: \" padded \"\n  version: \" 2.0.0 \"\n",
			expectedName:    "padded",
			expectedVersion: "2.0.0",
		},
		{
			name:            "missing_fields_left_empty",
			manifestContent: "package:\n  name: only-name\n",
			expectedName:    "only-name",
			expectedVersion: "",
		},
		{
			name:            "malformed_document_rejected",
			manifestContent: "package: [\n",
			expectParseFail: true,
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(manifestTestSubtestTemplateConstant, testCaseIndex, testCase.name), func(testInstance *testing.T) {
			projectDirectory := testInstance.TempDir()
			manifestPath := filepath.Join(projectDirectory, project.ManifestFileName)
			writeError := os.WriteFile(manifestPath, []byte(testCase.manifestContent), 0o600)
			require.NoError(testInstance, writeError)

			loadedManifest, loadError := project.LoadManifest(projectDirectory)
			if testCase.expectParseFail {
				require.Error(testInstance, loadError)
				require.Contains(testInstance, loadError.Error(), "unable to parse")
				return
			}

			require.NoError(testInstance, loadError)
			require.Equal(testInstance, testCase.expectedName, loadedManifest.Package.Name)
			require.Equal(testInstance, testCase.expectedVersion, loadedManifest.Package.Version)
		})
	}
}

func TestLoadManifestReportsMissingFile(testInstance *testing.T) {
	projectDirectory := testInstance.TempDir()

	_, loadError := project.LoadManifest(projectDirectory)
	require.Error(testInstance, loadError)
	require.ErrorIs(testInstance, loadError, project.ErrManifestNotFound)
	require.Contains(testInstance, loadError.Error(), projectDirectory)
}
