package tests

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const (
	integrationAPIKeyConstant     = "integration-test-key"
	integrationBinaryNameConstant = "keg"
	integrationBinaryPatternName  = "keg-integration-*"
	integrationBuildTimeout       = 2 * time.Minute
	integrationCommandTimeout     = 30 * time.Second
	integrationBuildErrorTemplate = "go build failed: %w\n%s"
)

var (
	integrationBinaryOnce  sync.Once
	integrationBinaryPath  string
	integrationBinaryError error
)

func resolveRepositoryRoot(testInstance *testing.T) string {
	testInstance.Helper()

	currentWorkingDirectory, workingDirectoryError := os.Getwd()
	require.NoError(testInstance, workingDirectoryError)
	return filepath.Dir(currentWorkingDirectory)
}

func buildIntegrationBinary(testInstance *testing.T, repositoryRoot string) string {
	testInstance.Helper()

	integrationBinaryOnce.Do(func() {
		binaryDirectory, temporaryDirectoryError := os.MkdirTemp("", integrationBinaryPatternName)
		if temporaryDirectoryError != nil {
			integrationBinaryError = temporaryDirectoryError
			return
		}

		binaryPath := filepath.Join(binaryDirectory, integrationBinaryNameConstant)

		buildContext, cancelBuild := context.WithTimeout(context.Background(), integrationBuildTimeout)
		defer cancelBuild()

		buildCommand := exec.CommandContext(buildContext, "go", "build", "-o", binaryPath, ".")
		buildCommand.Dir = repositoryRoot

		outputBytes, buildError := buildCommand.CombinedOutput()
		if buildError != nil {
			integrationBinaryError = fmt.Errorf(integrationBuildErrorTemplate, buildError, string(outputBytes))
			return
		}

		integrationBinaryPath = binaryPath
	})

	require.NoError(testInstance, integrationBinaryError)
	return integrationBinaryPath
}

func runKegCommand(testInstance *testing.T, binaryPath string, workingDirectory string, environmentOverrides map[string]string, arguments []string) (string, error) {
	testInstance.Helper()

	executionContext, cancelExecution := context.WithTimeout(context.Background(), integrationCommandTimeout)
	defer cancelExecution()

	command := exec.CommandContext(executionContext, binaryPath, arguments...)
	command.Dir = workingDirectory

	environment := append([]string{}, os.Environ()...)
	for environmentName, environmentValue := range environmentOverrides {
		environment = append(environment, environmentName+"="+environmentValue)
	}
	command.Env = environment

	outputBytes, runError := command.CombinedOutput()
	return string(outputBytes), runError
}

func writeIntegrationFile(testInstance *testing.T, filePath string, content string) {
	testInstance.Helper()

	require.NoError(testInstance, os.WriteFile(filePath, []byte(content), 0o600))
}
