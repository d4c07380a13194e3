package docs_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kegpkg/keg/internal/docs"
	"github.com/kegpkg/keg/internal/project"
)

const (
	manifestPackageNameConstant    = "manifest-package"
	manifestPackageVersionConstant = "0.9.0"
	flagPackageNameConstant        = "flag-package"
	flagPackageVersionConstant     = "3.1.4"
	revertRequestVersionConstant   = "2.0.0"
	projectDirectoryPathConstant   = "/project/directory"
)

type stubRegistryPreparer struct {
	prepareError error
	callCount    int
}

func (preparer *stubRegistryPreparer) EnsureReady(executionContext context.Context) error {
	preparer.callCount++
	return preparer.prepareError
}

type stubDocsExecutor struct {
	fetchCalls  []docs.FetchOptions
	openCalls   []docs.Target
	revertCalls []docs.Target
	fetchError  error
	openError   error
	revertError error
}

func (executor *stubDocsExecutor) Fetch(executionContext context.Context, options docs.FetchOptions) (string, error) {
	executor.fetchCalls = append(executor.fetchCalls, options)
	return "", executor.fetchError
}

func (executor *stubDocsExecutor) Open(target docs.Target) (string, error) {
	executor.openCalls = append(executor.openCalls, target)
	return "", executor.openError
}

func (executor *stubDocsExecutor) Revert(executionContext context.Context, target docs.Target) error {
	executor.revertCalls = append(executor.revertCalls, target)
	return executor.revertError
}

type stubDocsServiceResolver struct {
	executor               *stubDocsExecutor
	resolveError           error
	resolvedConfigurations []docs.Configuration
}

func (resolver *stubDocsServiceResolver) Resolve(logger *zap.Logger, configuration docs.Configuration) (docs.DocsExecutor, error) {
	resolver.resolvedConfigurations = append(resolver.resolvedConfigurations, configuration)
	if resolver.resolveError != nil {
		return nil, resolver.resolveError
	}
	return resolver.executor, nil
}

func manifestLoaderStub(manifest project.Manifest, loadError error) docs.ManifestLoader {
	return func(projectDirectory string) (project.Manifest, error) {
		if loadError != nil {
			return project.Manifest{}, loadError
		}
		return manifest, nil
	}
}

func projectManifestFixture() project.Manifest {
	return project.Manifest{
		Package: project.PackageDeclaration{
			Name:    manifestPackageNameConstant,
			Version: manifestPackageVersionConstant,
		},
	}
}

func TestDocsCommandDispatchesActions(testInstance *testing.T) {
	testCases := []struct {
		name               string
		arguments          []string
		configuration      docs.Configuration
		expectedFetchCalls []docs.FetchOptions
		expectedOpenCalls  []docs.Target
	}{
		{
			name:          "fetch_uses_flag_target",
			arguments:     []string{"fetch", "--package", flagPackageNameConstant, "--version", flagPackageVersionConstant},
			configuration: docs.Configuration{Progress: true},
			expectedFetchCalls: []docs.FetchOptions{{
				Target:         docs.Target{Name: flagPackageNameConstant, Version: flagPackageVersionConstant},
				ReportProgress: true,
			}},
		},
		{
			name:          "fetch_falls_back_to_manifest",
			arguments:     []string{"fetch"},
			configuration: docs.Configuration{Progress: true},
			expectedFetchCalls: []docs.FetchOptions{{
				Target:         docs.Target{Name: manifestPackageNameConstant, Version: manifestPackageVersionConstant},
				ReportProgress: true,
			}},
		},
		{
			name:          "fetch_mixes_flag_and_manifest_values",
			arguments:     []string{"fetch", "--package", flagPackageNameConstant},
			configuration: docs.Configuration{Progress: true},
			expectedFetchCalls: []docs.FetchOptions{{
				Target:         docs.Target{Name: flagPackageNameConstant, Version: manifestPackageVersionConstant},
				ReportProgress: true,
			}},
		},
		{
			name:          "fetch_progress_flag_overrides_configuration",
			arguments:     []string{"fetch", "--progress=no"},
			configuration: docs.Configuration{Progress: true},
			expectedFetchCalls: []docs.FetchOptions{{
				Target:         docs.Target{Name: manifestPackageNameConstant, Version: manifestPackageVersionConstant},
				ReportProgress: false,
			}},
		},
		{
			name:          "fetch_progress_defaults_to_configuration",
			arguments:     []string{"fetch"},
			configuration: docs.Configuration{Progress: false},
			expectedFetchCalls: []docs.FetchOptions{{
				Target:         docs.Target{Name: manifestPackageNameConstant, Version: manifestPackageVersionConstant},
				ReportProgress: false,
			}},
		},
		{
			name:              "open_uses_flag_target",
			arguments:         []string{"open", "--package", flagPackageNameConstant, "--version", flagPackageVersionConstant},
			configuration:     docs.Configuration{},
			expectedOpenCalls: []docs.Target{{Name: flagPackageNameConstant, Version: flagPackageVersionConstant}},
		},
		{
			name:              "open_falls_back_to_manifest",
			arguments:         []string{"open"},
			configuration:     docs.Configuration{},
			expectedOpenCalls: []docs.Target{{Name: manifestPackageNameConstant, Version: manifestPackageVersionConstant}},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subtestInstance *testing.T) {
			executor := &stubDocsExecutor{}
			preparer := &stubRegistryPreparer{}
			testConfiguration := testCase.configuration

			builder := docs.CommandBuilder{
				LoggerProvider:        func() *zap.Logger { return zap.NewNop() },
				ConfigurationProvider: func() docs.Configuration { return testConfiguration },
				ServiceResolver:       &stubDocsServiceResolver{executor: executor},
				RegistryPreparer:      preparer,
				ManifestLoader:        manifestLoaderStub(projectManifestFixture(), nil),
				WorkingDirectory:      projectDirectoryPathConstant,
			}

			command, buildError := builder.Build()
			require.NoError(subtestInstance, buildError)

			command.SetContext(context.Background())
			command.SetArgs(testCase.arguments)
			require.NoError(subtestInstance, command.Execute())

			require.Equal(subtestInstance, 1, preparer.callCount)
			require.Equal(subtestInstance, testCase.expectedFetchCalls, executor.fetchCalls)
			require.Equal(subtestInstance, testCase.expectedOpenCalls, executor.openCalls)
			require.Empty(subtestInstance, executor.revertCalls)
		})
	}
}

func TestDocsCommandRevertUsesProjectName(testInstance *testing.T) {
	testCases := []struct {
		name      string
		arguments []string
	}{
		{
			name:      "revert_ignores_package_flag",
			arguments: []string{"--revert", revertRequestVersionConstant, "--package", flagPackageNameConstant},
		},
		{
			name:      "revert_ignores_positional_arguments",
			arguments: []string{"--revert", revertRequestVersionConstant, "fetch"},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subtestInstance *testing.T) {
			executor := &stubDocsExecutor{}
			builder := docs.CommandBuilder{
				LoggerProvider:        func() *zap.Logger { return zap.NewNop() },
				ConfigurationProvider: func() docs.Configuration { return docs.Configuration{} },
				ServiceResolver:       &stubDocsServiceResolver{executor: executor},
				RegistryPreparer:      &stubRegistryPreparer{},
				ManifestLoader:        manifestLoaderStub(projectManifestFixture(), nil),
				WorkingDirectory:      projectDirectoryPathConstant,
			}

			command, buildError := builder.Build()
			require.NoError(subtestInstance, buildError)

			command.SetContext(context.Background())
			command.SetArgs(testCase.arguments)
			require.NoError(subtestInstance, command.Execute())

			require.Equal(subtestInstance, []docs.Target{{
				Name:    manifestPackageNameConstant,
				Version: revertRequestVersionConstant,
			}}, executor.revertCalls)
			require.Empty(subtestInstance, executor.fetchCalls)
			require.Empty(subtestInstance, executor.openCalls)
		})
	}
}

func TestDocsCommandRejectsInvalidArguments(testInstance *testing.T) {
	testCases := []struct {
		name      string
		arguments []string
	}{
		{
			name:      "missing_action",
			arguments: []string{},
		},
		{
			name:      "unknown_action",
			arguments: []string{"publish"},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subtestInstance *testing.T) {
			executor := &stubDocsExecutor{}
			builder := docs.CommandBuilder{
				LoggerProvider:        func() *zap.Logger { return zap.NewNop() },
				ConfigurationProvider: func() docs.Configuration { return docs.Configuration{} },
				ServiceResolver:       &stubDocsServiceResolver{executor: executor},
				RegistryPreparer:      &stubRegistryPreparer{},
				ManifestLoader:        manifestLoaderStub(projectManifestFixture(), nil),
				WorkingDirectory:      projectDirectoryPathConstant,
			}

			command, buildError := builder.Build()
			require.NoError(subtestInstance, buildError)

			command.SetContext(context.Background())
			command.SetArgs(testCase.arguments)
			executionError := command.Execute()

			require.Error(subtestInstance, executionError)
			require.ErrorContains(subtestInstance, executionError, "invalid arguments, expected one of")
			require.ErrorContains(subtestInstance, executionError, "keg docs fetch")
			require.ErrorContains(subtestInstance, executionError, "keg docs open")
			require.Empty(subtestInstance, executor.fetchCalls)
			require.Empty(subtestInstance, executor.openCalls)
			require.Empty(subtestInstance, executor.revertCalls)
		})
	}
}

func TestDocsCommandRequiresRegistryReadiness(testInstance *testing.T) {
	readinessError := errors.New("registry preparation failed: snapshot endpoint unavailable")
	executor := &stubDocsExecutor{}
	manifestLoaded := false

	builder := docs.CommandBuilder{
		LoggerProvider:        func() *zap.Logger { return zap.NewNop() },
		ConfigurationProvider: func() docs.Configuration { return docs.Configuration{} },
		ServiceResolver:       &stubDocsServiceResolver{executor: executor},
		RegistryPreparer:      &stubRegistryPreparer{prepareError: readinessError},
		ManifestLoader: func(projectDirectory string) (project.Manifest, error) {
			manifestLoaded = true
			return projectManifestFixture(), nil
		},
		WorkingDirectory: projectDirectoryPathConstant,
	}

	command, buildError := builder.Build()
	require.NoError(testInstance, buildError)

	command.SetContext(context.Background())
	command.SetArgs([]string{"fetch"})
	executionError := command.Execute()

	require.ErrorIs(testInstance, executionError, readinessError)
	require.False(testInstance, manifestLoaded)
	require.Empty(testInstance, executor.fetchCalls)
}

func TestDocsCommandSurfacesManifestErrors(testInstance *testing.T) {
	executor := &stubDocsExecutor{}
	builder := docs.CommandBuilder{
		LoggerProvider:        func() *zap.Logger { return zap.NewNop() },
		ConfigurationProvider: func() docs.Configuration { return docs.Configuration{} },
		ServiceResolver:       &stubDocsServiceResolver{executor: executor},
		RegistryPreparer:      &stubRegistryPreparer{},
		ManifestLoader:        manifestLoaderStub(project.Manifest{}, project.ErrManifestNotFound),
		WorkingDirectory:      projectDirectoryPathConstant,
	}

	command, buildError := builder.Build()
	require.NoError(testInstance, buildError)

	command.SetContext(context.Background())
	command.SetArgs([]string{"fetch"})
	executionError := command.Execute()

	require.ErrorIs(testInstance, executionError, project.ErrManifestNotFound)
	require.Empty(testInstance, executor.fetchCalls)
}

func TestDocsCommandValidatesResolvedTarget(testInstance *testing.T) {
	testCases := []struct {
		name             string
		manifest         project.Manifest
		arguments        []string
		expectedFragment string
	}{
		{
			name:             "missing_version",
			manifest:         project.Manifest{Package: project.PackageDeclaration{Name: manifestPackageNameConstant}},
			arguments:        []string{"fetch"},
			expectedFragment: "package version not determined",
		},
		{
			name:             "missing_name",
			manifest:         project.Manifest{Package: project.PackageDeclaration{Version: manifestPackageVersionConstant}},
			arguments:        []string{"open"},
			expectedFragment: "package name not determined",
		},
		{
			name:             "revert_requires_project_name",
			manifest:         project.Manifest{},
			arguments:        []string{"--revert", revertRequestVersionConstant},
			expectedFragment: "package name not determined",
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subtestInstance *testing.T) {
			executor := &stubDocsExecutor{}
			testManifest := testCase.manifest

			builder := docs.CommandBuilder{
				LoggerProvider:        func() *zap.Logger { return zap.NewNop() },
				ConfigurationProvider: func() docs.Configuration { return docs.Configuration{} },
				ServiceResolver:       &stubDocsServiceResolver{executor: executor},
				RegistryPreparer:      &stubRegistryPreparer{},
				ManifestLoader:        manifestLoaderStub(testManifest, nil),
				WorkingDirectory:      projectDirectoryPathConstant,
			}

			command, buildError := builder.Build()
			require.NoError(subtestInstance, buildError)

			command.SetContext(context.Background())
			command.SetArgs(testCase.arguments)
			executionError := command.Execute()

			require.Error(subtestInstance, executionError)
			require.ErrorContains(subtestInstance, executionError, testCase.expectedFragment)
			require.Empty(subtestInstance, executor.fetchCalls)
			require.Empty(subtestInstance, executor.openCalls)
			require.Empty(subtestInstance, executor.revertCalls)
		})
	}
}

func TestDocsCommandSanitizesConfigurationBeforeResolving(testInstance *testing.T) {
	resolver := &stubDocsServiceResolver{executor: &stubDocsExecutor{}}
	builder := docs.CommandBuilder{
		LoggerProvider:        func() *zap.Logger { return zap.NewNop() },
		ConfigurationProvider: func() docs.Configuration { return docs.Configuration{} },
		ServiceResolver:       resolver,
		RegistryPreparer:      &stubRegistryPreparer{},
		ManifestLoader:        manifestLoaderStub(projectManifestFixture(), nil),
		WorkingDirectory:      projectDirectoryPathConstant,
	}

	command, buildError := builder.Build()
	require.NoError(testInstance, buildError)

	command.SetContext(context.Background())
	command.SetArgs([]string{"fetch"})
	require.NoError(testInstance, command.Execute())

	require.Len(testInstance, resolver.resolvedConfigurations, 1)
	resolvedConfiguration := resolver.resolvedConfigurations[0]
	require.Equal(testInstance, "https://api.kegpkg.dev", resolvedConfiguration.APIBaseURL)
	require.Equal(testInstance, "https://repo.kegpkg.dev", resolvedConfiguration.RepoBaseURL)
	require.Equal(testInstance, "env:KEG_API_KEY", resolvedConfiguration.APIKeySource)
	require.Equal(testInstance, 30, resolvedConfiguration.TimeoutSeconds)
}
