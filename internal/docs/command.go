package docs

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kegpkg/keg/internal/browser"
	"github.com/kegpkg/keg/internal/credentials"
	"github.com/kegpkg/keg/internal/project"
	"github.com/kegpkg/keg/internal/registry"
	"github.com/kegpkg/keg/internal/registryapi"
	"github.com/kegpkg/keg/internal/utils"
	flagutils "github.com/kegpkg/keg/internal/utils/flags"
)

const (
	docsCommandUseConstant                    = "docs"
	docsCommandShortDescriptionConstant       = "Fetch, open, and revert package documentation"
	docsCommandLongDescriptionConstant        = "docs downloads documentation archives from the keg registry, opens fetched documentation in the default browser, and reverts published documentation for a project release."
	fetchActionNameConstant                   = "fetch"
	openActionNameConstant                    = "open"
	packageFlagNameConstant                   = "package"
	packageFlagDescriptionConstant            = "Package whose documentation the action addresses"
	versionFlagNameConstant                   = "version"
	versionFlagDescriptionConstant            = "Release version of the documentation"
	revertFlagNameConstant                    = "revert"
	revertFlagDescriptionConstant             = "Version whose published documentation should be removed"
	progressFlagNameConstant                  = "progress"
	progressFlagDescriptionConstant           = "Report download progress"
	invalidArgumentsErrorMessageConstant      = "invalid arguments, expected one of:\n  keg docs fetch\n  keg docs open"
	packageNameUndeterminedMessageConstant    = "package name not determined: pass --package or declare package.name in keg.yaml"
	packageVersionUndeterminedMessageConstant = "package version not determined: pass --version or declare package.version in keg.yaml"
	currentDirectoryFallbackConstant          = "."
)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider returns the current docs configuration.
type ConfigurationProvider func() Configuration

// ManifestLoader reads the project manifest from a directory.
type ManifestLoader func(projectDirectory string) (project.Manifest, error)

// RegistryPreparer guarantees registry readiness before an action runs.
type RegistryPreparer interface {
	EnsureReady(executionContext context.Context) error
}

// DocsExecutor performs documentation operations for resolved targets.
type DocsExecutor interface {
	Fetch(executionContext context.Context, options FetchOptions) (string, error)
	Open(target Target) (string, error)
	Revert(executionContext context.Context, target Target) error
}

// DocsServiceResolver creates documentation executors for the command.
type DocsServiceResolver interface {
	Resolve(logger *zap.Logger, configuration Configuration) (DocsExecutor, error)
}

// CommandBuilder assembles the docs command.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider ConfigurationProvider
	ServiceResolver       DocsServiceResolver
	RegistryPreparer      RegistryPreparer
	HTTPClient            registryapi.HTTPClient
	ManifestLoader        ManifestLoader
	Launcher              browser.Launcher
	KeyResolver           credentials.KeyResolver
	Output                io.Writer
	WorkingDirectory      string

	progressFlagValue bool
}

// Build constructs the docs command with its action dispatch.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	docsCommand := &cobra.Command{
		Use:   docsCommandUseConstant,
		Short: docsCommandShortDescriptionConstant,
		Long:  docsCommandLongDescriptionConstant,
		RunE:  builder.runDocs,
	}

	docsCommand.Flags().String(packageFlagNameConstant, "", packageFlagDescriptionConstant)
	docsCommand.Flags().String(versionFlagNameConstant, "", versionFlagDescriptionConstant)
	docsCommand.Flags().String(revertFlagNameConstant, "", revertFlagDescriptionConstant)
	flagutils.AddToggleFlag(docsCommand.Flags(), &builder.progressFlagValue, progressFlagNameConstant, defaultProgressEnabledValueConstant, progressFlagDescriptionConstant)

	return docsCommand, nil
}

func (builder *CommandBuilder) runDocs(command *cobra.Command, arguments []string) error {
	executionContext := command.Context()
	configuration := builder.resolveConfiguration()
	logger := builder.resolveLogger()

	registryPreparer := builder.resolveRegistryPreparer(logger, configuration)
	if readinessError := registryPreparer.EnsureReady(executionContext); readinessError != nil {
		return readinessError
	}

	packageFlagValue, packageFlagError := command.Flags().GetString(packageFlagNameConstant)
	if packageFlagError != nil {
		return packageFlagError
	}

	versionFlagValue, versionFlagError := command.Flags().GetString(versionFlagNameConstant)
	if versionFlagError != nil {
		return versionFlagError
	}

	revertFlagValue, revertFlagError := command.Flags().GetString(revertFlagNameConstant)
	if revertFlagError != nil {
		return revertFlagError
	}

	docsService, serviceError := builder.resolveDocsService(logger, configuration, command)
	if serviceError != nil {
		return serviceError
	}

	if command.Flags().Changed(revertFlagNameConstant) {
		projectManifest, manifestError := builder.loadProjectManifest(executionContext)
		if manifestError != nil {
			return manifestError
		}
		if len(projectManifest.Package.Name) == 0 {
			return errors.New(packageNameUndeterminedMessageConstant)
		}

		revertTarget := Target{Name: projectManifest.Package.Name, Version: revertFlagValue}
		return docsService.Revert(executionContext, revertTarget)
	}

	if len(arguments) == 0 {
		return errors.New(invalidArgumentsErrorMessageConstant)
	}

	target, targetError := builder.resolveTarget(executionContext, packageFlagValue, versionFlagValue)
	if targetError != nil {
		return targetError
	}

	switch arguments[0] {
	case openActionNameConstant:
		_, openError := docsService.Open(target)
		return openError
	case fetchActionNameConstant:
		reportProgress := configuration.Progress
		if command.Flags().Changed(progressFlagNameConstant) {
			reportProgress = builder.progressFlagValue
		}

		_, fetchError := docsService.Fetch(executionContext, FetchOptions{Target: target, ReportProgress: reportProgress})
		return fetchError
	default:
		return errors.New(invalidArgumentsErrorMessageConstant)
	}
}

func (builder *CommandBuilder) resolveTarget(executionContext context.Context, packageFlagValue string, versionFlagValue string) (Target, error) {
	resolvedName := strings.TrimSpace(packageFlagValue)
	resolvedVersion := strings.TrimSpace(versionFlagValue)

	if len(resolvedName) == 0 || len(resolvedVersion) == 0 {
		projectManifest, manifestError := builder.loadProjectManifest(executionContext)
		if manifestError != nil {
			return Target{}, manifestError
		}

		if len(resolvedName) == 0 {
			resolvedName = projectManifest.Package.Name
		}
		if len(resolvedVersion) == 0 {
			resolvedVersion = projectManifest.Package.Version
		}
	}

	if len(resolvedName) == 0 {
		return Target{}, errors.New(packageNameUndeterminedMessageConstant)
	}
	if len(resolvedVersion) == 0 {
		return Target{}, errors.New(packageVersionUndeterminedMessageConstant)
	}

	return Target{Name: resolvedName, Version: resolvedVersion}, nil
}

func (builder *CommandBuilder) loadProjectManifest(executionContext context.Context) (project.Manifest, error) {
	manifestLoader := builder.ManifestLoader
	if manifestLoader == nil {
		manifestLoader = project.LoadManifest
	}

	return manifestLoader(builder.resolveWorkingDirectory(executionContext))
}

func (builder *CommandBuilder) resolveWorkingDirectory(executionContext context.Context) string {
	if len(strings.TrimSpace(builder.WorkingDirectory)) > 0 {
		return builder.WorkingDirectory
	}

	contextAccessor := utils.NewCommandContextAccessor()
	if workingDirectory, workingDirectoryFound := contextAccessor.WorkingDirectory(executionContext); workingDirectoryFound {
		return workingDirectory
	}

	if workingDirectory, workingDirectoryError := os.Getwd(); workingDirectoryError == nil {
		return workingDirectory
	}

	return currentDirectoryFallbackConstant
}

func (builder *CommandBuilder) resolveRegistryPreparer(logger *zap.Logger, configuration Configuration) RegistryPreparer {
	if builder.RegistryPreparer != nil {
		return builder.RegistryPreparer
	}

	return registry.NewSnapshotManager(logger, builder.buildRegistryClient(configuration), configuration.Home)
}

func (builder *CommandBuilder) resolveDocsService(logger *zap.Logger, configuration Configuration, command *cobra.Command) (DocsExecutor, error) {
	if builder.ServiceResolver != nil {
		return builder.ServiceResolver.Resolve(logger, configuration)
	}

	registryClient := builder.buildRegistryClient(configuration)
	serviceDependencies := ServiceDependencies{
		Logger:      logger,
		Downloader:  registryClient,
		Remover:     registryClient,
		KeyResolver: builder.resolveKeyResolver(),
		Launcher:    builder.resolveLauncher(logger),
		Output:      builder.resolveOutput(command),
	}

	return NewService(configuration, serviceDependencies), nil
}

func (builder *CommandBuilder) buildRegistryClient(configuration Configuration) *registryapi.Client {
	clientOptions := []registryapi.Option{
		registryapi.WithAPIBaseURL(configuration.APIBaseURL),
		registryapi.WithRepositoryBaseURL(configuration.RepoBaseURL),
		registryapi.WithRequestTimeout(time.Duration(configuration.TimeoutSeconds) * time.Second),
	}
	if builder.HTTPClient != nil {
		clientOptions = append(clientOptions, registryapi.WithHTTPClient(builder.HTTPClient))
	}

	return registryapi.NewClient(clientOptions...)
}

func (builder *CommandBuilder) resolveKeyResolver() credentials.KeyResolver {
	if builder.KeyResolver != nil {
		return builder.KeyResolver
	}

	return credentials.NewKeyResolver(nil, nil)
}

func (builder *CommandBuilder) resolveLauncher(logger *zap.Logger) browser.Launcher {
	if builder.Launcher != nil {
		return builder.Launcher
	}

	return browser.NewLoggingLauncher(browser.NewSystemLauncher(), logger)
}

func (builder *CommandBuilder) resolveOutput(command *cobra.Command) io.Writer {
	if builder.Output != nil {
		return builder.Output
	}

	return utils.NewFlushingWriter(command.OutOrStdout())
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}

	logger := builder.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}

	return logger
}

func (builder *CommandBuilder) resolveConfiguration() Configuration {
	configuration := DefaultConfiguration()
	if builder.ConfigurationProvider != nil {
		configuration = builder.ConfigurationProvider()
	}

	return configuration.Sanitize()
}
