package browser

import (
	"fmt"

	"github.com/skratchdot/open-golang/open"
	"go.uber.org/zap"
)

const (
	launchFailureTemplateConstant = "unable to open %s in the default browser: %w"
	launchLogMessageConstant      = "documentation opened in system browser"
	documentPathLogFieldConstant  = "document_path"
)

// Launcher opens a document with the operating system's default handler.
type Launcher interface {
	OpenDocument(documentPath string) error
}

// SystemLauncher opens documents through the host operating system.
type SystemLauncher struct{}

// NewSystemLauncher creates a launcher backed by the host operating system.
func NewSystemLauncher() *SystemLauncher {
	return &SystemLauncher{}
}

// OpenDocument hands the document to the default browser. It returns once the
// handler has been started and never waits for the browser to exit.
func (launcher *SystemLauncher) OpenDocument(documentPath string) error {
	if startError := open.Start(documentPath); startError != nil {
		return fmt.Errorf(launchFailureTemplateConstant, documentPath, startError)
	}
	return nil
}

// LoggingLauncher records successful launches before delegating to another launcher.
type LoggingLauncher struct {
	delegate Launcher
	logger   *zap.Logger
}

// NewLoggingLauncher decorates the provided launcher with structured launch logging.
func NewLoggingLauncher(delegate Launcher, logger *zap.Logger) *LoggingLauncher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoggingLauncher{delegate: delegate, logger: logger}
}

// OpenDocument delegates to the wrapped launcher and logs the launched document path.
func (launcher *LoggingLauncher) OpenDocument(documentPath string) error {
	if openError := launcher.delegate.OpenDocument(documentPath); openError != nil {
		return openError
	}

	launcher.logger.Info(launchLogMessageConstant, zap.String(documentPathLogFieldConstant, documentPath))
	return nil
}
