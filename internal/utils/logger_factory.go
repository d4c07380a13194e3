package utils

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	logLevelDebugValueConstant           = "debug"
	logLevelInfoValueConstant            = "info"
	logLevelWarnValueConstant            = "warn"
	logLevelErrorValueConstant           = "error"
	logFormatStructuredValueConstant     = "structured"
	logFormatConsoleValueConstant        = "console"
	jsonEncodingNameConstant             = "json"
	consoleEncodingNameConstant          = "console"
	unsupportedLogLevelTemplateConstant  = "unsupported log level: %s"
	unsupportedLogFormatTemplateConstant = "unsupported log format: %s"
)

// LogLevel enumerates supported logging granularities.
type LogLevel string

// Exported log level constants for reuse across packages.
const (
	LogLevelDebug LogLevel = LogLevel(logLevelDebugValueConstant)
	LogLevelInfo  LogLevel = LogLevel(logLevelInfoValueConstant)
	LogLevelWarn  LogLevel = LogLevel(logLevelWarnValueConstant)
	LogLevelError LogLevel = LogLevel(logLevelErrorValueConstant)
)

// LogFormat enumerates supported logger output encodings.
type LogFormat string

// Exported log format constants for reuse across packages.
const (
	LogFormatStructured LogFormat = LogFormat(logFormatStructuredValueConstant)
	LogFormatConsole    LogFormat = LogFormat(logFormatConsoleValueConstant)
)

// SupportedLogLevelNames lists the accepted log level spellings.
func SupportedLogLevelNames() []string {
	return []string{
		logLevelDebugValueConstant,
		logLevelInfoValueConstant,
		logLevelWarnValueConstant,
		logLevelErrorValueConstant,
	}
}

// SupportedLogFormatNames lists the accepted log format spellings.
func SupportedLogFormatNames() []string {
	return []string{
		logFormatStructuredValueConstant,
		logFormatConsoleValueConstant,
	}
}

// LoggerFactory builds zap.Logger instances with consistent configuration.
type LoggerFactory struct{}

// NewLoggerFactory constructs a new logger factory.
func NewLoggerFactory() *LoggerFactory {
	return &LoggerFactory{}
}

// CreateLogger produces a zap.Logger honoring the requested level and format.
func (factory *LoggerFactory) CreateLogger(requestedLogLevel LogLevel, requestedLogFormat LogFormat) (*zap.Logger, error) {
	resolvedLevel, levelError := resolveZapLevel(requestedLogLevel)
	if levelError != nil {
		return nil, levelError
	}

	resolvedEncoding, encodingError := resolveZapEncoding(requestedLogFormat)
	if encodingError != nil {
		return nil, encodingError
	}

	loggerConfiguration := zap.NewProductionConfig()
	loggerConfiguration.Level = zap.NewAtomicLevelAt(resolvedLevel)
	loggerConfiguration.Encoding = resolvedEncoding
	if resolvedEncoding == consoleEncodingNameConstant {
		loggerConfiguration.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	return loggerConfiguration.Build()
}

func resolveZapLevel(requestedLogLevel LogLevel) (zapcore.Level, error) {
	switch requestedLogLevel {
	case LogLevelDebug:
		return zapcore.DebugLevel, nil
	case LogLevelInfo:
		return zapcore.InfoLevel, nil
	case LogLevelWarn:
		return zapcore.WarnLevel, nil
	case LogLevelError:
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InvalidLevel, fmt.Errorf(unsupportedLogLevelTemplateConstant, requestedLogLevel)
	}
}

func resolveZapEncoding(requestedLogFormat LogFormat) (string, error) {
	switch requestedLogFormat {
	case LogFormatStructured:
		return jsonEncodingNameConstant, nil
	case LogFormatConsole:
		return consoleEncodingNameConstant, nil
	default:
		return "", fmt.Errorf(unsupportedLogFormatTemplateConstant, requestedLogFormat)
	}
}
