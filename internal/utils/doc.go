// Package utils exposes reusable helpers consumed across keg commands.
//
// It houses the ConfigurationLoader and LoggerFactory abstractions that
// integrate Viper, environment variables, and zap logging, plus small
// output and context plumbing shared by the command layer.
package utils
