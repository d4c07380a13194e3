// Package credentials parses and resolves registry API key sources.
//
// A key source is declared as TYPE:REFERENCE, where env references an
// environment variable and file references a file path. A bare value is
// treated as an environment variable name.
package credentials
