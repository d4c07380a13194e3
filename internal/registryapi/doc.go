// Package registryapi provides the HTTP client for the keg registry API
// and the documentation delivery endpoints backing it.
package registryapi
