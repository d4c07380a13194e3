// Package docs implements the keg docs command: it fetches documentation
// archives from the registry, opens fetched documentation in a browser, and
// reverts published documentation for a project release.
package docs
