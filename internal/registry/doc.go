// Package registry maintains the local registry snapshot that keg commands
// require before they touch package metadata.
package registry
