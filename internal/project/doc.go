// Package project loads the keg.yaml manifest that declares the package a
// working directory publishes. Commands use the manifest to default the
// package name and version when flags are not provided.
package project
