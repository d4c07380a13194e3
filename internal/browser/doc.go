// Package browser opens local documents in the operating system's default
// web browser.
package browser
