// Package archive reads and writes the gzip-compressed tar archives used
// for published package documentation.
package archive
