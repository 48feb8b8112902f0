// Package source opens ILDA input files from the local file system or from
// an S3 compatible object store.
package source
