// Package backend implements infinitree's pluggable object storage: a
// Directory backend for local files, an InMemory backend for tests, an
// S3 backend grounded on s3gof3r, and a Cache backend that write-through
// layers a local Directory in front of any other Backend.
package backend
