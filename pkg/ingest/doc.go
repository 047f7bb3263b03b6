// Package ingest implements the row-by-row image ingestion loop.
//
// A Runner walks a list of rows once, in order. A row whose image already
// exists in the store is skipped. Every other row gets exactly one fetch
// attempt through a Fetcher, after which the Runner waits on its limiter.
// The Summary counts an attempt as downloaded whether or not it produced
// a file; Failed records how many of those attempts did not.
package ingest
