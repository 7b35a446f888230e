// Package bamprovider provides utilities for reading the records of an
// indexed BAM file one genomic region at a time.
//
// The Provider is an interface for reading BAM files from several goroutines
// at once: each goroutine asks for its own Iterator, and iterators are
// recycled across regions to avoid re-reading the index.
package bamprovider
