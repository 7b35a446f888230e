package bamprovider

import (
	"strings"

	"github.com/grailbio/hts/sam"
	"github.com/grailbio/svevidence/interval"
	"v.io/x/lib/vlog"
)

// ProviderOpts defines options for NewProvider.
type ProviderOpts struct {
	// Index specifies the name of the BAM index file. If Index=="", it
	// defaults to path + ".bai".
	Index string
}

// Provider allows reading a BAM file in parallel. Thread safe.
type Provider interface {
	// GetHeader returns the header for the provided BAM data.  The callee
	// must not modify the returned header object.
	//
	// REQUIRES: Close has not been called.
	GetHeader() (*sam.Header, error)

	// NewIterator returns an iterator over the records whose alignment start
	// lies in region.  Records are yielded in coordinate order.
	//
	// REQUIRES: Close has not been called.
	NewIterator(region interval.Region) Iterator

	// Close must be called exactly once. It returns any error encountered
	// by the provider, or any iterator created by the provider.
	//
	// REQUIRES: All the iterators created by NewIterator have been closed.
	Close() error
}

// Iterator iterates over sam.Records in a particular genomic range, in
// coordinate order. Thread compatible.
type Iterator interface {
	// Scan returns where there are any records remaining in the iterator,
	// and if so, advances the iterator to the next record. If the iterator
	// reaches the end of its range, Scan() returns false.  If an error
	// occurs, Scan() returns false and the error can be retrieved by
	// calling Err().
	//
	// REQUIRES: Close has not been called.
	Scan() bool

	// Record returns the current record in the iterator. This must be
	// called only after a call to Scan() returns true.
	//
	// REQUIRES: Close has not been called.
	Record() *sam.Record

	// Err returns the error encoutered during iteration, or nil if no error
	// occurred.  An io.EOF error will be translated to nil.
	Err() error

	// Close must be called exactly once. It returns the value of Err().
	Close() error
}

// NewProvider creates a Provider object for the BAM file at "path".  Only BAM
// input is supported; other suffixes are logged and still read as BAM.
func NewProvider(path string, optList ...ProviderOpts) Provider {
	opts := ProviderOpts{}
	for _, o := range optList {
		if o.Index != "" {
			opts.Index = o.Index
		}
	}
	if !strings.HasSuffix(path, ".bam") {
		vlog.VI(1).Infof("%v: could not detect file type, assuming BAM.", path)
	}
	return &BAMProvider{Path: path, Index: opts.Index}
}

// ReadRegion collects every record that Provider yields for region.
func ReadRegion(p Provider, region interval.Region) ([]*sam.Record, error) {
	iter := p.NewIterator(region)
	var recs []*sam.Record
	for iter.Scan() {
		recs = append(recs, iter.Record())
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return recs, nil
}
