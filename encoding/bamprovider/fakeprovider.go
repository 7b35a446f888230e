package bamprovider

import (
	"sort"

	"github.com/grailbio/hts/sam"
	"github.com/grailbio/svevidence/interval"
)

// fakeProvider is only for unittests. It yields the given records.
type fakeProvider struct {
	header *sam.Header
	recs   []*sam.Record
}

type fakeIterator struct {
	recs   []*sam.Record
	rec    *sam.Record
	region interval.Region
}

// NewFakeProvider creates a provider that returns "header" in response to a
// GetHeader() call, and the members of recs that start inside the requested
// region, in coordinate order, on NewIterator calls.
func NewFakeProvider(header *sam.Header, recs []*sam.Record) Provider {
	sorted := append([]*sam.Record(nil), recs...)
	sort.SliceStable(sorted, func(i, j int) bool {
		ri, rj := sorted[i].Ref.ID(), sorted[j].Ref.ID()
		if ri != rj {
			// Unmapped reads sort last.
			if ri < 0 || rj < 0 {
				return rj < 0 && ri >= 0
			}
			return ri < rj
		}
		return sorted[i].Pos < sorted[j].Pos
	})
	return &fakeProvider{header, sorted}
}

// GetHeader implements the Provider interface. It returns the header passed to
// the constructor.
func (b *fakeProvider) GetHeader() (*sam.Header, error) {
	return b.header, nil
}

// Close implements the Provider interface.
func (b *fakeProvider) Close() error {
	return nil
}

// NewIterator implements the Provider interface.
func (b *fakeProvider) NewIterator(region interval.Region) Iterator {
	return &fakeIterator{recs: b.recs, region: region}
}

// Err implements the Iterator interface.
func (i *fakeIterator) Err() error {
	return nil
}

// Close implements the Iterator interface.
func (i *fakeIterator) Close() error {
	return nil
}

func (i *fakeIterator) Scan() bool {
	for len(i.recs) > 0 {
		i.rec = i.recs[0]
		i.recs = i.recs[1:]
		if i.region.Contains(i.rec.Ref.ID(), interval.PosType(i.rec.Pos)) {
			return true
		}
	}
	return false
}

func (i *fakeIterator) Record() *sam.Record {
	// Return a copy so that the code under test cannot alter the
	// original test input data.
	copy := sam.GetFromFreePool()
	*copy = *i.rec
	return copy
}
