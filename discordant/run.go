// Copyright 2020 Grail Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package discordant

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/traverse"
	"github.com/grailbio/hts/bgzf"
	"github.com/grailbio/hts/sam"
	"github.com/grailbio/svevidence/encoding/bamprovider"
	"github.com/grailbio/svevidence/interval"
	"github.com/klauspost/compress/gzip"
)

// Input is one alignment file and the sample its reads are attributed to.
type Input struct {
	// Path is the BAM path.
	Path string
	// Index is the BAM index path.  It defaults to Path + ".bai".
	Index string
	// Sample labels every read of the file.  Samples starting with
	// Opts.CasePrefix count as case.
	Sample string

	// Provider, if set, is used instead of opening Path.
	Provider bamprovider.Provider
}

// RunOpts configures Run.
type RunOpts struct {
	Opts

	Inputs []Input
	// Region restricts the run to one region string, e.g. "chr1:1-100000".
	Region string
	// BEDPath restricts the run to the regions of a BED file.
	BEDPath string
	// WindowSize is the interval width used when neither Region nor BEDPath
	// is set.
	WindowSize int
	// OutputPath receives the TSV.  It is gzipped when it ends in ".gz" and
	// block-gzipped when it ends in ".bgz".  Nothing is written if empty.
	OutputPath string
	// WithReads fills the reads column.
	WithReads bool

	// MinISizePath is a "sample<TAB>min_isize" table, see LoadMinInsertSizes.
	MinISizePath string
	// MinISize maps samples to minimum insert sizes.  Entries of
	// MinISizePath take precedence.
	MinISize map[string]int
	// DefaultMinISize is the minimum insert size of an innie pair from a
	// sample without a MinISize entry for it to be kept as a discordant
	// candidate.  0 drops all innie pairs of such samples.
	DefaultMinISize int

	// MaxMapQ is the highest mapq the aligner emits.
	MaxMapQ int
	// Parallelism is the number of intervals processed at once.  0 means
	// runtime.NumCPU().
	Parallelism int
}

// DefaultRunOpts sets the default values to RunOpts.
var DefaultRunOpts = RunOpts{
	Opts:            DefaultOpts,
	WindowSize:      1000000,
	DefaultMinISize: 1000,
	MaxMapQ:         60,
}

// Run clusters the discordant reads of opts.Inputs in every interval, merges
// the per-interval results and writes them to opts.OutputPath.
func Run(ctx context.Context, opts RunOpts) (reg *Registry, err error) {
	if len(opts.Inputs) == 0 {
		return nil, errors.E(errors.Invalid, "discordant.Run: no inputs")
	}
	if opts.Region != "" && opts.BEDPath != "" {
		return nil, errors.E(errors.Invalid, "discordant.Run: region and BED path can't be used together")
	}
	minISize := map[string]int{}
	for k, v := range opts.MinISize {
		minISize[k] = v
	}
	if opts.MinISizePath != "" {
		var m map[string]int
		if m, err = LoadMinInsertSizes(ctx, opts.MinISizePath); err != nil {
			return nil, err
		}
		for k, v := range m {
			minISize[k] = v
		}
	}

	providers := make([]bamprovider.Provider, len(opts.Inputs))
	defer func() {
		for i, p := range providers {
			if p == nil || opts.Inputs[i].Provider != nil {
				continue
			}
			if e := p.Close(); e != nil && err == nil {
				err = e
			}
		}
	}()
	for i, in := range opts.Inputs {
		if in.Sample == "" {
			return nil, errors.E(errors.Invalid, fmt.Sprintf("discordant.Run: input %s has no sample", in.Path))
		}
		if in.Provider != nil {
			providers[i] = in.Provider
		} else {
			providers[i] = bamprovider.NewProvider(in.Path, bamprovider.ProviderOpts{Index: in.Index})
		}
	}
	var header *sam.Header
	if header, err = checkHeaders(providers, opts.Inputs); err != nil {
		return nil, err
	}
	var intervals []interval.Region
	if intervals, err = runIntervals(ctx, header, opts); err != nil {
		return nil, err
	}

	parallelism := opts.Parallelism
	if parallelism <= 0 {
		parallelism = runtime.NumCPU()
	}
	log.Printf("discordant: %d intervals, %d inputs, parallelism %d", len(intervals), len(opts.Inputs), parallelism)
	if parallelism > len(intervals) {
		parallelism = len(intervals)
	}
	results := make([]*Registry, len(intervals))
	err = traverse.Each(parallelism, func(jobIdx int) error {
		startIdx := (jobIdx * len(intervals)) / parallelism
		endIdx := ((jobIdx + 1) * len(intervals)) / parallelism
		for i := startIdx; i < endIdx; i++ {
			var e error
			if results[i], e = processInterval(providers, opts, intervals[i], minISize); e != nil {
				return e
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	reg = NewRegistry()
	reg.Merge(results...)
	nDup := reg.Dedupe()
	nCompeting := reg.TagCompeting()
	log.Printf("discordant: %d clusters (%d cross-interval duplicates removed, %d competing pairs), fingerprint %s",
		reg.Len(), nDup, nCompeting, reg.Fingerprint())
	if opts.OutputPath != "" {
		if err = writeOutput(ctx, opts.OutputPath, reg.Sorted(), opts.WithReads); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// checkHeaders returns the header of the first input after checking that all
// the inputs share its references.
func checkHeaders(providers []bamprovider.Provider, inputs []Input) (*sam.Header, error) {
	var first *sam.Header
	for i, p := range providers {
		h, err := p.GetHeader()
		if err != nil {
			return nil, errors.E(err, inputs[i].Path)
		}
		if first == nil {
			first = h
			continue
		}
		a, b := first.Refs(), h.Refs()
		if len(a) != len(b) {
			return nil, errors.E(errors.Invalid, fmt.Sprintf("%s: %d references, %s has %d", inputs[i].Path, len(b), inputs[0].Path, len(a)))
		}
		for j := range a {
			if a[j].Name() != b[j].Name() || a[j].Len() != b[j].Len() {
				return nil, errors.E(errors.Invalid, fmt.Sprintf("%s: reference %d is %s, %s has %s", inputs[i].Path, j, b[j].Name(), inputs[0].Path, a[j].Name()))
			}
		}
	}
	return first, nil
}

func runIntervals(ctx context.Context, header *sam.Header, opts RunOpts) ([]interval.Region, error) {
	switch {
	case opts.Region != "":
		r, err := interval.ParseRegionString(opts.Region, header)
		if err != nil {
			return nil, err
		}
		return []interval.Region{r}, nil
	case opts.BEDPath != "":
		return interval.LoadRegions(ctx, opts.BEDPath, interval.LoadRegionsOpts{SAMHeader: header})
	}
	width := opts.WindowSize
	if width <= 0 {
		width = DefaultRunOpts.WindowSize
	}
	return interval.Windows(header, width), nil
}

// readCandidates returns the discordant candidates that start in region.
func readCandidates(providers []bamprovider.Provider, opts RunOpts, region interval.Region, minISize map[string]int, reads []Read) ([]Read, error) {
	for i, p := range providers {
		recs, err := bamprovider.ReadRegion(p, region)
		if err != nil {
			return nil, errors.E(err, fmt.Sprintf("%s: %v", opts.Inputs[i].Path, region))
		}
		for _, rec := range recs {
			if rd := NewRead(rec, opts.Inputs[i].Sample); IsDiscordantCandidate(rd, minISize, opts.DefaultMinISize) {
				reads = append(reads, rd)
			}
		}
	}
	return reads, nil
}

// readExtended returns the candidates starting in region grown on both sides,
// one ProximityDistance step at a time, until a step adds no candidate.  No
// position cluster crosses the returned region.
func readExtended(providers []bamprovider.Provider, opts RunOpts, region interval.Region, minISize map[string]int) (interval.Region, []Read, error) {
	reads, err := readCandidates(providers, opts, region, minISize, nil)
	if err != nil {
		return region, nil, err
	}
	step := interval.PosType(opts.ProximityDistance)
	if step <= 0 || region.IsEmpty() {
		return region, reads, nil
	}
	ext := region
	for ext.Start > 0 {
		slab := ext
		slab.Start, slab.End = ext.Start-step, ext.Start
		if slab.Start < 0 {
			slab.Start = 0
		}
		n := len(reads)
		if reads, err = readCandidates(providers, opts, slab, minISize, reads); err != nil {
			return region, nil, err
		}
		ext.Start = slab.Start
		if len(reads) == n {
			break
		}
	}
	for ext.End < interval.PosTypeMax-step {
		slab := ext
		slab.Start, slab.End = ext.End, ext.End+step
		n := len(reads)
		if reads, err = readCandidates(providers, opts, slab, minISize, reads); err != nil {
			return region, nil, err
		}
		ext.End = slab.End
		if len(reads) == n {
			break
		}
	}
	return ext, reads, nil
}

// ownedClusters returns the clusters of reg whose reg1 starts in region.  The
// others start in a neighboring interval, which reports them.
func ownedClusters(reg *Registry, region interval.Region) *Registry {
	owned := NewRegistry()
	for _, c := range reg.Sorted() {
		if region.Contains(c.reg1.RefID, c.reg1.Start) {
			owned.Add(c)
		}
	}
	return owned
}

// processInterval clusters the reads starting in region, with the mates
// fetched from the mate regions.  Clusters that cross the region boundary are
// built whole and reported by the interval holding their first anchor.
func processInterval(providers []bamprovider.Provider, opts RunOpts, region interval.Region, minISize map[string]int) (*Registry, error) {
	ext, reads, err := readExtended(providers, opts, region, minISize)
	if err != nil {
		return nil, err
	}
	for _, mr := range MateRegions(reads, ext, &opts.Opts) {
		if reads, err = readCandidates(providers, opts, mr, minISize, reads); err != nil {
			return nil, err
		}
	}
	reg := ClusterReads(reads, ext, opts.MaxMapQ, minISize, &opts.Opts)
	if ext != region {
		reg = ownedClusters(reg, region)
	}
	return reg, nil
}

func writeOutput(ctx context.Context, path string, clusters []*Cluster, withReads bool) (err error) {
	var out file.File
	if out, err = file.Create(ctx, path); err != nil {
		return err
	}
	defer file.CloseAndReport(ctx, out, &err)
	var w io.Writer = out.Writer(ctx)
	switch {
	case strings.HasSuffix(path, ".bgz"):
		bw := bgzf.NewWriter(w, 1)
		defer func() {
			if e := bw.Close(); e != nil && err == nil {
				err = e
			}
		}()
		w = bw
	case strings.HasSuffix(path, ".gz"):
		gz := gzip.NewWriter(w)
		defer func() {
			if e := gz.Close(); e != nil && err == nil {
				err = e
			}
		}()
		w = gz
	}
	return WriteTSV(w, clusters, withReads)
}
