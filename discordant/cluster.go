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
	"sort"

	"github.com/grailbio/svevidence/interval"
)

// readCluster is a group of position-adjacent reads of a single orientation
// class, in genomic order.
type readCluster []Read

// lessRead is the sort order of reads throughout clustering.  It only looks at
// read content, so the result is independent of the input order.
func lessRead(a, b Read) bool {
	if a.RefID() != b.RefID() {
		return a.RefID() < b.RefID()
	}
	if a.Pos() != b.Pos() {
		return a.Pos() < b.Pos()
	}
	if a.Reversed() != b.Reversed() {
		return !a.Reversed()
	}
	if a.MateRefID() != b.MateRefID() {
		return a.MateRefID() < b.MateRefID()
	}
	if a.MatePos() != b.MatePos() {
		return a.MatePos() < b.MatePos()
	}
	return a.ID() < b.ID()
}

func sortReads(reads []Read) {
	sort.SliceStable(reads, func(i, j int) bool { return lessRead(reads[i], reads[j]) })
}

// clusterPositions partitions reads, which must be sorted by lessRead, into
// single-linkage groups: a new group starts when the reference changes or
// when the alignment start is more than proximity bases past the previous
// read's.
func clusterPositions(reads []Read, proximity int) []readCluster {
	var (
		clusters []readCluster
		cur      readCluster
	)
	for _, r := range reads {
		if n := len(cur); n > 0 {
			last := cur[n-1]
			if r.RefID() != last.RefID() || r.Pos()-last.Pos() > proximity {
				clusters = append(clusters, cur)
				cur = nil
			}
		}
		cur = append(cur, r)
	}
	if len(cur) > 0 {
		clusters = append(clusters, cur)
	}
	return clusters
}

// clusterByOrientation splits reads into the four orientation classes and
// clusters each class by position.  The input slice is not modified.
func clusterByOrientation(reads []Read, proximity int) [numOrientations][]readCluster {
	var byClass [numOrientations][]Read
	for _, r := range reads {
		o := r.Orientation()
		byClass[o] = append(byClass[o], r)
	}
	var result [numOrientations][]readCluster
	for o := range byClass {
		sortReads(byClass[o])
		result[o] = clusterPositions(byClass[o], proximity)
	}
	return result
}

// removeSingletons drops the clusters with fewer than min reads.
func removeSingletons(clusters []readCluster, min int) []readCluster {
	kept := clusters[:0]
	for _, c := range clusters {
		if len(c) >= min {
			kept = append(kept, c)
		}
	}
	return kept
}

// span returns the smallest region covering the alignments of c on the
// reference of its first read, with that read's strand.  Reads on other
// references are ignored.  An empty cluster yields an empty region.
func (c readCluster) span() interval.Region {
	if len(c) == 0 {
		return interval.EmptyRegion()
	}
	first := c[0]
	start, end := first.Pos(), first.End()
	for _, r := range c[1:] {
		if r.RefID() != first.RefID() {
			continue
		}
		if r.Pos() < start {
			start = r.Pos()
		}
		if e := r.End(); e > end {
			end = e
		}
	}
	return interval.NewRegion(first.Record.Ref, start, end, first.Strand())
}
