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
	"math"
	"sort"
	"strings"

	"github.com/grailbio/base/log"
	"github.com/grailbio/svevidence/interval"
)

// Evidence is the read-only view of a cluster used by breakpoint callers.
type Evidence interface {
	ID() string
	CompetingID() string
	Reg1() interval.Region
	Reg2() interval.Region
	Orientation() Orientation
	ReadIDs() []string
	MateIDs() []string
	TCount() int
	NCount() int
	TCountHQ() int
	NCountHQ() int
	SampleCounts() map[string]int
	MapQ1() int
	MapQ2() int
	MaxPossibleMapQ() int
	ReadScore() float64
	MateScore() float64
	Contig() string
	Valid() bool
}

// Cluster links two genomic regions by the read pairs whose ends fall in
// them.  Reg1 holds the anchor reads, Reg2 their mates.  A Cluster is either
// empty (both regions empty, no reads) or has both regions set.
type Cluster struct {
	reg1, reg2  interval.Region
	orientation Orientation

	reads map[string]Read // anchors, keyed by read ID
	mates map[string]Read // mates, keyed by read ID

	tcount, ncount     int
	tcountHQ, ncountHQ int
	counts             map[string]int

	mapq1, mapq2    int
	maxPossibleMapQ int
	readScore       float64
	mateScore       float64

	contig      string
	id          string
	idCompeting string

	hqCutoff   int
	casePrefix string
	proximity  int
}

var _ Evidence = (*Cluster)(nil)

func newEmptyCluster(maxMapQ int, opts *Opts) *Cluster {
	return &Cluster{
		reg1:            interval.EmptyRegion(),
		reg2:            interval.EmptyRegion(),
		reads:           map[string]Read{},
		mates:           map[string]Read{},
		counts:          map[string]int{},
		mapq1:           -1,
		mapq2:           -1,
		maxPossibleMapQ: maxMapQ,
		hqCutoff:        hqCutoff(maxMapQ, opts.HighQualityFraction),
		casePrefix:      opts.CasePrefix,
		proximity:       opts.ProximityDistance,
	}
}

func hqCutoff(maxMapQ int, fraction float64) int {
	return int(math.Ceil(fraction * float64(maxMapQ)))
}

// newCluster assembles a cluster from an anchor group and its mate group.  It
// returns an empty cluster if either group is empty.
func newCluster(anchors, mates readCluster, maxMapQ int, opts *Opts) *Cluster {
	c := newEmptyCluster(maxMapQ, opts)
	if len(anchors) == 0 || len(mates) == 0 {
		return c
	}
	for _, r := range anchors {
		c.reads[r.ID()] = r
	}
	for _, m := range mates {
		c.mates[m.ID()] = m
	}
	c.reg1 = anchors.span()
	c.update()
	return c
}

// update recomputes everything derived from the read maps.  reg1 is fixed at
// assembly time; reg2 follows the mates.
func (c *Cluster) update() {
	c.reg2 = c.mateReads().span()
	c.mapq1, c.readScore = c.mapqSummary(c.reads)
	c.mapq2, c.mateScore = c.mapqSummary(c.mates)
	c.recount()
	c.checkSides()
	if !c.reg1.IsEmpty() {
		c.orientation = orientationFromStrands(c.reg1.Strand, c.reg2.Strand)
		c.id = clusterID(c.reg1, c.reg2, c.orientation)
	}
}

func (c *Cluster) checkSides() {
	if c.reg1.IsEmpty() != c.reg2.IsEmpty() {
		log.Panicf("discordant: cluster with one empty side: reg1=%v reg2=%v", c.reg1, c.reg2)
	}
}

// mateReads returns the mates in read order.
func (c *Cluster) mateReads() readCluster {
	mates := make(readCluster, 0, len(c.mates))
	for _, m := range c.mates {
		mates = append(mates, m)
	}
	sortReads(mates)
	return mates
}

// mapqSummary returns the rounded mean mapq of reads and its score.  The mapq
// is -1 and the score 0 when reads is empty.
func (c *Cluster) mapqSummary(reads map[string]Read) (int, float64) {
	if len(reads) == 0 {
		return -1, 0
	}
	total := 0
	for _, r := range reads {
		total += r.MapQ()
	}
	mean := float64(total) / float64(len(reads))
	return int(math.Floor(mean + 0.5)), mapqScore(mean, c.maxPossibleMapQ)
}

// mapqScore maps a mean mapq to [0,1], linearly in mapq.
func mapqScore(mean float64, maxMapQ int) float64 {
	if maxMapQ <= 0 {
		return 0
	}
	s := mean / float64(maxMapQ)
	switch {
	case s < 0:
		return 0
	case s > 1:
		return 1
	}
	return s
}

func (c *Cluster) isCase(sample string) bool {
	return strings.HasPrefix(sample, c.casePrefix)
}

// recount fills the per-sample and per-class counts from the anchors.  A read
// is high quality when it and its mate both reach the hq cutoff; the mate
// mapq comes from the resolved mate, or from the MQ tag when the mate was not
// resolved.
func (c *Cluster) recount() {
	c.tcount, c.ncount, c.tcountHQ, c.ncountHQ = 0, 0, 0, 0
	c.counts = make(map[string]int)
	for _, r := range c.reads {
		c.counts[r.Sample]++
		mateMapQ := r.MateMapQ()
		if m, ok := c.mates[r.MateID()]; ok {
			mateMapQ = m.MapQ()
		}
		hq := r.MapQ() >= c.hqCutoff && mateMapQ >= c.hqCutoff
		if c.isCase(r.Sample) {
			c.tcount++
			if hq {
				c.tcountHQ++
			}
		} else {
			c.ncount++
			if hq {
				c.ncountHQ++
			}
		}
	}
}

// AddMateReads adds the reads in pool that are mates of the cluster's anchors
// and are not in the cluster yet, then recomputes the mate side, the counts
// and the ID.  A mate is only added if it lies on reg2's reference and strand,
// within ProximityDistance of reg2.  It returns the number of mates added.
// AddMateReads on an empty cluster does nothing.
//
// The ID may change, so a cluster must not be modified while it is held in a
// Registry; use Registry.AddMateReads instead.
func (c *Cluster) AddMateReads(pool []Read) int {
	if c.IsEmpty() {
		return 0
	}
	near := c.reg2.Pad(c.proximity)
	added := 0
	for _, m := range pool {
		if _, ok := c.reads[m.MateID()]; !ok {
			continue
		}
		if m.Strand() != c.reg2.Strand || !near.Contains(m.RefID(), interval.PosType(m.Pos())) {
			continue
		}
		if _, ok := c.mates[m.ID()]; ok {
			continue
		}
		c.mates[m.ID()] = m
		added++
	}
	if added > 0 {
		c.update()
	}
	return added
}

// SetContig records the name of an assembled contig that supports the
// cluster.
func (c *Cluster) SetContig(name string) { c.contig = name }

// IsEmpty is true for a cluster without regions.
func (c *Cluster) IsEmpty() bool { return c.reg1.IsEmpty() && c.reg2.IsEmpty() }

// Valid reports whether the cluster can be reported: both regions are set,
// both mapqs are set and at least one read supports it.
func (c *Cluster) Valid() bool {
	return !c.reg1.IsEmpty() && !c.reg2.IsEmpty() && c.mapq1 >= 0 && c.mapq2 >= 0 && c.Support() >= 1
}

// Support returns the number of anchor reads.
func (c *Cluster) Support() int { return c.tcount + c.ncount }

// GetMateRegionOfOverlap returns reg2 if query overlaps only reg1, reg1 if it
// overlaps only reg2, and an empty region otherwise.
func (c *Cluster) GetMateRegionOfOverlap(query interval.Region) interval.Region {
	o1, o2 := query.Overlaps(c.reg1), query.Overlaps(c.reg2)
	switch {
	case o1 && !o2:
		return c.reg2
	case o2 && !o1:
		return c.reg1
	}
	return interval.EmptyRegion()
}

// ID returns the content-derived identifier of the cluster, or "" for an
// empty cluster.
func (c *Cluster) ID() string { return c.id }

// CompetingID returns the ID of the cluster that spans the same regions with
// a different orientation, or "".
func (c *Cluster) CompetingID() string { return c.idCompeting }

// Reg1 returns the anchor side.
func (c *Cluster) Reg1() interval.Region { return c.reg1 }

// Reg2 returns the mate side.
func (c *Cluster) Reg2() interval.Region { return c.reg2 }

// Orientation returns the strand class of the anchors.
func (c *Cluster) Orientation() Orientation { return c.orientation }

func sortedIDs(m map[string]Read) []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ReadIDs returns the sorted IDs of the anchor reads.
func (c *Cluster) ReadIDs() []string { return sortedIDs(c.reads) }

// MateIDs returns the sorted IDs of the mate reads.
func (c *Cluster) MateIDs() []string { return sortedIDs(c.mates) }

// TCount returns the number of case reads.
func (c *Cluster) TCount() int { return c.tcount }

// NCount returns the number of control reads.
func (c *Cluster) NCount() int { return c.ncount }

// TCountHQ returns the number of high-quality case reads.
func (c *Cluster) TCountHQ() int { return c.tcountHQ }

// NCountHQ returns the number of high-quality control reads.
func (c *Cluster) NCountHQ() int { return c.ncountHQ }

// SampleCounts returns a copy of the per-sample read counts.
func (c *Cluster) SampleCounts() map[string]int {
	m := make(map[string]int, len(c.counts))
	for k, v := range c.counts {
		m[k] = v
	}
	return m
}

// MapQ1 returns the rounded mean mapq of the anchors, or -1.
func (c *Cluster) MapQ1() int { return c.mapq1 }

// MapQ2 returns the rounded mean mapq of the mates, or -1.
func (c *Cluster) MapQ2() int { return c.mapq2 }

// MaxPossibleMapQ returns the mapq the scores are normalized by.
func (c *Cluster) MaxPossibleMapQ() int { return c.maxPossibleMapQ }

// ReadScore returns the anchor-side confidence in [0,1].
func (c *Cluster) ReadScore() float64 { return c.readScore }

// MateScore returns the mate-side confidence in [0,1].
func (c *Cluster) MateScore() float64 { return c.mateScore }

// Contig returns the name of the supporting contig, or "".
func (c *Cluster) Contig() string { return c.contig }

// Compare orders clusters by (reg1, reg2, id).  Empty regions sort last.
func (c *Cluster) Compare(o *Cluster) int {
	if v := c.reg1.Compare(o.reg1); v != 0 {
		return v
	}
	if v := c.reg2.Compare(o.reg2); v != 0 {
		return v
	}
	return strings.Compare(c.id, o.id)
}

// Less is Compare(o) < 0.
func (c *Cluster) Less(o *Cluster) bool { return c.Compare(o) < 0 }
