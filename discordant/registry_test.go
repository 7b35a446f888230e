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
	"math/rand"
	"testing"

	"github.com/grailbio/svevidence/interval"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
)

// sixPairs returns six FR pairs from chr1:~1000 to chr2:~5000 plus an
// unrelated pair whose ends are both alone.
func sixPairs(sample string) []Read {
	reads := pairs(sample, "sv", 6, 10, fwd(chr1, 1000), rev(chr2, 5000))
	lone1, lone2 := newPair(sample, "lone", fwd(chr1, 60000), rev(chr3, 30000))
	return append(reads, lone1, lone2)
}

func checkSixPairs(t *testing.T, reg *Registry) {
	assert.EQ(t, reg.Len(), 1)
	c := reg.Sorted()[0]
	expect.True(t, c.Valid())
	expect.EQ(t, c.Reg1().String(), "chr1:1001-1150(+)")
	expect.EQ(t, c.Reg2().String(), "chr2:5001-5150(-)")
	expect.EQ(t, c.TCount()+c.NCount(), 6)
	for _, id := range append(c.ReadIDs(), c.MateIDs()...) {
		expect.NEQ(t, id, "t000_lone_1")
		expect.NEQ(t, id, "t000_lone_2")
	}
	got, ok := reg.Get(c.ID())
	expect.True(t, ok)
	expect.EQ(t, got, c)
}

func TestClusterReadsEndToEnd(t *testing.T) {
	reads := sixPairs("t000")
	checkSixPairs(t, ClusterReads(reads, interval.EmptyRegion(), 60, nil, nil))

	// Restricting anchors to chr1 finds the same cluster.
	chr1Region := interval.NewRegion(chr1, 0, chr1.Len(), interval.StrandNone)
	reg := ClusterReads(reads, chr1Region, 60, nil, nil)
	checkSixPairs(t, reg)
	expect.EQ(t, reg.Sorted()[0].ID(), ClusterReads(reads, interval.EmptyRegion(), 60, nil, nil).Sorted()[0].ID())

	// Anchors on chr2 give the mirrored cluster.
	chr2Region := interval.NewRegion(chr2, 0, chr2.Len(), interval.StrandNone)
	reg = ClusterReads(reads, chr2Region, 60, nil, nil)
	assert.EQ(t, reg.Len(), 1)
	c := reg.Sorted()[0]
	expect.EQ(t, c.Orientation(), RF)
	expect.EQ(t, c.Reg1().String(), "chr2:5001-5150(-)")
}

func TestClusterReadsEmpty(t *testing.T) {
	expect.EQ(t, ClusterReads(nil, interval.EmptyRegion(), 60, nil, nil).Len(), 0)
	region := interval.NewRegion(chr3, 0, 1000, interval.StrandNone)
	expect.EQ(t, ClusterReads(sixPairs("t000"), region, 60, nil, nil).Len(), 0)
}

func TestClusterReadsDeterministic(t *testing.T) {
	var reads []Read
	reads = append(reads, pairs("t000", "a", 6, 10, fwd(chr1, 1000), rev(chr2, 5000))...)
	reads = append(reads, pairs("n000", "b", 3, 15, fwd(chr1, 1020), rev(chr2, 5010))...)
	reads = append(reads, pairs("t000", "c", 4, 30, rev(chr1, 20000), rev(chr1, 40000))...)
	reads = append(reads, pairs("t000", "d", 3, 30, fwd(chr1, 1000), fwd(chr2, 5020))...)
	reads = append(reads, pairs("n000", "e", 1, 30, fwd(chr2, 70000), rev(chr3, 100))...)

	want := ClusterReads(reads, interval.EmptyRegion(), 60, nil, nil)
	assert.GT(t, want.Len(), 1)
	r := rand.New(rand.NewSource(0))
	for i := 0; i < 10; i++ {
		shuffled := append([]Read{}, reads...)
		r.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		got := ClusterReads(shuffled, interval.EmptyRegion(), 60, nil, nil)
		expect.EQ(t, got.Fingerprint(), want.Fingerprint())
		assert.EQ(t, got.Len(), want.Len())
		for j, c := range got.Sorted() {
			w := want.Sorted()[j]
			expect.EQ(t, c.ID(), w.ID())
			expect.EQ(t, c.SampleCounts(), w.SampleCounts())
			expect.EQ(t, c.CompetingID(), w.CompetingID())
		}
	}
}

func TestClusterReadsNoSingletons(t *testing.T) {
	var reads []Read
	for i, pos := range []int{1000, 3000, 5000, 7000} {
		reads = append(reads, pairs("t000", string(rune('a'+i)), 1, 0, fwd(chr1, pos), rev(chr2, pos*5))...)
	}
	reads = append(reads, pairs("t000", "pair", 2, 10, fwd(chr1, 20000), rev(chr3, 100))...)
	reg := ClusterReads(reads, interval.EmptyRegion(), 60, nil, nil)
	assert.EQ(t, reg.Len(), 1)
	for _, c := range reg.Sorted() {
		expect.GE(t, c.Support(), 2)
	}

	// A higher minimum removes the pair too.
	opts := DefaultOpts
	opts.MinClusterReads = 3
	expect.EQ(t, ClusterReads(reads, interval.EmptyRegion(), 60, nil, &opts).Len(), 0)
}

func TestClusterReadsInsertSizeFilter(t *testing.T) {
	// Innie pairs with a separation of 500.
	reads := pairs("tumor", "short", 3, 10, fwd(chr1, 1000), rev(chr1, 1400))
	assert.EQ(t, reads[0].Separation(), 500)

	region := interval.NewRegion(chr1, 0, 1200, interval.StrandNone)
	reg := ClusterReads(reads, region, 60, nil, nil)
	assert.EQ(t, reg.Len(), 1)
	expect.EQ(t, reg.Sorted()[0].TCount(), 3)

	expect.EQ(t, ClusterReads(reads, region, 60, map[string]int{"tumor": 1000}, nil).Len(), 0)
	expect.EQ(t, ClusterReads(reads, region, 60, map[string]int{"tumor": 400}, nil).Len(), 1)
	expect.EQ(t, ClusterReads(reads, region, 60, map[string]int{"tumor": 500}, nil).Len(), 0)
	expect.EQ(t, ClusterReads(reads, region, 60, map[string]int{"tumor": 499}, nil).Len(), 1)
	// Other samples' entries don't apply.
	expect.EQ(t, ClusterReads(reads, region, 60, map[string]int{"normal": 1000}, nil).Len(), 1)

	// Interchromosomal pairs are not filtered.
	inter := pairs("tumor", "inter", 3, 10, fwd(chr1, 1000), rev(chr2, 1400))
	expect.EQ(t, ClusterReads(inter, region, 60, map[string]int{"tumor": 1000}, nil).Len(), 1)
}

func TestClusterReadsCompeting(t *testing.T) {
	var reads []Read
	reads = append(reads, pairs("t000", "fr", 4, 10, fwd(chr1, 1000), rev(chr2, 5000))...)
	reads = append(reads, pairs("t000", "ff", 3, 10, fwd(chr1, 1010), fwd(chr2, 5010))...)
	reads = append(reads, pairs("t000", "far", 3, 10, fwd(chr1, 30000), rev(chr2, 80000))...)
	region := interval.NewRegion(chr1, 0, chr1.Len(), interval.StrandNone)
	reg := ClusterReads(reads, region, 60, nil, nil)
	assert.EQ(t, reg.Len(), 3)

	linked := 0
	for _, a := range reg.Sorted() {
		if a.CompetingID() == "" {
			continue
		}
		linked++
		b, ok := reg.Get(a.CompetingID())
		assert.True(t, ok)
		expect.EQ(t, b.CompetingID(), a.ID())
		expect.NEQ(t, b.Orientation(), a.Orientation())
	}
	expect.EQ(t, linked, 2)

	// Re-tagging is idempotent.
	expect.EQ(t, reg.TagCompeting(), 1)
}

func TestRegistryDedupe(t *testing.T) {
	reads := pairs("t000", "p", 3, 10, fwd(chr1, 1000), rev(chr2, 5000))
	a := buildCluster(reads, &DefaultOpts)
	// The same evidence seen from the mate side.
	mirrorAnchors, mirrorMates := readCluster(secondEnds(reads)), readCluster(firstEnds(reads))
	sortReads(mirrorAnchors)
	sortReads(mirrorMates)
	b := newCluster(mirrorAnchors, mirrorMates, 60, &DefaultOpts)
	expect.EQ(t, b.Orientation(), RF)

	reg := NewRegistry()
	expect.True(t, reg.Add(b))
	expect.True(t, reg.Add(a))
	expect.False(t, reg.Add(buildCluster(reads, &DefaultOpts)))
	expect.False(t, reg.Add(newCluster(nil, nil, 60, &DefaultOpts)))
	expect.EQ(t, reg.Len(), 2)
	expect.EQ(t, reg.Dedupe(), 1)
	assert.EQ(t, reg.Len(), 1)
	expect.EQ(t, reg.Sorted()[0].ID(), a.ID())
	expect.EQ(t, reg.Dedupe(), 0)
}

func TestRegistryMergeAndAddMateReads(t *testing.T) {
	r1 := ClusterReads(pairs("t000", "a", 3, 10, fwd(chr1, 1000), rev(chr2, 5000)), interval.EmptyRegion(), 60, nil, nil)
	r2 := ClusterReads(pairs("n000", "b", 3, 10, fwd(chr1, 50000), rev(chr3, 5000)), interval.EmptyRegion(), 60, nil, nil)
	merged := NewRegistry()
	merged.Merge(r1, r2, r1)
	assert.EQ(t, merged.Len(), 2)
	sorted := merged.Sorted()
	expect.True(t, sorted[0].Less(sorted[1]))

	reads := pairs("t000", "p", 4, 10, fwd(chr2, 1000), rev(chr3, 9000))
	mates := secondEnds(reads)
	anchors := readCluster(firstEnds(reads))
	reg := NewRegistry()
	reg.Add(newCluster(anchors, readCluster(mates[:2]), 60, &DefaultOpts))
	oldID := reg.Sorted()[0].ID()
	expect.EQ(t, reg.AddMateReads(mates), 2)
	assert.EQ(t, reg.Len(), 1)
	_, ok := reg.Get(oldID)
	expect.False(t, ok)
	c := reg.Sorted()[0]
	got, ok := reg.Get(c.ID())
	expect.True(t, ok)
	expect.EQ(t, got, c)
}

func TestRegistryAddMateReadsRelinksCompeting(t *testing.T) {
	fr := pairs("t000", "fr", 4, 10, fwd(chr1, 1000), rev(chr2, 5000))
	ff := pairs("t000", "ff", 3, 10, fwd(chr1, 1010), fwd(chr2, 5010))
	var reads []Read
	reads = append(reads, fr...)
	reads = append(reads, firstEnds(ff)...)
	reads = append(reads, secondEnds(ff)[:2]...)

	reg := ClusterReads(reads, interval.NewRegion(chr1, 0, chr1.Len(), interval.StrandNone), 60, nil, nil)
	assert.EQ(t, reg.Len(), 2)
	checkLinks := func() {
		for _, c := range reg.Sorted() {
			other, ok := reg.Get(c.CompetingID())
			assert.True(t, ok, c.String())
			expect.EQ(t, other.CompetingID(), c.ID())
		}
	}
	checkLinks()

	expect.EQ(t, reg.AddMateReads(secondEnds(ff)), 1)
	assert.EQ(t, reg.Len(), 2)
	checkLinks()
}

func TestRegistryAddMateReadsCollision(t *testing.T) {
	strong := pairs("t000", "p", 3, 10, fwd(chr1, 1000), rev(chr2, 5000))
	weak := pairs("t000", "q", 2, 20, fwd(chr1, 1000), rev(chr2, 5000))
	reg := NewRegistry()
	x := newCluster(readCluster(firstEnds(strong)), readCluster(secondEnds(strong)[:2]), 60, &DefaultOpts)
	y := buildCluster(weak, &DefaultOpts)
	assert.True(t, reg.Add(x))
	assert.True(t, reg.Add(y))
	assert.EQ(t, reg.Len(), 2)

	// Back-filling x gives it y's regions and ID; the better supported x stays.
	expect.EQ(t, reg.AddMateReads(secondEnds(strong)), 1)
	assert.EQ(t, reg.Len(), 1)
	got, ok := reg.Get(y.ID())
	assert.True(t, ok)
	expect.EQ(t, got, x)
	expect.EQ(t, got.Support(), 3)
	expect.EQ(t, len(reg.Sorted()), 1)
}
