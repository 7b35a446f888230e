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
	"encoding/hex"
	"sort"

	"github.com/biogo/store/llrb"
	"github.com/grailbio/base/intervalmap"
	"github.com/grailbio/base/log"
	"github.com/grailbio/svevidence/interval"
	"github.com/minio/highwayhash"
)

// sortKey is the llrb element of a Registry.
type sortKey struct{ c *Cluster }

// Compare implements llrb.Comparable.
func (k sortKey) Compare(o llrb.Comparable) int {
	return k.c.Compare(o.(sortKey).c)
}

// Registry is the set of clusters found in an interval, keyed by cluster ID.
// A Registry is owned by one goroutine.
type Registry struct {
	byID   map[string]*Cluster
	sorted llrb.Tree
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byID: map[string]*Cluster{}}
}

// Len returns the number of clusters.
func (r *Registry) Len() int { return len(r.byID) }

// Get returns the cluster with the given ID.
func (r *Registry) Get(id string) (*Cluster, bool) {
	c, ok := r.byID[id]
	return c, ok
}

// Add inserts c.  Empty clusters are ignored.  If a cluster with the same ID
// exists, the one with more support stays; on a tie the existing one stays.
// It returns true if c was inserted.
func (r *Registry) Add(c *Cluster) bool {
	if c.IsEmpty() {
		return false
	}
	if old, ok := r.byID[c.id]; ok {
		if c.Support() <= old.Support() {
			return false
		}
		r.remove(old)
	}
	r.byID[c.id] = c
	r.sorted.Insert(sortKey{c})
	return true
}

func (r *Registry) remove(c *Cluster) {
	delete(r.byID, c.id)
	r.sorted.Delete(sortKey{c})
}

// Sorted returns the clusters ordered by Cluster.Compare.
func (r *Registry) Sorted() []*Cluster {
	clusters := make([]*Cluster, 0, r.Len())
	r.sorted.Do(func(item llrb.Comparable) bool {
		clusters = append(clusters, item.(sortKey).c)
		return false
	})
	return clusters
}

// Merge adds the clusters of the other registries to r.
func (r *Registry) Merge(others ...*Registry) {
	for _, o := range others {
		for _, c := range o.Sorted() {
			r.Add(c)
		}
	}
}

// AddMateReads back-fills mates from pool into every cluster, re-keying the
// clusters whose ID changes.  A re-keyed cluster that collides with another
// one follows the Add policy.  Mirrored duplicates are removed and competing
// links recomputed afterwards.  It returns the number of mates added.
func (r *Registry) AddMateReads(pool []Read) int {
	total := 0
	for _, c := range r.Sorted() {
		if r.byID[c.id] != c {
			// Evicted by a cluster re-keyed earlier in this pass.
			continue
		}
		r.remove(c)
		total += c.AddMateReads(pool)
		r.Add(c)
	}
	if total > 0 {
		r.Dedupe()
		r.TagCompeting()
	}
	return total
}

// regionIndex finds clusters by one of their regions.
type regionIndex map[int]*intervalmap.T

func newRegionIndex(clusters []*Cluster, side func(*Cluster) interval.Region) regionIndex {
	entries := map[int][]intervalmap.Entry{}
	for _, c := range clusters {
		reg := side(c)
		entries[reg.RefID] = append(entries[reg.RefID], intervalmap.Entry{
			Interval: intervalmap.Interval{Start: int64(reg.Start), Limit: int64(reg.End)},
			Data:     c,
		})
	}
	idx := regionIndex{}
	for refID, e := range entries {
		idx[refID] = intervalmap.New(e)
	}
	return idx
}

// overlapping returns the clusters whose indexed region overlaps reg, sorted.
func (idx regionIndex) overlapping(reg interval.Region) []*Cluster {
	t, ok := idx[reg.RefID]
	if !ok || reg.IsEmpty() {
		return nil
	}
	var ents []*intervalmap.Entry
	t.Get(intervalmap.Interval{Start: int64(reg.Start), Limit: int64(reg.End)}, &ents)
	clusters := make([]*Cluster, len(ents))
	for i, e := range ents {
		clusters[i] = e.Data.(*Cluster)
	}
	sort.Slice(clusters, func(i, j int) bool { return clusters[i].Less(clusters[j]) })
	return clusters
}

func reg1Of(c *Cluster) interval.Region { return c.reg1 }

// mirrors reports whether b is the same evidence as a seen from the other
// side: the regions are swapped and the orientation mirrored.
func mirrors(a, b *Cluster) bool {
	return a != b &&
		b.orientation == a.orientation.Mirror() &&
		a.reg1.Overlaps(b.reg2) && a.reg2.Overlaps(b.reg1)
}

// preferOver reports whether a stays when a and b mirror each other.  The
// cluster whose reg1 sorts before its reg2 stays; otherwise the one with more
// support, then the one that sorts first.
func preferOver(a, b *Cluster) bool {
	aFwd, bFwd := a.reg1.Compare(a.reg2) < 0, b.reg1.Compare(b.reg2) < 0
	if aFwd != bFwd {
		return aFwd
	}
	if a.Support() != b.Support() {
		return a.Support() > b.Support()
	}
	return a.Less(b)
}

// Dedupe removes clusters that duplicate another cluster from the mate side.
// It returns the number of clusters removed.
func (r *Registry) Dedupe() int {
	clusters := r.Sorted()
	idx := newRegionIndex(clusters, reg1Of)
	removed := map[*Cluster]bool{}
	for _, a := range clusters {
		if removed[a] {
			continue
		}
		for _, b := range idx.overlapping(a.reg2) {
			if removed[b] || !mirrors(a, b) {
				continue
			}
			if preferOver(a, b) {
				removed[b] = true
			} else {
				removed[a] = true
				break
			}
		}
	}
	for _, c := range clusters {
		if removed[c] {
			r.remove(c)
		}
	}
	if len(removed) > 0 {
		log.Debug.Printf("dedupe: removed %d of %d clusters", len(removed), len(clusters))
	}
	return len(removed)
}

// TagCompeting links clusters whose reg1 and reg2 overlap but whose
// orientations differ.  Links are symmetric and each cluster gets at most one
// partner; clusters are visited in sorted order.  Existing links are cleared
// first.  It returns the number of pairs linked.
func (r *Registry) TagCompeting() int {
	clusters := r.Sorted()
	for _, c := range clusters {
		c.idCompeting = ""
	}
	idx := newRegionIndex(clusters, reg1Of)
	pairs := 0
	for _, a := range clusters {
		if a.idCompeting != "" {
			continue
		}
		for _, b := range idx.overlapping(a.reg1) {
			if b == a || b.idCompeting != "" || b.orientation == a.orientation || !a.reg2.Overlaps(b.reg2) {
				continue
			}
			a.idCompeting, b.idCompeting = b.id, a.id
			pairs++
			break
		}
	}
	return pairs
}

var zeroSeed [32]byte

// Fingerprint returns a digest of the sorted serialized clusters.  Two
// registries with the same fingerprint hold the same clusters.
func (r *Registry) Fingerprint() string {
	h, err := highwayhash.New(zeroSeed[:])
	if err != nil {
		log.Panicf("highwayhash: %v", err)
	}
	for _, c := range r.Sorted() {
		h.Write([]byte(c.FileString(true)))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// ClusterReads builds the clusters supported by reads.  Anchors are the
// reads that start inside region (every read if region is empty); mates are
// looked up among all of reads.  maxMapQ normalizes the mapq scores.
// minISize maps a sample to the separation an innie pair must exceed to count
// as discordant; samples without an entry are not filtered.  A nil
// opts uses DefaultOpts.
func ClusterReads(reads []Read, region interval.Region, maxMapQ int, minISize map[string]int, opts *Opts) *Registry {
	if opts == nil {
		opts = &DefaultOpts
	}
	reg := NewRegistry()
	pool := filterReads(reads, minISize)
	if len(pool) == 0 {
		return reg
	}
	idx := newMateIndex(pool)
	var anchors []Read
	for _, rd := range pool {
		if region.IsEmpty() || region.Contains(rd.RefID(), interval.PosType(rd.Pos())) {
			anchors = append(anchors, rd)
		}
	}
	minReads := opts.minReads()
	for _, groups := range clusterByOrientation(anchors, opts.ProximityDistance) {
		for _, group := range removeSingletons(groups, minReads) {
			kept, mates := resolveMates(group, idx, opts.ProximityDistance)
			if len(kept) < minReads {
				continue
			}
			c := newCluster(kept, mates, maxMapQ, opts)
			if c.IsEmpty() || c.Support() < minReads {
				continue
			}
			reg.Add(c)
		}
	}
	reg.Dedupe()
	reg.TagCompeting()
	log.Debug.Printf("%v: %d reads, %d anchors, %d clusters", region, len(pool), len(anchors), reg.Len())
	return reg
}

// filterReads returns the usable reads that pass the insert-size filter,
// sorted, without duplicate IDs.
func filterReads(reads []Read, minISize map[string]int) []Read {
	pool := make([]Read, 0, len(reads))
	for _, rd := range reads {
		if usable(rd) && passesInsertSize(rd, minISize) {
			pool = append(pool, rd)
		}
	}
	sortReads(pool)
	seen := make(map[string]struct{}, len(pool))
	uniq := pool[:0]
	for _, rd := range pool {
		if _, ok := seen[rd.ID()]; ok {
			continue
		}
		seen[rd.ID()] = struct{}{}
		uniq = append(uniq, rd)
	}
	return uniq
}
