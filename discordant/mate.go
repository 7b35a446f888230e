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
	"blainsmith.com/go/seahash"
	"github.com/grailbio/base/unsafe"
)

// mateIndex finds reads by ID.  Reads are bucketed by the seahash of their
// ID, so the index holds no copies of the names; collisions are resolved by
// comparing IDs.
type mateIndex struct {
	buckets map[uint64][]Read
}

func hashID(id string) uint64 {
	return seahash.Sum64(unsafe.StringToBytes(id))
}

func newMateIndex(pool []Read) *mateIndex {
	m := &mateIndex{buckets: make(map[uint64][]Read, len(pool))}
	for _, r := range pool {
		h := hashID(r.ID())
		m.buckets[h] = append(m.buckets[h], r)
	}
	return m
}

// mate returns the read whose ID is r.MateID().
func (m *mateIndex) mate(r Read) (Read, bool) {
	id := r.MateID()
	for _, c := range m.buckets[hashID(id)] {
		if c.ID() == id {
			return c, true
		}
	}
	return Read{}, false
}

// resolveMates looks up the mates of anchors in idx, clusters them, and
// picks the mate cluster with the most members; ties go to the cluster with
// the lowest coordinate.  It returns the anchors that stay with the cluster
// (those paired with the winning mate cluster, plus those whose mate was not
// found) and the winning mate cluster.  mates is nil when no mate was found.
func resolveMates(anchors readCluster, idx *mateIndex, proximity int) (kept, mates readCluster) {
	var found []Read
	for _, a := range anchors {
		if m, ok := idx.mate(a); ok {
			found = append(found, m)
		}
	}
	if len(found) == 0 {
		return anchors, nil
	}
	var best readCluster
	for _, clusters := range clusterByOrientation(found, proximity) {
		for _, c := range clusters {
			if len(c) > len(best) || (len(c) == len(best) && c.span().Compare(best.span()) < 0) {
				best = c
			}
		}
	}
	inBest := make(map[string]bool, len(best))
	for _, m := range best {
		inBest[m.ID()] = true
	}
	kept = make(readCluster, 0, len(anchors))
	for _, a := range anchors {
		if _, ok := idx.mate(a); !ok || inBest[a.MateID()] {
			kept = append(kept, a)
		}
	}
	return kept, best
}
