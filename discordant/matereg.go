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

type mateGroup struct {
	region  interval.Region
	support int
}

// MateRegions returns the regions outside region that hold the mates of
// clustered anchors, so that the mates can be fetched before ClusterReads.
// Mate positions of the anchors in region are clustered like reads; groups
// with at least MinClusterReads mates are padded by MatePadding.  At most
// MaxMateRegions regions are returned, preferring the best supported, merged
// and sorted.
func MateRegions(reads []Read, region interval.Region, opts *Opts) []interval.Region {
	if opts == nil {
		opts = &DefaultOpts
	}
	var anchors []Read
	for _, r := range reads {
		if !usable(r) || !region.Contains(r.RefID(), interval.PosType(r.Pos())) {
			continue
		}
		if region.Contains(r.MateRefID(), interval.PosType(r.MatePos())) {
			continue
		}
		anchors = append(anchors, r)
	}
	sort.SliceStable(anchors, func(i, j int) bool {
		a, b := anchors[i], anchors[j]
		if a.MateRefID() != b.MateRefID() {
			return a.MateRefID() < b.MateRefID()
		}
		if a.MatePos() != b.MatePos() {
			return a.MatePos() < b.MatePos()
		}
		return a.ID() < b.ID()
	})

	var groups []mateGroup
	flush := func(g []Read) {
		if len(g) < opts.minReads() {
			return
		}
		ref := g[0].Record.MateRef
		// Mates are at most one read length past the last mate start; the
		// padding covers it.
		reg := interval.NewRegion(ref, g[0].MatePos(), g[len(g)-1].MatePos()+1, interval.StrandNone)
		groups = append(groups, mateGroup{region: reg.Pad(opts.MatePadding), support: len(g)})
	}
	var cur []Read
	for _, r := range anchors {
		if n := len(cur); n > 0 {
			last := cur[n-1]
			if r.MateRefID() != last.MateRefID() || r.MatePos()-last.MatePos() > opts.ProximityDistance {
				flush(cur)
				cur = nil
			}
		}
		cur = append(cur, r)
	}
	flush(cur)

	if opts.MaxMateRegions > 0 && len(groups) > opts.MaxMateRegions {
		sort.SliceStable(groups, func(i, j int) bool {
			if groups[i].support != groups[j].support {
				return groups[i].support > groups[j].support
			}
			return groups[i].region.Compare(groups[j].region) < 0
		})
		groups = groups[:opts.MaxMateRegions]
	}
	regions := make([]interval.Region, len(groups))
	for i, g := range groups {
		regions[i] = g.region
	}
	return interval.MergeRegions(regions)
}
