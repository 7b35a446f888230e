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

// Opts holds the tuning constants of the clustering engine.
type Opts struct {
	// ProximityDistance is the largest gap, in bases, allowed between two
	// position-adjacent reads of the same cluster.  It should be close to the
	// fragment-size spread of the library.
	ProximityDistance int
	// MinClusterReads is the minimum number of supporting reads a cluster needs
	// to be reported.  Smaller clusters are treated as noise.
	MinClusterReads int
	// HighQualityFraction sets the mapq cutoff of the *_hq counts, as a
	// fraction of the max possible mapq.  A read counts as high quality iff both
	// it and its mate reach ceil(HighQualityFraction * maxMapQ).
	HighQualityFraction float64
	// CasePrefix classifies samples: a sample whose name starts with CasePrefix
	// counts towards tcount, any other sample towards ncount.
	CasePrefix string
	// MatePadding is added on both sides of the regions returned by
	// MateRegions.
	MatePadding int
	// MaxMateRegions caps the number of mate regions fetched per interval.
	// Regions with the most support are kept. 0 means no limit.
	MaxMateRegions int
}

// DefaultOpts sets the default values to Opts.  ProximityDistance and
// HighQualityFraction are provisional and should be calibrated per library.
var DefaultOpts = Opts{
	ProximityDistance:   400,
	MinClusterReads:     2,
	HighQualityFraction: 1.0,
	CasePrefix:          "t",
	MatePadding:         500,
	MaxMateRegions:      50,
}

func (o *Opts) minReads() int {
	if o.MinClusterReads < 1 {
		return 1
	}
	return o.MinClusterReads
}
