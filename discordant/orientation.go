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
	"github.com/grailbio/base/log"
	"github.com/grailbio/svevidence/interval"
)

// Orientation is the strand combination of a read and its mate.  It limits
// the kind of rearrangement a cluster can support: same-strand pairs come
// from inversions, an FR pair whose reverse end lies upstream of the
// forward end from a tandem duplication, and so on.
type Orientation uint8

const (
	// FF is read forward, mate forward.
	FF Orientation = iota
	// FR is read forward, mate reverse.
	FR
	// RF is read reverse, mate forward.
	RF
	// RR is read reverse, mate reverse.
	RR
	numOrientations = 4
)

var orientationNames = [numOrientations]string{"FF", "FR", "RF", "RR"}

// String implements fmt.Stringer.
func (o Orientation) String() string {
	if int(o) >= numOrientations {
		return "??"
	}
	return orientationNames[o]
}

func orientationPair(reversed, mateReversed bool) Orientation {
	if reversed {
		if mateReversed {
			return RR
		}
		return RF
	}
	if mateReversed {
		return FR
	}
	return FF
}

// orientationFromStrands returns the class for a (reg1, reg2) strand pair.
func orientationFromStrands(s1, s2 interval.Strand) Orientation {
	if s1 == interval.StrandNone || s2 == interval.StrandNone {
		log.Panicf("orientationFromStrands: strandless region (%v, %v)", s1, s2)
	}
	return orientationPair(s1 == interval.StrandRev, s2 == interval.StrandRev)
}

// Mirror returns the orientation seen from the mate's side.
func (o Orientation) Mirror() Orientation {
	switch o {
	case FR:
		return RF
	case RF:
		return FR
	}
	return o
}

// ReadStrand returns the strand of the anchor side.
func (o Orientation) ReadStrand() interval.Strand {
	if o == RF || o == RR {
		return interval.StrandRev
	}
	return interval.StrandFwd
}

// MateStrand returns the strand of the mate side.
func (o Orientation) MateStrand() interval.Strand {
	if o == FR || o == RR {
		return interval.StrandRev
	}
	return interval.StrandFwd
}
