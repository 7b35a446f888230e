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
	"testing"

	"github.com/grailbio/hts/sam"
	"github.com/grailbio/svevidence/interval"
	"github.com/grailbio/testutil/expect"
)

func TestReadIDs(t *testing.T) {
	r1, r2 := newPair("t000", "frag", fwd(chr1, 1000), rev(chr2, 5000))
	expect.EQ(t, r1.ID(), "t000_frag_1")
	expect.EQ(t, r1.MateID(), "t000_frag_2")
	expect.EQ(t, r2.ID(), "t000_frag_2")
	expect.EQ(t, r2.MateID(), r1.ID())
	expect.EQ(t, r1.FragmentID(), r2.FragmentID())

	// The same qname in two samples is two different reads.
	n1, _ := newPair("n000", "frag", fwd(chr1, 1000), rev(chr2, 5000))
	expect.NEQ(t, n1.ID(), r1.ID())
}

func TestReadStrandsAndOrientation(t *testing.T) {
	tests := []struct {
		e1, e2 end
		o1, o2 Orientation
	}{
		{fwd(chr1, 100), rev(chr2, 500), FR, RF},
		{fwd(chr1, 100), fwd(chr2, 500), FF, FF},
		{rev(chr1, 100), rev(chr2, 500), RR, RR},
		{rev(chr1, 100), fwd(chr1, 500), RF, FR},
	}
	for _, test := range tests {
		r1, r2 := newPair("t000", "x", test.e1, test.e2)
		expect.EQ(t, r1.Orientation(), test.o1)
		expect.EQ(t, r2.Orientation(), test.o2)
		expect.EQ(t, r1.Orientation().Mirror(), r2.Orientation())
		expect.EQ(t, r1.MateStrand(), r2.Strand())
	}
	expect.EQ(t, FR.ReadStrand(), interval.StrandFwd)
	expect.EQ(t, FR.MateStrand(), interval.StrandRev)
	expect.EQ(t, orientationFromStrands(interval.StrandRev, interval.StrandFwd), RF)
	expect.EQ(t, RR.String(), "RR")
}

func TestReadMateMapQ(t *testing.T) {
	e1, e2 := fwd(chr1, 100), rev(chr2, 500)
	e2.mapq = 17
	r1, r2 := newPair("t000", "x", e1, e2)
	expect.EQ(t, r1.MateMapQ(), 17)
	expect.EQ(t, r2.MapQ(), 17)
	expect.EQ(t, r2.MateMapQ(), 60)

	r1.Record.AuxFields = nil
	expect.EQ(t, r1.MateMapQ(), -1)
}

func TestReadInnieAndSeparation(t *testing.T) {
	r1, r2 := newPair("t000", "x", fwd(chr1, 1000), rev(chr1, 1400))
	expect.True(t, r1.Innie())
	expect.True(t, r2.Innie())
	expect.EQ(t, r1.Separation(), 500)
	expect.EQ(t, r2.Separation(), 500)

	// Outie: reverse end upstream of the forward end.
	o1, _ := newPair("t000", "y", rev(chr1, 1000), fwd(chr1, 1400))
	expect.False(t, o1.Innie())

	// Without TLEN the separation comes from the positions.
	r1.Record.TempLen = 0
	expect.EQ(t, r1.Separation(), 500)

	x1, _ := newPair("t000", "z", fwd(chr1, 1000), rev(chr2, 1400))
	expect.False(t, x1.Innie())
	expect.True(t, x1.Interchromosomal())
	expect.EQ(t, x1.Separation(), -1)
}

func TestIsDiscordantCandidate(t *testing.T) {
	short, _ := newPair("t000", "short", fwd(chr1, 1000), rev(chr1, 1400))
	long, _ := newPair("t000", "long", fwd(chr1, 1000), rev(chr1, 5000))
	inter, _ := newPair("t000", "inter", fwd(chr1, 1000), rev(chr2, 1400))
	inv, _ := newPair("t000", "inv", fwd(chr1, 1000), fwd(chr1, 1400))

	expect.False(t, IsDiscordantCandidate(short, nil, 1000))
	expect.True(t, IsDiscordantCandidate(long, nil, 1000))
	expect.True(t, IsDiscordantCandidate(inter, nil, 1000))
	expect.True(t, IsDiscordantCandidate(inv, nil, 1000))
	expect.True(t, IsDiscordantCandidate(short, map[string]int{"t000": 300}, 1000))
	expect.False(t, IsDiscordantCandidate(long, nil, 0))
	// The separation must exceed the minimum.
	expect.False(t, IsDiscordantCandidate(short, map[string]int{"t000": 500}, 1000))
	expect.True(t, IsDiscordantCandidate(short, map[string]int{"t000": 499}, 1000))

	dup, _ := newPair("t000", "dup", fwd(chr1, 1000), rev(chr2, 1400))
	dup.Record.Flags |= sam.Duplicate
	expect.False(t, IsDiscordantCandidate(dup, nil, 1000))
	unpaired, _ := newPair("t000", "unpaired", fwd(chr1, 1000), rev(chr2, 1400))
	unpaired.Record.Flags &^= sam.Paired
	expect.False(t, IsDiscordantCandidate(unpaired, nil, 1000))
}
