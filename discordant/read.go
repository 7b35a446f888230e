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
	"github.com/grailbio/hts/sam"
	"github.com/grailbio/svevidence/interval"
)

// unusableFlags marks records that never take part in read-pair evidence.
const unusableFlags = sam.Unmapped | sam.MateUnmapped | sam.Secondary | sam.Supplementary | sam.QCFail | sam.Duplicate

var mqTag = sam.NewTag("MQ")

// Read is an aligned read together with the sample it was drawn from.  The
// underlying record must not be modified while the Read is in use.
type Read struct {
	Record *sam.Record
	Sample string
	id     string
}

// NewRead wraps r.
func NewRead(r *sam.Record, sample string) Read {
	rd := Read{Record: r, Sample: sample}
	rd.id = rd.makeID(false)
	return rd
}

func pairEnd(flags sam.Flags, mate bool) byte {
	isRead1 := flags&sam.Read1 != 0
	isRead2 := flags&sam.Read2 != 0
	if mate {
		isRead1, isRead2 = isRead2, isRead1
	}
	switch {
	case isRead1:
		return '1'
	case isRead2:
		return '2'
	}
	return '0'
}

func (r Read) makeID(mate bool) string {
	buf := make([]byte, 0, len(r.Sample)+len(r.Record.Name)+3)
	buf = append(buf, r.Sample...)
	buf = append(buf, '_')
	buf = append(buf, r.Record.Name...)
	buf = append(buf, '_', pairEnd(r.Record.Flags, mate))
	return string(buf)
}

// ID identifies the read uniquely across samples and pair ends, as
// "<sample>_<qname>_<1|2>".
func (r Read) ID() string {
	if r.id == "" {
		return r.makeID(false)
	}
	return r.id
}

// MateID returns the ID carried by the read's mate.
func (r Read) MateID() string {
	return r.makeID(true)
}

// FragmentID is shared by both ends of a pair.
func (r Read) FragmentID() string {
	return r.Sample + "_" + r.Record.Name
}

// RefID returns the reference of the alignment.
func (r Read) RefID() int { return r.Record.Ref.ID() }

// Pos returns the 0-based alignment start.
func (r Read) Pos() int { return r.Record.Pos }

// End returns the 0-based exclusive alignment end.
func (r Read) End() int {
	if end := r.Record.End(); end > r.Record.Pos {
		return end
	}
	return r.Record.Pos + 1
}

// MateRefID returns the reference of the mate alignment.
func (r Read) MateRefID() int { return r.Record.MateRef.ID() }

// MatePos returns the 0-based alignment start of the mate.
func (r Read) MatePos() int { return r.Record.MatePos }

// Reversed is true if the read aligns to the reverse strand.
func (r Read) Reversed() bool { return r.Record.Flags&sam.Reverse != 0 }

// MateReversed is true if the mate aligns to the reverse strand.
func (r Read) MateReversed() bool { return r.Record.Flags&sam.MateReverse != 0 }

// Strand returns the strand of the read.
func (r Read) Strand() interval.Strand {
	if r.Reversed() {
		return interval.StrandRev
	}
	return interval.StrandFwd
}

// MateStrand returns the strand of the mate.
func (r Read) MateStrand() interval.Strand {
	if r.MateReversed() {
		return interval.StrandRev
	}
	return interval.StrandFwd
}

// Orientation returns the orientation class of the pair, seen from this read.
func (r Read) Orientation() Orientation {
	return orientationPair(r.Reversed(), r.MateReversed())
}

// MapQ returns the mapping quality of the read.
func (r Read) MapQ() int { return int(r.Record.MapQ) }

// MateMapQ returns the mapping quality of the mate as recorded in the MQ aux
// tag, or -1 if the tag is absent.
func (r Read) MateMapQ() int {
	aux, ok := r.Record.Tag(mqTag[:])
	if !ok {
		return -1
	}
	switch v := aux.Value().(type) {
	case uint8:
		return int(v)
	case int8:
		return int(v)
	case uint16:
		return int(v)
	case int16:
		return int(v)
	case uint32:
		return int(v)
	case int32:
		return int(v)
	}
	return -1
}

// Interchromosomal is true if the mate aligns to another reference.
func (r Read) Interchromosomal() bool {
	return r.RefID() != r.MateRefID()
}

// Innie is true for a same-reference pair whose leftmost end is forward and
// whose rightmost end is reverse.  This is the layout of a normal fragment,
// for which only the separation can indicate a rearrangement.
func (r Read) Innie() bool {
	if r.Interchromosomal() || r.Reversed() == r.MateReversed() {
		return false
	}
	if r.Reversed() {
		return r.Pos() >= r.MatePos()
	}
	return r.Pos() <= r.MatePos()
}

// Separation returns the fragment length: |TLEN| when the aligner set it, or
// an estimate from the two alignment starts and the read length.  It returns
// -1 for interchromosomal pairs.
func (r Read) Separation() int {
	if r.Interchromosomal() {
		return -1
	}
	if tlen := r.Record.TempLen; tlen != 0 {
		if tlen < 0 {
			return -tlen
		}
		return tlen
	}
	d := r.MatePos() - r.Pos()
	if d < 0 {
		d = -d
	}
	return d + (r.End() - r.Pos())
}

// usable is true for mapped, primary, paired reads with a mapped mate.
func usable(r Read) bool {
	flags := r.Record.Flags
	return flags&sam.Paired != 0 && flags&unusableFlags == 0 && r.Record.Ref != nil && r.Record.MateRef != nil
}

// passesInsertSize applies the per-sample minimum insert size: an innie pair
// is kept only if its separation exceeds the minimum.  Samples without an
// entry in minISize are not filtered.
func passesInsertSize(r Read, minISize map[string]int) bool {
	if !r.Innie() {
		return true
	}
	min, ok := minISize[r.Sample]
	if !ok {
		return true
	}
	return r.Separation() > min
}

// IsDiscordantCandidate reports whether r may carry rearrangement evidence:
// its mate is on another reference, or the pair is not an innie, or the
// separation exceeds the sample's minimum insert size (minISize[sample],
// defaulting to defaultMinISize).  Innie pairs are never candidates when the
// applicable minimum is not positive.
func IsDiscordantCandidate(r Read, minISize map[string]int, defaultMinISize int) bool {
	if !usable(r) {
		return false
	}
	if !r.Innie() {
		return true
	}
	min, ok := minISize[r.Sample]
	if !ok {
		min = defaultMinISize
	}
	return min > 0 && r.Separation() > min
}
