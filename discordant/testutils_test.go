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
	"fmt"

	"github.com/grailbio/hts/sam"
)

var (
	chr1, _       = sam.NewReference("chr1", "", "", 100000, nil, nil)
	chr2, _       = sam.NewReference("chr2", "", "", 100000, nil, nil)
	chr3, _       = sam.NewReference("chr3", "", "", 100000, nil, nil)
	testHeader, _ = sam.NewHeader(nil, []*sam.Reference{chr1, chr2, chr3})
)

const readLen = 100

func newAux(name string, val interface{}) sam.Aux {
	aux, err := sam.NewAux(sam.NewTag(name), val)
	if err != nil {
		panic(fmt.Sprintf("error creating %s %v tag: %v", name, val, err))
	}
	return aux
}

func newRecord(name string, ref *sam.Reference, pos int, flags sam.Flags, mateRef *sam.Reference, matePos int, mapq, mateMapQ int) *sam.Record {
	r := sam.GetFromFreePool()
	r.Name = name
	r.Ref = ref
	r.Pos = pos
	r.MateRef = mateRef
	r.MatePos = matePos
	r.Flags = flags
	r.MapQ = byte(mapq)
	r.Cigar = []sam.CigarOp{sam.NewCigarOp(sam.CigarMatch, readLen)}
	r.AuxFields = []sam.Aux{newAux("MQ", uint8(mateMapQ))}
	return r
}

// end describes one end of a test pair.
type end struct {
	ref  *sam.Reference
	pos  int
	rev  bool
	mapq int
}

func fwd(ref *sam.Reference, pos int) end { return end{ref: ref, pos: pos, mapq: 60} }
func rev(ref *sam.Reference, pos int) end { return end{ref: ref, pos: pos, rev: true, mapq: 60} }

// newPairRecords creates the two records of a pair, read 1 at e1 and read 2
// at e2.  TLEN is set for same-reference pairs.
func newPairRecords(name string, e1, e2 end) (*sam.Record, *sam.Record) {
	flags := func(self, mate end, which sam.Flags) sam.Flags {
		f := sam.Paired | which
		if self.rev {
			f |= sam.Reverse
		}
		if mate.rev {
			f |= sam.MateReverse
		}
		return f
	}
	r1 := newRecord(name, e1.ref, e1.pos, flags(e1, e2, sam.Read1), e2.ref, e2.pos, e1.mapq, e2.mapq)
	r2 := newRecord(name, e2.ref, e2.pos, flags(e2, e1, sam.Read2), e1.ref, e1.pos, e2.mapq, e1.mapq)
	if e1.ref == e2.ref {
		left, right := e1.pos, e2.pos+readLen
		if e2.pos < e1.pos {
			left, right = e2.pos, e1.pos+readLen
		}
		tlen := right - left
		if e1.pos <= e2.pos {
			r1.TempLen, r2.TempLen = tlen, -tlen
		} else {
			r1.TempLen, r2.TempLen = -tlen, tlen
		}
	}
	return r1, r2
}

func newPair(sample, name string, e1, e2 end) (Read, Read) {
	r1, r2 := newPairRecords(name, e1, e2)
	return NewRead(r1, sample), NewRead(r2, sample)
}

// pairs creates n pairs whose first ends start at e1.pos, e1.pos+step, ... and
// whose second ends start at e2.pos, e2.pos+step, ...  Both ends of every
// pair are returned.
func pairs(sample, prefix string, n, step int, e1, e2 end) []Read {
	var reads []Read
	for i := 0; i < n; i++ {
		a, b := e1, e2
		a.pos += i * step
		b.pos += i * step
		r1, r2 := newPair(sample, fmt.Sprintf("%s%d", prefix, i), a, b)
		reads = append(reads, r1, r2)
	}
	return reads
}

// firstEnds returns the read-1 ends of reads.
func firstEnds(reads []Read) []Read {
	var out []Read
	for _, r := range reads {
		if r.Record.Flags&sam.Read1 != 0 {
			out = append(out, r)
		}
	}
	return out
}

// secondEnds returns the read-2 ends of reads.
func secondEnds(reads []Read) []Read {
	var out []Read
	for _, r := range reads {
		if r.Record.Flags&sam.Read2 != 0 {
			out = append(out, r)
		}
	}
	return out
}
