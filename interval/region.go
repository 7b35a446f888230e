package interval

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/grailbio/hts/sam"
)

// PosType is the coordinate type of a Region.  BAM positions fit in an int32.
type PosType int32

// PosTypeMax is the largest representable position.
const PosTypeMax = math.MaxInt32

// Strand is the orientation attached to a Region.
type Strand byte

const (
	// StrandNone means the region carries no orientation.
	StrandNone Strand = '*'
	// StrandFwd is the forward (+) strand.
	StrandFwd Strand = '+'
	// StrandRev is the reverse (-) strand.
	StrandRev Strand = '-'
)

// String implements fmt.Stringer.
func (s Strand) String() string {
	if s == 0 {
		return string(StrandNone)
	}
	return string(s)
}

// Region is a genomic interval on one reference, with 0-based half-open
// coordinates.  The zero value is not empty-safe; use EmptyRegion.
type Region struct {
	// RefID is the reference index in the SAM header, or -1 if unset.
	RefID   int
	RefName string
	Start   PosType
	End     PosType
	Strand  Strand
}

// EmptyRegion returns the region that IsEmpty reports as empty and that
// overlaps nothing.
func EmptyRegion() Region {
	return Region{RefID: -1, Strand: StrandNone}
}

// NewRegion creates a region on ref covering [start, end).
func NewRegion(ref *sam.Reference, start, end int, strand Strand) Region {
	return Region{
		RefID:   ref.ID(),
		RefName: ref.Name(),
		Start:   PosType(start),
		End:     PosType(end),
		Strand:  strand,
	}
}

// IsEmpty returns true if the region has no reference or no bases.
func (r Region) IsEmpty() bool {
	return r.RefID < 0 || r.End <= r.Start
}

// Width returns the number of bases covered by the region.
func (r Region) Width() int {
	if r.IsEmpty() {
		return 0
	}
	return int(r.End - r.Start)
}

// Overlaps returns true iff r and o share at least one base.  Strands are
// ignored.
func (r Region) Overlaps(o Region) bool {
	if r.IsEmpty() || o.IsEmpty() || r.RefID != o.RefID {
		return false
	}
	return r.Start < o.End && o.Start < r.End
}

// Contains returns true iff pos lies in r on reference refID.
func (r Region) Contains(refID int, pos PosType) bool {
	return !r.IsEmpty() && r.RefID == refID && pos >= r.Start && pos < r.End
}

// Pad returns the region extended by n bases on each side, clipped at 0.
func (r Region) Pad(n int) Region {
	if r.IsEmpty() {
		return r
	}
	r.Start -= PosType(n)
	if r.Start < 0 {
		r.Start = 0
	}
	if int64(r.End)+int64(n) >= PosTypeMax {
		r.End = PosTypeMax - 1
	} else {
		r.End += PosType(n)
	}
	return r
}

// Compare returns a negative value, 0 or a positive value if r sorts before,
// equal to or after o.  Empty regions sort after all nonempty ones.  The order
// is (RefID, Start, End, Strand).
func (r Region) Compare(o Region) int {
	re, oe := r.IsEmpty(), o.IsEmpty()
	switch {
	case re && oe:
		return 0
	case re:
		return 1
	case oe:
		return -1
	}
	if r.RefID != o.RefID {
		return r.RefID - o.RefID
	}
	if r.Start != o.Start {
		return int(r.Start) - int(o.Start)
	}
	if r.End != o.End {
		return int(r.End) - int(o.End)
	}
	return int(r.Strand.normalize()) - int(o.Strand.normalize())
}

func (s Strand) normalize() Strand {
	if s == 0 {
		return StrandNone
	}
	return s
}

// String renders the region as "chr:start-end(strand)" with 1-based inclusive
// coordinates, or "empty".
func (r Region) String() string {
	if r.IsEmpty() {
		return "empty"
	}
	return fmt.Sprintf("%s:%d-%d(%s)", r.name(), r.Start+1, r.End, r.Strand)
}

func (r Region) name() string {
	if r.RefName != "" {
		return r.RefName
	}
	return strconv.Itoa(r.RefID)
}

// ParseRegionString parses a region string of one of the forms
//   [contig ID]:[1-based first pos]-[last pos]
//   [contig ID]:[1-based pos]
//   [contig ID]
// returning a Region with 0-based half-open boundaries.  When header is
// non-nil the contig is resolved to a reference ID; otherwise RefID is 0 and
// only RefName is meaningful.
func ParseRegionString(region string, header *sam.Header) (result Region, err error) {
	result = EmptyRegion()
	if len(region) == 0 {
		err = fmt.Errorf("interval.ParseRegionString: empty region string")
		return
	}
	colonPos := strings.LastIndexByte(region, ':')
	var start0, end int64
	if colonPos == -1 {
		result.RefName = region
		end = PosTypeMax - 1
	} else {
		if colonPos == 0 {
			err = fmt.Errorf("interval.ParseRegionString: empty contig ID")
			return
		}
		result.RefName = region[:colonPos]
		rangeStr := strings.Replace(region[colonPos+1:], ",", "", -1)
		dashPos := strings.IndexByte(rangeStr, '-')
		if dashPos == -1 {
			var pos1 int64
			if pos1, err = strconv.ParseInt(rangeStr, 10, 32); err != nil {
				return
			}
			if pos1 <= 0 {
				err = fmt.Errorf("interval.ParseRegionString: position %v in region string out of range", rangeStr)
				return
			}
			start0, end = pos1-1, pos1
		} else {
			var start1 int64
			if start1, err = strconv.ParseInt(rangeStr[:dashPos], 10, 32); err != nil {
				return
			}
			if start1 <= 0 {
				err = fmt.Errorf("interval.ParseRegionString: position %v in region string out of range", rangeStr[:dashPos])
				return
			}
			if end, err = strconv.ParseInt(rangeStr[dashPos+1:], 10, 64); err != nil {
				return
			}
			if end < start1 || end >= PosTypeMax {
				err = fmt.Errorf("interval.ParseRegionString: invalid range string %v", rangeStr)
				return
			}
			start0 = start1 - 1
		}
	}
	result.Start = PosType(start0)
	result.End = PosType(end)
	if header == nil {
		result.RefID = 0
		return
	}
	ref := findRef(header, result.RefName)
	if ref == nil {
		err = fmt.Errorf("interval.ParseRegionString: contig %s not found in header", result.RefName)
		return
	}
	result.RefID = ref.ID()
	if int(result.End) > ref.Len() {
		result.End = PosType(ref.Len())
	}
	return
}

func findRef(header *sam.Header, name string) *sam.Reference {
	for _, ref := range header.Refs() {
		if ref.Name() == name {
			return ref
		}
	}
	return nil
}

// Windows splits every reference in header into consecutive regions of at
// most width bases.
func Windows(header *sam.Header, width int) []Region {
	if width <= 0 {
		width = PosTypeMax - 1
	}
	var regions []Region
	for _, ref := range header.Refs() {
		for start := 0; start < ref.Len(); start += width {
			end := start + width
			if end > ref.Len() {
				end = ref.Len()
			}
			regions = append(regions, NewRegion(ref, start, end, StrandNone))
		}
	}
	return regions
}
