package interval

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/fileio"
	"github.com/grailbio/base/log"
	gunsafe "github.com/grailbio/base/unsafe"
	"github.com/grailbio/hts/sam"
	"github.com/klauspost/compress/gzip"
)

// getTokens identifies up to the first len(tokens) tokens from curLine,
// returning the number of tokens saved.  Any (group of) characters <= ' ' is
// treated as a delimiter.
func getTokens(tokens [][]byte, curLine []byte) int {
	posEnd := 0
	lineLen := len(curLine)
	for tokenIdx := range tokens {
		pos := posEnd
		for ; pos != lineLen; pos++ {
			if curLine[pos] > ' ' {
				break
			}
		}
		if pos == lineLen {
			return tokenIdx
		}
		posEnd = pos
		for ; posEnd != lineLen; posEnd++ {
			if curLine[posEnd] <= ' ' {
				break
			}
		}
		tokens[tokenIdx] = curLine[pos:posEnd]
	}
	return len(tokens)
}

// LoadRegionsOpts defines behavior of LoadRegions.
type LoadRegionsOpts struct {
	// SAMHeader resolves chromosome names to reference IDs, and drives the
	// output order.  Chromosomes absent from the header are skipped with a
	// warning.  If nil, RefIDs are assigned in order of first appearance.
	SAMHeader *sam.Header
	// OneBasedInput interprets the BED interval boundaries as one-based [start,
	// end] instead of the usual zero-based [start, end).
	OneBasedInput bool
}

// ReadRegions loads the first three columns of a BED stream.  Touching and
// overlapping intervals on the same chromosome are merged and empty ones are
// dropped.  The result is sorted by (RefID, Start).
func ReadRegions(reader io.Reader, opts LoadRegionsOpts) ([]Region, error) {
	scanner := bufio.NewScanner(reader)
	var tokens [3][]byte
	byName := map[string]int{}
	var names []string
	if opts.SAMHeader != nil {
		for _, ref := range opts.SAMHeader.Refs() {
			byName[ref.Name()] = ref.ID()
		}
	}
	var regions []Region
	skipped := map[string]bool{}
	lineIdx := 0
	for scanner.Scan() {
		lineIdx++
		line := scanner.Bytes()
		n := getTokens(tokens[:], line)
		// Blank lines, comments and "track"/"browser" headers are ignored.
		if n == 0 || tokens[0][0] == '#' || string(tokens[0]) == "track" || string(tokens[0]) == "browser" {
			continue
		}
		if n != 3 {
			return nil, fmt.Errorf("interval.ReadRegions: line %d has fewer than three columns", lineIdx)
		}
		chrName := gunsafe.BytesToString(tokens[0])
		start, err := strconv.Atoi(gunsafe.BytesToString(tokens[1]))
		if err != nil {
			return nil, fmt.Errorf("interval.ReadRegions: line %d: %v", lineIdx, err)
		}
		end, err := strconv.Atoi(gunsafe.BytesToString(tokens[2]))
		if err != nil {
			return nil, fmt.Errorf("interval.ReadRegions: line %d: %v", lineIdx, err)
		}
		if opts.OneBasedInput {
			start--
		}
		if start < 0 || end < start || end >= PosTypeMax {
			return nil, fmt.Errorf("interval.ReadRegions: line %d: invalid coordinate pair [%d, %d)", lineIdx, start, end)
		}
		if end == start {
			continue
		}
		refID, ok := byName[chrName]
		if !ok {
			if opts.SAMHeader != nil {
				if !skipped[chrName] {
					log.Printf("interval.ReadRegions: chromosome %s not in header, skipping", chrName)
					skipped[chrName] = true
				}
				continue
			}
			// The scanner reuses its buffer, so the name must be copied.
			chrName = string(tokens[0])
			refID = len(names)
			byName[chrName] = refID
			names = append(names, chrName)
		} else if opts.SAMHeader == nil {
			chrName = names[refID]
		} else {
			chrName = opts.SAMHeader.Refs()[refID].Name()
		}
		regions = append(regions, Region{
			RefID:   refID,
			RefName: chrName,
			Start:   PosType(start),
			End:     PosType(end),
			Strand:  StrandNone,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	merged := MergeRegions(regions)
	totBases := 0
	for _, r := range merged {
		totBases += r.Width()
	}
	log.Printf("BED loaded, %d interval(s), %d base(s) covered.", len(merged), totBases)
	return merged, nil
}

// MergeRegions sorts regions and merges those that touch or overlap on the
// same reference.  Strands are dropped.
func MergeRegions(regions []Region) []Region {
	sorted := make([]Region, 0, len(regions))
	for _, r := range regions {
		if !r.IsEmpty() {
			r.Strand = StrandNone
			sorted = append(sorted, r)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Compare(sorted[j]) < 0 })
	var merged []Region
	for _, r := range sorted {
		if n := len(merged); n > 0 && merged[n-1].RefID == r.RefID && r.Start <= merged[n-1].End {
			if r.End > merged[n-1].End {
				merged[n-1].End = r.End
			}
			continue
		}
		merged = append(merged, r)
	}
	return merged
}

// LoadRegions is a wrapper for ReadRegions that takes a path instead of an
// io.Reader.  Gzipped BED files are detected from the path.
func LoadRegions(ctx context.Context, path string, opts LoadRegionsOpts) (regions []Region, err error) {
	var infile file.File
	if infile, err = file.Open(ctx, path); err != nil {
		return
	}
	defer func() {
		if cerr := infile.Close(ctx); cerr != nil && err == nil {
			err = cerr
		}
	}()
	reader := io.Reader(infile.Reader(ctx))
	switch fileio.DetermineType(path) {
	case fileio.Gzip:
		var gz *gzip.Reader
		if gz, err = gzip.NewReader(reader); err != nil {
			return
		}
		defer gz.Close()
		reader = gz
	}
	return ReadRegions(reader, opts)
}
