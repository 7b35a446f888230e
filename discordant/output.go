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
	"io"
	"strconv"
	"strings"

	"github.com/grailbio/base/tsv"
	"github.com/grailbio/svevidence/interval"
)

var headerColumns = []string{
	"chr1", "pos1", "strand1",
	"chr2", "pos2", "strand2",
	"tcount", "ncount", "tcount_hq", "ncount_hq",
	"mapq1", "mapq2",
	"cname", "region_string", "reads", "competing_id",
}

// Header returns the tab-separated column names of FileString, without a
// newline.
func Header() string {
	return strings.Join(headerColumns, "\t")
}

func appendRegionColumns(cols []string, r interval.Region) []string {
	if r.IsEmpty() {
		return append(cols, "", "", "")
	}
	return append(cols, r.RefName, strconv.Itoa(int(r.Start)+1), r.Strand.String())
}

// columns returns the fields of the cluster's row.  pos1 and pos2 are
// 1-based.  The reads column lists the anchor then the mate read IDs when
// withReads is set, and is empty otherwise.
func (c *Cluster) columns(withReads bool) []string {
	cols := make([]string, 0, len(headerColumns))
	cols = appendRegionColumns(cols, c.reg1)
	cols = appendRegionColumns(cols, c.reg2)
	cols = append(cols,
		strconv.Itoa(c.tcount), strconv.Itoa(c.ncount),
		strconv.Itoa(c.tcountHQ), strconv.Itoa(c.ncountHQ),
		strconv.Itoa(c.mapq1), strconv.Itoa(c.mapq2),
		c.contig, c.RegionString())
	reads := ""
	if withReads {
		reads = strings.Join(append(c.ReadIDs(), c.MateIDs()...), ",")
	}
	return append(cols, reads, c.idCompeting)
}

// FileString renders the cluster as one row under Header, without a
// newline.
func (c *Cluster) FileString(withReads bool) string {
	return strings.Join(c.columns(withReads), "\t")
}

// RegionString renders only the two regions, e.g.
// "chr1:1001-1150(+)|chr2:5001-5150(-)".
func (c *Cluster) RegionString() string {
	return c.reg1.String() + "|" + c.reg2.String()
}

// String implements fmt.Stringer.
func (c *Cluster) String() string {
	return fmt.Sprintf("%s %s %v t=%d n=%d mapq=%d/%d", c.id, c.RegionString(), c.orientation, c.tcount, c.ncount, c.mapq1, c.mapq2)
}

// WriteTSV writes the header followed by one row per cluster.
func WriteTSV(w io.Writer, clusters []*Cluster, withReads bool) error {
	tsvw := tsv.NewWriter(w)
	for _, col := range headerColumns {
		tsvw.WriteString(col)
	}
	if err := tsvw.EndLine(); err != nil {
		return err
	}
	for _, c := range clusters {
		for _, col := range c.columns(withReads) {
			tsvw.WriteString(col)
		}
		if err := tsvw.EndLine(); err != nil {
			return err
		}
	}
	return tsvw.Flush()
}
