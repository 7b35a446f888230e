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

/*
Given case (tumor) and optional control (normal) BAMs, bio-discordant groups
discordant read pairs into evidence clusters: pairs of genomic regions linked
by reads whose mates align to the other region.  Each cluster is reported with
its per-class read counts, mean mapping qualities and, optionally, the IDs of
the supporting reads.

Intervals are processed in parallel.  For each interval, the reads starting in
it are clustered by position and orientation, and their mates are fetched from
wherever they align.  The same evidence found from both sides is reported
once.

Sample usage:
bio-discordant \
    --case tumor.bam \
    --control normal.bam \
    --min-isize isize.tsv \
    --out clusters.tsv.gz

The output has one header line and one row per cluster:

  chr1 pos1 strand1 chr2 pos2 strand2 tcount ncount tcount_hq ncount_hq
  mapq1 mapq2 cname region_string reads competing_id

pos1 and pos2 are 1-based.  competing_id names a cluster that spans the same
regions with a different orientation.
*/
package main
