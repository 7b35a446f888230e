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

/*Package discordant clusters discordant read pairs into two-sided evidence
  clusters for structural-variant callers.

  ClusterReads takes the reads of one interval.  Reads that start in the
  interval are split by orientation class (FF, FR, RF, RR) and grouped by
  position; the mates of each group are looked up in the same read pile and
  grouped the same way, and the largest mate group becomes the other side of
  the cluster.  Cluster IDs depend only on the two regions and the
  orientation.

  Run drives ClusterReads over BAM inputs, one interval per worker, and writes
  the merged clusters as TSV.
*/
package discordant
