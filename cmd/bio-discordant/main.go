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
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/svevidence/discordant"
)

var (
	casePaths       = flag.String("case", "", "Comma-separated case (tumor) BAM paths. Samples are named t000, t001, ...")
	controlPaths    = flag.String("control", "", "Comma-separated control (normal) BAM paths. Samples are named n000, n001, ...")
	region          = flag.String("region", "", "Restrict clustering to the specified region. Format as <contig ID>:<1-based first pos>-<last pos>, <contig ID>:<1-based pos>, or just <contig ID>; can't be used with -bed")
	bedPath         = flag.String("bed", "", "Restrict clustering to the regions of this BED file; can't be used with -region")
	window          = flag.Int("window", discordant.DefaultRunOpts.WindowSize, "Interval width when neither -region nor -bed is set")
	outPath         = flag.String("out", "discordant.tsv", "Output TSV path; gzipped if it ends in .gz, block-gzipped if it ends in .bgz")
	minISizePath    = flag.String("min-isize", "", "TSV of sample<TAB>min_isize; innie pairs of a listed sample are discordant only if their separation exceeds it")
	defaultMinISize = flag.Int("default-min-isize", discordant.DefaultRunOpts.DefaultMinISize, "Separation innie pairs of samples missing from -min-isize must exceed")
	maxMapQ         = flag.Int("max-mapq", discordant.DefaultRunOpts.MaxMapQ, "Highest mapq reported by the aligner")
	proximity       = flag.Int("proximity", discordant.DefaultOpts.ProximityDistance, "Largest gap between adjacent reads of a cluster")
	hqFraction      = flag.Float64("hq-fraction", discordant.DefaultOpts.HighQualityFraction, "Fraction of -max-mapq a read and its mate need to count as high quality")
	minReads        = flag.Int("min-cluster-reads", discordant.DefaultOpts.MinClusterReads, "Minimum number of reads supporting a cluster")
	matePadding     = flag.Int("mate-padding", discordant.DefaultOpts.MatePadding, "Padding around the mate regions fetched for each interval")
	maxMateRegions  = flag.Int("max-mate-regions", discordant.DefaultOpts.MaxMateRegions, "Maximum number of mate regions fetched for each interval; 0 = no limit")
	parallelism     = flag.Int("parallelism", 0, "Maximum number of intervals processed at once; 0 = runtime.NumCPU()")
	withReads       = flag.Bool("with-reads", false, "List the supporting read IDs in the reads column")
)

func bioDiscordantUsage() {
	fmt.Printf("Usage: %s [OPTIONS] -case bampath[,bampath...] [-control bampath[,bampath...]]\n", os.Args[0])
	fmt.Printf("Other options:\n")
	flag.PrintDefaults()
}

func splitPaths(s string) []string {
	var paths []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}

func main() {
	flag.Usage = bioDiscordantUsage
	shutdown := grail.Init()
	defer shutdown()

	if flag.NArg() != 0 {
		log.Fatalf("Unexpected positional arguments; please check flag syntax: '%s'", strings.Join(flag.Args(), " "))
	}
	opts := discordant.DefaultRunOpts
	for i, p := range splitPaths(*casePaths) {
		opts.Inputs = append(opts.Inputs, discordant.Input{Path: p, Sample: fmt.Sprintf("t%03d", i)})
	}
	for i, p := range splitPaths(*controlPaths) {
		opts.Inputs = append(opts.Inputs, discordant.Input{Path: p, Sample: fmt.Sprintf("n%03d", i)})
	}
	if len(opts.Inputs) == 0 {
		log.Fatalf("-case or -control required")
	}
	opts.Region = *region
	opts.BEDPath = *bedPath
	opts.WindowSize = *window
	opts.OutputPath = *outPath
	opts.WithReads = *withReads
	opts.MinISizePath = *minISizePath
	opts.DefaultMinISize = *defaultMinISize
	opts.MaxMapQ = *maxMapQ
	opts.Parallelism = *parallelism
	opts.ProximityDistance = *proximity
	opts.HighQualityFraction = *hqFraction
	opts.MinClusterReads = *minReads
	opts.MatePadding = *matePadding
	opts.MaxMateRegions = *maxMateRegions
	opts.CasePrefix = "t"

	ctx := vcontext.Background()
	reg, err := discordant.Run(ctx, opts)
	if err != nil {
		log.Fatalf("%v", err)
	}
	log.Printf("wrote %d clusters to %s", reg.Len(), *outPath)
}
