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

	farm "github.com/dgryski/go-farm"
	"github.com/grailbio/svevidence/interval"
)

// idPrefix starts every cluster ID.
const idPrefix = "dc"

// clusterID derives the cluster ID from its regions and orientation only, so
// that the same evidence gets the same ID in every run and in every worker.
// Reference names rather than header indices go into the hash so that IDs
// from BAMs with differently ordered headers agree.
func clusterID(reg1, reg2 interval.Region, o Orientation) string {
	key := fmt.Sprintf("%s:%d-%d%s|%s:%d-%d%s|%s",
		reg1.RefName, reg1.Start, reg1.End, reg1.Strand,
		reg2.RefName, reg2.Start, reg2.End, reg2.Strand,
		o)
	return fmt.Sprintf("%s%016x", idPrefix, farm.Fingerprint64([]byte(key)))
}
