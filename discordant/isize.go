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
	"context"
	"io"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/tsv"
	"github.com/pkg/errors"
)

type minISizeRow struct {
	Sample   string
	MinISize int
}

// ParseMinInsertSizes reads a headerless table of "sample<TAB>min_isize"
// rows.  Lines starting with '#' are skipped.
func ParseMinInsertSizes(in io.Reader) (map[string]int, error) {
	r := tsv.NewReader(in)
	r.Comment = '#'
	r.FieldsPerRecord = 2

	m := map[string]int{}
	for {
		var row minISizeRow
		if err := r.Read(&row); err != nil {
			if err == io.EOF {
				break
			}
			return nil, errors.Wrap(err, "min insert sizes")
		}
		if row.MinISize < 0 {
			return nil, errors.Errorf("sample %s: negative insert size %d", row.Sample, row.MinISize)
		}
		if _, ok := m[row.Sample]; ok {
			return nil, errors.Errorf("duplicate sample %s", row.Sample)
		}
		m[row.Sample] = row.MinISize
	}
	return m, nil
}

// LoadMinInsertSizes reads the per-sample minimum insert sizes from path.
func LoadMinInsertSizes(ctx context.Context, path string) (m map[string]int, err error) {
	var in file.File
	if in, err = file.Open(ctx, path); err != nil {
		return nil, err
	}
	defer file.CloseAndReport(ctx, in, &err)
	if m, err = ParseMinInsertSizes(in.Reader(ctx)); err != nil {
		return nil, errors.Wrap(err, path)
	}
	return m, nil
}
