// Copyright 2026 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package dataset

import (
	"bufio"
	"io"
	"strconv"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/gorse-io/ltr/base"
	"github.com/juju/errors"
	"github.com/samber/lo"
)

// GroupedDataset is a flat feature matrix partitioned into contiguous query groups. Rows of
// group i occupy [offsets[i], offsets[i+1]). The partition is only extended through
// AppendGroup, so sum(group sizes) == number of rows holds by construction.
type GroupedDataset struct {
	featureNames []string
	userIds      []int64
	itemIds      []int64
	features     [][]float32
	labels       []int
	offsets      []int
}

// Group is a view of one query group.
type Group struct {
	UserId   int64
	ItemIds  []int64
	Features [][]float32
	Labels   []int
}

// MaxLabel returns the largest label in the group.
func (g Group) MaxLabel() int {
	return lo.Max(g.Labels)
}

func NewGroupedDataset(featureNames []string) *GroupedDataset {
	return &GroupedDataset{
		featureNames: featureNames,
		offsets:      []int{0},
	}
}

// NewGroupedDatasetFromSizes wraps a flat (features, labels, group sizes) triple produced
// elsewhere. Identifier columns are unknown in this case.
func NewGroupedDatasetFromSizes(featureNames []string, features [][]float32, labels []int, groupSizes []int) (*GroupedDataset, error) {
	if len(features) != len(labels) {
		return nil, errors.Annotatef(base.ErrAlignment, "%d feature rows but %d labels", len(features), len(labels))
	}
	if total := lo.Sum(groupSizes); total != len(labels) {
		return nil, errors.Annotatef(base.ErrAlignment, "group sizes sum to %d but there are %d rows", total, len(labels))
	}
	d := NewGroupedDataset(featureNames)
	for i, size := range groupSizes {
		if size <= 0 {
			return nil, errors.Annotatef(base.ErrAlignment, "group %d has non-positive size %d", i, size)
		}
		begin := d.offsets[len(d.offsets)-1]
		end := begin + size
		for _, row := range features[begin:end] {
			if len(row) != len(featureNames) {
				return nil, errors.Annotatef(base.ErrAlignment, "feature row has %d values but %d names", len(row), len(featureNames))
			}
		}
		d.userIds = append(d.userIds, 0)
		d.features = append(d.features, features[begin:end]...)
		d.labels = append(d.labels, labels[begin:end]...)
		d.offsets = append(d.offsets, end)
	}
	return d, nil
}

// AppendGroup appends the rows of one user as a new query group.
func (d *GroupedDataset) AppendGroup(userId int64, itemIds []int64, features [][]float32, labels []int) error {
	if len(itemIds) == 0 {
		return errors.Annotatef(base.ErrAlignment, "empty group for user %d", userId)
	}
	if len(itemIds) != len(features) || len(itemIds) != len(labels) {
		return errors.Annotatef(base.ErrAlignment, "group of user %d has %d items, %d feature rows and %d labels",
			userId, len(itemIds), len(features), len(labels))
	}
	if n := len(d.userIds); n > 0 && d.itemIds != nil && d.userIds[n-1] == userId {
		return errors.Annotatef(base.ErrAlignment, "adjacent groups share user %d", userId)
	}
	seen := mapset.NewThreadUnsafeSetWithSize[int64](len(itemIds))
	for i, itemId := range itemIds {
		if !seen.Add(itemId) {
			return errors.Annotatef(base.ErrAlignment, "item %d appears twice in group of user %d", itemId, userId)
		}
		if len(features[i]) != len(d.featureNames) {
			return errors.Annotatef(base.ErrAlignment, "feature row of item %d has %d values but %d names",
				itemId, len(features[i]), len(d.featureNames))
		}
	}
	if d.itemIds == nil && len(d.labels) > 0 {
		return errors.Annotatef(base.ErrAlignment, "dataset without identifiers cannot be extended")
	}
	d.userIds = append(d.userIds, userId)
	d.itemIds = append(d.itemIds, itemIds...)
	d.features = append(d.features, features...)
	d.labels = append(d.labels, labels...)
	d.offsets = append(d.offsets, len(d.labels))
	return nil
}

// Count returns the number of rows.
func (d *GroupedDataset) Count() int {
	return len(d.labels)
}

// CountGroups returns the number of query groups.
func (d *GroupedDataset) CountGroups() int {
	return len(d.offsets) - 1
}

// GroupSizes returns the size of every group in row order.
func (d *GroupedDataset) GroupSizes() []int {
	sizes := make([]int, d.CountGroups())
	for i := range sizes {
		sizes[i] = d.offsets[i+1] - d.offsets[i]
	}
	return sizes
}

// Group returns the i-th query group. Slices are shared with the dataset.
func (d *GroupedDataset) Group(i int) Group {
	begin, end := d.offsets[i], d.offsets[i+1]
	g := Group{
		UserId:   d.userIds[i],
		Features: d.features[begin:end],
		Labels:   d.labels[begin:end],
	}
	if d.itemIds != nil {
		g.ItemIds = d.itemIds[begin:end]
	}
	return g
}

func (d *GroupedDataset) FeatureNames() []string {
	return d.featureNames
}

// FeatureIndex returns the column of a feature, or -1 if absent.
func (d *GroupedDataset) FeatureIndex(name string) int {
	return lo.IndexOf(d.featureNames, name)
}

func (d *GroupedDataset) Features() [][]float32 {
	return d.features
}

func (d *GroupedDataset) Labels() []int {
	return d.labels
}

// ItemIds returns the item of every row, or nil if identifiers are unknown.
func (d *GroupedDataset) ItemIds() []int64 {
	return d.itemIds
}

// UserIds returns the user of every group.
func (d *GroupedDataset) UserIds() []int64 {
	return d.userIds
}

// Validate checks that features, labels and group boundaries line up.
func (d *GroupedDataset) Validate() error {
	if len(d.features) != len(d.labels) {
		return errors.Annotatef(base.ErrAlignment, "%d feature rows but %d labels", len(d.features), len(d.labels))
	}
	if d.itemIds != nil && len(d.itemIds) != len(d.labels) {
		return errors.Annotatef(base.ErrAlignment, "%d item ids but %d labels", len(d.itemIds), len(d.labels))
	}
	if total := lo.Sum(d.GroupSizes()); total != len(d.labels) {
		return errors.Annotatef(base.ErrAlignment, "group sizes sum to %d but there are %d rows", total, len(d.labels))
	}
	if len(d.userIds) != d.CountGroups() {
		return errors.Annotatef(base.ErrAlignment, "%d user ids but %d groups", len(d.userIds), d.CountGroups())
	}
	return nil
}

// WriteCSV writes one line per row: user_id, item_id, features and label.
func (d *GroupedDataset) WriteCSV(w io.Writer) error {
	if d.itemIds == nil {
		return errors.Annotatef(base.ErrInvalidInput, "dataset without identifiers cannot be exported")
	}
	bw := bufio.NewWriter(w)
	header := append([]string{"user_id", "item_id"}, d.featureNames...)
	header = append(header, "label")
	if err := writeRecord(bw, lo.Map(header, func(name string, _ int) string {
		return base.Escape(name)
	})); err != nil {
		return errors.Trace(err)
	}
	record := make([]string, 0, len(header))
	for i := 0; i < d.CountGroups(); i++ {
		g := d.Group(i)
		for j, itemId := range g.ItemIds {
			record = record[:0]
			record = append(record, strconv.FormatInt(g.UserId, 10), strconv.FormatInt(itemId, 10))
			for _, v := range g.Features[j] {
				record = append(record, strconv.FormatFloat(float64(v), 'g', -1, 32))
			}
			record = append(record, strconv.Itoa(g.Labels[j]))
			if err := writeRecord(bw, record); err != nil {
				return errors.Trace(err)
			}
		}
	}
	return errors.Trace(bw.Flush())
}

func writeRecord(w *bufio.Writer, fields []string) error {
	for i, field := range fields {
		if i > 0 {
			if err := w.WriteByte(','); err != nil {
				return err
			}
		}
		if _, err := w.WriteString(field); err != nil {
			return err
		}
	}
	return w.WriteByte('\n')
}
