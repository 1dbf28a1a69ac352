// Copyright 2025 gorse Project Authors
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

// FreqDict maps external ids to dense indices in first-seen order and counts how many
// times each id has been added.
type FreqDict struct {
	si  map[int64]int32
	is  []int64
	cnt []int
}

func NewFreqDict() (d *FreqDict) {
	d = &FreqDict{map[int64]int32{}, []int64{}, []int{}}
	return
}

func (d *FreqDict) Count() int {
	return len(d.is)
}

// Id returns the index of s and increments its frequency.
func (d *FreqDict) Id(s int64) (y int32) {
	if y, ok := d.si[s]; ok {
		d.cnt[y]++
		return y
	}

	y = int32(len(d.is))
	d.si[s] = y
	d.is = append(d.is, s)
	d.cnt = append(d.cnt, 1)
	return
}

// NotCount returns the index of s without touching its frequency.
func (d *FreqDict) NotCount(s int64) (y int32) {
	if y, ok := d.si[s]; ok {
		return y
	}

	y = int32(len(d.is))
	d.si[s] = y
	d.is = append(d.is, s)
	d.cnt = append(d.cnt, 0)
	return
}

// Index looks up s without inserting it.
func (d *FreqDict) Index(s int64) (int32, bool) {
	y, ok := d.si[s]
	return y, ok
}

func (d *FreqDict) Int64(id int32) (s int64, ok bool) {
	if id < 0 || int(id) >= len(d.is) {
		return 0, false
	}
	return d.is[id], true
}

func (d *FreqDict) Freq(id int32) int {
	if id < 0 || int(id) >= len(d.cnt) {
		return 0
	}
	return d.cnt[id]
}

// Ids returns all ids in first-seen order.
func (d *FreqDict) Ids() []int64 {
	return d.is
}
