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

import (
	"time"

	"github.com/bits-and-blooms/bitset"
	"github.com/chewxy/math32"
	"github.com/gorse-io/ltr/base"
	"github.com/juju/errors"
)

// Interaction is a single watch event of a user on an item.
type Interaction struct {
	UserId     int64
	ItemId     int64
	WatchedPct float32
}

// Item is the metadata of an item.
type Item struct {
	ItemId      int64
	Genre       string
	Popularity  float32
	Duration    float32
	ReleaseDate time.Time
}

// UserContext describes the serving context of a user.
type UserContext struct {
	UserId       int64
	Device       string
	TimeOfDay    string
	RecentGenres []string
}

// InteractionStore is a read-only view over interaction records. Users and items are indexed
// in the order they first appear, which fixes every tie-break made on top of the store.
type InteractionStore struct {
	userDict   *FreqDict
	itemDict   *FreqDict
	history    [][]int32
	historySet []*bitset.BitSet
	watched    []map[int32]float32
	watchedSum []float32
}

// NewInteractionStore indexes interactions. Extra users without any interaction may be
// registered through users; they are known to the store with an empty history.
func NewInteractionStore(interactions []Interaction, users ...int64) (*InteractionStore, error) {
	s := &InteractionStore{
		userDict: NewFreqDict(),
		itemDict: NewFreqDict(),
	}
	for i, interaction := range interactions {
		if math32.IsNaN(interaction.WatchedPct) || interaction.WatchedPct < 0 || interaction.WatchedPct > 1 {
			return nil, errors.Annotatef(base.ErrInvalidInput,
				"watched_pct of interaction %d (user %d, item %d) must be in [0,1], got %v",
				i, interaction.UserId, interaction.ItemId, interaction.WatchedPct)
		}
		userIndex := s.userDict.Id(interaction.UserId)
		itemIndex := s.itemDict.Id(interaction.ItemId)
		if int(userIndex) == len(s.history) {
			s.history = append(s.history, nil)
			s.watched = append(s.watched, make(map[int32]float32))
			s.watchedSum = append(s.watchedSum, 0)
		}
		s.watchedSum[userIndex] += interaction.WatchedPct
		if pct, exist := s.watched[userIndex][itemIndex]; !exist {
			s.history[userIndex] = append(s.history[userIndex], itemIndex)
			s.watched[userIndex][itemIndex] = interaction.WatchedPct
		} else if interaction.WatchedPct > pct {
			s.watched[userIndex][itemIndex] = interaction.WatchedPct
		}
	}
	for _, userId := range users {
		if userIndex := s.userDict.NotCount(userId); int(userIndex) == len(s.history) {
			s.history = append(s.history, nil)
			s.watched = append(s.watched, make(map[int32]float32))
			s.watchedSum = append(s.watchedSum, 0)
		}
	}
	// build history bitsets
	s.historySet = make([]*bitset.BitSet, len(s.history))
	for userIndex, items := range s.history {
		s.historySet[userIndex] = bitset.New(uint(s.itemDict.Count()))
		for _, itemIndex := range items {
			s.historySet[userIndex].Set(uint(itemIndex))
		}
	}
	return s, nil
}

// CountUsers returns the number of known users.
func (s *InteractionStore) CountUsers() int {
	return s.userDict.Count()
}

// CountItems returns the number of distinct items in interactions.
func (s *InteractionStore) CountItems() int {
	return s.itemDict.Count()
}

// Users returns user ids in first-seen order.
func (s *InteractionStore) Users() []int64 {
	return s.userDict.Ids()
}

// Items returns item ids in first-seen order.
func (s *InteractionStore) Items() []int64 {
	return s.itemDict.Ids()
}

func (s *InteractionStore) HasUser(userId int64) bool {
	_, ok := s.userDict.Index(userId)
	return ok
}

func (s *InteractionStore) UserIndex(userId int64) (int32, bool) {
	return s.userDict.Index(userId)
}

func (s *InteractionStore) ItemId(itemIndex int32) int64 {
	itemId, _ := s.itemDict.Int64(itemIndex)
	return itemId
}

// UserHistory returns distinct item indices of a user in first-seen order.
func (s *InteractionStore) UserHistory(userIndex int32) []int32 {
	return s.history[userIndex]
}

// UserHistorySet returns the history of a user as a bitset over item indices.
func (s *InteractionStore) UserHistorySet(userIndex int32) *bitset.BitSet {
	return s.historySet[userIndex]
}

// History returns distinct item ids of a user in first-seen order.
func (s *InteractionStore) History(userId int64) ([]int64, error) {
	userIndex, ok := s.userDict.Index(userId)
	if !ok {
		return nil, errors.Annotatef(base.ErrInvalidInput, "unknown user %d", userId)
	}
	items := make([]int64, len(s.history[userIndex]))
	for i, itemIndex := range s.history[userIndex] {
		items[i] = s.ItemId(itemIndex)
	}
	return items, nil
}

// PositiveItems returns distinct items of a user whose watched_pct reaches minWatchedPct,
// in first-seen order.
func (s *InteractionStore) PositiveItems(userId int64, minWatchedPct float32) ([]int64, error) {
	userIndex, ok := s.userDict.Index(userId)
	if !ok {
		return nil, errors.Annotatef(base.ErrInvalidInput, "unknown user %d", userId)
	}
	var positives []int64
	for _, itemIndex := range s.history[userIndex] {
		if s.watched[userIndex][itemIndex] >= minWatchedPct {
			positives = append(positives, s.ItemId(itemIndex))
		}
	}
	return positives, nil
}

// WatchedPct returns the largest watched_pct recorded for (user, item), or zero if the user
// never interacted with the item.
func (s *InteractionStore) WatchedPct(userId, itemId int64) float32 {
	userIndex, ok := s.userDict.Index(userId)
	if !ok {
		return 0
	}
	itemIndex, ok := s.itemDict.Index(itemId)
	if !ok {
		return 0
	}
	return s.watched[userIndex][itemIndex]
}

// AvgWatchedPct returns the mean watched_pct over all interactions of a user.
func (s *InteractionStore) AvgWatchedPct(userId int64) float32 {
	userIndex, ok := s.userDict.Index(userId)
	if !ok {
		return 0
	}
	n := s.userDict.Freq(userIndex)
	if n == 0 {
		return 0
	}
	return s.watchedSum[userIndex] / float32(n)
}
