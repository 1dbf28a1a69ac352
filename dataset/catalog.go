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
	"github.com/chewxy/math32"
	"github.com/gorse-io/ltr/base"
	"github.com/juju/errors"
)

// Catalog is the universe of items. Item ids are unique; the load order is kept.
type Catalog struct {
	items []Item
	index map[int64]int
}

// NewCatalog indexes items. Duplicated item ids are rejected instead of resolved by position.
func NewCatalog(items []Item) (*Catalog, error) {
	c := &Catalog{
		items: make([]Item, 0, len(items)),
		index: make(map[int64]int, len(items)),
	}
	for _, item := range items {
		if _, exist := c.index[item.ItemId]; exist {
			return nil, errors.Annotatef(base.ErrInvalidInput, "duplicated item %d in metadata", item.ItemId)
		}
		if math32.IsNaN(item.Popularity) || math32.IsInf(item.Popularity, 0) {
			return nil, errors.Annotatef(base.ErrInvalidInput, "popularity of item %d is not finite", item.ItemId)
		}
		if math32.IsNaN(item.Duration) || item.Duration < 0 {
			return nil, errors.Annotatef(base.ErrInvalidInput, "duration of item %d must be non-negative", item.ItemId)
		}
		c.index[item.ItemId] = len(c.items)
		c.items = append(c.items, item)
	}
	return c, nil
}

func (c *Catalog) Count() int {
	return len(c.items)
}

// Item returns the i-th item in load order.
func (c *Catalog) Item(i int) Item {
	return c.items[i]
}

// Index returns the position of an item in load order.
func (c *Catalog) Index(itemId int64) (int, bool) {
	i, ok := c.index[itemId]
	return i, ok
}

func (c *Catalog) Get(itemId int64) (Item, bool) {
	i, ok := c.index[itemId]
	if !ok {
		return Item{}, false
	}
	return c.items[i], true
}

// ItemIds returns item ids in load order.
func (c *Catalog) ItemIds() []int64 {
	ids := make([]int64, len(c.items))
	for i, item := range c.items {
		ids[i] = item.ItemId
	}
	return ids
}

// IndexUserContexts maps user ids to contexts. A user may have at most one context.
func IndexUserContexts(contexts []UserContext) (map[int64]UserContext, error) {
	index := make(map[int64]UserContext, len(contexts))
	for _, context := range contexts {
		if _, exist := index[context.UserId]; exist {
			return nil, errors.Annotatef(base.ErrInvalidInput, "duplicated context for user %d", context.UserId)
		}
		index[context.UserId] = context
	}
	return index, nil
}
