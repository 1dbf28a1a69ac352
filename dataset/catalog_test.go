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
	"testing"
	"time"

	"github.com/chewxy/math32"
	"github.com/gorse-io/ltr/base"
	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
)

func TestCatalog(t *testing.T) {
	released := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	catalog, err := NewCatalog([]Item{
		{ItemId: 13, Genre: "drama", Popularity: 3},
		{ItemId: 10, Genre: "comedy", Popularity: 1, Duration: 90, ReleaseDate: released},
		{ItemId: 11, Genre: "action", Popularity: 2},
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, catalog.Count())
	assert.Equal(t, []int64{13, 10, 11}, catalog.ItemIds())
	item, ok := catalog.Get(10)
	assert.True(t, ok)
	assert.Equal(t, "comedy", item.Genre)
	assert.Equal(t, released, item.ReleaseDate)
	_, ok = catalog.Get(12)
	assert.False(t, ok)
	index, ok := catalog.Index(11)
	assert.True(t, ok)
	assert.Equal(t, 2, index)
	assert.Equal(t, int64(11), catalog.Item(2).ItemId)
}

func TestCatalog_Invalid(t *testing.T) {
	_, err := NewCatalog([]Item{{ItemId: 1}, {ItemId: 1}})
	assert.True(t, errors.Is(err, base.ErrInvalidInput))
	_, err = NewCatalog([]Item{{ItemId: 1, Popularity: math32.NaN()}})
	assert.True(t, errors.Is(err, base.ErrInvalidInput))
	_, err = NewCatalog([]Item{{ItemId: 1, Duration: -1}})
	assert.True(t, errors.Is(err, base.ErrInvalidInput))
}

func TestIndexUserContexts(t *testing.T) {
	index, err := IndexUserContexts([]UserContext{
		{UserId: 1, Device: "mobile", TimeOfDay: "night", RecentGenres: []string{"comedy"}},
		{UserId: 2, Device: "tv"},
	})
	assert.NoError(t, err)
	assert.Len(t, index, 2)
	assert.Equal(t, "mobile", index[1].Device)

	_, err = IndexUserContexts([]UserContext{{UserId: 1}, {UserId: 1}})
	assert.True(t, errors.Is(err, base.ErrInvalidInput))
}
