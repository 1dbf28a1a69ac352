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

package features

import (
	"context"
	"testing"
	"time"

	"github.com/chewxy/math32"
	"github.com/gorse-io/ltr/base"
	"github.com/gorse-io/ltr/dataset"
	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
)

func newTestBuilder(t *testing.T) *Builder {
	store, err := dataset.NewInteractionStore([]dataset.Interaction{
		{UserId: 1, ItemId: 10, WatchedPct: 0.9},
		{UserId: 1, ItemId: 11, WatchedPct: 0.3},
		{UserId: 2, ItemId: 12, WatchedPct: 0.5},
	})
	assert.NoError(t, err)
	now := time.Date(2024, 1, 11, 12, 0, 0, 0, time.UTC)
	catalog, err := dataset.NewCatalog([]dataset.Item{
		{ItemId: 10, Genre: "comedy", Popularity: 0.7, Duration: 90, ReleaseDate: now.AddDate(0, 0, -10)},
		{ItemId: 11, Genre: "drama", Popularity: 0.2, Duration: 150, ReleaseDate: now.Add(-36 * time.Hour)},
		{ItemId: 12, Genre: "romance", Popularity: 0.5, Duration: 121},
	})
	assert.NoError(t, err)
	contexts, err := dataset.IndexUserContexts([]dataset.UserContext{
		{UserId: 1, Device: "mobile", TimeOfDay: "night", RecentGenres: []string{"comedy", "action"}},
	})
	assert.NoError(t, err)
	return NewBuilder(store, catalog, contexts, WithDecayLambda(0.1), WithClock(func() time.Time { return now }))
}

func TestBuilder_BuildFeatures(t *testing.T) {
	builder := newTestBuilder(t)
	assert.Equal(t, []string{"genre_match", "popularity", "popularity_decay", "avg_user_watch_pct",
		"duration_match", "time_of_day_match"}, builder.FeatureNames())

	rows, err := builder.BuildFeatures(context.Background(), 1, []int64{11, 10, 12})
	assert.NoError(t, err)
	assert.Len(t, rows, 3)
	assert.Equal(t, []int64{11, 10, 12}, []int64{rows[0].ItemId, rows[1].ItemId, rows[2].ItemId})

	// drama, 150 minutes, released 1.5 days ago
	assert.Equal(t, float32(0), rows[0].Values[0])
	assert.Equal(t, float32(0.2), rows[0].Values[1])
	assert.InDelta(t, math32.Exp(-0.1), rows[0].Values[2], 1e-6)
	assert.InDelta(t, 0.6, rows[0].Values[3], 1e-6)
	assert.Equal(t, float32(0), rows[0].Values[4])
	assert.Equal(t, float32(1), rows[0].Values[5])

	// comedy at night on a phone
	assert.Equal(t, float32(1), rows[1].Values[0])
	assert.InDelta(t, math32.Exp(-1), rows[1].Values[2], 1e-6)
	assert.Equal(t, float32(1), rows[1].Values[4])
	assert.Equal(t, float32(0), rows[1].Values[5])

	// unknown release date
	assert.Equal(t, float32(0), rows[2].Values[2])
	assert.Equal(t, float32(0), rows[2].Values[4])
	assert.Equal(t, float32(0), rows[2].Values[5])
}

func TestBuilder_MissingContext(t *testing.T) {
	builder := newTestBuilder(t)
	rows, err := builder.BuildFeatures(context.Background(), 2, []int64{10, 11})
	assert.NoError(t, err)
	for _, row := range rows {
		assert.Len(t, row.Values, 6)
		assert.Equal(t, float32(0), row.Values[0])
		assert.InDelta(t, 0.5, row.Values[3], 1e-6)
		assert.Equal(t, float32(1), row.Values[4])
		assert.Equal(t, float32(1), row.Values[5])
	}
	// users without interactions have zero average
	rows, err = builder.BuildFeatures(context.Background(), 3, []int64{10})
	assert.NoError(t, err)
	assert.Equal(t, float32(0), rows[0].Values[3])
}

func TestBuilder_UnknownItem(t *testing.T) {
	builder := newTestBuilder(t)
	_, err := builder.BuildFeatures(context.Background(), 1, []int64{10, 99})
	assert.True(t, errors.Is(err, base.ErrInvalidInput))
}

func TestBuilder_Canceled(t *testing.T) {
	builder := newTestBuilder(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := builder.BuildFeatures(ctx, 1, []int64{10})
	assert.ErrorIs(t, err, context.Canceled)
}
