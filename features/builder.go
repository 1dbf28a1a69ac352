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
	"time"

	"github.com/chewxy/math32"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/gorse-io/ltr/base"
	"github.com/gorse-io/ltr/dataset"
	"github.com/gorse-io/ltr/logics"
	"github.com/juju/errors"
)

const (
	GenreMatch      = "genre_match"
	Popularity      = "popularity"
	PopularityDecay = "popularity_decay"
	AvgUserWatchPct = "avg_user_watch_pct"
	DurationMatch   = "duration_match"
	TimeOfDayMatch  = "time_of_day_match"
)

const (
	DefaultDecayLambda = 0.01

	mobileMaxDuration = 120
)

var nightGenres = mapset.NewSet("comedy", "romance")

// Builder computes content, context and popularity features of candidate items.
type Builder struct {
	store       *dataset.InteractionStore
	catalog     *dataset.Catalog
	contexts    map[int64]dataset.UserContext
	decayLambda float32
	now         func() time.Time
}

type Option func(*Builder)

// WithDecayLambda sets the daily decay rate of popularity_decay.
func WithDecayLambda(lambda float32) Option {
	return func(b *Builder) {
		b.decayLambda = lambda
	}
}

// WithClock replaces the clock used to compute days since release.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) {
		b.now = now
	}
}

func NewBuilder(store *dataset.InteractionStore, catalog *dataset.Catalog, contexts map[int64]dataset.UserContext, opts ...Option) *Builder {
	b := &Builder{
		store:       store,
		catalog:     catalog,
		contexts:    contexts,
		decayLambda: DefaultDecayLambda,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Builder) FeatureNames() []string {
	return []string{GenreMatch, Popularity, PopularityDecay, AvgUserWatchPct, DurationMatch, TimeOfDayMatch}
}

// BuildFeatures returns one row per item in the given order. Users without a context are
// treated as having no recent genres, no device and no time of day.
func (b *Builder) BuildFeatures(ctx context.Context, userId int64, items []int64) ([]logics.FeatureRow, error) {
	userContext := b.contexts[userId]
	recentGenres := mapset.NewThreadUnsafeSet(userContext.RecentGenres...)
	avgWatchPct := b.store.AvgWatchedPct(userId)
	now := b.now()
	rows := make([]logics.FeatureRow, 0, len(items))
	for _, itemId := range items {
		if err := ctx.Err(); err != nil {
			return nil, errors.Trace(err)
		}
		item, ok := b.catalog.Get(itemId)
		if !ok {
			return nil, errors.Annotatef(base.ErrInvalidInput, "item %d not found in catalog", itemId)
		}
		values := make([]float32, 6)
		values[0] = indicator(recentGenres.Contains(item.Genre))
		values[1] = item.Popularity
		values[2] = b.popularityDecay(item.ReleaseDate, now)
		values[3] = avgWatchPct
		values[4] = indicator(userContext.Device != "mobile" || item.Duration <= mobileMaxDuration)
		values[5] = indicator(userContext.TimeOfDay != "night" || !nightGenres.Contains(item.Genre))
		rows = append(rows, logics.FeatureRow{ItemId: itemId, Values: values})
	}
	return rows, nil
}

// popularityDecay is exp(-lambda * whole days since release). Items without a release date
// get zero.
func (b *Builder) popularityDecay(releaseDate, now time.Time) float32 {
	if releaseDate.IsZero() {
		return 0
	}
	days := math32.Floor(float32(now.Sub(releaseDate).Hours() / 24))
	return math32.Exp(-b.decayLambda * days)
}

func indicator(b bool) float32 {
	if b {
		return 1
	}
	return 0
}
