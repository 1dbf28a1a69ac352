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

package logics

import (
	"context"

	"github.com/chewxy/math32"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/gorse-io/ltr/base"
	"github.com/gorse-io/ltr/base/log"
	"github.com/gorse-io/ltr/common/parallel"
	"github.com/gorse-io/ltr/dataset"
	"github.com/juju/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// FeatureRow is the feature vector of one candidate item.
type FeatureRow struct {
	ItemId int64
	Values []float32
}

// FeatureBuilder computes features for (user, item) pairs. BuildFeatures must return exactly
// one row per requested item. Values follow the order of FeatureNames.
type FeatureBuilder interface {
	FeatureNames() []string
	BuildFeatures(ctx context.Context, userId int64, items []int64) ([]FeatureRow, error)
}

// Progress receives one tick per processed user.
type Progress interface {
	Add(n int) error
}

// GradeLabel maps watched_pct to a graded relevance label in {0, 1, 2, 3}.
func GradeLabel(watchedPct float32) int {
	switch {
	case watchedPct >= 0.8:
		return 3
	case watchedPct >= 0.5:
		return 2
	case watchedPct >= 0.2:
		return 1
	default:
		return 0
	}
}

type AssemblerOptions struct {
	RandomState int64
	Jobs        int
	Progress    Progress
}

// TrainingSetAssembler mixes positives with sampled negatives into query groups, one per user.
type TrainingSetAssembler struct {
	store   *dataset.InteractionStore
	catalog *dataset.Catalog
	builder FeatureBuilder
	options AssemblerOptions
}

func NewTrainingSetAssembler(store *dataset.InteractionStore, catalog *dataset.Catalog, builder FeatureBuilder, options AssemblerOptions) *TrainingSetAssembler {
	return &TrainingSetAssembler{
		store:   store,
		catalog: catalog,
		builder: builder,
		options: options,
	}
}

type userBlock struct {
	itemIds  []int64
	features [][]float32
	labels   []int
}

// Build assembles the training set of users in the given order. Duplicated user ids are
// ignored after their first occurrence. Users without positives are skipped, so the result
// may hold fewer groups than users.
func (a *TrainingSetAssembler) Build(ctx context.Context, userIds []int64, minPositiveWatchPct float32, negativesPerUser int) (*dataset.GroupedDataset, error) {
	if math32.IsNaN(minPositiveWatchPct) || minPositiveWatchPct < 0 || minPositiveWatchPct > 1 {
		return nil, errors.Annotatef(base.ErrInvalidInput, "min positive watch pct must be in [0,1], got %v", minPositiveWatchPct)
	}
	if negativesPerUser < 0 {
		return nil, errors.Annotatef(base.ErrInvalidInput, "negatives per user must not be negative, got %d", negativesPerUser)
	}
	userIds = lo.Uniq(userIds)
	for _, userId := range userIds {
		if !a.store.HasUser(userId) {
			return nil, errors.Annotatef(base.ErrInvalidInput, "unknown user %d", userId)
		}
	}
	log.Logger().Info("start assembling training set",
		zap.Int("n_users", len(userIds)),
		zap.Float32("min_positive_watch_pct", minPositiveWatchPct),
		zap.Int("negatives_per_user", negativesPerUser),
		zap.Int64("random_state", a.options.RandomState),
		zap.Int("n_jobs", a.options.Jobs))

	blocks := make([]*userBlock, len(userIds))
	err := parallel.Parallel(ctx, len(userIds), a.options.Jobs, func(_, jobId int) error {
		block, err := a.buildUser(ctx, userIds[jobId], minPositiveWatchPct, negativesPerUser)
		if err != nil {
			return errors.Trace(err)
		}
		blocks[jobId] = block
		if a.options.Progress != nil {
			_ = a.options.Progress.Add(1)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Trace(err)
	}

	// reassemble in request order
	result := dataset.NewGroupedDataset(a.builder.FeatureNames())
	for i, block := range blocks {
		if block == nil {
			continue
		}
		if err = result.AppendGroup(userIds[i], block.itemIds, block.features, block.labels); err != nil {
			return nil, errors.Trace(err)
		}
	}
	if result.CountGroups() == 0 {
		return nil, errors.Annotatef(base.ErrEmptyResult, "none of %d users has an item watched at least %v",
			len(userIds), minPositiveWatchPct)
	}
	if err = result.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	TrainingGroupsTotal.Add(float64(result.CountGroups()))
	TrainingRowsTotal.Add(float64(result.Count()))
	log.Logger().Info("complete assembling training set",
		zap.Int("n_groups", result.CountGroups()),
		zap.Int("n_rows", result.Count()),
		zap.Int("n_skipped", len(userIds)-result.CountGroups()))
	return result, nil
}

// buildUser returns nil if the user has no positive item.
func (a *TrainingSetAssembler) buildUser(ctx context.Context, userId int64, minPositiveWatchPct float32, negativesPerUser int) (*userBlock, error) {
	positives, err := a.store.PositiveItems(userId, minPositiveWatchPct)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if len(positives) == 0 {
		SkippedUsersTotal.Inc()
		log.Logger().Debug("skip user without positive items", zap.Int64("user_id", userId))
		return nil, nil
	}
	negatives := a.SampleNegatives(userId, positives, negativesPerUser)
	candidates := lo.Uniq(append(append(make([]int64, 0, len(positives)+len(negatives)), positives...), negatives...))

	rows, err := a.builder.BuildFeatures(ctx, userId, candidates)
	if err != nil {
		return nil, errors.Annotatef(err, "failed to build features for user %d", userId)
	}
	if len(rows) != len(candidates) {
		return nil, errors.Annotatef(base.ErrAlignment, "feature builder returned %d rows for %d candidates of user %d",
			len(rows), len(candidates), userId)
	}
	pending := mapset.NewThreadUnsafeSet(candidates...)
	numFeatures := len(a.builder.FeatureNames())
	block := &userBlock{
		itemIds:  make([]int64, len(rows)),
		features: make([][]float32, len(rows)),
		labels:   make([]int, len(rows)),
	}
	for i, row := range rows {
		if !pending.Contains(row.ItemId) {
			return nil, errors.Annotatef(base.ErrAlignment, "feature builder returned unexpected or repeated item %d for user %d",
				row.ItemId, userId)
		}
		pending.Remove(row.ItemId)
		if len(row.Values) != numFeatures {
			return nil, errors.Annotatef(base.ErrAlignment, "feature row of item %d has %d values, expected %d",
				row.ItemId, len(row.Values), numFeatures)
		}
		block.itemIds[i] = row.ItemId
		block.features[i] = row.Values
		block.labels[i] = GradeLabel(a.store.WatchedPct(userId, row.ItemId))
	}
	return block, nil
}

// SampleNegatives draws up to n catalog items that are not positives of the user. The draw
// only depends on the random state and the user id.
func (a *TrainingSetAssembler) SampleNegatives(userId int64, positives []int64, n int) []int64 {
	exclude := mapset.NewThreadUnsafeSet[int]()
	for _, itemId := range positives {
		if index, ok := a.catalog.Index(itemId); ok {
			exclude.Add(index)
		}
	}
	rng := base.NewRandomGenerator(base.DeriveSeed(a.options.RandomState, userId))
	sampled := rng.Sample(a.catalog.Count(), n, exclude)
	SampledNegativesTotal.Add(float64(len(sampled)))
	return lo.Map(sampled, func(index, _ int) int64 {
		return a.catalog.Item(index).ItemId
	})
}
