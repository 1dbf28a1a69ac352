// Copyright 2020 gorse Project Authors
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

package ranking

import (
	"context"
	"sort"

	"github.com/chewxy/math32"
	"github.com/gorse-io/ltr/base"
	"github.com/gorse-io/ltr/base/log"
	"github.com/gorse-io/ltr/dataset"
	"github.com/juju/errors"
	"go.uber.org/zap"
	"modernc.org/sortutil"
)

const (
	// PopularityColumn holds the scores of the baseline ranking.
	PopularityColumn = "popularity"

	liftEpsilon = 1e-6
)

type Score struct {
	ModelNDCG       float32
	BaselineNDCG    float32
	LiftPct         float32
	EvaluatedGroups int
	SkippedGroups   int
}

func (score Score) ZapFields() []zap.Field {
	return []zap.Field{
		zap.Float32("model_ndcg", score.ModelNDCG),
		zap.Float32("baseline_ndcg", score.BaselineNDCG),
		zap.Float32("lift_pct", score.LiftPct),
		zap.Int("n_evaluated", score.EvaluatedGroups),
		zap.Int("n_skipped", score.SkippedGroups),
	}
}

// GroupedEvaluator compares a ranker against the popularity baseline on query groups.
type GroupedEvaluator struct {
	ranker Ranker
}

func NewGroupedEvaluator(ranker Ranker) *GroupedEvaluator {
	return &GroupedEvaluator{ranker: ranker}
}

// Evaluate computes mean NDCG@k of the ranker and the baseline over groups with at least
// one relevant item.
func (e *GroupedEvaluator) Evaluate(ctx context.Context, ds *dataset.GroupedDataset, k int) (Score, error) {
	if k <= 0 {
		return Score{}, errors.Annotatef(base.ErrInvalidInput, "k must be positive, got %d", k)
	}
	if err := ds.Validate(); err != nil {
		return Score{}, errors.Trace(err)
	}
	popularity := ds.FeatureIndex(PopularityColumn)
	if popularity < 0 {
		return Score{}, errors.Annotatef(base.ErrInvalidInput, "feature %v is required by the baseline", PopularityColumn)
	}
	predictions := e.ranker.Predict(ds.Features())
	if len(predictions) != ds.Count() {
		return Score{}, errors.Annotatef(base.ErrAlignment, "ranker returned %d scores for %d rows",
			len(predictions), ds.Count())
	}

	var score Score
	var sumModel, sumBaseline float32
	offset := 0
	for i, size := range ds.GroupSizes() {
		if err := ctx.Err(); err != nil {
			return Score{}, errors.Trace(err)
		}
		group := ds.Group(i)
		if group.MaxLabel() == 0 {
			score.SkippedGroups++
			offset += size
			continue
		}
		baseline := make([]float32, size)
		for j, row := range group.Features {
			baseline[j] = row[popularity]
		}
		sumModel += NDCG(group.Labels, predictions[offset:offset+size], k)
		sumBaseline += NDCG(group.Labels, baseline, k)
		score.EvaluatedGroups++
		offset += size
	}
	if score.EvaluatedGroups == 0 {
		return Score{}, errors.Annotatef(base.ErrEmptyResult, "all %d groups have no relevant item", score.SkippedGroups)
	}
	score.ModelNDCG = sumModel / float32(score.EvaluatedGroups)
	score.BaselineNDCG = sumBaseline / float32(score.EvaluatedGroups)
	score.LiftPct = (score.ModelNDCG - score.BaselineNDCG) / math32.Max(score.BaselineNDCG, liftEpsilon) * 100
	log.Logger().Info("evaluate ranker", score.ZapFields()...)
	return score, nil
}

// NDCG means Normalized Discounted Cumulative Gain at k. Gains are graded labels and items
// with equal scores share the average gain of their tied positions. It returns zero if no
// item is relevant.
func NDCG(labels []int, scores []float32, k int) float32 {
	n := len(labels)
	if n == 0 || k <= 0 {
		return 0
	}
	// IDCG = \sum^{k}_{i=1} \frac {rel_i} {\log_2(i+1)}
	ideal := make([]float32, n)
	for i, label := range labels {
		ideal[i] = float32(label)
	}
	sort.Sort(sort.Reverse(sortutil.Float32Slice(ideal)))
	idcg := float32(0)
	for i := 0; i < n && i < k; i++ {
		idcg += ideal[i] * discount(i)
	}
	if idcg == 0 {
		return 0
	}
	// DCG over tied runs of the ranking induced by scores
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return scores[order[i]] > scores[order[j]]
	})
	dcg := float32(0)
	for start := 0; start < n && start < k; {
		end := start + 1
		for end < n && scores[order[end]] == scores[order[start]] {
			end++
		}
		var gain, discounts float32
		for i := start; i < end; i++ {
			gain += float32(labels[order[i]])
			if i < k {
				discounts += discount(i)
			}
		}
		dcg += gain / float32(end-start) * discounts
		start = end
	}
	return dcg / idcg
}

func discount(i int) float32 {
	return 1 / math32.Log2(float32(i)+2)
}
