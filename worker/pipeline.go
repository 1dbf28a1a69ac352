// Copyright 2022 gorse Project Authors
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

package worker

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/gorse-io/ltr/base"
	"github.com/gorse-io/ltr/base/log"
	"github.com/gorse-io/ltr/config"
	"github.com/gorse-io/ltr/dataset"
	"github.com/gorse-io/ltr/features"
	"github.com/gorse-io/ltr/logics"
	"github.com/gorse-io/ltr/model/ranking"
	"github.com/gorse-io/ltr/storage/data"
	"github.com/juju/errors"
	"go.uber.org/zap"
)

// Pipeline loads the data store once and runs candidate generation, training set assembly
// and offline evaluation on the loaded snapshot.
type Pipeline struct {
	Config     *config.Config
	DataClient data.Database
	RunId      string
	// Now is the clock of time dependent features.
	Now func() time.Time

	store    *dataset.InteractionStore
	catalog  *dataset.Catalog
	contexts map[int64]dataset.UserContext
}

func NewPipeline(cfg *config.Config, dataClient data.Database) *Pipeline {
	return &Pipeline{
		Config:     cfg,
		DataClient: dataClient,
		RunId:      uuid.NewString(),
		Now:        time.Now,
	}
}

// Load reads interactions, the item catalog and user contexts. Subsequent calls are no-ops.
func (p *Pipeline) Load(ctx context.Context) error {
	if p.store != nil {
		return nil
	}
	startTime := time.Now()
	interactions, items, contexts, err := data.Load(ctx, p.DataClient)
	if err != nil {
		return errors.Trace(err)
	}
	catalog, err := dataset.NewCatalog(items)
	if err != nil {
		return errors.Trace(err)
	}
	for _, interaction := range interactions {
		if _, ok := catalog.Index(interaction.ItemId); !ok {
			return errors.Annotatef(base.ErrInvalidInput, "item %d of user %d not found in metadata",
				interaction.ItemId, interaction.UserId)
		}
	}
	store, err := dataset.NewInteractionStore(interactions)
	if err != nil {
		return errors.Trace(err)
	}
	contextIndex, err := dataset.IndexUserContexts(contexts)
	if err != nil {
		return errors.Trace(err)
	}
	p.store, p.catalog, p.contexts = store, catalog, contextIndex

	DatasetSizeVec.WithLabelValues("interactions").Set(float64(len(interactions)))
	DatasetSizeVec.WithLabelValues("users").Set(float64(store.CountUsers()))
	DatasetSizeVec.WithLabelValues("items").Set(float64(catalog.Count()))
	DatasetSizeVec.WithLabelValues("user_contexts").Set(float64(len(contextIndex)))
	PipelineStepSecondsVec.WithLabelValues("load").Set(time.Since(startTime).Seconds())
	log.Logger().Info("load data complete",
		zap.String("run_id", p.RunId),
		zap.Int("n_users", store.CountUsers()),
		zap.Int("n_items", catalog.Count()),
		zap.Int("n_user_contexts", len(contextIndex)),
		zap.Duration("used_time", time.Since(startTime)))
	return nil
}

func (p *Pipeline) Store() *dataset.InteractionStore {
	return p.store
}

func (p *Pipeline) Catalog() *dataset.Catalog {
	return p.catalog
}

// Candidates recalls items for a user from similar users.
func (p *Pipeline) Candidates(ctx context.Context, userId int64, topK int) ([]int64, error) {
	if err := p.Load(ctx); err != nil {
		return nil, errors.Trace(err)
	}
	generator, err := logics.NewCandidateGenerator(p.store, p.Config.Candidates.NumNeighbors)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return generator.GenerateCandidates(userId, topK)
}

// TrainingUsers returns the first num_users users in first-seen order, or all users if
// num_users is zero.
func (p *Pipeline) TrainingUsers(ctx context.Context) ([]int64, error) {
	if err := p.Load(ctx); err != nil {
		return nil, errors.Trace(err)
	}
	users := p.store.Users()
	if n := p.Config.Training.NumUsers; n > 0 && n < len(users) {
		users = users[:n]
	}
	return append([]int64(nil), users...), nil
}

func (p *Pipeline) FeatureBuilder() *features.Builder {
	return features.NewBuilder(p.store, p.catalog, p.contexts,
		features.WithDecayLambda(p.Config.Features.DecayLambda),
		features.WithClock(p.Now))
}

// Build assembles the training set of users. The progress receives one tick per user and
// may be nil.
func (p *Pipeline) Build(ctx context.Context, userIds []int64, progress logics.Progress) (*dataset.GroupedDataset, error) {
	if err := p.Load(ctx); err != nil {
		return nil, errors.Trace(err)
	}
	startTime := time.Now()
	assembler := logics.NewTrainingSetAssembler(p.store, p.catalog, p.FeatureBuilder(), logics.AssemblerOptions{
		RandomState: p.Config.Training.RandomState,
		Jobs:        p.Config.Training.Jobs,
		Progress:    progress,
	})
	ds, err := assembler.Build(ctx, userIds, p.Config.Training.MinPositiveWatchPct, p.Config.Training.NegativesPerUser)
	if err != nil {
		return nil, errors.Trace(err)
	}
	PipelineStepSecondsVec.WithLabelValues("build").Set(time.Since(startTime).Seconds())
	log.Logger().Info("build training set complete",
		zap.String("run_id", p.RunId),
		zap.Int("n_groups", ds.CountGroups()),
		zap.Ints("group_sizes", ds.GroupSizes()),
		zap.Duration("used_time", time.Since(startTime)))
	return ds, nil
}

// TrainAndEvaluate fits a linear ranker on the training set and compares it with the
// popularity baseline on the same groups.
func (p *Pipeline) TrainAndEvaluate(ctx context.Context, ds *dataset.GroupedDataset) (ranking.Score, error) {
	startTime := time.Now()
	ranker := ranking.NewLinearRanker(p.Config.Ranker.GetParams())
	if err := ranker.Fit(ctx, ds); err != nil {
		return ranking.Score{}, errors.Trace(err)
	}
	PipelineStepSecondsVec.WithLabelValues("fit").Set(time.Since(startTime).Seconds())

	startTime = time.Now()
	score, err := ranking.NewGroupedEvaluator(ranker).Evaluate(ctx, ds, p.Config.Evaluation.TopK)
	if err != nil {
		return ranking.Score{}, errors.Trace(err)
	}
	PipelineStepSecondsVec.WithLabelValues("evaluate").Set(time.Since(startTime).Seconds())
	EvaluationNDCGVec.WithLabelValues("model").Set(float64(score.ModelNDCG))
	EvaluationNDCGVec.WithLabelValues("baseline").Set(float64(score.BaselineNDCG))
	EvaluationLiftPct.Set(float64(score.LiftPct))
	log.Logger().Info("evaluate complete", append(score.ZapFields(), zap.String("run_id", p.RunId))...)
	return score, nil
}
