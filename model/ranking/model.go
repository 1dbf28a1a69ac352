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

	"github.com/chewxy/math32"
	"github.com/gorse-io/ltr/base"
	"github.com/gorse-io/ltr/base/log"
	"github.com/gorse-io/ltr/dataset"
	"github.com/gorse-io/ltr/model"
	"github.com/juju/errors"
	"go.uber.org/zap"
)

// Ranker scores rows of a grouped dataset. Rows are compared only within their group.
type Ranker interface {
	model.Model
	Fit(ctx context.Context, trainSet *dataset.GroupedDataset) error
	Predict(features [][]float32) []float32
}

// LinearRanker learns a linear scoring function with the pairwise logistic loss of
// RankNet. Features are standardized with the statistics of the training set.
type LinearRanker struct {
	model.BaseModel
	mean    []float32
	scale   []float32
	weights []float32
	// Hyper-parameters
	lr      float32
	reg     float32
	nEpochs int
}

func NewLinearRanker(params model.Params) *LinearRanker {
	r := new(LinearRanker)
	r.SetParams(params)
	return r
}

func (r *LinearRanker) SetParams(params model.Params) {
	r.BaseModel.SetParams(params)
	r.lr = r.Params.GetFloat32(model.Lr, 0.05)
	r.reg = r.Params.GetFloat32(model.Reg, 0.0001)
	r.nEpochs = r.Params.GetInt(model.NEpochs, 50)
}

func (r *LinearRanker) Clear() {
	r.mean = nil
	r.scale = nil
	r.weights = nil
}

// Weights returns the learned weights in the standardized feature space.
func (r *LinearRanker) Weights() []float32 {
	return r.weights
}

type rankPair struct {
	better, worse int
}

func (r *LinearRanker) Fit(ctx context.Context, trainSet *dataset.GroupedDataset) error {
	if err := trainSet.Validate(); err != nil {
		return errors.Trace(err)
	}
	if trainSet.Count() == 0 {
		return errors.Annotate(base.ErrEmptyResult, "training set has no rows")
	}
	log.Logger().Info("fit linear ranker",
		zap.Int("n_groups", trainSet.CountGroups()),
		zap.Int("n_rows", trainSet.Count()),
		zap.Any("params", r.GetParams()))
	r.fitScaler(trainSet.Features())
	x := make([][]float32, trainSet.Count())
	for i, row := range trainSet.Features() {
		x[i] = r.transform(row)
	}
	labels := trainSet.Labels()

	// pairs of rows with different labels in the same group
	var pairs []rankPair
	offset := 0
	for _, size := range trainSet.GroupSizes() {
		for i := offset; i < offset+size; i++ {
			for j := offset; j < offset+size; j++ {
				if labels[i] > labels[j] {
					pairs = append(pairs, rankPair{better: i, worse: j})
				}
			}
		}
		offset += size
	}
	r.weights = make([]float32, len(trainSet.FeatureNames()))
	if len(pairs) == 0 {
		log.Logger().Warn("no ordered pairs in training set")
		return nil
	}

	rng := r.GetRandomGenerator()
	diff := make([]float32, len(r.weights))
	for epoch := 1; epoch <= r.nEpochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return errors.Trace(err)
		}
		rng.Shuffle(len(pairs), func(i, j int) {
			pairs[i], pairs[j] = pairs[j], pairs[i]
		})
		var loss float32
		for _, pair := range pairs {
			var s float32
			for f := range diff {
				diff[f] = x[pair.better][f] - x[pair.worse][f]
				s += r.weights[f] * diff[f]
			}
			loss += softplus(-s)
			grad := sigmoid(-s)
			for f := range r.weights {
				r.weights[f] += r.lr * (grad*diff[f] - r.reg*r.weights[f])
			}
		}
		log.Logger().Debug("fit linear ranker",
			zap.Int("epoch", epoch),
			zap.Int("n_epochs", r.nEpochs),
			zap.Float32("loss", loss/float32(len(pairs))))
	}
	log.Logger().Info("fit linear ranker complete", zap.Any("weights", r.weights))
	return nil
}

// Predict returns one score per row. An unfitted ranker scores every row zero.
func (r *LinearRanker) Predict(features [][]float32) []float32 {
	scores := make([]float32, len(features))
	if r.weights == nil {
		return scores
	}
	for i, row := range features {
		x := r.transform(row)
		for f, w := range r.weights {
			if f < len(x) {
				scores[i] += w * x[f]
			}
		}
	}
	return scores
}

func (r *LinearRanker) fitScaler(features [][]float32) {
	n := len(features)
	width := len(features[0])
	r.mean = make([]float32, width)
	r.scale = make([]float32, width)
	for _, row := range features {
		for f, v := range row {
			r.mean[f] += v
		}
	}
	for f := range r.mean {
		r.mean[f] /= float32(n)
	}
	for _, row := range features {
		for f, v := range row {
			r.scale[f] += (v - r.mean[f]) * (v - r.mean[f])
		}
	}
	for f := range r.scale {
		r.scale[f] = math32.Sqrt(r.scale[f] / float32(n))
		if r.scale[f] == 0 {
			r.scale[f] = 1
		}
	}
}

func (r *LinearRanker) transform(row []float32) []float32 {
	x := make([]float32, len(row))
	for f, v := range row {
		if f < len(r.mean) {
			x[f] = (v - r.mean[f]) / r.scale[f]
		}
	}
	return x
}

func sigmoid(x float32) float32 {
	return 1 / (1 + math32.Exp(-x))
}

// softplus is log(1 + e^x).
func softplus(x float32) float32 {
	if x > 20 {
		return x
	}
	return math32.Log1p(math32.Exp(x))
}
