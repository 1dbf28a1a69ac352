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

package model

import (
	"github.com/gorse-io/ltr/base"
)

// Model is implemented by every trainable ranker.
type Model interface {
	SetParams(params Params)
	GetParams() Params
	// Clear drops learned weights and keeps hyper-parameters.
	Clear()
}

// BaseModel holds the hyper-parameters shared by all models. Embed it and override
// SetParams to read model specific values.
type BaseModel struct {
	Params      Params
	RandomState int64
}

// SetParams keeps a copy of params so later changes by the caller have no effect.
func (model *BaseModel) SetParams(params Params) {
	model.Params = params.Copy()
	model.RandomState = model.Params.GetInt64(RandomState, 0)
}

func (model *BaseModel) GetParams() Params {
	return model.Params
}

// GetRandomGenerator returns a fresh generator seeded with the random state. Every fit
// starts from the same sequence.
func (model *BaseModel) GetRandomGenerator() base.RandomGenerator {
	return base.NewRandomGenerator(model.RandomState)
}
