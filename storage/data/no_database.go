// Copyright 2021 gorse Project Authors
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

package data

import (
	"context"

	"github.com/gorse-io/ltr/dataset"
)

// NoDatabase is used when no data store is configured.
type NoDatabase struct{}

func (NoDatabase) Init() error {
	return ErrNoDatabase
}

func (NoDatabase) Close() error {
	return ErrNoDatabase
}

func (NoDatabase) LoadInteractions(_ context.Context) ([]dataset.Interaction, error) {
	return nil, ErrNoDatabase
}

func (NoDatabase) LoadItems(_ context.Context) ([]dataset.Item, error) {
	return nil, ErrNoDatabase
}

func (NoDatabase) LoadUserContexts(_ context.Context) ([]dataset.UserContext, error) {
	return nil, ErrNoDatabase
}

func (NoDatabase) BatchInsertInteractions(_ context.Context, _ []dataset.Interaction) error {
	return ErrNoDatabase
}

func (NoDatabase) BatchInsertItems(_ context.Context, _ []dataset.Item) error {
	return ErrNoDatabase
}

func (NoDatabase) BatchInsertUserContexts(_ context.Context, _ []dataset.UserContext) error {
	return ErrNoDatabase
}
