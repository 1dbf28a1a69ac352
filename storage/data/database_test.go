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
	"time"

	"github.com/gorse-io/ltr/dataset"
	"github.com/stretchr/testify/suite"
)

type baseTestSuite struct {
	suite.Suite
	Database
}

func (suite *baseTestSuite) TestInteractions() {
	ctx := context.Background()
	interactions := []dataset.Interaction{
		{UserId: 3, ItemId: 30, WatchedPct: 0.9},
		{UserId: 1, ItemId: 10, WatchedPct: 0.25},
		{UserId: 3, ItemId: 10, WatchedPct: 0},
	}
	suite.NoError(suite.Database.BatchInsertInteractions(ctx, interactions[:2]))
	suite.NoError(suite.Database.BatchInsertInteractions(ctx, interactions[2:]))
	suite.NoError(suite.Database.BatchInsertInteractions(ctx, nil))
	loaded, err := suite.Database.LoadInteractions(ctx)
	suite.NoError(err)
	// insertion order is kept
	suite.Equal(interactions, loaded)
}

func (suite *baseTestSuite) TestItems() {
	ctx := context.Background()
	items := []dataset.Item{
		{ItemId: 20, Genre: "comedy", Popularity: 0.5, Duration: 95, ReleaseDate: time.Date(2020, 5, 1, 0, 0, 0, 0, time.UTC)},
		{ItemId: 10, Genre: "sci-fi, drama", Popularity: 0.25, Duration: 130.5},
	}
	suite.NoError(suite.Database.BatchInsertItems(ctx, items))
	loaded, err := suite.Database.LoadItems(ctx)
	suite.NoError(err)
	suite.Len(loaded, 2)
	suite.Equal(int64(20), loaded[0].ItemId)
	suite.Equal("comedy", loaded[0].Genre)
	suite.Equal(float32(0.5), loaded[0].Popularity)
	suite.Equal(float32(95), loaded[0].Duration)
	suite.True(items[0].ReleaseDate.Equal(loaded[0].ReleaseDate))
	suite.Equal(int64(10), loaded[1].ItemId)
	suite.Equal("sci-fi, drama", loaded[1].Genre)
	suite.Equal(float32(130.5), loaded[1].Duration)
	suite.True(loaded[1].ReleaseDate.IsZero())
	// the loaded items form a valid catalog
	_, err = dataset.NewCatalog(loaded)
	suite.NoError(err)
}

func (suite *baseTestSuite) TestUserContexts() {
	ctx := context.Background()
	contexts := []dataset.UserContext{
		{UserId: 1, Device: "mobile", TimeOfDay: "night", RecentGenres: []string{"comedy", "romance"}},
		{UserId: 2, Device: "tv", TimeOfDay: "evening", RecentGenres: []string{}},
	}
	suite.NoError(suite.Database.BatchInsertUserContexts(ctx, contexts))
	loaded, err := suite.Database.LoadUserContexts(ctx)
	suite.NoError(err)
	index, err := dataset.IndexUserContexts(loaded)
	suite.NoError(err)
	suite.Len(index, 2)
	suite.Equal(contexts[0], index[1])
	suite.Equal("tv", index[2].Device)
	suite.Equal("evening", index[2].TimeOfDay)
	suite.Empty(index[2].RecentGenres)
}

func (suite *baseTestSuite) TestLoad() {
	ctx := context.Background()
	suite.NoError(suite.Database.BatchInsertInteractions(ctx, []dataset.Interaction{{UserId: 1, ItemId: 10, WatchedPct: 1}}))
	suite.NoError(suite.Database.BatchInsertItems(ctx, []dataset.Item{{ItemId: 10, Genre: "drama"}}))
	interactions, items, contexts, err := Load(ctx, suite.Database)
	suite.NoError(err)
	suite.Len(interactions, 1)
	suite.Len(items, 1)
	suite.Empty(contexts)
}
