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

package data

import (
	"context"
	"fmt"
	"testing"

	"github.com/gorse-io/ltr/dataset"
	"github.com/stretchr/testify/suite"
)

type SQLiteTestSuite struct {
	baseTestSuite
}

func (suite *SQLiteTestSuite) SetupTest() {
	var err error
	// create database
	path := fmt.Sprintf("sqlite://%s/sqlite.db", suite.T().TempDir())
	suite.Database, err = Open(path, "")
	suite.NoError(err)
	// create schema
	err = suite.Database.Init()
	suite.NoError(err)
}

func (suite *SQLiteTestSuite) TearDownTest() {
	suite.NoError(suite.Database.Close())
}

func (suite *SQLiteTestSuite) TestUpsert() {
	ctx := context.Background()
	suite.NoError(suite.Database.BatchInsertItems(ctx, []dataset.Item{
		{ItemId: 1, Genre: "drama", Popularity: 0.1},
		{ItemId: 2, Genre: "comedy", Popularity: 0.2},
	}))
	suite.NoError(suite.Database.BatchInsertItems(ctx, []dataset.Item{
		{ItemId: 1, Genre: "thriller", Popularity: 0.3},
	}))
	items, err := suite.Database.LoadItems(ctx)
	suite.NoError(err)
	suite.Len(items, 2)
	// updated in place
	suite.Equal(int64(1), items[0].ItemId)
	suite.Equal("thriller", items[0].Genre)
	suite.Equal(float32(0.3), items[0].Popularity)

	suite.NoError(suite.Database.BatchInsertUserContexts(ctx, []dataset.UserContext{{UserId: 1, Device: "tv"}}))
	suite.NoError(suite.Database.BatchInsertUserContexts(ctx, []dataset.UserContext{{UserId: 1, Device: "mobile"}}))
	contexts, err := suite.Database.LoadUserContexts(ctx)
	suite.NoError(err)
	suite.Len(contexts, 1)
	suite.Equal("mobile", contexts[0].Device)
}

func TestSQLite(t *testing.T) {
	suite.Run(t, new(SQLiteTestSuite))
}
