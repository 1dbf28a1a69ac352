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

package data

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gorse-io/ltr/base"
	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type CSVTestSuite struct {
	baseTestSuite
	dir string
}

func (suite *CSVTestSuite) SetupTest() {
	var err error
	suite.dir = filepath.Join(suite.T().TempDir(), "data")
	suite.Database, err = Open("csv://"+suite.dir, "")
	suite.NoError(err)
	suite.NoError(suite.Database.Init())
}

func (suite *CSVTestSuite) TearDownTest() {
	suite.NoError(suite.Database.Close())
}

func (suite *CSVTestSuite) writeFile(name, content string) {
	suite.NoError(os.WriteFile(filepath.Join(suite.dir, name), []byte(content), 0644))
}

func (suite *CSVTestSuite) TestHeader() {
	// extra columns in any order
	suite.writeFile(InteractionsFile, "\uFEFFwatched_pct,timestamp,item_id,user_id\n0.5,1,10,1\n\n1,2,11,2\n")
	interactions, err := suite.Database.LoadInteractions(context.Background())
	suite.NoError(err)
	suite.Len(interactions, 2)
	suite.Equal(int64(11), interactions[1].ItemId)
	suite.Equal(float32(1), interactions[1].WatchedPct)
	// missing column
	suite.writeFile(InteractionsFile, "user_id,item_id\n1,10\n")
	_, err = suite.Database.LoadInteractions(context.Background())
	suite.True(errors.Is(err, base.ErrInvalidInput))
	suite.Contains(err.Error(), "watched_pct")
	// empty file
	suite.writeFile(InteractionsFile, "")
	_, err = suite.Database.LoadInteractions(context.Background())
	suite.True(errors.Is(err, base.ErrInvalidInput))
}

func (suite *CSVTestSuite) TestMalformedRecord() {
	suite.writeFile(InteractionsFile, "user_id,item_id,watched_pct\n1,10,0.5\n1,x,0.5\n")
	_, err := suite.Database.LoadInteractions(context.Background())
	suite.True(errors.Is(err, base.ErrInvalidInput))
	suite.Contains(err.Error(), "line 3")
	suite.writeFile(InteractionsFile, "user_id,item_id,watched_pct\n1,10\n")
	_, err = suite.Database.LoadInteractions(context.Background())
	suite.True(errors.Is(err, base.ErrInvalidInput))
	suite.writeFile(MetadataFile, "item_id,genre,popularity,duration,release_date\n1,drama,0.5,90,not a date\n")
	_, err = suite.Database.LoadItems(context.Background())
	suite.True(errors.Is(err, base.ErrInvalidInput))
}

func (suite *CSVTestSuite) TestReleaseDateFormats() {
	suite.writeFile(MetadataFile, "item_id,genre,popularity,duration,release_date\n"+
		"1,drama,0.5,90,2021-03-04\n"+
		"2,comedy,0.1,100,2021/03/04\n"+
		"3,action,0.2,110,\n")
	items, err := suite.Database.LoadItems(context.Background())
	suite.NoError(err)
	suite.Len(items, 3)
	expected := time.Date(2021, 3, 4, 0, 0, 0, 0, time.UTC)
	suite.True(expected.Equal(items[0].ReleaseDate))
	suite.True(expected.Equal(items[1].ReleaseDate))
	suite.True(items[2].ReleaseDate.IsZero())
}

func (suite *CSVTestSuite) TestMissingFiles() {
	_, err := suite.Database.LoadInteractions(context.Background())
	suite.Error(err)
	_, err = suite.Database.LoadItems(context.Background())
	suite.Error(err)
	contexts, err := suite.Database.LoadUserContexts(context.Background())
	suite.NoError(err)
	suite.Empty(contexts)
}

func TestCSV(t *testing.T) {
	suite.Run(t, new(CSVTestSuite))
}

func TestSplitGenres(t *testing.T) {
	assert.Equal(t, []string{"comedy", "drama"}, SplitGenres("comedy| drama|"))
	assert.Empty(t, SplitGenres(""))
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "", formatDate(time.Time{}))
	assert.Equal(t, "2021-03-04", formatDate(time.Date(2021, 3, 4, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2021-03-04T05:06:07Z", formatDate(time.Date(2021, 3, 4, 5, 6, 7, 0, time.UTC)))
}
