// Copyright 2025 gorse Project Authors
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
	"testing"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/gorse-io/ltr/base"
	"github.com/gorse-io/ltr/dataset"
	"github.com/juju/errors"
	"github.com/stretchr/testify/suite"
)

type CandidateGeneratorTestSuite struct {
	suite.Suite
	store *dataset.InteractionStore
}

func (suite *CandidateGeneratorTestSuite) SetupTest() {
	histories := []struct {
		userId int64
		items  []int64
	}{
		{1, []int64{1, 2, 3}},
		{2, []int64{1, 2, 4, 5}},
		{3, []int64{3, 6}},
		{4, []int64{7}},
		{6, []int64{1}},
		{7, []int64{1, 8}},
	}
	var interactions []dataset.Interaction
	for _, h := range histories {
		for _, itemId := range h.items {
			interactions = append(interactions, dataset.Interaction{UserId: h.userId, ItemId: itemId, WatchedPct: 0.5})
		}
	}
	// repeated interactions do not change the history
	interactions = append(interactions, dataset.Interaction{UserId: 1, ItemId: 1, WatchedPct: 1})
	var err error
	suite.store, err = dataset.NewInteractionStore(interactions, 5)
	suite.NoError(err)
}

func (suite *CandidateGeneratorTestSuite) TestSimilarUsers() {
	generator, err := NewCandidateGenerator(suite.store, 10)
	suite.NoError(err)
	neighbors, err := generator.SimilarUsers(1)
	suite.NoError(err)
	suite.Equal([]Neighbor{
		{UserId: 2, Similarity: 2},
		{UserId: 3, Similarity: 1},
		{UserId: 6, Similarity: 1},
		{UserId: 7, Similarity: 1},
	}, neighbors)

	generator, err = NewCandidateGenerator(suite.store, 2)
	suite.NoError(err)
	neighbors, err = generator.SimilarUsers(1)
	suite.NoError(err)
	suite.Equal([]Neighbor{{UserId: 2, Similarity: 2}, {UserId: 3, Similarity: 1}}, neighbors)

	neighbors, err = generator.SimilarUsers(5)
	suite.NoError(err)
	suite.Empty(neighbors)
	_, err = generator.SimilarUsers(100)
	suite.True(errors.Is(err, base.ErrInvalidInput))
}

func (suite *CandidateGeneratorTestSuite) TestGenerateCandidates() {
	generator, err := NewCandidateGenerator(suite.store, 2)
	suite.NoError(err)
	candidates, err := generator.GenerateCandidates(1, 100)
	suite.NoError(err)
	suite.Equal([]int64{4, 5, 6}, candidates)

	candidates, err = generator.GenerateCandidates(1, 2)
	suite.NoError(err)
	suite.Equal([]int64{4, 5}, candidates)

	candidates, err = generator.GenerateCandidates(1, 0)
	suite.NoError(err)
	suite.Empty(candidates)

	_, err = generator.GenerateCandidates(1, -1)
	suite.True(errors.Is(err, base.ErrInvalidInput))
}

func (suite *CandidateGeneratorTestSuite) TestTiesFollowFirstSeenOrder() {
	generator, err := NewCandidateGenerator(suite.store, 10)
	suite.NoError(err)
	candidates, err := generator.GenerateCandidates(6, 100)
	suite.NoError(err)
	suite.Equal([]int64{2, 3, 4, 5, 8}, candidates)
	// repeated calls give the same order
	for i := 0; i < 10; i++ {
		again, err := generator.GenerateCandidates(6, 100)
		suite.NoError(err)
		suite.Equal(candidates, again)
	}
}

func (suite *CandidateGeneratorTestSuite) TestColdStart() {
	generator, err := NewCandidateGenerator(suite.store, 10)
	suite.NoError(err)
	// known user without history
	candidates, err := generator.GenerateCandidates(5, 10)
	suite.NoError(err)
	suite.NotNil(candidates)
	suite.Empty(candidates)
	// user without overlap
	candidates, err = generator.GenerateCandidates(4, 10)
	suite.NoError(err)
	suite.Empty(candidates)
	// unknown user
	_, err = generator.GenerateCandidates(100, 10)
	suite.True(errors.Is(err, base.ErrInvalidInput))
}

func (suite *CandidateGeneratorTestSuite) TestNoSelfRecommendation() {
	generator, err := NewCandidateGenerator(suite.store, 3)
	suite.NoError(err)
	for _, userId := range suite.store.Users() {
		history, err := suite.store.History(userId)
		suite.NoError(err)
		seen := mapset.NewSet(history...)
		for _, topK := range []int{1, 2, 5, 100} {
			candidates, err := generator.GenerateCandidates(userId, topK)
			suite.NoError(err)
			suite.LessOrEqual(len(candidates), topK)
			suite.Equal(len(candidates), mapset.NewSet(candidates...).Cardinality())
			for _, itemId := range candidates {
				suite.False(seen.Contains(itemId), "user %d already watched item %d", userId, itemId)
			}
		}
	}
}

func (suite *CandidateGeneratorTestSuite) TestInvalidNeighbors() {
	_, err := NewCandidateGenerator(suite.store, 0)
	suite.True(errors.Is(err, base.ErrInvalidInput))
}

func TestCandidateGenerator(t *testing.T) {
	suite.Run(t, new(CandidateGeneratorTestSuite))
}
