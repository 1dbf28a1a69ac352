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
	"sort"

	"github.com/bits-and-blooms/bitset"
	"github.com/gorse-io/ltr/base"
	"github.com/gorse-io/ltr/base/log"
	"github.com/gorse-io/ltr/dataset"
	"github.com/juju/errors"
	"go.uber.org/zap"
)

// Neighbor is a user sharing history with the target user.
type Neighbor struct {
	UserId     int64
	Similarity int
}

// CandidateGenerator recalls items watched by users whose histories overlap with the
// target user's history.
type CandidateGenerator struct {
	store        *dataset.InteractionStore
	numNeighbors int
}

func NewCandidateGenerator(store *dataset.InteractionStore, numNeighbors int) (*CandidateGenerator, error) {
	if numNeighbors <= 0 {
		return nil, errors.Annotatef(base.ErrInvalidInput, "number of neighbors must be positive, got %d", numNeighbors)
	}
	return &CandidateGenerator{store: store, numNeighbors: numNeighbors}, nil
}

// SimilarUsers returns at most numNeighbors users ordered by descending overlap. Users with
// equal overlap keep the order in which they first appear in the interaction log.
func (g *CandidateGenerator) SimilarUsers(userId int64) ([]Neighbor, error) {
	userIndex, ok := g.store.UserIndex(userId)
	if !ok {
		return nil, errors.Annotatef(base.ErrInvalidInput, "unknown user %d", userId)
	}
	return g.similarUsers(userIndex), nil
}

func (g *CandidateGenerator) similarUsers(userIndex int32) []Neighbor {
	history := g.store.UserHistorySet(userIndex)
	if history.None() {
		return nil
	}
	users := g.store.Users()
	var neighbors []Neighbor
	for other := range users {
		if int32(other) == userIndex {
			continue
		}
		overlap := history.IntersectionCardinality(g.store.UserHistorySet(int32(other)))
		if overlap > 0 {
			neighbors = append(neighbors, Neighbor{UserId: users[other], Similarity: int(overlap)})
		}
	}
	sort.SliceStable(neighbors, func(i, j int) bool {
		return neighbors[i].Similarity > neighbors[j].Similarity
	})
	if len(neighbors) > g.numNeighbors {
		neighbors = neighbors[:g.numNeighbors]
	}
	return neighbors
}

// GenerateCandidates returns up to topK items watched by similar users but never by the
// target user. A known user without history gets no candidates.
func (g *CandidateGenerator) GenerateCandidates(userId int64, topK int) ([]int64, error) {
	userIndex, ok := g.store.UserIndex(userId)
	if !ok {
		return nil, errors.Annotatef(base.ErrInvalidInput, "unknown user %d", userId)
	}
	if topK < 0 {
		return nil, errors.Annotatef(base.ErrInvalidInput, "top k must not be negative, got %d", topK)
	}
	history := g.store.UserHistorySet(userIndex)
	candidates := make([]int64, 0, topK)
	if history.None() || topK == 0 {
		return candidates, nil
	}
	neighbors := g.similarUsers(userIndex)
	// union neighbor histories in neighbor rank order, then first-seen order
	visited := bitset.New(uint(g.store.CountItems()))
	for _, neighbor := range neighbors {
		neighborIndex, _ := g.store.UserIndex(neighbor.UserId)
		for _, itemIndex := range g.store.UserHistory(neighborIndex) {
			if history.Test(uint(itemIndex)) || visited.Test(uint(itemIndex)) {
				continue
			}
			visited.Set(uint(itemIndex))
			candidates = append(candidates, g.store.ItemId(itemIndex))
			if len(candidates) == topK {
				break
			}
		}
		if len(candidates) == topK {
			break
		}
	}
	GeneratedCandidatesTotal.Add(float64(len(candidates)))
	log.Logger().Debug("generate candidates",
		zap.Int64("user_id", userId),
		zap.Int("n_neighbors", len(neighbors)),
		zap.Int("n_candidates", len(candidates)))
	return candidates, nil
}
