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

package base

import (
	"math/rand"

	mapset "github.com/deckarep/golang-set/v2"
)

// RandomGenerator is the random generator for gorse.
type RandomGenerator struct {
	*rand.Rand
}

// NewRandomGenerator creates a RandomGenerator.
func NewRandomGenerator(seed int64) RandomGenerator {
	return RandomGenerator{rand.New(rand.NewSource(seed))}
}

// DeriveSeed mixes a top-level seed with a key (e.g. a user id) using splitmix64. Generators
// seeded this way are independent of the order in which keys are processed.
func DeriveSeed(seed, key int64) int64 {
	z := uint64(seed) ^ uint64(key)
	z += 0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return int64(z ^ (z >> 31))
}

// Sample n distinct values in [0, size) without replacement, but not in exclude. If fewer than
// n values are eligible, all of them are returned in ascending order.
func (rng RandomGenerator) Sample(size, n int, exclude mapset.Set[int]) []int {
	eligible := make([]int, 0, size)
	for i := 0; i < size; i++ {
		if exclude == nil || !exclude.Contains(i) {
			eligible = append(eligible, i)
		}
	}
	if n >= len(eligible) {
		return eligible
	}
	if n <= 0 {
		return []int{}
	}
	// partial Fisher-Yates shuffle
	for i := 0; i < n; i++ {
		j := i + rng.Intn(len(eligible)-i)
		eligible[i], eligible[j] = eligible[j], eligible[i]
	}
	return eligible[:n]
}
