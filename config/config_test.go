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

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gorse-io/ltr/base"
	"github.com/gorse-io/ltr/model"
	"github.com/juju/errors"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestUnmarshal(t *testing.T) {
	data, err := os.ReadFile("config.toml.template")
	assert.NoError(t, err)
	text := string(data)
	text = strings.Replace(text, "negatives_per_user = 15", "negatives_per_user = 5", -1)
	viper.Reset()
	viper.SetConfigType("toml")
	err = viper.ReadConfig(strings.NewReader(text))
	assert.NoError(t, err)
	var config Config
	err = viper.Unmarshal(&config)
	assert.NoError(t, err)

	// [database]
	assert.Equal(t, "csv://data", config.Database.DataStore)
	assert.Equal(t, "", config.Database.TablePrefix)
	// [candidates]
	assert.Equal(t, 10, config.Candidates.NumNeighbors)
	assert.Equal(t, 100, config.Candidates.TopK)
	// [training]
	assert.Equal(t, float32(0.5), config.Training.MinPositiveWatchPct)
	assert.Equal(t, 5, config.Training.NegativesPerUser)
	assert.Equal(t, int64(42), config.Training.RandomState)
	assert.Equal(t, 0, config.Training.NumUsers)
	assert.Equal(t, 1, config.Training.Jobs)
	// [features]
	assert.Equal(t, float32(0.01), config.Features.DecayLambda)
	// [ranker]
	assert.Equal(t, float32(0.05), config.Ranker.Lr)
	assert.Equal(t, float32(0.0001), config.Ranker.Reg)
	assert.Equal(t, 50, config.Ranker.NEpochs)
	assert.Equal(t, int64(42), config.Ranker.RandomState)
	// [evaluation]
	assert.Equal(t, 10, config.Evaluation.TopK)
	assert.NoError(t, config.Validate())
}

func TestSetDefault(t *testing.T) {
	viper.Reset()
	setDefault()
	viper.SetConfigType("toml")
	err := viper.ReadConfig(strings.NewReader(""))
	assert.NoError(t, err)
	var config Config
	err = viper.Unmarshal(&config)
	assert.NoError(t, err)
	assert.Equal(t, GetDefaultConfig(), &config)
}

type environmentVariable struct {
	key   string
	value string
}

func TestBindEnv(t *testing.T) {
	variables := []environmentVariable{
		{"GORSE_LTR_DATA_STORE", "sqlite://ltr.db"},
		{"GORSE_LTR_TABLE_PREFIX", "ltr_"},
		{"GORSE_LTR_RANDOM_STATE", "7"},
		{"GORSE_LTR_JOBS", "4"},
	}
	for _, variable := range variables {
		t.Setenv(variable.key, variable.value)
	}

	viper.Reset()
	config, err := LoadConfig("config.toml.template")
	assert.NoError(t, err)
	assert.Equal(t, "sqlite://ltr.db", config.Database.DataStore)
	assert.Equal(t, "ltr_", config.Database.TablePrefix)
	assert.Equal(t, int64(7), config.Training.RandomState)
	assert.Equal(t, 4, config.Training.Jobs)

	// check default values
	assert.Equal(t, 10, config.Evaluation.TopK)
}

func TestLoadConfig_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	err := os.WriteFile(path, []byte(`
[database]
data_store = "csv://data"

[training]
min_positive_watch_pct = 1.5
jobs = 0
`), 0644)
	assert.NoError(t, err)
	viper.Reset()
	_, err = LoadConfig(path)
	assert.True(t, errors.Is(err, base.ErrInvalidInput))
	assert.Contains(t, err.Error(), "training.min_positive_watch_pct")
	assert.Contains(t, err.Error(), "training.jobs")

	// data store is required
	err = os.WriteFile(path, []byte("[training]\njobs = 2\n"), 0644)
	assert.NoError(t, err)
	viper.Reset()
	_, err = LoadConfig(path)
	assert.True(t, errors.Is(err, base.ErrInvalidInput))
	assert.Contains(t, err.Error(), "database.data_store")
}

func TestRankerConfig_GetParams(t *testing.T) {
	params := GetDefaultConfig().Ranker.GetParams()
	assert.Equal(t, float32(0.05), params.GetFloat32(model.Lr, 0))
	assert.Equal(t, 50, params.GetInt(model.NEpochs, 0))
	assert.Equal(t, int64(42), params.GetInt64(model.RandomState, 0))
}
