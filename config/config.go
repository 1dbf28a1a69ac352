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
	"reflect"

	"github.com/go-playground/validator/v10"
	"github.com/gorse-io/ltr/base"
	"github.com/gorse-io/ltr/features"
	"github.com/gorse-io/ltr/model"
	"github.com/juju/errors"
	"github.com/spf13/viper"
)

// Config is the configuration of the training data pipeline.
type Config struct {
	Database   DatabaseConfig   `mapstructure:"database"`
	Candidates CandidatesConfig `mapstructure:"candidates"`
	Training   TrainingConfig   `mapstructure:"training"`
	Features   FeaturesConfig   `mapstructure:"features"`
	Ranker     RankerConfig     `mapstructure:"ranker"`
	Evaluation EvaluationConfig `mapstructure:"evaluation"`
}

// DatabaseConfig is the configuration for the data store.
type DatabaseConfig struct {
	DataStore   string `mapstructure:"data_store" validate:"required"`
	TablePrefix string `mapstructure:"table_prefix"`
}

type CandidatesConfig struct {
	NumNeighbors int `mapstructure:"num_neighbors" validate:"gt=0"`
	TopK         int `mapstructure:"top_k" validate:"gte=0"`
}

type TrainingConfig struct {
	MinPositiveWatchPct float32 `mapstructure:"min_positive_watch_pct" validate:"gte=0,lte=1"`
	NegativesPerUser    int     `mapstructure:"negatives_per_user" validate:"gte=0"`
	RandomState         int64   `mapstructure:"random_state"`
	NumUsers            int     `mapstructure:"num_users" validate:"gte=0"`
	Jobs                int     `mapstructure:"jobs" validate:"gt=0"`
}

type FeaturesConfig struct {
	DecayLambda float32 `mapstructure:"decay_lambda" validate:"gte=0"`
}

type RankerConfig struct {
	Lr          float32 `mapstructure:"lr" validate:"gt=0"`
	Reg         float32 `mapstructure:"reg" validate:"gte=0"`
	NEpochs     int     `mapstructure:"n_epochs" validate:"gt=0"`
	RandomState int64   `mapstructure:"random_state"`
}

// GetParams returns hyper-parameters of the linear ranker.
func (config *RankerConfig) GetParams() model.Params {
	return model.Params{
		model.Lr:          config.Lr,
		model.Reg:         config.Reg,
		model.NEpochs:     config.NEpochs,
		model.RandomState: config.RandomState,
	}
}

type EvaluationConfig struct {
	TopK int `mapstructure:"top_k" validate:"gt=0"`
}

func GetDefaultConfig() *Config {
	return &Config{
		Candidates: CandidatesConfig{
			NumNeighbors: 10,
			TopK:         100,
		},
		Training: TrainingConfig{
			MinPositiveWatchPct: 0.5,
			NegativesPerUser:    15,
			RandomState:         42,
			Jobs:                1,
		},
		Features: FeaturesConfig{
			DecayLambda: features.DefaultDecayLambda,
		},
		Ranker: RankerConfig{
			Lr:          0.05,
			Reg:         0.0001,
			NEpochs:     50,
			RandomState: 42,
		},
		Evaluation: EvaluationConfig{
			TopK: 10,
		},
	}
}

func setDefault() {
	defaultConfig := GetDefaultConfig()
	// [database]
	viper.SetDefault("database.data_store", defaultConfig.Database.DataStore)
	viper.SetDefault("database.table_prefix", defaultConfig.Database.TablePrefix)
	// [candidates]
	viper.SetDefault("candidates.num_neighbors", defaultConfig.Candidates.NumNeighbors)
	viper.SetDefault("candidates.top_k", defaultConfig.Candidates.TopK)
	// [training]
	viper.SetDefault("training.min_positive_watch_pct", defaultConfig.Training.MinPositiveWatchPct)
	viper.SetDefault("training.negatives_per_user", defaultConfig.Training.NegativesPerUser)
	viper.SetDefault("training.random_state", defaultConfig.Training.RandomState)
	viper.SetDefault("training.num_users", defaultConfig.Training.NumUsers)
	viper.SetDefault("training.jobs", defaultConfig.Training.Jobs)
	// [features]
	viper.SetDefault("features.decay_lambda", defaultConfig.Features.DecayLambda)
	// [ranker]
	viper.SetDefault("ranker.lr", defaultConfig.Ranker.Lr)
	viper.SetDefault("ranker.reg", defaultConfig.Ranker.Reg)
	viper.SetDefault("ranker.n_epochs", defaultConfig.Ranker.NEpochs)
	viper.SetDefault("ranker.random_state", defaultConfig.Ranker.RandomState)
	// [evaluation]
	viper.SetDefault("evaluation.top_k", defaultConfig.Evaluation.TopK)
}

type configBinding struct {
	key string
	env string
}

func bindEnv() error {
	bindings := []configBinding{
		{"database.data_store", "GORSE_LTR_DATA_STORE"},
		{"database.table_prefix", "GORSE_LTR_TABLE_PREFIX"},
		{"training.random_state", "GORSE_LTR_RANDOM_STATE"},
		{"training.jobs", "GORSE_LTR_JOBS"},
	}
	for _, binding := range bindings {
		if err := viper.BindEnv(binding.key, binding.env); err != nil {
			return errors.Trace(err)
		}
	}
	return nil
}

// LoadConfig loads configuration from a TOML file. Missing keys take default values and
// environment variables take precedence over the file.
func LoadConfig(path string) (*Config, error) {
	setDefault()
	if err := bindEnv(); err != nil {
		return nil, errors.Trace(err)
	}
	viper.SetConfigType("toml")
	viper.SetConfigFile(path)
	if err := viper.ReadInConfig(); err != nil {
		return nil, errors.Trace(err)
	}
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, errors.Annotatef(base.ErrInvalidInput, "failed to parse %s: %v", path, err)
	}
	if err := config.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	return &config, nil
}

// Validate checks value ranges of every section.
func (config *Config) Validate() error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		return field.Tag.Get("mapstructure")
	})
	if err := validate.Struct(config); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return invalidConfig(validationErrors)
		}
		return errors.Trace(err)
	}
	return nil
}
