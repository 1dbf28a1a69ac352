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

package main

import (
	"fmt"

	"github.com/gorse-io/ltr/base/log"
	"github.com/gorse-io/ltr/cmd/version"
	"github.com/gorse-io/ltr/config"
	"github.com/gorse-io/ltr/storage/data"
	"github.com/gorse-io/ltr/worker"
	"github.com/juju/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var globalConfig *config.Config

var rootCommand = &cobra.Command{
	Use:   "gorse-ltr",
	Short: "Learning-to-rank training data pipeline of gorse recommender system.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == versionCommand.Name() {
			return nil
		}
		// setup logger
		debug, _ := cmd.Flags().GetBool("debug")
		log.SetLogger(cmd.Flags(), debug)

		// load config
		configPath, _ := cmd.Flags().GetString("config")
		if configPath == "" {
			globalConfig = config.GetDefaultConfig()
		} else {
			log.Logger().Info("load config", zap.String("config", configPath))
			var err error
			if globalConfig, err = config.LoadConfig(configPath); err != nil {
				return errors.Trace(err)
			}
		}
		return nil
	},
	SilenceUsage: true,
}

var versionCommand = &cobra.Command{
	Use:   "version",
	Short: "Show the version of gorse-ltr",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Print(version.BuildInfo())
	},
}

func init() {
	log.AddFlags(rootCommand.PersistentFlags())
	rootCommand.PersistentFlags().Bool("debug", false, "use debug log mode")
	rootCommand.PersistentFlags().StringP("config", "c", "", "configuration file path")
	rootCommand.AddCommand(versionCommand)
}

// openPipeline connects to the configured data store. The caller closes the returned database.
func openPipeline() (*worker.Pipeline, data.Database, error) {
	log.Logger().Info("connect data store", zap.String("data_store", log.RedactDBURL(globalConfig.Database.DataStore)))
	dataClient, err := data.Open(globalConfig.Database.DataStore, globalConfig.Database.TablePrefix)
	if err != nil {
		return nil, nil, errors.Trace(err)
	}
	return worker.NewPipeline(globalConfig, dataClient), dataClient, nil
}

func main() {
	if err := rootCommand.Execute(); err != nil {
		log.Logger().Fatal("failed to execute", zap.Error(err))
	}
}
