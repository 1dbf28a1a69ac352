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
	"github.com/gorse-io/ltr/base/log"
	"github.com/gorse-io/ltr/storage/data"
	"github.com/juju/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var importCommand = &cobra.Command{
	Use:   "import",
	Short: "Copy interactions, items and user contexts into the configured data store",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		from, _ := cmd.Flags().GetString("from")
		source, err := data.Open(from, "")
		if err != nil {
			return errors.Trace(err)
		}
		defer source.Close()
		interactions, items, contexts, err := data.Load(ctx, source)
		if err != nil {
			return errors.Trace(err)
		}

		log.Logger().Info("connect data store", zap.String("data_store", log.RedactDBURL(globalConfig.Database.DataStore)))
		target, err := data.Open(globalConfig.Database.DataStore, globalConfig.Database.TablePrefix)
		if err != nil {
			return errors.Trace(err)
		}
		defer target.Close()
		if err = target.Init(); err != nil {
			return errors.Trace(err)
		}
		if err = target.BatchInsertItems(ctx, items); err != nil {
			return errors.Trace(err)
		}
		if err = target.BatchInsertInteractions(ctx, interactions); err != nil {
			return errors.Trace(err)
		}
		if err = target.BatchInsertUserContexts(ctx, contexts); err != nil {
			return errors.Trace(err)
		}
		log.Logger().Info("import data complete",
			zap.String("from", log.RedactDBURL(from)),
			zap.Int("n_interactions", len(interactions)),
			zap.Int("n_items", len(items)),
			zap.Int("n_user_contexts", len(contexts)))
		return nil
	},
}

func init() {
	rootCommand.AddCommand(importCommand)
	importCommand.Flags().String("from", "", "source data store, e.g. csv:///path/to/dataset")
	_ = importCommand.MarkFlagRequired("from")
}
