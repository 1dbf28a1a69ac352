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
	"os"

	"github.com/gorse-io/ltr/base/log"
	"github.com/juju/errors"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var buildCommand = &cobra.Command{
	Use:   "build",
	Short: "Assemble the grouped training set and export it as CSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")
		pipeline, dataClient, err := openPipeline()
		if err != nil {
			return errors.Trace(err)
		}
		defer dataClient.Close()
		users, err := pipeline.TrainingUsers(cmd.Context())
		if err != nil {
			return errors.Trace(err)
		}
		bar := progressbar.Default(int64(len(users)), "Assembling training set")
		ds, err := pipeline.Build(cmd.Context(), users, bar)
		if err != nil {
			return errors.Trace(err)
		}
		_ = bar.Finish()

		w := os.Stdout
		if output != "" {
			if w, err = os.Create(output); err != nil {
				return errors.Trace(err)
			}
			defer w.Close()
		}
		if err = ds.WriteCSV(w); err != nil {
			return errors.Trace(err)
		}
		log.Logger().Info("export training set complete",
			zap.String("output", output),
			zap.Int("n_rows", ds.Count()),
			zap.Int("n_groups", ds.CountGroups()))
		return nil
	},
}

func init() {
	rootCommand.AddCommand(buildCommand)
	buildCommand.Flags().StringP("output", "o", "", "output file (default stdout)")
}
