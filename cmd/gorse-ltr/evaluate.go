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
	"os"
	"strconv"

	"github.com/juju/errors"
	"github.com/olekukonko/tablewriter"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var evaluateCommand = &cobra.Command{
	Use:   "evaluate",
	Short: "Train the linear ranker and compare it with the popularity baseline",
	RunE: func(cmd *cobra.Command, args []string) error {
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
		score, err := pipeline.TrainAndEvaluate(cmd.Context(), ds)
		if err != nil {
			return errors.Trace(err)
		}

		k := globalConfig.Evaluation.TopK
		table := tablewriter.NewWriter(os.Stdout)
		table.Header("Metric", "Value")
		rows := [][]string{
			{fmt.Sprintf("NDCG@%d (model)", k), strconv.FormatFloat(float64(score.ModelNDCG), 'f', 4, 32)},
			{fmt.Sprintf("NDCG@%d (popularity)", k), strconv.FormatFloat(float64(score.BaselineNDCG), 'f', 4, 32)},
			{"Lift (%)", strconv.FormatFloat(float64(score.LiftPct), 'f', 2, 32)},
			{"Evaluated groups", strconv.Itoa(score.EvaluatedGroups)},
			{"Skipped groups", strconv.Itoa(score.SkippedGroups)},
		}
		for _, row := range rows {
			if err = table.Append(row); err != nil {
				return errors.Trace(err)
			}
		}
		return errors.Trace(table.Render())
	},
}

func init() {
	rootCommand.AddCommand(evaluateCommand)
}
