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

	"github.com/juju/errors"
	"github.com/spf13/cobra"
)

var candidatesCommand = &cobra.Command{
	Use:   "candidates",
	Short: "Generate candidate items for a user from similar users",
	RunE: func(cmd *cobra.Command, args []string) error {
		userId, _ := cmd.Flags().GetInt64("user")
		topK, _ := cmd.Flags().GetInt("top-k")
		if !cmd.Flags().Changed("top-k") {
			topK = globalConfig.Candidates.TopK
		}
		pipeline, dataClient, err := openPipeline()
		if err != nil {
			return errors.Trace(err)
		}
		defer dataClient.Close()
		candidates, err := pipeline.Candidates(cmd.Context(), userId, topK)
		if err != nil {
			return errors.Trace(err)
		}
		for _, itemId := range candidates {
			fmt.Println(itemId)
		}
		return nil
	},
}

func init() {
	rootCommand.AddCommand(candidatesCommand)
	candidatesCommand.Flags().Int64P("user", "u", 0, "user id")
	candidatesCommand.Flags().IntP("top-k", "k", 0, "number of candidates (default from config)")
	_ = candidatesCommand.MarkFlagRequired("user")
}
