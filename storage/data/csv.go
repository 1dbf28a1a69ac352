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

package data

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/gorse-io/ltr/base"
	"github.com/gorse-io/ltr/base/log"
	"github.com/gorse-io/ltr/dataset"
	"github.com/juju/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

const (
	InteractionsFile = "interactions.csv"
	MetadataFile     = "metadata.csv"
	UserContextFile  = "user_context.csv"

	genreSeparator = "|"
)

var (
	interactionColumns = []string{"user_id", "item_id", "watched_pct"}
	itemColumns        = []string{"item_id", "genre", "popularity", "duration", "release_date"}
	userContextColumns = []string{"user_id", "device", "time_of_day", "recent_genres"}
)

// CSVDatabase stores tables as comma separated files with headers in a directory. The user
// context file is optional.
type CSVDatabase struct {
	dir string
}

func NewCSVDatabase(dir string) *CSVDatabase {
	return &CSVDatabase{dir: dir}
}

func (d *CSVDatabase) Init() error {
	return errors.Trace(os.MkdirAll(d.dir, os.ModePerm))
}

func (d *CSVDatabase) Close() error {
	return nil
}

func (d *CSVDatabase) LoadInteractions(ctx context.Context) ([]dataset.Interaction, error) {
	var interactions []dataset.Interaction
	err := d.readTable(ctx, InteractionsFile, interactionColumns, func(lineNumber int, get func(string) string) error {
		userId, err := parseInt64(get("user_id"), lineNumber)
		if err != nil {
			return err
		}
		itemId, err := parseInt64(get("item_id"), lineNumber)
		if err != nil {
			return err
		}
		watchedPct, err := parseFloat32(get("watched_pct"), lineNumber)
		if err != nil {
			return err
		}
		interactions = append(interactions, dataset.Interaction{UserId: userId, ItemId: itemId, WatchedPct: watchedPct})
		return nil
	})
	if err != nil {
		return nil, errors.Trace(err)
	}
	return interactions, nil
}

func (d *CSVDatabase) LoadItems(ctx context.Context) ([]dataset.Item, error) {
	var items []dataset.Item
	err := d.readTable(ctx, MetadataFile, itemColumns, func(lineNumber int, get func(string) string) error {
		var (
			item dataset.Item
			err  error
		)
		if item.ItemId, err = parseInt64(get("item_id"), lineNumber); err != nil {
			return err
		}
		item.Genre = strings.TrimSpace(get("genre"))
		if item.Popularity, err = parseFloat32(get("popularity"), lineNumber); err != nil {
			return err
		}
		if item.Duration, err = parseFloat32(get("duration"), lineNumber); err != nil {
			return err
		}
		if releaseDate := strings.TrimSpace(get("release_date")); releaseDate != "" {
			if item.ReleaseDate, err = dateparse.ParseIn(releaseDate, time.UTC); err != nil {
				return errors.Annotatef(base.ErrInvalidInput, "invalid release date `%s` at line %d", releaseDate, lineNumber)
			}
		}
		items = append(items, item)
		return nil
	})
	if err != nil {
		return nil, errors.Trace(err)
	}
	return items, nil
}

func (d *CSVDatabase) LoadUserContexts(ctx context.Context) ([]dataset.UserContext, error) {
	if _, err := os.Stat(filepath.Join(d.dir, UserContextFile)); os.IsNotExist(err) {
		log.Logger().Warn("user context file not found", zap.String("dir", d.dir))
		return nil, nil
	}
	var contexts []dataset.UserContext
	err := d.readTable(ctx, UserContextFile, userContextColumns, func(lineNumber int, get func(string) string) error {
		userId, err := parseInt64(get("user_id"), lineNumber)
		if err != nil {
			return err
		}
		contexts = append(contexts, dataset.UserContext{
			UserId:       userId,
			Device:       strings.TrimSpace(get("device")),
			TimeOfDay:    strings.TrimSpace(get("time_of_day")),
			RecentGenres: SplitGenres(get("recent_genres")),
		})
		return nil
	})
	if err != nil {
		return nil, errors.Trace(err)
	}
	return contexts, nil
}

func (d *CSVDatabase) BatchInsertInteractions(_ context.Context, interactions []dataset.Interaction) error {
	return d.appendTable(InteractionsFile, interactionColumns, lo.Map(interactions, func(i dataset.Interaction, _ int) []string {
		return []string{
			strconv.FormatInt(i.UserId, 10),
			strconv.FormatInt(i.ItemId, 10),
			formatFloat32(i.WatchedPct),
		}
	}))
}

func (d *CSVDatabase) BatchInsertItems(_ context.Context, items []dataset.Item) error {
	return d.appendTable(MetadataFile, itemColumns, lo.Map(items, func(item dataset.Item, _ int) []string {
		return []string{
			strconv.FormatInt(item.ItemId, 10),
			item.Genre,
			formatFloat32(item.Popularity),
			formatFloat32(item.Duration),
			formatDate(item.ReleaseDate),
		}
	}))
}

func (d *CSVDatabase) BatchInsertUserContexts(_ context.Context, contexts []dataset.UserContext) error {
	return d.appendTable(UserContextFile, userContextColumns, lo.Map(contexts, func(c dataset.UserContext, _ int) []string {
		return []string{
			strconv.FormatInt(c.UserId, 10),
			c.Device,
			c.TimeOfDay,
			strings.Join(c.RecentGenres, genreSeparator),
		}
	}))
}

// readTable checks the header before calling handler for each record. Line numbers start
// from 1 at the header.
func (d *CSVDatabase) readTable(ctx context.Context, name string, columns []string, handler func(int, func(string) string) error) error {
	file, err := os.Open(filepath.Join(d.dir, name))
	if err != nil {
		return errors.Trace(err)
	}
	defer file.Close()
	var index map[string]int
	err = base.ReadLines(bufio.NewScanner(file), ',', func(i int, fields []string) error {
		if i == 0 {
			index, err = base.ColumnIndex(fields, columns...)
			return errors.Annotatef(err, "invalid header of %s", name)
		}
		if i%10000 == 0 {
			if err := ctx.Err(); err != nil {
				return errors.Trace(err)
			}
		}
		if len(fields) != len(index) {
			return errors.Annotatef(base.ErrInvalidInput, "expect %d fields but got %d at line %d of %s",
				len(index), len(fields), i+1, name)
		}
		return handler(i+1, func(column string) string {
			return fields[index[column]]
		})
	})
	if err != nil {
		return errors.Trace(err)
	}
	if index == nil {
		return errors.Annotatef(base.ErrInvalidInput, "missing header of %s", name)
	}
	return nil
}

func (d *CSVDatabase) appendTable(name string, columns []string, records [][]string) error {
	path := filepath.Join(d.dir, name)
	_, err := os.Stat(path)
	newFile := os.IsNotExist(err)
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return errors.Trace(err)
	}
	defer file.Close()
	w := bufio.NewWriter(file)
	if newFile {
		records = append([][]string{columns}, records...)
	}
	for _, record := range records {
		if _, err = w.WriteString(strings.Join(lo.Map(record, func(field string, _ int) string {
			return base.Escape(field)
		}), ",") + "\n"); err != nil {
			return errors.Trace(err)
		}
	}
	return errors.Trace(w.Flush())
}

// SplitGenres splits a '|' separated genre list. Empty genres are dropped.
func SplitGenres(s string) []string {
	return lo.FilterMap(strings.Split(s, genreSeparator), func(genre string, _ int) (string, bool) {
		genre = strings.TrimSpace(genre)
		return genre, genre != ""
	})
}

func parseInt64(s string, lineNumber int) (int64, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, errors.Annotatef(base.ErrInvalidInput, "invalid integer `%s` at line %d", s, lineNumber)
	}
	return v, nil
}

func parseFloat32(s string, lineNumber int) (float32, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 32)
	if err != nil {
		return 0, errors.Annotatef(base.ErrInvalidInput, "invalid number `%s` at line %d", s, lineNumber)
	}
	return float32(v), nil
}

func formatFloat32(v float32) string {
	return strconv.FormatFloat(float64(v), 'g', -1, 32)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	if t.Equal(t.Truncate(24 * time.Hour)) {
		return t.Format(time.DateOnly)
	}
	return t.Format(time.RFC3339)
}
