// Copyright 2021 gorse Project Authors
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
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/gorse-io/ltr/dataset"
	"github.com/gorse-io/ltr/storage"
	"github.com/juju/errors"
	_ "github.com/lib/pq"
	"github.com/samber/lo"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	_ "modernc.org/sqlite"
)

type SQLDriver int

const (
	MySQL SQLDriver = iota
	Postgres
	SQLite
)

type SQLInteraction struct {
	ID         int64   `gorm:"column:id;primaryKey;autoIncrement"`
	UserId     int64   `gorm:"column:user_id;not null;index"`
	ItemId     int64   `gorm:"column:item_id;not null"`
	WatchedPct float32 `gorm:"column:watched_pct;not null"`
}

type SQLItem struct {
	ID          int64      `gorm:"column:id;primaryKey;autoIncrement"`
	ItemId      int64      `gorm:"column:item_id;not null;uniqueIndex"`
	Genre       string     `gorm:"column:genre;type:varchar(256);not null"`
	Popularity  float32    `gorm:"column:popularity;not null"`
	Duration    float32    `gorm:"column:duration;not null"`
	ReleaseDate *time.Time `gorm:"column:release_date"`
}

type SQLUserContext struct {
	UserId       int64  `gorm:"column:user_id;primaryKey;autoIncrement:false"`
	Device       string `gorm:"column:device;type:varchar(256);not null"`
	TimeOfDay    string `gorm:"column:time_of_day;type:varchar(256);not null"`
	RecentGenres string `gorm:"column:recent_genres;type:text;not null"`
}

// SQLDatabase stores tables in MySQL, Postgres or SQLite.
type SQLDatabase struct {
	storage.TablePrefix
	gormDB *gorm.DB
	client *sql.DB
	driver SQLDriver
}

// Init tables and indices.
func (d *SQLDatabase) Init() error {
	db := d.gormDB
	if d.driver == MySQL {
		db = db.Set("gorm:table_options", "ENGINE=InnoDB")
	}
	err := db.AutoMigrate(SQLInteraction{}, SQLItem{}, SQLUserContext{})
	return errors.Trace(err)
}

func (d *SQLDatabase) Close() error {
	return d.client.Close()
}

func (d *SQLDatabase) LoadInteractions(ctx context.Context) ([]dataset.Interaction, error) {
	start := time.Now()
	var rows []SQLInteraction
	if err := d.gormDB.WithContext(ctx).Table(d.InteractionsTable()).Order("id").Find(&rows).Error; err != nil {
		return nil, errors.Trace(err)
	}
	LoadInteractionsSeconds.Observe(time.Since(start).Seconds())
	return lo.Map(rows, func(row SQLInteraction, _ int) dataset.Interaction {
		return dataset.Interaction{UserId: row.UserId, ItemId: row.ItemId, WatchedPct: row.WatchedPct}
	}), nil
}

// LoadItems returns items in the order they were first inserted.
func (d *SQLDatabase) LoadItems(ctx context.Context) ([]dataset.Item, error) {
	start := time.Now()
	var rows []SQLItem
	if err := d.gormDB.WithContext(ctx).Table(d.ItemsTable()).Order("id").Find(&rows).Error; err != nil {
		return nil, errors.Trace(err)
	}
	LoadItemsSeconds.Observe(time.Since(start).Seconds())
	return lo.Map(rows, func(row SQLItem, _ int) dataset.Item {
		item := dataset.Item{
			ItemId:     row.ItemId,
			Genre:      row.Genre,
			Popularity: row.Popularity,
			Duration:   row.Duration,
		}
		if row.ReleaseDate != nil {
			item.ReleaseDate = row.ReleaseDate.In(time.UTC)
		}
		return item
	}), nil
}

func (d *SQLDatabase) LoadUserContexts(ctx context.Context) ([]dataset.UserContext, error) {
	start := time.Now()
	var rows []SQLUserContext
	if err := d.gormDB.WithContext(ctx).Table(d.UserContextsTable()).Order("user_id").Find(&rows).Error; err != nil {
		return nil, errors.Trace(err)
	}
	LoadUserContextsSeconds.Observe(time.Since(start).Seconds())
	return lo.Map(rows, func(row SQLUserContext, _ int) dataset.UserContext {
		return dataset.UserContext{
			UserId:       row.UserId,
			Device:       row.Device,
			TimeOfDay:    row.TimeOfDay,
			RecentGenres: SplitGenres(row.RecentGenres),
		}
	}), nil
}

func (d *SQLDatabase) BatchInsertInteractions(ctx context.Context, interactions []dataset.Interaction) error {
	if len(interactions) == 0 {
		return nil
	}
	start := time.Now()
	rows := lo.Map(interactions, func(i dataset.Interaction, _ int) SQLInteraction {
		return SQLInteraction{UserId: i.UserId, ItemId: i.ItemId, WatchedPct: i.WatchedPct}
	})
	if err := d.gormDB.WithContext(ctx).Table(d.InteractionsTable()).Create(&rows).Error; err != nil {
		return errors.Trace(err)
	}
	BatchInsertInteractionsSeconds.Observe(time.Since(start).Seconds())
	return nil
}

// BatchInsertItems inserts items or updates existing ones in place.
func (d *SQLDatabase) BatchInsertItems(ctx context.Context, items []dataset.Item) error {
	if len(items) == 0 {
		return nil
	}
	start := time.Now()
	rows := lo.Map(items, func(item dataset.Item, _ int) SQLItem {
		row := SQLItem{
			ItemId:     item.ItemId,
			Genre:      item.Genre,
			Popularity: item.Popularity,
			Duration:   item.Duration,
		}
		if !item.ReleaseDate.IsZero() {
			row.ReleaseDate = lo.ToPtr(item.ReleaseDate.In(time.UTC))
		}
		return row
	})
	err := d.gormDB.WithContext(ctx).Table(d.ItemsTable()).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "item_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"genre", "popularity", "duration", "release_date"}),
	}).Create(&rows).Error
	if err != nil {
		return errors.Trace(err)
	}
	BatchInsertItemsSeconds.Observe(time.Since(start).Seconds())
	return nil
}

func (d *SQLDatabase) BatchInsertUserContexts(ctx context.Context, contexts []dataset.UserContext) error {
	if len(contexts) == 0 {
		return nil
	}
	start := time.Now()
	rows := lo.Map(contexts, func(c dataset.UserContext, _ int) SQLUserContext {
		return SQLUserContext{
			UserId:       c.UserId,
			Device:       c.Device,
			TimeOfDay:    c.TimeOfDay,
			RecentGenres: strings.Join(c.RecentGenres, genreSeparator),
		}
	})
	err := d.gormDB.WithContext(ctx).Table(d.UserContextsTable()).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"device", "time_of_day", "recent_genres"}),
	}).Create(&rows).Error
	if err != nil {
		return errors.Trace(err)
	}
	BatchInsertUserContextsSeconds.Observe(time.Since(start).Seconds())
	return nil
}
