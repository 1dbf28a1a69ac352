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
	"strings"

	"github.com/XSAM/otelsql"
	"github.com/gorse-io/ltr/base/log"
	"github.com/gorse-io/ltr/dataset"
	"github.com/gorse-io/ltr/storage"
	"github.com/juju/errors"
	"github.com/samber/lo"
	semconv "go.opentelemetry.io/otel/semconv/v1.12.0"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var ErrNoDatabase = errors.NotAssignedf("database")

// Database is the source of interactions, item metadata and user contexts.
type Database interface {
	Init() error
	Close() error
	// LoadInteractions returns all interactions in insertion order.
	LoadInteractions(ctx context.Context) ([]dataset.Interaction, error)
	LoadItems(ctx context.Context) ([]dataset.Item, error)
	LoadUserContexts(ctx context.Context) ([]dataset.UserContext, error)
	BatchInsertInteractions(ctx context.Context, interactions []dataset.Interaction) error
	BatchInsertItems(ctx context.Context, items []dataset.Item) error
	BatchInsertUserContexts(ctx context.Context, contexts []dataset.UserContext) error
}

// Open a connection to a database.
func Open(path, tablePrefix string) (Database, error) {
	var err error
	if path == "" {
		return NoDatabase{}, nil
	} else if strings.HasPrefix(path, storage.CSVPrefix) {
		return NewCSVDatabase(path[len(storage.CSVPrefix):]), nil
	} else if strings.HasPrefix(path, storage.MySQLPrefix) {
		name := path[len(storage.MySQLPrefix):]
		// append parameters
		if name, err = storage.AppendMySQLParams(name, map[string]string{
			"sql_mode":  "'ONLY_FULL_GROUP_BY,STRICT_TRANS_TABLES,ERROR_FOR_DIVISION_BY_ZERO,NO_ENGINE_SUBSTITUTION'",
			"parseTime": "true",
		}); err != nil {
			return nil, errors.Trace(err)
		}
		// connect to database
		database := new(SQLDatabase)
		database.driver = MySQL
		database.TablePrefix = storage.TablePrefix(tablePrefix)
		if database.client, err = otelsql.Open("mysql", name,
			otelsql.WithAttributes(semconv.DBSystemMySQL),
			otelsql.WithSpanOptions(otelsql.SpanOptions{DisableErrSkip: true}),
		); err != nil {
			return nil, errors.Trace(err)
		}
		database.gormDB, err = gorm.Open(mysql.New(mysql.Config{Conn: database.client}), storage.NewGORMConfig(tablePrefix))
		if err != nil {
			return nil, errors.Trace(err)
		}
		return database, nil
	} else if strings.HasPrefix(path, storage.PostgresPrefix) || strings.HasPrefix(path, storage.PostgreSQLPrefix) {
		database := new(SQLDatabase)
		database.driver = Postgres
		database.TablePrefix = storage.TablePrefix(tablePrefix)
		if database.client, err = otelsql.Open("postgres", path,
			otelsql.WithAttributes(semconv.DBSystemPostgreSQL),
			otelsql.WithSpanOptions(otelsql.SpanOptions{DisableErrSkip: true}),
		); err != nil {
			return nil, errors.Trace(err)
		}
		database.gormDB, err = gorm.Open(postgres.New(postgres.Config{Conn: database.client}), storage.NewGORMConfig(tablePrefix))
		if err != nil {
			return nil, errors.Trace(err)
		}
		return database, nil
	} else if strings.HasPrefix(path, storage.SQLitePrefix) {
		name := path[len(storage.SQLitePrefix):]
		// append parameters
		if name, err = storage.AppendURLParams(name, []lo.Tuple2[string, string]{
			{A: "_pragma", B: "busy_timeout(10000)"},
			{A: "_pragma", B: "journal_mode(wal)"},
		}); err != nil {
			return nil, errors.Trace(err)
		}
		// connect to database
		database := new(SQLDatabase)
		database.driver = SQLite
		database.TablePrefix = storage.TablePrefix(tablePrefix)
		if database.client, err = otelsql.Open("sqlite", name,
			otelsql.WithAttributes(semconv.DBSystemSqlite),
			otelsql.WithSpanOptions(otelsql.SpanOptions{DisableErrSkip: true}),
		); err != nil {
			return nil, errors.Trace(err)
		}
		database.gormDB, err = gorm.Open(sqlite.Dialector{Conn: database.client}, storage.NewGORMConfig(tablePrefix))
		if err != nil {
			return nil, errors.Trace(err)
		}
		return database, nil
	}
	return nil, errors.Errorf("Unknown database: %s", log.RedactDBURL(path))
}

// Load reads all tables of a database.
func Load(ctx context.Context, database Database) ([]dataset.Interaction, []dataset.Item, []dataset.UserContext, error) {
	interactions, err := database.LoadInteractions(ctx)
	if err != nil {
		return nil, nil, nil, errors.Annotate(err, "failed to load interactions")
	}
	items, err := database.LoadItems(ctx)
	if err != nil {
		return nil, nil, nil, errors.Annotate(err, "failed to load items")
	}
	contexts, err := database.LoadUserContexts(ctx)
	if err != nil {
		return nil, nil, nil, errors.Annotate(err, "failed to load user contexts")
	}
	log.Logger().Info("load dataset",
		zap.Int("n_interactions", len(interactions)),
		zap.Int("n_items", len(items)),
		zap.Int("n_user_contexts", len(contexts)))
	return interactions, items, contexts, nil
}
