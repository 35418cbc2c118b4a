package sqlite

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// migrateTo synchronizes the live schema with the target definition using a
// declarative diff: deleted tables are dropped, new tables created, and
// changed tables rebuilt with the 12-step procedure from
// https://www.sqlite.org/lang_altertable.html#otheralter. Triggers and
// indexes are synchronized afterwards.
func (db *Database) migrateTo(ctx context.Context, targetSchema string) (err error) {
	start := time.Now()

	detach, err := db.attachTarget(ctx, targetSchema)
	if err != nil {
		return fmt.Errorf("attach target schema: %w", err)
	}
	defer detach()

	// Foreign keys stay off for the duration so tables can be rebuilt in
	// any order; the diff runs foreign_key_check before committing.
	if _, err = db.ReadWrite.ExecContext(ctx, "PRAGMA foreign_keys = OFF"); err != nil {
		return fmt.Errorf("disable foreign keys: %w", err)
	}
	defer func() {
		if _, fkErr := db.ReadWrite.ExecContext(ctx, "PRAGMA foreign_keys = ON"); fkErr != nil && err == nil {
			err = fmt.Errorf("re-enable foreign keys: %w", fkErr)
		}
	}()

	tx, err := db.ReadWrite.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			db.logger.LogAttrs(ctx, slog.LevelError, "rollback migration", slog.Any("error", rbErr))
		}
	}()

	if err = db.syncTables(ctx, tx); err != nil {
		return fmt.Errorf("sync tables: %w", err)
	}
	for _, kind := range []string{"trigger", "index"} {
		if err = db.syncAux(ctx, tx, kind); err != nil {
			return fmt.Errorf("sync %ss: %w", kind, err)
		}
	}

	if _, err = tx.ExecContext(ctx, "PRAGMA foreign_key_check"); err != nil {
		return fmt.Errorf("foreign key check: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit migration: %w", err)
	}

	db.logger.LogAttrs(ctx, slog.LevelInfo, "migrated database",
		slog.Duration("duration", time.Since(start)))
	return nil
}

// attachTarget seeds an in-memory database with the target schema and
// attaches it as migrationTarget. The returned function detaches it.
func (db *Database) attachTarget(ctx context.Context, targetSchema string) (func(), error) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", rand.Text())

	seed, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open seed database: %w", err)
	}
	defer func() {
		if closeErr := seed.Close(); closeErr != nil {
			db.logger.LogAttrs(ctx, slog.LevelError, "close seed database", slog.Any("error", closeErr))
		}
	}()

	if _, err = seed.ExecContext(ctx, targetSchema); err != nil {
		return nil, fmt.Errorf("apply target schema: %w", err)
	}
	// The ATTACH below keeps the shared-cache database alive after the seed
	// handle closes.
	if _, err = db.ReadWrite.ExecContext(ctx, "ATTACH DATABASE ? AS migrationTarget", dsn); err != nil {
		return nil, fmt.Errorf("attach: %w", err)
	}

	return func() {
		if _, detachErr := db.ReadWrite.ExecContext(ctx, "DETACH DATABASE migrationTarget"); detachErr != nil {
			db.logger.LogAttrs(ctx, slog.LevelError, "detach target schema", slog.Any("error", detachErr))
		}
	}, nil
}

// syncTables drops deleted tables, creates new ones, and rebuilds tables
// whose definition changed.
func (db *Database) syncTables(ctx context.Context, tx *sql.Tx) error {
	deleted, err := queryStrings(ctx, tx, `
		SELECT live.name
		FROM sqlite_schema AS live
		LEFT JOIN migrationTarget.sqlite_schema AS target
		       ON live.name = target.name AND live.type = target.type
		WHERE live.type = 'table' AND target.type IS NULL
		  AND live.name NOT LIKE 'sqlite_%'`)
	if err != nil {
		return fmt.Errorf("query deleted tables: %w", err)
	}
	for _, name := range deleted {
		db.logger.LogAttrs(ctx, slog.LevelInfo, "dropping table", slog.String("table", name))
		if _, err = tx.ExecContext(ctx, "DROP TABLE "+name); err != nil {
			return fmt.Errorf("drop table %s: %w", name, err)
		}
	}

	created, err := queryStrings(ctx, tx, `
		SELECT target.sql
		FROM migrationTarget.sqlite_schema AS target
		LEFT JOIN sqlite_schema AS live
		       ON live.name = target.name AND live.type = target.type
		WHERE target.type = 'table' AND live.type IS NULL
		  AND target.name NOT LIKE 'sqlite_%'`)
	if err != nil {
		return fmt.Errorf("query new tables: %w", err)
	}
	for _, createSQL := range created {
		db.logger.LogAttrs(ctx, slog.LevelInfo, "creating table", slog.String("query", createSQL))
		if _, err = tx.ExecContext(ctx, createSQL); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}

	// Table rebuilds ignore quoting differences introduced by earlier
	// RENAME operations.
	changed, err := queryChanges(ctx, tx, `
		SELECT live.name, target.sql
		FROM sqlite_schema AS live
		JOIN migrationTarget.sqlite_schema AS target
		  ON live.name = target.name AND live.type = target.type
		WHERE live.type = 'table'
		  AND live.name NOT LIKE 'sqlite_%'
		  AND REPLACE(live.sql, '"', '') <> REPLACE(target.sql, '"', '')`)
	if err != nil {
		return fmt.Errorf("query changed tables: %w", err)
	}
	for _, change := range changed {
		if err = db.rebuildTable(ctx, tx, change.name, change.sql); err != nil {
			return fmt.Errorf("rebuild table %s: %w", change.name, err)
		}
	}
	return nil
}

// rebuildTable recreates a table under its new definition and carries over
// the columns both versions share.
func (db *Database) rebuildTable(ctx context.Context, tx *sql.Tx, name, newSQL string) error {
	db.logger.LogAttrs(ctx, slog.LevelInfo, "rebuilding table",
		slog.String("table", name), slog.String("new_sql", newSQL))

	tempName := name + "_migration_temp"
	if _, err := tx.ExecContext(ctx, strings.Replace(newSQL, name, tempName, 1)); err != nil {
		return fmt.Errorf("create temporary table: %w", err)
	}

	// Quote column names in case one is an SQL keyword.
	common, err := queryStrings(ctx, tx, `
		SELECT '"' || target.name || '"'
		FROM PRAGMA_TABLE_INFO(:table_name) AS live
		JOIN PRAGMA_TABLE_INFO(:table_name, 'migrationTarget') AS target
		  ON target.name = live.name`, sql.Named("table_name", name))
	if err != nil {
		return fmt.Errorf("query common columns: %w", err)
	}

	columns := strings.Join(common, ", ")
	copySQL := fmt.Sprintf("INSERT INTO %s (%s) SELECT %s FROM %s", tempName, columns, columns, name)
	if _, err = tx.ExecContext(ctx, copySQL); err != nil {
		return fmt.Errorf("copy rows: %w", err)
	}
	if _, err = tx.ExecContext(ctx, "DROP TABLE "+name); err != nil {
		return fmt.Errorf("drop old table: %w", err)
	}
	if _, err = tx.ExecContext(ctx, fmt.Sprintf("ALTER TABLE %s RENAME TO %s", tempName, name)); err != nil {
		return fmt.Errorf("rename new table: %w", err)
	}
	return nil
}

// syncAux synchronizes triggers or indexes: anything absent from the target
// is dropped, anything new or changed is (re)created.
func (db *Database) syncAux(ctx context.Context, tx *sql.Tx, kind string) error {
	obsolete, err := queryStrings(ctx, tx, `
		SELECT live.name
		FROM sqlite_schema AS live
		LEFT JOIN migrationTarget.sqlite_schema AS target
		       ON live.name = target.name AND live.type = target.type
		      AND live.sql = target.sql
		WHERE live.type = ? AND target.name IS NULL
		  AND live.name NOT LIKE 'sqlite_%'`, kind)
	if err != nil {
		return fmt.Errorf("query obsolete: %w", err)
	}
	for _, name := range obsolete {
		dropSQL := fmt.Sprintf("DROP %s %s", strings.ToUpper(kind), name)
		db.logger.LogAttrs(ctx, slog.LevelInfo, "dropping", slog.String("query", dropSQL))
		if _, err = tx.ExecContext(ctx, dropSQL); err != nil {
			return fmt.Errorf("drop %s %s: %w", kind, name, err)
		}
	}

	missing, err := queryStrings(ctx, tx, `
		SELECT target.sql
		FROM migrationTarget.sqlite_schema AS target
		LEFT JOIN sqlite_schema AS live
		       ON live.name = target.name AND live.type = target.type
		      AND live.sql = target.sql
		WHERE target.type = ? AND live.name IS NULL
		  AND target.name NOT LIKE 'sqlite_%'`, kind)
	if err != nil {
		return fmt.Errorf("query missing: %w", err)
	}
	for _, createSQL := range missing {
		db.logger.LogAttrs(ctx, slog.LevelInfo, "creating", slog.String("query", createSQL))
		if _, err = tx.ExecContext(ctx, createSQL); err != nil {
			return fmt.Errorf("create %s: %w", kind, err)
		}
	}
	return nil
}

type schemaChange struct {
	name string
	sql  string
}

func queryChanges(ctx context.Context, tx *sql.Tx, query string, args ...any) (_ []schemaChange, err error) {
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer func() {
		err = errors.Join(err, rows.Close())
	}()

	var changes []schemaChange
	for rows.Next() {
		var change schemaChange
		if err = rows.Scan(&change.name, &change.sql); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		changes = append(changes, change)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return changes, nil
}

func queryStrings(ctx context.Context, tx *sql.Tx, query string, args ...any) (_ []string, err error) {
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer func() {
		err = errors.Join(err, rows.Close())
	}()

	var results []string
	for rows.Next() {
		var result string
		if err = rows.Scan(&result); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		results = append(results, result)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return results, nil
}
