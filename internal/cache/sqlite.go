// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// LoopMate - 视频章节时间戳工具

package cache

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS durations (
	path TEXT NOT NULL,
	size INTEGER NOT NULL,
	mod_time INTEGER NOT NULL,
	seconds REAL NOT NULL,
	PRIMARY KEY (path, size, mod_time)
);
`

type sqliteCache struct {
	db *sql.DB
}

// OpenSQLite opens (and creates if needed) a persistent cache at path
func OpenSQLite(path string) (Cache, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	// one writer at a time
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create cache table: %w", err)
	}

	return &sqliteCache{db: db}, nil
}

func (c *sqliteCache) Get(key Key) (float64, bool) {
	var seconds float64
	err := c.db.QueryRow(
		"SELECT seconds FROM durations WHERE path = ? AND size = ? AND mod_time = ?",
		key.Path, key.Size, key.ModTime,
	).Scan(&seconds)
	if err != nil {
		return 0, false
	}
	return seconds, true
}

func (c *sqliteCache) Put(key Key, seconds float64) error {
	// older versions of the same file are stale
	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM durations WHERE path = ?", key.Path); err != nil {
		tx.Rollback()
		return fmt.Errorf("delete stale entries: %w", err)
	}
	if _, err := tx.Exec(
		"INSERT INTO durations (path, size, mod_time, seconds) VALUES (?, ?, ?, ?)",
		key.Path, key.Size, key.ModTime, seconds,
	); err != nil {
		tx.Rollback()
		return fmt.Errorf("insert duration: %w", err)
	}
	return tx.Commit()
}

func (c *sqliteCache) Close() error {
	return c.db.Close()
}
