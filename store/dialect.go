package store

import (
	"fmt"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

type dialect struct {
	name     string
	driver   string
	greatest string
	dollar   bool
	pragmas  []string
}

var (
	sqliteDialect = dialect{
		name:     "sqlite",
		driver:   "sqlite",
		greatest: "MAX",
		pragmas: []string{
			"PRAGMA journal_mode=WAL",
			"PRAGMA busy_timeout=5000",
			"PRAGMA synchronous=NORMAL",
		},
	}
	postgresDialect = dialect{
		name:     "postgres",
		driver:   "pgx",
		greatest: "GREATEST",
		dollar:   true,
	}
)

func dialectFor(name string) (dialect, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "sqlite", "sqlite3":
		return sqliteDialect, nil
	case "postgres", "postgresql", "pgx":
		return postgresDialect, nil
	}
	return dialect{}, fmt.Errorf("unsupported database driver %q", name)
}

// rebind rewrites ? placeholders into the dialect's form.
func (d dialect) rebind(query string) string {
	if !d.dollar {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS torrents (
	info_hash  TEXT PRIMARY KEY,
	title      TEXT NOT NULL,
	size       BIGINT NOT NULL DEFAULT 0,
	seeders    INTEGER NOT NULL DEFAULT 0,
	leechers   INTEGER NOT NULL DEFAULT 0,
	source     TEXT NOT NULL DEFAULT '',
	quality    TEXT NOT NULL DEFAULT '',
	kind       TEXT NOT NULL DEFAULT '',
	imdb_id    TEXT,
	kitsu_id   TEXT,
	season     INTEGER,
	magnet     TEXT NOT NULL DEFAULT '',
	created_at BIGINT NOT NULL,
	updated_at BIGINT NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS torrents_imdb_id ON torrents (imdb_id)`,
	`CREATE INDEX IF NOT EXISTS torrents_kitsu_id ON torrents (kitsu_id)`,
	`CREATE TABLE IF NOT EXISTS episode_files (
	info_hash  TEXT NOT NULL,
	imdb_id    TEXT,
	kitsu_id   TEXT,
	season     INTEGER NOT NULL,
	episode    INTEGER NOT NULL,
	file_index INTEGER NOT NULL,
	file_name  TEXT NOT NULL DEFAULT '',
	size       BIGINT NOT NULL DEFAULT 0,
	updated_at BIGINT NOT NULL,
	PRIMARY KEY (info_hash, season, episode)
)`,
	`CREATE INDEX IF NOT EXISTS episode_files_imdb ON episode_files (imdb_id, season, episode)`,
	`CREATE INDEX IF NOT EXISTS episode_files_kitsu ON episode_files (kitsu_id, episode)`,
	`CREATE TABLE IF NOT EXISTS cache_state (
	info_hash  TEXT NOT NULL,
	provider   TEXT NOT NULL,
	cached     BOOLEAN NOT NULL,
	checked_at BIGINT NOT NULL,
	PRIMARY KEY (info_hash, provider)
)`,
}
