package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/felipemarinho97/torrent-resolver/schema"
	"github.com/samber/lo"
)

// inListChunk bounds the number of bound parameters in IN (...) lists.
const inListChunk = 400

// SQL is the Store backed by database/sql, on SQLite or PostgreSQL.
type SQL struct {
	db  *sql.DB
	d   dialect
	now func() time.Time
}

var _ Store = (*SQL)(nil)

// Open connects to the database and creates the schema when missing. driver is
// "sqlite" (dsn is a file path) or "postgres" (dsn is a connection string).
func Open(ctx context.Context, driver, dsn string) (*SQL, error) {
	d, err := dialectFor(driver)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s db: %w", d.name, err)
	}
	if d.name == sqliteDialect.name {
		db.SetMaxOpenConns(1)
	}

	for _, pragma := range d.pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	s := &SQL{db: db, d: d, now: time.Now}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQL) migrate(ctx context.Context) error {
	for _, stmt := range migrations {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate %s db: %w", s.d.name, err)
		}
	}
	return nil
}

func (s *SQL) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the underlying database connection.
func (s *SQL) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

const torrentColumns = `t.info_hash, t.title, t.size, t.seeders, t.leechers, t.source, t.quality, t.imdb_id, t.kitsu_id, t.season, t.magnet`

type scanner interface {
	Scan(dest ...any) error
}

func scanCandidate(row scanner, extra ...any) (schema.Candidate, error) {
	var (
		c       schema.Candidate
		imdbID  sql.NullString
		kitsuID sql.NullString
		season  sql.NullInt64
	)
	dest := []any{&c.InfoHash, &c.Title, &c.Size, &c.Seeders, &c.Leechers, &c.Source, &c.Quality, &imdbID, &kitsuID, &season, &c.MagnetLink}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return schema.Candidate{}, err
	}
	c.ImdbID = imdbID.String
	c.KitsuID = kitsuID.String
	if season.Valid {
		c.Season = schema.IntPtr(int(season.Int64))
	}
	return c, nil
}

func (s *SQL) queryCandidates(ctx context.Context, query string, args ...any) ([]schema.Candidate, error) {
	rows, err := s.db.QueryContext(ctx, s.d.rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []schema.Candidate
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQL) FindByID(ctx context.Context, imdbID, kitsuID string) ([]schema.Candidate, error) {
	if imdbID == "" && kitsuID == "" {
		return nil, nil
	}
	out, err := s.queryCandidates(ctx, `
SELECT `+torrentColumns+`
FROM torrents t
WHERE (t.imdb_id = ? AND ? <> '') OR (t.kitsu_id = ? AND ? <> '')
ORDER BY t.seeders DESC, t.info_hash`,
		imdbID, imdbID, kitsuID, kitsuID)
	if err != nil {
		return nil, fmt.Errorf("find torrents by id: %w", err)
	}
	return out, nil
}

func (s *SQL) FindSeasonTorrents(ctx context.Context, imdbID string, season int) ([]schema.Candidate, error) {
	if imdbID == "" {
		return nil, nil
	}
	out, err := s.queryCandidates(ctx, `
SELECT `+torrentColumns+`
FROM torrents t
WHERE t.imdb_id = ? AND (t.season = ? OR t.season IS NULL)
ORDER BY t.seeders DESC, t.info_hash`,
		imdbID, season)
	if err != nil {
		return nil, fmt.Errorf("find season torrents: %w", err)
	}
	return out, nil
}

func (s *SQL) FindEpisodeFiles(ctx context.Context, ref EpisodeKey) ([]schema.Candidate, error) {
	var (
		where string
		args  []any
	)
	switch {
	case ref.ImdbID != "":
		where, args = `e.imdb_id = ? AND e.season = ? AND e.episode = ?`, []any{ref.ImdbID, ref.Season, ref.Episode}
	case ref.KitsuID != "":
		where, args = `e.kitsu_id = ? AND e.episode = ?`, []any{ref.KitsuID, ref.Episode}
	default:
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, s.d.rebind(`
SELECT `+torrentColumns+`, e.file_index, e.file_name, e.size
FROM episode_files e
JOIN torrents t ON t.info_hash = e.info_hash
WHERE `+where+`
ORDER BY t.seeders DESC, t.info_hash`), args...)
	if err != nil {
		return nil, fmt.Errorf("find episode files: %w", err)
	}
	defer rows.Close()

	var out []schema.Candidate
	for rows.Next() {
		var (
			index    int
			fileName string
			fileSize int64
		)
		c, err := scanCandidate(rows, &index, &fileName, &fileSize)
		if err != nil {
			return nil, fmt.Errorf("scan episode file: %w", err)
		}
		c.FileIndex = schema.IntPtr(index)
		c.Files = []schema.File{{Index: index, Path: fileName, Size: fileSize, Selected: true}}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("find episode files: %w", err)
	}
	return out, nil
}

// SearchText returns torrents whose title contains every word of text.
func (s *SQL) SearchText(ctx context.Context, text string, kind schema.MediaKind, limit int) ([]schema.Candidate, error) {
	words := lo.Filter(strings.Fields(strings.ToLower(text)), func(w string, _ int) bool {
		return strings.Trim(w, "%_") != ""
	})
	if len(words) == 0 {
		return nil, nil
	}
	if limit <= 0 {
		limit = 50
	}

	conds := make([]string, 0, len(words)+1)
	args := make([]any, 0, len(words)+2)
	for _, w := range words {
		conds = append(conds, `LOWER(t.title) LIKE ?`)
		args = append(args, "%"+strings.NewReplacer("%", "", "_", "").Replace(w)+"%")
	}
	if kind != "" {
		conds = append(conds, `t.kind = ?`)
		args = append(args, string(kind))
	}
	args = append(args, limit)

	out, err := s.queryCandidates(ctx, `
SELECT `+torrentColumns+`
FROM torrents t
WHERE `+strings.Join(conds, " AND ")+`
ORDER BY t.seeders DESC, t.info_hash
LIMIT ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("search torrents: %w", err)
	}
	return out, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

// UpsertTorrents stores candidates keyed by info hash. Seeders keep the highest
// count seen, identifiers are only filled when missing, and the rest of the row
// follows the latest write.
func (s *SQL) UpsertTorrents(ctx context.Context, kind schema.MediaKind, cands []schema.Candidate) error {
	cands = schema.UsableOnly(cands)
	if len(cands) == 0 {
		return nil
	}

	query := s.d.rebind(fmt.Sprintf(`
INSERT INTO torrents (info_hash, title, size, seeders, leechers, source, quality, kind, imdb_id, kitsu_id, season, magnet, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (info_hash) DO UPDATE SET
	title = excluded.title,
	size = CASE WHEN excluded.size > 0 THEN excluded.size ELSE torrents.size END,
	seeders = %s(torrents.seeders, excluded.seeders),
	leechers = excluded.leechers,
	source = excluded.source,
	quality = CASE WHEN excluded.quality <> '' THEN excluded.quality ELSE torrents.quality END,
	kind = CASE WHEN excluded.kind <> '' THEN excluded.kind ELSE torrents.kind END,
	imdb_id = COALESCE(torrents.imdb_id, excluded.imdb_id),
	kitsu_id = COALESCE(torrents.kitsu_id, excluded.kitsu_id),
	season = COALESCE(torrents.season, excluded.season),
	magnet = CASE WHEN excluded.magnet <> '' THEN excluded.magnet ELSE torrents.magnet END,
	updated_at = excluded.updated_at`, s.d.greatest))

	now := s.now().Unix()
	return s.inTx(ctx, "upsert torrents", func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, c := range cands {
			if _, err := stmt.ExecContext(ctx,
				c.InfoHash, c.Title, c.Size, c.Seeders, c.Leechers, c.Source, c.Quality, string(kind),
				nullString(c.ImdbID), nullString(c.KitsuID), nullInt(c.Season), c.MagnetLink, now, now,
			); err != nil {
				return fmt.Errorf("%s: %w", c.InfoHash, err)
			}
		}
		return nil
	})
}

func (s *SQL) UpsertEpisodeFiles(ctx context.Context, files []schema.EpisodeFile) error {
	if len(files) == 0 {
		return nil
	}

	query := s.d.rebind(`
INSERT INTO episode_files (info_hash, imdb_id, kitsu_id, season, episode, file_index, file_name, size, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (info_hash, season, episode) DO UPDATE SET
	imdb_id = COALESCE(excluded.imdb_id, episode_files.imdb_id),
	kitsu_id = COALESCE(excluded.kitsu_id, episode_files.kitsu_id),
	file_index = excluded.file_index,
	file_name = excluded.file_name,
	size = excluded.size,
	updated_at = excluded.updated_at`)

	now := s.now().Unix()
	return s.inTx(ctx, "upsert episode files", func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, f := range files {
			if _, err := stmt.ExecContext(ctx,
				schema.NormalizeHash(f.InfoHash), nullString(f.ImdbID), nullString(f.KitsuID),
				f.Season, f.Episode, f.FileIndex, f.FileName, f.Size, now,
			); err != nil {
				return fmt.Errorf("%s S%dE%d: %w", f.InfoHash, f.Season, f.Episode, err)
			}
		}
		return nil
	})
}

// CacheStates returns the last known cache state of each hash for the provider.
// Hashes never checked are absent from the map.
func (s *SQL) CacheStates(ctx context.Context, provider string, hashes []string) (map[string]schema.CacheEntry, error) {
	out := make(map[string]schema.CacheEntry, len(hashes))
	hashes = lo.Uniq(lo.Map(hashes, func(h string, _ int) string { return schema.NormalizeHash(h) }))

	for _, chunk := range lo.Chunk(hashes, inListChunk) {
		args := make([]any, 0, len(chunk)+1)
		args = append(args, provider)
		for _, h := range chunk {
			args = append(args, h)
		}

		rows, err := s.db.QueryContext(ctx, s.d.rebind(`
SELECT info_hash, cached, checked_at
FROM cache_state
WHERE provider = ? AND info_hash IN (`+placeholders(len(chunk))+`)`), args...)
		if err != nil {
			return nil, fmt.Errorf("load cache states: %w", err)
		}

		for rows.Next() {
			var (
				e       = schema.CacheEntry{Provider: provider}
				checked int64
			)
			if err := rows.Scan(&e.InfoHash, &e.Cached, &checked); err != nil {
				rows.Close()
				return nil, fmt.Errorf("scan cache state: %w", err)
			}
			e.CheckedAt = time.Unix(checked, 0).UTC()
			out[e.InfoHash] = e
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, fmt.Errorf("load cache states: %w", err)
		}
	}
	return out, nil
}

func (s *SQL) UpsertCacheStates(ctx context.Context, entries []schema.CacheEntry) error {
	if len(entries) == 0 {
		return nil
	}

	query := s.d.rebind(`
INSERT INTO cache_state (info_hash, provider, cached, checked_at)
VALUES (?, ?, ?, ?)
ON CONFLICT (info_hash, provider) DO UPDATE SET
	cached = excluded.cached,
	checked_at = excluded.checked_at`)

	return s.inTx(ctx, "upsert cache states", func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, e := range entries {
			checked := e.CheckedAt
			if checked.IsZero() {
				checked = s.now()
			}
			if _, err := stmt.ExecContext(ctx, schema.NormalizeHash(e.InfoHash), e.Provider, e.Cached, checked.Unix()); err != nil {
				return fmt.Errorf("%s/%s: %w", e.Provider, e.InfoHash, err)
			}
		}
		return nil
	})
}

func (s *SQL) RepairIdentifiers(ctx context.Context, hashes []string, imdbID, kitsuID string) (int64, error) {
	if len(hashes) == 0 || (imdbID == "" && kitsuID == "") {
		return 0, nil
	}
	hashes = lo.Uniq(lo.Map(hashes, func(h string, _ int) string { return schema.NormalizeHash(h) }))

	var total int64
	for _, chunk := range lo.Chunk(hashes, inListChunk) {
		args := []any{nullString(imdbID), nullString(kitsuID)}
		for _, h := range chunk {
			args = append(args, h)
		}
		args = append(args, imdbID, kitsuID)

		res, err := s.db.ExecContext(ctx, s.d.rebind(`
UPDATE torrents
SET imdb_id = COALESCE(imdb_id, ?), kitsu_id = COALESCE(kitsu_id, ?)
WHERE info_hash IN (`+placeholders(len(chunk))+`)
	AND ((imdb_id IS NULL AND ? <> '') OR (kitsu_id IS NULL AND ? <> ''))`), args...)
		if err != nil {
			return total, fmt.Errorf("repair identifiers: %w", err)
		}
		n, _ := res.RowsAffected()
		total += n
	}
	return total, nil
}

func (s *SQL) inTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: begin: %w", op, err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: commit: %w", op, err)
	}
	return nil
}
