package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/viralops/viralfinder/internal/storage"
	_ "modernc.org/sqlite"
)

// ensure sqliteBackend implements storage.Backend
var _ storage.Backend = (*sqliteBackend)(nil)

type sqliteBackend struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS viral_items (
	id TEXT PRIMARY KEY,
	query TEXT NOT NULL,
	image_url TEXT,
	page_url TEXT NOT NULL,
	title TEXT,
	description TEXT,
	source TEXT NOT NULL,
	platform TEXT NOT NULL,
	likes INTEGER NOT NULL,
	comments INTEGER NOT NULL,
	shares INTEGER NOT NULL,
	views INTEGER NOT NULL,
	author TEXT,
	author_followers INTEGER NOT NULL,
	post_date TEXT,
	hashtags TEXT NOT NULL,
	engagement_score REAL NOT NULL,
	resolved_by TEXT NOT NULL,
	media_path TEXT,
	created_at DATETIME NOT NULL
);
`

// New creates a SQLite-backed storage.Backend.
func New(dsn string) (storage.Backend, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create items table: %w", err)
	}

	return &sqliteBackend{db: db}, nil
}

func (b *sqliteBackend) Save(ctx context.Context, item *storage.Item) error {
	hashtagsJSON, err := json.Marshal(item.Hashtags)
	if err != nil {
		return fmt.Errorf("marshal hashtags: %w", err)
	}

	query := `
	INSERT INTO viral_items (
		id, query, image_url, page_url, title, description, source, platform,
		likes, comments, shares, views, author, author_followers, post_date,
		hashtags, engagement_score, resolved_by, media_path, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = b.db.ExecContext(ctx, query,
		item.ID,
		item.Query,
		item.ImageURL,
		item.PageURL,
		item.Title,
		item.Description,
		item.Source,
		item.Platform,
		item.Likes,
		item.Comments,
		item.Shares,
		item.Views,
		item.Author,
		item.AuthorFollowers,
		item.PostDate,
		string(hashtagsJSON),
		item.EngagementScore,
		item.ResolvedBy,
		item.MediaPath,
		item.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert item: %w", err)
	}
	return nil
}

func (b *sqliteBackend) Query(ctx context.Context, filter storage.Filter) ([]*storage.Item, error) {
	query := `SELECT id, query, image_url, page_url, title, description, source, platform,
		likes, comments, shares, views, author, author_followers, post_date,
		hashtags, engagement_score, resolved_by, media_path, created_at
		FROM viral_items WHERE 1=1`
	args := []any{}

	if filter.Query != "" {
		query += ` AND query = ?`
		args = append(args, filter.Query)
	}
	if filter.Platform != "" {
		query += ` AND platform = ?`
		args = append(args, filter.Platform)
	}
	if filter.MinScore > 0 {
		query += ` AND engagement_score >= ?`
		args = append(args, filter.MinScore)
	}
	if filter.Since != nil {
		query += ` AND created_at >= ?`
		args = append(args, *filter.Since)
	}

	query += ` ORDER BY engagement_score DESC`

	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := b.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	var items []*storage.Item
	for rows.Next() {
		var it storage.Item
		var hashtagsJSON string

		err := rows.Scan(
			&it.ID, &it.Query, &it.ImageURL, &it.PageURL, &it.Title, &it.Description,
			&it.Source, &it.Platform, &it.Likes, &it.Comments, &it.Shares, &it.Views,
			&it.Author, &it.AuthorFollowers, &it.PostDate, &hashtagsJSON,
			&it.EngagementScore, &it.ResolvedBy, &it.MediaPath, &it.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan item row: %w", err)
		}

		if err := json.Unmarshal([]byte(hashtagsJSON), &it.Hashtags); err != nil {
			return nil, fmt.Errorf("decode hashtags: %w", err)
		}

		items = append(items, &it)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate item rows: %w", err)
	}
	return items, nil
}

func (b *sqliteBackend) Close() error {
	return b.db.Close()
}
