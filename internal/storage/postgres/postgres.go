package postgres

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/viralops/viralfinder/internal/storage"
)

// ensure postgresBackend implements storage.Backend
var _ storage.Backend = (*postgresBackend)(nil)

type postgresBackend struct {
	pool    *pgxpool.Pool
	builder sq.StatementBuilderType
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
	likes BIGINT NOT NULL,
	comments BIGINT NOT NULL,
	shares BIGINT NOT NULL,
	views BIGINT NOT NULL,
	author TEXT,
	author_followers BIGINT NOT NULL,
	post_date TEXT,
	hashtags TEXT[] NOT NULL DEFAULT '{}',
	engagement_score DOUBLE PRECISION NOT NULL,
	resolved_by TEXT NOT NULL,
	media_path TEXT,
	created_at TIMESTAMPTZ NOT NULL
);
`

// New creates a Postgres-backed storage.Backend.
func New(ctx context.Context, dsn string) (storage.Backend, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create items table: %w", err)
	}

	return &postgresBackend{
		pool:    pool,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}, nil
}

var itemColumns = []string{
	"id", "query", "image_url", "page_url", "title", "description", "source",
	"platform", "likes", "comments", "shares", "views", "author",
	"author_followers", "post_date", "hashtags", "engagement_score",
	"resolved_by", "media_path", "created_at",
}

func (b *postgresBackend) Save(ctx context.Context, item *storage.Item) error {
	hashtags := item.Hashtags
	if hashtags == nil {
		hashtags = []string{}
	}

	query, args, err := b.builder.
		Insert("viral_items").
		Columns(itemColumns...).
		Values(
			item.ID, item.Query, item.ImageURL, item.PageURL, item.Title,
			item.Description, item.Source, item.Platform, item.Likes,
			item.Comments, item.Shares, item.Views, item.Author,
			item.AuthorFollowers, item.PostDate, hashtags,
			item.EngagementScore, item.ResolvedBy, item.MediaPath,
			item.CreatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := b.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert item: %w", err)
	}
	return nil
}

func (b *postgresBackend) Query(ctx context.Context, filter storage.Filter) ([]*storage.Item, error) {
	q := b.builder.
		Select(itemColumns...).
		From("viral_items").
		OrderBy("engagement_score DESC")

	if filter.Query != "" {
		q = q.Where(sq.Eq{"query": filter.Query})
	}
	if filter.Platform != "" {
		q = q.Where(sq.Eq{"platform": filter.Platform})
	}
	if filter.MinScore > 0 {
		q = q.Where(sq.GtOrEq{"engagement_score": filter.MinScore})
	}
	if filter.Since != nil {
		q = q.Where(sq.GtOrEq{"created_at": *filter.Since})
	}
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := b.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	var items []*storage.Item
	for rows.Next() {
		var it storage.Item

		err := rows.Scan(
			&it.ID, &it.Query, &it.ImageURL, &it.PageURL, &it.Title, &it.Description,
			&it.Source, &it.Platform, &it.Likes, &it.Comments, &it.Shares, &it.Views,
			&it.Author, &it.AuthorFollowers, &it.PostDate, &it.Hashtags,
			&it.EngagementScore, &it.ResolvedBy, &it.MediaPath, &it.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan item row: %w", err)
		}

		items = append(items, &it)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate item rows: %w", err)
	}
	return items, nil
}

func (b *postgresBackend) Close() error {
	b.pool.Close()
	return nil
}
