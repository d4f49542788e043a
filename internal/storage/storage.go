package storage

import (
	"context"
	"time"
)

// Item is one discovered post with its resolved engagement data, as
// persisted at the end of a discovery run.
type Item struct {
	ID              string    `json:"id"`
	Query           string    `json:"query"`
	ImageURL        string    `json:"image_url,omitempty"`
	PageURL         string    `json:"page_url"`
	Title           string    `json:"title,omitempty"`
	Description     string    `json:"description,omitempty"`
	Source          string    `json:"source"`
	Platform        string    `json:"platform"`
	Likes           int64     `json:"likes"`
	Comments        int64     `json:"comments"`
	Shares          int64     `json:"shares"`
	Views           int64     `json:"views"`
	Author          string    `json:"author,omitempty"`
	AuthorFollowers int64     `json:"author_followers"`
	PostDate        string    `json:"post_date,omitempty"`
	Hashtags        []string  `json:"hashtags,omitempty"`
	EngagementScore float64   `json:"engagement_score"`
	ResolvedBy      string    `json:"resolved_by"`
	MediaPath       string    `json:"media_path,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// Filter allows querying for specific items.
type Filter struct {
	Query    string
	Platform string
	MinScore float64
	Since    *time.Time
	Limit    int
	Offset   int
}

// Backend defines the interface for storing and querying discovered items.
type Backend interface {
	Save(ctx context.Context, item *Item) error
	Query(ctx context.Context, filter Filter) ([]*Item, error)
	Close() error
}
