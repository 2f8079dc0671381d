package reddit

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/hat3ck/cryptosense/pkg/models"
)

// Repository handles persistence of ingested Reddit posts and comments.
// Both tables are append-only; re-ingesting the same external id is a no-op.
type Repository struct {
	db *sqlx.DB
}

// NewRepository creates new reddit repository
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// InsertPosts stores posts, ignoring duplicates by external id
func (r *Repository) InsertPosts(ctx context.Context, posts []models.RedditPost) error {
	if len(posts) == 0 {
		return nil
	}

	query := `
		INSERT INTO reddit_posts (id, title, subreddit, author, score, num_comments, created_utc, selftext, url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING
	`

	for _, post := range posts {
		_, err := r.db.ExecContext(ctx, query,
			post.ID, post.Title, post.Subreddit, post.Author,
			post.Score, post.NumComments, post.CreatedUTC, post.Selftext, post.URL,
		)
		if err != nil {
			return fmt.Errorf("failed to insert reddit post %s: %w", post.ID, err)
		}
	}

	return nil
}

// InsertComments stores comments, ignoring duplicates by external id
func (r *Repository) InsertComments(ctx context.Context, comments []models.RedditComment) error {
	if len(comments) == 0 {
		return nil
	}

	query := `
		INSERT INTO reddit_comments (id, post_id, parent_id, author, body, score, created_utc, depth)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING
	`

	for _, comment := range comments {
		_, err := r.db.ExecContext(ctx, query,
			comment.ID, comment.PostID, comment.ParentID, comment.Author,
			comment.Body, comment.Score, comment.CreatedUTC, comment.Depth,
		)
		if err != nil {
			return fmt.Errorf("failed to insert reddit comment %s: %w", comment.ID, err)
		}
	}

	return nil
}

// GetPostsByDateRange fetches posts created within [start, end]
func (r *Repository) GetPostsByDateRange(ctx context.Context, startUTC, endUTC int64) ([]models.RedditPost, error) {
	query := `
		SELECT id, title, subreddit, author, score, num_comments, created_utc, selftext, url
		FROM reddit_posts
		WHERE created_utc >= $1 AND created_utc <= $2
		ORDER BY created_utc ASC
	`

	posts := []models.RedditPost{}
	if err := r.db.SelectContext(ctx, &posts, query, startUTC, endUTC); err != nil {
		return nil, fmt.Errorf("failed to query reddit posts: %w", err)
	}

	return posts, nil
}

// GetCommentsByDateRange fetches comments created within [start, end]
func (r *Repository) GetCommentsByDateRange(ctx context.Context, startUTC, endUTC int64) ([]models.RedditComment, error) {
	query := `
		SELECT id, post_id, parent_id, author, body, score, created_utc, depth
		FROM reddit_comments
		WHERE created_utc >= $1 AND created_utc <= $2
		ORDER BY created_utc ASC
	`

	comments := []models.RedditComment{}
	if err := r.db.SelectContext(ctx, &comments, query, startUTC, endUTC); err != nil {
		return nil, fmt.Errorf("failed to query reddit comments: %w", err)
	}

	return comments, nil
}
