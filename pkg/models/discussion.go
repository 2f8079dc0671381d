package models

// RedditPost represents an ingested Reddit post. Immutable once stored.
type RedditPost struct {
	ID          string `db:"id" json:"id"`
	Title       string `db:"title" json:"title"`
	Subreddit   string `db:"subreddit" json:"subreddit"`
	Author      string `db:"author" json:"author"`
	Score       int    `db:"score" json:"score"`
	NumComments int    `db:"num_comments" json:"num_comments"`
	CreatedUTC  int64  `db:"created_utc" json:"created_utc"`
	Selftext    string `db:"selftext" json:"selftext"`
	URL         string `db:"url" json:"url"`
}

// RedditComment represents an ingested Reddit comment. Immutable once stored.
type RedditComment struct {
	ID         string `db:"id" json:"id"`
	PostID     string `db:"post_id" json:"post_id"`
	ParentID   string `db:"parent_id" json:"parent_id"`
	Author     string `db:"author" json:"author"`
	Body       string `db:"body" json:"body"`
	Score      int    `db:"score" json:"score"`
	CreatedUTC int64  `db:"created_utc" json:"created_utc"`
	Depth      int    `db:"depth" json:"depth"`
}

// PostCommentRow is one row of the posts-joined-with-comments set that the
// labeling engine and the fusion engine both consume. CommentCreatedUTC is
// the timestamp everything downstream buckets on.
type PostCommentRow struct {
	PostID            string `db:"post_id"`
	CommentID         string `db:"comment_id"`
	Subreddit         string `db:"subreddit"`
	Title             string `db:"title"`
	PostScore         int    `db:"post_score"`
	NumComments       int    `db:"num_comments"`
	Body              string `db:"body"`
	CommentScore      int    `db:"comment_score"`
	Depth             int    `db:"depth"`
	CommentCreatedUTC int64  `db:"comment_created_utc"`
}
