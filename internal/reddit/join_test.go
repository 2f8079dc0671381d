package reddit

import (
	"testing"

	"github.com/hat3ck/cryptosense/pkg/models"
)

func TestJoinPostsComments(t *testing.T) {
	posts := []models.RedditPost{
		{ID: "p1", Title: "BTC to the moon", Subreddit: "CryptoCurrency", Score: 42, NumComments: 2},
		{ID: "p2", Title: "ETH merge aftermath", Subreddit: "ethereum", Score: 10, NumComments: 1},
	}
	comments := []models.RedditComment{
		{ID: "c1", PostID: "p1", Body: "bullish", Score: 5, Depth: 0, CreatedUTC: 1700000000},
		{ID: "c2", PostID: "p1", Body: "not so sure", Score: 1, Depth: 1, CreatedUTC: 1700000100},
		{ID: "c3", PostID: "missing", Body: "orphan", Score: 0, Depth: 0, CreatedUTC: 1700000200},
		{ID: "c4", PostID: "p2", Body: "gas fees though", Score: 3, Depth: 0, CreatedUTC: 1700000300},
	}

	rows := JoinPostsComments(posts, comments)

	if len(rows) != 3 {
		t.Fatalf("expected 3 joined rows, got %d", len(rows))
	}

	// Comment order preserved
	wantOrder := []string{"c1", "c2", "c4"}
	for i, want := range wantOrder {
		if rows[i].CommentID != want {
			t.Errorf("row %d comment id = %s, want %s", i, rows[i].CommentID, want)
		}
	}

	first := rows[0]
	if first.PostID != "p1" || first.Title != "BTC to the moon" || first.Subreddit != "CryptoCurrency" {
		t.Errorf("post fields not carried into joined row: %+v", first)
	}
	if first.Body != "bullish" || first.CommentScore != 5 || first.CommentCreatedUTC != 1700000000 {
		t.Errorf("comment fields not carried into joined row: %+v", first)
	}
}

func TestJoinPostsComments_Empty(t *testing.T) {
	if rows := JoinPostsComments(nil, nil); len(rows) != 0 {
		t.Errorf("expected no rows, got %d", len(rows))
	}
}
