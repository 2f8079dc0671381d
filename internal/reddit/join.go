package reddit

import "github.com/hat3ck/cryptosense/pkg/models"

// JoinPostsComments inner-joins comments to their posts by post id,
// preserving comment order. Comments whose post is not in the set are
// dropped.
func JoinPostsComments(posts []models.RedditPost, comments []models.RedditComment) []models.PostCommentRow {
	postsByID := make(map[string]models.RedditPost, len(posts))
	for _, post := range posts {
		postsByID[post.ID] = post
	}

	rows := make([]models.PostCommentRow, 0, len(comments))
	for _, comment := range comments {
		post, ok := postsByID[comment.PostID]
		if !ok {
			continue
		}
		rows = append(rows, models.PostCommentRow{
			PostID:            post.ID,
			CommentID:         comment.ID,
			Subreddit:         post.Subreddit,
			Title:             post.Title,
			PostScore:         post.Score,
			NumComments:       post.NumComments,
			Body:              comment.Body,
			CommentScore:      comment.Score,
			Depth:             comment.Depth,
			CommentCreatedUTC: comment.CreatedUTC,
		})
	}

	return rows
}
