package labeling

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/hat3ck/cryptosense/pkg/models"
)

const maxFieldLen = 600

const promptInstructions = `You are labeling Reddit discussions about cryptocurrencies.
For every input row below, output exactly one line in this pipe-delimited format:

post_id|comment_id|crypto_sentiment|future_sentiment|emotion|subjective

Allowed values:
- crypto_sentiment: negative, neutral, positive (sentiment toward crypto expressed now)
- future_sentiment: negative, neutral, positive (expectation about future prices)
- emotion: happiness, hope, anger, sadness, fear, neutral
- subjective: yes, no

Copy post_id and comment_id from the input row unchanged. Output exactly one
line per input row, nothing else. Do not add headers, numbering or commentary.

Input rows (post_id|comment_id|post_title|comment):
`

// BuildPrompt renders a labeling request for one batch of joined rows
func BuildPrompt(rows []models.PostCommentRow) string {
	var b strings.Builder
	b.WriteString(promptInstructions)
	for _, row := range rows {
		b.WriteString(fmt.Sprintf("%s|%s|%s|%s\n",
			row.PostID, row.CommentID,
			sanitizeField(row.Title), sanitizeField(row.Body)))
	}
	return b.String()
}

// sanitizeField keeps row text single-line and pipe-free so it cannot break
// the table format
func sanitizeField(s string) string {
	s = strings.NewReplacer("|", "/", "\n", " ", "\r", " ", "\t", " ").Replace(s)
	s = strings.TrimSpace(s)
	if len(s) > maxFieldLen {
		// Back off to a rune boundary so a multi-byte character is never
		// split
		cut := maxFieldLen
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		s = s[:cut]
	}
	return s
}
