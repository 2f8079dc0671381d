package labeling

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/hat3ck/cryptosense/pkg/models"
)

func TestParseResponse(t *testing.T) {
	text := strings.Join([]string{
		"```",
		"post_id|comment_id|crypto_sentiment|future_sentiment|emotion|subjective",
		"p1|c1|positive|positive|hope|yes",
		"p1|c2|Negative|neutral|fear|no",
		"",
		"p2|c3|bullish|positive|hope|yes",
		"p2|c4|positive|positive",
		"p2|c5|neutral|negative|sadness|yes",
		"```",
	}, "\n")

	labels := ParseResponse(text)

	if len(labels) != 3 {
		t.Fatalf("expected 3 labels, got %d: %+v", len(labels), labels)
	}
	if labels[0].PostID != "p1" || labels[0].CommentID != "c1" {
		t.Errorf("unexpected first label ids: %+v", labels[0])
	}
	if labels[1].CryptoSentiment != models.SentimentNegative {
		t.Errorf("mixed-case enum not normalized: %+v", labels[1])
	}
	if labels[2].CommentID != "c5" || labels[2].Emotion != models.EmotionSadness {
		t.Errorf("unexpected last label: %+v", labels[2])
	}
}

func TestParseResponse_Empty(t *testing.T) {
	if labels := ParseResponse(""); len(labels) != 0 {
		t.Errorf("expected no labels from empty response, got %d", len(labels))
	}
}

func TestValidatorRowCounts(t *testing.T) {
	v := NewValidator(0.9, 1.2)

	makeLabels := func(n int) []models.SentimentLabel {
		labels := make([]models.SentimentLabel, n)
		for i := range labels {
			labels[i] = models.SentimentLabel{
				PostID:          "p1",
				CommentID:       string(rune('a' + i)),
				CryptoSentiment: models.SentimentNeutral,
				FutureSentiment: models.SentimentNeutral,
				Emotion:         models.EmotionNeutral,
				Subjective:      models.SubjectiveNo,
			}
		}
		return labels
	}

	tests := []struct {
		name      string
		labels    int
		batchSize int
		wantErr   bool
		wantKept  int
	}{
		{"exact count", 20, 20, false, 20},
		{"slightly short keeps batch", 18, 20, false, 18},
		{"far too many rejects", 25, 20, true, 0},
		{"at upper bound passes", 24, 20, false, 24},
		{"single row batch", 1, 1, false, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kept, err := v.Validate(makeLabels(tt.labels), tt.batchSize)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(kept) != tt.wantKept {
				t.Errorf("kept %d labels, want %d", len(kept), tt.wantKept)
			}
		})
	}
}

func TestValidatorDeduplicates(t *testing.T) {
	v := NewValidator(0, 0)

	labels := []models.SentimentLabel{
		{PostID: "p1", CommentID: "c1", CryptoSentiment: models.SentimentPositive},
		{PostID: "p1", CommentID: "c2", CryptoSentiment: models.SentimentNeutral},
		{PostID: "p1", CommentID: "c1", CryptoSentiment: models.SentimentNegative},
	}

	kept, err := v.Validate(labels, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(kept) != 2 {
		t.Fatalf("expected 2 labels after dedupe, got %d", len(kept))
	}
	// First occurrence wins
	if kept[0].CryptoSentiment != models.SentimentPositive {
		t.Errorf("dedupe did not keep first occurrence: %+v", kept[0])
	}
}

func TestBuildPromptSanitizesFields(t *testing.T) {
	rows := []models.PostCommentRow{
		{PostID: "p1", CommentID: "c1", Title: "BTC | the flippening\nis here", Body: "multi\nline|body"},
	}

	prompt := BuildPrompt(rows)

	if !strings.Contains(prompt, "p1|c1|BTC / the flippening is here|multi line/body") {
		t.Errorf("row not sanitized as expected:\n%s", prompt)
	}
	if !strings.Contains(prompt, "post_id|comment_id|crypto_sentiment") {
		t.Error("prompt missing output format instructions")
	}
}

func TestSanitizeFieldTruncatesOnRuneBoundary(t *testing.T) {
	// A three-byte rune straddles the length limit; the cut must land before
	// it, never inside it
	long := strings.Repeat("a", maxFieldLen-1) + "€€"

	got := sanitizeField(long)

	if len(got) > maxFieldLen {
		t.Errorf("field length = %d, want at most %d", len(got), maxFieldLen)
	}
	if !utf8.ValidString(got) {
		t.Errorf("truncated field is not valid UTF-8: %q", got[len(got)-4:])
	}
	if strings.Contains(got, "€") {
		t.Errorf("rune past the limit survived truncation")
	}
}
