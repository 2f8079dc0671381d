package labeling

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/hat3ck/cryptosense/pkg/logger"
	"github.com/hat3ck/cryptosense/pkg/models"
)

// Default bounds on parsed-row count relative to batch size. Below the lower
// bound the batch is kept with a warning; above the upper bound the model is
// assumed to have hallucinated rows and the batch is rejected.
const (
	DefaultMinRowRatio = 0.9
	DefaultMaxRowRatio = 1.2
)

// Validator checks parsed label counts against the size of the batch that
// produced them and drops duplicate (post_id, comment_id) pairs.
type Validator struct {
	minRowRatio float64
	maxRowRatio float64
}

// NewValidator creates a validator with the given row-count ratio bounds.
// Non-positive bounds fall back to the defaults.
func NewValidator(minRowRatio, maxRowRatio float64) *Validator {
	if minRowRatio <= 0 {
		minRowRatio = DefaultMinRowRatio
	}
	if maxRowRatio <= 0 {
		maxRowRatio = DefaultMaxRowRatio
	}
	return &Validator{minRowRatio: minRowRatio, maxRowRatio: maxRowRatio}
}

// ParseResponse extracts labels from raw model output. Blank lines, code
// fences, echoed headers and rows with invalid enum values are dropped with
// a warning rather than failing the batch.
func ParseResponse(text string) []models.SentimentLabel {
	labels := []models.SentimentLabel{}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		line = strings.Trim(line, "`")
		if line == "" || strings.HasPrefix(line, "post_id|") {
			continue
		}

		fields := strings.Split(line, "|")
		if len(fields) < 6 {
			logger.Warn("Skipping malformed label line", zap.String("line", line))
			continue
		}

		label := models.SentimentLabel{
			PostID:          strings.TrimSpace(fields[0]),
			CommentID:       strings.TrimSpace(fields[1]),
			CryptoSentiment: models.CryptoSentiment(normalizeEnum(fields[2])),
			FutureSentiment: models.CryptoSentiment(normalizeEnum(fields[3])),
			Emotion:         models.Emotion(normalizeEnum(fields[4])),
			Subjective:      models.Subjectivity(normalizeEnum(fields[5])),
		}

		if label.PostID == "" || label.CommentID == "" {
			logger.Warn("Skipping label line without ids", zap.String("line", line))
			continue
		}
		if !models.ValidCryptoSentiment(string(label.CryptoSentiment)) ||
			!models.ValidCryptoSentiment(string(label.FutureSentiment)) ||
			!models.ValidEmotion(string(label.Emotion)) ||
			!models.ValidSubjectivity(string(label.Subjective)) {
			logger.Warn("Skipping label line with invalid enum values", zap.String("line", line))
			continue
		}

		labels = append(labels, label)
	}

	return labels
}

// Validate applies the row-count bounds for a batch of the given size and
// deduplicates by (post_id, comment_id), keeping the first occurrence.
func (v *Validator) Validate(labels []models.SentimentLabel, batchSize int) ([]models.SentimentLabel, error) {
	if batchSize <= 0 {
		return nil, fmt.Errorf("invalid batch size %d", batchSize)
	}

	count := float64(len(labels))
	expected := float64(batchSize)

	if count > v.maxRowRatio*expected {
		return nil, fmt.Errorf("model returned %d labels for a batch of %d, above the %.0f%% limit",
			len(labels), batchSize, v.maxRowRatio*100)
	}
	if count < v.minRowRatio*expected {
		logger.Warn("Model returned fewer labels than expected",
			zap.Int("labels", len(labels)),
			zap.Int("batch_size", batchSize),
			zap.Float64("min_ratio", v.minRowRatio))
	}

	seen := make(map[string]bool, len(labels))
	deduped := make([]models.SentimentLabel, 0, len(labels))
	for _, label := range labels {
		key := label.PostID + "\x00" + label.CommentID
		if seen[key] {
			continue
		}
		seen[key] = true
		deduped = append(deduped, label)
	}

	return deduped, nil
}

func normalizeEnum(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
