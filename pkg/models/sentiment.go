package models

// CryptoSentiment is the market-direction read of a comment
type CryptoSentiment string

const (
	SentimentNegative CryptoSentiment = "negative"
	SentimentNeutral  CryptoSentiment = "neutral"
	SentimentPositive CryptoSentiment = "positive"
)

// Emotion is the dominant emotion expressed in a comment
type Emotion string

const (
	EmotionHappiness Emotion = "happiness"
	EmotionHope      Emotion = "hope"
	EmotionAnger     Emotion = "anger"
	EmotionSadness   Emotion = "sadness"
	EmotionFear      Emotion = "fear"
	EmotionNeutral   Emotion = "neutral"
)

// Subjectivity flags whether the comment states an opinion
type Subjectivity string

const (
	SubjectiveYes Subjectivity = "yes"
	SubjectiveNo  Subjectivity = "no"
)

// SentimentLabel holds the four categorical labels produced by the labeling
// engine for one (post, comment) pair. At most one label exists per pair;
// repeated inserts are no-ops.
type SentimentLabel struct {
	ID              int64           `db:"id" json:"id"`
	PostID          string          `db:"post_id" json:"post_id"`
	CommentID       string          `db:"comment_id" json:"comment_id"`
	CryptoSentiment CryptoSentiment `db:"crypto_sentiment" json:"crypto_sentiment"`
	FutureSentiment CryptoSentiment `db:"future_sentiment" json:"future_sentiment"`
	Emotion         Emotion         `db:"emotion" json:"emotion"`
	Subjective      Subjectivity    `db:"subjective" json:"subjective"`
}

// ValidCryptoSentiment reports whether s is one of the permitted values
func ValidCryptoSentiment(s string) bool {
	switch CryptoSentiment(s) {
	case SentimentNegative, SentimentNeutral, SentimentPositive:
		return true
	}
	return false
}

// ValidEmotion reports whether s is one of the permitted values
func ValidEmotion(s string) bool {
	switch Emotion(s) {
	case EmotionHappiness, EmotionHope, EmotionAnger, EmotionSadness, EmotionFear, EmotionNeutral:
		return true
	}
	return false
}

// ValidSubjectivity reports whether s is one of the permitted values
func ValidSubjectivity(s string) bool {
	switch Subjectivity(s) {
	case SubjectiveYes, SubjectiveNo:
		return true
	}
	return false
}
