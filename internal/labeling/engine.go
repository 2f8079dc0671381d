package labeling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hat3ck/cryptosense/internal/adapters/llm"
	"github.com/hat3ck/cryptosense/internal/reddit"
	"github.com/hat3ck/cryptosense/pkg/logger"
	"github.com/hat3ck/cryptosense/pkg/models"
)

// ErrNoDiscussions is returned when the requested window holds no posts or
// no comments; labeling never runs against an empty batch list.
var ErrNoDiscussions = errors.New("no reddit discussions in requested window")

// DiscussionStore provides the posts and comments to label
type DiscussionStore interface {
	GetPostsByDateRange(ctx context.Context, startUTC, endUTC int64) ([]models.RedditPost, error)
	GetCommentsByDateRange(ctx context.Context, startUTC, endUTC int64) ([]models.RedditComment, error)
}

// LabelStore persists labels and provider quota state
type LabelStore interface {
	GetActiveProvider(ctx context.Context, name string) (*models.LLMProviderRecord, error)
	AddTokenUsage(ctx context.Context, providerID int64, tokens int64) error
	InsertLabels(ctx context.Context, labels []models.SentimentLabel) (int64, error)
}

// ProviderResolver turns a stored provider record into a callable client
type ProviderResolver interface {
	Resolve(record *models.LLMProviderRecord) (llm.Provider, error)
}

// RunSummary reports what a labeling run did
type RunSummary struct {
	Provider        string  `json:"provider"`
	Model           string  `json:"model"`
	Rows            int     `json:"rows"`
	Batches         int     `json:"batches"`
	FailedBatches   int     `json:"failed_batches"`
	LabelsParsed    int     `json:"labels_parsed"`
	LabelsInserted  int64   `json:"labels_inserted"`
	TokensUsed      int64   `json:"tokens_used"`
	DurationSeconds float64 `json:"duration_seconds"`
}

// Engine labels joined post/comment rows in sequential batches through an
// LLM provider, pacing calls to the provider's quota. One failed batch never
// aborts the run; a run with zero successful batches fails.
type Engine struct {
	discussions DiscussionStore
	labels      LabelStore
	resolver    ProviderResolver
	validator   *Validator
	batchSize   int

	// injectable for tests
	sleep func(ctx context.Context, d time.Duration) error
}

// NewEngine creates a labeling engine. batchSize must be positive.
func NewEngine(discussions DiscussionStore, labels LabelStore, resolver ProviderResolver, validator *Validator, batchSize int) *Engine {
	if batchSize <= 0 {
		batchSize = 20
	}
	return &Engine{
		discussions: discussions,
		labels:      labels,
		resolver:    resolver,
		validator:   validator,
		batchSize:   batchSize,
		sleep:       sleepCtx,
	}
}

// Run labels every joined post/comment row in [startUTC, endUTC] and blocks
// until the run completes. providerName may be empty to use whichever
// provider is active.
func (e *Engine) Run(ctx context.Context, providerName string, startUTC, endUTC int64) (*RunSummary, error) {
	started := time.Now()

	posts, err := e.discussions.GetPostsByDateRange(ctx, startUTC, endUTC)
	if err != nil {
		return nil, fmt.Errorf("failed to load posts: %w", err)
	}
	comments, err := e.discussions.GetCommentsByDateRange(ctx, startUTC, endUTC)
	if err != nil {
		return nil, fmt.Errorf("failed to load comments: %w", err)
	}
	if len(posts) == 0 || len(comments) == 0 {
		return nil, fmt.Errorf("%w: %d posts, %d comments", ErrNoDiscussions, len(posts), len(comments))
	}

	rows := reddit.JoinPostsComments(posts, comments)
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no comments belong to posts in window", ErrNoDiscussions)
	}

	record, err := e.labels.GetActiveProvider(ctx, providerName)
	if err != nil {
		return nil, err
	}
	provider, err := e.resolver.Resolve(record)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve provider %s: %w", record.Name, err)
	}

	delay := llm.PacingDelay(record.CallsPerMinute.Int64)
	batches := chunkRows(rows, e.batchSize)

	logger.Info("Starting labeling run",
		zap.String("provider", record.Name),
		zap.String("model", record.Model),
		zap.Int("rows", len(rows)),
		zap.Int("batches", len(batches)),
		zap.Duration("pacing_delay", delay))

	summary := &RunSummary{
		Provider: record.Name,
		Model:    record.Model,
		Rows:     len(rows),
		Batches:  len(batches),
	}

	for i, batch := range batches {
		if i > 0 {
			if err := e.sleep(ctx, delay); err != nil {
				return summary, fmt.Errorf("labeling run interrupted: %w", err)
			}
		}

		if err := e.labelBatch(ctx, provider, record, batch, summary); err != nil {
			summary.FailedBatches++
			logger.Error("Labeling batch failed",
				zap.Int("batch", i+1),
				zap.Int("batches", len(batches)),
				zap.Error(err))
		}
	}

	summary.DurationSeconds = time.Since(started).Seconds()

	if summary.FailedBatches == summary.Batches {
		return summary, fmt.Errorf("all %d labeling batches failed", summary.Batches)
	}

	logger.Info("Labeling run finished",
		zap.Int("batches", summary.Batches),
		zap.Int("failed_batches", summary.FailedBatches),
		zap.Int64("labels_inserted", summary.LabelsInserted),
		zap.Int64("tokens_used", summary.TokensUsed),
		zap.Float64("duration_seconds", summary.DurationSeconds))

	return summary, nil
}

// RunDetached starts a labeling run in the background and returns
// immediately. The run keeps going after the caller's context is done; its
// outcome is only reported through logs.
func (e *Engine) RunDetached(ctx context.Context, providerName string, startUTC, endUTC int64) {
	detached := context.WithoutCancel(ctx)
	go func() {
		if _, err := e.Run(detached, providerName, startUTC, endUTC); err != nil {
			logger.Error("Detached labeling run failed", zap.Error(err))
		}
	}()
}

// labelBatch sends one batch through the provider and persists whatever
// validated. Token usage is recorded as soon as the generation succeeds,
// before parsing, so rejected batches still count against the quota.
func (e *Engine) labelBatch(ctx context.Context, provider llm.Provider, record *models.LLMProviderRecord, batch []models.PostCommentRow, summary *RunSummary) error {
	gen, err := provider.GenerateText(ctx, BuildPrompt(batch))
	if err != nil {
		return fmt.Errorf("generation failed: %w", err)
	}

	summary.TokensUsed += gen.TotalTokens()
	if err := e.labels.AddTokenUsage(ctx, record.ID, gen.TotalTokens()); err != nil {
		logger.Warn("Failed to record token usage", zap.Error(err))
	}

	parsed := ParseResponse(gen.Text)
	summary.LabelsParsed += len(parsed)

	labels, err := e.validator.Validate(parsed, len(batch))
	if err != nil {
		return err
	}

	inserted, err := e.labels.InsertLabels(ctx, labels)
	if err != nil {
		return fmt.Errorf("failed to persist labels: %w", err)
	}
	summary.LabelsInserted += inserted

	return nil
}

// chunkRows splits rows into consecutive batches of at most size rows
func chunkRows(rows []models.PostCommentRow, size int) [][]models.PostCommentRow {
	batches := make([][]models.PostCommentRow, 0, (len(rows)+size-1)/size)
	for start := 0; start < len(rows); start += size {
		end := start + size
		if end > len(rows) {
			end = len(rows)
		}
		batches = append(batches, rows[start:end])
	}
	return batches
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
