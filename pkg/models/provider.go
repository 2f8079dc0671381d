package models

import "database/sql"

// LLMProviderRecord is the stored configuration and quota state of one text
// generation provider. TotalUsedTokens only ever grows.
type LLMProviderRecord struct {
	ID              int64          `db:"id" json:"id"`
	Name            string         `db:"name" json:"name"`
	Model           string         `db:"model" json:"model"`
	DefaultAPIKey   sql.NullString `db:"default_api_key" json:"-"`
	APIURL          sql.NullString `db:"api_url" json:"api_url"`
	TokensPerMinute sql.NullInt64  `db:"tokens_per_minute" json:"tokens_per_minute"`
	CallsPerMinute  sql.NullInt64  `db:"calls_per_minute" json:"calls_per_minute"`
	TotalUsedTokens int64          `db:"total_used_tokens" json:"total_used_tokens"`
	IsActive        bool           `db:"is_active" json:"is_active"`
	CreatedAt       int64          `db:"created_at" json:"created_at"`
}

// Generation is the output of a single text-generation call
type Generation struct {
	Text         string
	InputTokens  int64
	OutputTokens int64
}

// TotalTokens returns the combined token count of the call
func (g *Generation) TotalTokens() int64 {
	return g.InputTokens + g.OutputTokens
}
