package models

import (
	"encoding/json"
	"fmt"
)

// ModelType classifies a model configuration
type ModelType string

const (
	ModelTypeRegression     ModelType = "regression"
	ModelTypeClassification ModelType = "classification"
)

// MLModelConfig is one stored model configuration. Exactly one active config
// exists per (prediction currency, provider, model) lookup key.
type MLModelConfig struct {
	ID                 int64     `db:"id" json:"id"`
	Name               string    `db:"name" json:"name"`
	PredictionCurrency string    `db:"prediction_currency" json:"prediction_currency"`
	Description        string    `db:"description" json:"description"`
	Provider           string    `db:"provider" json:"provider"`
	Model              string    `db:"model" json:"model"`
	ModelType          ModelType `db:"model_type" json:"model_type"`
	// JSON-encoded columns, decoded on read
	HyperparametersRaw     []byte `db:"hyperparameters" json:"-"`
	NumericFeaturesRaw     []byte `db:"numeric_features" json:"-"`
	CategoricalFeaturesRaw []byte `db:"categorical_features" json:"-"`
	TargetVariable         string `db:"target_variable" json:"target_variable"`
	CreatedUTC             int64  `db:"created_utc" json:"created_utc"`
	UpdatedUTC             int64  `db:"updated_utc" json:"updated_utc"`
	IsActive               bool   `db:"is_active" json:"is_active"`

	Hyperparameters     map[string]float64 `json:"hyperparameters"`
	NumericFeatures     []string           `json:"numeric_features"`
	CategoricalFeatures []string           `json:"categorical_features"`
}

// DecodeJSONColumns fills the decoded fields from their raw JSON columns
func (m *MLModelConfig) DecodeJSONColumns() error {
	if len(m.HyperparametersRaw) > 0 {
		if err := json.Unmarshal(m.HyperparametersRaw, &m.Hyperparameters); err != nil {
			return fmt.Errorf("failed to decode hyperparameters for model %q: %w", m.Name, err)
		}
	}
	if len(m.NumericFeaturesRaw) > 0 {
		if err := json.Unmarshal(m.NumericFeaturesRaw, &m.NumericFeatures); err != nil {
			return fmt.Errorf("failed to decode numeric features for model %q: %w", m.Name, err)
		}
	}
	if len(m.CategoricalFeaturesRaw) > 0 {
		if err := json.Unmarshal(m.CategoricalFeaturesRaw, &m.CategoricalFeatures); err != nil {
			return fmt.Errorf("failed to decode categorical features for model %q: %w", m.Name, err)
		}
	}
	return nil
}
