package ml

import (
	"fmt"
	"strings"
)

// Factory builds an unfitted model from stored hyperparameters
type Factory func(hyperparameters map[string]float64) (Model, error)

// Registry maps stored (provider, model) identifiers to model factories.
// Unknown pairs fail fast at lookup, before any data is fetched.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry returns a registry with the built-in model set
func NewRegistry() *Registry {
	r := &Registry{factories: map[string]Factory{}}
	r.Register("xgboost", "XGBRegressor", newGBTFromHyperparameters)
	return r
}

// Register adds a factory for a (provider, model) pair
func (r *Registry) Register(provider, model string, factory Factory) {
	r.factories[registryKey(provider, model)] = factory
}

// Build instantiates an unfitted model for the given identifiers
func (r *Registry) Build(provider, model string, hyperparameters map[string]float64) (Model, error) {
	factory, ok := r.factories[registryKey(provider, model)]
	if !ok {
		return nil, fmt.Errorf("unsupported model %s/%s", provider, model)
	}
	return factory(hyperparameters)
}

func registryKey(provider, model string) string {
	return strings.ToLower(provider) + "/" + strings.ToLower(model)
}

// newGBTFromHyperparameters maps the stored xgboost-style hyperparameters
// onto GBTParams, ignoring keys the trainer has no equivalent for
func newGBTFromHyperparameters(hp map[string]float64) (Model, error) {
	params := DefaultGBTParams()
	if v, ok := hp["n_estimators"]; ok {
		params.NEstimators = int(v)
	}
	if v, ok := hp["learning_rate"]; ok {
		params.LearningRate = v
	}
	if v, ok := hp["max_depth"]; ok {
		params.MaxDepth = int(v)
	}
	if v, ok := hp["min_samples_leaf"]; ok {
		params.MinSamplesLeaf = int(v)
	}
	return NewGBTRegressor(params), nil
}
