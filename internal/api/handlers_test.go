package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/hat3ck/cryptosense/internal/labeling"
	"github.com/hat3ck/cryptosense/pkg/models"
)

type fakeLabeler struct {
	summary      *labeling.RunSummary
	err          error
	detachedRuns int
	lastStart    int64
	lastEnd      int64
}

func (f *fakeLabeler) Run(_ context.Context, _ string, startUTC, endUTC int64) (*labeling.RunSummary, error) {
	f.lastStart, f.lastEnd = startUTC, endUTC
	return f.summary, f.err
}

func (f *fakeLabeler) RunDetached(_ context.Context, _ string, startUTC, endUTC int64) {
	f.detachedRuns++
	f.lastStart, f.lastEnd = startUTC, endUTC
}

type fakeSentiments struct {
	labels []models.SentimentLabel
	err    error
}

func (f *fakeSentiments) GetLabelsByDateRange(_ context.Context, _, _ int64) ([]models.SentimentLabel, error) {
	return f.labels, f.err
}

type fakePredictor struct {
	records []models.PredictionRecord
	err     error
}

func (f *fakePredictor) RunCycle(_ context.Context) ([]models.PredictionRecord, error) {
	return f.records, f.err
}

type fakePredictionReader struct {
	records []models.PredictionRecord
}

func (f *fakePredictionReader) GetRecentPredictions(_ context.Context, _ string, _ int) ([]models.PredictionRecord, error) {
	return f.records, nil
}

func newTestServer(labeler *fakeLabeler, sentiments *fakeSentiments, predictor *fakePredictor) *echo.Echo {
	e := echo.New()
	handler := NewHandler(labeler, sentiments, predictor, &fakePredictionReader{}, map[string]HealthCheck{
		"database": func(context.Context) error { return nil },
	})
	handler.RegisterRoutes(e)
	return e
}

func doRequest(e *echo.Echo, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestLabelDateRangeDetached(t *testing.T) {
	labeler := &fakeLabeler{}
	e := newTestServer(labeler, &fakeSentiments{}, &fakePredictor{})

	rec := doRequest(e, http.MethodGet, "/api/llm/reddit_sentiments_by_date_range?start_date=100&end_date=200")

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202: %s", rec.Code, rec.Body.String())
	}
	if labeler.detachedRuns != 1 {
		t.Errorf("detached runs = %d, want 1", labeler.detachedRuns)
	}
	if labeler.lastStart != 100 || labeler.lastEnd != 200 {
		t.Errorf("labeled window = [%d, %d], want [100, 200]", labeler.lastStart, labeler.lastEnd)
	}
}

func TestSentiments(t *testing.T) {
	sentiments := &fakeSentiments{labels: []models.SentimentLabel{
		{PostID: "p1", CommentID: "c1", CryptoSentiment: models.SentimentPositive},
	}}
	e := newTestServer(&fakeLabeler{}, sentiments, &fakePredictor{})

	rec := doRequest(e, http.MethodGet, "/api/llm/sentiments?start_date=100&end_date=200")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if body.Count != 1 {
		t.Errorf("count = %d, want 1", body.Count)
	}
}

func TestLabelDateRangeValidation(t *testing.T) {
	labeler := &fakeLabeler{}
	e := newTestServer(labeler, &fakeSentiments{}, &fakePredictor{})

	tests := []struct {
		name   string
		target string
	}{
		{"missing params", "/api/llm/reddit_sentiments_by_date_range"},
		{"non-numeric", "/api/llm/reddit_sentiments_by_date_range?start_date=abc&end_date=200"},
		{"inverted range", "/api/llm/reddit_sentiments_by_date_range?start_date=300&end_date=200"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := doRequest(e, http.MethodGet, tt.target); rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
	if labeler.detachedRuns != 0 {
		t.Errorf("rejected requests must not start runs, got %d", labeler.detachedRuns)
	}
}

func TestLabelHourlyDetachedByDefault(t *testing.T) {
	labeler := &fakeLabeler{}
	e := newTestServer(labeler, &fakeSentiments{}, &fakePredictor{})

	rec := doRequest(e, http.MethodGet, "/api/llm/reddit_sentiments_hourly?hours=2")

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", rec.Code)
	}
	if labeler.detachedRuns != 1 {
		t.Errorf("detached runs = %d, want 1", labeler.detachedRuns)
	}
	if got := labeler.lastEnd - labeler.lastStart; got != 2*3600 {
		t.Errorf("labeled window = %d seconds, want 7200", got)
	}
}

func TestLabelHourlyWaited(t *testing.T) {
	labeler := &fakeLabeler{summary: &labeling.RunSummary{Batches: 3, LabelsInserted: 42}}
	e := newTestServer(labeler, &fakeSentiments{}, &fakePredictor{})

	rec := doRequest(e, http.MethodGet, "/api/llm/reddit_sentiments_hourly?wait=true")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var summary labeling.RunSummary
	if err := json.Unmarshal(rec.Body.Bytes(), &summary); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if summary.LabelsInserted != 42 {
		t.Errorf("labels inserted = %d, want 42", summary.LabelsInserted)
	}
	if labeler.detachedRuns != 0 {
		t.Error("wait=true must not detach the run")
	}
}

func TestLabelHourlyEmptyWindow(t *testing.T) {
	labeler := &fakeLabeler{err: labeling.ErrNoDiscussions}
	e := newTestServer(labeler, &fakeSentiments{}, &fakePredictor{})

	if rec := doRequest(e, http.MethodGet, "/api/llm/reddit_sentiments_hourly?wait=true"); rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestPredict(t *testing.T) {
	predictor := &fakePredictor{records: []models.PredictionRecord{
		{Currency: "btc", PricedIn: "usd"},
	}}
	e := newTestServer(&fakeLabeler{}, &fakeSentiments{}, predictor)

	rec := doRequest(e, http.MethodPost, "/api/ml/predict")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if body.Count != 1 {
		t.Errorf("count = %d, want 1", body.Count)
	}
}

func TestPredictFailure(t *testing.T) {
	predictor := &fakePredictor{err: errors.New("no models configured")}
	e := newTestServer(&fakeLabeler{}, &fakeSentiments{}, predictor)

	if rec := doRequest(e, http.MethodPost, "/api/ml/predict"); rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	e := newTestServer(&fakeLabeler{}, &fakeSentiments{}, &fakePredictor{})

	if rec := doRequest(e, http.MethodGet, "/healthz"); rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}
