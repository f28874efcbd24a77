package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crawlkit/shopscraper/internal/dom"
	"github.com/crawlkit/shopscraper/internal/models"
	"github.com/crawlkit/shopscraper/internal/queue"
)

var errFetch = errors.New("navigation failed")

type stubFetcher struct {
	err error
}

func (f *stubFetcher) Fetch(_ context.Context, _ string) (dom.Page, func(), error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	return nil, func() {}, nil
}

type stubExtractor struct{}

func (stubExtractor) Extract(_ context.Context, _ dom.Page) (*models.Product, error) {
	p := models.NewProduct("https://shop.example/p/1")
	title := "Shirt"
	p.Title = &title
	return p, nil
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

func newTestServer(t *testing.T, fetcher *stubFetcher) (*httptest.Server, *JobStore, *queue.InMemoryQueue) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(discardWriter{}, nil))
	tasks := queue.NewInMemoryQueue()
	jobs := NewJobStore()
	h := NewHandlers(fetcher, stubExtractor{}, tasks, jobs, logger)

	srv := httptest.NewServer(NewRouter(h))
	t.Cleanup(srv.Close)
	return srv, jobs, tasks
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	resp, err := http.Post(url, "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestExtractReturnsProduct(t *testing.T) {
	srv, _, _ := newTestServer(t, &stubFetcher{})

	resp := postJSON(t, srv.URL+"/api/v1/extract", ExtractRequest{URL: "https://shop.example/p/1"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result models.ScrapeResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.True(t, result.Success)
	require.NotNil(t, result.Product)
	require.NotNil(t, result.Product.Title)
	assert.Equal(t, "Shirt", *result.Product.Title)
}

func TestExtractRequiresURL(t *testing.T) {
	srv, _, _ := newTestServer(t, &stubFetcher{})

	resp := postJSON(t, srv.URL+"/api/v1/extract", ExtractRequest{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestExtractReportsFetchFailure(t *testing.T) {
	srv, _, _ := newTestServer(t, &stubFetcher{err: errFetch})

	resp := postJSON(t, srv.URL+"/api/v1/extract", ExtractRequest{URL: "https://shop.example/p/1"})
	require.Equal(t, http.StatusBadGateway, resp.StatusCode)

	var result models.ScrapeResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Error)
}

func TestCreateJobEnqueuesTasks(t *testing.T) {
	srv, jobs, tasks := newTestServer(t, &stubFetcher{})

	resp := postJSON(t, srv.URL+"/api/v1/jobs", CreateJobRequest{
		URLs: []string{"https://shop.example/p/1", "https://shop.example/p/2"},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created CreateJobResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	assert.NotEmpty(t, created.JobID)
	assert.Equal(t, 2, created.Total)

	size, err := tasks.Size(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, size)

	job, ok := jobs.Get(created.JobID)
	require.True(t, ok)
	assert.Equal(t, JobPending, job.Status)
}

func TestGetJobTracksProgress(t *testing.T) {
	srv, jobs, _ := newTestServer(t, &stubFetcher{})

	job := jobs.Create(2)
	ok := models.NewProduct("https://shop.example/p/1")
	failed := models.NewProduct("https://shop.example/p/2")
	failed.Error = "navigation failed"
	jobs.RecordResult(job.ID, ok)
	jobs.RecordResult(job.ID, failed)

	resp, err := http.Get(srv.URL + "/api/v1/jobs/" + job.ID)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got Job
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, JobCompleted, got.Status)
	assert.Equal(t, 2, got.Done)
	assert.Equal(t, 1, got.Failed)
	assert.Len(t, got.Products, 2)
}

func TestGetJobNotFound(t *testing.T) {
	srv, _, _ := newTestServer(t, &stubFetcher{})

	resp, err := http.Get(srv.URL + "/api/v1/jobs/missing")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHealthReportsQueueSize(t *testing.T) {
	srv, _, tasks := newTestServer(t, &stubFetcher{})

	require.NoError(t, tasks.Push(context.Background(), &queue.Task{ID: "t1", URL: "https://shop.example/p/1"}))

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var health map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, "ok", health["status"])
	assert.Equal(t, float64(1), health["queue_size"])
}
