package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"sjsage522/dealcatalog/config"
	"sjsage522/dealcatalog/internal/catalog"
	"sjsage522/dealcatalog/internal/crawler"
	"sjsage522/dealcatalog/internal/deal"
	"sjsage522/dealcatalog/internal/ingest"
	"sjsage522/dealcatalog/services/publisher"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockRunner records calls and returns fixed results
type MockRunner struct {
	mu      sync.Mutex
	calls   int
	results ingest.Results
	err     error
}

var _ Runner = (*MockRunner)(nil)

func (m *MockRunner) Run(context.Context, []crawler.Crawler) (ingest.Results, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.results, m.err
}

func (m *MockRunner) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// MockPublisher counts stream trims
type MockPublisher struct {
	mu      sync.Mutex
	trims   int
	trimErr error
}

var _ publisher.Publisher = (*MockPublisher)(nil)

func (m *MockPublisher) Publish(context.Context, string, []byte) error { return nil }

func (m *MockPublisher) TrimStreams(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trims++
	return m.trimErr
}

func (m *MockPublisher) Close() error { return nil }

func (m *MockPublisher) Trims() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.trims
}

func TestWorkerRunOnce(t *testing.T) {
	runner := &MockRunner{results: ingest.Results{"amazon": {Found: 5, Added: 5}}}
	pub := &MockPublisher{}

	var got ingest.Results
	w := NewWorker(runner, nil, pub, time.Hour, func(r ingest.Results) { got = r })

	results, err := w.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, runner.results, results)
	assert.Equal(t, runner.results, got)
	assert.Equal(t, 1, pub.Trims())
}

func TestWorkerRunOnceTrimFailureIsLogged(t *testing.T) {
	runner := &MockRunner{results: ingest.Results{}}
	pub := &MockPublisher{trimErr: errors.New("redis down")}

	w := NewWorker(runner, nil, pub, time.Hour, nil)

	_, err := w.RunOnce(context.Background())
	assert.NoError(t, err)
}

func TestWorkerRunOnceRunFailure(t *testing.T) {
	runner := &MockRunner{err: errors.New("no crawlers")}
	pub := &MockPublisher{}
	called := false

	w := NewWorker(runner, nil, pub, time.Hour, func(ingest.Results) { called = true })

	_, err := w.RunOnce(context.Background())
	assert.Error(t, err)
	assert.False(t, called)
	assert.Zero(t, pub.Trims())
}

func TestWorkerStartStopsOnCancel(t *testing.T) {
	runner := &MockRunner{results: ingest.Results{}}
	w := NewWorker(runner, nil, nil, 10*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()

	assert.Eventually(t, func() bool { return runner.Calls() >= 3 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestWorkerStartKeepsGoingAfterFailure(t *testing.T) {
	runner := &MockRunner{err: errors.New("boom")}
	w := NewWorker(runner, nil, nil, 5*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)

	assert.Eventually(t, func() bool { return runner.Calls() >= 2 }, time.Second, 5*time.Millisecond)
}

func TestWorkerWithManager(t *testing.T) {
	store := catalog.NewMemory()
	manager := ingest.NewManager(store, deal.NewScorer("amazon"), nil)
	crawlers := []crawler.Crawler{crawler.NewSyntheticCrawler(config.SiteConfig{Name: "amazon"})}

	w := NewWorker(manager, crawlers, nil, time.Hour, nil)

	results, err := w.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ingest.Stats{Found: 5, Added: 5}, results["amazon"])
	assert.Equal(t, ingest.StateCompleted, manager.State())
}
