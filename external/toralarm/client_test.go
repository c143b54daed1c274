package toralarm

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/riskibarqy/soccer-livescore/internal/domain/feed"
	"github.com/riskibarqy/soccer-livescore/internal/platform/logging"
	"github.com/riskibarqy/soccer-livescore/internal/platform/resilience"
	"github.com/riskibarqy/soccer-livescore/internal/usecase"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, breaker resilience.CircuitBreakerConfig) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewClient(ClientConfig{
		BaseURL:        server.URL,
		Timeout:        2 * time.Second,
		Logger:         logging.NewNop(),
		CircuitBreaker: breaker,
	})
}

func TestClient_FetchRound_SendsProviderContract(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/competitions/35/matches/round/0" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Accept-Language"); got != acceptLanguage {
			t.Errorf("unexpected accept-language %q", got)
		}
		if got := r.Header.Get("Content-Type"); got != "application/json;charset=UTF-8" {
			t.Errorf("unexpected content-type %q", got)
		}
		body, _ := io.ReadAll(r.Body)
		if string(body) != `{"lng":"it"}` {
			t.Errorf("unexpected body %s", body)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"refresh_time": 60,
			"current_round": 7,
			"selectable_rounds": 38,
			"rounds_detailed": [{"schedule_start": 1760000000, "schedule_end": 1760200000}],
			"data": [
				{"type": "matches", "time": 1760100000, "matches": [{"match_id": 11, "status": 0}]},
				{"type": "ad"}
			]
		}`)
	}, resilience.CircuitBreakerConfig{})

	doc, err := client.FetchRound(context.Background(), 35, 0, "it")
	if err != nil {
		t.Fatalf("FetchRound error: %v", err)
	}
	if doc.RefreshTime != 60 || doc.CurrentRound != 7 || doc.SelectableRounds != 38 {
		t.Fatalf("unexpected round metadata: %+v", doc)
	}
	if len(doc.RoundsDetailed) != 1 {
		t.Fatalf("expected one detailed round, got %d", len(doc.RoundsDetailed))
	}
	if got := len(doc.RecordsOfType(feed.RecordMatches)); got != 1 {
		t.Fatalf("expected one matches record, got %d", got)
	}
}

func TestClient_UnsupportedLanguageFallsBackToEnglish(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if string(body) != `{"lng":"en"}` {
			t.Errorf("unexpected body %s", body)
		}
		_, _ = io.WriteString(w, `{"competitions":[{"id":35,"name":"Serie A","has_table":true,"has_scorers":true},{"id":42,"name":"Cup"}]}`)
	}, resilience.CircuitBreakerConfig{})

	items, err := client.FetchCompetitions(context.Background(), "fr")
	if err != nil {
		t.Fatalf("FetchCompetitions error: %v", err)
	}
	if len(items) != 2 || !items[0].HasTable || items[1].HasScorers {
		t.Fatalf("unexpected competitions: %+v", items)
	}
}

func TestClient_NonOKIsAnError(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error":"unknown"}`)
	}, resilience.CircuitBreakerConfig{})

	_, err := client.FetchTable(context.Background(), 35, "en")
	if err == nil {
		t.Fatalf("expected error for 404")
	}
	if isTransient(err) {
		t.Fatalf("404 must not count as transient: %v", err)
	}
}

func TestClient_MalformedJSONIsAnError(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"data": [`)
	}, resilience.CircuitBreakerConfig{})

	if _, err := client.FetchScorers(context.Background(), 35, "en"); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestClient_BreakerOpensAfterTransientFailures(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}, resilience.CircuitBreakerConfig{Enabled: true, FailureThreshold: 2, OpenTimeout: time.Minute, HalfOpenMaxReq: 1})

	for i := 0; i < 2; i++ {
		if _, err := client.FetchMatchDetails(context.Background(), 35, 11, "en"); err == nil {
			t.Fatalf("expected failure %d", i)
		}
	}

	_, err := client.FetchMatchDetails(context.Background(), 35, 11, "en")
	if !errors.Is(err, usecase.ErrDependencyUnavailable) {
		t.Fatalf("expected breaker rejection, got %v", err)
	}
	if got := hits.Load(); got != 2 {
		t.Fatalf("expected 2 upstream hits, got %d", got)
	}
}

func TestClient_RejectsInvalidIDs(t *testing.T) {
	t.Parallel()

	client := NewClient(ClientConfig{Logger: logging.NewNop()})
	if _, err := client.FetchRound(context.Background(), 0, 0, "en"); !errors.Is(err, usecase.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if _, err := client.FetchMatchDetails(context.Background(), 35, 0, "en"); !errors.Is(err, usecase.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestClient_CancelledWaiterDoesNotFailLiveCaller(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"refresh_time": 60, "data": []}`)
	}))
	t.Cleanup(server.Close)

	client := NewClient(ClientConfig{
		BaseURL:           server.URL,
		Timeout:           2 * time.Second,
		RequestsPerSecond: 10,
		Burst:             1,
		Logger:            logging.NewNop(),
	})
	if !client.limiter.Allow() {
		t.Fatalf("expected initial token")
	}

	staleCtx, cancelStale := context.WithCancel(context.Background())
	staleErr := make(chan error, 1)
	go func() {
		_, err := client.FetchRound(staleCtx, 35, 0, "en")
		staleErr <- err
	}()

	liveErr := make(chan error, 1)
	go func() {
		_, err := client.FetchRound(context.Background(), 35, 0, "en")
		liveErr <- err
	}()

	time.Sleep(20 * time.Millisecond)
	cancelStale()

	select {
	case err := <-liveErr:
		if err != nil {
			t.Fatalf("live caller error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("live caller did not return")
	}
	if err := <-staleErr; err != nil && !errors.Is(err, context.Canceled) {
		t.Fatalf("unexpected stale caller error: %v", err)
	}
}

func TestClient_SharedRequestSurvivesFirstCallerCancel(t *testing.T) {
	t.Parallel()

	arrived := make(chan struct{}, 4)
	release := make(chan struct{})
	var hits atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		arrived <- struct{}{}
		<-release
		_, _ = io.WriteString(w, `{"refresh_time": 60, "data": []}`)
	}, resilience.CircuitBreakerConfig{})

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := client.FetchTable(firstCtx, 35, "en")
		firstErr <- err
	}()
	<-arrived

	liveErr := make(chan error, 1)
	go func() {
		_, err := client.FetchTable(context.Background(), 35, "en")
		liveErr <- err
	}()
	time.Sleep(20 * time.Millisecond)
	cancelFirst()
	close(release)

	if err := <-liveErr; err != nil {
		t.Fatalf("live caller error: %v", err)
	}
	if err := <-firstErr; err != nil {
		t.Fatalf("shared request should complete for the first caller too: %v", err)
	}
	if got := hits.Load(); got < 1 || got > 2 {
		t.Fatalf("unexpected request count %d", got)
	}
}
