package main

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/soccer-livescore/internal/platform/logging"
	"github.com/riskibarqy/soccer-livescore/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPlanView(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 10, 18, 18, 0, 0, 0, time.UTC)
	view := newPlanView(35, usecase.PlanAfter(now, 10*time.Minute))
	require.NotNil(t, view.NextPollAt)
	assert.Equal(t, int64(600_000), view.DelayMs)
	assert.Equal(t, now.Add(10*time.Minute), *view.NextPollAt)

	stopped := newPlanView(35, usecase.PollPlan{Decision: usecase.DecisionAfterWindow, Stop: true})
	assert.Nil(t, stopped.NextPollAt)
	assert.True(t, stopped.SeasonOver)

	var out bytes.Buffer
	require.NoError(t, writePlan(&out, stopped))
	assert.Contains(t, out.String(), "season complete")
}

func TestConfigPush_PostsSettings(t *testing.T) {
	t.Parallel()

	var (
		gotToken string
		gotBody  usecase.DisplaySettings
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/config", r.URL.Path)
		gotToken = r.Header.Get("X-Admin-Token")
		raw, _ := io.ReadAll(r.Body)
		_ = sonic.Unmarshal(raw, &gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"apiVersion":"2.0","data":{"feed_count":2}}`))
	}))
	t.Cleanup(srv.Close)

	var out bytes.Buffer
	root := newRootCommand(&out, logging.NewNop())
	root.SetArgs([]string{"config", "push", "--server", srv.URL, "--token", "s3cret", "--leagues", "35,42", "--tables", "--language", "it"})
	require.NoError(t, root.Execute())

	assert.Equal(t, "s3cret", gotToken)
	assert.Equal(t, []int64{35, 42}, gotBody.Leagues)
	assert.True(t, gotBody.ShowStandings)
	assert.True(t, gotBody.ShowTables)
	assert.False(t, gotBody.ShowScorers)
	assert.Equal(t, "it", gotBody.Language)
	assert.True(t, strings.Contains(out.String(), "feed_count"))
}

func TestConfigPush_SurfacesServiceErrors(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"status":"UNAUTHENTICATED"}}`))
	}))
	t.Cleanup(srv.Close)

	root := newRootCommand(io.Discard, logging.NewNop())
	root.SetArgs([]string{"config", "push", "--server", srv.URL, "--leagues", "35"})
	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestPlanCommand_RejectsInvalidID(t *testing.T) {
	t.Parallel()

	root := newRootCommand(io.Discard, logging.NewNop())
	root.SetArgs([]string{"plan", "serie-a"})
	assert.Error(t, root.Execute())
}
