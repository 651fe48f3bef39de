package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/chxlky/trello-pm/database"
	"github.com/chxlky/trello-pm/integrations"
	"github.com/chxlky/trello-pm/internal/config"
	"github.com/chxlky/trello-pm/internal/models"
	"github.com/chxlky/trello-pm/internal/report"
	"github.com/chxlky/trello-pm/internal/status"
	"github.com/chxlky/trello-pm/internal/tracker"
	"github.com/chxlky/trello-pm/internal/trellotest"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeRunner struct {
	calls int
	err   error

	ctxErr      error
	hasDeadline bool
}

func (f *fakeRunner) Run(ctx context.Context) (*report.Report, error) {
	f.calls++
	f.ctxErr = ctx.Err()
	_, f.hasDeadline = ctx.Deadline()
	if f.err != nil {
		return nil, f.err
	}
	rep := report.New("run-fake", "Sprint Board", "Done", time.Now())
	rep.Add(report.Card{Card: models.Card{ID: "c1"}, Status: status.Overdue, Bucket: status.BucketOverdue})
	return rep, nil
}

type fakeSnapshot struct {
	bucket string
}

func (f *fakeSnapshot) Cards(_ context.Context, bucket string) ([]models.CardRecord, error) {
	f.bucket = bucket
	return []models.CardRecord{{ID: "c1", Bucket: "overdue"}}, nil
}

func newTestRouter(h *Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return NewRouter(zap.NewNop(), h)
}

func do(t *testing.T, r http.Handler, method, path string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealthCheck(t *testing.T) {
	r := newTestRouter(&Handler{})
	w := do(t, r, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestWebhook_Head(t *testing.T) {
	runner := &fakeRunner{}
	r := newTestRouter(&Handler{Runner: runner})

	w := do(t, r, http.MethodHead, "/api/trello-webhook", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Zero(t, runner.calls)
}

func TestWebhook_Post(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantCode  int
		wantCalls int
	}{
		{"card action triggers run", `{"action":{"type":"updateCheckItemStateOnCard","data":{"card":{"id":"c1","name":"x"}}}}`, http.StatusOK, 1},
		{"board action ignored", `{"action":{"type":"updateBoard","data":{"board":{"id":"b1"}}}}`, http.StatusOK, 0},
		{"bad payload", `{"action":`, http.StatusBadRequest, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &fakeRunner{}
			r := newTestRouter(&Handler{Runner: runner})

			w := do(t, r, http.MethodPost, "/api/trello-webhook", []byte(tt.body))
			assert.Equal(t, tt.wantCode, w.Code)
			assert.Equal(t, tt.wantCalls, runner.calls)
		})
	}
}

func TestWebhook_RunSurvivesCancelledRequest(t *testing.T) {
	runner := &fakeRunner{}
	r := newTestRouter(&Handler{Runner: runner, RunTimeout: time.Minute})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	body := []byte(`{"action":{"type":"updateCard","data":{"card":{"id":"c1"}}}}`)
	req := httptest.NewRequest(http.MethodPost, "/api/trello-webhook", bytes.NewReader(body)).WithContext(ctx)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 1, runner.calls)
	assert.NoError(t, runner.ctxErr, "run must not inherit the request's cancellation")
	assert.True(t, runner.hasDeadline)
}

func TestWebhook_RunFailure(t *testing.T) {
	r := newTestRouter(&Handler{Runner: &fakeRunner{err: errors.New("trello down")}})

	w := do(t, r, http.MethodPost, "/api/trello-webhook", []byte(`{"action":{"type":"updateCard","data":{"card":{"id":"c1"}}}}`))
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "trello down")
}

func TestCards_BucketFilter(t *testing.T) {
	snap := &fakeSnapshot{}
	r := newTestRouter(&Handler{Snapshot: snap})

	w := do(t, r, http.MethodGet, "/api/cards?bucket=overdue", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "overdue", snap.bucket)

	w = do(t, r, http.MethodGet, "/api/cards?bucket=archived", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRunThenCards_EndToEnd(t *testing.T) {
	srv := trellotest.New()
	t.Cleanup(srv.Close)
	now := time.Date(2023, 5, 10, 12, 0, 0, 0, time.UTC)

	late := trellotest.DoingCard("c-late", "Late", now)
	late.Due = trellotest.Date(now.Add(-time.Hour))
	srv.AddCard(late, trellotest.Checklist("cl1", "Build", "incomplete"))
	srv.AddCard(trellotest.DoingCard("c-done", "Done already", now), trellotest.Checklist("cl2", "Build", "complete"))

	tc := integrations.NewTrelloClient(trellotest.Key, trellotest.Token, "")
	tc.BaseURL = srv.BaseURL()

	cfg := config.Sample()
	cfg.UserName = trellotest.UserName
	cfg.BoardName = trellotest.BoardName
	board, err := tracker.Resolve(context.Background(), tc, cfg)
	require.NoError(t, err)

	db, err := database.Open(filepath.Join(t.TempDir(), "cards.db"))
	require.NoError(t, err)
	store := database.NewStore(db)

	tr := tracker.New(tc, cfg, board,
		tracker.WithClock(func() time.Time { return now }),
		tracker.WithRecorder(store),
	)
	r := newTestRouter(&Handler{Runner: tr, Snapshot: store})

	w := do(t, r, http.MethodPost, "/api/runs", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var rep struct {
		RunID   string                       `json:"run_id"`
		Buckets map[string][]json.RawMessage `json:"buckets"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rep))
	assert.NotEmpty(t, rep.RunID)
	assert.Len(t, rep.Buckets["overdue"], 1)
	assert.Len(t, rep.Buckets["complete"], 1)

	w = do(t, r, http.MethodGet, "/api/cards?bucket=complete", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var cards struct {
		Cards []models.CardRecord `json:"cards"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cards))
	require.Len(t, cards.Cards, 1)
	assert.Equal(t, "c-done", cards.Cards[0].ID)
	assert.Equal(t, rep.RunID, cards.Cards[0].RunID)

	moved, ok := srv.Card("c-done")
	require.True(t, ok)
	assert.Equal(t, trellotest.DoneListID, moved.IDList)
}
