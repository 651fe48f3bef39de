package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/chxlky/trello-pm/internal/models"
	"github.com/chxlky/trello-pm/internal/report"
	"github.com/chxlky/trello-pm/internal/status"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Runner interface {
	Run(ctx context.Context) (*report.Report, error)
}

type Snapshot interface {
	Cards(ctx context.Context, bucket string) ([]models.CardRecord, error)
}

const DefaultRunTimeout = 2 * time.Minute

type Handler struct {
	Runner   Runner
	Snapshot Snapshot

	// RunTimeout bounds a run; DefaultRunTimeout when zero.
	RunTimeout time.Duration

	// runs are strictly one at a time
	mu sync.Mutex
}

// run ignores the request's cancellation and is bounded by RunTimeout instead.
func (h *Handler) run(reqCtx context.Context) (*report.Report, error) {
	timeout := h.RunTimeout
	if timeout <= 0 {
		timeout = DefaultRunTimeout
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(reqCtx), timeout)
	defer cancel()

	h.mu.Lock()
	defer h.mu.Unlock()
	return h.Runner.Run(ctx)
}

func (h *Handler) HealthCheckHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) RunHandler(c *gin.Context) {
	rep, err := h.run(c.Request.Context())
	if err != nil {
		zap.L().Error("Run failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, rep)
}

func (h *Handler) CardsHandler(c *gin.Context) {
	bucket := c.Query("bucket")
	if bucket != "" {
		if _, err := status.ParseBucket(bucket); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	records, err := h.Snapshot.Cards(c.Request.Context(), bucket)
	if err != nil {
		zap.L().Error("Failed to read snapshot", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read snapshot"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"cards": records})
}

func (h *Handler) TrelloWebhookHandler(c *gin.Context) {
	// Trello sends HEAD to verify the callback URL when the webhook is created
	if c.Request.Method != http.MethodPost {
		zap.L().Debug("Received non-POST request to webhook endpoint; responding with 200 OK")
		c.Status(http.StatusOK)
		return
	}

	var payload models.TrelloWebhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		zap.L().Warn("Could not bind webhook JSON payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON payload"})
		return
	}

	action := payload.Action
	zap.L().Info("Received Trello webhook",
		zap.String("type", action.Type),
		zap.String("cardID", action.Data.Card.ID),
	)

	if !payload.TouchesCard() {
		c.JSON(http.StatusOK, gin.H{"message": "No action taken"})
		return
	}

	rep, err := h.run(c.Request.Context())
	if err != nil {
		zap.L().Error("Run triggered by webhook failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	counts := make(map[string]int, len(status.Buckets))
	for _, b := range status.Buckets {
		counts[b.String()] = len(rep.Buckets[b])
	}
	c.JSON(http.StatusOK, gin.H{"message": "Board re-classified", "run_id": rep.RunID, "buckets": counts})
}
