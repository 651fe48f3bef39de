package tracker

import (
	"context"
	"fmt"
	"time"

	"github.com/chxlky/trello-pm/internal/config"
	"github.com/chxlky/trello-pm/internal/models"
	"github.com/chxlky/trello-pm/internal/report"
	"github.com/chxlky/trello-pm/internal/status"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Recorder keeps the outcome of a run, e.g. the snapshot store.
type Recorder interface {
	Record(ctx context.Context, r *report.Report) error
}

type Tracker struct {
	api      Trello
	cfg      *config.Config
	board    *Board
	now      func() time.Time
	recorder Recorder
	dryRun   bool
}

type Option func(*Tracker)

func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

func WithRecorder(r Recorder) Option {
	return func(t *Tracker) { t.recorder = r }
}

// WithDryRun classifies and reports without touching the board.
func WithDryRun(dryRun bool) Option {
	return func(t *Tracker) { t.dryRun = dryRun }
}

func New(api Trello, cfg *config.Config, board *Board, opts ...Option) *Tracker {
	t := &Tracker{
		api:   api,
		cfg:   cfg,
		board: board,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Tracker) Board() *Board {
	return t.board
}

func (t *Tracker) thresholds() status.Thresholds {
	return status.Thresholds{IdleMinutes: t.cfg.IdleThreshold}
}

// Run classifies every card on the doing list, moves completed cards to the
// done list and returns the report. The first Trello error aborts the run.
func (t *Tracker) Run(ctx context.Context) (*report.Report, error) {
	now := t.now().UTC()
	rep := report.New(uuid.NewString(), t.board.Name, t.board.Done.Name, now)
	rep.DryRun = t.dryRun
	log := zap.L().With(zap.String("runID", rep.RunID))

	raw, err := t.api.ListCards(ctx, t.board.Doing.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cards of %q: %w", t.board.Doing.Name, err)
	}
	log.Info("Fetched doing cards", zap.String("list", t.board.Doing.Name), zap.Int("cards", len(raw)))

	for _, tc := range raw {
		checklists, err := t.api.CardChecklists(ctx, tc.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch checklists of card %s: %w", tc.ID, err)
		}
		card, err := models.NewCard(tc, checklists)
		if err != nil {
			return nil, err
		}

		entry, ok := t.classify(card, now)
		if !ok {
			log.Debug("Card has no recognisable status; leaving it out of the report",
				zap.String("cardID", card.ID), zap.String("name", card.Name))
			rep.Dropped++
			continue
		}
		rep.Add(entry)
	}

	if err := t.closeCompleted(ctx, rep); err != nil {
		return nil, err
	}

	if t.recorder != nil {
		if err := t.recorder.Record(ctx, rep); err != nil {
			return nil, fmt.Errorf("failed to record run %s: %w", rep.RunID, err)
		}
	}

	log.Info("Run finished",
		zap.Int("complete", len(rep.Buckets[status.BucketComplete])),
		zap.Int("inProgress", len(rep.Buckets[status.BucketInProgress])),
		zap.Int("overdue", len(rep.Buckets[status.BucketOverdue])),
		zap.Int("withIssue", len(rep.Buckets[status.BucketWithIssue])),
		zap.Int("idle", len(rep.Buckets[status.BucketIdle])),
		zap.Int("dropped", rep.Dropped),
		zap.Bool("dryRun", t.dryRun),
	)
	return rep, nil
}

func (t *Tracker) classify(card models.Card, now time.Time) (report.Card, bool) {
	res := status.Classify(card, t.thresholds(), now)
	bucket, ok := status.Route(res)
	if !ok {
		return report.Card{}, false
	}
	return report.Card{
		Card:   card,
		Status: res.Status,
		Issues: res.Issues,
		Bucket: bucket,
	}, true
}

// closeCompleted comments on, marks and moves each completed card, in that order.
func (t *Tracker) closeCompleted(ctx context.Context, rep *report.Report) error {
	cards := rep.Buckets[status.BucketComplete]
	for i := range cards {
		c := &cards[i]
		c.CloseSummary = report.CloseSummary(c.Card, t.board.Members, t.cfg.CloseSignature)
		if t.dryRun {
			continue
		}
		if err := t.api.AddComment(ctx, c.Card.ID, c.CloseSummary); err != nil {
			return fmt.Errorf("failed to comment on card %s: %w", c.Card.ID, err)
		}
		if err := t.api.MarkDueComplete(ctx, c.Card.ID); err != nil {
			return fmt.Errorf("failed to mark card %s complete: %w", c.Card.ID, err)
		}
		if err := t.api.MoveCard(ctx, c.Card.ID, t.board.Done.ID); err != nil {
			return fmt.Errorf("failed to move card %s to %q: %w", c.Card.ID, t.board.Done.Name, err)
		}
		zap.L().Info("Closed completed card",
			zap.String("cardID", c.Card.ID),
			zap.String("name", c.Card.Name),
			zap.String("doneList", t.board.Done.Name),
		)
	}
	return nil
}
