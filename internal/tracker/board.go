package tracker

import (
	"context"
	"errors"
	"fmt"

	"github.com/chxlky/trello-pm/internal/config"
	"github.com/chxlky/trello-pm/internal/models"
	"go.uber.org/zap"
)

var (
	ErrBoardNotFound = errors.New("board not found")
	ErrListNotFound  = errors.New("list not found on board")
)

// Trello is the subset of the REST API the tracker needs.
type Trello interface {
	Boards(ctx context.Context, userName string) ([]models.TrelloBoard, error)
	BoardLists(ctx context.Context, boardID string) ([]models.TrelloList, error)
	BoardMembers(ctx context.Context, boardID string) ([]models.TrelloMember, error)
	ListCards(ctx context.Context, listID string) ([]models.TrelloCard, error)
	CardChecklists(ctx context.Context, cardID string) ([]models.TrelloChecklist, error)
	AddComment(ctx context.Context, cardID, text string) error
	MarkDueComplete(ctx context.Context, cardID string) error
	MoveCard(ctx context.Context, cardID, listID string) error
}

type List struct {
	ID   string         `json:"id"`
	Name string         `json:"name"`
	Tag  config.ListTag `json:"tag"`
}

// Board is the configuration after its names have been resolved to Trello ids.
type Board struct {
	ID      string                   `json:"id"`
	Name    string                   `json:"name"`
	Lists   map[string]List          `json:"lists"`
	Backlog List                     `json:"backlog"`
	Doing   List                     `json:"doing"`
	Done    List                     `json:"done"`
	Members map[string]models.Member `json:"members"`
}

// Resolve finds the configured board among the user's boards, then its lists
// and members. The three calls are issued in sequence.
func Resolve(ctx context.Context, api Trello, cfg *config.Config) (*Board, error) {
	boards, err := api.Boards(ctx, cfg.UserName)
	if err != nil {
		return nil, fmt.Errorf("failed to list boards of %s: %w", cfg.UserName, err)
	}

	board := &Board{Name: cfg.BoardName}
	for _, b := range boards {
		if b.Name == cfg.BoardName {
			board.ID = b.ID
			break
		}
	}
	if board.ID == "" {
		return nil, fmt.Errorf("%w: %q for user %s", ErrBoardNotFound, cfg.BoardName, cfg.UserName)
	}

	lists, err := api.BoardLists(ctx, board.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list lists of board %s: %w", board.ID, err)
	}
	// lists/all includes archived lists, which may share a name with an open one
	ids := make(map[string]string, len(lists))
	for _, l := range lists {
		if l.Closed {
			continue
		}
		ids[l.Name] = l.ID
	}

	board.Lists = make(map[string]List, len(cfg.BoardLists))
	for _, lc := range cfg.BoardLists {
		l := List{ID: ids[lc.Name], Name: lc.Name, Tag: lc.Tag}
		if l.ID == "" {
			return nil, fmt.Errorf("%w: %q (tagged %s) on board %q", ErrListNotFound, lc.Name, lc.Tag, cfg.BoardName)
		}
		board.Lists[l.Name] = l
		switch l.Tag {
		case config.TagBacklog:
			board.Backlog = l
		case config.TagDoing:
			board.Doing = l
		case config.TagDone:
			board.Done = l
		}
	}

	members, err := api.BoardMembers(ctx, board.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members of board %s: %w", board.ID, err)
	}
	board.Members = make(map[string]models.Member, len(members))
	for _, m := range members {
		board.Members[m.ID] = models.Member{ID: m.ID, FullName: m.FullName, Username: m.Username}
	}

	zap.L().Info("Resolved Trello board",
		zap.String("boardID", board.ID),
		zap.String("doingListID", board.Doing.ID),
		zap.String("doneListID", board.Done.ID),
		zap.Int("members", len(board.Members)),
	)
	return board, nil
}
