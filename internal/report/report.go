// Package report turns classified cards into the text summary printed after a
// run. Nothing here talks to Trello.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/chxlky/trello-pm/internal/models"
	"github.com/chxlky/trello-pm/internal/status"
)

type Card struct {
	Card         models.Card    `json:"card"`
	Status       status.Status  `json:"status"`
	Issues       []status.Issue `json:"issues,omitempty"`
	Bucket       status.Bucket  `json:"bucket"`
	CloseSummary string         `json:"close_summary,omitempty"`
}

type Report struct {
	RunID        string                   `json:"run_id"`
	GeneratedAt  time.Time                `json:"generated_at"`
	BoardName    string                   `json:"board_name"`
	DoneListName string                   `json:"done_list_name"`
	DryRun       bool                     `json:"dry_run"`
	Buckets      map[status.Bucket][]Card `json:"buckets"`

	// Dropped counts issue-free cards whose status could not be determined.
	Dropped int `json:"dropped"`
}

func New(runID, boardName, doneListName string, generatedAt time.Time) *Report {
	return &Report{
		RunID:        runID,
		GeneratedAt:  generatedAt,
		BoardName:    boardName,
		DoneListName: doneListName,
		Buckets:      make(map[status.Bucket][]Card),
	}
}

func (r *Report) Add(c Card) {
	r.Buckets[c.Bucket] = append(r.Buckets[c.Bucket], c)
}

func (r *Report) Len() int {
	n := 0
	for _, cards := range r.Buckets {
		n += len(cards)
	}
	return n
}

func label(b status.Bucket) string {
	switch b {
	case status.BucketComplete:
		return "Completed"
	case status.BucketInProgress:
		return "In Progress"
	case status.BucketOverdue:
		return "Overdue"
	case status.BucketWithIssue:
		return "With Issue"
	case status.BucketIdle:
		return "Idle"
	}
	return b.String()
}

func (r *Report) header(b status.Bucket) string {
	switch b {
	case status.BucketComplete:
		return fmt.Sprintf("- Completed Tasks That Are Moved to %s:\n", r.DoneListName)
	case status.BucketInProgress:
		return "- In Progress Tasks:\n"
	case status.BucketOverdue:
		return "- Overdue Tasks:\n"
	case status.BucketWithIssue:
		return "\n\n- Tasks That Need More Details:\n"
	case status.BucketIdle:
		return "- Tasks That Haven't Been Updated in a While:\n"
	}
	return ""
}

// Prefix numbers cards within a bucket starting at 1, e.g. "Overdue Task 002".
func Prefix(b status.Bucket, idx int) string {
	return fmt.Sprintf("%s Task %03d", label(b), idx+1)
}

// Summary renders every non-empty bucket in report order.
func (r *Report) Summary() string {
	var sb strings.Builder
	for _, b := range status.Buckets {
		cards := r.Buckets[b]
		if len(cards) == 0 {
			continue
		}
		sb.WriteString(r.header(b))
		for i, c := range cards {
			sb.WriteString(FormatCard(Prefix(b, i), c))
		}
	}
	return sb.String()
}

func FormatCard(prefix string, c Card) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: %s\n", prefix, c.Card.Name)
	if len(c.Issues) > 0 {
		sb.WriteString("\tTask Creation Issues:\n")
		for _, issue := range c.Issues {
			fmt.Fprintf(&sb, "\t\t• %s\n", issue)
		}
	}
	for _, cl := range c.Card.Checklists {
		sb.WriteString(formatChecklist(cl))
	}
	if c.CloseSummary != "" {
		sb.WriteString("\tClose Summary:\n" + c.CloseSummary)
	}
	return sb.String()
}

func formatChecklist(cl models.Checklist) string {
	var sb strings.Builder
	sb.WriteString("\t" + cl.Name + "\n")
	for _, item := range cl.Items {
		due := "none"
		if item.DueDate != nil {
			due = item.DueDate.Format(time.RFC3339)
		}
		fmt.Fprintf(&sb, "\t\t• %s:\n\t\t\tstate: %s\n\t\t\tdue date: %s\n", item.Name, item.State, due)
	}
	return sb.String()
}
