// Package status derives a card's status and data-completeness issues from its
// dates, members and checklists. It performs no I/O.
package status

import (
	"fmt"
	"time"

	"github.com/chxlky/trello-pm/internal/models"
)

type Status int

const (
	Unknown Status = iota
	AllComplete
	Idle
	Overdue
	InProgress
)

func (s Status) String() string {
	switch s {
	case Unknown:
		return "unknown"
	case AllComplete:
		return "check list all complete"
	case Idle:
		return "idle"
	case Overdue:
		return "overdue"
	case InProgress:
		return "check list in progress"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

type Issue int

const (
	MissingStartDate Issue = iota
	MissingDueDate
	MissingMembers
)

func (i Issue) String() string {
	switch i {
	case MissingStartDate:
		return "missing start date"
	case MissingDueDate:
		return "missing due date"
	case MissingMembers:
		return "no one is assigned to the card"
	}
	return fmt.Sprintf("Issue(%d)", int(i))
}

type Thresholds struct {
	// IdleMinutes is how long a card may go without activity before it is idle.
	IdleMinutes int
}

// IdleWindow splits the idle threshold into whole days and the remaining seconds.
func (t Thresholds) IdleWindow() (days int, seconds int) {
	const minutesPerDay = 24 * 60
	days = t.IdleMinutes / minutesPerDay
	seconds = (t.IdleMinutes - days*minutesPerDay) * 60
	return days, seconds
}

func (t Thresholds) idleDuration() time.Duration {
	days, seconds := t.IdleWindow()
	return time.Duration(days)*24*time.Hour + time.Duration(seconds)*time.Second
}

type Result struct {
	Status Status
	Issues []Issue
}

func (r Result) HasIssues() bool {
	return len(r.Issues) > 0
}

// Classify evaluates the status rules in priority order. The first match wins.
func Classify(card models.Card, th Thresholds, now time.Time) Result {
	return Result{
		Status: classifyStatus(card, th, now),
		Issues: Issues(card),
	}
}

func classifyStatus(card models.Card, th Thresholds, now time.Time) Status {
	switch {
	case IsComplete(card):
		return AllComplete
	case IsIdle(card, th, now):
		return Idle
	case IsOverdue(card, now):
		return Overdue
	case len(card.Checklists) > 0:
		return InProgress
	default:
		return Unknown
	}
}

func IsComplete(card models.Card) bool {
	if len(card.Checklists) == 0 {
		return false
	}
	for _, cl := range card.Checklists {
		if !cl.Complete() {
			return false
		}
	}
	return true
}

func IsIdle(card models.Card, th Thresholds, now time.Time) bool {
	if card.LastActivity == nil {
		return false
	}
	return now.After(card.LastActivity.Add(th.idleDuration()))
}

func IsOverdue(card models.Card, now time.Time) bool {
	if card.DueDate == nil {
		return false
	}
	return now.After(*card.DueDate)
}

func Issues(card models.Card) []Issue {
	var issues []Issue
	if card.StartDate == nil {
		issues = append(issues, MissingStartDate)
	}
	if card.DueDate == nil {
		issues = append(issues, MissingDueDate)
	}
	if len(card.MemberIDs) == 0 {
		issues = append(issues, MissingMembers)
	}
	return issues
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (i Issue) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}
