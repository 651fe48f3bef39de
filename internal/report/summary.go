package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/chxlky/trello-pm/internal/models"
)

// Elapsed is the time between a card's start date and its last activity.
func Elapsed(card models.Card) (time.Duration, bool) {
	if card.StartDate == nil || card.LastActivity == nil {
		return 0, false
	}
	return card.LastActivity.Sub(*card.StartDate), true
}

// FormatDuration renders d as whole days plus the remaining whole hours. Days
// are floored, so the hours are never negative.
func FormatDuration(d time.Duration) string {
	const day = 24 * time.Hour
	days := d / day
	rem := d % day
	if rem < 0 {
		days--
		rem += day
	}
	return fmt.Sprintf("%d days, %d hours", int(days), int(rem/time.Hour))
}

// CloseSummary is the comment left on a card before it is moved to the done
// list. Members missing from the board are named by their id.
func CloseSummary(card models.Card, members map[string]models.Member, signature string) string {
	var sb strings.Builder
	if len(card.MemberIDs) > 0 {
		sb.WriteString("Team member(s) who worked on the card:\n")
		for _, id := range card.MemberIDs {
			name := id
			if m, ok := members[id]; ok && m.FullName != "" {
				name = m.FullName
			}
			fmt.Fprintf(&sb, "    %s\n", name)
		}
	}
	// a start date after the last activity gives no meaningful duration
	if d, ok := Elapsed(card); ok && d >= 0 {
		fmt.Fprintf(&sb, "It took %s.\n", FormatDuration(d))
	}
	sb.WriteString(signature)
	return sb.String()
}
