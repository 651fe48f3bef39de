package trellotest

import (
	"sort"
	"time"

	"github.com/chxlky/trello-pm/internal/models"
)

func sortCards(cards []models.TrelloCard) {
	sort.Slice(cards, func(i, j int) bool { return cards[i].ID < cards[j].ID })
}

// Date formats t the way Trello does, e.g. 2023-05-10T01:00:00.000Z.
func Date(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}

// Checklist builds a checklist whose items take the given states in order.
func Checklist(id, name string, states ...string) models.TrelloChecklist {
	cl := models.TrelloChecklist{ID: id, Name: name, CheckItems: []models.TrelloCheckItem{}}
	for i, st := range states {
		cl.CheckItems = append(cl.CheckItems, models.TrelloCheckItem{
			ID:    id + "-item-" + string(rune('a'+i)),
			Name:  name + " step " + string(rune('A'+i)),
			State: st,
		})
	}
	return cl
}

// DoingCard is a card on the Doing list with every field the issue checks look
// at filled in relative to now.
func DoingCard(id, name string, now time.Time) models.TrelloCard {
	return models.TrelloCard{
		ID:               id,
		Name:             name,
		URL:              "https://trello.com/c/" + id,
		Start:            Date(now.Add(-72 * time.Hour)),
		Due:              Date(now.Add(48 * time.Hour)),
		DateLastActivity: Date(now.Add(-time.Hour)),
		IDList:           DoingListID,
		IDMembers:        []string{MemberID},
	}
}
