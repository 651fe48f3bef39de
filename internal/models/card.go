package models

import (
	"fmt"
	"time"
)

type ItemState int

const (
	ItemIncomplete ItemState = iota
	ItemComplete
)

func (s ItemState) String() string {
	switch s {
	case ItemComplete:
		return "complete"
	case ItemIncomplete:
		return "incomplete"
	}
	return fmt.Sprintf("ItemState(%d)", int(s))
}

func ParseItemState(s string) (ItemState, error) {
	switch s {
	case "complete":
		return ItemComplete, nil
	case "incomplete":
		return ItemIncomplete, nil
	}
	return ItemIncomplete, fmt.Errorf("unknown checklist item state %q", s)
}

func (s ItemState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

type ChecklistItem struct {
	ID      string     `json:"id"`
	Name    string     `json:"name"`
	State   ItemState  `json:"state"`
	DueDate *time.Time `json:"due,omitempty"`
}

type Checklist struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Items []ChecklistItem `json:"items"`
}

// Complete is false for a checklist without items.
func (c Checklist) Complete() bool {
	if len(c.Items) == 0 {
		return false
	}
	for _, item := range c.Items {
		if item.State != ItemComplete {
			return false
		}
	}
	return true
}

type Card struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	URL          string      `json:"url"`
	DueDate      *time.Time  `json:"due,omitempty"`
	StartDate    *time.Time  `json:"start,omitempty"`
	LastActivity *time.Time  `json:"last_activity,omitempty"`
	MemberIDs    []string    `json:"member_ids"`
	Checklists   []Checklist `json:"checklists"`
}

// ItemCount is the number of checklist items across all of the card's checklists.
func (c Card) ItemCount() int {
	n := 0
	for _, cl := range c.Checklists {
		n += len(cl.Items)
	}
	return n
}

func (c Card) CompletedItemCount() int {
	n := 0
	for _, cl := range c.Checklists {
		for _, item := range cl.Items {
			if item.State == ItemComplete {
				n++
			}
		}
	}
	return n
}

type Member struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
	Username string `json:"username"`
}

func NewCard(tc TrelloCard, checklists []TrelloChecklist) (Card, error) {
	card := Card{
		ID:        tc.ID,
		Name:      tc.Name,
		URL:       tc.URL,
		MemberIDs: tc.IDMembers,
	}

	var err error
	if card.DueDate, err = parseDate(tc.Due); err != nil {
		return Card{}, fmt.Errorf("card %s due date: %w", tc.ID, err)
	}
	if card.StartDate, err = parseDate(tc.Start); err != nil {
		return Card{}, fmt.Errorf("card %s start date: %w", tc.ID, err)
	}
	if card.LastActivity, err = parseDate(tc.DateLastActivity); err != nil {
		return Card{}, fmt.Errorf("card %s last activity date: %w", tc.ID, err)
	}

	for _, raw := range checklists {
		cl := Checklist{ID: raw.ID, Name: raw.Name}
		for _, ri := range raw.CheckItems {
			state, err := ParseItemState(ri.State)
			if err != nil {
				return Card{}, fmt.Errorf("checklist %s item %s: %w", raw.ID, ri.ID, err)
			}
			due, err := parseDate(ri.Due)
			if err != nil {
				return Card{}, fmt.Errorf("checklist %s item %s due date: %w", raw.ID, ri.ID, err)
			}
			cl.Items = append(cl.Items, ChecklistItem{
				ID:      ri.ID,
				Name:    ri.Name,
				State:   state,
				DueDate: due,
			})
		}
		card.Checklists = append(card.Checklists, cl)
	}

	return card, nil
}

// Trello sends RFC3339 timestamps with milliseconds, e.g. 2023-05-10T01:00:00.000Z.
func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, err
	}
	t = t.UTC()
	return &t, nil
}
