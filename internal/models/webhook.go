package models

type TrelloActionCard struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	ShortLink string `json:"shortLink"`
	Closed    bool   `json:"closed"`
}

type TrelloActionList struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type TrelloWebhookPayload struct {
	Action struct {
		Data struct {
			Card       TrelloActionCard `json:"card"`
			Board      TrelloBoard      `json:"board"`
			List       TrelloActionList `json:"list"`
			ListBefore TrelloActionList `json:"listBefore"`
			ListAfter  TrelloActionList `json:"listAfter"`
		} `json:"data"`
		Type string `json:"type"` // e.g., "updateCard", "updateCheckItemStateOnCard"
	} `json:"action"`
}

// TouchesCard reports whether the action was about a card at all. Board-level
// actions (renames, member changes) carry no card id.
func (p TrelloWebhookPayload) TouchesCard() bool {
	return p.Action.Data.Card.ID != ""
}
