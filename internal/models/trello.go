package models

// Payloads as returned by the Trello REST API. Dates are kept as the raw
// strings Trello sends; conversion happens in NewCard.

type TrelloBoard struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type TrelloList struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Closed bool   `json:"closed"`
}

type TrelloMember struct {
	ID       string `json:"id"`
	FullName string `json:"fullName"`
	Username string `json:"username"`
}

type TrelloCard struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	URL              string   `json:"url"`
	Due              string   `json:"due"`
	Start            string   `json:"start"`
	DueComplete      bool     `json:"dueComplete"`
	DateLastActivity string   `json:"dateLastActivity"`
	IDList           string   `json:"idList"`
	IDMembers        []string `json:"idMembers"`
	IDChecklists     []string `json:"idChecklists"`
}

type TrelloCheckItem struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	State string `json:"state"`
	Due   string `json:"due"`
}

type TrelloChecklist struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	CheckItems []TrelloCheckItem `json:"checkItems"`
}
