// Package trellotest serves an in-memory imitation of the Trello REST API for
// tests. It records every call so tests can assert on mutations.
package trellotest

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"

	"github.com/chxlky/trello-pm/internal/models"
	"github.com/gin-gonic/gin"
)

const (
	Key   = "test_trello_api_key"
	Token = "test_trello_api_token"

	UserName  = "alice"
	BoardName = "Sprint Board"
	BoardID   = "6457300c5e50939a3ef7d958"

	BacklogListID = "6457300c5e50939a3ef7d95f"
	DoingListID   = "6457300c5e50939a3ef7d960"
	DoneListID    = "6457300c5e50939a3ef7d961"
	ArchiveListID = "6457300c5e50939a3ef7d962"

	MemberID = "5d1f8d1a2b3c4d5e6f708192"
)

type Call struct {
	Method string
	Path   string
	Query  url.Values
}

type Server struct {
	*httptest.Server

	mu         sync.Mutex
	boards     map[string][]models.TrelloBoard
	lists      map[string][]models.TrelloList
	members    map[string][]models.TrelloMember
	cards      map[string]*models.TrelloCard
	checklists map[string][]models.TrelloChecklist
	failures   map[string]int
	calls      []Call
	webhooks   map[string]string
}

// New starts a server pre-loaded with one board owned by UserName holding the
// lists To Do, Doing, Done and Archive and a single member.
func New() *Server {
	gin.SetMode(gin.TestMode)

	s := &Server{
		boards: map[string][]models.TrelloBoard{
			UserName: {
				{ID: "64572fffffffffffffffffff", Name: "Personal"},
				{ID: BoardID, Name: BoardName},
			},
		},
		lists: map[string][]models.TrelloList{
			BoardID: {
				{ID: BacklogListID, Name: "To Do"},
				{ID: DoingListID, Name: "Doing"},
				{ID: DoneListID, Name: "Done"},
				{ID: ArchiveListID, Name: "Archive", Closed: true},
			},
		},
		members: map[string][]models.TrelloMember{
			BoardID: {{ID: MemberID, FullName: "Alice Doe", Username: UserName}},
		},
		cards:      make(map[string]*models.TrelloCard),
		checklists: make(map[string][]models.TrelloChecklist),
		failures:   make(map[string]int),
		webhooks:   make(map[string]string),
	}

	s.Server = httptest.NewServer(s.router())
	return s
}

// BaseURL is the value to use for TrelloClient.BaseURL.
func (s *Server) BaseURL() string {
	return s.URL + "/1"
}

// AddCard puts card on the list named by card.IDList along with its checklists.
func (s *Server) AddCard(card models.TrelloCard, checklists ...models.TrelloChecklist) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := card
	s.cards[c.ID] = &c
	s.checklists[c.ID] = checklists
}

// AddList appends list to the board's lists, after the seeded ones.
func (s *Server) AddList(boardID string, list models.TrelloList) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lists[boardID] = append(s.lists[boardID], list)
}

func (s *Server) Card(id string) (models.TrelloCard, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cards[id]
	if !ok {
		return models.TrelloCard{}, false
	}
	return *c, true
}

// Fail makes every request whose path equals path answer with status.
func (s *Server) Fail(path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[path] = status
}

func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// Mutations returns the non-GET calls in the order they were received.
func (s *Server) Mutations() []Call {
	var out []Call
	for _, c := range s.Calls() {
		if c.Method != http.MethodGet {
			out = append(out, c)
		}
	}
	return out
}

func (s *Server) Webhooks() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.webhooks))
	for k, v := range s.webhooks {
		out[k] = v
	}
	return out
}

func (s *Server) router() *gin.Engine {
	r := gin.New()
	r.Use(s.record, s.authenticate)

	v1 := r.Group("/1")
	{
		v1.GET("/members/:user/boards", s.getBoards)
		v1.GET("/boards/:id/lists/all", s.getLists)
		v1.GET("/boards/:id/members", s.getMembers)
		v1.GET("/lists/:id/cards", s.getListCards)
		v1.GET("/cards/:id/checklists", s.getChecklists)
		v1.POST("/cards/:id/actions/comments", s.postComment)
		v1.PUT("/cards/:id", s.putCard)
		v1.POST("/webhooks/", s.postWebhook)
		v1.DELETE("/webhooks/:id", s.deleteWebhook)
	}
	return r
}

func (s *Server) record(c *gin.Context) {
	s.mu.Lock()
	s.calls = append(s.calls, Call{
		Method: c.Request.Method,
		Path:   c.Request.URL.Path,
		Query:  c.Request.URL.Query(),
	})
	status, fail := s.failures[c.Request.URL.Path]
	s.mu.Unlock()

	if fail {
		c.String(status, "simulated failure")
		c.Abort()
		return
	}
	c.Next()
}

func (s *Server) authenticate(c *gin.Context) {
	if c.Query("key") != Key || c.Query("token") != Token {
		c.String(http.StatusUnauthorized, "invalid key")
		c.Abort()
		return
	}
	c.Next()
}

func (s *Server) getBoards(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	boards, ok := s.boards[c.Param("user")]
	if !ok {
		c.String(http.StatusNotFound, "model not found")
		return
	}
	c.JSON(http.StatusOK, boards)
}

func (s *Server) getLists(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.JSON(http.StatusOK, nonNil(s.lists[c.Param("id")]))
}

func (s *Server) getMembers(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.JSON(http.StatusOK, nonNil(s.members[c.Param("id")]))
}

func (s *Server) getListCards(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	listID := c.Param("id")
	cards := []models.TrelloCard{}
	for _, card := range s.cards {
		if card.IDList == listID {
			cards = append(cards, *card)
		}
	}
	sortCards(cards)
	c.JSON(http.StatusOK, cards)
}

func (s *Server) getChecklists(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.JSON(http.StatusOK, nonNil(s.checklists[c.Param("id")]))
}

func (s *Server) postComment(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cards[c.Param("id")]; !ok {
		c.String(http.StatusNotFound, "invalid id")
		return
	}
	c.JSON(http.StatusOK, gin.H{"type": "commentCard", "data": gin.H{"text": c.Query("text")}})
}

func (s *Server) putCard(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	card, ok := s.cards[c.Param("id")]
	if !ok {
		c.String(http.StatusNotFound, "invalid id")
		return
	}
	if c.Query("dueComplete") == "true" {
		card.DueComplete = true
	}
	if listID := c.Query("idList"); listID != "" {
		card.IDList = listID
	}
	c.JSON(http.StatusOK, card)
}

func (s *Server) postWebhook(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := "webhook-" + c.Query("idModel")
	s.webhooks[id] = c.Query("callbackURL")
	c.JSON(http.StatusOK, gin.H{"id": id, "idModel": c.Query("idModel")})
}

func (s *Server) deleteWebhook(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := c.Param("id")
	if _, ok := s.webhooks[id]; !ok {
		c.String(http.StatusNotFound, "webhook not found")
		return
	}
	delete(s.webhooks, id)
	c.JSON(http.StatusOK, gin.H{})
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
