package integrations

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/chxlky/trello-pm/internal/models"
	"go.uber.org/zap"
)

const DefaultTrelloBaseURL = "https://api.trello.com/1"

type TrelloClient struct {
	Client      *http.Client
	BaseURL     string
	APIKey      string
	APIToken    string
	CallbackURL string
}

func NewTrelloClient(key, token, callbackURL string) *TrelloClient {
	return &TrelloClient{
		Client:      &http.Client{},
		BaseURL:     DefaultTrelloBaseURL,
		APIKey:      key,
		APIToken:    token,
		CallbackURL: callbackURL,
	}
}

// APIError is returned for any non-2xx response from Trello.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Status     string
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("trello API %s %s returned non-2xx status: %s, body: %s", e.Method, e.Path, e.Status, e.Body)
}

func (tc *TrelloClient) Boards(ctx context.Context, userName string) ([]models.TrelloBoard, error) {
	var boards []models.TrelloBoard
	err := tc.do(ctx, http.MethodGet, "/members/"+url.PathEscape(userName)+"/boards", nil, &boards)
	return boards, err
}

func (tc *TrelloClient) BoardLists(ctx context.Context, boardID string) ([]models.TrelloList, error) {
	var lists []models.TrelloList
	err := tc.do(ctx, http.MethodGet, "/boards/"+boardID+"/lists/all", nil, &lists)
	return lists, err
}

func (tc *TrelloClient) BoardMembers(ctx context.Context, boardID string) ([]models.TrelloMember, error) {
	var members []models.TrelloMember
	err := tc.do(ctx, http.MethodGet, "/boards/"+boardID+"/members", nil, &members)
	return members, err
}

func (tc *TrelloClient) ListCards(ctx context.Context, listID string) ([]models.TrelloCard, error) {
	var cards []models.TrelloCard
	err := tc.do(ctx, http.MethodGet, "/lists/"+listID+"/cards", nil, &cards)
	return cards, err
}

func (tc *TrelloClient) CardChecklists(ctx context.Context, cardID string) ([]models.TrelloChecklist, error) {
	var checklists []models.TrelloChecklist
	err := tc.do(ctx, http.MethodGet, "/cards/"+cardID+"/checklists", nil, &checklists)
	return checklists, err
}

func (tc *TrelloClient) AddComment(ctx context.Context, cardID, text string) error {
	params := url.Values{}
	params.Set("text", text)
	return tc.do(ctx, http.MethodPost, "/cards/"+cardID+"/actions/comments", params, nil)
}

func (tc *TrelloClient) MarkDueComplete(ctx context.Context, cardID string) error {
	params := url.Values{}
	params.Set("dueComplete", "true")
	return tc.do(ctx, http.MethodPut, "/cards/"+cardID, params, nil)
}

func (tc *TrelloClient) MoveCard(ctx context.Context, cardID, listID string) error {
	params := url.Values{}
	params.Set("idList", listID)
	return tc.do(ctx, http.MethodPut, "/cards/"+cardID, params, nil)
}

func (tc *TrelloClient) RegisterWebhook(ctx context.Context, boardID string) (string, error) {
	params := url.Values{}
	params.Set("callbackURL", tc.CallbackURL)
	params.Set("idModel", boardID)
	params.Set("description", "Webhook for trello-pm")

	var webhook struct {
		ID string `json:"id"`
	}
	if err := tc.do(ctx, http.MethodPost, "/webhooks/", params, &webhook); err != nil {
		return "", err
	}

	zap.L().Info("Registered Trello webhook", zap.String("webhookID", webhook.ID), zap.String("boardID", boardID))
	return webhook.ID, nil
}

func (tc *TrelloClient) DeleteWebhook(ctx context.Context, webhookID string) error {
	if err := tc.do(ctx, http.MethodDelete, "/webhooks/"+webhookID, nil, nil); err != nil {
		return err
	}
	zap.L().Info("Deleted Trello webhook", zap.String("webhookID", webhookID))
	return nil
}

// do sends one request with key/token query authentication and decodes a JSON
// response into out when out is non-nil.
func (tc *TrelloClient) do(ctx context.Context, method, path string, params url.Values, out any) error {
	query := url.Values{}
	for k, vs := range params {
		query[k] = vs
	}
	query.Set("key", tc.APIKey)
	query.Set("token", tc.APIToken)

	apiURL := strings.TrimRight(tc.BaseURL, "/") + path + "?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, method, apiURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", method, err)
	}
	req.Header.Set("Accept", "application/json")

	zap.L().Debug("Trello request", zap.String("method", method), zap.String("path", path))

	resp, err := tc.Client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send %s request: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return &APIError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       strings.TrimSpace(string(bodyBytes)),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode Trello response for %s %s: %w", method, path, err)
	}
	return nil
}
