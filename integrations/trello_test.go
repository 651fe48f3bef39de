package integrations

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/chxlky/trello-pm/internal/trellotest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T) (*TrelloClient, *trellotest.Server) {
	t.Helper()
	srv := trellotest.New()
	t.Cleanup(srv.Close)

	tc := NewTrelloClient(trellotest.Key, trellotest.Token, "https://example.com/api/trello-webhook")
	tc.BaseURL = srv.BaseURL()
	return tc, srv
}

func TestTrelloClient_Reads(t *testing.T) {
	tc, srv := newClient(t)
	ctx := context.Background()
	now := time.Now()

	srv.AddCard(trellotest.DoingCard("card1", "Ship it", now),
		trellotest.Checklist("cl1", "Build", "complete", "incomplete"),
		trellotest.Checklist("cl2", "Release", "incomplete", "incomplete", "complete"),
	)

	boards, err := tc.Boards(ctx, trellotest.UserName)
	require.NoError(t, err)
	assert.Len(t, boards, 2)

	lists, err := tc.BoardLists(ctx, trellotest.BoardID)
	require.NoError(t, err)
	assert.Len(t, lists, 4)

	members, err := tc.BoardMembers(ctx, trellotest.BoardID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, "Alice Doe", members[0].FullName)

	cards, err := tc.ListCards(ctx, trellotest.DoingListID)
	require.NoError(t, err)
	require.Len(t, cards, 1)
	assert.Equal(t, "Ship it", cards[0].Name)
	assert.Equal(t, []string{trellotest.MemberID}, cards[0].IDMembers)

	checklists, err := tc.CardChecklists(ctx, "card1")
	require.NoError(t, err)
	require.Len(t, checklists, 2)
	assert.Len(t, checklists[0].CheckItems, 2)
	assert.Len(t, checklists[1].CheckItems, 3)

	for _, call := range srv.Calls() {
		assert.Equal(t, trellotest.Key, call.Query.Get("key"))
		assert.Equal(t, trellotest.Token, call.Query.Get("token"))
	}
}

func TestTrelloClient_Mutations(t *testing.T) {
	tc, srv := newClient(t)
	ctx := context.Background()
	srv.AddCard(trellotest.DoingCard("card1", "Ship it", time.Now()))

	require.NoError(t, tc.AddComment(ctx, "card1", "all done & dusted"))
	require.NoError(t, tc.MarkDueComplete(ctx, "card1"))
	require.NoError(t, tc.MoveCard(ctx, "card1", trellotest.DoneListID))

	muts := srv.Mutations()
	require.Len(t, muts, 3)
	assert.Equal(t, http.MethodPost, muts[0].Method)
	assert.Equal(t, "/1/cards/card1/actions/comments", muts[0].Path)
	assert.Equal(t, "all done & dusted", muts[0].Query.Get("text"))
	assert.Equal(t, "true", muts[1].Query.Get("dueComplete"))
	assert.Equal(t, trellotest.DoneListID, muts[2].Query.Get("idList"))

	card, ok := srv.Card("card1")
	require.True(t, ok)
	assert.True(t, card.DueComplete)
	assert.Equal(t, trellotest.DoneListID, card.IDList)
}

func TestTrelloClient_Webhooks(t *testing.T) {
	tc, srv := newClient(t)
	ctx := context.Background()

	id, err := tc.RegisterWebhook(ctx, trellotest.BoardID)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/api/trello-webhook", srv.Webhooks()[id])

	require.NoError(t, tc.DeleteWebhook(ctx, id))
	assert.Empty(t, srv.Webhooks())
}

func TestTrelloClient_APIError(t *testing.T) {
	tc, srv := newClient(t)
	srv.Fail("/1/lists/"+trellotest.DoingListID+"/cards", http.StatusTooManyRequests)

	_, err := tc.ListCards(context.Background(), trellotest.DoingListID)
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
	assert.Equal(t, "simulated failure", apiErr.Body)
	assert.Len(t, srv.Calls(), 1, "no retries")
}

func TestTrelloClient_BadCredentials(t *testing.T) {
	tc, _ := newClient(t)
	tc.APIToken = "wrong"

	_, err := tc.Boards(context.Background(), trellotest.UserName)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
}
