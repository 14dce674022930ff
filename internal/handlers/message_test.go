package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/parley/internal/domain"
)

func TestSendMessageReturnsCanonicalDocument(t *testing.T) {
	api := newTestAPI(t)

	alice, token := api.seedUser(t, "Alice", "alice@example.com")
	bob := api.users.Seed(domain.User{Name: "Bob", Email: "bob@example.com"})

	chat := decodeBody[domain.Chat](t, api.do(t, http.MethodPost, "/api/chat", token, map[string]string{"userId": bob.ID}))

	rec := api.do(t, http.MethodPost, "/api/message", token, map[string]string{
		"chatId":  chat.ID,
		"content": "hello bob",
	})
	requireStatus(t, rec, http.StatusCreated)

	msg := decodeBody[domain.Message](t, rec)
	assert.NotEmpty(t, msg.ID)
	assert.Equal(t, "hello bob", msg.Content)
	assert.False(t, msg.CreatedAt.IsZero())

	// The document carries everything the fan-out needs: sender id and the
	// chat's member list.
	require.NotNil(t, msg.Sender)
	assert.Equal(t, alice.ID, msg.Sender.ID)
	require.NotNil(t, msg.Chat)
	assert.Equal(t, chat.ID, msg.Chat.ID)
	require.Len(t, msg.Chat.Users, 2)
}

func TestSendMessageValidation(t *testing.T) {
	api := newTestAPI(t)
	_, token := api.seedUser(t, "Alice", "alice@example.com")

	requireStatus(t, api.do(t, http.MethodPost, "/api/message", token, map[string]string{
		"content": "no chat",
	}), http.StatusBadRequest)

	requireStatus(t, api.do(t, http.MethodPost, "/api/message", token, map[string]string{
		"chatId": "chat:ghost", "content": "into the void",
	}), http.StatusNotFound)
}

func TestSendMessageRequiresMembership(t *testing.T) {
	api := newTestAPI(t)

	_, aliceToken := api.seedUser(t, "Alice", "alice@example.com")
	bob := api.users.Seed(domain.User{Name: "Bob", Email: "bob@example.com"})
	_, outsiderToken := api.seedUser(t, "Mallory", "mallory@example.com")

	chat := decodeBody[domain.Chat](t, api.do(t, http.MethodPost, "/api/chat", aliceToken, map[string]string{"userId": bob.ID}))

	requireStatus(t, api.do(t, http.MethodPost, "/api/message", outsiderToken, map[string]string{
		"chatId": chat.ID, "content": "let me in",
	}), http.StatusForbidden)
}

func TestListMessagesOldestFirst(t *testing.T) {
	api := newTestAPI(t)

	alice, token := api.seedUser(t, "Alice", "alice@example.com")
	bob := api.users.Seed(domain.User{Name: "Bob", Email: "bob@example.com"})

	chat := decodeBody[domain.Chat](t, api.do(t, http.MethodPost, "/api/chat", token, map[string]string{"userId": bob.ID}))

	for _, content := range []string{"first", "second", "third"} {
		requireStatus(t, api.do(t, http.MethodPost, "/api/message", token, map[string]string{
			"chatId": chat.ID, "content": content,
		}), http.StatusCreated)
	}

	rec := api.do(t, http.MethodGet, "/api/message/"+chat.ID, token, nil)
	requireStatus(t, rec, http.StatusOK)

	messages := decodeBody[[]domain.Message](t, rec)
	require.Len(t, messages, 3)
	assert.Equal(t, "first", messages[0].Content)
	assert.Equal(t, "third", messages[2].Content)

	// Senders come back populated.
	require.NotNil(t, messages[0].Sender)
	assert.Equal(t, alice.Name, messages[0].Sender.Name)
}

func TestListMessagesRequiresMembership(t *testing.T) {
	api := newTestAPI(t)

	_, aliceToken := api.seedUser(t, "Alice", "alice@example.com")
	bob := api.users.Seed(domain.User{Name: "Bob", Email: "bob@example.com"})
	_, outsiderToken := api.seedUser(t, "Mallory", "mallory@example.com")

	chat := decodeBody[domain.Chat](t, api.do(t, http.MethodPost, "/api/chat", aliceToken, map[string]string{"userId": bob.ID}))

	requireStatus(t, api.do(t, http.MethodGet, "/api/message/"+chat.ID, outsiderToken, nil), http.StatusForbidden)
	requireStatus(t, api.do(t, http.MethodGet, "/api/message/chat:ghost", aliceToken, nil), http.StatusNotFound)
}
