package handlers_test

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/parley/internal/auth"
	"github.com/nfrund/parley/internal/domain"
	"github.com/nfrund/parley/internal/handlers"
	"github.com/nfrund/parley/internal/middleware"
	"github.com/nfrund/parley/internal/testutils"
)

// testAPI bundles the fakes and the echo instance the handler tests run
// against.
type testAPI struct {
	e        *echo.Echo
	users    *testutils.InMemoryUserRepo
	chats    *testutils.InMemoryChatRepo
	messages *testutils.InMemoryMessageRepo
	tokens   *auth.TokenManager
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	users := testutils.NewInMemoryUserRepo()
	chats := testutils.NewInMemoryChatRepo(users)
	messages := testutils.NewInMemoryMessageRepo(users)
	tokens := auth.NewTokenManager("test-secret", time.Hour)

	e := echo.New()
	e.Validator = handlers.NewValidator()

	authHandler := handlers.NewAuthHandler(users, tokens, auth.NewPasswordHasher())
	userHandler := handlers.NewUserHandler(users)
	chatHandler := handlers.NewChatHandler(chats, users)
	messageHandler := handlers.NewMessageHandler(messages, chats)

	api := e.Group("/api")
	api.POST("/user/register", authHandler.Register)
	api.POST("/user/login", authHandler.Login)

	protected := api.Group("", middleware.Auth(tokens, users))
	protected.GET("/user", userHandler.Search)
	protected.POST("/chat", chatHandler.Access)
	protected.GET("/chat", chatHandler.List)
	protected.POST("/chat/group", chatHandler.CreateGroup)
	protected.PUT("/chat/rename", chatHandler.Rename)
	protected.PUT("/chat/groupadd", chatHandler.AddToGroup)
	protected.PUT("/chat/groupremove", chatHandler.RemoveFromGroup)
	protected.DELETE("/chat/:id", chatHandler.Delete)
	protected.POST("/message", messageHandler.Send)
	protected.GET("/message/:chatId", messageHandler.List)

	return &testAPI{e: e, users: users, chats: chats, messages: messages, tokens: tokens}
}

// seedUser stores a user and returns it together with a valid bearer token.
func (a *testAPI) seedUser(t *testing.T, name, email string) (domain.User, string) {
	t.Helper()
	user := a.users.Seed(domain.User{Name: name, Email: email})
	token, err := a.tokens.Generate(user.ID, user.Email)
	require.NoError(t, err)
	return user, token
}

// do performs a JSON request against the test API.
func (a *testAPI) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *strings.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = strings.NewReader(string(data))
	} else {
		reader = strings.NewReader("")
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func requireStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	require.Equal(t, want, rec.Code, "body: %s", rec.Body.String())
}
