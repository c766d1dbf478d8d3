package test

import (
	"bytes"
	"crypto/tls"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"chat-hub/domain"
	"chat-hub/domain/event"
	"chat-hub/gateway"
	"chat-hub/moderation"
	"chat-hub/repositories"
	"chat-hub/server"
	"chat-hub/services"
	"chat-hub/storage"

	"github.com/dgraph-io/badger/v4"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

const adminSecret = "integration-admin-key"

type stack struct {
	server *httptest.Server
	relay  *gateway.Relay
}

func newStack(t *testing.T) *stack {
	t.Helper()
	req := require.New(t)
	gin.SetMode(gin.TestMode)

	// Reduced to 16 Mo for testing (avoid 2 Go of storage)
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).
		WithLoggingLevel(badger.ERROR).
		WithValueLogFileSize(16 << 20))
	req.NoError(err)

	index, err := repositories.OpenMessageIndex("")
	req.NoError(err)

	log := logs.GetLoggerFromLevel(slog.LevelError)

	users := repositories.NewUserRepository(db)
	conversations := repositories.NewConversationRepository(db)
	requests := repositories.NewRequestRepository(db)
	messages := repositories.NewMessageRepository(db, index, log)

	blobs, err := storage.NewBlobStore(t.TempDir(), "/files", log)
	req.NoError(err)

	moderator, err := moderation.NewModerator([]string{"viper"}, '*', log)
	req.NoError(err)

	resolver := services.NewSessionResolver(users)
	registry := gateway.NewRegistry()
	presence := gateway.NewPresence()
	dispatcher := gateway.NewDispatcher(registry, log)
	relay := gateway.NewRelay(dispatcher, messages, moderator, log)
	gw := gateway.New(log, resolver, registry, presence, dispatcher, relay)

	authService := services.NewAuthService(users)
	chatService := services.NewChatService(conversations, messages, users, blobs, index, dispatcher, relay)
	userService := services.NewUserService(users, requests, conversations, chatService, dispatcher)
	adminService := services.NewAdminService(adminSecret, users, conversations, messages, nil)

	router := server.New(
		gw,
		resolver,
		server.NewUserHandlers(authService, userService, blobs),
		server.NewChatHandlers(chatService),
		server.NewAdminHandlers(adminService),
		blobs,
		adminSecret,
	)

	// Session cookies are Secure, so the jar only replays them over TLS
	ts := httptest.NewTLSServer(router)

	t.Cleanup(func() {
		ts.Close()
		_ = index.Close()
		_ = db.Close()
	})

	return &stack{server: ts, relay: relay}
}

// client returns an HTTP client with its own cookie jar, i.e. one browser.
func (s *stack) client(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &http.Client{Transport: s.server.Client().Transport, Jar: jar}
}

func (s *stack) register(t *testing.T, client *http.Client, name, username string) domain.User {
	t.Helper()
	req := require.New(t)

	var form bytes.Buffer
	writer := multipart.NewWriter(&form)
	req.NoError(writer.WriteField("name", name))
	req.NoError(writer.WriteField("username", username))
	req.NoError(writer.WriteField("email", username+"@example.com"))
	req.NoError(writer.WriteField("password", "Sup3r$ecretPass"))
	req.NoError(writer.Close())

	resp, err := client.Post(s.server.URL+"/api/v1/user/new", writer.FormDataContentType(), &form)
	req.NoError(err)
	defer resp.Body.Close()
	req.Equal(http.StatusCreated, resp.StatusCode)

	var payload struct {
		User domain.User `json:"user"`
	}
	req.NoError(json.NewDecoder(resp.Body).Decode(&payload))
	req.NotEmpty(payload.User.ID)
	return payload.User
}

func (s *stack) do(t *testing.T, client *http.Client, method, path string, body any, out any) *http.Response {
	t.Helper()
	req := require.New(t)

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		req.NoError(err)
		reader = bytes.NewReader(encoded)
	}

	request, err := http.NewRequest(method, s.server.URL+path, reader)
	req.NoError(err)
	if body != nil {
		request.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(request)
	req.NoError(err)
	defer resp.Body.Close()

	if out != nil {
		req.NoError(json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

// dialWS opens a websocket connection reusing the client's session cookie.
func (s *stack) dialWS(t *testing.T, client *http.Client) *websocket.Conn {
	t.Helper()
	req := require.New(t)

	base, err := url.Parse(s.server.URL)
	req.NoError(err)

	header := http.Header{}
	for _, cookie := range client.Jar.Cookies(base) {
		header.Add("Cookie", cookie.Name+"="+cookie.Value)
	}

	dialer := websocket.Dialer{
		TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
	}
	wsURL := "wss" + strings.TrimPrefix(s.server.URL, "https") + "/ws"
	conn, _, err := dialer.Dial(wsURL, header)
	req.NoError(err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func sendFrame(t *testing.T, conn *websocket.Conn, kind event.Kind, payload any) {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	frame, err := json.Marshal(gateway.Frame{Event: kind, Data: data})
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, frame))
}

func readFrame(t *testing.T, conn *websocket.Conn) gateway.Frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var frame gateway.Frame
	require.NoError(t, json.Unmarshal(raw, &frame))
	return frame
}

func Test_Scenario(t *testing.T) {
	req := require.New(t)
	s := newStack(t)

	// Given three registered users, each on their own browser
	aliceClient := s.client(t)
	bobClient := s.client(t)
	charlieClient := s.client(t)

	alice := s.register(t, aliceClient, "Alice", "alice")
	bob := s.register(t, bobClient, "Bob", "bob")
	charlie := s.register(t, charlieClient, "Charlie", "charlie")

	// When Alice sends Bob a friend request
	resp := s.do(t, aliceClient, http.MethodPut, "/api/v1/user/sendrequest",
		map[string]any{"userId": bob.ID}, nil)
	req.Equal(http.StatusOK, resp.StatusCode)

	// Then Bob sees it in his notifications
	var notifications struct {
		AllRequests []services.NotificationView `json:"allRequests"`
	}
	resp = s.do(t, bobClient, http.MethodGet, "/api/v1/user/notifications", nil, &notifications)
	req.Equal(http.StatusOK, resp.StatusCode)
	req.Len(notifications.AllRequests, 1)
	req.Equal(alice.ID, notifications.AllRequests[0].Sender.ID)

	// And accepting it creates their direct conversation
	resp = s.do(t, bobClient, http.MethodPut, "/api/v1/user/acceptrequest",
		map[string]any{"requestId": notifications.AllRequests[0].RequestID, "accept": true}, nil)
	req.Equal(http.StatusOK, resp.StatusCode)

	var bobChats struct {
		Chats []services.ChatView `json:"chats"`
	}
	resp = s.do(t, bobClient, http.MethodGet, "/api/v1/chat/my", nil, &bobChats)
	req.Equal(http.StatusOK, resp.StatusCode)
	req.Len(bobChats.Chats, 1)
	req.NotNil(bobChats.Chats[0].OtherMember)
	req.Equal(alice.ID, bobChats.Chats[0].OtherMember.ID)

	// When Alice creates a group with all three
	var group struct {
		ChatID string `json:"chatId"`
	}
	resp = s.do(t, aliceClient, http.MethodPost, "/api/v1/chat/new",
		map[string]any{"name": "book club", "members": []domain.Identity{bob.ID, charlie.ID}}, &group)
	req.Equal(http.StatusCreated, resp.StatusCode)
	req.NotEmpty(group.ChatID)

	// And both connect to the gateway and Alice posts a message
	bobConn := s.dialWS(t, bobClient)
	aliceConn := s.dialWS(t, aliceClient)

	members := []domain.Identity{alice.ID, bob.ID, charlie.ID}
	sendFrame(t, aliceConn, event.NewMessage, event.NewMessagePayload{
		ChatID:  group.ChatID,
		Members: members,
		Content: "beware, a viper lives in chapter three",
	})

	// Then Bob receives the censored message first, the alert second
	frame := readFrame(t, bobConn)
	req.Equal(event.NewMessage, frame.Event)

	var delivered event.NewMessageData
	req.NoError(json.Unmarshal(frame.Data, &delivered))
	req.Equal(group.ChatID, delivered.ChatID)
	req.Equal(alice.ID, delivered.Message.Sender.ID)
	req.Equal("beware, a ***** lives in chapter three", delivered.Message.Content)

	frame = readFrame(t, bobConn)
	req.Equal(event.NewMessageAlert, frame.Event)

	// And once persistence settles, history and search both find it
	s.relay.Close()

	var history struct {
		Messages   []domain.Message `json:"messages"`
		TotalPages int              `json:"totalPages"`
	}
	resp = s.do(t, charlieClient, http.MethodGet, "/api/v1/chat/message/"+group.ChatID, nil, &history)
	req.Equal(http.StatusOK, resp.StatusCode)
	req.Len(history.Messages, 1)
	req.Equal("beware, a ***** lives in chapter three", history.Messages[0].Content)

	var hits struct {
		Hits []repositories.SearchHit `json:"hits"`
	}
	resp = s.do(t, charlieClient, http.MethodGet, "/api/v1/chat/search?q=chapter", nil, &hits)
	req.Equal(http.StatusOK, resp.StatusCode)
	req.Len(hits.Hits, 1)
	req.Equal(group.ChatID, hits.Hits[0].Chat)

	// And the admin dashboard reflects the whole exchange
	adminClient := s.client(t)
	resp = s.do(t, adminClient, http.MethodPost, "/api/v1/admin/verify",
		map[string]any{"secretKey": adminSecret}, nil)
	req.Equal(http.StatusOK, resp.StatusCode)

	var dashboard struct {
		Stats services.DashboardStats `json:"stats"`
	}
	resp = s.do(t, adminClient, http.MethodGet, "/api/v1/admin/stats", nil, &dashboard)
	req.Equal(http.StatusOK, resp.StatusCode)
	req.Equal(3, dashboard.Stats.UsersCount)
	req.Equal(2, dashboard.Stats.ChatsCount)
	req.Equal(1, dashboard.Stats.GroupsCount)
	req.Equal(1, dashboard.Stats.MessagesCount)

	// And an anonymous browser is kept out of everything protected
	anonymous := s.client(t)
	resp = s.do(t, anonymous, http.MethodGet, "/api/v1/chat/my", nil, nil)
	req.Equal(http.StatusUnauthorized, resp.StatusCode)
	resp = s.do(t, anonymous, http.MethodGet, "/api/v1/admin/stats", nil, nil)
	req.Equal(http.StatusUnauthorized, resp.StatusCode)
}
