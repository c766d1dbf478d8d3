package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"chat-hub/auth"
	"chat-hub/domain"
	"chat-hub/domain/event"
	"chat-hub/gateway"

	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/kelseyhightower/envconfig"
)

// Manual smoke client for a running server: logs in over HTTP, attaches the
// session cookie to the websocket handshake, joins a chat and sends one
// message, then prints everything the gateway pushes back.

type Config struct {
	ServerAddr string        `envconfig:"PROBE_SERVER_ADDR" default:"localhost:8080"`
	Username   string        `envconfig:"PROBE_USERNAME" required:"true"`
	Password   string        `envconfig:"PROBE_PASSWORD" required:"true"`
	ChatID     string        `envconfig:"PROBE_CHAT_ID" required:"true"`
	Members    string        `envconfig:"PROBE_MEMBERS" required:"true"`
	Message    string        `envconfig:"PROBE_MESSAGE" default:"probe says hello"`
	Listen     time.Duration `envconfig:"PROBE_LISTEN" default:"10s"`
}

func main() {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		log.Fatalf("Config error: %v", err)
	}

	// 1. Login over HTTP to obtain the session cookie
	cookie, user, err := login(config)
	if err != nil {
		log.Fatalf("Login failed: %v", err)
	}
	color.Green.Printf("Logged in as %s (%s)\n", user.Name, user.ID)

	// 2. Websocket handshake carrying the cookie
	header := http.Header{}
	header.Add("Cookie", cookie)
	conn, _, err := websocket.DefaultDialer.Dial("ws://"+config.ServerAddr+"/ws", header)
	if err != nil {
		log.Fatalf("Websocket dial failed: %v", err)
	}
	defer conn.Close()
	color.Green.Println("Websocket connected")

	var members []domain.Identity
	if err := json.Unmarshal([]byte(config.Members), &members); err != nil {
		log.Fatalf("PROBE_MEMBERS must be a JSON array of ids: %v", err)
	}

	// 3. Join the chat, then send one message
	send(conn, event.ChatJoined, event.PresencePayload{UserID: user.ID, Members: members})
	send(conn, event.NewMessage, event.NewMessagePayload{
		ChatID:  config.ChatID,
		Members: members,
		Content: config.Message,
	})

	// 4. Print every pushed frame until the listen window closes
	deadline := time.Now().Add(config.Listen)
	_ = conn.SetReadDeadline(deadline)
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			color.Yellow.Printf("Listen window closed: %v\n", err)
			return
		}
		var frame gateway.Frame
		if err := json.Unmarshal(raw, &frame); err != nil {
			color.Red.Printf("Unparseable frame: %s\n", raw)
			continue
		}
		color.Cyan.Printf("<- %s %s\n", frame.Event, frame.Data)
	}
}

func login(config Config) (cookie string, user domain.User, err error) {
	body, _ := json.Marshal(map[string]string{
		"username": config.Username,
		"password": config.Password,
	})
	resp, err := http.Post("http://"+config.ServerAddr+"/api/v1/user/login", "application/json", bytes.NewReader(body))
	if err != nil {
		return "", domain.User{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", domain.User{}, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var payload struct {
		User domain.User `json:"user"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", domain.User{}, err
	}

	for _, c := range resp.Cookies() {
		if c.Name == auth.SessionCookie {
			return c.Name + "=" + c.Value, payload.User, nil
		}
	}
	return "", domain.User{}, fmt.Errorf("no %s cookie in login response", auth.SessionCookie)
}

func send(conn *websocket.Conn, kind event.Kind, payload any) {
	data, _ := json.Marshal(payload)
	frame, _ := json.Marshal(gateway.Frame{Event: kind, Data: data})
	if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		log.Fatalf("Send %s failed: %v", kind, err)
	}
	color.Blue.Printf("-> %s\n", kind)
}
