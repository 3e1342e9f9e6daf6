package client

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/AmanSingh2427/Chat-app/models"
	"github.com/AmanSingh2427/Chat-app/ws"
)

func writeEnvelope(w http.ResponseWriter, status int, data interface{}, errMessage string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "",
		"data":    data,
		"errors":  errMessage,
		"status":  http.StatusText(status),
	})
}

func TestLoginStoresTokenForLaterRequests(t *testing.T) {
	var seenAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/auth/login":
			writeEnvelope(w, http.StatusOK, models.LoginResponse{AccessToken: "tok-123"}, "")
		case "/api/v1/users":
			seenAuth = r.Header.Get("Authorization")
			writeEnvelope(w, http.StatusOK, []models.PeerSummary{}, "")
		default:
			writeEnvelope(w, http.StatusNotFound, nil, "not found")
		}
	}))
	defer srv.Close()

	c := New(srv.URL)
	res, err := c.Login("alice@example.com", "secret")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if res.AccessToken != "tok-123" {
		t.Fatalf("unexpected token %q", res.AccessToken)
	}

	if _, err := c.Directory(); err != nil {
		t.Fatalf("Directory failed: %v", err)
	}
	if seenAuth != "Bearer tok-123" {
		t.Errorf("expected bearer token on follow-up request, got %q", seenAuth)
	}
}

func TestErrorEnvelopeSurfacesMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusForbidden, nil, "you are not a member of this group")
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.SendGroupMessage(7, "hi")
	if err == nil {
		t.Fatal("expected an error")
	}
	if err.Error() != "you are not a member of this group" {
		t.Errorf("expected the server's error text, got %q", err)
	}
}

func TestSendDirectMessageDecodesPayload(t *testing.T) {
	id := uuid.New()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req models.SendMessageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeEnvelope(w, http.StatusBadRequest, nil, err.Error())
			return
		}
		writeEnvelope(w, http.StatusCreated, models.MessageResponse{
			ID:         id,
			SenderID:   1,
			ReceiverID: req.ReceiverID,
			Body:       req.Body,
			CreatedAt:  time.Now().UTC(),
		}, "")
	}))
	defer srv.Close()

	c := New(srv.URL)
	msg, err := c.SendDirectMessage(2, "hello")
	if err != nil {
		t.Fatalf("SendDirectMessage failed: %v", err)
	}
	if msg.ID != id || msg.ReceiverID != 2 || msg.Body != "hello" {
		t.Errorf("unexpected message %+v", msg)
	}
}

func TestSubscribeDeliversEventsAndClosesOnDisconnect(t *testing.T) {
	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	event := models.NewMessageEvent{
		ID:         uuid.New(),
		Kind:       models.MessageKindDirect,
		SenderID:   1,
		SenderName: "alice",
		ReceiverID: 2,
		Body:       "hi",
		CreatedAt:  time.Now().UTC(),
	}

	var seenToken string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ws" {
			http.NotFound(w, r)
			return
		}
		seenToken = r.URL.Query().Get("token")
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conn.WriteJSON(ws.Event{Type: ws.EventNewMessage, Data: event})
		// unknown event types must be skipped, not delivered
		conn.WriteJSON(ws.Event{Type: "ping", Data: nil})
		conn.WriteJSON(ws.Event{Type: ws.EventNewMessage, Data: event})
		conn.Close()
	}))
	defer srv.Close()

	c := New(srv.URL)
	c.SetToken("tok-456")

	events, err := c.Subscribe()
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	for i := 0; i < 2; i++ {
		select {
		case got, ok := <-events:
			if !ok {
				t.Fatal("event channel closed early")
			}
			if got.ID != event.ID || got.SenderName != "alice" {
				t.Errorf("unexpected event %+v", got)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for event")
		}
	}

	select {
	case _, ok := <-events:
		if ok {
			t.Error("expected the channel to close after disconnect")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for channel close")
	}

	if seenToken != "tok-456" {
		t.Errorf("expected the token on the dial query, got %q", seenToken)
	}
}
