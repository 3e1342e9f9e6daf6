package ws

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/AmanSingh2427/Chat-app/models"
)

func newTestClient(buffer int) *Client {
	return &Client{Send: make(chan []byte, buffer)}
}

func receiveEvent(t *testing.T, c *Client) Event {
	t.Helper()

	select {
	case data, ok := <-c.Send:
		if !ok {
			t.Fatal("send channel closed unexpectedly")
		}
		var ev Event
		if err := json.Unmarshal(data, &ev); err != nil {
			t.Fatalf("failed to unmarshal event: %v", err)
		}
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	return Event{}
}

func TestBroadcastReachesAllSessions(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	// Three sessions, none of them a conversation participant; the
	// topic is global so all of them must hear the event.
	clients := []*Client{newTestClient(8), newTestClient(8), newTestClient(8)}
	for _, c := range clients {
		hub.Register <- c
	}

	hub.PublishNewMessage(models.NewMessageEvent{
		ID:         uuid.New(),
		Kind:       models.MessageKindDirect,
		SenderID:   1,
		SenderName: "alice",
		ReceiverID: 2,
		Body:       "hi",
		CreatedAt:  time.Now(),
	})

	for i, c := range clients {
		ev := receiveEvent(t, c)
		if ev.Type != EventNewMessage {
			t.Errorf("client %d: expected %q event, got %q", i, EventNewMessage, ev.Type)
		}
	}
}

func TestSlowSubscriberIsDroppedInIsolation(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	slow := newTestClient(1)
	healthy := newTestClient(16)
	hub.Register <- slow
	hub.Register <- healthy

	// Fill the slow client's buffer so the next broadcast can't be
	// queued for it.
	slow.Send <- []byte("stuck")

	hub.PublishNewMessage(models.NewMessageEvent{
		ID:   uuid.New(),
		Kind: models.MessageKindDirect,
		Body: "one",
	})
	hub.PublishNewMessage(models.NewMessageEvent{
		ID:   uuid.New(),
		Kind: models.MessageKindDirect,
		Body: "two",
	})

	// The healthy subscriber sees both events.
	receiveEvent(t, healthy)
	receiveEvent(t, healthy)

	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() != 1 {
		if time.Now().After(deadline) {
			t.Fatalf("expected slow client to be dropped, %d clients remain", hub.ClientCount())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestUnregisterClosesSendChannel(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	c := newTestClient(1)
	hub.Register <- c
	hub.Unregister <- c

	select {
	case _, ok := <-c.Send:
		if ok {
			t.Fatal("expected send channel to be closed")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for channel close")
	}

	if hub.ClientCount() != 0 {
		t.Errorf("expected 0 clients, got %d", hub.ClientCount())
	}
}
