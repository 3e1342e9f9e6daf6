package services

import (
	"encoding/json"
	"net/http"
	"os"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/AmanSingh2427/Chat-app/config"
	"github.com/AmanSingh2427/Chat-app/db"
	"github.com/AmanSingh2427/Chat-app/models"
	"github.com/AmanSingh2427/Chat-app/ws"
)

type testEnv struct {
	gdb      *db.GormDB
	hub      *ws.Hub
	messages MessageService
	groups   GroupService
	auth     AuthService
}

func setupTestEnv(t *testing.T) (*testEnv, func()) {
	t.Helper()

	tmpfile, err := os.CreateTemp("", "chatapp-svc-*.db")
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	tmpfile.Close()

	gormDB, err := gorm.Open(sqlite.Open(tmpfile.Name()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	if err := gormDB.AutoMigrate(&models.User{}, &models.Group{}, &models.ChatMessage{}, &models.GroupMessage{}); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}

	gdb := &db.GormDB{DB: gormDB}
	conf := &config.Config{JWTSecret: "test-secret"}

	authRepo := db.NewAuthRepo(gdb)
	messageRepo := db.NewMessageRepo(gdb)
	groupRepo := db.NewGroupRepo(gdb)

	hub := ws.NewHub()
	go hub.Run()

	env := &testEnv{
		gdb:      gdb,
		hub:      hub,
		messages: NewMessageService(messageRepo, authRepo, groupRepo, hub, conf),
		groups:   NewGroupService(groupRepo, conf),
		auth:     NewAuthService(authRepo, messageRepo, conf),
	}
	cleanup := func() {
		sqlDB, _ := gormDB.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
		os.Remove(tmpfile.Name())
	}
	return env, cleanup
}

func (e *testEnv) createUser(t *testing.T, username, email string) *models.User {
	t.Helper()

	user := &models.User{Username: username, Email: email, HashedPassword: "x"}
	if err := e.gdb.DB.Create(user).Error; err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}
	return user
}

// subscribe registers a bare session on the hub so tests can observe
// what the services broadcast.
func (e *testEnv) subscribe(t *testing.T) *ws.Client {
	t.Helper()

	client := &ws.Client{Send: make(chan []byte, 16)}
	e.hub.Register <- client
	return client
}

func nextEvent(t *testing.T, client *ws.Client) models.NewMessageEvent {
	t.Helper()
	select {
	case data := <-client.Send:
		var envl struct {
			Type string                 `json:"type"`
			Data models.NewMessageEvent `json:"data"`
		}
		if err := json.Unmarshal(data, &envl); err != nil {
			t.Fatalf("failed to unmarshal event: %v", err)
		}
		if envl.Type != ws.EventNewMessage {
			t.Fatalf("unexpected event type %q", envl.Type)
		}
		return envl.Data
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for broadcast")
		return models.NewMessageEvent{}
	}
}

func expectNoEvent(t *testing.T, client *ws.Client) {
	t.Helper()
	select {
	case data := <-client.Send:
		t.Fatalf("unexpected broadcast: %s", data)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestSendDirectMessagePersistsThenBroadcasts(t *testing.T) {
	env, cleanup := setupTestEnv(t)
	defer cleanup()

	alice := env.createUser(t, "alice", "alice@example.com")
	bob := env.createUser(t, "bob", "bob@example.com")
	sub := env.subscribe(t)

	msg, apiErr := env.messages.SendDirectMessage(alice.ID, &models.SendMessageRequest{
		ReceiverID: bob.ID,
		Body:       "hi",
	})
	if apiErr != nil {
		t.Fatalf("SendDirectMessage failed: %v", apiErr)
	}

	ev := nextEvent(t, sub)
	if ev.ID != msg.ID {
		t.Errorf("broadcast id %v does not match persisted id %v", ev.ID, msg.ID)
	}
	if ev.Kind != models.MessageKindDirect {
		t.Errorf("expected direct event, got %q", ev.Kind)
	}
	if ev.SenderName != "alice" {
		t.Errorf("expected denormalized sender name, got %q", ev.SenderName)
	}

	// By the time the event is out the row must be fetchable.
	history, apiErr := env.messages.GetConversation(bob.ID, alice.ID)
	if apiErr != nil {
		t.Fatalf("GetConversation failed: %v", apiErr)
	}
	if len(history) != 1 || history[0].ID != msg.ID {
		t.Fatalf("expected the broadcast message in history, got %+v", history)
	}
}

func TestSendDirectMessageValidation(t *testing.T) {
	env, cleanup := setupTestEnv(t)
	defer cleanup()

	alice := env.createUser(t, "alice", "alice@example.com")
	bob := env.createUser(t, "bob", "bob@example.com")

	for _, tc := range []struct {
		name    string
		request *models.SendMessageRequest
		status  int
	}{
		{"empty body", &models.SendMessageRequest{ReceiverID: bob.ID, Body: "   "}, http.StatusBadRequest},
		{"missing receiver", &models.SendMessageRequest{Body: "hi"}, http.StatusBadRequest},
		{"unknown receiver", &models.SendMessageRequest{ReceiverID: 9999, Body: "hi"}, http.StatusNotFound},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, apiErr := env.messages.SendDirectMessage(alice.ID, tc.request)
			if apiErr == nil {
				t.Fatal("expected an error")
			}
			if apiErr.Status != tc.status {
				t.Errorf("expected status %d, got %d", tc.status, apiErr.Status)
			}
		})
	}
}

func TestSendGroupMessageRequiresMembership(t *testing.T) {
	env, cleanup := setupTestEnv(t)
	defer cleanup()

	alice := env.createUser(t, "alice", "alice@example.com")
	bob := env.createUser(t, "bob", "bob@example.com")
	mallory := env.createUser(t, "mallory", "mallory@example.com")

	group, apiErr := env.groups.CreateGroup(alice.ID, &models.CreateGroupRequest{
		Name:    "team",
		UserIDs: []uint{bob.ID},
	})
	if apiErr != nil {
		t.Fatalf("CreateGroup failed: %v", apiErr)
	}

	sub := env.subscribe(t)

	// A member posts; the event must be group-scoped.
	msg, apiErr := env.messages.SendGroupMessage(bob.ID, &models.SendGroupMessageRequest{
		GroupID: group.ID,
		Body:    "hello team",
	})
	if apiErr != nil {
		t.Fatalf("SendGroupMessage failed: %v", apiErr)
	}

	ev := nextEvent(t, sub)
	if ev.Kind != models.MessageKindGroup || ev.GroupID != group.ID {
		t.Errorf("expected group-scoped event, got kind=%q group=%d", ev.Kind, ev.GroupID)
	}
	if ev.ReceiverID != 0 {
		t.Errorf("group events must not carry a receiver id, got %d", ev.ReceiverID)
	}

	history, apiErr := env.messages.GetGroupConversation(alice.ID, group.ID)
	if apiErr != nil {
		t.Fatalf("GetGroupConversation failed: %v", apiErr)
	}
	if len(history) != 1 || history[0].ID != msg.ID {
		t.Fatalf("expected the group message in history, got %+v", history)
	}

	// A non-member is rejected and nothing is broadcast.
	_, apiErr = env.messages.SendGroupMessage(mallory.ID, &models.SendGroupMessageRequest{
		GroupID: group.ID,
		Body:    "let me in",
	})
	if apiErr == nil {
		t.Fatal("expected a membership error")
	}
	if apiErr.Status != http.StatusForbidden {
		t.Errorf("expected 403, got %d", apiErr.Status)
	}
	expectNoEvent(t, sub)
}

func TestDirectoryScenario(t *testing.T) {
	env, cleanup := setupTestEnv(t)
	defer cleanup()

	alice := env.createUser(t, "alice", "alice@example.com")
	bob := env.createUser(t, "bob", "bob@example.com")

	if _, apiErr := env.messages.SendDirectMessage(alice.ID, &models.SendMessageRequest{
		ReceiverID: bob.ID,
		Body:       "hi",
	}); apiErr != nil {
		t.Fatalf("SendDirectMessage failed: %v", apiErr)
	}

	summaries, err := env.messages.Directory(bob.ID)
	if err != nil {
		t.Fatalf("Directory failed: %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("expected one peer, got %d", len(summaries))
	}
	if summaries[0].PeerID != alice.ID || summaries[0].UnreadCount != 1 {
		t.Fatalf("expected alice with unread 1, got %+v", summaries[0])
	}
	if summaries[0].LastMessageAt.IsZero() {
		t.Error("expected recency to be set")
	}

	if apiErr := env.messages.MarkRead(bob.ID, alice.ID); apiErr != nil {
		t.Fatalf("MarkRead failed: %v", apiErr)
	}

	summaries, err = env.messages.Directory(bob.ID)
	if err != nil {
		t.Fatalf("Directory failed: %v", err)
	}
	if summaries[0].UnreadCount != 0 {
		t.Errorf("expected unread 0 after mark, got %d", summaries[0].UnreadCount)
	}

	// The profile badge derives from the same rows.
	profile, err := env.auth.GetUserProfile(bob.ID)
	if err != nil {
		t.Fatalf("GetUserProfile failed: %v", err)
	}
	if profile.UnreadMessages != 0 {
		t.Errorf("expected profile unread 0, got %d", profile.UnreadMessages)
	}
}

func TestDirectoryOrdersPeersByRecency(t *testing.T) {
	env, cleanup := setupTestEnv(t)
	defer cleanup()

	alice := env.createUser(t, "alice", "alice@example.com")
	bob := env.createUser(t, "bob", "bob@example.com")
	carol := env.createUser(t, "carol", "carol@example.com")
	dave := env.createUser(t, "dave", "dave@example.com")

	if _, apiErr := env.messages.SendDirectMessage(bob.ID, &models.SendMessageRequest{
		ReceiverID: alice.ID, Body: "older",
	}); apiErr != nil {
		t.Fatalf("SendDirectMessage failed: %v", apiErr)
	}
	time.Sleep(10 * time.Millisecond)
	if _, apiErr := env.messages.SendDirectMessage(carol.ID, &models.SendMessageRequest{
		ReceiverID: alice.ID, Body: "newer",
	}); apiErr != nil {
		t.Fatalf("SendDirectMessage failed: %v", apiErr)
	}
	_ = dave // never messages anyone

	summaries, err := env.messages.Directory(alice.ID)
	if err != nil {
		t.Fatalf("Directory failed: %v", err)
	}
	if len(summaries) != 3 {
		t.Fatalf("expected 3 peers, got %d", len(summaries))
	}
	if summaries[0].PeerID != carol.ID || summaries[1].PeerID != bob.ID {
		t.Errorf("unexpected recency order: %+v", summaries)
	}
	// The peer with no history sorts last on the zero-time sentinel.
	if summaries[2].PeerID != dave.ID {
		t.Errorf("expected dave last, got %+v", summaries[2])
	}
}

func TestGetConversationEmptyState(t *testing.T) {
	env, cleanup := setupTestEnv(t)
	defer cleanup()

	alice := env.createUser(t, "alice", "alice@example.com")
	bob := env.createUser(t, "bob", "bob@example.com")

	history, apiErr := env.messages.GetConversation(alice.ID, bob.ID)
	if apiErr != nil {
		t.Fatalf("empty conversation must not be an error, got %v", apiErr)
	}
	if len(history) != 0 {
		t.Fatalf("expected empty history, got %d", len(history))
	}

	// A peer that does not exist at all is a 404.
	_, apiErr = env.messages.GetConversation(alice.ID, 9999)
	if apiErr == nil {
		t.Fatal("expected not-found error for missing peer")
	}
	if apiErr.Status != http.StatusNotFound {
		t.Errorf("expected 404, got %d", apiErr.Status)
	}
}
