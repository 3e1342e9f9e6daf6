package models

import (
	"time"

	"github.com/google/uuid"
)

// ChatMessage is a direct message between two users. Rows are immutable
// once written except for Read, which only ever flips false -> true.
type ChatMessage struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SenderID   uint      `gorm:"index;not null" json:"sender_id"`
	Sender     User      `gorm:"foreignKey:SenderID" json:"-"`
	ReceiverID uint      `gorm:"index;not null" json:"receiver_id"`
	Receiver   User      `gorm:"foreignKey:ReceiverID" json:"-"`
	Body       string    `gorm:"type:text;not null" json:"message"`
	Read       bool      `gorm:"default:false" json:"read"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
}

// GroupMessage is a message posted to a group. Groups carry no
// per-member read state.
type GroupMessage struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	GroupID   uint      `gorm:"index;not null" json:"group_id"`
	Group     Group     `gorm:"foreignKey:GroupID" json:"-"`
	SenderID  uint      `gorm:"index;not null" json:"sender_id"`
	Sender    User      `gorm:"foreignKey:SenderID" json:"-"`
	Body      string    `gorm:"type:text;not null" json:"message"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

type SendMessageRequest struct {
	ReceiverID uint   `json:"receiver_id" binding:"required"`
	Body       string `json:"message" binding:"required" conform:"trim"`
}

type SendGroupMessageRequest struct {
	GroupID uint   `json:"group_id" binding:"required"`
	Body    string `json:"message" binding:"required" conform:"trim"`
}

type MarkReadRequest struct {
	UserID uint `json:"user_id" binding:"required"`
}

// MessageResponse is one entry of a conversation history, with the
// sender's name denormalized so clients can render without a lookup.
type MessageResponse struct {
	ID         uuid.UUID `json:"id"`
	SenderID   uint      `json:"sender_id"`
	SenderName string    `json:"sender_name"`
	ReceiverID uint      `json:"receiver_id,omitempty"`
	GroupID    uint      `json:"group_id,omitempty"`
	Body       string    `json:"message"`
	CreatedAt  time.Time `json:"created_at"`
}

// PeerKind discriminates directory entries and broadcast events.
type PeerKind string

const (
	PeerKindUser  PeerKind = "user"
	PeerKindGroup PeerKind = "group"
)

// PeerSummary is one row of the directory list. LastMessageAt is the
// zero time when no messages exist yet, which sorts the peer last.
// UnreadCount is only meaningful for user peers.
type PeerSummary struct {
	Kind          PeerKind       `json:"kind"`
	PeerID        uint           `json:"peer_id"`
	Name          string         `json:"name"`
	Image         string         `json:"image,omitempty"`
	Members       []UserResponse `json:"members,omitempty"`
	LastMessageAt time.Time      `json:"last_message_at"`
	UnreadCount   int64          `json:"unread_count"`
}

// MessageKind discriminates broadcast events.
type MessageKind string

const (
	MessageKindDirect MessageKind = "direct"
	MessageKindGroup  MessageKind = "group"
)

// NewMessageEvent is the payload pushed over the fan-out channel for
// every created message, direct and group alike.
type NewMessageEvent struct {
	ID         uuid.UUID   `json:"id"`
	Kind       MessageKind `json:"kind"`
	SenderID   uint        `json:"sender_id"`
	SenderName string      `json:"sender_name"`
	ReceiverID uint        `json:"receiver_id,omitempty"`
	GroupID    uint        `json:"group_id,omitempty"`
	Body       string      `json:"message"`
	CreatedAt  time.Time   `json:"created_at"`
}
