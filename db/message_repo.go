package db

import (
	"log"
	"time"

	"github.com/AmanSingh2427/Chat-app/models"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type MessageRepository interface {
	CreateChatMessage(msg *models.ChatMessage) (*models.ChatMessage, error)
	CreateGroupMessage(msg *models.GroupMessage) (*models.GroupMessage, error)
	GetConversation(userA, userB uint) ([]models.MessageResponse, error)
	GetGroupConversation(groupID uint) ([]models.MessageResponse, error)
	MarkMessagesRead(receiverID, senderID uint) error
	CountUnread(receiverID uint) (int64, error)
	UnreadCountsByPeer(receiverID uint) (map[uint]int64, error)
	LastDirectTimesByPeer(viewerID uint) (map[uint]time.Time, error)
	LastGroupTimes(groupIDs []uint) (map[uint]time.Time, error)
}

type messageRepo struct {
	DB *gorm.DB
}

func NewMessageRepo(db *GormDB) MessageRepository {
	return &messageRepo{db.DB}
}

func (m *messageRepo) CreateChatMessage(msg *models.ChatMessage) (*models.ChatMessage, error) {
	if msg == nil {
		return nil, errors.New("message is nil")
	}
	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}

	if err := m.DB.Create(msg).Error; err != nil {
		log.Printf("CreateChatMessage error: %v", err)
		return nil, errors.Wrap(err, "failed to save message")
	}
	return msg, nil
}

func (m *messageRepo) CreateGroupMessage(msg *models.GroupMessage) (*models.GroupMessage, error) {
	if msg == nil {
		return nil, errors.New("message is nil")
	}
	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}

	if err := m.DB.Create(msg).Error; err != nil {
		log.Printf("CreateGroupMessage error: %v", err)
		return nil, errors.Wrap(err, "failed to save group message")
	}
	return msg, nil
}

// GetConversation returns the full two-sided history between userA and
// userB, oldest first, with the sender's name joined in. The result is
// the same regardless of which participant is the viewer.
func (m *messageRepo) GetConversation(userA, userB uint) ([]models.MessageResponse, error) {
	results := []models.MessageResponse{}
	err := m.DB.Table("chat_messages m").
		Select("m.id, m.sender_id, s.username AS sender_name, m.receiver_id, m.body AS body, m.created_at").
		Joins("LEFT JOIN users s ON m.sender_id = s.id").
		Where("(m.sender_id = ? AND m.receiver_id = ?) OR (m.sender_id = ? AND m.receiver_id = ?)",
			userA, userB, userB, userA).
		Order("m.created_at ASC, m.id ASC").
		Scan(&results).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch conversation")
	}
	return results, nil
}

func (m *messageRepo) GetGroupConversation(groupID uint) ([]models.MessageResponse, error) {
	results := []models.MessageResponse{}
	err := m.DB.Table("group_messages m").
		Select("m.id, m.sender_id, s.username AS sender_name, m.group_id, m.body AS body, m.created_at").
		Joins("LEFT JOIN users s ON m.sender_id = s.id").
		Where("m.group_id = ?", groupID).
		Order("m.created_at ASC, m.id ASC").
		Scan(&results).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch group conversation")
	}
	return results, nil
}

// MarkMessagesRead flips every unread message from senderID to
// receiverID to read. Re-running it is a no-op.
func (m *messageRepo) MarkMessagesRead(receiverID, senderID uint) error {
	err := m.DB.Model(&models.ChatMessage{}).
		Where("receiver_id = ? AND sender_id = ? AND read = ?", receiverID, senderID, false).
		Update("read", true).Error
	if err != nil {
		log.Printf("MarkMessagesRead error: %v", err)
		return errors.Wrap(err, "failed to mark messages as read")
	}
	return nil
}

func (m *messageRepo) CountUnread(receiverID uint) (int64, error) {
	var count int64
	err := m.DB.Model(&models.ChatMessage{}).
		Where("receiver_id = ? AND read = ?", receiverID, false).
		Count(&count).Error
	if err != nil {
		return 0, errors.Wrap(err, "failed to count unread messages")
	}
	return count, nil
}

// UnreadCountsByPeer groups the viewer's unread messages by sender.
// Always computed fresh from the message rows; nothing is cached.
func (m *messageRepo) UnreadCountsByPeer(receiverID uint) (map[uint]int64, error) {
	rows, err := m.DB.Model(&models.ChatMessage{}).
		Select("sender_id, COUNT(*) AS unread").
		Where("receiver_id = ? AND read = ?", receiverID, false).
		Group("sender_id").
		Rows()
	if err != nil {
		return nil, errors.Wrap(err, "failed to count unread by peer")
	}
	defer rows.Close()

	counts := make(map[uint]int64)
	for rows.Next() {
		var senderID uint
		var unread int64
		if err := rows.Scan(&senderID, &unread); err != nil {
			return nil, errors.Wrap(err, "failed to scan unread row")
		}
		counts[senderID] = unread
	}
	return counts, rows.Err()
}

// LastDirectTimesByPeer returns, for each user the viewer has exchanged
// messages with, the creation time of the most recent one. Recency is
// folded from the raw rows on every call rather than kept as a counter,
// so concurrent senders can never leave a stale aggregate behind.
func (m *messageRepo) LastDirectTimesByPeer(viewerID uint) (map[uint]time.Time, error) {
	var messages []models.ChatMessage
	err := m.DB.Select("sender_id", "receiver_id", "created_at").
		Where("sender_id = ? OR receiver_id = ?", viewerID, viewerID).
		Find(&messages).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch last message times")
	}

	times := make(map[uint]time.Time)
	for i := range messages {
		msg := &messages[i]
		peerID := msg.SenderID
		if msg.SenderID == viewerID {
			peerID = msg.ReceiverID
		}
		if msg.CreatedAt.After(times[peerID]) {
			times[peerID] = msg.CreatedAt
		}
	}
	return times, nil
}

func (m *messageRepo) LastGroupTimes(groupIDs []uint) (map[uint]time.Time, error) {
	times := make(map[uint]time.Time)
	if len(groupIDs) == 0 {
		return times, nil
	}

	var messages []models.GroupMessage
	err := m.DB.Select("group_id", "created_at").
		Where("group_id IN ?", groupIDs).
		Find(&messages).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch last group message times")
	}

	for i := range messages {
		msg := &messages[i]
		if msg.CreatedAt.After(times[msg.GroupID]) {
			times[msg.GroupID] = msg.CreatedAt
		}
	}
	return times, nil
}
