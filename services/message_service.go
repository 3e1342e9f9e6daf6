package services

import (
	"errors"
	"log"
	"net/http"
	"sort"
	"strings"

	"github.com/AmanSingh2427/Chat-app/config"
	"github.com/AmanSingh2427/Chat-app/db"
	apiError "github.com/AmanSingh2427/Chat-app/errors"
	"github.com/AmanSingh2427/Chat-app/models"
	"github.com/AmanSingh2427/Chat-app/ws"
	"gorm.io/gorm"
)

// MessageService owns message creation, history retrieval, read marking
// and the derived directory. Creation persists first and broadcasts
// second: an event is never published for a row that isn't durable yet.
type MessageService interface {
	SendDirectMessage(senderID uint, request *models.SendMessageRequest) (*models.MessageResponse, *apiError.Error)
	SendGroupMessage(senderID uint, request *models.SendGroupMessageRequest) (*models.MessageResponse, *apiError.Error)
	GetConversation(viewerID, peerID uint) ([]models.MessageResponse, *apiError.Error)
	GetGroupConversation(viewerID, groupID uint) ([]models.MessageResponse, *apiError.Error)
	MarkRead(viewerID, peerID uint) *apiError.Error
	Directory(viewerID uint) ([]models.PeerSummary, error)
}

type messageService struct {
	Config      *config.Config
	messageRepo db.MessageRepository
	authRepo    db.AuthRepository
	groupRepo   db.GroupRepository
	hub         *ws.Hub
}

func NewMessageService(messageRepo db.MessageRepository, authRepo db.AuthRepository, groupRepo db.GroupRepository, hub *ws.Hub, conf *config.Config) MessageService {
	return &messageService{
		Config:      conf,
		messageRepo: messageRepo,
		authRepo:    authRepo,
		groupRepo:   groupRepo,
		hub:         hub,
	}
}

func (s *messageService) SendDirectMessage(senderID uint, request *models.SendMessageRequest) (*models.MessageResponse, *apiError.Error) {
	if request == nil || strings.TrimSpace(request.Body) == "" {
		return nil, apiError.New("receiver ID and message are required", http.StatusBadRequest)
	}
	if request.ReceiverID == 0 {
		return nil, apiError.New("receiver ID and message are required", http.StatusBadRequest)
	}

	sender, err := s.authRepo.FindUserByID(senderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apiError.New("sender not found", http.StatusNotFound)
		}
		log.Printf("SendDirectMessage error fetching sender: %v", err)
		return nil, apiError.ErrInternalServerError
	}

	if _, err := s.authRepo.FindUserByID(request.ReceiverID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apiError.New("receiver not found", http.StatusNotFound)
		}
		log.Printf("SendDirectMessage error fetching receiver: %v", err)
		return nil, apiError.ErrInternalServerError
	}

	msg := &models.ChatMessage{
		SenderID:   senderID,
		ReceiverID: request.ReceiverID,
		Body:       request.Body,
	}
	msg, err = s.messageRepo.CreateChatMessage(msg)
	if err != nil {
		log.Printf("SendDirectMessage error saving message: %v", err)
		return nil, apiError.ErrInternalServerError
	}

	// The row is durable; now every session hears about it.
	s.hub.PublishNewMessage(models.NewMessageEvent{
		ID:         msg.ID,
		Kind:       models.MessageKindDirect,
		SenderID:   senderID,
		SenderName: sender.Username,
		ReceiverID: msg.ReceiverID,
		Body:       msg.Body,
		CreatedAt:  msg.CreatedAt,
	})

	return &models.MessageResponse{
		ID:         msg.ID,
		SenderID:   senderID,
		SenderName: sender.Username,
		ReceiverID: msg.ReceiverID,
		Body:       msg.Body,
		CreatedAt:  msg.CreatedAt,
	}, nil
}

func (s *messageService) SendGroupMessage(senderID uint, request *models.SendGroupMessageRequest) (*models.MessageResponse, *apiError.Error) {
	if request == nil || strings.TrimSpace(request.Body) == "" {
		return nil, apiError.New("group ID and message are required", http.StatusBadRequest)
	}
	if request.GroupID == 0 {
		return nil, apiError.New("group ID and message are required", http.StatusBadRequest)
	}

	sender, err := s.authRepo.FindUserByID(senderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apiError.New("sender not found", http.StatusNotFound)
		}
		log.Printf("SendGroupMessage error fetching sender: %v", err)
		return nil, apiError.ErrInternalServerError
	}

	if _, err := s.groupRepo.FindGroupByID(request.GroupID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apiError.New("group not found", http.StatusNotFound)
		}
		log.Printf("SendGroupMessage error fetching group: %v", err)
		return nil, apiError.ErrInternalServerError
	}

	member, err := s.groupRepo.IsMember(request.GroupID, senderID)
	if err != nil {
		log.Printf("SendGroupMessage error checking membership: %v", err)
		return nil, apiError.ErrInternalServerError
	}
	if !member {
		return nil, apiError.New("sender is not a member of this group", http.StatusForbidden)
	}

	msg := &models.GroupMessage{
		GroupID:  request.GroupID,
		SenderID: senderID,
		Body:     request.Body,
	}
	msg, err = s.messageRepo.CreateGroupMessage(msg)
	if err != nil {
		log.Printf("SendGroupMessage error saving message: %v", err)
		return nil, apiError.ErrInternalServerError
	}

	s.hub.PublishNewMessage(models.NewMessageEvent{
		ID:         msg.ID,
		Kind:       models.MessageKindGroup,
		SenderID:   senderID,
		SenderName: sender.Username,
		GroupID:    msg.GroupID,
		Body:       msg.Body,
		CreatedAt:  msg.CreatedAt,
	})

	return &models.MessageResponse{
		ID:         msg.ID,
		SenderID:   senderID,
		SenderName: sender.Username,
		GroupID:    msg.GroupID,
		Body:       msg.Body,
		CreatedAt:  msg.CreatedAt,
	}, nil
}

// GetConversation returns the full two-sided history with peerID.
// An empty conversation is a normal result, not an error; 404 is
// reserved for a peer that does not exist at all.
func (s *messageService) GetConversation(viewerID, peerID uint) ([]models.MessageResponse, *apiError.Error) {
	if _, err := s.authRepo.FindUserByID(peerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apiError.New("user not found", http.StatusNotFound)
		}
		log.Printf("GetConversation error fetching peer: %v", err)
		return nil, apiError.ErrInternalServerError
	}

	messages, err := s.messageRepo.GetConversation(viewerID, peerID)
	if err != nil {
		log.Printf("GetConversation error: %v", err)
		return nil, apiError.ErrInternalServerError
	}
	return messages, nil
}

func (s *messageService) GetGroupConversation(viewerID, groupID uint) ([]models.MessageResponse, *apiError.Error) {
	if _, err := s.groupRepo.FindGroupByID(groupID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apiError.New("group not found", http.StatusNotFound)
		}
		log.Printf("GetGroupConversation error fetching group: %v", err)
		return nil, apiError.ErrInternalServerError
	}

	member, err := s.groupRepo.IsMember(groupID, viewerID)
	if err != nil {
		log.Printf("GetGroupConversation error checking membership: %v", err)
		return nil, apiError.ErrInternalServerError
	}
	if !member {
		return nil, apiError.New("viewer is not a member of this group", http.StatusForbidden)
	}

	messages, err := s.messageRepo.GetGroupConversation(groupID)
	if err != nil {
		log.Printf("GetGroupConversation error: %v", err)
		return nil, apiError.ErrInternalServerError
	}
	return messages, nil
}

// MarkRead flips every unread message from peerID to viewerID to read.
// Calling it again is a no-op; messages sent after the mark stay unread.
func (s *messageService) MarkRead(viewerID, peerID uint) *apiError.Error {
	if err := s.messageRepo.MarkMessagesRead(viewerID, peerID); err != nil {
		log.Printf("MarkRead error: %v", err)
		return apiError.ErrInternalServerError
	}
	return nil
}

// Directory builds the viewer's peer list: every other user plus every
// group the viewer belongs to, annotated with last-message time and
// (for users) unread count, most recent first. Peers with no messages
// keep the zero time and sort last.
func (s *messageService) Directory(viewerID uint) ([]models.PeerSummary, error) {
	users, err := s.authRepo.ListOtherUsers(viewerID)
	if err != nil {
		return nil, err
	}
	groups, err := s.groupRepo.ListGroupsForUser(viewerID)
	if err != nil {
		return nil, err
	}

	unread, err := s.messageRepo.UnreadCountsByPeer(viewerID)
	if err != nil {
		return nil, err
	}
	lastDirect, err := s.messageRepo.LastDirectTimesByPeer(viewerID)
	if err != nil {
		return nil, err
	}

	groupIDs := make([]uint, 0, len(groups))
	for i := range groups {
		groupIDs = append(groupIDs, groups[i].ID)
	}
	lastGroup, err := s.messageRepo.LastGroupTimes(groupIDs)
	if err != nil {
		return nil, err
	}

	summaries := make([]models.PeerSummary, 0, len(users)+len(groups))
	for i := range users {
		u := &users[i]
		summaries = append(summaries, models.PeerSummary{
			Kind:          models.PeerKindUser,
			PeerID:        u.ID,
			Name:          u.Username,
			Image:         u.Image,
			LastMessageAt: lastDirect[u.ID],
			UnreadCount:   unread[u.ID],
		})
	}
	for i := range groups {
		g := &groups[i]
		members := make([]models.UserResponse, 0, len(g.Members))
		for j := range g.Members {
			members = append(members, g.Members[j].ToUserResponse())
		}
		summaries = append(summaries, models.PeerSummary{
			Kind:          models.PeerKindGroup,
			PeerID:        g.ID,
			Name:          g.Name,
			Members:       members,
			LastMessageAt: lastGroup[g.ID],
		})
	}

	// Stable: peers with equal recency keep their relative order, and
	// the zero-time sentinel pushes message-less peers to the bottom.
	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].LastMessageAt.After(summaries[j].LastMessageAt)
	})

	return summaries, nil
}
