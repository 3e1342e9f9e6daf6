package client

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/AmanSingh2427/Chat-app/models"
)

// SelectionKind says what conversation, if any, the session has open.
type SelectionKind int

const (
	SelectionNone SelectionKind = iota
	SelectionDirect
	SelectionGroup
)

// Selection is the currently open conversation.
type Selection struct {
	Kind   SelectionKind
	PeerID uint
}

type peerKey struct {
	kind models.PeerKind
	id   uint
}

// Session reconciles one user's view of the chat: the timeline of the
// open conversation and the directory summaries. History fetched over
// REST and events pushed over the websocket race freely; the session
// merges them by message identifier so each message lands exactly once.
type Session struct {
	mu sync.Mutex

	viewerID  uint
	selection Selection

	timeline []models.MessageResponse
	seen     map[uuid.UUID]bool

	// provisional ids of optimistic sends not yet confirmed by either
	// the REST response or the broadcast echo
	pending map[uuid.UUID]bool

	summaries map[peerKey]*models.PeerSummary
}

func NewSession(viewerID uint) *Session {
	return &Session{
		viewerID:  viewerID,
		summaries: make(map[peerKey]*models.PeerSummary),
		seen:      make(map[uuid.UUID]bool),
		pending:   make(map[uuid.UUID]bool),
	}
}

func (s *Session) ViewerID() uint {
	return s.viewerID
}

// SetDirectory installs a freshly fetched peer list as the summary
// baseline. Live events layered on top keep it current between fetches.
func (s *Session) SetDirectory(peers []models.PeerSummary) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.summaries = make(map[peerKey]*models.PeerSummary, len(peers))
	for i := range peers {
		p := peers[i]
		s.summaries[peerKey{p.Kind, p.PeerID}] = &p
	}
}

// SelectDirect opens the conversation with a user. The caller fetches
// history next and installs it with SetHistory; until then the timeline
// is empty.
func (s *Session) SelectDirect(peerID uint) {
	s.setSelection(Selection{Kind: SelectionDirect, PeerID: peerID})
}

func (s *Session) SelectGroup(groupID uint) {
	s.setSelection(Selection{Kind: SelectionGroup, PeerID: groupID})
}

func (s *Session) ClearSelection() {
	s.setSelection(Selection{Kind: SelectionNone})
}

func (s *Session) setSelection(sel Selection) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.selection = sel
	// the old conversation's timeline and any buffered echoes die here
	s.timeline = nil
	s.seen = make(map[uuid.UUID]bool)
	s.pending = make(map[uuid.UUID]bool)

	// opening a direct conversation is the moment its messages count as
	// read, mirroring the mark-as-read call the caller issues
	if sel.Kind == SelectionDirect {
		if sum, ok := s.summaries[peerKey{models.PeerKindUser, sel.PeerID}]; ok {
			sum.UnreadCount = 0
		}
	}
}

func (s *Session) Selection() Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selection
}

// SetHistory replaces the timeline with fetched history. The fetch
// always wins over anything appended for a previous selection.
func (s *Session) SetHistory(messages []models.MessageResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.timeline = make([]models.MessageResponse, len(messages))
	copy(s.timeline, messages)
	s.seen = make(map[uuid.UUID]bool, len(messages))
	for i := range messages {
		s.seen[messages[i].ID] = true
	}
}

// Timeline returns a copy of the open conversation's messages.
func (s *Session) Timeline() []models.MessageResponse {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.MessageResponse, len(s.timeline))
	copy(out, s.timeline)
	return out
}

// AppendLocal records an optimistic entry for a message the viewer just
// submitted, stamped with a provisional id and the local clock. The
// returned id is handed to Reconcile once the send request completes.
func (s *Session) AppendLocal(body, senderName string) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := models.MessageResponse{
		ID:         uuid.New(),
		SenderID:   s.viewerID,
		SenderName: senderName,
		Body:       body,
		CreatedAt:  time.Now(),
	}
	switch s.selection.Kind {
	case SelectionDirect:
		entry.ReceiverID = s.selection.PeerID
	case SelectionGroup:
		entry.GroupID = s.selection.PeerID
	}

	s.timeline = append(s.timeline, entry)
	s.seen[entry.ID] = true
	s.pending[entry.ID] = true
	return entry.ID
}

// Reconcile swaps an optimistic entry for the server-confirmed record:
// authoritative id and timestamp. If the broadcast echo got here first
// the provisional entry is already gone and the confirmed record is
// already in place, so this is a no-op.
func (s *Session) Reconcile(provisionalID uuid.UUID, confirmed models.MessageResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.pending[provisionalID] {
		return
	}
	delete(s.pending, provisionalID)

	if s.seen[confirmed.ID] {
		// echo beat the response; drop the provisional duplicate
		s.removeLocked(provisionalID)
		return
	}

	for i := range s.timeline {
		if s.timeline[i].ID == provisionalID {
			s.timeline[i] = confirmed
			break
		}
	}
	delete(s.seen, provisionalID)
	s.seen[confirmed.ID] = true

	s.bumpSummaryLocked(messageToEvent(confirmed))
}

// DropLocal removes an optimistic entry after a failed send.
func (s *Session) DropLocal(provisionalID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.pending[provisionalID] {
		return
	}
	delete(s.pending, provisionalID)
	s.removeLocked(provisionalID)
}

// HandleEvent merges one broadcast into the session. Every session
// receives every event, so the first step is deciding whether it
// belongs to the open conversation at all; either way the directory
// summary for its peer is updated.
func (s *Session) HandleEvent(ev models.NewMessageEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.eventIsOpenLocked(ev) {
		s.appendEventLocked(ev)
	}
	s.bumpSummaryLocked(ev)
}

// eventIsOpenLocked reports whether the event belongs to the currently
// open conversation.
func (s *Session) eventIsOpenLocked(ev models.NewMessageEvent) bool {
	switch s.selection.Kind {
	case SelectionDirect:
		if ev.Kind != models.MessageKindDirect {
			return false
		}
		peer := s.selection.PeerID
		return (ev.SenderID == s.viewerID && ev.ReceiverID == peer) ||
			(ev.SenderID == peer && ev.ReceiverID == s.viewerID)
	case SelectionGroup:
		return ev.Kind == models.MessageKindGroup && ev.GroupID == s.selection.PeerID
	default:
		return false
	}
}

func (s *Session) appendEventLocked(ev models.NewMessageEvent) {
	if s.seen[ev.ID] {
		return
	}

	// An echo of the viewer's own send confirms the oldest matching
	// optimistic entry instead of appending a second copy.
	if ev.SenderID == s.viewerID {
		for i := range s.timeline {
			id := s.timeline[i].ID
			if s.pending[id] && s.timeline[i].Body == ev.Body {
				s.timeline[i] = eventToMessage(ev)
				delete(s.pending, id)
				delete(s.seen, id)
				s.seen[ev.ID] = true
				return
			}
		}
	}

	s.timeline = append(s.timeline, eventToMessage(ev))
	s.seen[ev.ID] = true
}

// bumpSummaryLocked updates recency for the event's peer and, for a
// direct message landing outside the open conversation, its unread
// badge.
func (s *Session) bumpSummaryLocked(ev models.NewMessageEvent) {
	var key peerKey
	switch ev.Kind {
	case models.MessageKindDirect:
		peerID := ev.SenderID
		if ev.SenderID == s.viewerID {
			peerID = ev.ReceiverID
		}
		key = peerKey{models.PeerKindUser, peerID}
	case models.MessageKindGroup:
		key = peerKey{models.PeerKindGroup, ev.GroupID}
	default:
		return
	}

	sum, ok := s.summaries[key]
	if !ok {
		sum = &models.PeerSummary{
			Kind:   key.kind,
			PeerID: key.id,
			Name:   ev.SenderName,
		}
		s.summaries[key] = sum
	}
	if ev.CreatedAt.After(sum.LastMessageAt) {
		sum.LastMessageAt = ev.CreatedAt
	}

	if ev.Kind == models.MessageKindDirect && ev.ReceiverID == s.viewerID {
		open := s.selection.Kind == SelectionDirect && s.selection.PeerID == ev.SenderID
		if !open {
			sum.UnreadCount++
		}
	}
}

// Peers returns the directory ordered most-recent first. The sort is
// stable and peers that have never exchanged a message keep the zero
// time, which places them at the bottom.
func (s *Session) Peers() []models.PeerSummary {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.PeerSummary, 0, len(s.summaries))
	for _, sum := range s.summaries {
		out = append(out, *sum)
	}
	// map iteration is random; fix a base order before the stable sort
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		return out[i].PeerID < out[j].PeerID
	})
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LastMessageAt.After(out[j].LastMessageAt)
	})
	return out
}

func (s *Session) removeLocked(id uuid.UUID) {
	for i := range s.timeline {
		if s.timeline[i].ID == id {
			s.timeline = append(s.timeline[:i], s.timeline[i+1:]...)
			break
		}
	}
	delete(s.seen, id)
}

func eventToMessage(ev models.NewMessageEvent) models.MessageResponse {
	return models.MessageResponse{
		ID:         ev.ID,
		SenderID:   ev.SenderID,
		SenderName: ev.SenderName,
		ReceiverID: ev.ReceiverID,
		GroupID:    ev.GroupID,
		Body:       ev.Body,
		CreatedAt:  ev.CreatedAt,
	}
}

func messageToEvent(msg models.MessageResponse) models.NewMessageEvent {
	kind := models.MessageKindDirect
	if msg.GroupID != 0 {
		kind = models.MessageKindGroup
	}
	return models.NewMessageEvent{
		ID:         msg.ID,
		Kind:       kind,
		SenderID:   msg.SenderID,
		SenderName: msg.SenderName,
		ReceiverID: msg.ReceiverID,
		GroupID:    msg.GroupID,
		Body:       msg.Body,
		CreatedAt:  msg.CreatedAt,
	}
}
