package store

import (
	"strings"

	"github.com/google/uuid"

	"chatdeck/pkg/model"
)

// BotReplyText is the simulated bot response appended after the reply
// delay elapses.
const BotReplyText = "This is a bot response."

// ReplyRequest correlates a scheduled bot reply with the chat that asked
// for it. The id makes delivery idempotent and cancellable: a reply is
// appended only if its id is still the one registered for the chat.
type ReplyRequest struct {
	ID     string
	ChatID int
}

// SendMessage appends a user message to the selected chat and registers a
// bot reply. If this is the chat's first message the title becomes the
// first three words of the text. Returns the reply request the caller
// should schedule, and false if nothing was sent (no selection or blank
// text).
func (s *Store) SendMessage(text string) (ReplyRequest, bool) {
	text = strings.TrimSpace(text)
	if text == "" || s.selectedChatID == 0 {
		return ReplyRequest{}, false
	}
	c := s.chatByID(s.selectedChatID)
	if c == nil {
		return ReplyRequest{}, false
	}

	if c.IsEmpty() {
		c.Title = model.DeriveTitle(text)
	}
	c.Messages = append(c.Messages, model.Message{Text: text, Sender: model.SenderUser})

	req := ReplyRequest{ID: uuid.NewString(), ChatID: c.ID}
	s.pending[c.ID] = req.ID
	return req, true
}

// RegisterReply registers a fresh reply request for a chat without
// appending a user message. Used by the edit-and-regenerate flow after
// truncating the transcript.
func (s *Store) RegisterReply(chatID int) (ReplyRequest, bool) {
	if s.chatByID(chatID) == nil {
		return ReplyRequest{}, false
	}
	req := ReplyRequest{ID: uuid.NewString(), ChatID: chatID}
	s.pending[chatID] = req.ID
	return req, true
}

// DeliverReply appends the bot response for a previously registered
// request. Stale requests — the chat was deleted, or a newer message
// superseded this one — are dropped silently.
func (s *Store) DeliverReply(req ReplyRequest) bool {
	if s.pending[req.ChatID] != req.ID {
		return false
	}
	c := s.chatByID(req.ChatID)
	if c == nil {
		delete(s.pending, req.ChatID)
		return false
	}
	c.Messages = append(c.Messages, model.Message{Text: BotReplyText, Sender: model.SenderBot})
	delete(s.pending, req.ChatID)
	return true
}

// HasPendingReply reports whether a bot reply is still in flight for the
// chat. The UI uses this to show a typing indicator.
func (s *Store) HasPendingReply(chatID int) bool {
	_, ok := s.pending[chatID]
	return ok
}
