package model

import (
	"fmt"
	"strings"
)

// Sender identifies the author of a message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// IsValid returns true if the sender is a recognized value
func (s Sender) IsValid() bool {
	return s == SenderUser || s == SenderBot
}

// Message is a single entry in a chat transcript
type Message struct {
	Text   string `json:"text"`
	Sender Sender `json:"sender"`
}

// Chat represents one conversation thread
type Chat struct {
	ID       int       `json:"id"`
	Title    string    `json:"title"`
	Messages []Message `json:"messages"`
}

// Clone creates a deep copy of the chat
func (c Chat) Clone() Chat {
	clone := c
	if c.Messages != nil {
		clone.Messages = make([]Message, len(c.Messages))
		copy(clone.Messages, c.Messages)
	}
	return clone
}

// IsEmpty returns true if the chat has no messages yet.
// Empty chats are reused by AddChat instead of allocating a new id.
func (c *Chat) IsEmpty() bool {
	return len(c.Messages) == 0
}

// Validate checks if the chat data is logically valid
func (c *Chat) Validate() error {
	if c.ID <= 0 {
		return fmt.Errorf("chat id must be positive, got %d", c.ID)
	}
	for i, m := range c.Messages {
		if !m.Sender.IsValid() {
			return fmt.Errorf("chat %d message %d: invalid sender %q", c.ID, i, m.Sender)
		}
	}
	return nil
}

// TitleWordCount is how many leading words of the first user message
// become the chat title.
const TitleWordCount = 3

// DeriveTitle builds a chat title from the first words of a message,
// joined by single spaces.
func DeriveTitle(text string) string {
	words := strings.Fields(text)
	if len(words) > TitleWordCount {
		words = words[:TitleWordCount]
	}
	return strings.Join(words, " ")
}

// MaxFolderNameLen is the upper bound on folder name length in runes.
const MaxFolderNameLen = 50

// RootFolderID is the fixed id of the root folder. The root folder
// cannot be renamed or deleted.
const RootFolderID = 1

// Folder is a named, nestable container grouping zero or more chats.
// Folders form a tree via ParentID; nil means root-level.
type Folder struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	ParentID   *int   `json:"parent_id"`
	ChatIDs    []int  `json:"chat_ids"`
	IsExpanded bool   `json:"is_expanded"`
}

// Clone creates a deep copy of the folder
func (f Folder) Clone() Folder {
	clone := f
	if f.ParentID != nil {
		v := *f.ParentID
		clone.ParentID = &v
	}
	if f.ChatIDs != nil {
		clone.ChatIDs = make([]int, len(f.ChatIDs))
		copy(clone.ChatIDs, f.ChatIDs)
	}
	return clone
}

// ContainsChat reports whether chatID is a member of this folder
func (f *Folder) ContainsChat(chatID int) bool {
	for _, id := range f.ChatIDs {
		if id == chatID {
			return true
		}
	}
	return false
}

// Validate checks if the folder data is logically valid
func (f *Folder) Validate() error {
	if f.ID <= 0 {
		return fmt.Errorf("folder id must be positive, got %d", f.ID)
	}
	name := strings.TrimSpace(f.Name)
	if name == "" {
		return fmt.Errorf("folder %d: name cannot be empty", f.ID)
	}
	if len([]rune(name)) > MaxFolderNameLen {
		return fmt.Errorf("folder %d: name exceeds %d characters", f.ID, MaxFolderNameLen)
	}
	if f.ParentID != nil && *f.ParentID == f.ID {
		return fmt.Errorf("folder %d cannot be its own parent", f.ID)
	}
	return nil
}

// IntPtr is a convenience helper for building ParentID values.
func IntPtr(v int) *int {
	return &v
}
