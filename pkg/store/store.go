// Package store is the single source of truth for chats, folders,
// selection, and view flags. All mutations run synchronously; consumers
// only ever see completed state transitions.
package store

import (
	"errors"
	"sort"
	"strings"

	"chatdeck/pkg/model"
)

// Validation failures are returned as typed errors so the UI can decide
// how to surface them. The store never blocks or prompts.
var (
	ErrEmptyFolderName   = errors.New("folder name cannot be empty")
	ErrFolderNameTooLong = errors.New("folder name exceeds maximum length")
	ErrOwnParent         = errors.New("folder cannot be its own parent")
	ErrHasSubfolders     = errors.New("folder contains subfolders")
	ErrRootImmutable     = errors.New("root folder cannot be renamed or deleted")
	ErrDuplicateFolder   = errors.New("folder id already exists")
	ErrUnknownFolder     = errors.New("folder not found")
)

// Store owns all application state. It is not safe for concurrent use;
// the UI event loop serializes all mutations.
type Store struct {
	chats   []model.Chat
	folders []model.Folder

	selectedChatID int // 0 = no selection
	unfiled        []int

	sidebarOpen bool
	folderView  bool

	// In-flight bot replies keyed by chat id. A reply is delivered only
	// if its correlation id is still the registered one for that chat.
	pending map[int]string
}

// State is the loadable/dumpable portion of the store.
type State struct {
	Chats   []model.Chat   `json:"chats"`
	Folders []model.Folder `json:"folders"`
}

// New creates a store seeded with the default welcome state: two starter
// chats and the root folder.
func New() *Store {
	return NewFromState(State{
		Chats: []model.Chat{
			{ID: 1, Title: "Welcome Chat", Messages: []model.Message{
				{Text: "Hello!", Sender: model.SenderBot},
			}},
			{ID: 2, Title: "Project Discussion", Messages: []model.Message{
				{Text: "Let's discuss the project.", Sender: model.SenderBot},
			}},
		},
		Folders: []model.Folder{
			{ID: model.RootFolderID, Name: "Root", ParentID: nil, ChatIDs: []int{}, IsExpanded: true},
		},
	})
}

// NewFromState creates a store from a previously dumped or seeded state.
func NewFromState(st State) *Store {
	s := &Store{
		chats:       st.Chats,
		folders:     st.Folders,
		sidebarOpen: true,
		pending:     make(map[int]string),
	}
	if len(s.chats) > 0 {
		s.selectedChatID = s.chats[0].ID
	}
	s.recomputeUnfiled()
	return s
}

// Dump returns a deep copy of the loadable state.
func (s *Store) Dump() State {
	return State{Chats: s.Chats(), Folders: s.Folders()}
}

// Chats returns a deep copy of all chats in display order.
func (s *Store) Chats() []model.Chat {
	out := make([]model.Chat, len(s.chats))
	for i, c := range s.chats {
		out[i] = c.Clone()
	}
	return out
}

// Folders returns a deep copy of all folders.
func (s *Store) Folders() []model.Folder {
	out := make([]model.Folder, len(s.folders))
	for i, f := range s.folders {
		out[i] = f.Clone()
	}
	return out
}

// SelectedChatID returns the selected chat id, or 0 if none.
func (s *Store) SelectedChatID() int {
	return s.selectedChatID
}

// SelectedChat returns a copy of the selected chat.
func (s *Store) SelectedChat() (model.Chat, bool) {
	if c := s.chatByID(s.selectedChatID); c != nil {
		return c.Clone(), true
	}
	return model.Chat{}, false
}

// ChatByID returns a copy of the chat with the given id.
func (s *Store) ChatByID(id int) (model.Chat, bool) {
	if c := s.chatByID(id); c != nil {
		return c.Clone(), true
	}
	return model.Chat{}, false
}

// FolderByID returns a copy of the folder with the given id.
func (s *Store) FolderByID(id int) (model.Folder, bool) {
	if f := s.folderByID(id); f != nil {
		return f.Clone(), true
	}
	return model.Folder{}, false
}

func (s *Store) chatByID(id int) *model.Chat {
	for i := range s.chats {
		if s.chats[i].ID == id {
			return &s.chats[i]
		}
	}
	return nil
}

func (s *Store) folderByID(id int) *model.Folder {
	for i := range s.folders {
		if s.folders[i].ID == id {
			return &s.folders[i]
		}
	}
	return nil
}

// NextChatID returns the id the next new chat would get: max existing + 1.
func (s *Store) NextChatID() int {
	max := 0
	for _, c := range s.chats {
		if c.ID > max {
			max = c.ID
		}
	}
	return max + 1
}

// NextFolderID returns the id the next new folder would get.
func (s *Store) NextFolderID() int {
	max := 0
	for _, f := range s.folders {
		if f.ID > max {
			max = f.ID
		}
	}
	return max + 1
}

// AddChat creates a new empty chat, prepends it, and selects it. If an
// empty chat already exists it is promoted to the front and reselected
// instead of consuming a new id. Returns the id of the resulting chat.
func (s *Store) AddChat() int {
	for i := range s.chats {
		if s.chats[i].IsEmpty() {
			c := s.chats[i]
			s.chats = append(s.chats[:i], s.chats[i+1:]...)
			s.chats = append([]model.Chat{c}, s.chats...)
			s.selectedChatID = c.ID
			s.recomputeUnfiled()
			return c.ID
		}
	}

	id := s.NextChatID()
	chat := model.Chat{ID: id, Title: "New Chat", Messages: []model.Message{}}
	s.chats = append([]model.Chat{chat}, s.chats...)
	s.selectedChatID = id
	s.recomputeUnfiled()
	return id
}

// EditChat renames a chat. Unknown ids are a silent no-op. Callers are
// expected to trim and reject empty titles before calling.
func (s *Store) EditChat(id int, title string) {
	if c := s.chatByID(id); c != nil {
		c.Title = title
	}
}

// DeleteChat removes a chat, strips its id from every folder's membership
// and from the unfiled set, drops any pending bot reply, and reselects
// the first remaining chat (or none).
func (s *Store) DeleteChat(id int) {
	idx := -1
	for i := range s.chats {
		if s.chats[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}
	s.chats = append(s.chats[:idx], s.chats[idx+1:]...)

	for i := range s.folders {
		s.folders[i].ChatIDs = removeInt(s.folders[i].ChatIDs, id)
	}

	if s.selectedChatID == id {
		if len(s.chats) > 0 {
			s.selectedChatID = s.chats[0].ID
		} else {
			s.selectedChatID = 0
		}
	}

	// Deleting the chat cancels its scheduled reply: late deliveries
	// with a stale correlation id are dropped silently.
	delete(s.pending, id)

	s.recomputeUnfiled()
}

// SelectChat sets the selected chat id. Existence is not checked; the UI
// only offers valid ids.
func (s *Store) SelectChat(id int) {
	s.selectedChatID = id
}

// EditMessage replaces the text of the selected chat's message at the
// given index. Out-of-range indexes are a no-op.
func (s *Store) EditMessage(index int, text string) bool {
	c := s.chatByID(s.selectedChatID)
	if c == nil || index < 0 || index >= len(c.Messages) {
		return false
	}
	c.Messages[index].Text = text
	return true
}

// TruncateAfter drops every message of the selected chat from index
// onward, keeping messages[:index]. Used by the edit-and-regenerate flow.
func (s *Store) TruncateAfter(index int) {
	c := s.chatByID(s.selectedChatID)
	if c == nil || index < 0 || index > len(c.Messages) {
		return
	}
	c.Messages = c.Messages[:index]
}

// AddFolder validates and appends a folder. The caller supplies the id
// (normally NextFolderID). Pre-populated ChatIDs go through the same
// exclusivity rules as a move: duplicates collapse and the listed chats
// are stripped from every other folder.
func (s *Store) AddFolder(f model.Folder) error {
	f.Name = strings.TrimSpace(f.Name)
	if f.Name == "" {
		return ErrEmptyFolderName
	}
	if len([]rune(f.Name)) > model.MaxFolderNameLen {
		return ErrFolderNameTooLong
	}
	if f.ParentID != nil && *f.ParentID == f.ID {
		return ErrOwnParent
	}
	if s.folderByID(f.ID) != nil {
		return ErrDuplicateFolder
	}
	f.ChatIDs = dedupeInts(f.ChatIDs)
	s.folders = append(s.folders, f)
	for _, id := range f.ChatIDs {
		for i := range s.folders {
			if s.folders[i].ID != f.ID {
				s.folders[i].ChatIDs = removeInt(s.folders[i].ChatIDs, id)
			}
		}
	}
	s.recomputeUnfiled()
	return nil
}

// UpdateFolder replaces the folder with the same id. The root folder's
// name and parent are immutable.
func (s *Store) UpdateFolder(f model.Folder) error {
	existing := s.folderByID(f.ID)
	if existing == nil {
		return ErrUnknownFolder
	}
	f.Name = strings.TrimSpace(f.Name)
	if f.Name == "" {
		return ErrEmptyFolderName
	}
	if len([]rune(f.Name)) > model.MaxFolderNameLen {
		return ErrFolderNameTooLong
	}
	if f.ParentID != nil && *f.ParentID == f.ID {
		return ErrOwnParent
	}
	if f.ID == model.RootFolderID {
		if f.Name != existing.Name || !parentEqual(f.ParentID, existing.ParentID) {
			return ErrRootImmutable
		}
	}
	f.ChatIDs = dedupeInts(f.ChatIDs)
	*existing = f.Clone()
	for _, id := range f.ChatIDs {
		for i := range s.folders {
			if s.folders[i].ID != f.ID {
				s.folders[i].ChatIDs = removeInt(s.folders[i].ChatIDs, id)
			}
		}
	}
	s.recomputeUnfiled()
	return nil
}

// DeleteFolder removes a folder. Folders with subfolders cannot be
// deleted, and the root folder is permanent. Chats that were members
// return to the unfiled set.
func (s *Store) DeleteFolder(id int) error {
	if id == model.RootFolderID {
		return ErrRootImmutable
	}
	idx := -1
	for i := range s.folders {
		if s.folders[i].ID == id {
			idx = i
		}
	}
	if idx < 0 {
		return ErrUnknownFolder
	}
	for i := range s.folders {
		if s.folders[i].ParentID != nil && *s.folders[i].ParentID == id {
			return ErrHasSubfolders
		}
	}
	s.folders = append(s.folders[:idx], s.folders[idx+1:]...)
	s.recomputeUnfiled()
	return nil
}

// DescendantFolderIDs returns every folder reachable from id by following
// ParentID links downward. The traversal carries a visited set so cyclic
// parent data terminates.
func (s *Store) DescendantFolderIDs(id int) []int {
	visited := map[int]bool{id: true}
	var out []int
	var walk func(parent int)
	walk = func(parent int) {
		for i := range s.folders {
			f := &s.folders[i]
			if f.ParentID == nil || *f.ParentID != parent {
				continue
			}
			if visited[f.ID] {
				continue
			}
			visited[f.ID] = true
			out = append(out, f.ID)
			walk(f.ID)
		}
	}
	walk(id)
	return out
}

// ToggleFolderExpansion sets IsExpanded on the folder and on every
// transitive descendant. Collapsing a folder collapses its whole subtree;
// expanding likewise cascades.
func (s *Store) ToggleFolderExpansion(id int, expanded bool) {
	targets := map[int]bool{id: true}
	for _, d := range s.DescendantFolderIDs(id) {
		targets[d] = true
	}
	for i := range s.folders {
		if targets[s.folders[i].ID] {
			s.folders[i].IsExpanded = expanded
		}
	}
}

// MoveChatToFolder places a chat into a folder, stripping it from every
// other folder so membership stays exclusive, and expands the target so
// the drop is visible. The move is atomic: no intermediate state is
// observable.
func (s *Store) MoveChatToFolder(chatID, folderID int) error {
	target := s.folderByID(folderID)
	if target == nil {
		return ErrUnknownFolder
	}
	for i := range s.folders {
		f := &s.folders[i]
		if f.ID == folderID {
			if !f.ContainsChat(chatID) {
				f.ChatIDs = append(f.ChatIDs, chatID)
			}
			f.IsExpanded = true
		} else {
			f.ChatIDs = removeInt(f.ChatIDs, chatID)
		}
	}
	s.recomputeUnfiled()
	return nil
}

// MoveChatToUnfiled removes a chat from whatever folder holds it,
// returning it to the unfiled list.
func (s *Store) MoveChatToUnfiled(chatID int) {
	for i := range s.folders {
		s.folders[i].ChatIDs = removeInt(s.folders[i].ChatIDs, chatID)
	}
	s.recomputeUnfiled()
}

// UnfiledChats returns the chat ids not present in any folder, in chat
// display order.
func (s *Store) UnfiledChats() []int {
	out := make([]int, len(s.unfiled))
	copy(out, s.unfiled)
	return out
}

// recomputeUnfiled is the single derivation of the unfiled set: the full
// chat id list minus the union of all folder memberships. Every operation
// that changes chats or folder membership calls it.
func (s *Store) recomputeUnfiled() {
	filed := make(map[int]bool)
	for i := range s.folders {
		for _, id := range s.folders[i].ChatIDs {
			filed[id] = true
		}
	}
	s.unfiled = s.unfiled[:0]
	for _, c := range s.chats {
		if !filed[c.ID] {
			s.unfiled = append(s.unfiled, c.ID)
		}
	}
}

// SidebarOpen reports whether the sidebar is visible.
func (s *Store) SidebarOpen() bool { return s.sidebarOpen }

// ToggleSidebar flips sidebar visibility.
func (s *Store) ToggleSidebar() { s.sidebarOpen = !s.sidebarOpen }

// FolderView reports whether the folder tree view is active.
func (s *Store) FolderView() bool { return s.folderView }

// ToggleFolderView flips between the chat view and the folder tree view.
func (s *Store) ToggleFolderView() { s.folderView = !s.folderView }

// FoldersSortedByName returns folder copies sorted case-insensitively by
// name, the display order used by the tree.
func (s *Store) FoldersSortedByName() []model.Folder {
	out := s.Folders()
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out
}

func dedupeInts(ids []int) []int {
	out := make([]int, 0, len(ids))
	seen := make(map[int]bool, len(ids))
	for _, v := range ids {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

func removeInt(ids []int, id int) []int {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func parentEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
