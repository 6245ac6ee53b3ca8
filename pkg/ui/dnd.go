// dnd.go - Drag-and-drop coordinator: translates a completed (or
// cancelled) drag gesture into a single atomic store mutation.
package ui

import (
	"fmt"
	"strconv"
	"strings"

	"chatdeck/pkg/store"
)

// UnfiledContainerID identifies the sidebar's unfiled chat list as a drag
// container. Folders use "folder-<id>".
const UnfiledContainerID = "sidebar-chats"

const folderContainerPrefix = "folder-"

// FolderContainerID returns the container id for a folder's chat list.
func FolderContainerID(id int) string {
	return fmt.Sprintf("%s%d", folderContainerPrefix, id)
}

// ParseContainerID decodes a container id. isUnfiled is true for the
// sidebar list; otherwise folderID holds the decoded folder id. ok is
// false for anything that is neither.
func ParseContainerID(s string) (folderID int, isUnfiled bool, ok bool) {
	if s == UnfiledContainerID {
		return 0, true, true
	}
	if rest, found := strings.CutPrefix(s, folderContainerPrefix); found {
		id, err := strconv.Atoi(rest)
		if err == nil && id > 0 {
			return id, false, true
		}
	}
	return 0, false, false
}

// DropEvent is the terminal event of a drag gesture. An empty Destination
// means the item was dropped outside any droppable and the drag is
// cancelled.
type DropEvent struct {
	Source      string
	Destination string
	ChatID      int
}

// DragCoordinator applies drop events to the store. Each event resolves
// to at most one mutation; no intermediate state is observable between
// "removed from source" and "added to destination".
type DragCoordinator struct {
	store *store.Store
}

// NewDragCoordinator creates a coordinator bound to a store.
func NewDragCoordinator(s *store.Store) *DragCoordinator {
	return &DragCoordinator{store: s}
}

// ResolveDrop applies the transition table. Returns true if state
// changed, false for no-ops (cancelled drop, same container), and an
// error for malformed container ids or unknown destination folders.
func (c *DragCoordinator) ResolveDrop(ev DropEvent) (bool, error) {
	if ev.Destination == "" {
		return false, nil // cancelled
	}

	if _, _, ok := ParseContainerID(ev.Source); !ok {
		return false, fmt.Errorf("unknown source container %q", ev.Source)
	}
	destFolder, destUnfiled, ok := ParseContainerID(ev.Destination)
	if !ok {
		return false, fmt.Errorf("unknown destination container %q", ev.Destination)
	}

	if ev.Source == ev.Destination {
		return false, nil
	}

	if destUnfiled {
		c.store.MoveChatToUnfiled(ev.ChatID)
		return true, nil
	}
	if err := c.store.MoveChatToFolder(ev.ChatID, destFolder); err != nil {
		return false, err
	}
	return true, nil
}
