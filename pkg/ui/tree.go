// tree.go - Folder tree reconciler: turns the flat folder table plus the
// chat list into the flattened rows the folder view renders.
package ui

import (
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/mattn/go-runewidth"

	"chatdeck/pkg/model"
)

// RowKind discriminates the flattened row variants.
type RowKind int

const (
	RowUnfiledHeader RowKind = iota // the "Unfiled" section header
	RowFolder
	RowChat
)

// Row is one visible line of the folder view. Container is the
// drag-and-drop container the row belongs to (or is, for folder and
// header rows).
type Row struct {
	Kind      RowKind
	Folder    model.Folder // valid for RowFolder
	Chat      model.Chat   // valid for RowChat
	Container string
	Depth     int
	HasKids   bool // folder rows: renders an expand indicator
}

// FolderTreeModel holds the reconciled, flattened tree plus cursor and
// scroll state. It owns no entity state: Build derives everything from
// store snapshots.
type FolderTreeModel struct {
	rows   []Row
	cursor int
	offset int
	query  string

	theme  Theme
	width  int
	height int

	built bool
}

// NewFolderTreeModel creates an empty tree model.
func NewFolderTreeModel(theme Theme) FolderTreeModel {
	return FolderTreeModel{theme: theme}
}

// SetTheme swaps the palette without rebuilding.
func (t *FolderTreeModel) SetTheme(theme Theme) {
	t.theme = theme
}

// SetSize updates the available dimensions.
func (t *FolderTreeModel) SetSize(width, height int) {
	t.width = width
	t.height = height
}

// SetQuery sets the folder name filter. Empty or whitespace-only matches
// everything; otherwise a case-insensitive substring match.
func (t *FolderTreeModel) SetQuery(q string) {
	t.query = q
}

// Query returns the current filter.
func (t *FolderTreeModel) Query() string {
	return t.query
}

func (t *FolderTreeModel) matches(f model.Folder) bool {
	q := strings.TrimSpace(t.query)
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(f.Name), strings.ToLower(q))
}

// Build reconciles the tree: an Unfiled section first, then root folders
// (ParentID == nil) sorted alphabetically, each expanded folder listing
// its chats and then its subfolders. The traversal carries a visited set
// and refuses to re-enter a folder id, so cyclic ParentID data renders
// without looping; the offending branch is logged and skipped.
//
// With a non-empty query the hierarchy is bypassed: matching folders are
// listed flat, so matches under collapsed or non-matching parents still
// show up.
func (t *FolderTreeModel) Build(folders []model.Folder, chats []model.Chat, unfiled []int) {
	t.rows = t.rows[:0]

	chatByID := make(map[int]model.Chat, len(chats))
	for _, c := range chats {
		chatByID[c.ID] = c
	}

	t.rows = append(t.rows, Row{Kind: RowUnfiledHeader, Container: UnfiledContainerID})
	for _, id := range unfiled {
		if c, ok := chatByID[id]; ok {
			t.rows = append(t.rows, Row{Kind: RowChat, Chat: c, Container: UnfiledContainerID, Depth: 1})
		}
	}

	if strings.TrimSpace(t.query) != "" {
		t.appendMatches(folders, chatByID)
	} else {
		visited := make(map[int]bool)
		t.appendChildren(folders, chatByID, nil, 0, visited)
	}

	if t.cursor >= len(t.rows) {
		t.cursor = len(t.rows) - 1
	}
	if t.cursor < 0 {
		t.cursor = 0
	}
	t.built = true
}

// appendChildren appends the folders whose ParentID matches parent, in
// alphabetical order, recursing into expanded ones.
func (t *FolderTreeModel) appendChildren(folders []model.Folder, chatByID map[int]model.Chat, parent *int, depth int, visited map[int]bool) {
	var candidates []model.Folder
	for _, f := range folders {
		if sameParent(f.ParentID, parent) {
			candidates = append(candidates, f)
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return strings.ToLower(candidates[i].Name) < strings.ToLower(candidates[j].Name)
	})

	for _, f := range candidates {
		if visited[f.ID] {
			log.Printf("folder tree: cyclic reference at folder %d, skipping branch", f.ID)
			continue
		}
		visited[f.ID] = true

		hasKids := len(f.ChatIDs) > 0
		if !hasKids {
			for _, other := range folders {
				if other.ParentID != nil && *other.ParentID == f.ID {
					hasKids = true
					break
				}
			}
		}
		t.rows = append(t.rows, Row{
			Kind:      RowFolder,
			Folder:    f,
			Container: FolderContainerID(f.ID),
			Depth:     depth,
			HasKids:   hasKids,
		})

		if f.IsExpanded {
			for _, id := range f.ChatIDs {
				if c, ok := chatByID[id]; ok {
					t.rows = append(t.rows, Row{
						Kind:      RowChat,
						Chat:      c,
						Container: FolderContainerID(f.ID),
						Depth:     depth + 1,
					})
				}
			}
			t.appendChildren(folders, chatByID, &f.ID, depth+1, visited)
		}
	}
}

// appendMatches lists every folder whose name matches the query, flat and
// alphabetical, with member chats under expanded ones.
func (t *FolderTreeModel) appendMatches(folders []model.Folder, chatByID map[int]model.Chat) {
	var candidates []model.Folder
	for _, f := range folders {
		if t.matches(f) {
			candidates = append(candidates, f)
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return strings.ToLower(candidates[i].Name) < strings.ToLower(candidates[j].Name)
	})

	for _, f := range candidates {
		t.rows = append(t.rows, Row{
			Kind:      RowFolder,
			Folder:    f,
			Container: FolderContainerID(f.ID),
			HasKids:   len(f.ChatIDs) > 0,
		})
		if !f.IsExpanded {
			continue
		}
		for _, id := range f.ChatIDs {
			if c, ok := chatByID[id]; ok {
				t.rows = append(t.rows, Row{
					Kind:      RowChat,
					Chat:      c,
					Container: FolderContainerID(f.ID),
					Depth:     1,
				})
			}
		}
	}
}

func sameParent(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// IsBuilt returns whether Build has run.
func (t *FolderTreeModel) IsBuilt() bool { return t.built }

// RowCount returns the number of visible rows.
func (t *FolderTreeModel) RowCount() int { return len(t.rows) }

// Rows returns the flattened rows, for rendering and tests.
func (t *FolderTreeModel) Rows() []Row { return t.rows }

// SelectedRow returns the row under the cursor.
func (t *FolderTreeModel) SelectedRow() (Row, bool) {
	if t.cursor >= 0 && t.cursor < len(t.rows) {
		return t.rows[t.cursor], true
	}
	return Row{}, false
}

// MoveUp moves the cursor up one row.
func (t *FolderTreeModel) MoveUp() {
	if t.cursor > 0 {
		t.cursor--
	}
	t.scrollToCursor()
}

// MoveDown moves the cursor down one row.
func (t *FolderTreeModel) MoveDown() {
	if t.cursor < len(t.rows)-1 {
		t.cursor++
	}
	t.scrollToCursor()
}

// JumpToTop moves the cursor to the first row.
func (t *FolderTreeModel) JumpToTop() {
	t.cursor = 0
	t.scrollToCursor()
}

// JumpToBottom moves the cursor to the last row.
func (t *FolderTreeModel) JumpToBottom() {
	if len(t.rows) > 0 {
		t.cursor = len(t.rows) - 1
	}
	t.scrollToCursor()
}

// SelectFolder moves the cursor to the given folder's row. Returns true
// if found. Useful for keeping the cursor stable across rebuilds.
func (t *FolderTreeModel) SelectFolder(id int) bool {
	for i, r := range t.rows {
		if r.Kind == RowFolder && r.Folder.ID == id {
			t.cursor = i
			t.scrollToCursor()
			return true
		}
	}
	return false
}

// SelectChat moves the cursor to the first row showing the given chat.
func (t *FolderTreeModel) SelectChat(id int) bool {
	for i, r := range t.rows {
		if r.Kind == RowChat && r.Chat.ID == id {
			t.cursor = i
			t.scrollToCursor()
			return true
		}
	}
	return false
}

func (t *FolderTreeModel) scrollToCursor() {
	if t.height <= 0 {
		return
	}
	if t.cursor < t.offset {
		t.offset = t.cursor
	}
	if t.cursor >= t.offset+t.height {
		t.offset = t.cursor - t.height + 1
	}
	if t.offset < 0 {
		t.offset = 0
	}
}

// View renders the visible rows. grabbedChatID marks the chat currently
// held by a drag gesture, 0 for none.
func (t *FolderTreeModel) View(grabbedChatID int) string {
	if len(t.rows) == 0 {
		return t.theme.Muted.Render("No folders yet. Press a to create one.")
	}

	start, end := t.visibleRange()
	var sb strings.Builder
	for i := start; i < end; i++ {
		line := t.renderRow(t.rows[i], grabbedChatID)
		if i == t.cursor {
			line = t.theme.Selected.Render(line)
		}
		sb.WriteString(line)
		if i < end-1 {
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

func (t *FolderTreeModel) visibleRange() (int, int) {
	if t.height <= 0 || len(t.rows) <= t.height {
		return 0, len(t.rows)
	}
	start := t.offset
	end := start + t.height
	if end > len(t.rows) {
		end = len(t.rows)
		start = end - t.height
		if start < 0 {
			start = 0
		}
	}
	return start, end
}

func (t *FolderTreeModel) renderRow(r Row, grabbedChatID int) string {
	indent := strings.Repeat("  ", r.Depth)

	switch r.Kind {
	case RowUnfiledHeader:
		return t.theme.Title.Render("Unfiled")

	case RowFolder:
		indicator := "•"
		if r.HasKids {
			if r.Folder.IsExpanded {
				indicator = "▾"
			} else {
				indicator = "▸"
			}
		}
		name := truncate(r.Folder.Name, t.maxTextWidth(r.Depth))
		count := ""
		if n := len(r.Folder.ChatIDs); n > 0 {
			count = t.theme.Muted.Render(fmt.Sprintf(" (%d)", n))
		}
		return indent +
			t.theme.Renderer.NewStyle().Foreground(t.theme.Secondary).Render(indicator) +
			" " + t.theme.Base.Render(name) + count

	case RowChat:
		marker := "·"
		style := t.theme.Base
		if r.Chat.ID == grabbedChatID {
			marker = "≡"
			style = t.theme.Renderer.NewStyle().Foreground(t.theme.Primary).Bold(true)
		}
		title := r.Chat.Title
		if title == "" {
			title = "Untitled"
		}
		title = truncate(title, t.maxTextWidth(r.Depth))
		msgs := t.theme.Muted.Render(fmt.Sprintf(" %d msgs", len(r.Chat.Messages)))
		return indent + marker + " " + style.Render(title) + msgs
	}
	return ""
}

func (t *FolderTreeModel) maxTextWidth(depth int) int {
	max := t.width - depth*2 - 12
	if max < 12 {
		max = 12
	}
	return max
}

// truncate shortens s to a display width of max, appending an ellipsis.
func truncate(s string, max int) string {
	if runewidth.StringWidth(s) <= max {
		return s
	}
	if max <= 1 {
		return "…"
	}
	return runewidth.Truncate(s, max-1, "") + "…"
}
