// sidebar.go - Chat list rendering. Only chats with at least one message
// show up; a brand-new empty chat lives in the main pane until its first
// message lands.
package ui

import (
	"strings"

	"chatdeck/pkg/model"
)

// visibleChats returns the chats the sidebar lists, in display order,
// filtered by the search box when the chat view is active.
func (m *Model) visibleChats() []model.Chat {
	q := ""
	if !m.store.FolderView() {
		q = strings.ToLower(strings.TrimSpace(m.search.Value()))
	}

	var out []model.Chat
	for _, c := range m.store.Chats() {
		if len(c.Messages) == 0 {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(c.Title), q) {
			continue
		}
		out = append(out, c)
	}
	return out
}

func (m Model) renderSidebar(width, height int) string {
	style := m.theme.PanelStyle()
	if m.focused == focusSidebar {
		style = m.theme.FocusedPanelStyle()
	}

	var lines []string
	lines = append(lines, m.theme.Title.Render("Chats"))
	if m.searching || strings.TrimSpace(m.search.Value()) != "" {
		lines = append(lines, m.search.View())
	}
	lines = append(lines, "")

	chats := m.visibleChats()
	if len(chats) == 0 {
		lines = append(lines, m.theme.Muted.Render("No chats yet"))
	}

	inner := width - 4
	for i, c := range chats {
		title := c.Title
		if title == "" {
			title = "Untitled"
		}
		title = truncate(title, inner-2)

		prefix := "  "
		if c.ID == m.store.SelectedChatID() {
			prefix = "▸ "
		}
		line := prefix + title

		styled := m.theme.Base.Render(line)
		if m.focused == focusSidebar && i == m.sidebarIndex {
			styled = m.theme.Selected.Render(line)
		}
		lines = append(lines, styled)
	}

	content := strings.Join(lines, "\n")
	return style.Width(width - 2).Height(height - 2).Render(content)
}
