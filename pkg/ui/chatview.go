// chatview.go - Conversation pane: header, glamour-rendered transcript,
// typing indicator, and the input line.
package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"chatdeck/pkg/model"
)

// refreshChatViewport re-renders the selected chat's transcript into the
// viewport and scrolls to the newest message.
func (m *Model) refreshChatViewport() {
	if m.chatVP.Width <= 0 {
		return
	}
	c, ok := m.store.SelectedChat()
	if !ok {
		m.chatVP.SetContent(m.theme.Muted.Render("No chat selected. Press n to start one."))
		return
	}
	m.chatVP.SetContent(m.renderTranscript(c))
	m.chatVP.GotoBottom()
}

func (m Model) renderTranscript(c model.Chat) string {
	if len(c.Messages) == 0 {
		return m.theme.Muted.Render("No messages yet. Say something below.")
	}

	var sb strings.Builder
	for i, msg := range c.Messages {
		label := m.theme.UserLabel.Render("You")
		if msg.Sender == model.SenderBot {
			label = m.theme.BotLabel.Render("Bot")
		}
		sb.WriteString(label)
		sb.WriteString("\n")
		sb.WriteString(m.renderMarkdown(msg.Text))
		if i < len(c.Messages)-1 {
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

func (m Model) renderMarkdown(text string) string {
	if m.mdRenderer == nil {
		return text + "\n"
	}
	out, err := m.mdRenderer.Render(text)
	if err != nil {
		return text + "\n"
	}
	return strings.TrimRight(out, "\n") + "\n"
}

func (m Model) renderChatWindow(width, height int) string {
	style := m.theme.PanelStyle()
	if m.focused == focusInput {
		style = m.theme.FocusedPanelStyle()
	}

	header := m.theme.Muted.Render("No chat selected")
	c, ok := m.store.SelectedChat()
	if ok {
		title := c.Title
		if title == "" {
			title = "Untitled"
		}
		header = m.theme.Title.Render(truncate(title, width-8))
	}

	typing := ""
	if ok && m.store.HasPendingReply(c.ID) {
		typing = m.theme.Muted.Italic(true).Render("Bot is typing…")
	}

	parts := []string{header, "", m.chatVP.View(), typing, m.input.View()}
	content := lipgloss.JoinVertical(lipgloss.Left, parts...)
	return style.Width(width - 2).Height(height - 2).Render(content)
}
