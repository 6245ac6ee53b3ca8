// forms.go - Modal dialogs (folder and chat naming, delete confirmation,
// message editing) built on huh forms.
package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"chatdeck/pkg/model"
)

type dialogKind int

const (
	dialogNone dialogKind = iota
	dialogAddFolder
	dialogRenameFolder
	dialogRenameChat
	dialogDeleteChat
	dialogDeleteFolder
	dialogEditMessage
)

// dialog is the active modal, if any. The value pointers are heap
// allocated because the form mutates through them while the Model is
// copied by value on every Update.
type dialog struct {
	kind    dialogKind
	form    *huh.Form
	text    *string
	confirm *bool

	targetID int  // chat or folder id the dialog acts on
	parentID *int // add folder: parent, nil for top level
	msgIndex int  // edit message: transcript index
}

func (d dialog) active() bool { return d.kind != dialogNone }

func (d dialog) view() string {
	if d.form == nil {
		return ""
	}
	return d.form.View()
}

func newTextDialog(kind dialogKind, title, placeholder, initial string, limit int) dialog {
	text := new(string)
	*text = initial

	input := huh.NewInput().
		Title(title).
		Placeholder(placeholder).
		Value(text)
	if limit > 0 {
		input = input.CharLimit(limit)
	}

	return dialog{
		kind: kind,
		form: huh.NewForm(huh.NewGroup(input)).WithShowHelp(true),
		text: text,
	}
}

func newConfirmDialog(kind dialogKind, title string) dialog {
	confirm := new(bool)
	form := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title(title).
			Affirmative("Delete").
			Negative("Cancel").
			Value(confirm),
	))
	return dialog{kind: kind, form: form, confirm: confirm}
}

func (m Model) openAddFolderDialog(parent *int) (tea.Model, tea.Cmd) {
	title := "New folder"
	if parent != nil {
		if p, ok := m.store.FolderByID(*parent); ok {
			title = fmt.Sprintf("New folder in %q", p.Name)
		}
	}
	d := newTextDialog(dialogAddFolder, title, "Folder name", "", model.MaxFolderNameLen)
	d.parentID = parent
	m.dialog = d
	return m, d.form.Init()
}

func (m Model) openRenameFolderDialog(f model.Folder) (tea.Model, tea.Cmd) {
	d := newTextDialog(dialogRenameFolder, "Rename folder", "Folder name", f.Name, model.MaxFolderNameLen)
	d.targetID = f.ID
	m.dialog = d
	return m, d.form.Init()
}

func (m Model) openRenameChatDialog(c model.Chat) (tea.Model, tea.Cmd) {
	d := newTextDialog(dialogRenameChat, "Rename chat", "Chat title", c.Title, 0)
	d.targetID = c.ID
	m.dialog = d
	return m, d.form.Init()
}

func (m Model) openDeleteChatDialog(c model.Chat) (tea.Model, tea.Cmd) {
	title := c.Title
	if title == "" {
		title = "Untitled"
	}
	d := newConfirmDialog(dialogDeleteChat, fmt.Sprintf("Delete chat %q?", title))
	d.targetID = c.ID
	m.dialog = d
	return m, d.form.Init()
}

func (m Model) openDeleteFolderDialog(f model.Folder) (tea.Model, tea.Cmd) {
	d := newConfirmDialog(dialogDeleteFolder, fmt.Sprintf("Delete folder %q? Its chats return to Unfiled.", f.Name))
	d.targetID = f.ID
	m.dialog = d
	return m, d.form.Init()
}

// beginEditLastMessage opens the edit dialog on the most recent user
// message of the selected chat. Completing it truncates everything after
// the edited message and regenerates the bot reply.
func (m Model) beginEditLastMessage() (tea.Model, tea.Cmd) {
	c, ok := m.store.SelectedChat()
	if !ok {
		return m, nil
	}
	idx := -1
	for i := len(c.Messages) - 1; i >= 0; i-- {
		if c.Messages[i].Sender == model.SenderUser {
			idx = i
			break
		}
	}
	if idx < 0 {
		return m, m.setStatus("No message to edit", true)
	}

	d := newTextDialog(dialogEditMessage, "Edit message", "", c.Messages[idx].Text, 0)
	d.targetID = c.ID
	d.msgIndex = idx
	m.dialog = d
	return m, d.form.Init()
}

func (m Model) updateDialog(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "ctrl+c" {
		return m, tea.Quit
	}

	form, cmd := m.dialog.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.dialog.form = f
	}

	switch m.dialog.form.State {
	case huh.StateCompleted:
		return m.applyDialog()
	case huh.StateAborted:
		m.dialog = dialog{}
		return m, nil
	}
	return m, cmd
}

func (m Model) applyDialog() (tea.Model, tea.Cmd) {
	d := m.dialog
	m.dialog = dialog{}

	switch d.kind {
	case dialogAddFolder:
		name := strings.TrimSpace(deref(d.text))
		f := model.Folder{
			ID:         m.store.NextFolderID(),
			Name:       name,
			ParentID:   d.parentID,
			ChatIDs:    []int{},
			IsExpanded: true,
		}
		if err := m.store.AddFolder(f); err != nil {
			return m, m.setStatus(statusForError(err), true)
		}
		m.rebuildTree()
		m.tree.SelectFolder(f.ID)
		return m, m.setStatus(fmt.Sprintf("Folder %q created", name), false)

	case dialogRenameFolder:
		f, ok := m.store.FolderByID(d.targetID)
		if !ok {
			return m, nil
		}
		f.Name = strings.TrimSpace(deref(d.text))
		if err := m.store.UpdateFolder(f); err != nil {
			return m, m.setStatus(statusForError(err), true)
		}
		m.rebuildTree()
		m.tree.SelectFolder(f.ID)
		return m, nil

	case dialogRenameChat:
		title := strings.TrimSpace(deref(d.text))
		if title == "" {
			return m, m.setStatus("Title cannot be empty", true)
		}
		m.store.EditChat(d.targetID, title)
		m.rebuildTree()
		m.refreshChatViewport()
		return m, nil

	case dialogDeleteChat:
		if d.confirm == nil || !*d.confirm {
			return m, nil
		}
		m.store.DeleteChat(d.targetID)
		m.sidebarIndex = 0
		m.rebuildTree()
		m.refreshChatViewport()
		return m, m.setStatus("Chat deleted", false)

	case dialogDeleteFolder:
		if d.confirm == nil || !*d.confirm {
			return m, nil
		}
		if err := m.store.DeleteFolder(d.targetID); err != nil {
			return m, m.setStatus(statusForError(err), true)
		}
		m.rebuildTree()
		return m, m.setStatus("Folder deleted", false)

	case dialogEditMessage:
		text := strings.TrimSpace(deref(d.text))
		if text == "" {
			return m, m.setStatus("Message cannot be empty", true)
		}
		if !m.store.EditMessage(d.msgIndex, text) {
			return m, nil
		}
		m.store.TruncateAfter(d.msgIndex + 1)
		m.refreshChatViewport()
		req, ok := m.store.RegisterReply(d.targetID)
		if !ok {
			return m, nil
		}
		return m, m.scheduleReply(req)
	}
	return m, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
