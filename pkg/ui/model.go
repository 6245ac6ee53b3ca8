package ui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"chatdeck/pkg/config"
	"chatdeck/pkg/model"
	"chatdeck/pkg/store"
)

type focusArea int

const (
	focusSidebar focusArea = iota
	focusInput
	focusTree
)

// grabState tracks an in-progress drag gesture: which chat is held and
// which container it came from.
type grabState struct {
	chatID int
	source string
}

// botReplyMsg delivers a scheduled bot reply back to the store.
type botReplyMsg struct {
	req store.ReplyRequest
}

type clearStatusMsg struct {
	seq int
}

// Options configures the root model.
type Options struct {
	Store      *store.Store
	Config     config.Config
	ConfigPath string
}

// Model is the root Bubble Tea model: sidebar, chat window, folder tree,
// and the dialog overlay. All entity state lives in the store; the model
// holds only view state.
type Model struct {
	store *store.Store
	dnd   *DragCoordinator
	theme Theme

	cfg     config.Config
	cfgPath string

	tree       FolderTreeModel
	chatVP     viewport.Model
	input      textinput.Model
	search     textinput.Model
	searching  bool
	mdRenderer *glamour.TermRenderer

	dialog dialog

	focused      focusArea
	sidebarIndex int
	grabbed      *grabState

	status      string
	statusIsErr bool
	statusSeq   int

	width  int
	height int
	ready  bool
}

// NewModel builds the root model from a store and loaded config.
func NewModel(opts Options) Model {
	r := lipgloss.DefaultRenderer()
	theme := NewTheme(Mode(opts.Config.Theme), r)

	input := textinput.New()
	input.Placeholder = "Type a message…"
	input.Prompt = "> "

	search := textinput.New()
	search.Placeholder = "Search"
	search.Prompt = "/ "

	m := Model{
		store:   opts.Store,
		dnd:     NewDragCoordinator(opts.Store),
		theme:   theme,
		cfg:     opts.Config,
		cfgPath: opts.ConfigPath,
		tree:    NewFolderTreeModel(theme),
		input:   input,
		search:  search,
		focused: focusSidebar,
	}
	m.rebuildTree()
	return m
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg), nil

	case ThemeChangedMsg:
		if msg.Mode.IsValid() && msg.Mode != m.theme.Mode {
			m.applyThemeMode(msg.Mode, false)
			return m, m.setStatus(fmt.Sprintf("Theme switched to %s (config change)", msg.Mode), false)
		}
		return m, nil

	case botReplyMsg:
		if m.store.DeliverReply(msg.req) {
			m.refreshChatViewport()
			m.rebuildTree()
		}
		return m, nil

	case clearStatusMsg:
		if msg.seq == m.statusSeq {
			m.status = ""
			m.statusIsErr = false
		}
		return m, nil
	}

	if m.dialog.active() {
		return m.updateDialog(msg)
	}

	if key, ok := msg.(tea.KeyMsg); ok {
		return m.handleKey(key)
	}

	var cmd tea.Cmd
	m.chatVP, cmd = m.chatVP.Update(msg)
	return m, cmd
}

func (m Model) handleResize(msg tea.WindowSizeMsg) Model {
	m.width = msg.Width
	m.height = msg.Height
	m.ready = true

	bodyHeight := m.height - 1 // footer
	mainWidth := m.width
	if m.store.SidebarOpen() {
		mainWidth -= m.sidebarWidth()
	}

	m.tree.SetSize(mainWidth-4, bodyHeight-4)
	m.chatVP = viewport.New(mainWidth-4, bodyHeight-7)
	m.input.Width = mainWidth - 8
	m.search.Width = m.sidebarWidth() - 6

	m.rebuildMarkdownRenderer()
	m.refreshChatViewport()
	return m
}

func (m *Model) sidebarWidth() int {
	w := m.width / 4
	if w < 24 {
		w = 24
	}
	if w > 44 {
		w = 44
	}
	return w
}

func (m *Model) rebuildMarkdownRenderer() {
	width := m.chatVP.Width
	if width <= 0 {
		width = 80
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(m.theme.GlamourStyle()),
		glamour.WithWordWrap(width),
	)
	if err == nil {
		m.mdRenderer = r
	}
}

func (m *Model) applyThemeMode(mode Mode, persist bool) {
	m.theme = NewTheme(mode, m.theme.Renderer)
	m.tree.SetTheme(m.theme)
	m.rebuildMarkdownRenderer()
	m.refreshChatViewport()
	if persist {
		m.cfg.Theme = string(mode)
		if m.cfgPath != "" {
			if err := m.cfg.Save(m.cfgPath); err != nil {
				m.status = "Could not save theme: " + err.Error()
				m.statusIsErr = true
			}
		}
	}
}

func (m *Model) rebuildTree() {
	query := ""
	if m.store.FolderView() {
		query = m.search.Value()
	}
	m.tree.SetQuery(query)
	m.tree.Build(m.store.Folders(), m.store.Chats(), m.store.UnfiledChats())
}

func (m *Model) setStatus(s string, isErr bool) tea.Cmd {
	m.status = s
	m.statusIsErr = isErr
	m.statusSeq++
	seq := m.statusSeq
	return tea.Tick(3*time.Second, func(time.Time) tea.Msg {
		return clearStatusMsg{seq: seq}
	})
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Search capture takes priority over everything but quit.
	if m.searching {
		return m.updateSearch(msg)
	}

	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "q":
		if m.focused != focusInput {
			return m, tea.Quit
		}
	case "tab":
		m.cycleFocus()
		return m, nil
	case "f":
		if m.focused != focusInput {
			return m.toggleFolderView()
		}
	case "t":
		if m.focused != focusInput {
			m.applyThemeMode(m.theme.Mode.Toggle(), true)
			return m, m.setStatus(fmt.Sprintf("Theme: %s", m.theme.Mode), false)
		}
	case "b":
		if m.focused != focusInput {
			m.store.ToggleSidebar()
			return m.handleResize(tea.WindowSizeMsg{Width: m.width, Height: m.height}), nil
		}
	case "/":
		if m.focused != focusInput {
			m.searching = true
			m.search.Focus()
			return m, textinput.Blink
		}
	}

	switch m.focused {
	case focusSidebar:
		return m.updateSidebar(msg)
	case focusInput:
		return m.updateInput(msg)
	case focusTree:
		return m.updateTree(msg)
	}
	return m, nil
}

func (m *Model) cycleFocus() {
	switch m.focused {
	case focusSidebar:
		if m.store.FolderView() {
			m.focused = focusTree
		} else {
			m.focused = focusInput
			m.input.Focus()
		}
	default:
		m.input.Blur()
		m.focused = focusSidebar
	}
}

func (m Model) toggleFolderView() (tea.Model, tea.Cmd) {
	m.store.ToggleFolderView()
	if m.store.FolderView() {
		m.focused = focusTree
		m.input.Blur()
		m.rebuildTree()
	} else {
		m.focused = focusSidebar
		m.refreshChatViewport()
	}
	return m, nil
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.searching = false
		m.search.Blur()
		m.search.SetValue("")
		m.rebuildTree()
		m.sidebarIndex = 0
		return m, nil
	case "enter":
		m.searching = false
		m.search.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.sidebarIndex = 0
	m.rebuildTree()
	return m, cmd
}

func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.input.Blur()
		m.focused = focusSidebar
		return m, nil
	case "enter":
		return m.sendCurrentInput()
	case "ctrl+e":
		return m.beginEditLastMessage()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) sendCurrentInput() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return m, nil
	}
	req, ok := m.store.SendMessage(text)
	if !ok {
		return m, m.setStatus("Select a chat first", true)
	}
	m.input.SetValue("")
	m.refreshChatViewport()
	m.rebuildTree()
	return m, m.scheduleReply(req)
}

// scheduleReply arms the simulated-latency timer for a registered reply.
// Delivery is correlation-checked in the store, so a reply whose chat was
// deleted in the meantime is dropped silently.
func (m *Model) scheduleReply(req store.ReplyRequest) tea.Cmd {
	delay := m.cfg.ReplyDelay()
	return tea.Tick(delay, func(time.Time) tea.Msg {
		return botReplyMsg{req: req}
	})
}

func (m Model) updateSidebar(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	chats := m.visibleChats()

	switch msg.String() {
	case "j", "down":
		if m.sidebarIndex < len(chats)-1 {
			m.sidebarIndex++
		}
	case "k", "up":
		if m.sidebarIndex > 0 {
			m.sidebarIndex--
		}
	case "g":
		m.sidebarIndex = 0
	case "G":
		if len(chats) > 0 {
			m.sidebarIndex = len(chats) - 1
		}
	case "enter":
		if c, ok := m.sidebarCursorChat(); ok {
			m.store.SelectChat(c.ID)
			if m.store.FolderView() {
				m.store.ToggleFolderView()
			}
			m.focused = focusInput
			m.input.Focus()
			m.refreshChatViewport()
			return m, textinput.Blink
		}
	case "n":
		m.store.AddChat()
		m.sidebarIndex = 0
		m.focused = focusInput
		m.input.Focus()
		m.refreshChatViewport()
		m.rebuildTree()
		return m, textinput.Blink
	case "r":
		if c, ok := m.sidebarCursorChat(); ok {
			return m.openRenameChatDialog(c)
		}
	case "d":
		if c, ok := m.sidebarCursorChat(); ok {
			return m.openDeleteChatDialog(c)
		}
	case "y":
		return m.copyCursorChatMessage()
	}
	return m, nil
}

func (m *Model) sidebarCursorChat() (model.Chat, bool) {
	chats := m.visibleChats()
	if m.sidebarIndex >= 0 && m.sidebarIndex < len(chats) {
		return chats[m.sidebarIndex], true
	}
	return model.Chat{}, false
}

func (m Model) updateTree(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "j", "down":
		m.tree.MoveDown()
	case "k", "up":
		m.tree.MoveUp()
	case "g":
		m.tree.JumpToTop()
	case "G":
		m.tree.JumpToBottom()

	case "enter", "l", "h", "right", "left":
		row, ok := m.tree.SelectedRow()
		if !ok {
			return m, nil
		}
		if row.Kind == RowFolder {
			// Expansion cascades through the whole subtree.
			m.store.ToggleFolderExpansion(row.Folder.ID, !row.Folder.IsExpanded)
			m.rebuildTree()
			m.tree.SelectFolder(row.Folder.ID)
			return m, nil
		}
		if row.Kind == RowChat && msg.String() == "enter" {
			m.store.SelectChat(row.Chat.ID)
			m.store.ToggleFolderView()
			m.focused = focusInput
			m.input.Focus()
			m.refreshChatViewport()
			return m, textinput.Blink
		}

	case "a":
		var parent *int
		if row, ok := m.tree.SelectedRow(); ok && row.Kind == RowFolder {
			id := row.Folder.ID
			parent = &id
		}
		return m.openAddFolderDialog(parent)
	case "A":
		return m.openAddFolderDialog(nil)

	case "r":
		if row, ok := m.tree.SelectedRow(); ok && row.Kind == RowFolder {
			if row.Folder.ID == model.RootFolderID {
				return m, m.setStatus("The root folder cannot be renamed", true)
			}
			return m.openRenameFolderDialog(row.Folder)
		}

	case "x":
		if row, ok := m.tree.SelectedRow(); ok && row.Kind == RowFolder {
			return m.openDeleteFolderDialog(row.Folder)
		}

	case " ":
		return m.handleGrabOrDrop()

	case "esc":
		if m.grabbed != nil {
			// Dropping outside any droppable cancels the gesture.
			_, _ = m.dnd.ResolveDrop(DropEvent{Source: m.grabbed.source, Destination: "", ChatID: m.grabbed.chatID})
			m.grabbed = nil
			return m, m.setStatus("Move cancelled", false)
		}
		m.focused = focusSidebar
	}
	return m, nil
}

func (m Model) handleGrabOrDrop() (tea.Model, tea.Cmd) {
	row, ok := m.tree.SelectedRow()
	if !ok {
		return m, nil
	}

	if m.grabbed == nil {
		if row.Kind != RowChat {
			return m, m.setStatus("Move onto a chat to pick it up", true)
		}
		m.grabbed = &grabState{chatID: row.Chat.ID, source: row.Container}
		title := row.Chat.Title
		if title == "" {
			title = "Untitled"
		}
		return m, m.setStatus(fmt.Sprintf("Moving %q — space to drop, esc to cancel", title), false)
	}

	ev := DropEvent{Source: m.grabbed.source, Destination: row.Container, ChatID: m.grabbed.chatID}
	chatID := m.grabbed.chatID
	m.grabbed = nil

	changed, err := m.dnd.ResolveDrop(ev)
	if err != nil {
		return m, m.setStatus(err.Error(), true)
	}
	m.rebuildTree()
	m.tree.SelectChat(chatID)
	if !changed {
		return m, m.setStatus("Nothing to do", false)
	}
	return m, m.setStatus("Chat moved", false)
}

func (m Model) copyCursorChatMessage() (tea.Model, tea.Cmd) {
	c, ok := m.sidebarCursorChat()
	if !ok || len(c.Messages) == 0 {
		return m, m.setStatus("Nothing to copy", true)
	}
	last := c.Messages[len(c.Messages)-1]
	if err := copyToClipboard(last.Text); err != nil {
		return m, m.setStatus("Clipboard unavailable: "+err.Error(), true)
	}
	return m, m.setStatus("Last message copied", false)
}

func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	if m.dialog.active() {
		frame := m.theme.FocusedPanelStyle().Padding(1, 2).Render(m.dialog.view())
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, frame)
	}

	bodyHeight := m.height - 1

	var panes []string
	if m.store.SidebarOpen() {
		panes = append(panes, m.renderSidebar(m.sidebarWidth(), bodyHeight))
	}

	mainWidth := m.width
	if m.store.SidebarOpen() {
		mainWidth -= m.sidebarWidth()
	}
	if m.store.FolderView() {
		panes = append(panes, m.renderFolderPane(mainWidth, bodyHeight))
	} else {
		panes = append(panes, m.renderChatWindow(mainWidth, bodyHeight))
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top, panes...)
	return lipgloss.JoinVertical(lipgloss.Left, body, m.renderFooter())
}

func (m Model) renderFolderPane(width, height int) string {
	style := m.theme.PanelStyle()
	if m.focused == focusTree {
		style = m.theme.FocusedPanelStyle()
	}

	header := m.theme.Title.Render("Folders")
	if q := strings.TrimSpace(m.search.Value()); q != "" {
		header += m.theme.Muted.Render(fmt.Sprintf("  filter: %s", q))
	}

	grabbed := 0
	if m.grabbed != nil {
		grabbed = m.grabbed.chatID
	}
	content := lipgloss.JoinVertical(lipgloss.Left, header, "", m.tree.View(grabbed))
	return style.Width(width - 2).Height(height - 2).Render(content)
}

func (m Model) renderFooter() string {
	modeTxt := " CHAT "
	if m.store.FolderView() {
		modeTxt = " FOLDERS "
	}
	modeSection := m.theme.Renderer.NewStyle().
		Background(m.theme.Primary).
		Foreground(m.theme.Surface).
		Bold(true).
		Render(modeTxt)

	var middle string
	if m.status != "" {
		style := m.theme.Muted
		if m.statusIsErr {
			style = m.theme.Error
		}
		middle = style.Render(" " + m.status + " ")
	} else {
		middle = m.theme.Muted.Render(" " + m.contextKeys() + " ")
	}

	counts := fmt.Sprintf(" %d chats · %d folders · %d unfiled · %s ",
		len(m.store.Chats()), len(m.store.Folders()), len(m.store.UnfiledChats()), m.theme.Mode)
	countSection := m.theme.Muted.Render(counts)

	filler := m.width - lipgloss.Width(modeSection) - lipgloss.Width(middle) - lipgloss.Width(countSection)
	if filler < 0 {
		filler = 0
	}
	pad := m.theme.Renderer.NewStyle().Width(filler).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, modeSection, middle, pad, countSection)
}

func (m Model) contextKeys() string {
	if m.searching {
		return "esc: clear · enter: keep filter"
	}
	switch m.focused {
	case focusInput:
		return "enter: send · ctrl+e: edit last · esc: back"
	case focusTree:
		if m.grabbed != nil {
			return "j/k: aim · space: drop · esc: cancel"
		}
		return "j/k: nav · enter: open · space: move chat · a: folder · r: rename · x: delete · f: chats · q: quit"
	default:
		return "j/k: nav · enter: open · n: new · r: rename · d: delete · /: search · f: folders · t: theme · q: quit"
	}
}

// statusForError maps store validation errors to user-facing wording.
func statusForError(err error) string {
	switch {
	case errors.Is(err, store.ErrEmptyFolderName):
		return "Folder name cannot be empty"
	case errors.Is(err, store.ErrFolderNameTooLong):
		return fmt.Sprintf("Folder name is limited to %d characters", model.MaxFolderNameLen)
	case errors.Is(err, store.ErrOwnParent):
		return "A folder cannot be its own parent"
	case errors.Is(err, store.ErrHasSubfolders):
		return "Cannot delete a folder that contains subfolders"
	case errors.Is(err, store.ErrRootImmutable):
		return "The root folder cannot be changed"
	default:
		return err.Error()
	}
}
