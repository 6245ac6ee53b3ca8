package store

import (
	"errors"
	"testing"

	"chatdeck/pkg/model"
)

// emptyStore builds a store with no chats and only the root folder.
func emptyStore() *Store {
	return NewFromState(State{
		Folders: []model.Folder{
			{ID: model.RootFolderID, Name: "Root", ChatIDs: []int{}, IsExpanded: true},
		},
	})
}

func TestNewSeedState(t *testing.T) {
	s := New()

	chats := s.Chats()
	if len(chats) != 2 {
		t.Fatalf("expected 2 seed chats, got %d", len(chats))
	}
	if chats[0].Title != "Welcome Chat" {
		t.Errorf("expected first chat to be Welcome Chat, got %q", chats[0].Title)
	}
	if s.SelectedChatID() != chats[0].ID {
		t.Errorf("expected first chat selected, got %d", s.SelectedChatID())
	}
	if got := s.UnfiledChats(); len(got) != 2 {
		t.Errorf("expected both seed chats unfiled, got %v", got)
	}
	if !s.SidebarOpen() {
		t.Error("sidebar should start open")
	}
	if s.FolderView() {
		t.Error("folder view should start off")
	}
}

func TestAddChatAllocatesMaxPlusOne(t *testing.T) {
	s := New()
	// Seed chats have ids 1 and 2 and both are non-empty.
	id := s.AddChat()
	if id != 3 {
		t.Errorf("expected new chat id 3, got %d", id)
	}
	if s.SelectedChatID() != 3 {
		t.Errorf("expected new chat selected, got %d", s.SelectedChatID())
	}
	if s.Chats()[0].ID != 3 {
		t.Error("expected new chat prepended")
	}
	if s.Chats()[0].Title != "New Chat" {
		t.Errorf("expected default title, got %q", s.Chats()[0].Title)
	}
}

func TestAddChatReusesEmptyChat(t *testing.T) {
	s := New()
	first := s.AddChat() // creates chat 3, empty
	s.SelectChat(1)

	second := s.AddChat()
	if second != first {
		t.Errorf("expected empty chat %d to be reused, got %d", first, second)
	}
	if s.NextChatID() != 4 {
		t.Errorf("reuse must not consume an id: next should stay 4, got %d", s.NextChatID())
	}
	if s.Chats()[0].ID != first {
		t.Error("expected reused chat promoted to the front")
	}
	if s.SelectedChatID() != first {
		t.Error("expected reused chat selected")
	}
}

func TestEditChatUnknownIDIsNoop(t *testing.T) {
	s := New()
	before := s.Chats()
	s.EditChat(999, "ghost")
	after := s.Chats()
	for i := range before {
		if before[i].Title != after[i].Title {
			t.Fatal("editing an unknown id must not change any chat")
		}
	}
}

func TestDeleteChatStripsEverywhere(t *testing.T) {
	s := New()
	if err := s.AddFolder(model.Folder{ID: 2, Name: "Work", ChatIDs: []int{}}); err != nil {
		t.Fatalf("AddFolder: %v", err)
	}
	if err := s.MoveChatToFolder(1, 2); err != nil {
		t.Fatalf("MoveChatToFolder: %v", err)
	}

	s.DeleteChat(1)

	for _, f := range s.Folders() {
		if f.ContainsChat(1) {
			t.Errorf("folder %d still contains deleted chat", f.ID)
		}
	}
	for _, id := range s.UnfiledChats() {
		if id == 1 {
			t.Error("unfiled set still contains deleted chat")
		}
	}
	if _, ok := s.ChatByID(1); ok {
		t.Error("chat 1 should be gone")
	}
}

func TestDeleteChatReselects(t *testing.T) {
	s := New()
	s.SelectChat(1)
	s.DeleteChat(1)
	if s.SelectedChatID() != 2 {
		t.Errorf("expected selection to move to first remaining chat, got %d", s.SelectedChatID())
	}

	s.DeleteChat(2)
	if s.SelectedChatID() != 0 {
		t.Errorf("expected no selection after deleting last chat, got %d", s.SelectedChatID())
	}
}

func TestDeleteChatKeepsUnrelatedSelection(t *testing.T) {
	s := New()
	s.SelectChat(2)
	s.DeleteChat(1)
	if s.SelectedChatID() != 2 {
		t.Errorf("deleting another chat must not move selection, got %d", s.SelectedChatID())
	}
}

func TestSendMessageDerivesTitleFromFirstThreeWords(t *testing.T) {
	s := New()
	id := s.AddChat()
	s.SelectChat(id)

	req, ok := s.SendMessage("hello world foo bar")
	if !ok {
		t.Fatal("expected message to be sent")
	}

	c, _ := s.ChatByID(id)
	if c.Title != "hello world foo" {
		t.Errorf("expected derived title %q, got %q", "hello world foo", c.Title)
	}
	if len(c.Messages) != 1 || c.Messages[0].Text != "hello world foo bar" || c.Messages[0].Sender != model.SenderUser {
		t.Errorf("unexpected transcript: %+v", c.Messages)
	}

	if !s.DeliverReply(req) {
		t.Fatal("expected reply delivery")
	}
	c, _ = s.ChatByID(id)
	if len(c.Messages) != 2 || c.Messages[1].Text != BotReplyText || c.Messages[1].Sender != model.SenderBot {
		t.Errorf("expected bot reply appended, got %+v", c.Messages)
	}
}

func TestSendMessageKeepsTitleAfterFirst(t *testing.T) {
	s := New()
	s.SelectChat(1) // Welcome Chat already has a message
	if _, ok := s.SendMessage("brand new topic here"); !ok {
		t.Fatal("expected send to succeed")
	}
	c, _ := s.ChatByID(1)
	if c.Title != "Welcome Chat" {
		t.Errorf("title must not change after the first message, got %q", c.Title)
	}
}

func TestSendMessageRejectsBlank(t *testing.T) {
	s := New()
	if _, ok := s.SendMessage("   \t "); ok {
		t.Error("blank message must be a no-op")
	}

	s.selectedChatID = 0
	if _, ok := s.SendMessage("hello"); ok {
		t.Error("send with no selection must be a no-op")
	}
}

func TestReplyDroppedAfterChatDeleted(t *testing.T) {
	s := New()
	id := s.AddChat()
	s.SelectChat(id)
	req, _ := s.SendMessage("are you there")

	s.DeleteChat(id)

	if s.DeliverReply(req) {
		t.Error("reply for a deleted chat must be dropped")
	}
	if _, ok := s.ChatByID(id); ok {
		t.Error("chat must stay deleted")
	}
}

func TestReplySupersededByNewerMessage(t *testing.T) {
	s := New()
	id := s.AddChat()
	s.SelectChat(id)
	old, _ := s.SendMessage("first")
	fresh, _ := s.SendMessage("second")

	if s.DeliverReply(old) {
		t.Error("stale reply must be dropped once a newer one is registered")
	}
	if !s.DeliverReply(fresh) {
		t.Error("current reply must be delivered")
	}
	if s.DeliverReply(fresh) {
		t.Error("delivery must be idempotent")
	}
}

func TestEditMessageAndTruncate(t *testing.T) {
	s := New()
	id := s.AddChat()
	s.SelectChat(id)
	req, _ := s.SendMessage("original question")
	s.DeliverReply(req)

	if !s.EditMessage(0, "revised question") {
		t.Fatal("expected edit to succeed")
	}
	s.TruncateAfter(1)

	c, _ := s.ChatByID(id)
	if len(c.Messages) != 1 {
		t.Fatalf("expected 1 message after truncate, got %d", len(c.Messages))
	}
	if c.Messages[0].Text != "revised question" {
		t.Errorf("unexpected message text %q", c.Messages[0].Text)
	}

	if s.EditMessage(5, "out of range") {
		t.Error("out-of-range edit must be a no-op")
	}
}

func TestAddFolderValidation(t *testing.T) {
	s := New()

	if err := s.AddFolder(model.Folder{ID: 2, Name: "  "}); !errors.Is(err, ErrEmptyFolderName) {
		t.Errorf("expected ErrEmptyFolderName, got %v", err)
	}
	if err := s.AddFolder(model.Folder{ID: 2, Name: "Loop", ParentID: model.IntPtr(2)}); !errors.Is(err, ErrOwnParent) {
		t.Errorf("expected ErrOwnParent, got %v", err)
	}
	if err := s.AddFolder(model.Folder{ID: model.RootFolderID, Name: "Another Root"}); !errors.Is(err, ErrDuplicateFolder) {
		t.Errorf("expected ErrDuplicateFolder, got %v", err)
	}
	if err := s.AddFolder(model.Folder{ID: 2, Name: "Work", ParentID: model.IntPtr(1), IsExpanded: true}); err != nil {
		t.Errorf("valid folder rejected: %v", err)
	}
	if len(s.Folders()) != 2 {
		t.Errorf("expected 2 folders, got %d", len(s.Folders()))
	}
}

func TestDeleteFolderWithSubfoldersRejected(t *testing.T) {
	s := New()
	if err := s.AddFolder(model.Folder{ID: 2, Name: "Child", ParentID: model.IntPtr(model.RootFolderID)}); err != nil {
		t.Fatal(err)
	}

	err := s.DeleteFolder(model.RootFolderID)
	if !errors.Is(err, ErrRootImmutable) && !errors.Is(err, ErrHasSubfolders) {
		t.Errorf("deleting root with children must be rejected, got %v", err)
	}
	if len(s.Folders()) != 2 {
		t.Error("folder list must be unchanged after rejected delete")
	}

	// A non-root folder with children is rejected with ErrHasSubfolders.
	if err := s.AddFolder(model.Folder{ID: 3, Name: "Grandchild", ParentID: model.IntPtr(2)}); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteFolder(2); !errors.Is(err, ErrHasSubfolders) {
		t.Errorf("expected ErrHasSubfolders, got %v", err)
	}

	// Leaves delete fine, and their chats return to the unfiled set.
	if err := s.MoveChatToFolder(1, 3); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteFolder(3); err != nil {
		t.Errorf("leaf folder delete failed: %v", err)
	}
	found := false
	for _, id := range s.UnfiledChats() {
		if id == 1 {
			found = true
		}
	}
	if !found {
		t.Error("chat from deleted folder must return to the unfiled set")
	}
}

func TestUpdateFolderRootImmutable(t *testing.T) {
	s := New()
	if err := s.UpdateFolder(model.Folder{ID: model.RootFolderID, Name: "Renamed"}); !errors.Is(err, ErrRootImmutable) {
		t.Errorf("expected ErrRootImmutable, got %v", err)
	}

	// Toggling root expansion through UpdateFolder is allowed.
	root, _ := s.FolderByID(model.RootFolderID)
	root.IsExpanded = false
	if err := s.UpdateFolder(root); err != nil {
		t.Errorf("expansion-only update of root should pass: %v", err)
	}
}

func TestToggleFolderExpansionCascades(t *testing.T) {
	s := New()
	mustAdd := func(f model.Folder) {
		t.Helper()
		if err := s.AddFolder(f); err != nil {
			t.Fatal(err)
		}
	}
	mustAdd(model.Folder{ID: 2, Name: "A", ParentID: model.IntPtr(1), IsExpanded: true})
	mustAdd(model.Folder{ID: 3, Name: "B", ParentID: model.IntPtr(2), IsExpanded: true})
	mustAdd(model.Folder{ID: 4, Name: "C", ParentID: model.IntPtr(3), IsExpanded: true})

	s.ToggleFolderExpansion(2, false)

	expanded := map[int]bool{}
	for _, f := range s.Folders() {
		expanded[f.ID] = f.IsExpanded
	}
	if expanded[2] || expanded[3] || expanded[4] {
		t.Errorf("collapse must cascade to all descendants: %v", expanded)
	}
	if !expanded[1] {
		t.Error("ancestors must be unaffected")
	}

	s.ToggleFolderExpansion(2, true)
	for _, f := range s.Folders() {
		if !f.IsExpanded {
			t.Errorf("expand must cascade, folder %d still collapsed", f.ID)
		}
	}
}

func TestDescendantsTerminateOnCycle(t *testing.T) {
	// Build a parent cycle directly; write-time checks only cover
	// self-parenting, deeper cycles must be survived at read time.
	s := NewFromState(State{
		Folders: []model.Folder{
			{ID: 1, Name: "Root"},
			{ID: 2, Name: "A", ParentID: model.IntPtr(3)},
			{ID: 3, Name: "B", ParentID: model.IntPtr(2)},
		},
	})

	got := s.DescendantFolderIDs(2)
	if len(got) != 1 || got[0] != 3 {
		t.Errorf("expected cycle-safe descendants [3], got %v", got)
	}

	// Cascading a toggle across the cycle must also terminate.
	s.ToggleFolderExpansion(2, true)
}

func TestMoveChatExclusiveMembership(t *testing.T) {
	s := New()
	if err := s.AddFolder(model.Folder{ID: 2, Name: "Work", ParentID: model.IntPtr(1)}); err != nil {
		t.Fatal(err)
	}
	if err := s.AddFolder(model.Folder{ID: 3, Name: "Play", ParentID: model.IntPtr(1)}); err != nil {
		t.Fatal(err)
	}

	if err := s.MoveChatToFolder(1, 2); err != nil {
		t.Fatal(err)
	}
	if err := s.MoveChatToFolder(1, 3); err != nil {
		t.Fatal(err)
	}

	holders := 0
	for _, f := range s.Folders() {
		if f.ContainsChat(1) {
			holders++
			if f.ID != 3 {
				t.Errorf("chat 1 should only be in folder 3, found in %d", f.ID)
			}
			if !f.IsExpanded {
				t.Error("destination folder must be expanded after a move")
			}
		}
	}
	if holders != 1 {
		t.Errorf("chat must be in exactly one folder, found %d", holders)
	}

	s.MoveChatToUnfiled(1)
	for _, f := range s.Folders() {
		if f.ContainsChat(1) {
			t.Error("chat must leave all folders when unfiled")
		}
	}
	found := false
	for _, id := range s.UnfiledChats() {
		if id == 1 {
			found = true
		}
	}
	if !found {
		t.Error("chat must appear in the unfiled set")
	}
}

func TestScenarioMoveIntoNewFolder(t *testing.T) {
	// Root folder + one unfiled chat; add Work, move the chat in, expect
	// Work.ChatIDs == [1] and unfiled == [].
	s := NewFromState(State{
		Chats: []model.Chat{{ID: 1, Title: "Only", Messages: []model.Message{{Text: "hi", Sender: model.SenderUser}}}},
		Folders: []model.Folder{
			{ID: 1, Name: "Root", ChatIDs: []int{}, IsExpanded: true},
		},
	})

	if err := s.AddFolder(model.Folder{ID: 2, Name: "Work", ParentID: nil, ChatIDs: []int{}, IsExpanded: true}); err != nil {
		t.Fatal(err)
	}
	if err := s.MoveChatToFolder(1, 2); err != nil {
		t.Fatal(err)
	}

	work, _ := s.FolderByID(2)
	if len(work.ChatIDs) != 1 || work.ChatIDs[0] != 1 {
		t.Errorf("expected folder 2 ChatIDs == [1], got %v", work.ChatIDs)
	}
	if got := s.UnfiledChats(); len(got) != 0 {
		t.Errorf("expected empty unfiled set, got %v", got)
	}
}

func TestAddFolderClaimsChatsExclusively(t *testing.T) {
	s := NewFromState(State{
		Chats: []model.Chat{
			{ID: 1, Title: "a", Messages: []model.Message{{Text: "a", Sender: model.SenderUser}}},
			{ID: 2, Title: "b", Messages: []model.Message{{Text: "b", Sender: model.SenderUser}}},
		},
		Folders: []model.Folder{
			{ID: 1, Name: "Root", ChatIDs: []int{}, IsExpanded: true},
			{ID: 2, Name: "Work", ParentID: model.IntPtr(1), ChatIDs: []int{1}, IsExpanded: true},
		},
	})

	// Chat 1 is already filed in Work, chat 2 is unfiled, and chat 1 is
	// listed twice. The new folder must end up the only owner of both.
	err := s.AddFolder(model.Folder{ID: 3, Name: "Later", ParentID: model.IntPtr(1), ChatIDs: []int{1, 1, 2}})
	if err != nil {
		t.Fatalf("AddFolder: %v", err)
	}

	later, _ := s.FolderByID(3)
	if len(later.ChatIDs) != 2 || later.ChatIDs[0] != 1 || later.ChatIDs[1] != 2 {
		t.Errorf("new folder ChatIDs = %v, want [1 2]", later.ChatIDs)
	}
	work, _ := s.FolderByID(2)
	if work.ContainsChat(1) {
		t.Error("chat 1 still filed in its previous folder")
	}
	if got := s.UnfiledChats(); len(got) != 0 {
		t.Errorf("unfiled = %v, want empty", got)
	}
}

func TestUpdateFolderClaimsChatsExclusively(t *testing.T) {
	s := NewFromState(State{
		Chats: []model.Chat{
			{ID: 1, Title: "a", Messages: []model.Message{{Text: "a", Sender: model.SenderUser}}},
		},
		Folders: []model.Folder{
			{ID: 1, Name: "Root", ChatIDs: []int{}, IsExpanded: true},
			{ID: 2, Name: "Work", ParentID: model.IntPtr(1), ChatIDs: []int{1}, IsExpanded: true},
			{ID: 3, Name: "Later", ParentID: model.IntPtr(1), ChatIDs: []int{}, IsExpanded: true},
		},
	})

	later, _ := s.FolderByID(3)
	later.ChatIDs = []int{1}
	if err := s.UpdateFolder(later); err != nil {
		t.Fatalf("UpdateFolder: %v", err)
	}

	work, _ := s.FolderByID(2)
	if work.ContainsChat(1) {
		t.Error("chat 1 filed in two folders after update")
	}
	later, _ = s.FolderByID(3)
	if !later.ContainsChat(1) {
		t.Error("updated folder lost its chat")
	}
}

func TestAccessorsReturnCopies(t *testing.T) {
	s := New()
	chats := s.Chats()
	chats[0].Title = "mutated"
	chats[0].Messages[0].Text = "mutated"

	fresh, _ := s.ChatByID(chats[0].ID)
	if fresh.Title == "mutated" || fresh.Messages[0].Text == "mutated" {
		t.Error("mutating an accessor result must not affect store state")
	}

	folders := s.Folders()
	folders[0].Name = "mutated"
	if f, _ := s.FolderByID(folders[0].ID); f.Name == "mutated" {
		t.Error("mutating a folder copy must not affect store state")
	}
}

func TestEmptyStoreEdgeCases(t *testing.T) {
	s := emptyStore()
	if s.SelectedChatID() != 0 {
		t.Error("empty store has no selection")
	}
	if id := s.AddChat(); id != 1 {
		t.Errorf("first chat id should be 1, got %d", id)
	}
	s.DeleteChat(1)
	if got := s.UnfiledChats(); len(got) != 0 {
		t.Errorf("expected no unfiled chats, got %v", got)
	}
}
