package loader

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"chatdeck/pkg/model"
	"chatdeck/pkg/store"
)

func sampleState() store.State {
	return store.State{
		Chats: []model.Chat{
			{ID: 1, Title: "hello world foo", Messages: []model.Message{
				{Text: "hello world foo bar", Sender: model.SenderUser},
				{Text: store.BotReplyText, Sender: model.SenderBot},
			}},
			{ID: 2, Title: "New Chat", Messages: []model.Message{}},
		},
		Folders: []model.Folder{
			{ID: model.RootFolderID, Name: "Root", ChatIDs: []int{}, IsExpanded: true},
			{ID: 2, Name: "Work", ParentID: model.IntPtr(model.RootFolderID), ChatIDs: []int{1}, IsExpanded: true},
		},
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "chats.json")
	want := sampleState()

	if err := SaveState(path, want); err != nil {
		t.Fatalf("SaveState: %v", err)
	}
	got, err := LoadState(path)
	if err != nil {
		t.Fatalf("LoadState: %v", err)
	}

	if len(got.Chats) != len(want.Chats) || len(got.Folders) != len(want.Folders) {
		t.Fatalf("round trip changed counts: got %d chats %d folders", len(got.Chats), len(got.Folders))
	}
	if got.Chats[0].Title != "hello world foo" {
		t.Errorf("chat title = %q", got.Chats[0].Title)
	}
	if got.Folders[1].ParentID == nil || *got.Folders[1].ParentID != model.RootFolderID {
		t.Errorf("folder parent lost in round trip")
	}
	if got.Folders[1].ChatIDs[0] != 1 {
		t.Errorf("folder membership lost in round trip")
	}
}

func TestLoadStateMissingFile(t *testing.T) {
	_, err := LoadState(filepath.Join(t.TempDir(), "nope.json"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadStateMalformedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadState(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestValidateState(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*store.State)
		wantErr string
	}{
		{"valid", func(*store.State) {}, ""},
		{"duplicate chat id", func(st *store.State) {
			st.Chats = append(st.Chats, model.Chat{ID: 1, Title: "dup"})
		}, "duplicate id"},
		{"duplicate folder id", func(st *store.State) {
			st.Folders = append(st.Folders, model.Folder{ID: 2, Name: "dup"})
		}, "duplicate id"},
		{"unknown chat membership", func(st *store.State) {
			st.Folders[1].ChatIDs = []int{99}
		}, "unknown chat 99"},
		{"chat filed in two folders", func(st *store.State) {
			st.Folders = append(st.Folders, model.Folder{
				ID: 3, Name: "Other", ParentID: model.IntPtr(model.RootFolderID), ChatIDs: []int{1},
			})
		}, "already filed in folder 2"},
		{"chat listed twice in one folder", func(st *store.State) {
			st.Folders[1].ChatIDs = []int{1, 1}
		}, "listed more than once"},
		{"empty folder name", func(st *store.State) {
			st.Folders[1].Name = "  "
		}, "name"},
		{"missing root", func(st *store.State) {
			st.Folders = st.Folders[1:]
			st.Folders[0].ParentID = nil
		}, "root"},
		{"invalid sender", func(st *store.State) {
			st.Chats[0].Messages[0].Sender = "alien"
		}, "sender"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := sampleState()
			tt.mutate(&st)
			err := ValidateState(st)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want substring %q", err, tt.wantErr)
			}
		})
	}
}
