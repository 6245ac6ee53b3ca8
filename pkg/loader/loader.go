// Package loader reads and writes the JSON state snapshot used for
// seeding sessions and for the robot-state machine output.
package loader

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"

	"chatdeck/pkg/model"
	"chatdeck/pkg/store"
)

// LoadState reads a state snapshot from path and validates it.
func LoadState(path string) (store.State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return store.State{}, fmt.Errorf("reading %s: %w", path, err)
	}

	var st store.State
	if err := json.Unmarshal(data, &st); err != nil {
		return store.State{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := ValidateState(st); err != nil {
		return store.State{}, fmt.Errorf("%s: %w", path, err)
	}
	return st, nil
}

// SaveState writes a state snapshot to path, creating parent directories.
func SaveState(path string, st store.State) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling state: %w", err)
	}
	data = append(data, '\n')
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating state dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// DumpState serializes a snapshot to indented JSON, the format the
// --robot-state flag prints for machine consumers.
func DumpState(st store.State) ([]byte, error) {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling state: %w", err)
	}
	return append(data, '\n'), nil
}

// ValidateState checks structural soundness: unique ids, valid entities,
// folder chat memberships pointing at real chats, and each chat filed in
// at most one folder (and at most once within it). Cyclic or dangling
// ParentID links are allowed here; rendering tolerates them and the
// --check command reports them separately.
func ValidateState(st store.State) error {
	chatIDs := make(map[int]bool, len(st.Chats))
	for _, c := range st.Chats {
		if err := c.Validate(); err != nil {
			return fmt.Errorf("chat %d: %w", c.ID, err)
		}
		if chatIDs[c.ID] {
			return fmt.Errorf("chat %d: duplicate id", c.ID)
		}
		chatIDs[c.ID] = true
	}

	folderIDs := make(map[int]bool, len(st.Folders))
	filed := make(map[int]int) // chat id -> folder that claimed it
	for _, f := range st.Folders {
		if err := f.Validate(); err != nil {
			return fmt.Errorf("folder %d: %w", f.ID, err)
		}
		if folderIDs[f.ID] {
			return fmt.Errorf("folder %d: duplicate id", f.ID)
		}
		folderIDs[f.ID] = true
		for _, id := range f.ChatIDs {
			if !chatIDs[id] {
				return fmt.Errorf("folder %d: references unknown chat %d", f.ID, id)
			}
			if prev, ok := filed[id]; ok {
				if prev == f.ID {
					return fmt.Errorf("folder %d: chat %d listed more than once", f.ID, id)
				}
				return fmt.Errorf("folder %d: chat %d already filed in folder %d", f.ID, id, prev)
			}
			filed[id] = f.ID
		}
	}

	if len(st.Folders) > 0 && !folderIDs[model.RootFolderID] {
		return fmt.Errorf("folder %d (root) is missing", model.RootFolderID)
	}
	return nil
}
