// Package export renders a state snapshot to shareable artifacts: a
// markdown transcript report and an SVG diagram of the folder tree.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"chatdeck/pkg/model"
	"chatdeck/pkg/store"
)

// treeEntry is one folder in flattened display order.
type treeEntry struct {
	folder model.Folder
	depth  int
}

// flattenFolders walks the folder table top-down in alphabetical order,
// carrying a visited set so cyclic parent data terminates. Folders inside
// a cycle or with a dangling parent are omitted, matching what the UI
// renders.
func flattenFolders(folders []model.Folder) []treeEntry {
	var out []treeEntry
	visited := make(map[int]bool)

	var walk func(parent *int, depth int)
	walk = func(parent *int, depth int) {
		var kids []model.Folder
		for _, f := range folders {
			if sameParent(f.ParentID, parent) {
				kids = append(kids, f)
			}
		}
		sort.SliceStable(kids, func(i, j int) bool {
			return strings.ToLower(kids[i].Name) < strings.ToLower(kids[j].Name)
		})
		for _, f := range kids {
			if visited[f.ID] {
				continue
			}
			visited[f.ID] = true
			out = append(out, treeEntry{folder: f, depth: depth})
			walk(model.IntPtr(f.ID), depth+1)
		}
	}
	walk(nil, 0)
	return out
}

func sameParent(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// unfiledChats returns the chats in no folder, in display order.
func unfiledChats(st store.State) []model.Chat {
	filed := make(map[int]bool)
	for _, f := range st.Folders {
		for _, id := range f.ChatIDs {
			filed[id] = true
		}
	}
	var out []model.Chat
	for _, c := range st.Chats {
		if !filed[c.ID] {
			out = append(out, c)
		}
	}
	return out
}

// GenerateMarkdown renders the full report: a summary, one section per
// folder in tree order, and an Unfiled section. Folder sections render
// concurrently; the output order is fixed by the flattened tree.
func GenerateMarkdown(st store.State, title string) (string, error) {
	chatByID := make(map[int]model.Chat, len(st.Chats))
	for _, c := range st.Chats {
		chatByID[c.ID] = c
	}

	entries := flattenFolders(st.Folders)
	sections := make([]string, len(entries))

	var g errgroup.Group
	for i, e := range entries {
		g.Go(func() error {
			sections[i] = renderFolderSection(e, chatByID)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# %s\n\n", title))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", time.Now().Format(time.RFC1123)))

	sb.WriteString("## Summary\n\n")
	sb.WriteString(fmt.Sprintf("- **Chats**: %d\n", len(st.Chats)))
	sb.WriteString(fmt.Sprintf("- **Folders**: %d\n", len(st.Folders)))
	unfiled := unfiledChats(st)
	sb.WriteString(fmt.Sprintf("- **Unfiled**: %d\n\n", len(unfiled)))

	for _, s := range sections {
		sb.WriteString(s)
	}

	sb.WriteString("## Unfiled\n\n")
	if len(unfiled) == 0 {
		sb.WriteString("_No unfiled chats._\n\n")
	}
	for _, c := range unfiled {
		sb.WriteString(renderChat(c))
	}
	return sb.String(), nil
}

func renderFolderSection(e treeEntry, chatByID map[int]model.Chat) string {
	var sb strings.Builder
	level := e.depth + 2
	if level > 6 {
		level = 6
	}
	sb.WriteString(fmt.Sprintf("%s %s\n\n", strings.Repeat("#", level), e.folder.Name))

	if len(e.folder.ChatIDs) == 0 {
		sb.WriteString("_No chats._\n\n")
		return sb.String()
	}
	for _, id := range e.folder.ChatIDs {
		if c, ok := chatByID[id]; ok {
			sb.WriteString(renderChat(c))
		}
	}
	return sb.String()
}

func renderChat(c model.Chat) string {
	var sb strings.Builder
	title := c.Title
	if title == "" {
		title = "Untitled"
	}
	sb.WriteString(fmt.Sprintf("**%s** (%d messages)\n\n", title, len(c.Messages)))
	for _, msg := range c.Messages {
		who := "You"
		if msg.Sender == model.SenderBot {
			who = "Bot"
		}
		sb.WriteString(fmt.Sprintf("> **%s**: %s\n", who, strings.ReplaceAll(msg.Text, "\n", " ")))
	}
	sb.WriteString("\n")
	return sb.String()
}

// SaveMarkdown writes the report to path, creating parent directories.
func SaveMarkdown(path string, st store.State, title string) error {
	md, err := GenerateMarkdown(st, title)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating export dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(md), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
