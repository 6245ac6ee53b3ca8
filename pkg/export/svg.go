package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	svg "github.com/ajstarks/svgo"

	"chatdeck/pkg/model"
	"chatdeck/pkg/store"
)

const (
	svgRowHeight = 28
	svgIndent    = 24
	svgWidth     = 640
	svgMargin    = 16
)

// GenerateSVG draws the folder tree as a simple indented diagram: one
// labeled box per folder, one text row per chat, unfiled chats at the
// top. Uses the same cycle-tolerant flattening as the markdown report.
func GenerateSVG(w io.Writer, st store.State, title string) {
	chatByID := make(map[int]model.Chat, len(st.Chats))
	for _, c := range st.Chats {
		chatByID[c.ID] = c
	}

	type svgRow struct {
		text     string
		depth    int
		isFolder bool
	}
	var rows []svgRow

	rows = append(rows, svgRow{text: "Unfiled", depth: 0, isFolder: true})
	for _, c := range unfiledChats(st) {
		rows = append(rows, svgRow{text: chatLabel(c), depth: 1})
	}
	for _, e := range flattenFolders(st.Folders) {
		rows = append(rows, svgRow{text: e.folder.Name, depth: e.depth, isFolder: true})
		for _, id := range e.folder.ChatIDs {
			if c, ok := chatByID[id]; ok {
				rows = append(rows, svgRow{text: chatLabel(c), depth: e.depth + 1})
			}
		}
	}

	height := svgMargin*2 + svgRowHeight*(len(rows)+1)
	canvas := svg.New(w)
	canvas.Start(svgWidth, height)
	canvas.Title(title)
	canvas.Rect(0, 0, svgWidth, height, "fill:#ffffff")
	canvas.Text(svgMargin, svgMargin+14, title, "font-family:sans-serif;font-size:16px;font-weight:bold;fill:#1a202c")

	y := svgMargin + svgRowHeight
	for _, r := range rows {
		x := svgMargin + r.depth*svgIndent
		if r.isFolder {
			canvas.Rect(x, y+4, svgWidth-x-svgMargin, svgRowHeight-8, "fill:#edf2f7;stroke:#e2e8f0")
			canvas.Text(x+8, y+svgRowHeight-10, r.text, "font-family:sans-serif;font-size:13px;font-weight:bold;fill:#1a202c")
		} else {
			canvas.Text(x+8, y+svgRowHeight-10, "· "+r.text, "font-family:sans-serif;font-size:13px;fill:#4a5568")
		}
		y += svgRowHeight
	}
	canvas.End()
}

func chatLabel(c model.Chat) string {
	title := c.Title
	if title == "" {
		title = "Untitled"
	}
	return fmt.Sprintf("%s (%d msgs)", title, len(c.Messages))
}

// SaveSVG writes the diagram to path, creating parent directories.
func SaveSVG(path string, st store.State, title string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating export dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	GenerateSVG(f, st, title)
	if err := f.Close(); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
