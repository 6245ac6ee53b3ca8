package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/goccy/go-json"
	"golang.org/x/term"

	"chatdeck/pkg/analysis"
	"chatdeck/pkg/config"
	"chatdeck/pkg/export"
	"chatdeck/pkg/loader"
	"chatdeck/pkg/store"
	"chatdeck/pkg/ui"
)

// version is stamped at build time via -ldflags.
var version = "dev"

func main() {
	help := flag.Bool("help", false, "Show help")
	versionFlag := flag.Bool("version", false, "Show version")
	seedFile := flag.String("seed", "", "Load chats and folders from a JSON state file")
	themeFlag := flag.String("theme", "", "Override the theme for this session (light or dark)")
	replyDelay := flag.Int("reply-delay", 0, "Override the bot reply delay in milliseconds")
	configPath := flag.String("config", "", "Config file path (default: per-user config dir)")
	logFile := flag.String("log", "", "Write the runtime log to this file")
	exportMD := flag.String("export-md", "", "Export chats and folders to a Markdown report and exit")
	exportSVG := flag.String("export-svg", "", "Export the folder tree as an SVG diagram and exit")
	robotState := flag.Bool("robot-state", false, "Print the full state as JSON and exit")
	check := flag.Bool("check", false, "Check the folder graph for cycles and dangling parents, print findings as JSON, exit 1 if any")
	flag.Parse()

	if *help {
		fmt.Println("Usage: chatdeck [options]")
		fmt.Println("\nA terminal chat organizer: conversations, nested folders, drag-and-drop filing.")
		flag.PrintDefaults()
		return
	}
	if *versionFlag {
		fmt.Printf("chatdeck %s\n", version)
		return
	}

	if *themeFlag != "" && *themeFlag != "light" && *themeFlag != "dark" {
		fatalf("unknown theme %q (want light or dark)", *themeFlag)
	}

	cfgPath := *configPath
	if cfgPath == "" {
		p, err := config.DefaultPath()
		if err != nil {
			fatalf("%v", err)
		}
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fatalf("%v", err)
	}
	if *themeFlag != "" {
		cfg.Theme = *themeFlag
	}
	if *replyDelay > 0 {
		cfg.ReplyDelayMS = *replyDelay
	}
	if *logFile != "" {
		cfg.LogFile = *logFile
	}

	closeLog := setupLog(cfg.LogFile)
	defer closeLog()

	s, err := buildStore(*seedFile)
	if err != nil {
		fatalf("%v", err)
	}

	// Headless modes run without a TTY and exit before the UI starts.
	headless := false
	if *robotState {
		data, err := loader.DumpState(s.Dump())
		if err != nil {
			fatalf("%v", err)
		}
		os.Stdout.Write(data)
		headless = true
	}
	if *check {
		code := runCheck(s, os.Stdout)
		if code != 0 {
			os.Exit(code)
		}
		headless = true
	}
	if *exportMD != "" {
		if err := export.SaveMarkdown(*exportMD, s.Dump(), "Chat Export"); err != nil {
			fatalf("%v", err)
		}
		fmt.Fprintf(os.Stderr, "wrote %s\n", *exportMD)
		headless = true
	}
	if *exportSVG != "" {
		if err := export.SaveSVG(*exportSVG, s.Dump(), "Folder Tree"); err != nil {
			fatalf("%v", err)
		}
		fmt.Fprintf(os.Stderr, "wrote %s\n", *exportSVG)
		headless = true
	}
	if headless {
		return
	}

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		fatalf("stdout is not a terminal (use --export-md, --export-svg, or --robot-state for non-interactive output)")
	}

	m := ui.NewModel(ui.Options{Store: s, Config: cfg, ConfigPath: cfgPath})
	p := tea.NewProgram(m, tea.WithAltScreen())

	watcher := ui.NewConfigWatcher(cfgPath, p)
	if err := watcher.Start(); err != nil {
		// Live reload is best effort; first runs have no config dir yet.
		log.Printf("config watcher unavailable: %v", err)
	} else {
		defer watcher.Stop()
	}

	if _, err := p.Run(); err != nil {
		fatalf("%v", err)
	}
}

// buildStore creates the store, either from a seed file or with the
// default welcome state.
func buildStore(seedPath string) (*store.Store, error) {
	if seedPath == "" {
		return store.New(), nil
	}
	st, err := loader.LoadState(seedPath)
	if err != nil {
		return nil, err
	}
	return store.NewFromState(st), nil
}

// runCheck prints the folder graph report as JSON and returns the exit
// code: 0 when clean, 1 when anything was found.
func runCheck(s *store.Store, w io.Writer) int {
	rep := analysis.Inspect(s.Folders())
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "chatdeck: %v\n", err)
		return 1
	}
	fmt.Fprintf(w, "%s\n", data)
	if rep.Clean() {
		return 0
	}
	return 1
}

// setupLog routes the standard logger to a file, or discards it so the
// alternate screen stays clean. Returns a close func.
func setupLog(path string) func() {
	if path == "" {
		log.SetOutput(io.Discard)
		return func() {}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		log.SetOutput(io.Discard)
		fmt.Fprintf(os.Stderr, "chatdeck: cannot open log file: %v\n", err)
		return func() {}
	}
	log.SetOutput(f)
	return func() { f.Close() }
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "chatdeck: "+format+"\n", args...)
	os.Exit(1)
}
