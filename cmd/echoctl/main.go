// echoctl is the control CLI for echotyped.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/NatureBlueee/EchoType/internal/autostart"
	"github.com/NatureBlueee/EchoType/internal/config"
	"github.com/NatureBlueee/EchoType/internal/ipc"
)

var (
	configPath = flag.String("config", "", "path to config file")
	asJSON     = flag.Bool("json", false, "print status and stats as JSON")
	asYAML     = flag.Bool("yaml", false, "print status and stats as YAML")
)

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
		os.Exit(1)
	}

	cmd := flag.Arg(0)

	switch cmd {
	case "status":
		cmdStatus()
	case "pause":
		cmdPause()
	case "resume":
		cmdResume()
	case "toggle":
		cmdToggle()
	case "new-segment":
		cmdNewSegment()
	case "open-logs":
		cmdOpenLogs()
	case "stats":
		days := 7
		if flag.NArg() >= 2 {
			n, err := strconv.Atoi(flag.Arg(1))
			if err != nil || n < 1 {
				fmt.Fprintln(os.Stderr, "Usage: echoctl stats [days]")
				os.Exit(1)
			}
			days = n
		}
		cmdStats(days)
	case "autostart":
		if flag.NArg() < 2 {
			fmt.Fprintln(os.Stderr, "Usage: echoctl autostart <on|off|status>")
			os.Exit(1)
		}
		cmdAutostart(flag.Arg(1))
	case "quit":
		cmdQuit()
	case "help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `echoctl - Control utility for echotyped

Usage: echoctl [options] <command> [args]

Commands:
  status           Show daemon status
  pause            Pause journal recording
  resume           Resume journal recording
  toggle           Toggle the pause state
  new-segment      Start a new journal segment file
  open-logs        Open the journal directory
  stats [days]     Show daily typing counters (default: 7 days)
  autostart <on|off|status>
                   Manage launch at login
  quit             Stop the daemon
  help             Show this help message

Options:
  -config <path>  Path to config file
  -json           Print status and stats as JSON
  -yaml           Print status and stats as YAML`)
}

func connect() *ipc.Client {
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	client := ipc.NewClient(ipc.DefaultClientConfig(cfg.IPC.SocketPath))
	if err := client.Connect(); err != nil {
		if errors.Is(err, ipc.ErrDaemonNotRunning) {
			fmt.Fprintln(os.Stderr, "echotyped is not running. Start it with: echotyped")
		} else {
			fmt.Fprintf(os.Stderr, "Error connecting to daemon: %v\n", err)
		}
		os.Exit(1)
	}
	return client
}

func cmdStatus() {
	client := connect()
	defer client.Close()

	st, err := client.Status()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *asJSON || *asYAML {
		printStructured(st)
		return
	}

	fmt.Println("=== echotyped Status ===")
	fmt.Println()
	fmt.Printf("Version:      %s\n", st.Version)
	fmt.Printf("Started:      %s\n", st.StartedAt.Local().Format("2006-01-02 15:04:05"))
	fmt.Printf("Uptime:       %s\n", st.Uptime)
	if st.Paused {
		fmt.Println("Recording:    PAUSED")
	} else {
		fmt.Println("Recording:    ACTIVE")
	}
	fmt.Println()
	fmt.Printf("Journal dir:  %s\n", st.JournalDir)
	fmt.Printf("Current file: %s\n", st.JournalFile)
	fmt.Printf("Segment:      %d\n", st.Segment)
	fmt.Println()
	if st.CaptureActive {
		fmt.Println("Capture:      RUNNING")
	} else {
		fmt.Println("Capture:      STOPPED")
		if st.CaptureNote != "" {
			fmt.Printf("  Note: %s\n", st.CaptureNote)
		}
	}
	if st.DroppedEvents > 0 {
		fmt.Printf("Dropped events: %d\n", st.DroppedEvents)
	}

	// Today's counters, when the stats store is enabled.
	if resp, err := client.Stats(1); err == nil && len(resp.Days) > 0 {
		today := resp.Days[0]
		fmt.Println()
		fmt.Printf("Today:        %d chars, %d pastes, %d line breaks\n",
			today.Chars, today.Pastes, today.Enters)
	}
}

// printStructured renders v as JSON or YAML per the output flags.
func printStructured(v any) {
	var (
		data []byte
		err  error
	)
	if *asYAML {
		data, err = yaml.Marshal(v)
	} else {
		data, err = json.MarshalIndent(v, "", "  ")
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding output: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(data))
}

func cmdPause() {
	client := connect()
	defer client.Close()

	paused, err := client.Pause()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	printPauseState(paused)
}

func cmdResume() {
	client := connect()
	defer client.Close()

	paused, err := client.Resume()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	printPauseState(paused)
}

func cmdToggle() {
	client := connect()
	defer client.Close()

	paused, err := client.TogglePause()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	printPauseState(paused)
}

func printPauseState(paused bool) {
	if paused {
		fmt.Println("Recording paused.")
	} else {
		fmt.Println("Recording active.")
	}
}

func cmdNewSegment() {
	client := connect()
	defer client.Close()

	resp, err := client.NewSegment()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Started segment %d: %s\n", resp.Segment, resp.Path)
}

func cmdOpenLogs() {
	client := connect()
	defer client.Close()

	dir, err := client.OpenLogs()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := openDirectory(dir); err != nil {
		// Still print the path so the user can find it by hand.
		fmt.Printf("Journal directory: %s\n", dir)
		fmt.Fprintf(os.Stderr, "Could not open file manager: %v\n", err)
		return
	}
	fmt.Printf("Opened %s\n", dir)
}

// openDirectory launches the platform file manager on dir.
func openDirectory(dir string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("explorer", dir)
	case "darwin":
		cmd = exec.Command("open", dir)
	default:
		cmd = exec.Command("xdg-open", dir)
	}
	return cmd.Start()
}

func cmdStats(days int) {
	client := connect()
	defer client.Close()

	resp, err := client.Stats(days)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *asJSON || *asYAML {
		printStructured(resp)
		return
	}

	if len(resp.Days) == 0 {
		fmt.Println("No typing statistics recorded.")
		return
	}

	fmt.Println("=== Typing Statistics ===")
	fmt.Printf("%-12s %8s %8s %8s %8s %12s %8s\n",
		"Day", "Chars", "Enters", "Backsp", "Pastes", "PasteChars", "Segs")
	fmt.Println(strings.Repeat("-", 70))
	for _, d := range resp.Days {
		fmt.Printf("%-12s %8d %8d %8d %8d %12d %8d\n",
			d.Day, d.Chars, d.Enters, d.Backspaces, d.Pastes, d.PasteChars, d.Segments)
	}
}

func cmdAutostart(arg string) {
	var enabled bool
	switch strings.ToLower(arg) {
	case "on", "enable", "true":
		enabled = true
	case "off", "disable", "false":
		enabled = false
	case "status":
		// Inspected locally; the registration lives in the user profile,
		// not in the daemon.
		mgr, err := autostart.New("")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Autostart not available: %v\n", err)
			os.Exit(1)
		}
		on, err := mgr.Enabled()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if on {
			fmt.Println("Autostart is enabled.")
		} else {
			fmt.Println("Autostart is disabled.")
		}
		return
	default:
		fmt.Fprintln(os.Stderr, "Usage: echoctl autostart <on|off|status>")
		os.Exit(1)
	}

	client := connect()
	defer client.Close()

	resp, err := client.SetAutostart(enabled)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if resp.Error != "" {
		fmt.Fprintf(os.Stderr, "Autostart change failed: %s\n", resp.Error)
		os.Exit(1)
	}
	if resp.Enabled {
		fmt.Println("Autostart enabled.")
	} else {
		fmt.Println("Autostart disabled.")
	}
}

func cmdQuit() {
	client := connect()
	defer client.Close()

	if err := client.Quit(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Daemon stopping.")
}
