// cmd/lingoplayer is a headless dev harness for the player core: it
// loads a movie description, drives its score player for a fixed
// number of ticks or under the debug bridge, and reports what ran.
// There is no RIFX/chunk decoder here (§1 Non-goals) — movies are
// supplied as a JSON fixture matching hostiface.Movie, the same shape
// a real chunk provider would hand the core.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"lingoplayer/internal/debugger"
	"lingoplayer/internal/debugserver"
	"lingoplayer/internal/hostiface"
	"lingoplayer/internal/movie"
)

var commandAliases = map[string]string{
	"r": "run",
	"d": "debug",
}

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		showUsage()
		return
	}

	cmd := args[0]
	if alias, ok := commandAliases[cmd]; ok {
		cmd = alias
	}

	switch cmd {
	case "--help", "-h", "help":
		showUsage()
	case "--version", "-v", "version":
		fmt.Println("lingoplayer dev harness 0.1.0")
	case "run":
		if len(args) < 2 {
			log.Fatal("no movie file provided to run command")
		}
		runMovie(args[1], parseTickCount(args[2:]))
	case "debug":
		if len(args) < 2 {
			log.Fatal("no movie file provided to debug command")
		}
		debugMovie(args[1])
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", args[0])
		showUsage()
		os.Exit(1)
	}
}

func parseTickCount(rest []string) int {
	if len(rest) == 0 {
		return 30
	}
	var n int
	if _, err := fmt.Sscanf(rest[0], "%d", &n); err != nil || n < 1 {
		return 30
	}
	return n
}

func loadMovie(path string) (*movie.Movie, *hostiface.Movie) {
	raw, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("could not read movie file: %v", err)
	}

	var parsed hostiface.Movie
	if err := json.Unmarshal(raw, &parsed); err != nil {
		log.Fatalf("could not decode movie fixture: %v", err)
	}

	m, err := movie.Load(context.Background(), &parsed, movie.NewDefaultOptions())
	if err != nil {
		log.Fatalf("could not load movie: %v", err)
	}
	logStartup(path, len(raw), &parsed)
	return m, &parsed
}

func logStartup(path string, rawBytes int, parsed *hostiface.Movie) {
	nCasts := len(parsed.CastList)
	nFrames := parsed.Score.FrameCount
	msg := fmt.Sprintf("loaded %s (%s, %d cast librar%s, %d frames)",
		path, humanize.Bytes(uint64(rawBytes)), nCasts, plural(nCasts), nFrames)
	if isatty.IsTerminal(os.Stdout.Fd()) {
		fmt.Println("\x1b[32m" + msg + "\x1b[0m")
	} else {
		fmt.Println(msg)
	}
}

func plural(n int) string {
	if n == 1 {
		return "y"
	}
	return "ies"
}

func runMovie(path string, ticks int) {
	m, _ := loadMovie(path)
	m.Play()
	for i := 0; i < ticks; i++ {
		m.Tick()
		time.Sleep(10 * time.Millisecond)
	}
	fmt.Printf("ran %d ticks, ended on frame %d\n", ticks, m.Score.CurrentFrame())
}

func debugMovie(path string) {
	m, _ := loadMovie(path)
	dbg := debugger.New(m.VM)
	srv := debugserver.New(dbg, "localhost:9000")
	go func() {
		if err := srv.ListenAndServe(); err != nil {
			log.Printf("debugserver: %v", err)
		}
	}()
	defer srv.Close()

	fmt.Println("debug bridge listening on ws://localhost:9000/debug")
	m.Play()
	for {
		m.Tick()
		time.Sleep(50 * time.Millisecond)
	}
}

func showUsage() {
	fmt.Println("lingoplayer - headless Lingo score/VM dev harness")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  lingoplayer run <movie.json> [ticks]   Run a movie fixture for N ticks (alias: r)")
	fmt.Println("  lingoplayer debug <movie.json>         Run with the websocket debug bridge (alias: d)")
	fmt.Println("  lingoplayer help                       Show this message")
	fmt.Println("  lingoplayer version                    Show version")
}
