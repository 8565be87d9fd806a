package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/joho/godotenv"

	"github.com/bryanwahyu/plant-md/internal/capture"
	"github.com/bryanwahyu/plant-md/internal/client"
	"github.com/bryanwahyu/plant-md/internal/render"
	"github.com/bryanwahyu/plant-md/internal/session"
)

const defaultServer = "http://localhost:8080"

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		printUsage(os.Stderr)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	switch os.Args[1] {
	case "analyze":
		os.Exit(runAnalyze(ctx, os.Args[2:], os.Stdout, os.Stderr))
	case "help", "-h", "--help":
		printUsage(os.Stdout)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage(os.Stderr)
		os.Exit(1)
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "plantmd - leaf disease diagnosis")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  plantmd analyze [-server URL] <image>...   Upload leaf photos and print the diagnosis")
}

// runAnalyze uploads each image in turn and renders every state change.
// It returns 1 when the last upload ended in an error.
func runAnalyze(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("analyze", flag.ContinueOnError)
	fs.SetOutput(stderr)

	server := defaultServer
	if v := os.Getenv("PLANTMD_SERVER"); v != "" {
		server = v
	}
	serverURL := fs.String("server", server, "Base URL of the Plant-MD relay")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(stderr, "Error: at least one image path is required")
		return 2
	}

	sess := session.New(client.New(*serverURL))
	sess.Subscribe(func(snap session.Snapshot) {
		if err := render.Render(stdout, snap); err != nil {
			fmt.Fprintf(stderr, "render: %v\n", err)
		}
	})
	render.Render(stdout, sess.Snapshot())

	code := 0
	for _, path := range fs.Args() {
		img, err := capture.Load(path)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %s: %v\n", path, err)
			code = 1
			continue
		}
		fmt.Fprintf(stdout, "\n== %s (%s)\n", img.Name, img.MimeType)
		snap := sess.Upload(ctx, img)
		code = 0
		if snap.State == session.StateError {
			code = 1
		}
	}
	return code
}
