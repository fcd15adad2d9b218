// Package main provides the remote control CLI.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"

	apiconnect "github.com/osa030/discographic/internal/api/connect"
)

var (
	app    = kingpin.New("discoctl", "Remote control for the discographic server")
	server = app.Flag("server", "Server address").Default("http://localhost:7700").Envar("DISCOGRAPHIC_SERVER").String()

	stateCmd = app.Command("state", "Show the current state").Default()
	loadCmd  = app.Command("load", "Reload the collection")

	intoCmd = app.Command("into", "Browse into an entry of the current listing")
	intoIdx = intoCmd.Arg("idx", "Entry index").Required().Int()

	upCmd = app.Command("up", "Return to a breadcrumb")
	upIdx = upCmd.Arg("idx", "Breadcrumb index (0 is the collection root)").Required().Int()

	queueCmd = app.Command("queue", "Replace the play queue with an entry of the current listing")
	queueIdx = queueCmd.Arg("idx", "Entry index").Required().Int()

	nextCmd = app.Command("next", "Play the next song")
	prevCmd = app.Command("prev", "Play the previous song")

	infoCmd = app.Command("info", "Toggle details of a queue row")
	infoIdx = infoCmd.Arg("idx", "Queue index").Required().Int()

	// watch command
	watchCmd = app.Command("watch", "Stream state changes")
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	client := apiconnect.NewRemoteClient(http.DefaultClient, *server)
	ctx := context.Background()

	var (
		state *apiconnect.State
		err   error
	)
	switch command {
	case stateCmd.FullCommand():
		state, err = client.GetState(ctx)
	case loadCmd.FullCommand():
		state, err = client.LoadCollection(ctx)
	case intoCmd.FullCommand():
		state, err = client.BrowseInto(ctx, *intoIdx)
	case upCmd.FullCommand():
		state, err = client.BrowseUp(ctx, *upIdx)
	case queueCmd.FullCommand():
		state, err = client.LoadQueueItem(ctx, *queueIdx)
	case infoCmd.FullCommand():
		state, err = client.ShowQueueInfo(ctx, *infoIdx)
	case nextCmd.FullCommand():
		changeSong(ctx, client, 1)
		return
	case prevCmd.FullCommand():
		changeSong(ctx, client, -1)
		return
	case watchCmd.FullCommand():
		watch(ctx, client)
		return
	}
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	printState(state)
}

func changeSong(ctx context.Context, client *apiconnect.RemoteClient, delta int) {
	res, err := client.ChangeSong(ctx, delta)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	if res.Success {
		fmt.Printf("Now playing queue index %d\n", res.CurrentSong)
	} else {
		fmt.Printf("Rejected: %s\n", res.Message)
	}
}

func watch(ctx context.Context, client *apiconnect.RemoteClient) {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Println("Watching state changes. Press Ctrl+C to exit.")
	err := client.Watch(ctx, func(c *apiconnect.ChangeInfo) error {
		fmt.Printf("\n[Sequence: %d] %s", c.SequenceNo, strings.ToUpper(c.Kind))
		if c.Kind == apiconnect.KindInitialState {
			fmt.Println()
			printState(c.State)
			return nil
		}
		fmt.Printf(" index=%d generation=%d at %s\n", c.Index, c.Generation, c.Time)
		return nil
	})
	if err != nil && ctx.Err() == nil {
		fmt.Printf("Stream error: %v\n", err)
		os.Exit(1)
	}
}

func printState(s *apiconnect.State) {
	if s == nil {
		return
	}
	if !s.CollectionLoaded {
		fmt.Println("Collection not loaded")
		return
	}

	names := make([]string, len(s.Breadcrumb))
	for i, c := range s.Breadcrumb {
		names[i] = fmt.Sprintf("[%d] %s", i, c.Name)
	}
	fmt.Printf("Location: %s\n", strings.Join(names, " / "))

	fmt.Printf("\nListing (%s):\n", s.Location)
	for i, n := range s.Nodes {
		fmt.Printf("  %3d  %s (%d songs)\n", i, n.Name, n.SongCount)
	}
	for i, it := range s.Items {
		fmt.Printf("  %3d  %s\n", i, it.Title)
	}

	if !s.PlaylistLoaded {
		fmt.Println("\nQueue: empty")
		return
	}
	fmt.Println("\nQueue:")
	for i, it := range s.Queue {
		marker := " "
		if i == s.CurrentSong {
			marker = ">"
		}
		fmt.Printf("  %s %3d  %s\n", marker, i, it.Title)
		if i == s.ExpandedRow {
			printDetails(it)
		}
	}
}

func printDetails(it apiconnect.ItemInfo) {
	if !it.Resolved {
		fmt.Printf("          metadata pending: %s\n", it.MetaFile)
		return
	}
	fmt.Printf("          Artist: %s\n", it.Artist)
	fmt.Printf("          Album: %s\n", it.Album)
	fmt.Printf("          Track: %d\n", it.Track)
	fmt.Printf("          File: %s\n", it.File)
	if it.ShowSize != "" {
		fmt.Printf("          Size: %s\n", it.ShowSize)
	}
	if it.LastModified != "" {
		fmt.Printf("          Modified: %s\n", it.LastModified)
	}
}
