// history dumps the stored conversation turns for a sender, newest last.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/meshbridge/meshtastic-llm-bridge/internal/data"
)

func main() {
	dataDir := flag.String("data", "./data", "bridge data directory")
	limit := flag.Int("limit", 20, "number of turns to show")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Println("Usage: history [flags] <sender_id>")
		flag.PrintDefaults()
		os.Exit(1)
	}
	senderID := flag.Arg(0)

	db, err := data.OpenDB(*dataDir)
	if err != nil {
		fmt.Printf("Error: open store: %v\n", err)
		os.Exit(1)
	}
	turnRepo := data.NewTurnRepo(db)
	defer turnRepo.Close()

	turns, err := turnRepo.Recent(context.Background(), senderID, *limit)
	if err != nil {
		fmt.Printf("Error: read turns: %v\n", err)
		os.Exit(1)
	}

	if len(turns) == 0 {
		fmt.Printf("No stored turns for %s\n", senderID)
		return
	}

	for _, t := range turns {
		fmt.Printf("%s  %-9s  %s\n", t.CreatedAt.Format("2006-01-02 15:04:05"), t.Role, t.Content)
	}
}
