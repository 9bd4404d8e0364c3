// Command agent is a terminal sync agent: it opens a note, joins its
// editing session, prints peer updates and presence changes, and turns
// stdin lines into edits. Type /save to persist the buffer, /quit to
// leave.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/bronotion/backend/client"
)

func main() {
	server := flag.String("server", "http://localhost:8080", "Bronotion server URL")
	noteID := flag.Uint("note", 0, "note ID to open")
	email := flag.String("email", "", "account email")
	password := flag.String("password", "", "account password")
	token := flag.String("token", "", "API token (alternative to email/password)")
	user := flag.String("user", "", "user ID to appear as in presence")
	flag.Parse()

	if *noteID == 0 {
		log.Fatal("-note is required")
	}

	ctx := context.Background()
	c := client.New(*server)

	switch {
	case *token != "":
		c.SetToken(*token)
	case *email != "":
		if _, err := c.Login(ctx, *email, *password); err != nil {
			log.Fatalf("Login failed: %v", err)
		}
	default:
		log.Fatal("either -token or -email/-password is required")
	}

	note, err := c.FetchNote(ctx, *noteID)
	if err != nil {
		if errors.Is(err, client.ErrNotFound) {
			log.Fatalf("Note %d not found", *noteID)
		}
		log.Fatalf("Failed to fetch note: %v", err)
	}
	fmt.Printf("-- %s --\n%s\n", note.Title, note.Content)

	userID := *user
	if userID == "" {
		userID = *email
	}

	session := client.NewSession(wsURL(*server), fmt.Sprint(*noteID), userID)
	session.Seed(note.Content)
	session.OnUpdate(func(content string) {
		fmt.Printf("\n[peer edit]\n%s\n> ", content)
	})
	session.OnPresence(func(event string, users []string) {
		fmt.Printf("\n[%s] editors: %s\n> ", event, strings.Join(users, ", "))
	})

	if err := session.Connect(ctx); err != nil {
		log.Fatalf("Failed to connect to relay: %v", err)
	}
	defer session.Close()

	fmt.Print("> ")
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := scanner.Text()
		switch line {
		case "/quit":
			return
		case "/save":
			if err := c.SaveNote(ctx, *noteID, session.Content()); err != nil {
				fmt.Printf("Save failed: %v\n", err)
			} else {
				fmt.Println("Saved.")
			}
		default:
			if err := session.SetContent(line); err != nil {
				fmt.Printf("Edit not sent: %v\n", err)
			}
		}
		fmt.Print("> ")
	}
}

func wsURL(server string) string {
	url := strings.Replace(server, "https://", "wss://", 1)
	url = strings.Replace(url, "http://", "ws://", 1)
	return strings.TrimSuffix(url, "/") + "/ws"
}
