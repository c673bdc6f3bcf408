// Command ragctl is an interactive terminal search client for the API.
package main

import (
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/sourabhgrover/org-user-rag/internal/apiclient"
	"github.com/sourabhgrover/org-user-rag/internal/tui"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "ragctl:", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	server := flag.String("server", "http://localhost:8080", "server base URL")
	token := flag.String("token", os.Getenv("RAG_TOKEN"), "bearer token (defaults to RAG_TOKEN)")
	username := flag.String("username", "", "username to log in with when no token is given")
	password := flag.String("password", "", "password to log in with when no token is given")
	flag.Parse()

	bearer := *token
	if bearer == "" {
		if *username == "" || *password == "" {
			return fmt.Errorf("either --token (or RAG_TOKEN) or --username and --password are required")
		}
		var err error
		bearer, err = apiclient.Login(*server, *username, *password)
		if err != nil {
			return err
		}
	}

	client := apiclient.New(*server, bearer)
	_, err := tea.NewProgram(tui.New(client), tea.WithAltScreen()).Run()
	return err
}
