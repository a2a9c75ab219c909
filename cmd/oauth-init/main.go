// Command oauth-init obtains a Google OAuth refresh token for the
// spreadsheet mirror used by harvestbook-worker. It spins up a local
// callback server, prints the consent URL, and writes the resulting
// token to GOOGLE_OAUTH_TOKEN_FILE (token.json by default).
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/sheets/v4"
)

func main() {
	creds, err := loadClientCredentials()
	if err != nil {
		log.Fatal(err)
	}

	cfg, err := google.ConfigFromJSON(creds, sheets.SpreadsheetsScope)
	if err != nil {
		log.Fatalf("oauth config: %v", err)
	}

	// The redirect URI must be listed in the OAuth client's authorized
	// redirect URIs.
	port := os.Getenv("OAUTH_REDIRECT_PORT")
	if port == "" {
		port = "8085"
	}
	cfg.RedirectURL = "http://localhost:" + port + "/callback"

	codeCh := make(chan string, 1)
	srv := &http.Server{Addr: ":" + port}
	http.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		if errStr := r.URL.Query().Get("error"); errStr != "" {
			http.Error(w, "OAuth error: "+errStr, http.StatusBadRequest)
			return
		}
		fmt.Fprintln(w, "Authorization received, you can close this window.")
		codeCh <- r.URL.Query().Get("code")
		go func() { time.Sleep(500 * time.Millisecond); _ = srv.Close() }()
	})
	go func() { _ = srv.ListenAndServe() }()

	fmt.Printf("Open this URL to authorize:\n%s\n", cfg.AuthCodeURL("state-token", oauth2.AccessTypeOffline))

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	select {
	case code := <-codeCh:
		tok, err := cfg.Exchange(context.Background(), code)
		if err != nil {
			log.Fatalf("token exchange: %v", err)
		}
		if err := saveToken(tok); err != nil {
			log.Fatal(err)
		}
	case <-time.After(5 * time.Minute):
		log.Fatal("authorization timed out")
	case <-interrupt:
		log.Fatal("interrupted")
	}
}

func loadClientCredentials() ([]byte, error) {
	if v := os.Getenv("GOOGLE_OAUTH_CLIENT_JSON"); v != "" {
		return []byte(v), nil
	}
	if f := os.Getenv("GOOGLE_OAUTH_CLIENT_FILE"); f != "" {
		b, err := os.ReadFile(f)
		if err != nil {
			return nil, fmt.Errorf("read client file: %w", err)
		}
		return b, nil
	}
	return nil, fmt.Errorf("set GOOGLE_OAUTH_CLIENT_JSON or GOOGLE_OAUTH_CLIENT_FILE")
}

func saveToken(tok *oauth2.Token) error {
	outFile := os.Getenv("GOOGLE_OAUTH_TOKEN_FILE")
	if outFile == "" {
		outFile = "token.json"
	}
	f, err := os.OpenFile(outFile, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("open token file: %w", err)
	}
	defer f.Close()
	if err := json.NewEncoder(f).Encode(tok); err != nil {
		return fmt.Errorf("write token: %w", err)
	}
	fmt.Printf("Saved token to %s\n", outFile)
	return nil
}
