// Command fintrack-oauth-init authorizes the sheet mirror with a Google user
// account and stores the resulting token for fintrack-worker.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/oauth2"

	"fintrack/internal/cli"
	"fintrack/internal/log"
	gsheet "fintrack/internal/sheets/google"
)

const authTimeout = 5 * time.Minute

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupTerminalLogger(log.ComponentSheets)

	clientFile := os.Getenv("GOOGLE_OAUTH_CLIENT_FILE")
	if clientFile == "" {
		logger.Error("GOOGLE_OAUTH_CLIENT_FILE is required")
		os.Exit(1)
	}
	tokenFile := os.Getenv("GOOGLE_OAUTH_TOKEN_FILE")
	if tokenFile == "" {
		tokenFile = "token.json"
	}
	port := os.Getenv("OAUTH_REDIRECT_PORT")
	if port == "" {
		port = "8085"
	}

	// The redirect URI must be registered on the OAuth client.
	cfg, err := gsheet.OAuthConfig(clientFile, "http://localhost:"+port+"/callback")
	if err != nil {
		logger.Error("Failed to load OAuth client", log.FieldError, err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, authTimeout)
	defer cancel()

	code, err := awaitCode(ctx, ":"+port, cfg.AuthCodeURL("state-token", oauth2.AccessTypeOffline))
	if err != nil {
		logger.Error("Authorization failed", log.FieldError, err)
		os.Exit(1)
	}
	tok, err := cfg.Exchange(ctx, code)
	if err != nil {
		logger.Error("Token exchange failed", log.FieldError, err)
		os.Exit(1)
	}
	if err := gsheet.SaveToken(tokenFile, tok); err != nil {
		logger.Error("Failed to save token", log.FieldError, err, "path", tokenFile)
		os.Exit(1)
	}
	fmt.Printf("Saved token to %s\n", tokenFile)
}

// awaitCode serves the OAuth callback on addr until a code arrives or ctx
// ends.
func awaitCode(ctx context.Context, addr, authURL string) (string, error) {
	type result struct {
		code string
		err  error
	}
	results := make(chan result, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /callback", func(w http.ResponseWriter, r *http.Request) {
		if e := r.URL.Query().Get("error"); e != "" {
			http.Error(w, "OAuth error: "+e, http.StatusBadRequest)
			select {
			case results <- result{err: fmt.Errorf("oauth error: %s", e)}:
			default:
			}
			return
		}
		fmt.Fprintln(w, "You may close this window and return to the terminal.")
		select {
		case results <- result{code: r.URL.Query().Get("code")}:
		default:
		}
	})
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			select {
			case results <- result{err: err}:
			default:
			}
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	fmt.Printf("Open this URL to authorize:\n%s\n", authURL)
	select {
	case r := <-results:
		return r.code, r.err
	case <-ctx.Done():
		return "", fmt.Errorf("waiting for authorization: %w", ctx.Err())
	}
}
