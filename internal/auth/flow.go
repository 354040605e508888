package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"golang.org/x/oauth2"

	"github.com/calgo/gcalendar/internal/gcalerr"
)

// flowTimeout bounds how long the interactive flow waits for the browser
// callback.
const flowTimeout = 5 * time.Minute

// clientSecretsFile is the structure of a Google OAuth client secrets JSON
// file as downloaded from the Cloud Console.
type clientSecretsFile struct {
	Installed struct {
		ClientID     string `json:"client_id"`
		ClientSecret string `json:"client_secret"`
	} `json:"installed"`
	Web struct {
		ClientID     string `json:"client_id"`
		ClientSecret string `json:"client_secret"`
	} `json:"web"`
}

func loadClientSecrets(path string) (clientID, clientSecret string, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", "", &gcalerr.NotFoundError{Resource: "client secrets file " + path, Err: err}
		}
		return "", "", fmt.Errorf("failed to read client secrets file: %w", err)
	}

	var secrets clientSecretsFile
	if err := json.Unmarshal(data, &secrets); err != nil {
		return "", "", fmt.Errorf("failed to parse client secrets file: %w", err)
	}

	// Try "installed" first (desktop apps), then "web".
	if secrets.Installed.ClientID != "" {
		return secrets.Installed.ClientID, secrets.Installed.ClientSecret, nil
	}
	if secrets.Web.ClientID != "" {
		return secrets.Web.ClientID, secrets.Web.ClientSecret, nil
	}
	return "", "", fmt.Errorf("no client_id found in %s (expected 'installed' or 'web' section)", path)
}

// startLocalServer starts a local HTTP server on the given port to receive
// the OAuth callback. Port 0 picks a free port.
func startLocalServer(port int) (string, <-chan string, <-chan error, error) {
	listener, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		return "", nil, nil, fmt.Errorf("failed to start local server: %w", err)
	}

	boundPort := listener.Addr().(*net.TCPAddr).Port
	redirectURL := fmt.Sprintf("http://127.0.0.1:%d", boundPort)

	codeChan := make(chan string, 1)
	errorChan := make(chan error, 1)

	server := &http.Server{
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  10 * time.Second,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code != "" {
			fmt.Fprintf(w, "<html><body><h1>Authorization successful!</h1><p>You can close this window.</p></body></html>")
			codeChan <- code
		} else if errMsg := r.URL.Query().Get("error"); errMsg != "" {
			fmt.Fprintf(w, "<html><body><h1>Authorization failed</h1><p>Error: %s</p></body></html>", errMsg)
			errorChan <- fmt.Errorf("authorization error: %s", errMsg)
		} else {
			fmt.Fprintf(w, "<html><body><h1>No authorization code received</h1></body></html>")
			errorChan <- fmt.Errorf("no authorization code received")
		}
		go func() {
			time.Sleep(1 * time.Second)
			server.Shutdown(context.Background())
		}()
	})
	server.Handler = mux

	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			errorChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	return redirectURL, codeChan, errorChan, nil
}

// FromClientSecretsFile runs the interactive authorization flow: it binds a
// local callback listener on the given port, prints the consent URL, waits
// for the browser redirect, and exchanges the authorization code for tokens.
// Returns a NotFoundError if the secrets file is missing and an AuthError if
// the flow itself fails.
func FromClientSecretsFile(ctx context.Context, path string, scopes []string, port int) (*Credential, error) {
	clientID, clientSecret, err := loadClientSecrets(path)
	if err != nil {
		return nil, err
	}

	redirectURL, codeChan, errorChan, err := startLocalServer(port)
	if err != nil {
		return nil, &gcalerr.AuthError{Op: "authorize", Err: err}
	}

	conf := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Scopes:       scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  "https://accounts.google.com/o/oauth2/auth",
			TokenURL: DefaultTokenURI,
		},
	}

	authURL := conf.AuthCodeURL("state-token", oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	fmt.Println("Please visit the following URL to authorize the application:")
	fmt.Println(authURL)
	fmt.Println("\nWaiting for authorization...")

	var code string
	select {
	case code = <-codeChan:
	case err := <-errorChan:
		return nil, &gcalerr.AuthError{Op: "authorize", Err: err}
	case <-ctx.Done():
		return nil, &gcalerr.AuthError{Op: "authorize", Err: ctx.Err()}
	case <-time.After(flowTimeout):
		return nil, &gcalerr.AuthError{Op: "authorize", Err: fmt.Errorf("no response received within %s", flowTimeout)}
	}

	token, err := conf.Exchange(ctx, code)
	if err != nil {
		return nil, &gcalerr.AuthError{Op: "exchange", Err: err}
	}

	return &Credential{
		Token:          token.AccessToken,
		RefreshToken:   token.RefreshToken,
		TokenURI:       DefaultTokenURI,
		ClientID:       clientID,
		ClientSecret:   clientSecret,
		Scopes:         scopes,
		UniverseDomain: DefaultUniverseDomain,
		Expiry:         token.Expiry,
	}, nil
}
