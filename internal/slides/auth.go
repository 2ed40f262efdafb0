package slides

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// Scopes requested for refreshed and service-account tokens.
var Scopes = []string{
	"https://www.googleapis.com/auth/presentations",
	"https://www.googleapis.com/auth/drive",
}

// ErrNoCredentials is returned when no credential source is configured.
var ErrNoCredentials = errors.New("no credentials configured: set auth.access_token, auth.token_file or auth.credentials_file")

// AuthConfig selects where the bearer token comes from. The first
// non-empty source wins, in field order.
type AuthConfig struct {
	// AccessToken is used as is and never refreshed.
	AccessToken string

	// TokenFile holds a previously obtained token as JSON. With
	// CredentialsFile set it is refreshed through the OAuth client in that
	// file; otherwise it is used until it expires.
	TokenFile string

	// CredentialsFile is an OAuth client or service-account JSON file.
	CredentialsFile string
}

// TokenSource returns the token source described by cfg. Acquiring a token
// interactively is not supported; run the consent flow elsewhere and point
// TokenFile at the result.
func TokenSource(ctx context.Context, cfg AuthConfig) (oauth2.TokenSource, error) {
	switch {
	case cfg.AccessToken != "":
		return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.AccessToken, TokenType: "Bearer"}), nil

	case cfg.TokenFile != "":
		tok, err := readToken(cfg.TokenFile)
		if err != nil {
			return nil, err
		}
		if cfg.CredentialsFile == "" {
			return oauth2.StaticTokenSource(tok), nil
		}
		data, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read credentials: %w", err)
		}
		conf, err := google.ConfigFromJSON(data, Scopes...)
		if err != nil {
			return nil, fmt.Errorf("parse credentials %s: %w", cfg.CredentialsFile, err)
		}
		return conf.TokenSource(ctx, tok), nil

	case cfg.CredentialsFile != "":
		data, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read credentials: %w", err)
		}
		creds, err := google.CredentialsFromJSON(ctx, data, Scopes...)
		if err != nil {
			return nil, fmt.Errorf("parse credentials %s: %w", cfg.CredentialsFile, err)
		}
		return creds.TokenSource, nil

	default:
		return nil, ErrNoCredentials
	}
}

func readToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read token: %w", err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("parse token %s: %w", path, err)
	}
	if tok.AccessToken == "" && tok.RefreshToken == "" {
		return nil, fmt.Errorf("token %s has neither access_token nor refresh_token", path)
	}
	return &tok, nil
}
