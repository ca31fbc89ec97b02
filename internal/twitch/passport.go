package twitch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/tanq16/vodkit/internal/utils"
	"golang.org/x/oauth2"
)

type LoginOptions struct {
	AuthyToken string
	ClientID   string
	RememberMe *bool
	Endpoint   string
}

type passportPayload struct {
	Username     string `json:"username"`
	Password     string `json:"password"`
	AuthyToken   string `json:"authy_token,omitempty"`
	ClientID     string `json:"client_id"`
	RememberMe   bool   `json:"remember_me"`
	UndeleteUser bool   `json:"undelete_user"`
}

type passportResponse struct {
	AccessToken string `json:"access_token"`
	Error       string `json:"error"`
	ErrorCode   int    `json:"error_code"`
}

// Login trades twitch credentials for an OAuth token usable in the
// Authorization header of the playback token request.
func Login(ctx context.Context, client utils.HTTPDoer, username, password string, opts LoginOptions) (*oauth2.Token, error) {
	payload := passportPayload{
		Username:   username,
		Password:   password,
		AuthyToken: opts.AuthyToken,
		ClientID:   opts.ClientID,
		RememberMe: true,
	}
	if payload.ClientID == "" {
		payload.ClientID = utils.DefaultClientID
	}
	if opts.RememberMe != nil {
		payload.RememberMe = *opts.RememberMe
	}
	endpoint := opts.Endpoint
	if endpoint == "" {
		endpoint = utils.PassportEndpoint
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("error encoding login payload: %v", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error contacting passport: %v", err)
	}
	defer resp.Body.Close()
	var parsed passportResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("error decoding passport response: %v", err)
	}
	if parsed.ErrorCode != 0 {
		return nil, fmt.Errorf("twitch server says: %s", parsed.Error)
	}
	if parsed.AccessToken == "" {
		return nil, errors.New("passport returned no access token")
	}
	return &oauth2.Token{AccessToken: parsed.AccessToken, TokenType: "OAuth"}, nil
}

// TokenSource picks the OAuth token for the playback request: an explicit
// value first, then the token file, otherwise nil (anonymous).
func TokenSource(explicit, tokenFile string) oauth2.TokenSource {
	if explicit != "" {
		return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: explicit, TokenType: "OAuth"})
	}
	if tokenFile == "" {
		return nil
	}
	token, err := LoadToken(tokenFile)
	if err != nil {
		log.Debug().Str("op", "twitch/passport").Msgf("no usable token in %s: %v", tokenFile, err)
		return nil
	}
	return oauth2.StaticTokenSource(token)
}

func LoadToken(file string) (*oauth2.Token, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	token := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(token); err != nil {
		return nil, err
	}
	if token.AccessToken == "" {
		return nil, errors.New("token file has no access token")
	}
	return token, nil
}

func SaveToken(file string, token *oauth2.Token) error {
	dir := filepath.Dir(file)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("unable to create token directory: %v", err)
		}
	}
	f, err := os.OpenFile(file, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("unable to cache oauth token: %v", err)
	}
	defer f.Close()
	if err := json.NewEncoder(f).Encode(token); err != nil {
		return fmt.Errorf("unable to encode token: %v", err)
	}
	return nil
}
