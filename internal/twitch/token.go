package twitch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/tanq16/vodkit/internal/types"
	"github.com/tanq16/vodkit/internal/utils"
	"golang.org/x/oauth2"
)

const playbackAccessTokenQuery = `query PlaybackAccessToken_Template($login: String!, $isLive: Boolean!, $vodID: ID!, $isVod: Boolean!, $playerType: String!) {  streamPlaybackAccessToken(channelName: $login, params: {platform: "web", playerBackend: "mediaplayer", playerType: $playerType}) @include(if: $isLive) {    value    signature    __typename  }  videoPlaybackAccessToken(id: $vodID, params: {platform: "web", playerBackend: "mediaplayer", playerType: $playerType}) @include(if: $isVod) {    value    signature    __typename  }}`

type gqlRequest struct {
	OperationName string       `json:"operationName"`
	Query         string       `json:"query"`
	Variables     gqlVariables `json:"variables"`
}

type gqlVariables struct {
	IsLive     bool   `json:"isLive"`
	Login      string `json:"login"`
	IsVod      bool   `json:"isVod"`
	VodID      string `json:"vodID"`
	PlayerType string `json:"playerType"`
}

type playbackAccessTokenResponse struct {
	Data struct {
		VideoPlaybackAccessToken *struct {
			Value     string `json:"value"`
			Signature string `json:"signature"`
		} `json:"videoPlaybackAccessToken"`
	} `json:"data"`
}

// TokenNegotiator exchanges a video id for a signed playback credential.
type TokenNegotiator struct {
	Endpoint    string
	client      utils.HTTPDoer
	clientID    string
	tokenSource oauth2.TokenSource
	log         zerolog.Logger
}

// NewTokenNegotiator builds a negotiator. A nil token source means the
// request is sent unauthenticated, with an empty OAuth value.
func NewTokenNegotiator(client utils.HTTPDoer, clientID string, ts oauth2.TokenSource, debug bool) *TokenNegotiator {
	return &TokenNegotiator{
		Endpoint:    utils.GQLEndpoint,
		client:      client,
		clientID:    clientID,
		tokenSource: ts,
		log:         utils.GetLogger("token-negotiator", debug),
	}
}

func (t *TokenNegotiator) oauthValue() (string, error) {
	if t.tokenSource == nil {
		return "", nil
	}
	tok, err := t.tokenSource.Token()
	if err != nil {
		return "", fmt.Errorf("error reading oauth token: %v", err)
	}
	return tok.AccessToken, nil
}

// RequestCredential makes a single attempt; retrying is left to the caller.
func (t *TokenNegotiator) RequestCredential(ctx context.Context, videoID types.VideoID) (types.Credential, error) {
	oauthToken, err := t.oauthValue()
	if err != nil {
		return types.Credential{}, err
	}
	body, err := json.Marshal(gqlRequest{
		OperationName: "PlaybackAccessToken_Template",
		Query:         playbackAccessTokenQuery,
		Variables: gqlVariables{
			IsLive:     false,
			Login:      "",
			IsVod:      true,
			VodID:      string(videoID),
			PlayerType: "site",
		},
	})
	if err != nil {
		return types.Credential{}, fmt.Errorf("error encoding gql request: %v", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.Endpoint, bytes.NewReader(body))
	if err != nil {
		return types.Credential{}, fmt.Errorf("error creating request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Client-ID", t.clientID)
	req.Header.Set("Authorization", "OAuth "+oauthToken)

	t.log.Debug().Str("vod", string(videoID)).Msg("generating access token")
	resp, err := t.client.Do(req)
	if err != nil {
		return types.Credential{}, fmt.Errorf("error requesting access token: %v", err)
	}
	defer resp.Body.Close()

	var parsed playbackAccessTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		t.log.Debug().Err(err).Int("status", resp.StatusCode).Msg("undecodable access token response")
		return types.Credential{}, fmt.Errorf("%w: status %d", utils.ErrAuthDenied, resp.StatusCode)
	}
	pat := parsed.Data.VideoPlaybackAccessToken
	if pat == nil || pat.Signature == "" || pat.Value == "" {
		t.log.Debug().Str("clientID", t.clientID).Msg("access token response missing signature or value")
		return types.Credential{}, fmt.Errorf("%w: client id %s", utils.ErrAuthDenied, t.clientID)
	}
	return types.Credential{Signature: pat.Signature, Token: pat.Value}, nil
}
