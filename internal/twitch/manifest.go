package twitch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"
	"github.com/tanq16/vodkit/internal/types"
	"github.com/tanq16/vodkit/internal/utils"
)

const vodManifestRestricted = "vod_manifest_restricted"

// VariantParser turns a variant playlist body into renditions, in file order.
type VariantParser interface {
	ParseVariants(body string) ([]types.Rendition, error)
}

// PositionalParser reads the usher playlist as two header lines followed by
// fixed three-line blocks (media tag, stream-inf tag, url). It does not
// understand the playlist grammar and breaks if usher changes the layout.
type PositionalParser struct{}

func (PositionalParser) ParseVariants(body string) ([]types.Rendition, error) {
	lines := strings.Split(body, "\n")
	renditions := []types.Rendition{}
	for i := 4; i < len(lines); i += 3 {
		nameLine, infLine := lines[i-2], lines[i-1]
		_, rest, ok := strings.Cut(nameLine, `NAME="`)
		if !ok {
			return nil, fmt.Errorf("%w: no NAME on line %d", utils.ErrManifestParse, i-2)
		}
		quality, _, _ := strings.Cut(rest, `"`)
		resolution := ""
		if strings.Contains(infLine, "RESOLUTION") {
			_, res, ok := strings.Cut(infLine, "RESOLUTION=")
			if !ok {
				return nil, fmt.Errorf("%w: malformed RESOLUTION on line %d", utils.ErrManifestParse, i-1)
			}
			resolution, _, _ = strings.Cut(res, ",")
		}
		renditions = append(renditions, types.Rendition{
			Quality:    quality,
			Resolution: resolution,
			URL:        lines[i],
		})
	}
	return renditions, nil
}

type manifestError struct {
	Error     string `json:"error"`
	ErrorCode string `json:"error_code"`
	Type      string `json:"type"`
}

// ManifestResolver fetches the usher variant playlist for a video.
type ManifestResolver struct {
	Endpoint string
	Parser   VariantParser
	client   utils.HTTPDoer
	log      zerolog.Logger
}

func NewManifestResolver(client utils.HTTPDoer, parser VariantParser, debug bool) *ManifestResolver {
	if parser == nil {
		parser = PositionalParser{}
	}
	return &ManifestResolver{
		Endpoint: utils.UsherEndpoint,
		Parser:   parser,
		client:   client,
		log:      utils.GetLogger("manifest-resolver", debug),
	}
}

func (m *ManifestResolver) manifestURL(videoID types.VideoID, cred types.Credential) string {
	params := url.Values{}
	params.Set("allow_source", "true")
	params.Set("player_backend", "mediaplayer")
	params.Set("playlist_include_framerate", "true")
	params.Set("reassignments_supported", "true")
	params.Set("sig", cred.Signature)
	params.Set("supported_codecs", "avc1")
	params.Set("token", cred.Token)
	params.Set("cdm", "wv")
	params.Set("player_version", "1.7.0")
	return fmt.Sprintf(m.Endpoint, videoID) + "?" + params.Encode()
}

func (m *ManifestResolver) ResolveVariants(ctx context.Context, videoID types.VideoID, cred types.Credential) ([]types.Rendition, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.manifestURL(videoID, cred), nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %v", err)
	}
	m.log.Debug().Str("vod", string(videoID)).Msg("fetching variant playlist")
	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error fetching variant playlist: %v", err)
	}
	defer resp.Body.Close()
	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading variant playlist: %v", err)
	}
	body := string(content)

	var apiErrors []manifestError
	if json.Unmarshal(content, &apiErrors) == nil && len(apiErrors) > 0 && apiErrors[0].ErrorCode == vodManifestRestricted {
		m.log.Warn().Str("vod", string(videoID)).Msg("manifest restricted, an oauth token with access to this video may be required")
		return nil, fmt.Errorf("%w: %s", utils.ErrManifestRestricted, apiErrors[0].Error)
	}

	if resp.StatusCode != http.StatusOK {
		m.log.Warn().Str("vod", string(videoID)).Int("status", resp.StatusCode).Msg("variant playlist request failed")
		return nil, fmt.Errorf("usher returned status code %d", resp.StatusCode)
	}

	renditions, err := m.Parser.ParseVariants(body)
	if err != nil {
		return nil, err
	}
	for _, r := range renditions {
		m.log.Debug().Str("quality", r.Quality).Str("resolution", r.Resolution).Msg("rendition found")
	}
	return renditions, nil
}
