package twitch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"

	"github.com/rs/zerolog"
	"github.com/tanq16/vodkit/internal/types"
	"github.com/tanq16/vodkit/internal/utils"
)

var (
	playlistBaseRegex = regexp.MustCompile(`^https?://.*\.net/.*/`)
	segmentRegex      = regexp.MustCompile(`#EXTINF.*?\n(.*?\.ts)`)
)

// FragmentPlanner lists the segments of one rendition's media playlist.
type FragmentPlanner struct {
	client utils.HTTPDoer
	log    zerolog.Logger
}

func NewFragmentPlanner(client utils.HTTPDoer, debug bool) *FragmentPlanner {
	return &FragmentPlanner{
		client: client,
		log:    utils.GetLogger("fragment-planner", debug),
	}
}

// PlanFragments returns the playlist body untouched together with the
// segments in the order they appear in it.
func (f *FragmentPlanner) PlanFragments(ctx context.Context, playlistURL string) (string, []types.Fragment, error) {
	base := playlistBaseRegex.FindString(playlistURL)
	if base == "" {
		return "", nil, fmt.Errorf("%w: %q", utils.ErrManifestURLRequired, playlistURL)
	}
	content, err := f.fetchPlaylist(ctx, playlistURL)
	if err != nil {
		return "", nil, err
	}
	fragments, err := PlanFromPlaylist(content, base)
	if err != nil {
		return "", nil, err
	}
	f.log.Debug().Int("fragments", len(fragments)).Str("base", base).Msg("fragments planned")
	return content, fragments, nil
}

// PlanFromPlaylist extracts every segment announced by an #EXTINF line.
// Segment names must be plain file names.
func PlanFromPlaylist(content, base string) ([]types.Fragment, error) {
	fragments := []types.Fragment{}
	for _, match := range segmentRegex.FindAllStringSubmatch(content, -1) {
		if !utils.IsPlainFileName(match[1]) {
			return nil, fmt.Errorf("%w: segment name %q is not a plain file name", utils.ErrManifestParse, match[1])
		}
		fragments = append(fragments, types.Fragment{
			Name: match[1],
			URL:  base + match[1],
		})
	}
	return fragments, nil
}

func (f *FragmentPlanner) fetchPlaylist(ctx context.Context, playlistURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, playlistURL, nil)
	if err != nil {
		return "", fmt.Errorf("error creating request: %v", err)
	}
	f.log.Debug().Str("url", playlistURL).Msg("downloading media playlist")
	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("error fetching media playlist: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("server returned status code %d", resp.StatusCode)
	}
	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("error reading media playlist: %v", err)
	}
	return string(content), nil
}
