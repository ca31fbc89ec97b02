package twitch

import (
	"fmt"
	"regexp"

	"github.com/tanq16/vodkit/internal/types"
	"github.com/tanq16/vodkit/internal/utils"
)

var (
	videoURLRegex = regexp.MustCompile(`(http(s)?://)?(www\.)?twitch\.tv/videos/(\d+)`)
	videoIDRegex  = regexp.MustCompile(`^\d+$`)
)

// ParseVideoID accepts a twitch.tv/videos/<id> link or a bare numeric id.
func ParseVideoID(rawURL string) (types.VideoID, error) {
	if videoIDRegex.MatchString(rawURL) {
		return types.VideoID(rawURL), nil
	}
	matches := videoURLRegex.FindStringSubmatch(rawURL)
	if len(matches) < 5 || matches[4] == "" {
		return "", fmt.Errorf("%w: %s", utils.ErrInvalidVideoURL, rawURL)
	}
	return types.VideoID(matches[4]), nil
}
