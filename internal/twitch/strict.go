package twitch

import (
	"fmt"
	"strings"

	"github.com/grafov/m3u8"
	"github.com/tanq16/vodkit/internal/types"
	"github.com/tanq16/vodkit/internal/utils"
)

// StrictParser decodes the variant playlist with a real HLS grammar instead
// of relying on line positions.
type StrictParser struct{}

func (StrictParser) ParseVariants(body string) ([]types.Rendition, error) {
	playlist, listType, err := m3u8.DecodeFrom(strings.NewReader(body), false)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrManifestParse, err)
	}
	if listType != m3u8.MASTER {
		return nil, fmt.Errorf("%w: not a master playlist", utils.ErrManifestParse)
	}
	master := playlist.(*m3u8.MasterPlaylist)
	renditions := []types.Rendition{}
	for _, variant := range master.Variants {
		if variant == nil {
			continue
		}
		renditions = append(renditions, types.Rendition{
			Quality:    variantQuality(variant),
			Resolution: variant.Resolution,
			URL:        variant.URI,
		})
	}
	return renditions, nil
}

func variantQuality(variant *m3u8.Variant) string {
	for _, alt := range variant.Alternatives {
		if alt != nil && alt.Type == "VIDEO" && alt.GroupId == variant.Video && alt.Name != "" {
			return alt.Name
		}
	}
	if variant.Name != "" {
		return variant.Name
	}
	return variant.Video
}
