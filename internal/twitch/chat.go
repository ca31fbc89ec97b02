package twitch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/rs/zerolog"
	"github.com/tanq16/vodkit/internal/types"
	"github.com/tanq16/vodkit/internal/utils"
)

// ChatPager walks the comments API one cursor at a time.
type ChatPager struct {
	Endpoint string
	client   utils.HTTPDoer
	clientID string
	log      zerolog.Logger
}

func NewChatPager(client utils.HTTPDoer, clientID string, debug bool) *ChatPager {
	return &ChatPager{
		Endpoint: utils.CommentsEndpoint,
		client:   client,
		clientID: clientID,
		log:      utils.GetLogger("chat-pager", debug),
	}
}

func (c *ChatPager) fetchPage(ctx context.Context, videoID types.VideoID, cursor string) (types.ChatPage, error) {
	var page types.ChatPage
	endpoint := fmt.Sprintf(c.Endpoint, videoID) + "?cursor=" + url.QueryEscape(cursor)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return page, fmt.Errorf("error creating request: %v", err)
	}
	req.Header.Set("Client-ID", c.clientID)
	resp, err := c.client.Do(req)
	if err != nil {
		return page, fmt.Errorf("error fetching comments: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return page, fmt.Errorf("comments api returned status code %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return page, fmt.Errorf("error decoding comments page: %v", err)
	}
	return page, nil
}

// Download collects pages until one comes back empty or without a next cursor.
func (c *ChatPager) Download(ctx context.Context, videoID types.VideoID) (types.ChatExport, error) {
	export := types.ChatExport{VideoID: videoID, Pages: []types.ChatPage{}}
	c.log.Info().Str("vod", string(videoID)).Msg("downloading chat")
	cursor := ""
	for {
		page, err := c.fetchPage(ctx, videoID, cursor)
		if err != nil {
			return export, err
		}
		if len(page.Comments) == 0 {
			break
		}
		export.Pages = append(export.Pages, page)
		label := cursor
		if label == "" {
			label = "initial"
		}
		c.log.Debug().Int("comments", len(page.Comments)).Str("cursor", label).Msg("comments page downloaded")
		cursor = page.Next
		if cursor == "" {
			break
		}
	}
	c.log.Info().Int("pages", len(export.Pages)).Msg("chat downloaded")
	return export, nil
}
