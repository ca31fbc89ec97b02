package twitch

import (
	"errors"
	"testing"

	"github.com/tanq16/vodkit/internal/types"
	"github.com/tanq16/vodkit/internal/utils"
)

func TestParseVideoID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    types.VideoID
		wantErr bool
	}{
		{"full https url", "https://www.twitch.tv/videos/1234567890", "1234567890", false},
		{"no scheme", "twitch.tv/videos/42", "42", false},
		{"query string", "https://twitch.tv/videos/987?t=1h2m", "987", false},
		{"bare id", "555", "555", false},
		{"channel url", "https://www.twitch.tv/somechannel", "", true},
		{"clip url", "https://clips.twitch.tv/FunnyClip", "", true},
		{"empty", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseVideoID(tt.input)
			if tt.wantErr {
				if !errors.Is(err, utils.ErrInvalidVideoURL) {
					t.Fatalf("ParseVideoID(%q) error = %v, want ErrInvalidVideoURL", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseVideoID(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseVideoID(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
