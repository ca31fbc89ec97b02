package twitch

import (
	"context"
	"fmt"
	"net/http"
	"testing"
)

func TestChatDownloadFollowsCursor(t *testing.T) {
	var cursors []string
	client := newRoutedClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v5/videos/42/comments" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Client-ID"); got != "cid" {
			t.Errorf("Client-ID = %q", got)
		}
		cursor := r.URL.Query().Get("cursor")
		cursors = append(cursors, cursor)
		switch cursor {
		case "":
			fmt.Fprint(w, `{"comments":[{"_id":"a","content_offset_seconds":1.5},{"_id":"b","content_offset_seconds":3}],"_next":"c1"}`)
		case "c1":
			fmt.Fprint(w, `{"comments":[{"_id":"c","content_offset_seconds":9}],"_prev":"c0","_next":"c2"}`)
		case "c2":
			fmt.Fprint(w, `{"comments":[{"_id":"d","content_offset_seconds":12}],"_prev":"c1"}`)
		default:
			t.Errorf("unexpected cursor %q", cursor)
		}
	}))

	export, err := NewChatPager(client, "cid", false).Download(context.Background(), "42")
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	if export.VideoID != "42" {
		t.Errorf("VideoID = %q", export.VideoID)
	}
	if len(export.Pages) != 3 {
		t.Fatalf("got %d pages, want 3", len(export.Pages))
	}
	if len(export.Pages[0].Comments) != 2 || export.Pages[2].Comments[0].ID != "d" {
		t.Errorf("pages = %+v", export.Pages)
	}
	want := []string{"", "c1", "c2"}
	if fmt.Sprint(cursors) != fmt.Sprint(want) {
		t.Errorf("cursors = %q, want %q", cursors, want)
	}
}

func TestChatDownloadStopsOnEmptyPage(t *testing.T) {
	requests := 0
	client := newRoutedClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if r.URL.Query().Get("cursor") == "" {
			fmt.Fprint(w, `{"comments":[{"_id":"a"}],"_next":"more"}`)
			return
		}
		fmt.Fprint(w, `{"comments":[],"_next":"never-followed"}`)
	}))

	export, err := NewChatPager(client, "cid", false).Download(context.Background(), "42")
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	if len(export.Pages) != 1 || requests != 2 {
		t.Errorf("pages = %d requests = %d, want 1 and 2", len(export.Pages), requests)
	}
}

func TestChatDownloadServerError(t *testing.T) {
	client := newRoutedClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusGone)
	}))
	if _, err := NewChatPager(client, "cid", false).Download(context.Background(), "42"); err == nil {
		t.Fatal("Download() succeeded on a 410")
	}
}
