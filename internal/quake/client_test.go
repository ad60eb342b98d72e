package quake

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRecentEvents(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Path; got != "/history" {
			t.Errorf("path = %q, want /history", got)
		}
		if got := r.URL.Query().Get("codes"); got != "551" {
			t.Errorf("codes = %q, want 551", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"id":"e2","code":551,"time":"2026/08/30 12:00:00",
			 "earthquake":{"maxScale":45,"hypocenter":{"name":"宮城県沖","magnitude":5.2,"depth":50},"domesticTsunami":"None"}},
			{"id":"e1","code":551,"time":"2026/08/30 09:00:00",
			 "earthquake":{"maxScale":20,"hypocenter":{"name":"茨城県南部","magnitude":3.8,"depth":40},"domesticTsunami":"None"}}
		]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	events, err := c.RecentEvents(context.Background())
	if err != nil {
		t.Fatalf("RecentEvents: %v", err)
	}

	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].ID != "e2" {
		t.Errorf("first event = %q, want the newest e2", events[0].ID)
	}
	if events[0].Earthquake.MaxScale != 45 {
		t.Errorf("maxScale = %d, want 45", events[0].Earthquake.MaxScale)
	}
	if events[0].Earthquake.Hypocenter.Name != "宮城県沖" {
		t.Errorf("hypocenter = %q", events[0].Earthquake.Hypocenter.Name)
	}
}

func TestRecentEventsServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	if _, err := c.RecentEvents(context.Background()); err == nil {
		t.Fatal("expected an error on a 503 response")
	}
}
