package live

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"synr/internal/util"
)

func TestFeedConsume(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		messages := []string{
			`{"symbol": "XAUUSD", "time": 1715342400000, "open": 2350, "high": 2352, "low": 2349, "close": 2351, "volume": 120}`,
			`not json`,
			`{"symbol": "XAUUSD", "time": 1715342400000, "open": 2350, "high": 2353, "low": 2349, "close": 2352.5, "volume": 180}`,
		}
		for _, msg := range messages {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return
			}
		}
		// Hold the connection until the client goes away.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	model := NewCandleModel(10)
	feed := NewFeed(url, model, nil, util.NewLogger("error", "text"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- feed.consume(ctx) }()

	deadline := time.After(3 * time.Second)
	for model.Count("XAUUSD") == 0 || func() bool { c, _ := model.Latest("XAUUSD"); return c.Close != 2352.5 }() {
		select {
		case <-deadline:
			t.Fatal("feed did not deliver both candles in time")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	<-done

	// Both messages target the same bucket, so the model holds one candle
	// with the later close.
	if model.Count("XAUUSD") != 1 {
		t.Fatalf("Count = %d, want 1 merged bucket", model.Count("XAUUSD"))
	}
	latest, _ := model.Latest("XAUUSD")
	if latest.Close != 2352.5 {
		t.Fatalf("Close = %v, want 2352.5", latest.Close)
	}
}
