package notifier

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"StockLens/internal/model"
)

type fakeBot struct {
	mu       sync.Mutex
	sent     []map[string]string
	failures int
	updates  string
}

func (b *fakeBot) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			b.mu.Lock()
			defer b.mu.Unlock()
			if b.failures > 0 {
				b.failures--
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			body, _ := io.ReadAll(r.Body)
			var msg map[string]string
			if err := json.Unmarshal(body, &msg); err != nil {
				t.Errorf("bad sendMessage body %q: %v", body, err)
			}
			b.sent = append(b.sent, msg)
			_, _ = w.Write([]byte(`{"ok":true}`))
		case strings.HasSuffix(r.URL.Path, "/getUpdates"):
			if r.URL.Query().Get("offset") == "" {
				t.Error("getUpdates without offset")
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(b.updates))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}
}

func newTestNotifier(t *testing.T, bot *fakeBot) *TelegramNotifier {
	t.Helper()
	srv := httptest.NewServer(bot.handler(t))
	t.Cleanup(srv.Close)
	tn := NewTelegramNotifier("TOKEN", "42", "")
	tn.APIBase = srv.URL
	tn.Backoff = time.Millisecond
	return tn
}

func TestSend(t *testing.T) {
	bot := &fakeBot{}
	tn := newTestNotifier(t, bot)
	if err := tn.Send(context.Background(), "<b>hi</b>"); err != nil {
		t.Fatal(err)
	}
	if len(bot.sent) != 1 || bot.sent[0]["chat_id"] != "42" || bot.sent[0]["parse_mode"] != "HTML" {
		t.Errorf("unexpected message %+v", bot.sent)
	}
}

func TestSendWithRetry(t *testing.T) {
	bot := &fakeBot{failures: 2}
	tn := newTestNotifier(t, bot)
	if err := tn.SendWithRetry(context.Background(), "hello", 3); err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if len(bot.sent) != 1 {
		t.Errorf("expected 1 delivered message, got %d", len(bot.sent))
	}

	bot.failures = 10
	if err := tn.SendWithRetry(context.Background(), "hello", 1); err == nil {
		t.Error("expected error once retries are exhausted")
	}
}

func TestPollOnce_DispatchesCommands(t *testing.T) {
	bot := &fakeBot{updates: `{"ok":true,"result":[
		{"update_id":7,"message":{"text":" /insights aapl "}},
		{"update_id":8},
		{"update_id":9,"message":{"text":"/watchlist"}}
	]}`}
	tn := newTestNotifier(t, bot)

	var got []string
	next, err := tn.pollOnce(context.Background(), 0, 0, func(_ context.Context, cmd string) string {
		got = append(got, cmd)
		return "reply to " + cmd
	})
	if err != nil {
		t.Fatal(err)
	}
	if next != 10 {
		t.Errorf("expected next offset 10, got %d", next)
	}
	if len(got) != 2 || got[0] != "/insights aapl" || got[1] != "/watchlist" {
		t.Errorf("unexpected commands %v", got)
	}
	if len(bot.sent) != 2 || bot.sent[0]["text"] != "reply to /insights aapl" {
		t.Errorf("unexpected replies %+v", bot.sent)
	}
}

func TestFormatInsights(t *testing.T) {
	hi, lo, pe := 199.62, 164.08, 28.46
	msg := FormatInsights(model.StockInsights{
		Symbol:      "AAPL",
		LatestPrice: 172.5,
		LatestDate:  "2024-03-08",
		DayChange:   model.Change{Absolute: -3.1, Percentage: -1.77},
		Trend7Day:   model.Trend{Direction: model.DirectionDown, Percentage: -2.4},
		Trend30Day:  model.Trend{Direction: model.DirectionUp, Percentage: 4},
		Volume:      51234567,
		High52Week:  &hi,
		Low52Week:   &lo,
		PERatio:     &pe,
	}, true)

	for _, want := range []string{
		"<b>AAPL</b> $172.50 (2024-03-08)",
		"Day: -$3.10 (-1.77%)",
		"7d: 📉 -2.40% | 30d: 📈 +4.00%",
		"Volume: 51.23M",
		"52w: $164.08 - $199.62",
		"P/E: 28.46",
		"cached",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}
}

func TestFormatDigest_Empty(t *testing.T) {
	msg := FormatDigest(time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC), nil)
	if !strings.Contains(msg, "2024-03-08") || !strings.Contains(msg, "empty") {
		t.Errorf("unexpected digest %q", msg)
	}
}
