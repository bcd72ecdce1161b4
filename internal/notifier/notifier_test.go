package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"AlgoSentinel/internal/model"
	"AlgoSentinel/internal/state"
)

type fakeTelegram struct {
	mu       sync.Mutex
	sent     []map[string]string
	updates  string
	served   bool
	replied  chan struct{}
	failures int
}

func (f *fakeTelegram) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			f.mu.Lock()
			defer f.mu.Unlock()
			if f.failures > 0 {
				f.failures--
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			var payload map[string]string
			if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
				t.Errorf("decode payload: %v", err)
			}
			f.sent = append(f.sent, payload)
			if f.replied != nil {
				select {
				case f.replied <- struct{}{}:
				default:
				}
			}
			fmt.Fprint(w, `{"ok":true}`)
		case strings.HasSuffix(r.URL.Path, "/getUpdates"):
			f.mu.Lock()
			body := `{"ok":true,"result":[]}`
			if !f.served {
				body, f.served = f.updates, true
			}
			f.mu.Unlock()
			fmt.Fprint(w, body)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}
}

func newTestNotifier(t *testing.T, f *fakeTelegram) *TelegramNotifier {
	srv := httptest.NewServer(f.handler(t))
	t.Cleanup(srv.Close)
	n := NewTelegramNotifier("TOKEN", "42", "")
	n.BaseURL = srv.URL
	return n
}

func TestTelegramNotifier_Send(t *testing.T) {
	f := &fakeTelegram{}
	n := newTestNotifier(t, f)

	if err := n.Send(context.Background(), "<b>hi</b>"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(f.sent) != 1 {
		t.Fatalf("sent %d messages", len(f.sent))
	}
	if got := f.sent[0]; got["chat_id"] != "42" || got["parse_mode"] != "HTML" || got["text"] != "<b>hi</b>" {
		t.Errorf("payload = %v", got)
	}
}

func TestSendWithRetry(t *testing.T) {
	f := &fakeTelegram{failures: 2}
	n := newTestNotifier(t, f)

	if err := SendWithRetry(context.Background(), n, "x", 3, time.Millisecond); err != nil {
		t.Fatalf("SendWithRetry: %v", err)
	}
	if len(f.sent) != 1 {
		t.Errorf("sent %d, want 1", len(f.sent))
	}

	f.failures = 10
	err := SendWithRetry(context.Background(), n, "x", 1, time.Millisecond)
	if err == nil || !strings.Contains(err.Error(), "all 2 retries exhausted") {
		t.Errorf("err = %v", err)
	}
}

func TestStartPolling_AnswersConfiguredChatOnly(t *testing.T) {
	f := &fakeTelegram{
		replied: make(chan struct{}, 1),
		updates: `{"ok":true,"result":[
			{"update_id":7,"message":{"text":"/status","chat":{"id":99}}},
			{"update_id":8,"message":{"text":" /status ","chat":{"id":42}}}]}`,
	}
	n := newTestNotifier(t, f)

	var got []string
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		n.StartPolling(ctx, func(_ context.Context, cmd string) string {
			got = append(got, cmd)
			return "ok"
		})
		close(done)
	}()

	select {
	case <-f.replied:
	case <-time.After(5 * time.Second):
		t.Fatal("no reply sent")
	}
	cancel()
	<-done

	if len(got) != 1 || got[0] != "/status" {
		t.Errorf("handled commands = %v", got)
	}
}

func TestFormatRunComplete(t *testing.T) {
	msg := FormatRunComplete(RunDigest{
		RunID: "0123456789abcdef",
		Summaries: []model.SummaryMetrics{
			{Symbol: "AAPL", Status: model.StatusOK, TradeStatus: model.TradesPresent, TradeCount: 3, Wins: 2, WinRate: 2.0 / 3,
				TotalPnL: decimal.NewFromInt(5), MLStatus: model.MLOK, MLAccuracyLogReg: model.Some(0.52), MLAccuracyTree: model.Some(0.61)},
			{Symbol: "MSFT", Status: model.StatusOK, TradeStatus: model.TradesPresent, TradeCount: 1, Wins: 0,
				MLStatus: model.MLPartial, MLAccuracyLogReg: model.Some(0.5), MLAccuracyTree: model.None()},
			{Symbol: "GONE", Status: model.StatusUnavailable, TradeStatus: model.TradesNone, MLStatus: model.MLNotRun},
		},
		Took: 3 * time.Second,
	})

	for _, want := range []string{
		"Run: <code>01234567</code>",
		"Symbols processed: 2/3",
		"Total trades: 4",
		"Win rate: 50.0%",
		"<b>AAPL</b>: 3 trades",
		"tree n/a",
		"<b>GONE</b>: UNAVAILABLE",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}
}

func TestFormatRunComplete_NoTrades(t *testing.T) {
	msg := FormatRunComplete(RunDigest{RunID: "r", Summaries: []model.SummaryMetrics{
		{Symbol: "A", Status: model.StatusOK, TradeStatus: model.TradesNone},
	}})
	if !strings.Contains(msg, "Win rate: n/a") || !strings.Contains(msg, "no trades") {
		t.Errorf("unexpected message:\n%s", msg)
	}
}

func TestFormatRunFailed_EscapesError(t *testing.T) {
	msg := FormatRunFailed("run", errors.New("bad <tag>"))
	if !strings.Contains(msg, "bad &lt;tag&gt;") {
		t.Errorf("error not escaped:\n%s", msg)
	}
}

func TestFormatStatus(t *testing.T) {
	if msg := FormatStatus(state.LastRun{}, false); !strings.Contains(msg, "No run recorded yet") {
		t.Errorf("empty status = %q", msg)
	}
	msg := FormatStatus(state.LastRun{RunID: "abc", Status: "OK", Symbols: []string{"A", "B"}, Processed: 2, TotalTrades: 4, WinRate: 0.25}, true)
	for _, want := range []string{"in progress", "Symbols processed: 2/2", "Win rate: 25.0%"} {
		if !strings.Contains(msg, want) {
			t.Errorf("status missing %q:\n%s", want, msg)
		}
	}
}

func TestStripTags(t *testing.T) {
	if got := stripTags("<b>A &amp; B</b>"); got != "A & B" {
		t.Errorf("stripTags = %q", got)
	}
}
