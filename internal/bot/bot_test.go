package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/go-cmp/cmp"

	"bilidyn/internal/config"
	"bilidyn/internal/model"
	"bilidyn/internal/store"
)

type mockAPI struct {
	mu   sync.Mutex
	sent []tgbotapi.Chattable
}

func (m *mockAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, c)
	return tgbotapi.Message{}, nil
}

func (m *mockAPI) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return nil
}

func (m *mockAPI) StopReceivingUpdates() {}

func (m *mockAPI) lastText(t *testing.T) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		t.Fatal("no messages sent")
	}
	msg, ok := m.sent[len(m.sent)-1].(tgbotapi.MessageConfig)
	if !ok {
		t.Fatalf("last sent item is %T, want MessageConfig", m.sent[len(m.sent)-1])
	}
	return msg.Text
}

type mockSource struct {
	batch []*model.Dynamic
	err   error
}

func (m *mockSource) Dynamics(_ context.Context, _ int64) ([]*model.Dynamic, error) {
	return m.batch, m.err
}

type mockTemplates struct {
	reloadErr error
	reloads   int
}

func (m *mockTemplates) Reload() error {
	m.reloads++
	return m.reloadErr
}

func (m *mockTemplates) Styles() []string { return []string{"default"} }

func newTestBot(t *testing.T, source Source, templates templateCache) (*Bot, *mockAPI, *store.File) {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	st, err := store.Open(filepath.Join(t.TempDir(), "subs.json"), log)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	api := &mockAPI{}
	b := &Bot{
		api:       api,
		store:     st,
		source:    source,
		templates: templates,
		cfg:       &config.Config{},
		log:       log,
	}
	return b, api, st
}

const testKey = "telegram:PrivateMessage:100"

func TestHandleSubPrimesDedupWindow(t *testing.T) {
	var batch []*model.Dynamic
	for i := 0; i < 6; i++ {
		batch = append(batch, &model.Dynamic{ID: fmt.Sprintf("d%d", i), Kind: model.KindWord})
	}
	b, api, st := newTestBot(t, &mockSource{batch: batch}, &mockTemplates{})

	b.handleSub(context.Background(), 100, testKey, "12345")

	if got := api.lastText(t); !strings.Contains(got, "Subscribed to 12345") {
		t.Errorf("reply = %q, want subscribed confirmation", got)
	}
	sub, ok := st.Get(testKey, 12345)
	if !ok {
		t.Fatal("subscription not stored")
	}
	want := []string{"d0", "d1", "d2", "d3"}
	if diff := cmp.Diff(want, sub.RecentIDs); diff != "" {
		t.Errorf("recent ids mismatch (-want +got):\n%s", diff)
	}
}

func TestHandleSubSourceFailureStillSubscribes(t *testing.T) {
	b, api, st := newTestBot(t, &mockSource{err: errors.New("upstream down")}, &mockTemplates{})

	b.handleSub(context.Background(), 100, testKey, "12345")

	if got := api.lastText(t); !strings.Contains(got, "Subscribed to 12345") {
		t.Errorf("reply = %q, want subscribed confirmation", got)
	}
	sub, ok := st.Get(testKey, 12345)
	if !ok {
		t.Fatal("subscription not stored")
	}
	if len(sub.RecentIDs) != 0 {
		t.Errorf("recent ids = %v, want empty window", sub.RecentIDs)
	}
}

func TestHandleSubDuplicate(t *testing.T) {
	b, api, _ := newTestBot(t, &mockSource{}, &mockTemplates{})

	b.handleSub(context.Background(), 100, testKey, "12345")
	b.handleSub(context.Background(), 100, testKey, "12345")

	if got := api.lastText(t); !strings.Contains(got, "Already subscribed") {
		t.Errorf("reply = %q, want duplicate notice", got)
	}
}

func TestHandleSubBadArgs(t *testing.T) {
	for _, args := range []string{"", "abc", "-5"} {
		b, api, _ := newTestBot(t, &mockSource{}, &mockTemplates{})
		b.handleSub(context.Background(), 100, testKey, args)
		if got := api.lastText(t); !strings.Contains(got, "Usage") {
			t.Errorf("args %q: reply = %q, want usage hint", args, got)
		}
	}
}

func TestHandleUnsub(t *testing.T) {
	b, api, st := newTestBot(t, &mockSource{}, &mockTemplates{})
	if err := st.Add(testKey, model.Subscription{OwnerID: 12345}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	b.handleUnsub(100, testKey, "999")
	if got := api.lastText(t); !strings.Contains(got, "does not follow") {
		t.Errorf("reply = %q, want not-following notice", got)
	}

	b.handleUnsub(100, testKey, "12345")
	if got := api.lastText(t); !strings.Contains(got, "Unsubscribed from 12345") {
		t.Errorf("reply = %q, want removal confirmation", got)
	}
	if _, ok := st.Get(testKey, 12345); ok {
		t.Error("subscription still present after /unsub")
	}
}

func TestHandleList(t *testing.T) {
	b, api, st := newTestBot(t, &mockSource{}, &mockTemplates{})

	b.handleList(100, testKey)
	if got := api.lastText(t); !strings.Contains(got, "no subscriptions") {
		t.Errorf("reply = %q, want empty-list notice", got)
	}

	if err := st.Add(testKey, model.Subscription{OwnerID: 12345, FilterTypes: []string{"video"}}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	b.handleList(100, testKey)
	got := api.lastText(t)
	if !strings.Contains(got, "12345") || !strings.Contains(got, "video") {
		t.Errorf("reply = %q, want uid and filter types listed", got)
	}
}

func TestHandleFilter(t *testing.T) {
	tests := []struct {
		name string
		args string
		want string
	}{
		{name: "set types", args: "12345 types=video,draw", want: "Filters updated"},
		{name: "set regex", args: "12345 regex=lottery", want: "Filters updated"},
		{name: "clear", args: "12345 clear", want: "Filters cleared"},
		{name: "unknown type", args: "12345 types=podcast", want: "podcast"},
		{name: "bad regex", args: "12345 regex=[", want: "["},
		{name: "not following", args: "999 types=video", want: "does not follow"},
		{name: "no filters given", args: "12345", want: "usage"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, api, st := newTestBot(t, &mockSource{}, &mockTemplates{})
			if err := st.Add(testKey, model.Subscription{OwnerID: 12345}); err != nil {
				t.Fatalf("seed: %v", err)
			}
			b.handleFilter(100, testKey, tt.args)
			if got := api.lastText(t); !strings.Contains(got, tt.want) {
				t.Errorf("reply = %q, want substring %q", got, tt.want)
			}
		})
	}
}

func TestHandleFilterPersists(t *testing.T) {
	b, _, st := newTestBot(t, &mockSource{}, &mockTemplates{})
	if err := st.Add(testKey, model.Subscription{OwnerID: 12345}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	b.handleFilter(100, testKey, "12345 types=video regex=raffle")

	sub, ok := st.Get(testKey, 12345)
	if !ok {
		t.Fatal("subscription missing")
	}
	if diff := cmp.Diff([]string{"video"}, sub.FilterTypes); diff != "" {
		t.Errorf("types mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"raffle"}, sub.FilterRegex); diff != "" {
		t.Errorf("regex mismatch (-want +got):\n%s", diff)
	}
}

func TestHandleUnsubAll(t *testing.T) {
	b, api, st := newTestBot(t, &mockSource{}, &mockTemplates{})
	if err := st.Add(testKey, model.Subscription{OwnerID: 12345}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	b.handleUnsubAll(100, "200")
	if got := api.lastText(t); !strings.Contains(got, "No subscriber matches") {
		t.Errorf("reply = %q, want not-found notice", got)
	}

	b.handleUnsubAll(100, "100")
	if got := api.lastText(t); !strings.Contains(got, "Removed all subscriptions") {
		t.Errorf("reply = %q, want removal confirmation", got)
	}
	if _, ok := st.ForSubscriber(testKey); ok {
		t.Error("subscriber still present after /unsub_all")
	}
}

func TestHandleReload(t *testing.T) {
	templates := &mockTemplates{}
	b, api, _ := newTestBot(t, &mockSource{}, templates)

	b.handleReload(100)
	if templates.reloads != 1 {
		t.Errorf("reloads = %d, want 1", templates.reloads)
	}
	if got := api.lastText(t); !strings.Contains(got, "reloaded") {
		t.Errorf("reply = %q, want reload confirmation", got)
	}

	templates.reloadErr = errors.New("no templates")
	b.handleReload(100)
	if got := api.lastText(t); !strings.Contains(got, "reload failed") {
		t.Errorf("reply = %q, want failure notice", got)
	}
}

func TestChatKey(t *testing.T) {
	tests := []struct {
		name string
		chat *tgbotapi.Chat
		want string
	}{
		{name: "private", chat: &tgbotapi.Chat{ID: 7, Type: "private"}, want: "telegram:PrivateMessage:7"},
		{name: "group", chat: &tgbotapi.Chat{ID: -10, Type: "group"}, want: "telegram:GroupMessage:-10"},
		{name: "supergroup", chat: &tgbotapi.Chat{ID: -11, Type: "supergroup"}, want: "telegram:GroupMessage:-11"},
		{name: "channel", chat: &tgbotapi.Chat{ID: -12, Type: "channel"}, want: "telegram:ChannelMessage:-12"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := chatKey(tt.chat).String(); got != tt.want {
				t.Errorf("chatKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSendMessage(t *testing.T) {
	b, api, _ := newTestBot(t, &mockSource{}, &mockTemplates{})

	if err := b.SendMessage(testKey, "hello"); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	msg, ok := api.sent[len(api.sent)-1].(tgbotapi.MessageConfig)
	if !ok {
		t.Fatalf("sent item is %T, want MessageConfig", api.sent[len(api.sent)-1])
	}
	if msg.ChatID != 100 || msg.Text != "hello" {
		t.Errorf("sent chat=%d text=%q, want chat=100 text=hello", msg.ChatID, msg.Text)
	}

	if err := b.SendMessage("garbage-key", "x"); err == nil {
		t.Error("SendMessage with malformed key, want error")
	}
}

func TestSendPhoto(t *testing.T) {
	b, api, _ := newTestBot(t, &mockSource{}, &mockTemplates{})

	if err := b.SendPhoto(testKey, []byte{0xff, 0xd8}, "caption"); err != nil {
		t.Fatalf("SendPhoto: %v", err)
	}
	photo, ok := api.sent[len(api.sent)-1].(tgbotapi.PhotoConfig)
	if !ok {
		t.Fatalf("sent item is %T, want PhotoConfig", api.sent[len(api.sent)-1])
	}
	if photo.Caption != "caption" {
		t.Errorf("caption = %q, want %q", photo.Caption, "caption")
	}
}
