package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/nulzo/canteen-api/internal/store"
	"github.com/nulzo/canteen-api/internal/store/model"
	"github.com/nulzo/canteen-api/internal/store/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testToken = "123:ABC"

// fakeBot serves getUpdates and records sendMessage calls.
type fakeBot struct {
	mu      sync.Mutex
	updates string
	sent    map[int64][]string
	failFor int64
}

func (f *fakeBot) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/bot"+testToken+"/getUpdates", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		_, _ = w.Write([]byte(f.updates))
	})
	mux.HandleFunc("/bot"+testToken+"/sendMessage", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			ChatID int64  `json:"chat_id"`
			Text   string `json:"text"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		f.mu.Lock()
		defer f.mu.Unlock()
		if body.ChatID == f.failFor {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`))
			return
		}
		f.sent[body.ChatID] = append(f.sent[body.ChatID], body.Text)
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":1}}`))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"ok":false,"error_code":401,"description":"Unauthorized"}`))
	})
	return mux
}

func (f *fakeBot) messages(chatID int64) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent[chatID]...)
}

func setup(t *testing.T, updates string) (*fakeBot, *Client, Service, store.Repository) {
	t.Helper()
	bot := &fakeBot{updates: updates, sent: map[int64][]string{}}
	srv := httptest.NewServer(bot.handler(t))
	t.Cleanup(srv.Close)

	repo, err := sqlite.NewSQLiteStorage(filepath.Join(t.TempDir(), "telegram.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	client := NewClient(srv.Client(), srv.URL, testToken)
	return bot, client, NewService(zap.NewNop(), repo, client), repo
}

func TestClient_GetUpdates(t *testing.T) {
	_, client, _, _ := setup(t, `{"ok":true,"result":[
		{"update_id":1,"message":{"message_id":10,"date":1,"chat":{"id":111,"type":"private"},"text":"hi"}},
		{"update_id":2,"message":{"message_id":11,"date":2,"chat":{"id":-222,"type":"group","title":"Kitchen"},"text":"/start"}}
	]}`)

	updates, err := client.GetUpdates(context.Background())
	require.NoError(t, err)
	require.Len(t, updates, 2)
	assert.Equal(t, int64(-222), updates[1].Message.Chat.ID)
	assert.Equal(t, "Kitchen", updates[1].Message.Chat.Title)
}

func TestClient_OkFalse(t *testing.T) {
	_, client, _, _ := setup(t, `{"ok":false,"error_code":409,"description":"Conflict: terminated by other getUpdates request"}`)

	_, err := client.GetUpdates(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 409, apiErr.Code)
}

func TestClient_WrongToken(t *testing.T) {
	bot := &fakeBot{sent: map[int64][]string{}}
	srv := httptest.NewServer(bot.handler(t))
	defer srv.Close()

	client := NewClient(srv.Client(), srv.URL, "wrong")
	_, err := client.GetUpdates(context.Background())

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 401, apiErr.Code)
	assert.NotContains(t, err.Error(), "wrong")
}

func TestRegisterLatestChat(t *testing.T) {
	_, _, svc, repo := setup(t, `{"ok":true,"result":[
		{"update_id":1,"message":{"message_id":10,"date":1,"chat":{"id":111,"type":"private"}}},
		{"update_id":2,"message":{"message_id":11,"date":2,"chat":{"id":222,"type":"private"}}}
	]}`)
	ctx := context.Background()

	update, err := svc.RegisterLatestChat(ctx)
	require.NoError(t, err)
	require.NotNil(t, update)
	assert.Equal(t, int64(2), update.UpdateID)

	ok, err := repo.TelegramChats().Exists(ctx, 222)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = svc.RegisterLatestChat(ctx)
	assert.ErrorIs(t, err, store.ErrConflict)
}

func TestRegisterLatestChat_NoUpdates(t *testing.T) {
	_, _, svc, _ := setup(t, `{"ok":true,"result":[]}`)

	update, err := svc.RegisterLatestChat(context.Background())
	require.NoError(t, err)
	assert.Nil(t, update)
}

func TestRegisterLatestChat_NoMessage(t *testing.T) {
	_, _, svc, _ := setup(t, `{"ok":true,"result":[{"update_id":9}]}`)

	_, err := svc.RegisterLatestChat(context.Background())
	assert.ErrorIs(t, err, ErrNoChat)
}

func TestNotifyAll_ContinuesPastFailures(t *testing.T) {
	bot, _, svc, repo := setup(t, `{"ok":true,"result":[]}`)
	ctx := context.Background()
	bot.failFor = 2

	for _, id := range []int64{1, 2, 3} {
		require.NoError(t, repo.TelegramChats().Create(ctx, &model.TelegramChat{ChatID: id, CreatedAt: time.Now()}))
	}

	err := svc.NotifyAll(ctx, "lunch is served")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat 2")

	assert.Equal(t, []string{"lunch is served"}, bot.messages(1))
	assert.Empty(t, bot.messages(2))
	assert.Equal(t, []string{"lunch is served"}, bot.messages(3))
}

func TestNotifyAll_FansOutToEveryChat(t *testing.T) {
	bot, _, svc, repo := setup(t, `{"ok":true,"result":[]}`)
	ctx := context.Background()
	bot.failFor = 13

	const chats = 3 * maxConcurrentSends
	for id := int64(1); id <= chats; id++ {
		require.NoError(t, repo.TelegramChats().Create(ctx, &model.TelegramChat{ChatID: id, CreatedAt: time.Now()}))
	}

	err := svc.NotifyAll(ctx, "dinner cancelled")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat 13")
	assert.Contains(t, err.Error(), "1 error occurred")

	for id := int64(1); id <= chats; id++ {
		if id == 13 {
			assert.Empty(t, bot.messages(id))
			continue
		}
		assert.Equal(t, []string{"dinner cancelled"}, bot.messages(id), "chat %d", id)
	}
}

func TestNotifyAll_NoChats(t *testing.T) {
	_, _, svc, _ := setup(t, `{"ok":true,"result":[]}`)
	assert.NoError(t, svc.NotifyAll(context.Background(), "hello"))
}

func TestNotifier_DeliversRollup(t *testing.T) {
	bot, _, svc, repo := setup(t, `{"ok":true,"result":[]}`)
	ctx := context.Background()
	require.NoError(t, repo.TelegramChats().Create(ctx, &model.TelegramChat{ChatID: 7, CreatedAt: time.Now()}))

	n := NewNotifier(zap.NewNop(), svc)
	n.Start(ctx)

	year, month := 2026, 3
	require.NoError(t, n.OnMonthlyRollup(ctx, &model.Counter{Year: &year, Month: &month, BreakfastCount: 10, LunchCount: 4, DinnerCount: 2}))
	n.Stop()

	msgs := bot.messages(7)
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "March 2026")
	assert.Contains(t, msgs[0], "Breakfast: 10")
}

func TestFormatRollup_WithoutPeriod(t *testing.T) {
	msg := FormatRollup(&model.Counter{Date: "2026-04-01", DinnerCount: 3})
	assert.Contains(t, msg, "2026-04-01")
	assert.Contains(t, msg, "Dinner: 3")
}
