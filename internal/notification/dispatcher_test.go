package notification

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/hitoshi/sportsreg/internal/model"
)

func testDispatcherConfig() DispatcherConfig {
	return DispatcherConfig{
		QueueSize:   8,
		MaxRetries:  3,
		SendTimeout: time.Second,
		FromName:    "Melbourne Community Sports",
	}
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

// 投入されたメールがバックグラウンドで送信されることを検証
func TestDispatcher_SendsEnqueuedEmail(t *testing.T) {
	var mu sync.Mutex
	var sent []EmailRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var email EmailRequest
		json.NewDecoder(r.Body).Decode(&email)
		mu.Lock()
		sent = append(sent, email)
		mu.Unlock()
		json.NewEncoder(w).Encode(EmailResponse{Success: true, MessageID: "msg-1"})
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := NewClient(server.Client(), testLogger(), server.URL)
	d := NewDispatcher(client, testLogger(), nil, testDispatcherConfig())
	d.Start(ctx)

	user := &model.User{ID: "user-1", FirstName: "Taro", LastName: "Yamada", Email: "taro@example.com"}
	program := &model.Program{ID: 3, Name: "Basketball Training"}
	d.EnqueueJoinConfirmation(user, program)

	waitFor(t, 2*time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(sent) == 1
	})

	mu.Lock()
	defer mu.Unlock()
	if sent[0].To != "taro@example.com" {
		t.Errorf("sent[0].To = %q, want %q", sent[0].To, "taro@example.com")
	}

	cancel()
	d.Wait()
}

// 送信失敗時に再試行して成功することを検証
func TestDispatcher_RetriesOnFailure(t *testing.T) {
	var mu sync.Mutex
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		mu.Lock()
		attempts++
		current := attempts
		mu.Unlock()

		if current == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(EmailResponse{Success: true, MessageID: "msg-1"})
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := NewClient(server.Client(), testLogger(), server.URL)
	d := NewDispatcher(client, testLogger(), nil, testDispatcherConfig())
	d.Start(ctx)

	user := &model.User{ID: "user-1", FirstName: "Taro", LastName: "Yamada", Email: "taro@example.com"}
	program := &model.Program{ID: 3, Name: "Basketball Training"}
	d.EnqueueJoinConfirmation(user, program)

	waitFor(t, 5*time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return attempts >= 2
	})

	cancel()
	d.Wait()
}

// キュー満杯時に投入が破棄され、ブロックしないことを検証
func TestDispatcher_DropsWhenQueueFull(t *testing.T) {
	config := testDispatcherConfig()
	config.QueueSize = 2

	client := NewClient(http.DefaultClient, testLogger(), "http://localhost:0")
	d := NewDispatcher(client, testLogger(), nil, config)
	// Startしないのでキューは消費されない

	user := &model.User{ID: "user-1", FirstName: "Taro", LastName: "Yamada", Email: "taro@example.com"}
	program := &model.Program{ID: 3, Name: "Basketball Training"}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 5; i++ {
			d.EnqueueJoinConfirmation(user, program)
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("EnqueueJoinConfirmation blocked on full queue")
	}

	if d.QueueLength() != 2 {
		t.Errorf("QueueLength() = %d, want %d", d.QueueLength(), 2)
	}
}
