package quiz

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"
)

// fakeTransport records everything the engine sends and exposes channels so
// tests can wait for asynchronous deliveries without sleeping.
type fakeTransport struct {
	mu     sync.Mutex
	nextID int
	sent   []string
	edits  []string

	broadcast chan string
	direct    chan string
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		broadcast: make(chan string, 256),
		direct:    make(chan string, 256),
	}
}

func (f *fakeTransport) SendMessage(ctx context.Context, chatID, text string) (string, error) {
	f.mu.Lock()
	f.nextID++
	id := fmt.Sprintf("msg-%d", f.nextID)
	f.sent = append(f.sent, text)
	f.mu.Unlock()
	f.broadcast <- text
	return id, nil
}

func (f *fakeTransport) SendMedia(ctx context.Context, chatID string, mediaType QuestionType, ref, caption string) error {
	f.mu.Lock()
	f.sent = append(f.sent, "media:"+ref)
	f.mu.Unlock()
	f.broadcast <- "media:" + ref
	return nil
}

func (f *fakeTransport) SendDirect(ctx context.Context, participantID, text string) error {
	f.direct <- text
	return nil
}

func (f *fakeTransport) EditMessage(ctx context.Context, chatID, messageID, text string) error {
	f.mu.Lock()
	f.edits = append(f.edits, text)
	f.mu.Unlock()
	return nil
}

func (f *fakeTransport) messages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

// waitFor receives from ch until a message containing substr arrives, or
// fails the test after a real-time deadline.
func waitFor(t *testing.T, ch chan string, substr string) string {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case msg := <-ch:
			if strings.Contains(msg, substr) {
				return msg
			}
		case <-deadline:
			t.Fatalf("timed out waiting for message containing %q", substr)
		}
	}
}

type fakeBank struct {
	questions []Question
	err       error
}

func (f *fakeBank) Load(ctx context.Context) ([]Question, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.questions, nil
}
