package channel_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/dfbb/qrscan/internal/channel"
)

// mockChannel implements Channel for testing
type mockChannel struct {
	name string
	sent []channel.OutboundMessage
}

func (m *mockChannel) Name() string                      { return m.name }
func (m *mockChannel) Start(_ context.Context) error     { return nil }
func (m *mockChannel) Stop() error                       { return nil }
func (m *mockChannel) Send(msg channel.OutboundMessage) error {
	m.sent = append(m.sent, msg)
	return nil
}

func TestChannelInterface(t *testing.T) {
	var ch channel.Channel = &mockChannel{name: "test"}
	if ch.Name() != "test" {
		t.Errorf("Name() = %q, want %q", ch.Name(), "test")
	}
}

func TestManagerRouteOutbound(t *testing.T) {
	inbound := make(chan channel.InboundMessage, 1)
	outbound := make(chan channel.OutboundMessage, 1)
	mock := &mockChannel{name: "telegram"}

	mgr := channel.NewManager(inbound, outbound)
	mgr.Register(mock)

	msg := channel.OutboundMessage{
		Channel: "telegram",
		ChatID:  "123",
		Text:    "hello",
	}
	outbound <- msg

	ctx, cancel := context.WithCancel(context.Background())
	go mgr.Run(ctx)

	// give dispatcher time to process
	time.Sleep(50 * time.Millisecond)
	cancel()

	if len(mock.sent) != 1 || mock.sent[0].Text != "hello" {
		t.Errorf("expected message to be dispatched to mock channel, got %v", mock.sent)
	}
}

func TestDownloadToTemp(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte("fake-image-bytes"))
	}))
	defer srv.Close()

	path, err := channel.DownloadToTemp(srv.URL, map[string]string{"Authorization": "Bearer tok"})
	if err != nil {
		t.Fatalf("DownloadToTemp: %v", err)
	}
	defer os.Remove(path)

	if gotAuth != "Bearer tok" {
		t.Errorf("Authorization header = %q, want %q", gotAuth, "Bearer tok")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading downloaded file: %v", err)
	}
	if string(data) != "fake-image-bytes" {
		t.Errorf("downloaded content = %q, want %q", data, "fake-image-bytes")
	}
}

func TestDownloadToTemp_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	if _, err := channel.DownloadToTemp(srv.URL, nil); err == nil {
		t.Error("expected an error for a 404 response")
	}
}
