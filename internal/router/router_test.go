package router_test

import (
	"path/filepath"
	"testing"

	"github.com/dfbb/qrscan/internal/channel"
	"github.com/dfbb/qrscan/internal/prefs"
	"github.com/dfbb/qrscan/internal/qrdetect"
	"github.com/dfbb/qrscan/internal/router"
	"github.com/dfbb/qrscan/internal/store"
)

func newTestRouter(t *testing.T) (*router.Router, chan channel.OutboundMessage) {
	t.Helper()
	dir := t.TempDir()

	p, err := prefs.New(filepath.Join(dir, "prefs.json"))
	if err != nil {
		t.Fatalf("prefs.New: %v", err)
	}
	st, err := store.New(filepath.Join(dir, "scan_history.db"))
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	outbound := make(chan channel.OutboundMessage, 10)
	r := router.New("#", p, st, qrdetect.Options{}, outbound, nil)
	return r, outbound
}

func preAuthorized(msg channel.InboundMessage) channel.InboundMessage {
	msg.PreAuthorized = true
	return msg
}

func TestRoute_PlainTextHint(t *testing.T) {
	r, outbound := newTestRouter(t)

	r.Handle(preAuthorized(channel.InboundMessage{
		Channel: "telegram", ChatID: "123", SenderID: "u1",
		Text: "hello",
	}))

	msg := <-outbound
	if msg.ChatID != "123" {
		t.Errorf("expected reply to 123, got %q", msg.ChatID)
	}
	if msg.Text == "" {
		t.Error("expected non-empty reply for plain text")
	}
}

func TestRoute_HashHelp(t *testing.T) {
	r, outbound := newTestRouter(t)

	r.Handle(preAuthorized(channel.InboundMessage{
		Channel: "telegram", ChatID: "123", SenderID: "u1",
		Text: "#help",
	}))

	msg := <-outbound
	if msg.ChatID != "123" {
		t.Errorf("expected reply to 123, got %q", msg.ChatID)
	}
	if msg.Text == "" {
		t.Error("expected non-empty help text")
	}
}

func TestRoute_AsciiToggle(t *testing.T) {
	r, outbound := newTestRouter(t)

	r.Handle(preAuthorized(channel.InboundMessage{
		Channel: "telegram", ChatID: "123", Text: "#ascii on",
	}))
	msg := <-outbound
	if msg.Text == "" {
		t.Error("expected confirmation of ascii toggle")
	}
}

func TestRoute_History_Empty(t *testing.T) {
	r, outbound := newTestRouter(t)

	r.Handle(preAuthorized(channel.InboundMessage{
		Channel: "telegram", ChatID: "123", Text: "#history",
	}))
	msg := <-outbound
	if msg.Text == "" {
		t.Error("expected a reply even with no scan history")
	}
}

func TestRoute_CustomPrefix(t *testing.T) {
	dir := t.TempDir()
	p, _ := prefs.New(filepath.Join(dir, "prefs.json"))
	st, _ := store.New(filepath.Join(dir, "scan_history.db"))
	defer st.Close()
	outbound := make(chan channel.OutboundMessage, 10)
	r := router.New("!", p, st, qrdetect.Options{}, outbound, nil)

	r.Handle(preAuthorized(channel.InboundMessage{
		Channel: "telegram", ChatID: "123", Text: "!help",
	}))
	msg := <-outbound
	if msg.Text == "" {
		t.Error("expected help response with custom prefix")
	}
}

func TestRoute_UnknownCommand(t *testing.T) {
	r, outbound := newTestRouter(t)

	r.Handle(preAuthorized(channel.InboundMessage{
		Channel: "telegram", ChatID: "123", Text: "#foobar",
	}))
	msg := <-outbound
	if msg.Text == "" {
		t.Error("expected error reply for unknown command")
	}
}

func TestRoute_NoMediaFile(t *testing.T) {
	r, outbound := newTestRouter(t)

	r.Handle(preAuthorized(channel.InboundMessage{
		Channel: "telegram", ChatID: "123", SenderID: "u1",
		Media: []string{filepath.Join(t.TempDir(), "missing.png")},
	}))
	msg := <-outbound
	if msg.Text != "No QR code found." {
		t.Errorf("Text = %q, want %q", msg.Text, "No QR code found.")
	}
}

func TestRoute_ActivationGate(t *testing.T) {
	r, outbound := newTestRouter(t)

	// Not pre-authorized and no activation yet: any non-activation message
	// is silently ignored.
	r.Handle(channel.InboundMessage{
		Channel: "telegram", ChatID: "123", SenderID: "u1", Text: "hello",
	})
	select {
	case msg := <-outbound:
		t.Fatalf("expected no reply before activation, got %+v", msg)
	default:
	}

	r.Handle(channel.InboundMessage{
		Channel: "telegram", ChatID: "123", SenderID: "u1", Text: "#qrscan",
	})
	msg := <-outbound
	if msg.Text == "" {
		t.Error("expected activation confirmation")
	}

	// Now locked sender can interact.
	r.Handle(channel.InboundMessage{
		Channel: "telegram", ChatID: "123", SenderID: "u1", Text: "#help",
	})
	msg = <-outbound
	if msg.Text == "" {
		t.Error("expected help reply after activation")
	}

	// A different sender on the same channel is ignored.
	r.Handle(channel.InboundMessage{
		Channel: "telegram", ChatID: "123", SenderID: "u2", Text: "#help",
	})
	select {
	case msg := <-outbound:
		t.Fatalf("expected no reply for non-locked sender, got %+v", msg)
	default:
	}
}
