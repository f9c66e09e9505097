package channel

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
)

// Channel is implemented by each IM platform adapter.
type Channel interface {
	Name() string
	Start(ctx context.Context) error
	Stop() error
	Send(msg OutboundMessage) error
}

type InboundMessage struct {
	Channel  string
	ChatID   string
	SenderID string
	Text     string
	Media    []string

	// PreAuthorized skips the router's per-channel activation gate. Set only
	// by callers that already trust the sender (the router tests); the IM
	// adapters relaying real traffic never set it.
	PreAuthorized bool
}

type OutboundMessage struct {
	Channel string
	ChatID  string
	Text    string
	Media   []string
}

// Manager runs all channels and routes outbound messages.
type Manager struct {
	channels map[string]Channel
	inbound  chan<- InboundMessage
	outbound <-chan OutboundMessage
}

func NewManager(inbound chan<- InboundMessage, outbound <-chan OutboundMessage) *Manager {
	return &Manager{
		channels: make(map[string]Channel),
		inbound:  inbound,
		outbound: outbound,
	}
}

func (m *Manager) Register(ch Channel) {
	m.channels[ch.Name()] = ch
}

// DownloadToTemp fetches url and writes its body to a temp file, returning
// the file's path. Adapters use this to pull a photo/attachment off the IM
// platform's CDN before handing it to the detection pipeline, which only
// ever reads local files. headers, if non-nil, are set on the request (e.g.
// a Slack bot token or an authenticated resource URL).
func DownloadToTemp(url string, headers map[string]string) (string, error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("channel: building download request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("channel: downloading %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("channel: downloading %s: status %d", url, resp.StatusCode)
	}

	f, err := os.CreateTemp("", "qrscan-*.img")
	if err != nil {
		return "", fmt.Errorf("channel: creating temp file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, resp.Body); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("channel: saving download: %w", err)
	}
	return f.Name(), nil
}

// Run starts all channels and dispatches outbound messages. Blocks until ctx is done.
func (m *Manager) Run(ctx context.Context) {
	for _, ch := range m.channels {
		go func(c Channel) {
			if err := c.Start(ctx); err != nil {
				slog.Error("channel error", "channel", c.Name(), "err", err)
			}
		}(ch)
	}
	for {
		select {
		case <-ctx.Done():
			for _, ch := range m.channels {
				ch.Stop()
			}
			return
		case msg := <-m.outbound:
			ch, ok := m.channels[msg.Channel]
			if !ok {
				slog.Warn("unknown channel", "channel", msg.Channel)
				continue
			}
			if err := ch.Send(msg); err != nil {
				slog.Error("send error", "channel", msg.Channel, "err", err)
			}
		}
	}
}
