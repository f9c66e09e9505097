// Package router dispatches inbound IM messages: prefix-commands are
// answered directly, and any message carrying a photo/image attachment is
// run through the detection pipeline and replied to with a decoded report.
package router

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"os"
	"strings"

	"github.com/dfbb/qrscan/internal/channel"
	"github.com/dfbb/qrscan/internal/prefs"
	"github.com/dfbb/qrscan/internal/qrdetect"
	"github.com/dfbb/qrscan/internal/render"
	"github.com/dfbb/qrscan/internal/store"
)

const helpText = `Available commands:
  {P}help              — show this message
  {P}history [n]        — show your last n scans (default 5)
  {P}ascii on|off       — toggle ASCII module-grid preview on replies
Send a photo of a QR code to scan it.`

// Router dispatches inbound IM messages: prefix-commands → direct replies,
// photo/image attachments → detection pipeline.
type Router struct {
	prefix     string
	prefs      *prefs.Prefs
	store      *store.Store
	opts       qrdetect.Options
	outbound   chan<- channel.OutboundMessage
	onActivate func(ch, senderID string) // called when a channel is first activated

	activated map[string]string // channel name → locked senderID
}

func New(prefix string, p *prefs.Prefs, st *store.Store, opts qrdetect.Options, outbound chan<- channel.OutboundMessage, onActivate func(ch, senderID string)) *Router {
	return &Router{
		prefix:     prefix,
		prefs:      p,
		store:      st,
		opts:       opts,
		outbound:   outbound,
		onActivate: onActivate,
		activated:  make(map[string]string),
	}
}

func (r *Router) reply(msg channel.InboundMessage, text string) {
	out := channel.OutboundMessage{
		Channel: msg.Channel,
		ChatID:  msg.ChatID,
		Text:    text,
	}
	select {
	case r.outbound <- out:
	default:
		slog.Warn("router: outbound full, dropping reply", "channel", msg.Channel, "chatID", msg.ChatID)
	}
}

func chatKey(msg channel.InboundMessage) string {
	return msg.Channel + ":" + msg.ChatID
}

// Handle dispatches a message: activation gate, then command vs. image scan.
func (r *Router) Handle(msg channel.InboundMessage) {
	activationCmd := r.prefix + "qrscan"

	if !msg.PreAuthorized {
		lockedSender, locked := r.activated[msg.Channel]

		if !locked {
			if msg.Text == activationCmd {
				r.activated[msg.Channel] = msg.SenderID
				slog.Info("channel activated", "channel", msg.Channel, "senderID", msg.SenderID)
				if r.onActivate != nil {
					go r.onActivate(msg.Channel, msg.SenderID)
				}
				r.reply(msg, fmt.Sprintf("Activated. Send %shelp to see available commands.", r.prefix))
			}
			return
		}

		if lockedSender != msg.SenderID {
			return
		}
	}

	if len(msg.Media) > 0 {
		r.handleMedia(msg)
		return
	}

	if strings.HasPrefix(msg.Text, r.prefix) {
		r.handleCommand(msg)
		return
	}

	r.reply(msg, fmt.Sprintf("Send a photo of a QR code to scan it, or %shelp for commands.", r.prefix))
}

// handleMedia runs every attachment through the detection pipeline and
// replies with one line per detected symbol (or a "no QR code found" line).
func (r *Router) handleMedia(msg channel.InboundMessage) {
	var lines []string
	var asciiBlocks []string
	found := 0

	for _, path := range msg.Media {
		defer os.Remove(path)

		f, err := os.Open(path)
		if err != nil {
			slog.Warn("router: opening downloaded media", "path", path, "err", err)
			continue
		}
		img, _, err := image.Decode(f)
		f.Close()
		if err != nil {
			slog.Warn("router: decoding downloaded media", "path", path, "err", err)
			continue
		}

		symbols := qrdetect.Detect(img, r.opts)
		for _, sym := range symbols {
			found++
			id, err := r.store.Record(msg.Channel, msg.ChatID, sym)
			if err != nil {
				slog.Error("router: recording scan", "err", err)
			}
			lines = append(lines, formatSymbol(id, sym))
			if r.prefs.AsciiEnabled(chatKey(msg)) {
				asciiBlocks = append(asciiBlocks, render.ASCII(sym.Modules))
			}
		}
	}

	if found == 0 {
		r.reply(msg, "No QR code found.")
		return
	}

	text := strings.Join(lines, "\n")
	if len(asciiBlocks) > 0 {
		text += "\n```\n" + strings.Join(asciiBlocks, "\n") + "\n```"
	}
	r.reply(msg, text)
}

func formatSymbol(id int64, sym qrdetect.Symbol) string {
	return fmt.Sprintf("#%d  version=%d  ecc=%s  mask=%s",
		id, sym.Modules.Version,
		store.ECCString(sym.Format.ErrorCorrectionLevel),
		store.MaskString(sym.Format.Mask))
}

func (r *Router) handleCommand(msg channel.InboundMessage) {
	text := strings.TrimPrefix(msg.Text, r.prefix)
	parts := strings.Fields(text)
	if len(parts) == 0 {
		r.reply(msg, r.helpText())
		return
	}
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "help":
		r.reply(msg, r.helpText())

	case "history":
		n := 5
		if len(args) > 0 {
			fmt.Sscanf(args[0], "%d", &n)
		}
		if n <= 0 {
			n = 5
		}
		entries, err := r.store.List(msg.Channel, msg.ChatID, n)
		if err != nil {
			r.reply(msg, fmt.Sprintf("Error reading history: %v", err))
			return
		}
		if len(entries) == 0 {
			r.reply(msg, "No scans recorded yet for this chat.")
			return
		}
		var b strings.Builder
		for _, e := range entries {
			fmt.Fprintf(&b, "#%d  %s  version=%d  ecc=%s  mask=%s\n",
				e.ID, e.Timestamp.Format("2006-01-02 15:04"), e.Version, e.ECCLevel, e.Mask)
		}
		r.reply(msg, strings.TrimRight(b.String(), "\n"))

	case "ascii":
		if len(args) == 0 {
			r.reply(msg, fmt.Sprintf("Usage: %sascii on|off", r.prefix))
			return
		}
		switch strings.ToLower(args[0]) {
		case "on":
			r.prefs.SetAscii(chatKey(msg), true)
			r.reply(msg, "ASCII preview enabled.")
		case "off":
			r.prefs.SetAscii(chatKey(msg), false)
			r.reply(msg, "ASCII preview disabled.")
		default:
			r.reply(msg, fmt.Sprintf("Usage: %sascii on|off", r.prefix))
		}

	default:
		r.reply(msg, fmt.Sprintf("Unknown command: %s%s\nRun %shelp for available commands.", r.prefix, cmd, r.prefix))
	}
}

func (r *Router) helpText() string {
	return strings.ReplaceAll(helpText, "{P}", r.prefix)
}
