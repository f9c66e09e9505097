// Package prefs persists per-chat reply preferences across daemon restarts,
// keyed the same way the lineage keyed its tmux-session bindings
// ("channel:chatID").
package prefs

import (
	"encoding/json"
	"os"
	"sync"
)

// Prefs maps "channel:chatID" -> whether replies to that chat should include
// an ASCII render of the sampled module grid alongside the decoded report.
type Prefs struct {
	mu   sync.RWMutex
	data map[string]bool
	path string
}

func New(path string) (*Prefs, error) {
	p := &Prefs{
		data: make(map[string]bool),
		path: path,
	}
	if err := p.load(); err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	return p, nil
}

// AsciiEnabled reports whether key has opted into ASCII-rendered replies.
// Defaults to false when the key has never been set.
func (p *Prefs) AsciiEnabled(key string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.data[key]
}

func (p *Prefs) SetAscii(key string, on bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.data[key] = on
	p.save()
}

func (p *Prefs) All() map[string]bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make(map[string]bool, len(p.data))
	for k, v := range p.data {
		out[k] = v
	}
	return out
}

func (p *Prefs) load() error {
	data, err := os.ReadFile(p.path)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, &p.data)
}

func (p *Prefs) save() {
	data, _ := json.MarshalIndent(p.data, "", "  ")
	os.WriteFile(p.path, data, 0600)
}
