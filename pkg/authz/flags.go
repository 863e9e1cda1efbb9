package authz

import (
	"os"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Mode is the global enforcement switch.
type Mode string

const (
	ModeDisabled Mode = "disabled"
	ModeShadow   Mode = "shadow"
	ModeEnforce  Mode = "enforce"
)

type FlagProvider interface {
	Mode() Mode
}

// StaticMode always reports the same mode. Tests use it.
type StaticMode Mode

func (s StaticMode) Mode() Mode {
	return sanitizeMode(Mode(s))
}

// FileFlagProvider reads the mode from a YAML file ("mode: enforce"). The
// file is re-parsed only when its size or modification time changes, so
// operators can flip enforcement on a running server.
type FileFlagProvider struct {
	path     string
	fallback Mode

	mu      sync.Mutex
	current Mode
	size    int64
	modTime time.Time
}

func NewFileFlagProvider(path string, fallback Mode) FlagProvider {
	return &FileFlagProvider{path: path, fallback: sanitizeMode(fallback)}
}

func (p *FileFlagProvider) Mode() Mode {
	p.mu.Lock()
	defer p.mu.Unlock()

	info, err := os.Stat(p.path)
	if err != nil {
		// keep serving the last mode we read
		if p.current == "" {
			p.current = p.fallback
		}
		return p.current
	}
	if p.current != "" && info.Size() == p.size && info.ModTime().Equal(p.modTime) {
		return p.current
	}

	data, err := os.ReadFile(p.path)
	if err != nil {
		if p.current == "" {
			return p.fallback
		}
		return p.current
	}
	var doc struct {
		Mode string `yaml:"mode"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return p.fallback
	}
	p.current = sanitizeMode(Mode(doc.Mode))
	p.size, p.modTime = info.Size(), info.ModTime()
	return p.current
}

// Unknown values fall back to enforce; a typo must never open the gates.
func sanitizeMode(mode Mode) Mode {
	switch Mode(strings.ToLower(strings.TrimSpace(string(mode)))) {
	case ModeDisabled:
		return ModeDisabled
	case ModeShadow:
		return ModeShadow
	default:
		return ModeEnforce
	}
}
