// Package providers holds the clients for the three upstream media search
// APIs and the registry the server selects them from.
package providers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/anatolykoptev/go_media/internal/engine"
)

// Provider names accepted in the request's providers list.
const (
	NameYouTube   = "youtube"
	NameOpenverse = "openverse"
	NameArchive   = "archive"
)

// maxBodyBytes caps how much of an upstream response body is read.
const maxBodyBytes = 4 * 1024 * 1024

// Registry holds the configured provider set in registration order.
type Registry struct {
	order  []string
	byName map[string]engine.Provider
}

// NewRegistry wires up every provider the config enables. YouTube is only
// registered when an API key is present; Openverse and Archive.org need no
// credentials.
func NewRegistry(cfg engine.Config) *Registry {
	client := cfg.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	r := &Registry{}
	if cfg.YouTubeAPIKey != "" {
		r.Register(NewYouTube(YouTubeConfig{
			APIKey:  cfg.YouTubeAPIKey,
			BaseURL: cfg.YouTubeBaseURL,
			Timeout: cfg.FetchTimeout,
		}, client))
	}
	r.Register(NewOpenverse(OpenverseConfig{
		Token:   cfg.OpenverseToken,
		BaseURL: cfg.OpenverseBaseURL,
		Timeout: cfg.FetchTimeout,
	}, client))
	r.Register(NewArchive(ArchiveConfig{
		BaseURL: cfg.ArchiveBaseURL,
		Timeout: cfg.FetchTimeout,
	}, client))
	return r
}

// Register adds a provider. Registering the same name again replaces the
// earlier entry but keeps its position.
func (r *Registry) Register(p engine.Provider) {
	if r.byName == nil {
		r.byName = make(map[string]engine.Provider)
	}
	name := p.Name()
	if _, exists := r.byName[name]; !exists {
		r.order = append(r.order, name)
	}
	r.byName[name] = p
}

// Names lists registered providers in registration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// Select resolves the requested provider names, defaulting to all registered
// providers when names is empty. Unknown names are rejected here, before any
// outbound call is made.
func (r *Registry) Select(names []string) ([]engine.Provider, error) {
	if len(names) == 0 {
		provs := make([]engine.Provider, 0, len(r.order))
		for _, name := range r.order {
			provs = append(provs, r.byName[name])
		}
		return provs, nil
	}

	seen := make(map[string]bool, len(names))
	var provs []engine.Provider
	for _, raw := range names {
		name := strings.ToLower(strings.TrimSpace(raw))
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		p, ok := r.byName[name]
		if !ok {
			return nil, &engine.ValidationError{
				Msg: fmt.Sprintf("unknown provider %q (available: %s)", raw, strings.Join(r.order, ", ")),
			}
		}
		provs = append(provs, p)
	}
	return provs, nil
}
