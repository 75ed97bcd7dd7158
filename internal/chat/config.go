package chat

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Transport labels how a candidate endpoint is reached. It only affects the
// extra headers sent with the request.
type Transport string

const (
	TransportProxy     Transport = "proxy"
	TransportDirect    Transport = "direct"
	TransportCORSProxy Transport = "cors-proxy"
)

// Endpoint is one candidate target, tried in the order it appears in Config.Endpoints.
type Endpoint struct {
	Name      string    `toml:"name"`
	Transport Transport `toml:"transport"`
	URL       string    `toml:"url"`
}

// Config holds all configuration for the chat client.
type Config struct {
	LogCalls         bool
	Origin           string
	AttemptTimeoutMs int
	Endpoints        []Endpoint
	Markers          Markers
}

// DefaultConfig returns the three SkillCycle candidates: the local dev proxy,
// the service itself and a public CORS proxy in front of it.
func DefaultConfig() Config {
	return Config{
		LogCalls:         false,
		Origin:           "http://localhost:5173",
		AttemptTimeoutMs: defaultAttemptTimeoutMs,
		Endpoints: []Endpoint{
			{Name: "proxy", Transport: TransportProxy, URL: "http://localhost:5173/chat"},
			{Name: "direct", Transport: TransportDirect, URL: "https://advx25api.erledge.com/chat"},
			{Name: "cors-proxy", Transport: TransportCORSProxy, URL: "https://cors-anywhere.herokuapp.com/https://advx25api.erledge.com/chat"},
		},
		Markers: DefaultMarkers(),
	}
}

const defaultAttemptTimeoutMs = 30000

// AttemptTimeout returns how long a candidate may take to send response
// headers. Values <= 0 fall back to 30s.
func (c Config) AttemptTimeout() time.Duration {
	ms := c.AttemptTimeoutMs
	if ms <= 0 {
		ms = defaultAttemptTimeoutMs
	}
	return time.Duration(ms) * time.Millisecond
}

// fileConfig mirrors config.toml. Pointer fields distinguish "unset" from zero values.
type fileConfig struct {
	LogCalls         *bool      `toml:"log_calls"`
	Origin           *string    `toml:"origin"`
	AttemptTimeoutMs *int       `toml:"attempt_timeout_ms"`
	Endpoints        []Endpoint `toml:"endpoints"`
	Markers          *Markers   `toml:"markers"`
}

// LoadConfig reads the optional TOML file at path and then applies environment
// overrides. A missing file is not an error; a malformed one is.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("reading config: %w", err)
		default:
			if err := applyFile(&cfg, data); err != nil {
				return cfg, fmt.Errorf("parsing config %s: %w", path, err)
			}
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

func applyFile(cfg *Config, data []byte) error {
	var fc fileConfig
	if err := toml.Unmarshal(data, &fc); err != nil {
		return err
	}

	if fc.LogCalls != nil {
		cfg.LogCalls = *fc.LogCalls
	}
	if fc.Origin != nil {
		cfg.Origin = *fc.Origin
	}
	if fc.AttemptTimeoutMs != nil && *fc.AttemptTimeoutMs > 0 {
		cfg.AttemptTimeoutMs = *fc.AttemptTimeoutMs
	}
	if len(fc.Endpoints) > 0 {
		endpoints := make([]Endpoint, 0, len(fc.Endpoints))
		for i, ep := range fc.Endpoints {
			if ep.URL == "" {
				return fmt.Errorf("endpoint %d: url is required", i)
			}
			endpoints = append(endpoints, normalizeEndpoint(ep))
		}
		cfg.Endpoints = endpoints
	}
	if fc.Markers != nil {
		if fc.Markers.DataPrefix != "" {
			cfg.Markers.DataPrefix = fc.Markers.DataPrefix
		}
		if fc.Markers.Sentinel != "" {
			cfg.Markers.Sentinel = fc.Markers.Sentinel
		}
		if fc.Markers.IDPrefix != "" {
			cfg.Markers.IDPrefix = fc.Markers.IDPrefix
		}
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("SKILLCYCLE_LOG_CALLS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.LogCalls = b
		}
	}
	if v := os.Getenv("SKILLCYCLE_ORIGIN"); v != "" {
		cfg.Origin = v
	}
	if v := os.Getenv("SKILLCYCLE_ATTEMPT_TIMEOUT_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.AttemptTimeoutMs = n
		}
	}
	if v := os.Getenv("SKILLCYCLE_ENDPOINTS"); v != "" {
		if eps := ParseEndpoints(v); len(eps) > 0 {
			cfg.Endpoints = eps
		}
	}
}

// ParseEndpoints parses a comma-separated list of name=url pairs. A bare URL gets
// a positional name. Entries without a URL are skipped.
func ParseEndpoints(s string) []Endpoint {
	var out []Endpoint
	for i, raw := range strings.Split(s, ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		ep := Endpoint{Name: fmt.Sprintf("endpoint-%d", i+1)}
		if name, url, ok := strings.Cut(raw, "="); ok {
			ep.Name = strings.TrimSpace(name)
			ep.URL = strings.TrimSpace(url)
		} else {
			ep.URL = raw
		}
		if ep.URL == "" {
			continue
		}
		out = append(out, normalizeEndpoint(ep))
	}
	return out
}

func normalizeEndpoint(ep Endpoint) Endpoint {
	if ep.Transport == "" {
		switch Transport(ep.Name) {
		case TransportProxy, TransportCORSProxy:
			ep.Transport = Transport(ep.Name)
		default:
			ep.Transport = TransportDirect
		}
	}
	if ep.Name == "" {
		ep.Name = string(ep.Transport)
	}
	return ep
}
