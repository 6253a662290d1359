package web

import (
	"fmt"
	"os"
	"strconv"
)

const (
	EnvListenAddr = "DEPARTUREBOARD_LISTEN"
	EnvDevMode    = "DEPARTUREBOARD_DEV"
)

// ServerConfig contains settings for running the HTTP server.
//
// An empty ListenAddr disables the server. The board defaults to the
// config file's web.listen, the simulator to :8080.
type ServerConfig struct {
	ListenAddr string
	DevMode    bool
}

// DefaultServerConfigFromEnv overlays DEPARTUREBOARD_LISTEN and
// DEPARTUREBOARD_DEV on the given defaults.
func DefaultServerConfigFromEnv(defaultListenAddr string, defaultDev bool) (ServerConfig, error) {
	listenAddr := os.Getenv(EnvListenAddr)
	if listenAddr == "" {
		listenAddr = defaultListenAddr
	}

	devMode := defaultDev
	if raw := os.Getenv(EnvDevMode); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			return ServerConfig{}, fmt.Errorf("%s must be a boolean (got %q): %w", EnvDevMode, raw, err)
		}
		devMode = parsed
	}

	return ServerConfig{ListenAddr: listenAddr, DevMode: devMode}, nil
}
