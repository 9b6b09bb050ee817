package app

import (
	"fmt"
	"os"
	"strings"

	"venuedir/pkg/config"
)

// placeholderSecrets are values that ship in example configs and must never
// sign real cursors.
var placeholderSecrets = map[string]struct{}{
	"changeme":      {},
	"change-me":     {},
	"secret":        {},
	"cursor-secret": {},
}

// validateConfig performs quick, fail-fast validation of the effective
// configuration before starting long-running services. Keep checks light
// and focused so callers can surface user-friendly errors.
func validateConfig(cfg *config.Config) error {
	if cfg.Server.DBPath == "" {
		return fmt.Errorf("database path is empty: set --db flag, VENUEDIR_DB_PATH env, or server.db_path in config")
	}

	secret := strings.TrimSpace(cfg.Security.CursorSecret)
	if secret == "" {
		return fmt.Errorf("cursor secret is empty: set VENUEDIR_CURSOR_SECRET env or security.cursor_secret in config")
	}
	if _, bad := placeholderSecrets[strings.ToLower(secret)]; bad {
		return fmt.Errorf("cursor secret is a placeholder value: generate a real secret")
	}

	cert := cfg.Server.TLS.CertFile
	key := cfg.Server.TLS.KeyFile
	if (cert != "" && key == "") || (cert == "" && key != "") {
		return fmt.Errorf("incomplete TLS configuration: both server.tls.cert_file and server.tls.key_file must be set")
	}
	if cert != "" {
		if _, err := os.Stat(cert); err != nil {
			return fmt.Errorf("tls cert file not accessible: %w", err)
		}
		if _, err := os.Stat(key); err != nil {
			return fmt.Errorf("tls key file not accessible: %w", err)
		}
	}

	if p := cfg.Pagination; p.DefaultTTLHours < 1 || p.DefaultTTLHours > p.MaxTTLHours {
		return fmt.Errorf("pagination.default_ttl_hours must be in [1, %d]", p.MaxTTLHours)
	}

	return nil
}
