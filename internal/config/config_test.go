package config

import (
	"os"
	"testing"

	"github.com/spf13/viper"
)

func TestLoadConfig_Defaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	unsetEnvWithCleanup(t, "SERVER_PORT")
	unsetEnvWithCleanup(t, "PORT")
	unsetEnvWithCleanup(t, "REDIS_IDEMPOTENCY_PREFIX")
	unsetEnvWithCleanup(t, "ON_EXPIRED_QUOTE")
	unsetEnvWithCleanup(t, "MISSING_FEE_ENTRY")
	unsetEnvWithCleanup(t, "CLIENT_AUTH_STRATEGY")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.ServerPort != "8080" {
		t.Errorf("expected default ServerPort 8080, got %q", cfg.ServerPort)
	}
	if cfg.RedisIdempotencyPrefix != "ramp:idempotency" {
		t.Errorf("expected default idempotency prefix, got %q", cfg.RedisIdempotencyPrefix)
	}
	if cfg.TransferEventExchange != "ramp.events" {
		t.Errorf("expected default event exchange, got %q", cfg.TransferEventExchange)
	}
	if cfg.OnExpiredQuote != "proceed" {
		t.Errorf("expected default OnExpiredQuote proceed, got %q", cfg.OnExpiredQuote)
	}
	if cfg.MissingFeeEntry != "zero" {
		t.Errorf("expected default MissingFeeEntry zero, got %q", cfg.MissingFeeEntry)
	}
	if cfg.ClientAuthStrategy != "optional" {
		t.Errorf("expected default ClientAuthStrategy optional, got %q", cfg.ClientAuthStrategy)
	}
}

func TestLoadConfig_PortAliasWins(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	setEnvWithCleanup(t, "SERVER_PORT", "8080")
	setEnvWithCleanup(t, "PORT", "9090")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.ServerPort != "9090" {
		t.Fatalf("expected PORT alias to win, got %q", cfg.ServerPort)
	}
}

func TestLoadConfig_UnknownPolicyValuesFallBackToDefaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	setEnvWithCleanup(t, "ON_EXPIRED_QUOTE", "explode")
	setEnvWithCleanup(t, "MISSING_FEE_ENTRY", "whatever")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.OnExpiredQuote != "proceed" {
		t.Errorf("expected unknown ON_EXPIRED_QUOTE to fall back to proceed, got %q", cfg.OnExpiredQuote)
	}
	if cfg.MissingFeeEntry != "zero" {
		t.Errorf("expected unknown MISSING_FEE_ENTRY to fall back to zero, got %q", cfg.MissingFeeEntry)
	}
}

func TestLoadConfig_PolicyValuesAreCaseInsensitive(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	setEnvWithCleanup(t, "ON_EXPIRED_QUOTE", "REJECT")
	setEnvWithCleanup(t, "MISSING_FEE_ENTRY", " Reject ")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.OnExpiredQuote != "reject" {
		t.Errorf("expected normalized reject, got %q", cfg.OnExpiredQuote)
	}
	if cfg.MissingFeeEntry != "reject" {
		t.Errorf("expected normalized reject, got %q", cfg.MissingFeeEntry)
	}
}

func TestLoadConfig_RequiredClientAuthNeedsKey(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	setEnvWithCleanup(t, "CLIENT_AUTH_STRATEGY", "required")
	unsetEnvWithCleanup(t, "CLIENT_API_KEY")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.ClientAuthStrategy != "optional" {
		t.Fatalf("expected required strategy without a key to downgrade to optional, got %q", cfg.ClientAuthStrategy)
	}
}

func TestLoadConfig_RequiredClientAuthKeptWithKey(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	setEnvWithCleanup(t, "CLIENT_AUTH_STRATEGY", "required")
	setEnvWithCleanup(t, "CLIENT_API_KEY", "shared-key")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.ClientAuthStrategy != "required" {
		t.Fatalf("expected required strategy to survive with a key set, got %q", cfg.ClientAuthStrategy)
	}
}

func setEnvWithCleanup(t *testing.T, key string, value string) {
	t.Helper()
	prev, hadPrev := os.LookupEnv(key)
	if err := os.Setenv(key, value); err != nil {
		t.Fatalf("failed to set env %s: %v", key, err)
	}
	t.Cleanup(func() {
		if hadPrev {
			_ = os.Setenv(key, prev)
			return
		}
		_ = os.Unsetenv(key)
	})
}

func unsetEnvWithCleanup(t *testing.T, key string) {
	t.Helper()
	prev, hadPrev := os.LookupEnv(key)
	if err := os.Unsetenv(key); err != nil {
		t.Fatalf("failed to unset env %s: %v", key, err)
	}
	t.Cleanup(func() {
		if hadPrev {
			_ = os.Setenv(key, prev)
			return
		}
		_ = os.Unsetenv(key)
	})
}
