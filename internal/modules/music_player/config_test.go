package music_player

import (
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/sgrmusic/internal/modules/music_player/domain"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("LAVALINK_ADDRESS", "localhost:2333")
	t.Setenv("LAVALINK_PASSWORD", "youshallnotpass")
}

func TestLoadConfig_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.LavalinkNodeName != "main" {
		t.Errorf("expected node name %q, got %q", "main", cfg.LavalinkNodeName)
	}
	if cfg.LavalinkSecure {
		t.Error("expected insecure connection by default")
	}
	if cfg.CommandTimeout != 5*time.Second {
		t.Errorf("expected command timeout 5s, got %v", cfg.CommandTimeout)
	}
	if cfg.DefaultVolume != 100 {
		t.Errorf("expected default volume 100, got %d", cfg.DefaultVolume)
	}
	if cfg.EventBufferSize != 100 {
		t.Errorf("expected event buffer size 100, got %d", cfg.EventBufferSize)
	}
	if cfg.PrunePolicy != "none" {
		t.Errorf("expected prune policy %q, got %q", "none", cfg.PrunePolicy)
	}
	if cfg.SearchSource != "ytsearch" {
		t.Errorf("expected search source %q, got %q", "ytsearch", cfg.SearchSource)
	}
}

func TestLoadConfig_MissingLavalink(t *testing.T) {
	tests := []struct {
		name     string
		address  string
		password string
	}{
		{name: "missing address", password: "secret"},
		{name: "missing password", address: "localhost:2333"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("LAVALINK_ADDRESS", tt.address)
			t.Setenv("LAVALINK_PASSWORD", tt.password)

			if _, err := LoadConfig(); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestLoadConfig_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("LAVALINK_NODE_NAME", "eu-1")
	t.Setenv("LAVALINK_SECURE", "true")
	t.Setenv("MUSIC_COMMAND_TIMEOUT", "2s")
	t.Setenv("MUSIC_DEFAULT_VOLUME", "80")
	t.Setenv("MUSIC_GUILD_DEFAULT_VOLUMES", "100:50,200:150")
	t.Setenv("MUSIC_DJ_ROLE_IDS", "300,400")
	t.Setenv("MUSIC_PRUNE_POLICY", "absent-requesters")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.LavalinkNodeName != "eu-1" || !cfg.LavalinkSecure {
		t.Errorf("unexpected node config %q secure=%v", cfg.LavalinkNodeName, cfg.LavalinkSecure)
	}
	if cfg.CommandTimeout != 2*time.Second {
		t.Errorf("expected command timeout 2s, got %v", cfg.CommandTimeout)
	}
	if cfg.DefaultVolume != 80 {
		t.Errorf("expected default volume 80, got %d", cfg.DefaultVolume)
	}

	volumes, err := cfg.GuildVolumes()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(volumes) != 2 || volumes[snowflake.ID(100)] != 50 || volumes[snowflake.ID(200)] != 150 {
		t.Errorf("unexpected guild volumes %v", volumes)
	}

	roles, err := cfg.DJRoles()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(roles, []snowflake.ID{300, 400}) {
		t.Errorf("expected DJ roles [300 400], got %v", roles)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
		want  error
	}{
		{name: "zero timeout", key: "MUSIC_COMMAND_TIMEOUT", value: "0s"},
		{name: "silent default volume", key: "MUSIC_DEFAULT_VOLUME", value: "0", want: domain.ErrSilentVolume},
		{name: "loud default volume", key: "MUSIC_DEFAULT_VOLUME", value: "201", want: domain.ErrLoudVolume},
		{name: "loud guild volume", key: "MUSIC_GUILD_DEFAULT_VOLUMES", value: "100:500", want: domain.ErrLoudVolume},
		{name: "invalid guild ID", key: "MUSIC_GUILD_DEFAULT_VOLUMES", value: "abc:50"},
		{name: "invalid role ID", key: "MUSIC_DJ_ROLE_IDS", value: "dj"},
		{name: "unknown prune policy", key: "MUSIC_PRUNE_POLICY", value: "everything"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := LoadConfig()
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}
