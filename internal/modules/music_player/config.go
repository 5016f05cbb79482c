package music_player

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/sgrmusic/internal/modules/music_player/application/session"
)

// Config holds the music player module configuration.
type Config struct {
	LavalinkNodeName string `env:"LAVALINK_NODE_NAME" envDefault:"main"`
	LavalinkAddress  string `env:"LAVALINK_ADDRESS,notEmpty"`
	LavalinkPassword string `env:"LAVALINK_PASSWORD,notEmpty"`
	LavalinkSecure   bool   `env:"LAVALINK_SECURE" envDefault:"false"`

	CommandTimeout      time.Duration  `env:"MUSIC_COMMAND_TIMEOUT" envDefault:"5s"`
	DefaultVolume       int            `env:"MUSIC_DEFAULT_VOLUME" envDefault:"100"`
	GuildDefaultVolumes map[string]int `env:"MUSIC_GUILD_DEFAULT_VOLUMES" envKeyValSeparator:":"`
	DJRoleIDs           []string       `env:"MUSIC_DJ_ROLE_IDS" envSeparator:","`
	EventBufferSize     int            `env:"MUSIC_EVENT_BUFFER_SIZE" envDefault:"100"`
	PrunePolicy         string         `env:"MUSIC_PRUNE_POLICY" envDefault:"none"`
	SearchSource        string         `env:"MUSIC_SEARCH_SOURCE" envDefault:"ytsearch"`
}

// LoadConfig loads the module configuration from environment variables.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.CommandTimeout <= 0 {
		return fmt.Errorf("MUSIC_COMMAND_TIMEOUT must be positive, got %s", c.CommandTimeout)
	}
	if err := session.ValidateVolume(c.DefaultVolume); err != nil {
		return fmt.Errorf("MUSIC_DEFAULT_VOLUME: %w", err)
	}
	if _, err := c.GuildVolumes(); err != nil {
		return err
	}
	if _, err := c.DJRoles(); err != nil {
		return err
	}
	if _, err := session.ParsePrunePolicy(c.PrunePolicy); err != nil {
		return fmt.Errorf("MUSIC_PRUNE_POLICY: %w", err)
	}
	return nil
}

// GuildVolumes returns the per-guild default volumes keyed by guild ID.
func (c *Config) GuildVolumes() (map[snowflake.ID]int, error) {
	volumes := make(map[snowflake.ID]int, len(c.GuildDefaultVolumes))
	for rawID, volume := range c.GuildDefaultVolumes {
		guildID, err := snowflake.Parse(rawID)
		if err != nil {
			return nil, fmt.Errorf("MUSIC_GUILD_DEFAULT_VOLUMES: invalid guild ID %q: %w", rawID, err)
		}
		if err := session.ValidateVolume(volume); err != nil {
			return nil, fmt.Errorf("MUSIC_GUILD_DEFAULT_VOLUMES: guild %s: %w", rawID, err)
		}
		volumes[guildID] = volume
	}
	return volumes, nil
}

// DJRoles returns the role IDs that grant the DJ capability.
func (c *Config) DJRoles() ([]snowflake.ID, error) {
	roles := make([]snowflake.ID, 0, len(c.DJRoleIDs))
	for _, rawID := range c.DJRoleIDs {
		roleID, err := snowflake.Parse(rawID)
		if err != nil {
			return nil, fmt.Errorf("MUSIC_DJ_ROLE_IDS: invalid role ID %q: %w", rawID, err)
		}
		roles = append(roles, roleID)
	}
	return roles, nil
}
