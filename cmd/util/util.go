package util

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/yassi/dj-redis-panel/lib/config"
	"github.com/yassi/dj-redis-panel/lib/panel/engine"
)

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50
)

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var lines []string
	var line strings.Builder

	for _, word := range strings.Fields(text) {
		if line.Len() > 0 && line.Len()+1+len(word) > Wrap {
			lines = append(lines, line.String())
			line.Reset()
		}
		if line.Len() > 0 {
			line.WriteString(" ")
		}
		line.WriteString(word)
	}
	if line.Len() > 0 {
		lines = append(lines, line.String())
	}

	return strings.Join(lines, "\n")
}

// SetupConnectionFlags adds the shared connection flags to a command.
func SetupConnectionFlags(cmd *cobra.Command) {
	key := "config"
	cmd.PersistentFlags().String(key, "", WrapString("Path to a YAML settings file declaring the instances"))

	key = "instance"
	cmd.PersistentFlags().String(key, "default", WrapString("Name of the configured instance to talk to"))

	key = "url"
	cmd.PersistentFlags().String(key, "redis://localhost:6379", WrapString("Redis URL for the ad-hoc default instance, ignored when a settings file is given"))

	key = "db"
	cmd.PersistentFlags().Int(key, 0, WrapString("Logical database index"))
}

// InitClientConfig initializes configuration from environment variables
func InitClientConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix("redis_panel")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}

// LoadSettings builds the engine settings: from the YAML file named by
// --config when given, otherwise a single ad-hoc instance named "default"
// pointed at --url.
func LoadSettings() (*config.Settings, error) {
	if path := viper.GetString("config"); path != "" {
		v := viper.New()
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading settings file: %w", err)
		}
		settings := &config.Settings{}
		if err := v.Unmarshal(settings); err != nil {
			return nil, fmt.Errorf("parsing settings file: %w", err)
		}
		return settings, nil
	}

	return &config.Settings{
		Instances: map[string]config.Instance{
			"default": {URL: viper.GetString("url")},
		},
	}, nil
}

// GetEngine binds the command's flags and constructs an engine from the
// resulting settings.
func GetEngine(cmd *cobra.Command) (*engine.Engine, error) {
	if err := BindCommandFlags(cmd); err != nil {
		return nil, err
	}
	settings, err := LoadSettings()
	if err != nil {
		return nil, err
	}
	return engine.New(settings)
}

// InstanceName retrieves the configured instance name
func InstanceName() string {
	return viper.GetString("instance")
}

// DB retrieves the configured database index
func DB() int {
	return viper.GetInt("db")
}

// BindCommandFlags binds a command's flags to viper
func BindCommandFlags(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}
