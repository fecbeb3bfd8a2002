package taskdeck

import (
	"strconv"
	"strings"

	"github.com/taskdeck/taskdeck/pkg/deckconfig"
)

type Config struct {
	ServerURL  string `yaml:"server_url"`
	Output     Output `yaml:"output"`
	SQLitePath string `yaml:"sqlite_path"`
	UserID     int64  `yaml:"user_id"`
}

func DefaultConfig(home string) Config {
	shared := deckconfig.Default(home)
	return Config{
		ServerURL:  shared.ServerURL,
		Output:     Output(shared.CLI.Output),
		SQLitePath: shared.Backend.SQLitePath,
		UserID:     shared.CLI.UserID,
	}
}

func ParseEnvConfig(env []string) Config {
	cfg := Config{}

	for _, kv := range env {
		switch {
		case strings.HasPrefix(kv, "TASKDECK_SERVER_URL="):
			cfg.ServerURL = strings.TrimSpace(strings.TrimPrefix(kv, "TASKDECK_SERVER_URL="))
		case strings.HasPrefix(kv, "TASKDECK_OUTPUT="):
			value := strings.TrimSpace(strings.TrimPrefix(kv, "TASKDECK_OUTPUT="))
			if isValidOutput(value) {
				cfg.Output = Output(value)
			}
		case strings.HasPrefix(kv, "TASKDECK_SQLITE_PATH="):
			cfg.SQLitePath = strings.TrimSpace(strings.TrimPrefix(kv, "TASKDECK_SQLITE_PATH="))
		case strings.HasPrefix(kv, "TASKDECK_USER_ID="):
			value := strings.TrimSpace(strings.TrimPrefix(kv, "TASKDECK_USER_ID="))
			if id, err := strconv.ParseInt(value, 10, 64); err == nil && id > 0 {
				cfg.UserID = id
			}
		}
	}

	return cfg
}

func MergeConfig(defaults, fileCfg, envCfg, flagCfg Config) Config {
	out := defaults
	applyConfig(&out, fileCfg)
	applyConfig(&out, envCfg)
	applyConfig(&out, flagCfg)
	return out
}

func applyConfig(dst *Config, src Config) {
	if value := strings.TrimSpace(src.ServerURL); value != "" {
		dst.ServerURL = value
	}
	if src.Output != "" {
		dst.Output = src.Output
	}
	if value := strings.TrimSpace(src.SQLitePath); value != "" {
		dst.SQLitePath = value
	}
	if src.UserID != 0 {
		dst.UserID = src.UserID
	}
}

func LoadOrInitConfig(home string) (Config, error) {
	shared, err := deckconfig.LoadOrInit(home)
	if err != nil {
		return Config{}, err
	}
	return mapSharedToCLI(shared), nil
}

func ConfigPath(home string) string {
	return deckconfig.ConfigPath(home)
}

func LoadConfigFile(path string) (Config, error) {
	shared, err := deckconfig.LoadFile(path)
	if err != nil {
		return Config{}, err
	}
	return mapSharedToCLI(shared), nil
}

func SaveConfigFile(path string, cfg Config) error {
	shared, err := deckconfig.LoadFile(path)
	if err != nil {
		shared = deckconfig.Config{}
	}
	shared.ServerURL = strings.TrimSpace(cfg.ServerURL)
	shared.CLI.Output = strings.TrimSpace(string(cfg.Output))
	shared.CLI.UserID = cfg.UserID
	shared.Backend.SQLitePath = strings.TrimSpace(cfg.SQLitePath)
	return deckconfig.SaveFile(path, shared)
}

func mapSharedToCLI(shared deckconfig.Config) Config {
	cfg := Config{
		ServerURL:  strings.TrimSpace(shared.ServerURL),
		Output:     Output(strings.TrimSpace(shared.CLI.Output)),
		SQLitePath: strings.TrimSpace(shared.Backend.SQLitePath),
		UserID:     shared.CLI.UserID,
	}
	if cfg.Output != "" && !isValidOutput(string(cfg.Output)) {
		cfg.Output = ""
	}
	return cfg
}
