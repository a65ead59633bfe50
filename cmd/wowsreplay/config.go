package main

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// AppConfig is the CLI's persisted configuration: where to find schema
// documents by default and which build to assume when -build is not given
// (an empty DefaultBuild falls back to the replay's metadata build)
// (spec §6's Non-goal excludes auto-discovering these from
// the game install; the user points us at them once, here).
type AppConfig struct {
	DefaultBuild string   `yaml:"defaultBuild"`
	SchemaPaths  []string `yaml:"schemaPaths"`
	AliasesPath  string   `yaml:"aliasesPath"`
}

func defaultConfig() AppConfig {
	return AppConfig{}
}

// loadConfig mirrors the teacher's cmd/eqlogui LoadConfig: an env override,
// then an executable-relative file, then a user-config-dir file, first hit
// wins, non-empty fields overlay the default.
func loadConfig() (cfg AppConfig, path string, err error) {
	cfg = defaultConfig()

	if envPath := strings.TrimSpace(os.Getenv("WOWSREPLAY_CONFIG")); envPath != "" {
		return overlayFrom(cfg, envPath)
	}

	for _, p := range candidateConfigPaths() {
		if p == "" {
			continue
		}
		if _, statErr := os.Stat(p); statErr != nil {
			if errors.Is(statErr, os.ErrNotExist) {
				continue
			}
			return cfg, p, statErr
		}
		return overlayFrom(cfg, p)
	}

	return cfg, "", nil
}

func overlayFrom(cfg AppConfig, path string) (AppConfig, string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, "", nil
		}
		return cfg, path, err
	}
	var raw AppConfig
	if err := yaml.Unmarshal(b, &raw); err != nil {
		return cfg, path, err
	}
	if strings.TrimSpace(raw.DefaultBuild) != "" {
		cfg.DefaultBuild = raw.DefaultBuild
	}
	if len(raw.SchemaPaths) > 0 {
		cfg.SchemaPaths = raw.SchemaPaths
	}
	if strings.TrimSpace(raw.AliasesPath) != "" {
		cfg.AliasesPath = raw.AliasesPath
	}
	return cfg, path, nil
}

func candidateConfigPaths() []string {
	var out []string
	if exe, err := os.Executable(); err == nil {
		out = append(out, filepath.Join(filepath.Dir(exe), "wowsreplay.yaml"))
	}
	if base, err := os.UserConfigDir(); err == nil {
		folder := "wowsreplay"
		if runtime.GOOS == "windows" || runtime.GOOS == "darwin" {
			folder = "WowsReplay"
		}
		out = append(out, filepath.Join(base, folder, "wowsreplay.yaml"))
	}
	return out
}
