// Package config loads deployment settings for an app. Precedence:
// environment variables over the config file; an explicitly given file over
// the project-local file over the user-level (XDG) file.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"

	"github.com/crcloud/crdeploy/entity"
)

// FileName is the project-local config file looked up in the project root.
const FileName = "crdeploy.yaml"

// xdgRelPath locates the user-level config below the XDG config home.
const xdgRelPath = "crdeploy/config.yaml"

const (
	envVarHandle = "CRDEPLOY_HANDLE"
	envVarEnv    = "CRDEPLOY_ENV"
)

// DefaultRemoteRoot is where an app's files live on its host server.
const DefaultRemoteRoot = "/www"

// Config is the user-specified deployment configuration.
type Config struct {
	// Handle is the app's unique name on the platform
	Handle string `yaml:"handle"`
	// Env selects the hosting environment ("prod" or "staging")
	Env string `yaml:"env"`
	// RemoteRoot overrides the server-side sync root
	RemoteRoot string `yaml:"remote_root"`
	// Exclude lists extra local paths excluded from uploads
	Exclude []string `yaml:"exclude"`
	// Include lists local paths included even if excluded above
	Include []string `yaml:"include"`
	// DownloadExclude overrides the default download exclusions
	DownloadExclude []string `yaml:"download_exclude"`
	// Require lists files that must exist in the project root before a deploy
	Require []string `yaml:"require"`
	// DisableGit turns off git-derived default exclusions
	DisableGit bool `yaml:"disable_git"`
}

// Load reads configuration. explicitPath, when non-empty, must exist;
// otherwise the project-local then the user-level file is used, and a
// missing file yields defaults. Environment variables override file values.
func Load(explicitPath string, projectDir string) (Config, error) {
	cfg := Config{Env: entity.EnvProd.String(), RemoteRoot: DefaultRemoteRoot}
	path, err := findFile(explicitPath, projectDir)
	if err != nil {
		return cfg, err
	}
	if path != "" {
		raw, readErr := os.ReadFile(path)
		if readErr != nil {
			return cfg, fmt.Errorf("couldn't read config file %q: %w", path, readErr)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("config file %q is not valid YAML: %w", path, err)
		}
		if cfg.Env == "" {
			cfg.Env = entity.EnvProd.String()
		}
		if cfg.RemoteRoot == "" {
			cfg.RemoteRoot = DefaultRemoteRoot
		}
	}
	if handle := os.Getenv(envVarHandle); handle != "" {
		cfg.Handle = handle
	}
	if env := os.Getenv(envVarEnv); env != "" {
		cfg.Env = env
	}
	return cfg, nil
}

func findFile(explicitPath string, projectDir string) (string, error) {
	if explicitPath != "" {
		if _, err := os.Stat(explicitPath); err != nil {
			return "", fmt.Errorf("config file %q: %w", explicitPath, err)
		}
		return explicitPath, nil
	}
	local := filepath.Join(projectDir, FileName)
	if _, err := os.Stat(local); err == nil {
		return local, nil
	}
	if userLevel, err := xdg.SearchConfigFile(xdgRelPath); err == nil {
		return userLevel, nil
	}
	return "", nil
}

// Environment parses the configured environment name.
func (c Config) Environment() (entity.Env, error) {
	return entity.ParseEnv(c.Env)
}

// HostFor maps an environment to the app's SFTP host. Selection is an
// explicit switch keyed on the Env value.
func (c Config) HostFor(env entity.Env) string {
	switch env {
	case entity.EnvStaging:
		return c.Handle + ".staging.crcloud.app"
	default:
		return c.Handle + ".crcloud.app"
	}
}
