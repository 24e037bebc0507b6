package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// GetDefaults returns application default paths, checking environment variables first.
// Environment variables:
//   - FOODWASTE_CONFIG_PATH: config file location (default: ~/.config/foodwaste.toml)
//   - FOODWASTE_HOME: base directory (default: ~/.local/share/foodwaste)
//
// A config initialized from these defaults keeps everything under the base directory:
//
//	food_wastage.db   SQLite store
//	data/             CSV sources read by load
//	reports/          report files and encrypted snapshots (filesystem sink)
//	keys/             age key pair for snapshots
//	log/              rotated foodwaste.log
func GetDefaults() (map[string]string, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, err
	}

	baseDir, err := getBaseDir()
	if err != nil {
		return nil, err
	}

	return map[string]string{
		"config_path": configPath,
		"base_dir":    baseDir,
		"log_dir":     filepath.Join(baseDir, "log"),
	}, nil
}

func getConfigPath() (string, error) {
	if path := os.Getenv("FOODWASTE_CONFIG_PATH"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "foodwaste.toml"), nil
}

func getBaseDir() (string, error) {
	if path := os.Getenv("FOODWASTE_HOME"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".local", "share", "foodwaste"), nil
}
