package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// GetDefaults returns the paths goupi uses when the tool config does not
// say otherwise:
//
//	config_path  tool config file; $GOUPI_CONFIG_PATH or ~/.config/goupi.toml
//	base_dir     goupi's data home; $GOUPI_HOME or ~/.local/share/goupi
//	log_dir      <base_dir>/log, where goupi.log is appended
//	data_dir     <base_dir>/db, home of the sqlite build history
//
// Sites themselves never live here: source and output directories are
// always given on the command line.
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
		"data_dir":    filepath.Join(baseDir, "db"),
	}, nil
}

func getConfigPath() (string, error) {
	if path := os.Getenv("GOUPI_CONFIG_PATH"); path != "" {
		return path, nil
	}
	return underHome(".config", "goupi.toml")
}

func getBaseDir() (string, error) {
	if path := os.Getenv("GOUPI_HOME"); path != "" {
		return path, nil
	}
	return underHome(".local", "share", "goupi")
}

// underHome joins elem onto the user's home directory.
func underHome(elem ...string) (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(append([]string{homeDir}, elem...)...), nil
}
