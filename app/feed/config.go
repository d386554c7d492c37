package feed

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadConfigs reads every *.yml file in dir into a feed Config. The feed
// name is derived from the filename.
func LoadConfigs(dir string) ([]*Config, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, nil
	}

	files, err := filepath.Glob(filepath.Join(dir, "*.yml"))
	if err != nil {
		return nil, fmt.Errorf("failed to find YML files: %w", err)
	}

	var configs []*Config
	for _, file := range files {
		config, err := parseConfig(file)
		if err != nil {
			return nil, fmt.Errorf("error loading %s: %w", file, err)
		}
		configs = append(configs, config)
	}

	return configs, nil
}

func parseConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := &Config{
		Category: "news",
		Enabled:  true,
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if config.URL == "" {
		return nil, fmt.Errorf("feed config is missing a url")
	}

	config.Name = strings.TrimSuffix(filepath.Base(path), ".yml")

	return config, nil
}
