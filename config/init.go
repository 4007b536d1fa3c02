package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	yaml "gopkg.in/yaml.v2"
)

// reading config error is fatal, and exists main thread
func processError(err error) {
	fmt.Println(err)
	os.Exit(2)
}

func readFile(path string, cfg *Configuration) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(cfg); err != nil {
		return fmt.Errorf("cannot decode %s: %w", path, err)
	}
	return nil
}

func readEnv(cfg *Configuration) error {
	return envconfig.Process("", cfg)
}

// Load reads the yaml file, overlays environment variables and fills defaults.
// Chain names are lower cased so lookups are case insensitive.
func Load(path string) (*Configuration, error) {
	var cfg Configuration
	if err := readFile(path, &cfg); err != nil {
		return nil, err
	}
	if err := readEnv(&cfg); err != nil {
		return nil, err
	}

	chains := make(map[string]ChainConfig, len(cfg.Chains))
	for name, chain := range cfg.Chains {
		key := strings.ToLower(strings.TrimSpace(name))
		if _, dup := chains[key]; dup {
			return nil, fmt.Errorf("chain %q configured twice", key)
		}
		chains[key] = chain
	}
	cfg.Chains = chains
	cfg.applyDefaults()

	return &cfg, nil
}

func Init() {
	path := os.Getenv("CONFIG_FILE")
	if path == "" {
		path = "config.yml"
	}
	cfg, err := Load(path)
	if err != nil {
		processError(err)
	}
	Config = *cfg
}
