package schoolmap

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const defaultConfigFile = "config.json"

// MatchConfig holds the fuzzy-matching knobs. Both are exposed so the
// boundary behavior can be probed deterministically in tests.
type MatchConfig struct {
	// SimilarityThreshold is the minimum normalized edit-distance score for a
	// fuzzy reference match.
	SimilarityThreshold float64 `json:"similarityThreshold"`
	// AmbiguityMargin is the minimum gap between the best and second-best
	// fuzzy candidates before the best is accepted automatically.
	AmbiguityMargin float64 `json:"ambiguityMargin"`
}

// StoreConfig selects and locates the mapping-table backend.
type StoreConfig struct {
	// Backend is "csv" or "sqlite".
	Backend string `json:"backend"`
	Path    string `json:"path"`
}

// ReferenceConfig configures the NCES directory source.
type ReferenceConfig struct {
	BaseURL           string  `json:"baseUrl"`
	Year              int     `json:"year"`
	TimeoutSeconds    int     `json:"timeoutSeconds"`
	RequestsPerSecond float64 `json:"requestsPerSecond"`
	CachePath         string  `json:"cachePath"`
}

// Config aggregates runtime settings persisted to config.json.
type Config struct {
	DomesticCountry string           `json:"domesticCountry"`
	Match           MatchConfig      `json:"match"`
	Store           StoreConfig      `json:"store"`
	Reference       ReferenceConfig  `json:"reference"`
	Columns         ColumnCandidates `json:"columns"`
}

// Clone creates a deep copy of the configuration so callers can mutate safely.
func (c Config) Clone() Config {
	buf, _ := json.Marshal(c)
	var out Config
	_ = json.Unmarshal(buf, &out)
	return out
}

// ApplyDefaults populates zero values with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.DomesticCountry == "" {
		c.DomesticCountry = "USA"
	}
	if c.Match.SimilarityThreshold == 0 {
		c.Match.SimilarityThreshold = 0.9
	}
	if c.Match.AmbiguityMargin == 0 {
		c.Match.AmbiguityMargin = 0.02
	}
	if c.Store.Backend == "" {
		c.Store.Backend = "csv"
	}
	if c.Store.Path == "" {
		c.Store.Path = filepath.Join("data", "high_school_mapping.csv")
	}
	if c.Reference.BaseURL == "" {
		c.Reference.BaseURL = "https://educationdata.urban.org/api/v1/schools/ccd/directory"
	}
	if c.Reference.Year == 0 {
		c.Reference.Year = 2022
	}
	if c.Reference.TimeoutSeconds == 0 {
		c.Reference.TimeoutSeconds = 30
	}
	if c.Reference.RequestsPerSecond == 0 {
		c.Reference.RequestsPerSecond = 3
	}
	if c.Reference.CachePath == "" {
		c.Reference.CachePath = filepath.Join("data", "nces", "high_schools_current.csv")
	}
}

// LoadConfig loads configuration from the given path or the default
// config.json. A missing file yields the defaults.
func LoadConfig(path string) (Config, error) {
	if path == "" {
		path = defaultConfigFile
	}
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg.ApplyDefaults()
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("decode config: %w", err)
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

// SaveConfig persists configuration to disk.
func SaveConfig(path string, cfg Config) error {
	if path == "" {
		path = defaultConfigFile
	}
	tmp := path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	cfg.ApplyDefaults()
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp config: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename config: %w", err)
	}
	return nil
}
