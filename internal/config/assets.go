package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// AssetSettings describes one asset streams may be denominated in.
type AssetSettings struct {
	Code     string `yaml:"code"`
	Name     string `yaml:"name"`
	Decimals int    `yaml:"decimals"`
	Enabled  bool   `yaml:"enabled"`
}

// AssetsConfig is the on-disk allowlist of streamable assets.
type AssetsConfig struct {
	Assets []AssetSettings `yaml:"assets"`
}

// LoadAssetsConfig loads the asset allowlist from config/assets.yaml.
func LoadAssetsConfig() (*AssetsConfig, error) {
	return LoadAssetsConfigFromPath(filepath.Join("config", "assets.yaml"))
}

// LoadAssetsConfigFromPath loads the asset allowlist from a specific path.
func LoadAssetsConfigFromPath(path string) (*AssetsConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read assets config: %w", err)
	}

	var cfg AssetsConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse assets config: %w", err)
	}

	for i, asset := range cfg.Assets {
		if strings.TrimSpace(asset.Code) == "" {
			return nil, fmt.Errorf("asset %d: code is required", i)
		}
	}

	return &cfg, nil
}

// DefaultAssetsConfig returns the built-in allowlist used when no file is
// configured.
func DefaultAssetsConfig() *AssetsConfig {
	return &AssetsConfig{
		Assets: []AssetSettings{
			{Code: "NEO", Name: "Neo", Decimals: 0, Enabled: true},
			{Code: "GAS", Name: "GAS", Decimals: 8, Enabled: true},
			{Code: "USDT", Name: "Tether USD", Decimals: 6, Enabled: true},
		},
	}
}

// Codes returns the enabled asset codes, upper-cased.
func (c *AssetsConfig) Codes() []string {
	if c == nil {
		return nil
	}
	out := make([]string, 0, len(c.Assets))
	for _, asset := range c.Assets {
		if asset.Enabled {
			out = append(out, strings.ToUpper(strings.TrimSpace(asset.Code)))
		}
	}
	return out
}
