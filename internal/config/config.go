// Package config resolves the run configuration from an optional config.json
// and CLI flags. Unlike the original implementation, which handed settings to
// child processes through the inherited environment, the resolved Config is
// threaded explicitly through every call.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/alexflint/go-arg"
	"github.com/jwb-index/jwb-index/internal/helpers"
	"github.com/jwb-index/jwb-index/internal/model"
)

// ErrConfig is the root of all configuration failures. The process reports
// them with remediation and exits nonzero before any crawl is attempted.
var ErrConfig = errors.New("invalid configuration")

const (
	DefaultLang     = "E"
	DefaultQuality  = 720
	DefaultCategory = "VideoOnDemand"
)

// QualityChoices are the resolution classes the mediator serves progressive
// files for. The selector itself accepts any cap; the CLI does not.
var QualityChoices = []int{240, 360, 480, 720}

// LoadedConfigPath tracks which config file was loaded, for diagnostics.
var LoadedConfigPath string

// ParseArgs parses CLI arguments using go-arg.
func ParseArgs() *model.Args {
	var args model.Args
	arg.MustParse(&args)
	return &args
}

// ReadConfig reads the optional config file from known locations. A missing
// file is not an error: defaults apply.
func ReadConfig() (*model.Config, error) {
	var cfg model.Config

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("%w: resolve home directory: %w", ErrConfig, err)
	}
	configPaths := []string{
		"config.json",
		filepath.Join(homeDir, ".jwb-index", "config.json"),
		filepath.Join(homeDir, ".config", "jwb-index", "config.json"),
	}

	for _, path := range configPaths {
		// Skips directories squatting on the config name, not just absence.
		ok, err := helpers.FileExists(path)
		if err != nil {
			return nil, fmt.Errorf("%w: stat %s: %w", ErrConfig, path, err)
		}
		if !ok {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w: read %s: %w", ErrConfig, path, err)
		}
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("%w: parse %s: %w", ErrConfig, path, err)
		}
		LoadedConfigPath = path
		break
	}
	return &cfg, nil
}

// ParseCfg merges the config file with CLI args (CLI wins), fills defaults
// and validates. Language-code verification against the mediator is the
// orchestrator's job; everything checked here is local.
func ParseCfg(args *model.Args) (*model.Config, error) {
	cfg, err := ReadConfig()
	if err != nil {
		return nil, err
	}

	if args.OutPath != "" {
		cfg.OutPath = args.OutPath
	}
	if args.Lang != "" {
		cfg.Lang = args.Lang
	}
	if args.Quality != 0 {
		cfg.Quality = args.Quality
	}
	if args.Category != "" {
		cfg.Category = args.Category
	}
	if args.Exclude != "" {
		cfg.Exclude = splitKeys(args.Exclude)
	}
	if args.Quiet {
		cfg.Quiet = true
	}

	cfg.OutPath = strings.TrimSpace(cfg.OutPath)
	if cfg.OutPath == "" {
		cfg.OutPath = "."
	}
	if strings.TrimSpace(cfg.Lang) == "" {
		cfg.Lang = DefaultLang
	}
	if cfg.Quality == 0 {
		cfg.Quality = DefaultQuality
	}
	if strings.TrimSpace(cfg.Category) == "" {
		cfg.Category = DefaultCategory
	}

	if !slices.Contains(QualityChoices, cfg.Quality) {
		return nil, fmt.Errorf("%w: quality must be one of 240, 360, 480, 720 (got %d)", ErrConfig, cfg.Quality)
	}
	if strings.ContainsAny(cfg.OutPath, "\x00\n\r") {
		return nil, fmt.Errorf("%w: output path contains invalid characters", ErrConfig)
	}
	return cfg, nil
}

// splitKeys splits a comma separated key list, dropping empty elements.
func splitKeys(s string) []string {
	var keys []string
	for _, k := range strings.Split(s, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}
