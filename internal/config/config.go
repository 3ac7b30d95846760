// Package config describes the dataset profiles mxguide operates on.
//
// A Profile is one instance of the chunked-dataset subsystem: where the
// record store lives, where its chunks go, how chunk files are named, and how
// large a chunk may grow. Two profiles are built in ("guide" and "kb"). A YAML
// file can override any field of a built-in profile or add new profiles.
//
// Configuration is an explicit value handed to each component at construction
// time. Nothing in this package is consulted through globals.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"slices"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"mxguide/internal/chunk"
	"mxguide/internal/record"
)

// DefaultFileName is looked up in the working directory when no explicit
// config path is given.
const DefaultFileName = "mxguide.yaml"

// Built-in profile names.
const (
	ProfileGuide = "guide"
	ProfileKB    = "kb"
)

// DefaultPublishRate is the number of uploads per second when unset.
const DefaultPublishRate = 10

var (
	ErrUnknownProfile = errors.New("unknown profile")
	ErrInvalidProfile = errors.New("invalid profile")
)

// Profile is the configuration of one dataset.
type Profile struct {
	// Name is the key the profile was registered under.
	Name string `yaml:"-"`

	// DataDir is the dataset root. Relative paths resolve against the working directory.
	DataDir string `yaml:"data_dir"`

	// MainFile is the record store, relative to DataDir.
	MainFile string `yaml:"main_file"`

	// ChunksDir holds the chunk files and index.json, relative to DataDir.
	ChunksDir string `yaml:"chunks_dir"`

	// ChunkPrefix names chunk files: <prefix>_001.json, <prefix>_002.json, ...
	ChunkPrefix string `yaml:"chunk_prefix"`

	// MaxPerFile is the maximum number of records in one chunk.
	MaxPerFile int `yaml:"max_per_file"`

	// MaxChunkBytes optionally caps a chunk's encoded record bytes.
	// Supports suffixes: B, KB, MB, GB (e.g., "64KB"). Empty disables the cap.
	MaxChunkBytes string `yaml:"max_chunk_bytes"`

	// RequiredFields are checked on every record by validate.
	RequiredFields []string `yaml:"required_fields"`

	// Compress lists sidecar encodings written next to each chunk: br, gz, zst.
	Compress []string `yaml:"compress"`

	// ExamplesFile and ComplexExamplesFile are used by merge-examples, relative to DataDir.
	ExamplesFile        string `yaml:"examples_file"`
	ComplexExamplesFile string `yaml:"complex_examples_file"`
}

// PublishConfig holds defaults for the publish command.
type PublishConfig struct {
	// Target is a destination URL: file://, s3://, gs://, or azblob://.
	Target string `yaml:"target"`

	// Rate is the maximum number of uploads per second. Zero means unlimited.
	Rate float64 `yaml:"rate"`

	// S3Endpoint overrides the S3 endpoint (S3-compatible stores such as MinIO).
	S3Endpoint string `yaml:"s3_endpoint"`
}

// Config is the full mxguide configuration.
type Config struct {
	Profiles map[string]Profile `yaml:"profiles"`
	Publish  PublishConfig      `yaml:"publish"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Profiles: map[string]Profile{
			ProfileGuide: {
				Name:                ProfileGuide,
				DataDir:             "public/data",
				MainFile:            "errors.json",
				ChunksDir:           "chunks",
				ChunkPrefix:         "errors",
				MaxPerFile:          chunk.DefaultMaxPerFile,
				RequiredFields:      slices.Clone(record.DefaultRequiredFields),
				ExamplesFile:        "real_world_examples.json",
				ComplexExamplesFile: "complex_examples.json",
			},
			ProfileKB: {
				Name:           ProfileKB,
				DataDir:        "scraper/data",
				MainFile:       "error_knowledge_base.json",
				ChunksDir:      "chunks",
				ChunkPrefix:    "kb",
				MaxPerFile:     chunk.DefaultMaxPerFile,
				RequiredFields: slices.Clone(record.DefaultRequiredFields),
			},
		},
		Publish: PublishConfig{Rate: DefaultPublishRate},
	}
}

// Load returns the built-in configuration overlaid with the YAML file at path.
// An empty path looks for DefaultFileName in the working directory and
// silently falls back to the defaults when it is absent. An explicit path
// that does not exist is an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFileName
	}

	data, err := os.ReadFile(path) //nolint:gosec // G304: config path is operator-supplied
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}

	for name, p := range file.Profiles {
		base, ok := cfg.Profiles[name]
		if !ok {
			base = Profile{MaxPerFile: chunk.DefaultMaxPerFile, RequiredFields: slices.Clone(record.DefaultRequiredFields)}
		}
		merged := mergeProfile(base, p)
		merged.Name = name
		cfg.Profiles[name] = merged
	}
	if file.Publish.Target != "" {
		cfg.Publish.Target = file.Publish.Target
	}
	if file.Publish.Rate != 0 {
		cfg.Publish.Rate = file.Publish.Rate
	}
	if file.Publish.S3Endpoint != "" {
		cfg.Publish.S3Endpoint = file.Publish.S3Endpoint
	}

	return cfg, nil
}

// mergeProfile overlays the non-zero fields of override onto base.
func mergeProfile(base, override Profile) Profile {
	if override.DataDir != "" {
		base.DataDir = override.DataDir
	}
	if override.MainFile != "" {
		base.MainFile = override.MainFile
	}
	if override.ChunksDir != "" {
		base.ChunksDir = override.ChunksDir
	}
	if override.ChunkPrefix != "" {
		base.ChunkPrefix = override.ChunkPrefix
	}
	if override.MaxPerFile != 0 {
		base.MaxPerFile = override.MaxPerFile
	}
	if override.MaxChunkBytes != "" {
		base.MaxChunkBytes = override.MaxChunkBytes
	}
	if override.RequiredFields != nil {
		base.RequiredFields = override.RequiredFields
	}
	if override.Compress != nil {
		base.Compress = override.Compress
	}
	if override.ExamplesFile != "" {
		base.ExamplesFile = override.ExamplesFile
	}
	if override.ComplexExamplesFile != "" {
		base.ComplexExamplesFile = override.ComplexExamplesFile
	}
	return base
}

// Profile returns the named profile.
func (c *Config) Profile(name string) (Profile, error) {
	p, ok := c.Profiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %q (known: %s)", ErrUnknownProfile, name, strings.Join(c.ProfileNames(), ", "))
	}
	p.Name = name
	return p, nil
}

// ProfileNames returns the configured profile names in sorted order.
func (c *Config) ProfileNames() []string {
	names := make([]string, 0, len(c.Profiles))
	for name := range c.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks that the profile can drive the chunked-dataset commands.
func (p Profile) Validate() error {
	if p.DataDir == "" {
		return fmt.Errorf("%w %q: data_dir is required", ErrInvalidProfile, p.Name)
	}
	if p.MainFile == "" {
		return fmt.Errorf("%w %q: main_file is required", ErrInvalidProfile, p.Name)
	}
	if p.ChunkPrefix == "" {
		return fmt.Errorf("%w %q: chunk_prefix is required", ErrInvalidProfile, p.Name)
	}
	if strings.ContainsAny(p.ChunkPrefix, `/\*?[{`) {
		return fmt.Errorf("%w %q: chunk_prefix %q contains path or glob characters", ErrInvalidProfile, p.Name, p.ChunkPrefix)
	}
	if p.MaxPerFile < 1 {
		return fmt.Errorf("%w %q: max_per_file must be at least 1, got %d", ErrInvalidProfile, p.Name, p.MaxPerFile)
	}
	if p.MaxChunkBytes != "" {
		if _, err := ParseBytes(p.MaxChunkBytes); err != nil {
			return fmt.Errorf("%w %q: max_chunk_bytes: %v", ErrInvalidProfile, p.Name, err)
		}
	}
	return nil
}

// RotationPolicy builds the chunk flushing policy for this profile: a record
// count limit of MaxPerFile, OR'd with the byte cap when one is configured.
func (p Profile) RotationPolicy() (chunk.RotationPolicy, error) {
	policies := []chunk.RotationPolicy{chunk.NewRecordCountPolicy(p.MaxPerFile)}
	if p.MaxChunkBytes != "" {
		n, err := ParseBytes(p.MaxChunkBytes)
		if err != nil {
			return nil, fmt.Errorf("invalid max_chunk_bytes: %w", err)
		}
		if n == 0 {
			return nil, fmt.Errorf("invalid max_chunk_bytes: must be positive")
		}
		policies = append(policies, chunk.NewSizePolicy(n))
	}
	if len(policies) == 1 {
		return policies[0], nil
	}
	return chunk.NewCompositePolicy(policies...), nil
}

// ParseBytes parses a byte size with an optional B, KB, MB, or GB suffix.
func ParseBytes(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty value")
	}

	s = strings.ToUpper(s)

	var multiplier uint64 = 1
	var numStr string

	switch {
	case strings.HasSuffix(s, "GB"):
		multiplier = 1024 * 1024 * 1024
		numStr = strings.TrimSuffix(s, "GB")
	case strings.HasSuffix(s, "MB"):
		multiplier = 1024 * 1024
		numStr = strings.TrimSuffix(s, "MB")
	case strings.HasSuffix(s, "KB"):
		multiplier = 1024
		numStr = strings.TrimSuffix(s, "KB")
	case strings.HasSuffix(s, "B"):
		numStr = strings.TrimSuffix(s, "B")
	default:
		numStr = s
	}

	n, err := strconv.ParseUint(strings.TrimSpace(numStr), 10, 64)
	if err != nil {
		return 0, err
	}
	if n > math.MaxUint64/multiplier {
		return 0, fmt.Errorf("value %q overflows uint64", s)
	}
	return n * multiplier, nil
}
