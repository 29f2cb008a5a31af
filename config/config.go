// Package config provides the simulator configuration: target, core count,
// run bounds, memory hierarchy and energy weights. Configurations load from
// JSON or YAML files chosen by extension.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sarchlab/ahbsim/emu"
	"github.com/sarchlab/ahbsim/timing/cache"
	"github.com/sarchlab/ahbsim/timing/latency"
)

// Configuration errors.
var (
	ErrInvalidCoreCount   = errors.New("invalid core count")
	ErrInvalidTarget      = errors.New("invalid target")
	ErrInvalidCycleBound  = errors.New("invalid cycle bound")
	ErrInvalidCacheConfig = errors.New("invalid cache config")
)

// Target selects the simulated system.
type Target string

// Simulation targets.
const (
	// TargetSingleCore is one general-purpose core running the base ISA.
	TargetSingleCore Target = "single-core"
	// TargetHeterogeneous is a mix of all core types running the full ISA.
	TargetHeterogeneous Target = "heterogeneous-multicore"
)

var targetAliases = map[string]Target{
	"alpha":  TargetSingleCore,
	"alpham": TargetHeterogeneous,
}

// ParseTarget returns the target with the given name or alias.
func ParseTarget(name string) (Target, error) {
	switch t := Target(strings.ToLower(name)); t {
	case TargetSingleCore, TargetHeterogeneous:
		return t, nil
	}
	if t, ok := targetAliases[strings.ToLower(name)]; ok {
		return t, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidTarget, name)
}

// Default configuration values.
const (
	DefaultNumCores     = 64
	DefaultMaxCycles    = 1_000_000
	DefaultFrequencyGHz = 1.0
)

// CacheLevels holds the per-level cache parameters.
type CacheLevels struct {
	L1I cache.LevelConfig `json:"l1i" yaml:"l1i"`
	L1D cache.LevelConfig `json:"l1d" yaml:"l1d"`
	L2  cache.LevelConfig `json:"l2" yaml:"l2"`
	L3  cache.LevelConfig `json:"l3" yaml:"l3"`
}

// CacheConfig holds the memory hierarchy parameters.
type CacheConfig struct {
	// Mode is "assumed" or "simulated".
	Mode cache.Mode `json:"mode" yaml:"mode"`

	// HitRates overrides the per-level hit rates by level name.
	HitRates map[string]float64 `json:"hit_rates,omitempty" yaml:"hit_rates,omitempty"`

	// Levels holds geometry and latency per level.
	Levels CacheLevels `json:"levels" yaml:"levels"`

	// MainLatency is the main memory latency in cycles.
	MainLatency uint64 `json:"main_latency" yaml:"main_latency"`
}

// Config holds the simulator configuration.
type Config struct {
	// Target is the simulated system.
	Target Target `json:"target" yaml:"target"`

	// NumCores is the number of cores of a heterogeneous system.
	NumCores int `json:"num_cores" yaml:"num_cores"`

	// MaxCycles bounds the number of scheduler cycles.
	MaxCycles uint64 `json:"max_cycles" yaml:"max_cycles"`

	// Parallel steps cores concurrently within a cycle.
	Parallel bool `json:"parallel" yaml:"parallel"`

	// ExecuteStalls makes multi-cycle instructions hold Execute.
	ExecuteStalls bool `json:"execute_stalls" yaml:"execute_stalls"`

	// ChargeMemoryLatency adds data access latency to core cycles.
	ChargeMemoryLatency bool `json:"charge_memory_latency" yaml:"charge_memory_latency"`

	// FrequencyGHz is the core clock used for simulated time.
	FrequencyGHz float64 `json:"frequency_ghz" yaml:"frequency_ghz"`

	// Cache configures the memory hierarchy.
	Cache CacheConfig `json:"cache" yaml:"cache"`

	// EnergyPerCycle weights executed cycles by core type short name.
	EnergyPerCycle map[string]float64 `json:"energy_per_cycle" yaml:"energy_per_cycle"`

	// CycleOverrides replaces the cycle cost of mnemonics.
	CycleOverrides map[string]uint32 `json:"cycle_overrides,omitempty" yaml:"cycle_overrides,omitempty"`
}

// DefaultEnergyPerCycle returns the default energy weight of each core type.
func DefaultEnergyPerCycle() map[string]float64 {
	return map[string]float64{
		emu.GeneralPurpose.String():   1.0,
		emu.VectorProcessing.String(): 1.5,
		emu.NeuralProcessing.String(): 2.0,
		emu.AIProcessing.String():     2.0,
		emu.MemoryProcessing.String(): 0.8,
		emu.IOProcessing.String():     0.5,
		emu.Graphics.String():         1.8,
		emu.MemoryController.String(): 0.6,
	}
}

// Default returns the default configuration: a 64-core heterogeneous
// system with assumed cache hit rates.
func Default() *Config {
	def := cache.DefaultConfig()
	return &Config{
		Target:       TargetHeterogeneous,
		NumCores:     DefaultNumCores,
		MaxCycles:    DefaultMaxCycles,
		FrequencyGHz: DefaultFrequencyGHz,
		Cache: CacheConfig{
			Mode: def.Mode,
			Levels: CacheLevels{
				L1I: def.Levels[cache.L1I],
				L1D: def.Levels[cache.L1D],
				L2:  def.Levels[cache.L2],
				L3:  def.Levels[cache.L3],
			},
			MainLatency: def.MainLatency,
		},
		EnergyPerCycle: DefaultEnergyPerCycle(),
	}
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// Load reads a configuration file over the defaults. Files ending in .yaml
// or .yml are YAML; everything else is JSON. Target aliases are resolved,
// and a single-core file that leaves num_cores unset gets one core.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	var set fileKeys
	if isYAML(path) {
		err = errors.Join(yaml.Unmarshal(data, config), yaml.Unmarshal(data, &set))
	} else {
		err = errors.Join(json.Unmarshal(data, config), json.Unmarshal(data, &set))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if target, err := ParseTarget(string(config.Target)); err == nil {
		config.Target = target
		if target == TargetSingleCore && set.NumCores == nil {
			config.NumCores = 1
		}
	}

	return config, nil
}

// fileKeys records which defaulted keys a configuration file sets.
type fileKeys struct {
	NumCores *int `json:"num_cores" yaml:"num_cores"`
}

// Save writes the configuration to a file in the format chosen by its
// extension.
func (c *Config) Save(path string) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	target, err := ParseTarget(string(c.Target))
	if err != nil {
		return err
	}

	switch {
	case c.NumCores < 1:
		return fmt.Errorf("%w: num_cores must be > 0, got %d", ErrInvalidCoreCount, c.NumCores)
	case target == TargetSingleCore && c.NumCores > 1:
		return fmt.Errorf("%w: %s runs one core, got %d", ErrInvalidCoreCount, target, c.NumCores)
	}

	if c.MaxCycles == 0 {
		return fmt.Errorf("%w: max_cycles must be > 0", ErrInvalidCycleBound)
	}
	if c.FrequencyGHz <= 0 {
		return fmt.Errorf("%w: frequency_ghz must be > 0", ErrInvalidCycleBound)
	}

	if err := c.CacheConfig().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidCacheConfig, err)
	}
	for name := range c.Cache.HitRates {
		if _, ok := levelByName(name); !ok {
			return fmt.Errorf("%w: unknown cache level %q", ErrInvalidCacheConfig, name)
		}
	}

	if _, err := c.LatencyTable(); err != nil {
		return err
	}

	for name, e := range c.EnergyPerCycle {
		if _, err := emu.ParseCoreType(name); err != nil {
			return fmt.Errorf("energy_per_cycle: %w", err)
		}
		if e < 0 {
			return fmt.Errorf("energy_per_cycle of %s must be >= 0", name)
		}
	}

	return nil
}

func levelByName(name string) (cache.Level, bool) {
	for i := 0; i < cache.NumCacheLevels; i++ {
		if cache.Level(i).String() == strings.ToLower(name) {
			return cache.Level(i), true
		}
	}
	return 0, false
}

// CacheConfig returns the hierarchy configuration with hit rate overrides
// applied.
func (c *Config) CacheConfig() cache.Config {
	cfg := cache.Config{
		Mode: c.Cache.Mode,
		Levels: [cache.NumCacheLevels]cache.LevelConfig{
			cache.L1I: c.Cache.Levels.L1I,
			cache.L1D: c.Cache.Levels.L1D,
			cache.L2:  c.Cache.Levels.L2,
			cache.L3:  c.Cache.Levels.L3,
		},
		MainLatency: c.Cache.MainLatency,
	}

	for name, rate := range c.Cache.HitRates {
		if l, ok := levelByName(name); ok {
			cfg.Levels[l].HitRate = rate
		}
	}

	return cfg
}

// LatencyTable returns the cycle cost table with the configured overrides.
func (c *Config) LatencyTable() (*latency.Table, error) {
	return latency.NewTableWithOverrides(c.CycleOverrides)
}

// Energy returns the energy weight of a core type. Types without an entry
// weigh 1.
func (c *Config) Energy(t emu.CoreType) float64 {
	if e, ok := c.EnergyPerCycle[t.String()]; ok {
		return e
	}
	return 1
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Cache.HitRates = maps.Clone(c.Cache.HitRates)
	clone.EnergyPerCycle = maps.Clone(c.EnergyPerCycle)
	clone.CycleOverrides = maps.Clone(c.CycleOverrides)
	return &clone
}
