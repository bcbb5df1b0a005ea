package marble

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// FileConfig is the optional on-disk/environment overlay for scheduler
// defaults, loaded via LoadFileConfig and passed to NewScheduler via
// [WithFileConfig]. It lets a CI environment or a developer's .env file
// retune the harness's safety bounds (useful on slow shared runners)
// without touching test code.
type FileConfig struct {
	TickTime           time.Duration `yaml:"tick_time"`
	MaxTicks           Tick          `yaml:"max_ticks"`
	MaxDrainIterations int           `yaml:"max_drain_iterations"`
}

// Environment variable names overlaid onto FileConfig after the YAML file
// is parsed, matching the common getEnv*-with-fallback convention.
const (
	envTickTime           = "MARBLE_TICK_TIME"
	envMaxTicks           = "MARBLE_MAX_TICKS"
	envMaxDrainIterations = "MARBLE_MAX_DRAIN_ITERATIONS"
)

// LoadFileConfig loads a .env file (if present in the working directory,
// silently ignored if absent — the same permissive convention the pack
// uses for optional local configuration) and an optional YAML config file
// at path, then overlays environment variables on top. The result is an
// ordinary value: it has no effect on any Scheduler until passed explicitly
// to NewScheduler via [WithFileConfig]. There is no process-wide config
// state — every Scheduler's configuration traces back to the Option slice
// its own constructor call received.
//
// Passing an empty path skips the YAML file and applies only .env/
// environment overlays.
func LoadFileConfig(path string) (*FileConfig, error) {
	_ = godotenv.Load()

	cfg := &FileConfig{
		TickTime:           defaultTickTime,
		MaxTicks:           defaultMaxTicks,
		MaxDrainIterations: defaultMaxDrainIterations,
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, WrapError("marble: reading config file", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, WrapError("marble: parsing config file", err)
		}
	}

	if v := os.Getenv(envTickTime); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.TickTime = d
		}
	}
	if v := os.Getenv(envMaxTicks); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			cfg.MaxTicks = Tick(n)
		}
	}
	if v := os.Getenv(envMaxDrainIterations); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxDrainIterations = n
		}
	}

	return cfg, nil
}
