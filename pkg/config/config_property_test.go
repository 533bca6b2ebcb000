// Property-based tests for configuration defaulting. These verify that any
// non-positive tunable falls back to its operational default while explicit
// values survive, and that defaulting is idempotent.
package config

import (
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestProperty_NonPositiveTunablesFallBackToDefaults tests scaler fallback
//
// Property: For any non-positive scaler tunable (thresholds, cooldowns,
// instance bounds), ApplyDefaults SHALL substitute the operational default.
func TestProperty_NonPositiveTunablesFallBackToDefaults(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.MaxSize = 50

	properties := gopter.NewProperties(parameters)

	properties.Property("non-positive worker scaler values fall back to defaults", prop.ForAll(
		func(cooldown, checkInterval, minInstances int) bool {
			cfg := &Config{
				Services: []ServiceConfig{{Name: "grayscale", Queue: "grayscale_jobs"}},
				WorkerScaler: WorkerScalerConfig{
					Cooldown:      cooldown,
					CheckInterval: checkInterval,
					MinInstances:  minInstances,
				},
			}
			ApplyDefaults(cfg)
			return cfg.WorkerScaler.Cooldown == 120 &&
				cfg.WorkerScaler.CheckInterval == 30 &&
				cfg.WorkerScaler.MinInstances == 1
		},
		gen.IntRange(-1000, 0),
		gen.IntRange(-1000, 0),
		gen.IntRange(-1000, 0),
	))

	properties.Property("non-positive gateway thresholds fall back to defaults", prop.ForAll(
		func(up, down float64) bool {
			cfg := &Config{
				Services: []ServiceConfig{{Name: "grayscale", Queue: "grayscale_jobs"}},
				GatewayScaler: GatewayScalerConfig{
					LoadThresholdUp:   up,
					LoadThresholdDown: down,
				},
			}
			ApplyDefaults(cfg)
			return cfg.GatewayScaler.LoadThresholdUp == 80 &&
				cfg.GatewayScaler.LoadThresholdDown == 30
		},
		gen.Float64Range(-1000, 0),
		gen.Float64Range(-1000, 0),
	))

	properties.TestingRun(t)
}

// TestProperty_PositiveTunablesArePreserved tests that explicit values win
//
// Property: For any positive tunable, ApplyDefaults SHALL preserve the
// configured value and NOT overwrite it with the default.
func TestProperty_PositiveTunablesArePreserved(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.MaxSize = 50

	properties := gopter.NewProperties(parameters)

	properties.Property("positive worker scaler values are preserved", prop.ForAll(
		func(cooldown, maxInstances int) bool {
			cfg := &Config{
				Services: []ServiceConfig{{Name: "grayscale", Queue: "grayscale_jobs"}},
				WorkerScaler: WorkerScalerConfig{
					Cooldown:     cooldown,
					MaxInstances: maxInstances,
				},
			}
			ApplyDefaults(cfg)
			return cfg.WorkerScaler.Cooldown == cooldown &&
				cfg.WorkerScaler.MaxInstances == maxInstances
		},
		gen.IntRange(1, 3600),
		gen.IntRange(1, 100),
	))

	properties.TestingRun(t)
}

// TestProperty_ApplyDefaultsIsIdempotent tests defaulting stability
//
// Property: Applying ApplyDefaults twice SHALL produce the same
// configuration as applying it once.
func TestProperty_ApplyDefaultsIsIdempotent(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.MaxSize = 50

	properties := gopter.NewProperties(parameters)

	properties.Property("apply defaults is idempotent", prop.ForAll(
		func(port, cooldown, interval int) bool {
			cfg := &Config{
				Server:       ServerConfig{Port: port},
				Services:     []ServiceConfig{{Name: "grayscale", Queue: "grayscale_jobs"}},
				WorkerScaler: WorkerScalerConfig{Cooldown: cooldown},
				Monitor:      MonitorConfig{Interval: interval},
			}
			ApplyDefaults(cfg)
			first := *cfg
			firstServices := append([]ServiceConfig(nil), cfg.Services...)

			ApplyDefaults(cfg)
			if len(cfg.Services) != len(firstServices) || cfg.Services[0] != firstServices[0] {
				return false
			}
			cfgCopy := *cfg
			cfgCopy.Services = nil
			first.Services = nil
			return reflect.DeepEqual(cfgCopy, first)
		},
		gen.IntRange(-100, 100),
		gen.IntRange(-100, 100),
		gen.IntRange(-100, 100),
	))

	properties.TestingRun(t)
}
