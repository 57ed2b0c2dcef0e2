package scoring

import (
	"bytes"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/wonny/auditready/internal/contracts"
)

// Config holds component weights, penalty points and status thresholds
type Config struct {
	Weights    Weights    `yaml:"weights" json:"weights"`
	Penalties  Penalties  `yaml:"penalties" json:"penalties"`
	Thresholds Thresholds `yaml:"thresholds" json:"thresholds"`
}

// Weights of the four components. Sum = 1.0
type Weights struct {
	Material      float64 `yaml:"material" json:"material"`
	Menu          float64 `yaml:"menu" json:"menu"`
	Documentation float64 `yaml:"documentation" json:"documentation"`
	Alerts        float64 `yaml:"alerts" json:"alerts"`
}

// Sum returns the total of all weights
func (w Weights) Sum() float64 {
	return w.Material + w.Menu + w.Documentation + w.Alerts
}

// Penalties are points subtracted per offending record
type Penalties struct {
	ExpiredMaterial      float64 `yaml:"expired_material" json:"expired_material"`
	NonCompliantMaterial float64 `yaml:"non_compliant_material" json:"non_compliant_material"`
	HighAlert            float64 `yaml:"high_alert" json:"high_alert"`
	MediumAlert          float64 `yaml:"medium_alert" json:"medium_alert"`
	LowAlert             float64 `yaml:"low_alert" json:"low_alert"`
}

// Thresholds are the inclusive lower bounds of GREEN and AMBER.
// Green doubles as the readiness goal.
type Thresholds struct {
	Green float64 `yaml:"green" json:"green"`
	Amber float64 `yaml:"amber" json:"amber"`
}

// DefaultConfig returns the standard audit readiness scoring rules
func DefaultConfig() Config {
	return Config{
		Weights: Weights{
			Material:      0.30,
			Menu:          0.25,
			Documentation: 0.25,
			Alerts:        0.20,
		},
		Penalties: Penalties{
			ExpiredMaterial:      5,
			NonCompliantMaterial: 10,
			HighAlert:            5,
			MediumAlert:          2,
			LowAlert:             1,
		},
		Thresholds: Thresholds{
			Green: contracts.GoalThreshold,
			Amber: 70,
		},
	}
}

// ValidationError describes a malformed config or snapshot
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks weights, penalties and thresholds
func (c Config) Validate() error {
	weights := map[string]float64{
		"weights.material":      c.Weights.Material,
		"weights.menu":          c.Weights.Menu,
		"weights.documentation": c.Weights.Documentation,
		"weights.alerts":        c.Weights.Alerts,
	}
	for field, w := range weights {
		if w <= 0 || w > 1 {
			return ValidationError{field, "must be in (0, 1]"}
		}
	}
	if math.Abs(c.Weights.Sum()-1.0) > 1e-6 {
		return ValidationError{"weights", fmt.Sprintf("must sum to 1.0, got %.6f", c.Weights.Sum())}
	}

	penalties := map[string]float64{
		"penalties.expired_material":       c.Penalties.ExpiredMaterial,
		"penalties.non_compliant_material": c.Penalties.NonCompliantMaterial,
		"penalties.high_alert":             c.Penalties.HighAlert,
		"penalties.medium_alert":           c.Penalties.MediumAlert,
		"penalties.low_alert":              c.Penalties.LowAlert,
	}
	for field, p := range penalties {
		if p < 0 {
			return ValidationError{field, "must be >= 0"}
		}
	}

	if c.Thresholds.Amber <= 0 || c.Thresholds.Green > 100 {
		return ValidationError{"thresholds", "must lie within (0, 100]"}
	}
	if c.Thresholds.Amber >= c.Thresholds.Green {
		return ValidationError{"thresholds", "amber must be < green"}
	}

	return nil
}

// LoadConfig reads a YAML scoring config. Unknown fields are rejected.
// Fields absent from the file keep their default values.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read scoring config: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("decode scoring config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}
