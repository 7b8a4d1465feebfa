// Package solve carries the solver-independent contract of gomo: option
// blocks with validated defaults and the results object iterative drivers
// fill in. It deliberately contains no solver.
package solve

import (
	"fmt"

	"github.com/spf13/viper"
)

// Tear methods accepted by Options.TearMethod.
const (
	TearDirect   = "Direct"
	TearWegstein = "Wegstein"
)

// Options is the configuration block shared by iterative drivers. Zero
// values mean "use the default"; build from DefaultOptions and override.
type Options struct {
	// IterLim bounds the number of outer iterations.
	IterLim int `mapstructure:"iterlim"`
	// StallAfter is the number of non-improving iterations after which a
	// driver gives up.
	StallAfter int `mapstructure:"stall_after"`
	// TearMethod selects how tear streams are updated between sweeps.
	TearMethod string `mapstructure:"tear_method"`
	// Tolerance is the convergence tolerance on tear residuals and bounds.
	Tolerance float64 `mapstructure:"tolerance"`
	// ConstraintTolerance is the slack allowed on constraint satisfaction.
	ConstraintTolerance float64 `mapstructure:"constraint_tolerance"`
	// IntegerTolerance is the slack allowed on integral values.
	IntegerTolerance float64 `mapstructure:"integer_tolerance"`
	// WegsteinMin and WegsteinMax clamp the Wegstein acceleration factor.
	WegsteinMin float64 `mapstructure:"wegstein_min"`
	WegsteinMax float64 `mapstructure:"wegstein_max"`
	// Tee streams per-iteration progress through the logger at info level.
	Tee bool `mapstructure:"tee"`
}

// DefaultOptions returns the defaults every driver starts from.
func DefaultOptions() Options {
	return Options{
		IterLim:             30,
		StallAfter:          2,
		TearMethod:          TearDirect,
		Tolerance:           1e-5,
		ConstraintTolerance: 1e-6,
		IntegerTolerance:    1e-5,
		WegsteinMin:         -5,
		WegsteinMax:         0,
	}
}

// Validate checks option domains.
func (o Options) Validate() error {
	if o.IterLim < 0 {
		return fmt.Errorf("iterlim must be non-negative, got %d", o.IterLim)
	}
	if o.StallAfter < 1 {
		return fmt.Errorf("stall_after must be positive, got %d", o.StallAfter)
	}
	if o.TearMethod != TearDirect && o.TearMethod != TearWegstein {
		return fmt.Errorf("unknown tear method %q, valid methods: %s, %s", o.TearMethod, TearDirect, TearWegstein)
	}
	if o.Tolerance <= 0 {
		return fmt.Errorf("tolerance must be positive, got %g", o.Tolerance)
	}
	if o.ConstraintTolerance <= 0 {
		return fmt.Errorf("constraint_tolerance must be positive, got %g", o.ConstraintTolerance)
	}
	if o.IntegerTolerance <= 0 {
		return fmt.Errorf("integer_tolerance must be positive, got %g", o.IntegerTolerance)
	}
	if o.WegsteinMin > o.WegsteinMax {
		return fmt.Errorf("wegstein_min %g above wegstein_max %g", o.WegsteinMin, o.WegsteinMax)
	}
	return nil
}

// LoadOptions reads options from a config file (format inferred from the
// extension), filling unset keys with defaults.
func LoadOptions(path string) (Options, error) {
	v := viper.New()
	def := DefaultOptions()
	v.SetDefault("iterlim", def.IterLim)
	v.SetDefault("stall_after", def.StallAfter)
	v.SetDefault("tear_method", def.TearMethod)
	v.SetDefault("tolerance", def.Tolerance)
	v.SetDefault("constraint_tolerance", def.ConstraintTolerance)
	v.SetDefault("integer_tolerance", def.IntegerTolerance)
	v.SetDefault("wegstein_min", def.WegsteinMin)
	v.SetDefault("wegstein_max", def.WegsteinMax)
	v.SetDefault("tee", def.Tee)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return Options{}, fmt.Errorf("read options %s: %w", path, err)
	}
	var o Options
	if err := v.Unmarshal(&o); err != nil {
		return Options{}, fmt.Errorf("parse options %s: %w", path, err)
	}
	if err := o.Validate(); err != nil {
		return Options{}, fmt.Errorf("options %s: %w", path, err)
	}
	return o, nil
}
