// Package cliutil implements the ambient configuration surface
// cmd/varlociraptor is built on: viper-backed defaults/overrides for the §6
// preprocessing knobs, bound the same way inodb-vibe-vep/cmd/vibe-vep's
// config.go binds its own settings (package-level viper.Get* calls, a YAML
// config file as the override layer).
package cliutil

import (
	"math"

	"github.com/spf13/viper"

	"github.com/PROSIC/libprosic/internal/errs"
	"github.com/PROSIC/libprosic/internal/realign"
	"github.com/PROSIC/libprosic/internal/sampleengine"
)

// Preprocessing knob names and defaults, per §6.
const (
	KeySpuriousInsRate    = "spurious_ins_rate"
	KeySpuriousDelRate    = "spurious_del_rate"
	KeySpuriousInsExtRate = "spurious_insext_rate"
	KeySpuriousDelExtRate = "spurious_delext_rate"
	KeyIndelWindow        = "indel_window"
	KeyMaxIndelLen        = "max_indel_len"
	KeyMaxDepth           = "max_depth"
)

// SetDefaults registers §6's default value for every preprocessing knob on
// v, so an unset config file or flag falls back to the spec's defaults.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeySpuriousInsRate, 2.8e-6)
	v.SetDefault(KeySpuriousDelRate, 5.1e-6)
	v.SetDefault(KeySpuriousInsExtRate, 0.0)
	v.SetDefault(KeySpuriousDelExtRate, 0.0)
	v.SetDefault(KeyIndelWindow, 64)
	v.SetDefault(KeyMaxIndelLen, 1000)
	v.SetDefault(KeyMaxDepth, 200)
}

// maxAllowedIndelWindow is §6's stated ceiling: indel_window "must be <= 64".
const maxAllowedIndelWindow = 64

// RealignParams builds realign.Params from v's preprocessing knobs, per
// §6's mapping of spurious_ins_rate/spurious_del_rate (and their extension
// counterparts) onto the pair-HMM's gap-open/gap-extend probabilities.
func RealignParams(v *viper.Viper) (realign.Params, error) {
	insRate := v.GetFloat64(KeySpuriousInsRate)
	delRate := v.GetFloat64(KeySpuriousDelRate)
	insExtRate := v.GetFloat64(KeySpuriousInsExtRate)
	delExtRate := v.GetFloat64(KeySpuriousDelExtRate)
	if insRate <= 0 || insRate >= 1 {
		return realign.Params{}, errs.NewPolicy("%s must be in (0, 1), got %g", KeySpuriousInsRate, insRate)
	}
	if delRate <= 0 || delRate >= 1 {
		return realign.Params{}, errs.NewPolicy("%s must be in (0, 1), got %g", KeySpuriousDelRate, delRate)
	}
	return realign.Params{
		ProbGapX:       math.Log(insRate),
		ProbGapY:       math.Log(delRate),
		ProbGapXExtend: logOrZero(insExtRate),
		ProbGapYExtend: logOrZero(delExtRate),
	}, nil
}

func logOrZero(rate float64) float64 {
	if rate <= 0 {
		return math.Inf(-1)
	}
	return math.Log(rate)
}

// SampleEngineOptions builds sampleengine.Options from v's preprocessing
// knobs, validating indel_window against §6's "must be <= 64" policy
// constraint before it ever reaches internal/sampleengine.
func SampleEngineOptions(v *viper.Viper) (sampleengine.Options, error) {
	indelWindow := v.GetInt(KeyIndelWindow)
	if indelWindow > maxAllowedIndelWindow {
		return sampleengine.Options{}, errs.NewPolicy("indel_window must be <= %d, got %d", maxAllowedIndelWindow, indelWindow)
	}
	if indelWindow <= 0 {
		return sampleengine.Options{}, errs.NewPolicy("indel_window must be > 0, got %d", indelWindow)
	}
	maxDepth := v.GetInt(KeyMaxDepth)
	if maxDepth <= 0 {
		return sampleengine.Options{}, errs.NewPolicy("max_depth must be > 0, got %d", maxDepth)
	}
	realignParams, err := RealignParams(v)
	if err != nil {
		return sampleengine.Options{}, err
	}
	opts := sampleengine.DefaultOptions()
	opts.MaxDepth = maxDepth
	opts.RealignParams = realignParams
	opts.Window = indelWindow
	return opts, nil
}
