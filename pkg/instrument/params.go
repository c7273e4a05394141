package instrument

import (
	"github.com/justyntemme/polysampler/pkg/framework/param"
	"github.com/justyntemme/polysampler/pkg/framework/process"
)

// Parameter IDs, shared with the render snapshot
const (
	ParamMasterGain          = process.ParamMasterGain
	ParamPan                 = process.ParamPan
	ParamTrimStart           = process.ParamTrimStart
	ParamTrimEnd             = process.ParamTrimEnd
	ParamSpeed               = process.ParamSpeed
	ParamReverse             = process.ParamReverse
	ParamVelocitySensitivity = process.ParamVelocitySensitivity
	ParamDrift               = process.ParamDrift

	paramCount = 8
)

// MaxTrimSeconds bounds the trim parameters.
const MaxTrimSeconds = 3600

func (i *Instrument) initializeParameters() error {
	return i.params.Add(
		param.New(ParamMasterGain, "Master Gain").
			Decibels(-96, 12).
			Default(i.cfg.MasterGainDB).
			Build(),

		param.New(ParamPan, "Pan").
			Bipolar().
			Default(i.cfg.Pan).
			Build(),

		param.New(ParamTrimStart, "Trim Start").
			Seconds(MaxTrimSeconds).
			Build(),

		param.New(ParamTrimEnd, "Trim End").
			Seconds(MaxTrimSeconds).
			Build(),

		param.New(ParamSpeed, "Speed").
			Range(0.01, 8).
			Default(i.cfg.Speed).
			Unit("x").
			Build(),

		param.New(ParamReverse, "Reverse").
			Toggle().
			Build(),

		// Note level is velocity times sensitivity
		param.New(ParamVelocitySensitivity, "Velocity Sensitivity").
			Range(0, 1).
			Default(i.cfg.VelocitySensitivity).
			Build(),

		param.New(ParamDrift, "Loop Drift").
			Range(0, 0.5).
			Default(i.cfg.DriftAmount).
			Build(),
	)
}
