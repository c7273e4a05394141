package param

// Builder assembles a Parameter with chained calls:
//
//	param.New(ParamGain, "Gain").Decibels(-96, 12).Default(0).Build()
type Builder struct {
	param *Parameter
}

// New starts a 0-1 automatable parameter.
func New(id uint32, name string) *Builder {
	return &Builder{
		param: &Parameter{
			ID:    id,
			Name:  name,
			Max:   1,
			Flags: CanAutomate,
		},
	}
}

// Range sets the plain value range.
func (b *Builder) Range(min, max float64) *Builder {
	if max < min {
		min, max = max, min
	}
	b.param.Min = min
	b.param.Max = max
	return b
}

// Default sets the plain default, clamped at Build.
func (b *Builder) Default(value float64) *Builder {
	b.param.DefaultValue = value
	return b
}

func (b *Builder) Unit(unit string) *Builder {
	b.param.Unit = unit
	return b
}

// Steps quantizes the range into count equal steps.
func (b *Builder) Steps(count int32) *Builder {
	b.param.StepCount = count
	return b
}

// Toggle makes an on/off parameter.
func (b *Builder) Toggle() *Builder {
	b.param.Min, b.param.Max = 0, 1
	b.param.StepCount = 1
	b.param.Flags |= IsToggle
	return b
}

// Decibels makes a gain parameter in dB with the matching text conversion.
func (b *Builder) Decibels(min, max float64) *Builder {
	return b.Range(min, max).Unit("dB").Formatter(DecibelFormatter, DecibelParser)
}

// Seconds makes a time parameter from 0 to max seconds.
func (b *Builder) Seconds(max float64) *Builder {
	return b.Range(0, max).Unit("s").Formatter(SecondsFormatter, SecondsParser)
}

// Bipolar makes a -1..1 pan-style parameter shown as L/C/R.
func (b *Builder) Bipolar() *Builder {
	return b.Range(-1, 1).Formatter(PanFormatter, PanParser)
}

// Formatter overrides text conversion. A nil parse falls back to plain
// float parsing.
func (b *Builder) Formatter(format func(float64) string, parse func(string) (float64, error)) *Builder {
	b.param.formatFunc = format
	b.param.parseFunc = parse
	return b
}

// Build clamps the default, stores it as the current value and returns the
// parameter.
func (b *Builder) Build() *Parameter {
	p := b.param
	p.DefaultValue = p.Clamp(p.DefaultValue)
	p.SetValue(p.DefaultValue)
	return p
}
