package main

import (
	"math/rand"

	scpi "github.com/Nine-Fives/go-scpi"
)

// instrument is the simulated device a session operates on: a bench
// multimeter with a two-channel source section.
type instrument struct {
	volts   float64
	freq    float64
	outputs [3]bool
	trigSrc int32
	label   string
}

func newInstrument() *instrument {
	inst := &instrument{}
	inst.reset()
	return inst
}

func (inst *instrument) reset() {
	inst.volts = 0
	inst.freq = 1000
	inst.outputs = [3]bool{}
	inst.trigSrc = trigImmediate
	inst.label = ""
}

const (
	trigBus int32 = iota
	trigImmediate
	trigExternal
)

var trigSources = []scpi.ChoiceDef{
	{Name: "BUS", Tag: trigBus},
	{Name: "IMMediate", Tag: trigImmediate},
	{Name: "EXTernal", Tag: trigExternal},
}

// measure simulates a DC voltage reading: the programmed level plus a
// little noise, clamped to the requested range.
func (inst *instrument) measure(rng float64) float64 {
	v := inst.volts + rand.Float64()*1e-4
	if rng > 0 && v > rng {
		v = rng
	}
	return v
}

func (inst *instrument) commands() []*scpi.Command {
	return []*scpi.Command{
		{Pattern: "MEASure:VOLTage:DC?", Callback: func(c *scpi.Context) scpi.Result {
			rng := 0.0
			if n, res := c.ParamNumber(false); res == scpi.ResOK && !n.Special {
				rng = n.Value
			}
			// optional resolution parameter, accepted and ignored
			c.ParamNumber(false)
			return c.ResultDouble(inst.measure(rng))
		}},

		{Pattern: "SOURce:VOLTage[:LEVel]", Callback: func(c *scpi.Context) scpi.Result {
			n, res := c.ParamNumber(true)
			if res != scpi.ResOK {
				return scpi.ResErr
			}
			switch {
			case n.Special && n.Kind == scpi.NumMin:
				inst.volts = 0
			case n.Special && n.Kind == scpi.NumMax:
				inst.volts = 10
			case n.Special:
				c.ErrorPushCode(scpi.ErrIllegalParameterValue)
				return scpi.ResErr
			default:
				inst.volts = n.Value
			}
			return scpi.ResOK
		}},
		{Pattern: "SOURce:VOLTage[:LEVel]?", Callback: func(c *scpi.Context) scpi.Result {
			return c.ResultDouble(inst.volts)
		}},

		{Pattern: "SOURce:FREQuency[:CW]", Callback: func(c *scpi.Context) scpi.Result {
			v, res := c.ParamDouble(true)
			if res != scpi.ResOK {
				return scpi.ResErr
			}
			if v <= 0 {
				c.ErrorPushCode(scpi.ErrDataOutOfRange)
				return scpi.ResErr
			}
			inst.freq = v
			return scpi.ResOK
		}},
		{Pattern: "SOURce:FREQuency[:CW]?", Callback: func(c *scpi.Context) scpi.Result {
			return c.ResultDouble(inst.freq)
		}},

		{Pattern: "OUTPut#[:STATe]", Callback: func(c *scpi.Context) scpi.Result {
			nums := make([]int32, 1)
			c.CommandNumbers(nums, 1)
			on, res := c.ParamBool(true)
			if res != scpi.ResOK {
				return scpi.ResErr
			}
			inst.outputs[nums[0]-1] = on
			return scpi.ResOK
		}, MaxSuffix: 3},
		{Pattern: "OUTPut#[:STATe]?", Callback: func(c *scpi.Context) scpi.Result {
			nums := make([]int32, 1)
			c.CommandNumbers(nums, 1)
			return c.ResultBool(inst.outputs[nums[0]-1])
		}, MaxSuffix: 3},

		{Pattern: "TRIGger:SOURce", Callback: func(c *scpi.Context) scpi.Result {
			tag, res := c.ParamChoice(trigSources, true)
			if res != scpi.ResOK {
				return scpi.ResErr
			}
			inst.trigSrc = tag
			return scpi.ResOK
		}},
		{Pattern: "TRIGger:SOURce?", Callback: func(c *scpi.Context) scpi.Result {
			for _, src := range trigSources {
				if src.Tag == inst.trigSrc {
					return c.ResultMnemonic(shortName(src.Name))
				}
			}
			return scpi.ResErr
		}},

		{Pattern: "SYSTem:LABel", Callback: func(c *scpi.Context) scpi.Result {
			s, res := c.ParamString(true)
			if res != scpi.ResOK {
				return scpi.ResErr
			}
			inst.label = s
			return scpi.ResOK
		}},
		{Pattern: "SYSTem:LABel?", Callback: func(c *scpi.Context) scpi.Result {
			return c.ResultText(inst.label)
		}},
	}
}

// shortName is the upper-case head of a choice pattern, used when echoing
// the canonical form of a setting back to the client.
func shortName(pattern string) string {
	for i := 0; i < len(pattern); i++ {
		if pattern[i] >= 'a' && pattern[i] <= 'z' {
			return pattern[:i]
		}
	}
	return pattern
}
