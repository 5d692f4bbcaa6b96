package scpi

// DefaultUnits is the built-in suffix table used to resolve unit program
// data such as "10 MV" or "1.5 kOHM". Matching follows mnemonic rules, so
// "kilohertz" style long forms are not needed; SCPI suffixes are the
// short symbols themselves.
var DefaultUnits = []UnitDef{
	// voltage
	{Name: "UV", Unit: UnitVolt, Mult: 1e-6},
	{Name: "MV", Unit: UnitVolt, Mult: 1e-3},
	{Name: "V", Unit: UnitVolt, Mult: 1},
	{Name: "KV", Unit: UnitVolt, Mult: 1e3},

	// current
	{Name: "UA", Unit: UnitAmpere, Mult: 1e-6},
	{Name: "MA", Unit: UnitAmpere, Mult: 1e-3},
	{Name: "A", Unit: UnitAmpere, Mult: 1},

	// resistance
	{Name: "OHM", Unit: UnitOhm, Mult: 1},
	{Name: "KOHM", Unit: UnitOhm, Mult: 1e3},
	{Name: "MOHM", Unit: UnitOhm, Mult: 1e6},

	// frequency
	{Name: "HZ", Unit: UnitHertz, Mult: 1},
	{Name: "KHZ", Unit: UnitHertz, Mult: 1e3},
	{Name: "MHZ", Unit: UnitHertz, Mult: 1e6},
	{Name: "GHZ", Unit: UnitHertz, Mult: 1e9},

	// temperature
	{Name: "CEL", Unit: UnitCelsius, Mult: 1},

	// time
	{Name: "PS", Unit: UnitSecond, Mult: 1e-12},
	{Name: "NS", Unit: UnitSecond, Mult: 1e-9},
	{Name: "US", Unit: UnitSecond, Mult: 1e-6},
	{Name: "MS", Unit: UnitSecond, Mult: 1e-3},
	{Name: "S", Unit: UnitSecond, Mult: 1},
	{Name: "MIN", Unit: UnitSecond, Mult: 60},
	{Name: "HR", Unit: UnitSecond, Mult: 3600},

	// distance
	{Name: "M", Unit: UnitMeter, Mult: 1},

	// capacitance
	{Name: "PF", Unit: UnitFarad, Mult: 1e-12},
	{Name: "NF", Unit: UnitFarad, Mult: 1e-9},
	{Name: "UF", Unit: UnitFarad, Mult: 1e-6},
	{Name: "F", Unit: UnitFarad, Mult: 1},

	// power and ratio
	{Name: "W", Unit: UnitWatt, Mult: 1},
	{Name: "MW", Unit: UnitWatt, Mult: 1e-3},
	{Name: "DB", Unit: UnitDecibel, Mult: 1},
	{Name: "PCT", Unit: UnitPercent, Mult: 1},
}

// SetUnits replaces the session's unit suffix table.
func (c *Context) SetUnits(units []UnitDef) {
	c.units = units
}

func (c *Context) lookupUnit(suffix string) *UnitDef {
	for i := range c.units {
		if matchPattern(c.units[i].Name, suffix) {
			return &c.units[i]
		}
	}
	return nil
}
