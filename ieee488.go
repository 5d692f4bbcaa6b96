package scpi

// IEEE 488.2 mandated command set plus the SYSTem:ERRor subsystem. These
// are appended to every command tree by NewContext; a caller-supplied
// command with the same pattern takes precedence.

// CoreCls implements *CLS: clear event status and the error queue.
func CoreCls(c *Context) Result {
	c.errors.clear()
	c.registers[RegESR] = 0
	c.updateStatus()
	return ResOK
}

// CoreEse implements *ESE: set the event status enable mask.
func CoreEse(c *Context) Result {
	v, res := c.ParamUInt32(true)
	if res != ResOK {
		return ResErr
	}
	c.RegSet(RegESE, uint16(v&0xFF))
	return ResOK
}

// CoreEseQ implements *ESE?.
func CoreEseQ(c *Context) Result {
	return c.ResultInt32(int32(c.RegGet(RegESE)))
}

// CoreEsrQ implements *ESR?: report and clear the event status register.
func CoreEsrQ(c *Context) Result {
	c.ResultInt32(int32(c.RegGet(RegESR)))
	c.RegSet(RegESR, 0)
	return ResOK
}

// CoreIdnQ implements *IDN?: the four identification fields separated by
// commas, with unset fields reported as 0.
func CoreIdnQ(c *Context) Result {
	for _, field := range c.idn {
		if field == "" {
			field = "0"
		}
		c.ResultMnemonic(field)
	}
	return ResOK
}

// CoreOpc implements *OPC. Commands execute synchronously, so the
// operation complete bit is set immediately.
func CoreOpc(c *Context) Result {
	c.RegSetBits(RegESR, ESROperationComplete)
	return ResOK
}

// CoreOpcQ implements *OPC?.
func CoreOpcQ(c *Context) Result {
	return c.ResultInt32(1)
}

// CoreRst implements *RST: drop the header path context and hand
// instrument state reset to the host. The status registers and error
// queue are deliberately left alone.
func CoreRst(c *Context) Result {
	c.currentPath = nil
	if c.iface != nil && c.iface.Reset != nil {
		if c.iface.Reset() != nil {
			return ResErr
		}
	}
	return ResOK
}

// CoreSre implements *SRE: set the service request enable mask.
func CoreSre(c *Context) Result {
	v, res := c.ParamUInt32(true)
	if res != ResOK {
		return ResErr
	}
	c.RegSet(RegSRE, uint16(v&0xFF))
	return ResOK
}

// CoreSreQ implements *SRE?.
func CoreSreQ(c *Context) Result {
	return c.ResultInt32(int32(c.RegGet(RegSRE)))
}

// CoreStbQ implements *STB?.
func CoreStbQ(c *Context) Result {
	return c.ResultInt32(int32(c.RegGet(RegSTB)))
}

// CoreTstQ implements *TST?: self-test, always passing.
func CoreTstQ(c *Context) Result {
	return c.ResultInt32(0)
}

// CoreWai implements *WAI: a no-op, since command execution never
// overlaps.
func CoreWai(c *Context) Result {
	return ResOK
}

// SystemErrorNextQ implements SYSTem:ERRor[:NEXT]?.
func SystemErrorNextQ(c *Context) Result {
	e := c.ErrorPop()
	if e == nil {
		e = &Error{Code: ErrNoError}
	}
	return c.ResultError(e)
}

// SystemErrorCountQ implements SYSTem:ERRor:COUNt?.
func SystemErrorCountQ(c *Context) Result {
	return c.ResultInt32(int32(c.ErrorCount()))
}

// SystemVersionQ implements SYSTem:VERSion?.
func SystemVersionQ(c *Context) Result {
	return c.ResultMnemonic("1999.0")
}

// CoreCommands returns the built-in command set.
func CoreCommands() []*Command {
	return []*Command{
		{Pattern: "*CLS", Callback: CoreCls},
		{Pattern: "*ESE", Callback: CoreEse},
		{Pattern: "*ESE?", Callback: CoreEseQ},
		{Pattern: "*ESR?", Callback: CoreEsrQ},
		{Pattern: "*IDN?", Callback: CoreIdnQ},
		{Pattern: "*OPC", Callback: CoreOpc},
		{Pattern: "*OPC?", Callback: CoreOpcQ},
		{Pattern: "*RST", Callback: CoreRst},
		{Pattern: "*SRE", Callback: CoreSre},
		{Pattern: "*SRE?", Callback: CoreSreQ},
		{Pattern: "*STB?", Callback: CoreStbQ},
		{Pattern: "*TST?", Callback: CoreTstQ},
		{Pattern: "*WAI", Callback: CoreWai},

		{Pattern: "SYSTem:ERRor[:NEXT]?", Callback: SystemErrorNextQ},
		{Pattern: "SYSTem:ERRor:COUNt?", Callback: SystemErrorCountQ},
		{Pattern: "SYSTem:VERSion?", Callback: SystemVersionQ},
	}
}
