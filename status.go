package scpi

// RegGet reads a status register.
func (c *Context) RegGet(name RegisterName) uint16 {
	if name < 0 || name >= regCount {
		return 0
	}
	return c.registers[name]
}

// RegSet writes a status register and recomputes the derived status byte
// bits, which may raise a service request.
func (c *Context) RegSet(name RegisterName, value uint16) {
	if name < 0 || name >= regCount {
		return
	}
	c.registers[name] = value
	c.updateStatus()
}

// RegSetBits ORs bits into a register.
func (c *Context) RegSetBits(name RegisterName, bits uint16) {
	c.RegSet(name, c.RegGet(name)|bits)
}

// RegClearBits clears bits of a register.
func (c *Context) RegClearBits(name RegisterName, bits uint16) {
	c.RegSet(name, c.RegGet(name)&^bits)
}

// updateStatus recomputes the derived status byte bits: EAV from the
// error queue, ESB from ESR gated by ESE, and MSS from the status byte
// gated by SRE with its own bit masked out. A 0->1 transition of MSS
// raises SRQ through the control sink, with bit 6 reported as RQS.
func (c *Context) updateStatus() {
	stb := c.registers[RegSTB] &^ (STBErrorQueue | STBEventSummary | STBServiceReq)

	if c.errors.size() > 0 {
		stb |= STBErrorQueue
	}
	if c.registers[RegESR]&c.registers[RegESE] != 0 {
		stb |= STBEventSummary
	}
	if stb&c.registers[RegSRE]&^STBServiceReq != 0 {
		stb |= STBServiceReq
	}
	c.registers[RegSTB] = stb

	active := stb&STBServiceReq != 0
	if active && !c.srqActive && c.iface != nil && c.iface.Control != nil {
		c.iface.Control(ControlSRQ, stb)
	}
	c.srqActive = active
}
