package scpi

import (
	"math"
	"strconv"
	"strings"
)

// Parameter returns the next program data element of the current command.
// For mandatory parameters a missing element queues -109 and a missing
// comma separator queues -103; for optional ones the cursor is left
// untouched so the caller can fall back to a default.
func (c *Context) Parameter(mandatory bool) (Parameter, Result) {
	l := &lexState{buffer: c.currentParams, pos: c.paramsPos, len: len(c.currentParams)}
	start := l.pos

	l.skipWs()
	if c.inputCount != 0 {
		if _, res := l.comma(); res != lexOK {
			l.pos = start
			if mandatory {
				c.ErrorPushCode(ErrInvalidSeparator)
			}
			return Parameter{}, ResErr
		}
		l.skipWs()
	}

	tok, res := parseProgramData(l)
	if res != lexOK {
		l.pos = start
		if mandatory {
			c.ErrorPushCode(ErrMissingParameter)
		}
		return Parameter{}, ResErr
	}

	c.paramsPos = l.pos
	c.inputCount++
	return Parameter(tok), ResOK
}

// parseDecimal converts decimal numeric token text. Whitespace may appear
// between the exponent marker and its digits, so it is stripped first.
func parseDecimal(data []byte) (float64, error) {
	s := string(data)
	if strings.ContainsAny(s, " \t") {
		s = strings.Map(func(r rune) rune {
			if r == ' ' || r == '\t' {
				return -1
			}
			return r
		}, s)
	}
	return strconv.ParseFloat(s, 64)
}

func (c *Context) paramToFloat64(p Parameter) (float64, Result) {
	switch p.Type {
	case TokenDecimalNumeric:
		v, err := parseDecimal(p.Data)
		if err != nil {
			c.ErrorPushCode(ErrDataTypeError)
			return 0, ResErr
		}
		return v, ResOK
	case TokenHexNum:
		return c.paramNondecimal(p, 16)
	case TokenOctNum:
		return c.paramNondecimal(p, 8)
	case TokenBinNum:
		return c.paramNondecimal(p, 2)
	case TokenDecimalNumericWithSuffix:
		c.ErrorPushCode(ErrSuffixNotAllowed)
		return 0, ResErr
	}
	c.ErrorPushCode(ErrDataTypeError)
	return 0, ResErr
}

func (c *Context) paramNondecimal(p Parameter, base int) (float64, Result) {
	v, err := strconv.ParseUint(string(p.Data), base, 64)
	if err != nil {
		c.ErrorPushCode(ErrDataTypeError)
		return 0, ResErr
	}
	return float64(v), ResOK
}

func (c *Context) paramToInt64(p Parameter, min, max float64) (int64, Result) {
	v, res := c.paramToFloat64(p)
	if res != ResOK {
		return 0, ResErr
	}
	v = math.Trunc(v)
	if v < min || v > max {
		c.ErrorPushCode(ErrDataOutOfRange)
		return 0, ResErr
	}
	return int64(v), ResOK
}

// ParamInt32 reads a numeric parameter as int32.
func (c *Context) ParamInt32(mandatory bool) (int32, Result) {
	p, res := c.Parameter(mandatory)
	if res != ResOK {
		return 0, ResErr
	}
	v, res := c.paramToInt64(p, math.MinInt32, math.MaxInt32)
	return int32(v), res
}

// ParamUInt32 reads a numeric parameter as uint32.
func (c *Context) ParamUInt32(mandatory bool) (uint32, Result) {
	p, res := c.Parameter(mandatory)
	if res != ResOK {
		return 0, ResErr
	}
	v, res := c.paramToInt64(p, 0, math.MaxUint32)
	return uint32(v), res
}

// ParamInt64 reads a numeric parameter as int64.
func (c *Context) ParamInt64(mandatory bool) (int64, Result) {
	p, res := c.Parameter(mandatory)
	if res != ResOK {
		return 0, ResErr
	}
	return c.paramToInt64(p, math.MinInt64, math.MaxInt64)
}

// ParamUInt64 reads a numeric parameter as uint64.
func (c *Context) ParamUInt64(mandatory bool) (uint64, Result) {
	p, res := c.Parameter(mandatory)
	if res != ResOK {
		return 0, ResErr
	}
	v, res := c.paramToFloat64(p)
	if res != ResOK {
		return 0, ResErr
	}
	v = math.Trunc(v)
	if v < 0 || v >= 1<<64 {
		c.ErrorPushCode(ErrDataOutOfRange)
		return 0, ResErr
	}
	return uint64(v), ResOK
}

// ParamDouble reads a numeric parameter as float64.
func (c *Context) ParamDouble(mandatory bool) (float64, Result) {
	p, res := c.Parameter(mandatory)
	if res != ResOK {
		return 0, ResErr
	}
	return c.paramToFloat64(p)
}

// ParamBool reads ON/OFF/1/0 style parameters.
func (c *Context) ParamBool(mandatory bool) (bool, Result) {
	p, res := c.Parameter(mandatory)
	if res != ResOK {
		return false, ResErr
	}

	if p.Type == TokenProgramMnemonic {
		switch {
		case matchPattern("ON", string(p.Data)):
			return true, ResOK
		case matchPattern("OFF", string(p.Data)):
			return false, ResOK
		}
		c.ErrorPushCode(ErrIllegalParameterValue)
		return false, ResErr
	}

	v, res := c.paramToFloat64(p)
	if res != ResOK {
		return false, ResErr
	}
	return v != 0, ResOK
}

// unquote collapses the doubled-quote escape inside a quoted token.
func unquote(data []byte, quote byte) string {
	inner := data[1 : len(data)-1]
	out := make([]byte, 0, len(inner))
	for i := 0; i < len(inner); i++ {
		out = append(out, inner[i])
		if inner[i] == quote && i+1 < len(inner) && inner[i+1] == quote {
			i++
		}
	}
	return string(out)
}

// ParamString reads a quoted string or bare mnemonic parameter.
func (c *Context) ParamString(mandatory bool) (string, Result) {
	p, res := c.Parameter(mandatory)
	if res != ResOK {
		return "", ResErr
	}

	switch p.Type {
	case TokenSingleQuoteData:
		return unquote(p.Data, '\''), ResOK
	case TokenDoubleQuoteData:
		return unquote(p.Data, '"'), ResOK
	case TokenProgramMnemonic:
		return string(p.Data), ResOK
	}
	c.ErrorPushCode(ErrInvalidStringData)
	return "", ResErr
}

// ParamArbitraryBlock reads a definite-length block parameter and returns
// its payload.
func (c *Context) ParamArbitraryBlock(mandatory bool) ([]byte, Result) {
	p, res := c.Parameter(mandatory)
	if res != ResOK {
		return nil, ResErr
	}
	if p.Type != TokenArbitraryBlock {
		c.ErrorPushCode(ErrDataTypeError)
		return nil, ResErr
	}
	return p.Data, ResOK
}

// ParamChoice matches a mnemonic parameter against options and returns
// the tag of the matching entry.
func (c *Context) ParamChoice(options []ChoiceDef, mandatory bool) (int32, Result) {
	p, res := c.Parameter(mandatory)
	if res != ResOK {
		return 0, ResErr
	}
	if p.Type != TokenProgramMnemonic {
		c.ErrorPushCode(ErrDataTypeError)
		return 0, ResErr
	}
	for _, opt := range options {
		if matchPattern(opt.Name, string(p.Data)) {
			return opt.Tag, ResOK
		}
	}
	c.ErrorPushCode(ErrIllegalParameterValue)
	return 0, ResErr
}

// specialNumbers maps the MINimum/MAXimum family of character data onto
// their tags; matching follows short/long mnemonic rules.
var specialNumbers = []struct {
	name string
	kind SpecialNumber
}{
	{"MINimum", NumMin},
	{"MAXimum", NumMax},
	{"DEFault", NumDef},
	{"UP", NumUp},
	{"DOWN", NumDown},
	{"NAN", NumNaN},
	{"INFinity", NumInf},
	{"NINFinity", NumNInf},
	{"AUTO", NumAuto},
}

// ParamNumber reads a numeric parameter including special values
// (MINimum, MAXimum, DEFault, ...) and unit suffixes ("0.01 V", "1 kHz").
// The returned Number carries the detected unit and the value scaled by
// the unit multiplier.
func (c *Context) ParamNumber(mandatory bool) (Number, Result) {
	p, res := c.Parameter(mandatory)
	if res != ResOK {
		return Number{}, ResErr
	}

	switch p.Type {
	case TokenDecimalNumeric:
		v, res := c.paramToFloat64(p)
		if res != ResOK {
			return Number{}, ResErr
		}
		return Number{Value: v, Base: 10}, ResOK

	case TokenHexNum:
		v, res := c.paramNondecimal(p, 16)
		return Number{Value: v, Base: 16}, res
	case TokenOctNum:
		v, res := c.paramNondecimal(p, 8)
		return Number{Value: v, Base: 8}, res
	case TokenBinNum:
		v, res := c.paramNondecimal(p, 2)
		return Number{Value: v, Base: 2}, res

	case TokenDecimalNumericWithSuffix:
		return c.numberWithSuffix(p)

	case TokenProgramMnemonic:
		for _, s := range specialNumbers {
			if matchPattern(s.name, string(p.Data)) {
				n := Number{Special: true, Kind: s.kind}
				switch s.kind {
				case NumNaN:
					n.Value = math.NaN()
				case NumInf:
					n.Value = math.Inf(1)
				case NumNInf:
					n.Value = math.Inf(-1)
				}
				return n, ResOK
			}
		}
		c.ErrorPushCode(ErrIllegalParameterValue)
		return Number{}, ResErr
	}

	c.ErrorPushCode(ErrDataTypeError)
	return Number{}, ResErr
}

// numberWithSuffix re-lexes a <number><suffix> token and resolves the
// suffix against the session's unit table.
func (c *Context) numberWithSuffix(p Parameter) (Number, Result) {
	l := newLexState(p.Data)
	num, res := l.decimalNumericProgramData()
	if res != lexOK {
		c.ErrorPushCode(ErrDataTypeError)
		return Number{}, ResErr
	}
	l.skipWs()
	sfx, res := l.suffixProgramData()
	if res != lexOK {
		c.ErrorPushCode(ErrInvalidSuffix)
		return Number{}, ResErr
	}

	v, err := parseDecimal(num.Data)
	if err != nil {
		c.ErrorPushCode(ErrDataTypeError)
		return Number{}, ResErr
	}

	def := c.lookupUnit(string(sfx.Data))
	if def == nil {
		c.ErrorPushCode(ErrInvalidSuffix)
		return Number{}, ResErr
	}
	return Number{Value: v * def.Mult, Unit: def.Unit, Base: 10}, ResOK
}

// ParamChannelList reads a channel list parameter such as
// (@1!2:3!4,5!6) and returns its entries.
func (c *Context) ParamChannelList(mandatory bool) ([]ChannelListEntry, Result) {
	p, res := c.Parameter(mandatory)
	if res != ResOK {
		return nil, ResErr
	}
	if p.Type != TokenProgramExpression {
		c.ErrorPushCode(ErrInvalidExpression)
		return nil, ResErr
	}

	entries, ok := parseChannelList(p.Data)
	if !ok {
		c.ErrorPushCode(ErrInvalidExpression)
		return nil, ResErr
	}
	return entries, ResOK
}

// parseChannelList decodes the body of a (@...) expression token,
// including the surrounding parentheses.
func parseChannelList(data []byte) ([]ChannelListEntry, bool) {
	l := newLexState(data)
	if !l.skipChr('(') || !l.skipChr('@') {
		return nil, false
	}

	var entries []ChannelListEntry
	for {
		from, ok := channelDims(l)
		if !ok {
			return nil, false
		}
		entry := ChannelListEntry{From: from, Dimensions: len(from)}

		if l.skipChr(':') {
			to, ok := channelDims(l)
			if !ok || len(to) != len(from) {
				return nil, false
			}
			entry.IsRange = true
			entry.To = to
		}
		entries = append(entries, entry)

		if l.skipChr(',') {
			continue
		}
		break
	}

	if !l.skipChr(')') || !l.isEOS() {
		return nil, false
	}
	return entries, true
}

// channelDims reads one multi-dimensional channel: digits separated by
// '!'.
func channelDims(l *lexState) ([]int32, bool) {
	var dims []int32
	for {
		start := l.pos
		if l.skipDigits() == 0 {
			return nil, false
		}
		v, err := strconv.ParseInt(string(l.buffer[start:l.pos]), 10, 32)
		if err != nil {
			return nil, false
		}
		dims = append(dims, int32(v))
		if !l.skipChr('!') {
			return dims, true
		}
	}
}
