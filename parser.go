package scpi

import (
	"fmt"
	"strconv"
	"strings"
)

const defaultInputBufferSize = 256

// NewContext compiles the command table and prepares a session. The core
// IEEE 488.2 command set (*CLS, *ESE, *IDN? ...) is appended after the
// caller's commands, so a caller-supplied pattern overrides the built-in
// one. bufferSize limits how many bytes of an unterminated message may be
// held between Input calls; zero selects a default.
func NewContext(commands []*Command, iface *Interface, bufferSize int) (*Context, error) {
	if bufferSize <= 0 {
		bufferSize = defaultInputBufferSize
	}

	all := make([]*Command, 0, len(commands))
	all = append(all, commands...)
	all = append(all, CoreCommands()...)

	tree, err := newCommandTree(all)
	if err != nil {
		return nil, err
	}

	return &Context{
		tree:        tree,
		iface:       iface,
		units:       DefaultUnits,
		inputBuffer: make([]byte, bufferSize),
		errors:      newErrorQueue(defaultErrorQueueSize),
		termChars:   []byte("\r\n"),
	}, nil
}

// SetIDN configures one of the four *IDN? fields (0..3: manufacturer,
// model, serial number, firmware version).
func (c *Context) SetIDN(field int, value string) error {
	if field < 0 || field >= len(c.idn) {
		return fmt.Errorf("idn field %d out of range", field)
	}
	c.idn[field] = value
	return nil
}

// SetUserContext attaches host data retrievable from command callbacks.
func (c *Context) SetUserContext(v interface{}) {
	c.userContext = v
}

// UserContext returns the value set by SetUserContext.
func (c *Context) UserContext() interface{} {
	return c.userContext
}

// CommandTag returns the Tag of the command currently being executed.
func (c *Context) CommandTag() int32 {
	if c.currentCmd == nil {
		return 0
	}
	return c.currentCmd.Tag
}

// parserState is the outcome of scanning one program message unit.
type parserState struct {
	programHeader      Token
	programData        Token // spans all program data of the unit
	numberOfParameters int
	termination        MessageTermination
}

// parseProgramData recognizes a single program data element. lexIncomplete
// propagates from string and block recognizers so the caller can wait for
// the rest of the element.
func parseProgramData(l *lexState) (Token, lexResult) {
	if tok, res := l.nondecimalNumericData(); res == lexOK {
		return tok, lexOK
	}
	if tok, res := l.arbitraryBlockProgramData(); res != lexNone {
		return tok, res
	}
	if tok, res := l.characterProgramData(); res == lexOK {
		return tok, lexOK
	}
	if tok, res := l.decimalNumericProgramData(); res == lexOK {
		rollback := l.pos
		l.skipWs()
		if _, sres := l.suffixProgramData(); sres == lexOK {
			return Token{
				Type: TokenDecimalNumericWithSuffix,
				Data: l.buffer[tok.Pos:l.pos],
				Pos:  tok.Pos,
			}, lexOK
		}
		l.pos = rollback
		return tok, lexOK
	}
	if tok, res := l.stringProgramData(); res != lexNone {
		return tok, res
	}
	if tok, res := l.programExpression(); res == lexOK {
		return tok, lexOK
	}
	return unknownToken(), lexNone
}

// parseAllProgramData scans the comma-separated program data of one unit.
// A comma commits the parser to another element; a malformed or absent
// element after it is lexNone.
func parseAllProgramData(l *lexState) (Token, int, lexResult) {
	start := l.pos
	count := 0

	for {
		if _, res := parseProgramData(l); res != lexOK {
			return unknownToken(), count, res
		}
		count++

		rollback := l.pos
		l.skipWs()
		if _, res := l.comma(); res != lexOK {
			l.pos = rollback
			break
		}
	}

	all := Token{Type: TokenUnknown, Data: l.buffer[start:l.pos], Pos: start}
	return all, count, lexOK
}

// detectProgramMessageUnit scans one <header> [<data>] <terminator> unit
// from the start of buffer and reports how it was terminated. It never
// mutates session state, so the same region can be rescanned after more
// bytes arrive; resumability across chunk boundaries relies on that.
func detectProgramMessageUnit(buffer []byte) (parserState, int) {
	l := newLexState(buffer)
	var st parserState

	l.skipWs()

	tok, hres := l.programHeader()
	st.programHeader = tok
	if hres == lexIncomplete {
		st.termination = TerminationNone
		return st, l.pos
	}

	dataErr := false
	if hres == lexOK {
		if l.skipWs() > 0 && !l.isEOS() && l.peek() != ';' && l.peek() != '\r' && l.peek() != '\n' {
			data, count, dres := parseAllProgramData(l)
			switch dres {
			case lexOK:
				st.programData = data
				st.numberOfParameters = count
			case lexIncomplete:
				st.termination = TerminationNone
				return st, l.pos
			case lexNone:
				dataErr = true
			}
		}
	}

	if !dataErr {
		l.skipWs()
		if _, res := l.newLine(); res == lexOK {
			st.termination = TerminationNewLine
			return st, l.pos
		}
		if _, res := l.semicolon(); res == lexOK {
			st.termination = TerminationSemicolon
			return st, l.pos
		}
		if l.isEOS() {
			st.termination = TerminationNone
			return st, l.pos
		}
		// bytes where a terminator belongs: an unmatched header or
		// trailing junk after valid program data
		dataErr = true
	}

	// Skip the rest of the broken unit so parsing resumes at the next
	// unit boundary. Without a boundary in the buffer the unit stays
	// pending; the missing piece may still arrive.
	st.programHeader.Type = TokenInvalid
	st.programData = Token{}
	st.numberOfParameters = 0
	for !l.isEOS() {
		switch l.peek() {
		case ';':
			l.pos++
			st.termination = TerminationSemicolon
			return st, l.pos
		case '\r', '\n':
			l.newLine()
			st.termination = TerminationNewLine
			return st, l.pos
		}
		l.pos++
	}
	st.programHeader.Type = TokenUnknown
	st.termination = TerminationNone
	return st, l.pos
}

// Input feeds a chunk of raw bytes into the session. Complete program
// messages (terminated by a newline) are executed immediately; an
// unterminated tail is buffered and resumed on the next call. A
// zero-length chunk acts as a receive timeout: whatever is buffered is
// executed as-is, which is a no-op on an empty buffer.
func (c *Context) Input(data []byte) Result {
	if len(data) == 0 {
		if c.bufferPos == 0 {
			return ResOK
		}
		res := c.Parse(c.inputBuffer[:c.bufferPos])
		c.bufferPos = 0
		return res
	}

	if c.bufferPos+len(data) > len(c.inputBuffer) {
		c.bufferPos = 0
		c.ErrorPushCode(ErrInputBufferOverrun)
		return ResErr
	}
	copy(c.inputBuffer[c.bufferPos:], data)
	c.bufferPos += len(data)

	result := ResOK
	for {
		total := 0
		complete := false
		for total < c.bufferPos {
			st, consumed := detectProgramMessageUnit(c.inputBuffer[total:c.bufferPos])
			if st.termination == TerminationNewLine {
				total += consumed
				complete = true
				break
			}
			if consumed == 0 || st.termination == TerminationNone {
				break
			}
			total += consumed
		}
		if !complete {
			break
		}
		if c.Parse(c.inputBuffer[:total]) == ResErr {
			result = ResErr
		}
		copy(c.inputBuffer, c.inputBuffer[total:c.bufferPos])
		c.bufferPos -= total
	}
	return result
}

// Parse executes a program message held entirely in data. Unknown or
// incomplete trailing headers are ignored; malformed program data inside
// a unit queues an invalid character error and skips to the next unit.
func (c *Context) Parse(data []byte) Result {
	result := ResOK

	for len(data) > 0 {
		st, consumed := detectProgramMessageUnit(data)

		switch st.programHeader.Type {
		case TokenInvalid:
			c.ErrorPushCode(ErrInvalidCharacter)
			result = ResErr
		case TokenCommonProgramHeader, TokenCommonQueryProgramHeader,
			TokenCompoundProgramHeader, TokenCompoundQueryProgramHeader:
			if c.processCommand(&st) != ResOK {
				result = ResErr
			}
		}

		if st.termination == TerminationNewLine {
			c.writeMessageEnd()
			c.currentPath = nil
		}

		if consumed == 0 {
			break
		}
		data = data[consumed:]
	}

	// A flushed message may lack its terminator; close any open response.
	if c.messageOutput {
		c.writeMessageEnd()
		c.currentPath = nil
	}
	return result
}

// processCommand resolves one header against the command tree and runs
// its callback. Compound headers without a leading colon resolve relative
// to the previously matched header's level; common commands leave that
// context untouched.
func (c *Context) processCommand(st *parserState) Result {
	header := string(st.programHeader.Data)
	common := st.programHeader.Type == TokenCommonProgramHeader ||
		st.programHeader.Type == TokenCommonQueryProgramHeader

	var res matchResult
	if common {
		res = c.tree.resolveCommon(header)
	} else {
		start := c.tree.root
		if header[0] != ':' && c.currentPath != nil {
			start = c.currentPath.parent
		}
		res = c.tree.resolve(header, start)
		if res.errCode != 0 && start != c.tree.root {
			// a relative header that matches nothing at the current
			// level retries as an absolute one
			res = c.tree.resolve(header, c.tree.root)
		}
	}
	if res.errCode != 0 {
		c.ErrorPushCode(res.errCode)
		return ResErr
	}
	if !common {
		c.currentPath = res.node
	}

	c.currentCmd = res.cmd
	c.currentParams = st.programData.Data
	c.paramsPos = 0
	c.inputCount = 0
	c.outputCount = 0
	c.cmdError = false
	c.suffixes = res.suffixes
	c.suffixCount = res.suffixCount

	result := ResOK
	if res.cmd.Callback != nil {
		if res.cmd.Callback(c) != ResOK {
			if !c.cmdError {
				c.ErrorPushCode(ErrExecutionError)
			}
			result = ResErr
		}
	}
	if result == ResOK && !c.cmdError && c.inputCount < st.numberOfParameters {
		c.ErrorPushCode(ErrParameterNotAllowed)
		result = ResErr
	}

	c.currentCmd = nil
	return result
}

// CommandNumbers extracts the numeric suffixes of the matched header into
// values, in header order: "OUT2:FREQ3" fills {2, 3}. Positions whose
// suffix was omitted receive def.
func (c *Context) CommandNumbers(values []int32, def int32) {
	for i := range values {
		if i < c.suffixCount && c.suffixes[i] != suffixAbsent {
			values[i] = c.suffixes[i]
		} else {
			values[i] = def
		}
	}
}

// output helpers

func (c *Context) writeRaw(data []byte) {
	if c.iface != nil && c.iface.Write != nil {
		c.iface.Write(data)
	}
	c.messageOutput = true
}

// writeDelimiter separates results: comma within one command's results,
// semicolon between the responses of units of the same message.
func (c *Context) writeDelimiter() {
	if c.outputCount > 0 {
		c.writeRaw([]byte{','})
	} else if c.messageOutput {
		c.writeRaw([]byte{';'})
	}
}

func (c *Context) writeMessageEnd() {
	if !c.messageOutput {
		return
	}
	c.writeRaw(c.termChars)
	c.messageOutput = false
	c.outputCount = 0
	if c.iface != nil && c.iface.Flush != nil {
		c.iface.Flush()
	}
}

func (c *Context) writeResult(data []byte) Result {
	c.writeDelimiter()
	c.writeRaw(data)
	c.outputCount++
	return ResOK
}

// ResultInt32 writes a signed integer result.
func (c *Context) ResultInt32(v int32) Result {
	return c.writeResult(strconv.AppendInt(nil, int64(v), 10))
}

// ResultInt64 writes a signed 64-bit integer result.
func (c *Context) ResultInt64(v int64) Result {
	return c.writeResult(strconv.AppendInt(nil, v, 10))
}

// ResultUInt32 writes an unsigned integer result.
func (c *Context) ResultUInt32(v uint32) Result {
	return c.writeResult(strconv.AppendUint(nil, uint64(v), 10))
}

// ResultUInt32Base writes an unsigned integer in the given base, using
// the #H/#Q/#B notation for bases 16, 8 and 2.
func (c *Context) ResultUInt32Base(v uint32, base int) Result {
	var prefix string
	switch base {
	case 10:
		return c.ResultUInt32(v)
	case 16:
		prefix = "#H"
	case 8:
		prefix = "#Q"
	case 2:
		prefix = "#B"
	default:
		return ResErr
	}
	digits := strings.ToUpper(strconv.FormatUint(uint64(v), base))
	return c.writeResult(append([]byte(prefix), digits...))
}

// ResultDouble writes a floating point result.
func (c *Context) ResultDouble(v float64) Result {
	return c.writeResult(strconv.AppendFloat(nil, v, 'G', -1, 64))
}

// ResultBool writes 1 or 0.
func (c *Context) ResultBool(v bool) Result {
	if v {
		return c.writeResult([]byte{'1'})
	}
	return c.writeResult([]byte{'0'})
}

// ResultMnemonic writes bare character response data.
func (c *Context) ResultMnemonic(s string) Result {
	return c.writeResult([]byte(s))
}

// ResultCharacters writes raw bytes as a single result, without quoting.
func (c *Context) ResultCharacters(data []byte) Result {
	return c.writeResult(data)
}

// ResultText writes a quoted string result, doubling embedded quotes.
func (c *Context) ResultText(s string) Result {
	out := make([]byte, 0, len(s)+2)
	out = append(out, '"')
	for i := 0; i < len(s); i++ {
		if s[i] == '"' {
			out = append(out, '"')
		}
		out = append(out, s[i])
	}
	out = append(out, '"')
	return c.writeResult(out)
}

// ResultArbitraryBlock writes data framed as a definite-length block:
// #<n><length><payload>.
func (c *Context) ResultArbitraryBlock(data []byte) Result {
	length := strconv.Itoa(len(data))
	head := make([]byte, 0, len(length)+2)
	head = append(head, '#')
	head = append(head, byte('0'+len(length)))
	head = append(head, length...)

	c.writeDelimiter()
	c.writeRaw(head)
	c.writeRaw(data)
	c.outputCount++
	return ResOK
}

// ResultError writes an error queue entry in SYSTem:ERRor? form:
// <code>,"<text>" with optional device-dependent info after a semicolon.
func (c *Context) ResultError(e *Error) Result {
	text := ErrorTranslate(e.Code)
	if e.Info != "" {
		text = text + ";" + e.Info
	}

	out := strconv.AppendInt(nil, int64(e.Code), 10)
	out = append(out, ',', '"')
	for i := 0; i < len(text); i++ {
		if text[i] == '"' {
			out = append(out, '"')
		}
		out = append(out, text[i])
	}
	out = append(out, '"')
	return c.writeResult(out)
}
