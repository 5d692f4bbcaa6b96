package scpi

import (
	"testing"
)

func lex(input string) *lexState {
	return newLexState([]byte(input))
}

func TestProgramHeader(t *testing.T) {
	tests := []struct {
		input string
		want  TokenType
		res   lexResult
		data  string
	}{
		{"*IDN?", TokenCommonQueryProgramHeader, lexOK, "*IDN?"},
		{"*CLS", TokenCommonProgramHeader, lexOK, "*CLS"},
		{"*RST\r\n", TokenCommonProgramHeader, lexOK, "*RST"},
		{"MEAS:VOLT:DC?", TokenCompoundQueryProgramHeader, lexOK, "MEAS:VOLT:DC?"},
		{":SOUR:VOLT 1", TokenCompoundProgramHeader, lexOK, ":SOUR:VOLT"},
		{"SYSTem:ERRor?", TokenCompoundQueryProgramHeader, lexOK, "SYSTem:ERRor?"},
		{"IDN?", TokenCompoundQueryProgramHeader, lexOK, "IDN?"},
		{"FREQ 2", TokenCompoundProgramHeader, lexOK, "FREQ"},
		{"*", TokenIncompleteCommonProgramHeader, lexIncomplete, ""},
		{"SYST:", TokenIncompleteCompoundProgramHeader, lexIncomplete, ""},
		{":", TokenIncompleteCompoundProgramHeader, lexIncomplete, ""},
		// incomplete only at the buffer end; mid-buffer these match nothing
		{"::", TokenUnknown, lexNone, ""},
		{":\r\n", TokenUnknown, lexNone, ""},
		{"SYST:;", TokenUnknown, lexNone, ""},
		{"123", TokenUnknown, lexNone, ""},
		{",", TokenUnknown, lexNone, ""},
	}

	for _, tt := range tests {
		state := lex(tt.input)
		tok, res := state.programHeader()
		if res != tt.res {
			t.Errorf("programHeader(%q) result = %v, want %v", tt.input, res, tt.res)
			continue
		}
		if tok.Type != tt.want {
			t.Errorf("programHeader(%q) type = %v, want %v", tt.input, tok.Type, tt.want)
		}
		if tt.res == lexOK && string(tok.Data) != tt.data {
			t.Errorf("programHeader(%q) data = %q, want %q", tt.input, tok.Data, tt.data)
		}
	}
}

func TestDecimalNumeric(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"123", "123"},
		{"-456", "-456"},
		{"+789", "+789"},
		{"3.14", "3.14"},
		{".5", ".5"},
		{"1.23e4", "1.23e4"},
		{"5.6E-7", "5.6E-7"},
		{"-8.9e+2", "-8.9e+2"},
		{"1E 5", "1E 5"},
	}

	for _, tt := range tests {
		state := lex(tt.input)
		tok, res := state.decimalNumericProgramData()
		if res != lexOK {
			t.Errorf("decimalNumericProgramData(%q) result = %v, want lexOK", tt.input, res)
			continue
		}
		if string(tok.Data) != tt.want {
			t.Errorf("decimalNumericProgramData(%q) = %q, want %q", tt.input, tok.Data, tt.want)
		}
	}
}

// An exponent marker without digits is rolled back to the mantissa so a
// unit suffix can claim the letter.
func TestDecimalNumericExponentRollback(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"1E", "1"},
		{"1e", "1"},
		{"1.5E", "1.5"},
		{"2E MV", "2"},
		{"10 EXT", "10"},
	}

	for _, tt := range tests {
		state := lex(tt.input)
		tok, res := state.decimalNumericProgramData()
		if res != lexOK {
			t.Errorf("decimalNumericProgramData(%q) result = %v, want lexOK", tt.input, res)
			continue
		}
		if string(tok.Data) != tt.want {
			t.Errorf("decimalNumericProgramData(%q) = %q, want %q", tt.input, tok.Data, tt.want)
		}
	}
}

func TestNondecimalNumeric(t *testing.T) {
	tests := []struct {
		input string
		typ   TokenType
		data  string
	}{
		{"#HFF", TokenHexNum, "FF"},
		{"#h123abc", TokenHexNum, "123abc"},
		{"#Q777", TokenOctNum, "777"},
		{"#B1010", TokenBinNum, "1010"},
	}

	for _, tt := range tests {
		state := lex(tt.input)
		tok, res := state.nondecimalNumericData()
		if res != lexOK {
			t.Errorf("nondecimalNumericData(%q) result = %v, want lexOK", tt.input, res)
			continue
		}
		if tok.Type != tt.typ || string(tok.Data) != tt.data {
			t.Errorf("nondecimalNumericData(%q) = %v %q, want %v %q",
				tt.input, tok.Type, tok.Data, tt.typ, tt.data)
		}
	}

	for _, input := range []string{"#H", "#Q8", "#B2", "#X1", "#"} {
		state := lex(input)
		if _, res := state.nondecimalNumericData(); res != lexNone {
			t.Errorf("nondecimalNumericData(%q) result = %v, want lexNone", input, res)
		}
		if state.pos != 0 {
			t.Errorf("nondecimalNumericData(%q) did not restore cursor", input)
		}
	}
}

func TestStringProgramData(t *testing.T) {
	tests := []struct {
		input string
		typ   TokenType
		data  string
	}{
		{`"hello"`, TokenDoubleQuoteData, `"hello"`},
		{`'a'`, TokenSingleQuoteData, `'a'`},
		{`'a''b'`, TokenSingleQuoteData, `'a''b'`},
		{`"say ""hi"""`, TokenDoubleQuoteData, `"say ""hi"""`},
		{`''`, TokenSingleQuoteData, `''`},
	}

	for _, tt := range tests {
		state := lex(tt.input)
		tok, res := state.stringProgramData()
		if res != lexOK {
			t.Errorf("stringProgramData(%q) result = %v, want lexOK", tt.input, res)
			continue
		}
		if tok.Type != tt.typ || string(tok.Data) != tt.data {
			t.Errorf("stringProgramData(%q) = %v %q, want %v %q",
				tt.input, tok.Type, tok.Data, tt.typ, tt.data)
		}
	}
}

func TestStringProgramDataUnterminated(t *testing.T) {
	state := lex(`"abc`)
	_, res := state.stringProgramData()
	if res != lexIncomplete {
		t.Errorf("unterminated string result = %v, want lexIncomplete", res)
	}
	if state.pos != 0 {
		t.Errorf("unterminated string did not restore cursor, pos = %d", state.pos)
	}

	// a doubled quote at the buffer end may still be an escape
	state = lex(`'a''`)
	if _, res := state.stringProgramData(); res != lexIncomplete {
		t.Errorf("string ending in doubled quote result = %v, want lexIncomplete", res)
	}
}

func TestArbitraryBlock(t *testing.T) {
	state := lex("#13abc")
	tok, res := state.arbitraryBlockProgramData()
	if res != lexOK {
		t.Fatalf("arbitraryBlockProgramData(#13abc) result = %v, want lexOK", res)
	}
	if string(tok.Data) != "abc" {
		t.Errorf("arbitraryBlockProgramData(#13abc) = %q, want %q", tok.Data, "abc")
	}

	// binary payload may contain anything, including terminators
	state = lex("#15ab\r\nc rest")
	tok, res = state.arbitraryBlockProgramData()
	if res != lexOK {
		t.Fatalf("block with binary payload result = %v, want lexOK", res)
	}
	if string(tok.Data) != "ab\r\nc" {
		t.Errorf("block payload = %q, want %q", tok.Data, "ab\r\nc")
	}
}

func TestArbitraryBlockIncomplete(t *testing.T) {
	for _, input := range []string{"#", "#1", "#25", "#15abcd", "#3100"} {
		state := lex(input)
		if _, res := state.arbitraryBlockProgramData(); res != lexIncomplete {
			t.Errorf("arbitraryBlockProgramData(%q) result = %v, want lexIncomplete", input, res)
		}
	}

	for _, input := range []string{"#0payload", "#1x", "x"} {
		state := lex(input)
		if _, res := state.arbitraryBlockProgramData(); res != lexNone {
			t.Errorf("arbitraryBlockProgramData(%q) result = %v, want lexNone", input, res)
		}
		if state.pos != 0 {
			t.Errorf("arbitraryBlockProgramData(%q) did not restore cursor", input)
		}
	}
}

func TestSuffixProgramData(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"V", "V"},
		{"MV", "MV"},
		{"KHZ", "KHZ"},
		{"/S", "/S"},
		{"M.S-2", "M.S-2"},
		{"DB/HZ", "DB/HZ"},
	}

	for _, tt := range tests {
		state := lex(tt.input)
		tok, res := state.suffixProgramData()
		if res != lexOK {
			t.Errorf("suffixProgramData(%q) result = %v, want lexOK", tt.input, res)
			continue
		}
		if string(tok.Data) != tt.want {
			t.Errorf("suffixProgramData(%q) = %q, want %q", tt.input, tok.Data, tt.want)
		}
	}
}

func TestProgramExpression(t *testing.T) {
	state := lex("(@1!2:3!4,5!6)")
	tok, res := state.programExpression()
	if res != lexOK {
		t.Fatalf("programExpression result = %v, want lexOK", res)
	}
	if string(tok.Data) != "(@1!2:3!4,5!6)" {
		t.Errorf("programExpression = %q", tok.Data)
	}

	state = lex("(1+2")
	if _, res := state.programExpression(); res != lexNone {
		t.Errorf("unterminated expression result = %v, want lexNone", res)
	}
}

func TestSeparators(t *testing.T) {
	state := lex(" \t x")
	tok, res := state.whiteSpace()
	if res != lexOK || string(tok.Data) != " \t " {
		t.Errorf("whiteSpace = %q (%v), want %q", tok.Data, res, " \t ")
	}

	state = lex(",;:*")
	if tok, res := state.comma(); res != lexOK || tok.Type != TokenComma {
		t.Errorf("comma = %v %v", tok.Type, res)
	}
	if tok, res := state.semicolon(); res != lexOK || tok.Type != TokenSemicolon {
		t.Errorf("semicolon = %v %v", tok.Type, res)
	}
	if tok, res := state.colon(); res != lexOK || tok.Type != TokenColon {
		t.Errorf("colon = %v %v", tok.Type, res)
	}
	if tok, res := state.specificCharacter('*'); res != lexOK || tok.Type != TokenSpecificCharacter {
		t.Errorf("specificCharacter = %v %v", tok.Type, res)
	}
	if _, res := state.comma(); res != lexNone {
		t.Errorf("comma at end of stream should be lexNone")
	}
}

func TestNewLine(t *testing.T) {
	tests := []struct {
		input string
		want  string
		res   lexResult
	}{
		{"\r\n", "\r\n", lexOK},
		{"\n", "\n", lexOK},
		{"\r", "\r", lexOK},
		{"x", "", lexNone},
	}

	for _, tt := range tests {
		state := lex(tt.input)
		tok, res := state.newLine()
		if res != tt.res {
			t.Errorf("newLine(%q) result = %v, want %v", tt.input, res, tt.res)
			continue
		}
		if res == lexOK && string(tok.Data) != tt.want {
			t.Errorf("newLine(%q) = %q, want %q", tt.input, tok.Data, tt.want)
		}
	}
}
