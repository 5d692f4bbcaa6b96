package scpi

// lexResult is the outcome of one recognizer call. The three-way split is
// what makes the parser restartable: lexNone means the pattern does not
// start here (cursor unchanged), lexIncomplete means a prefix matched but
// the buffer ended before the token could be confirmed (caller must supply
// more bytes and retry).
type lexResult int

const (
	lexNone lexResult = iota
	lexOK
	lexIncomplete
)

// lexState is a cursor into an immutable input buffer
type lexState struct {
	buffer []byte
	pos    int
	len    int
}

func newLexState(buffer []byte) *lexState {
	return &lexState{buffer: buffer, len: len(buffer)}
}

// isEOS checks if we're at the end of the stream
func (l *lexState) isEOS() bool {
	return l.pos >= l.len
}

// peek returns the current character without advancing
func (l *lexState) peek() byte {
	if l.isEOS() {
		return 0
	}
	return l.buffer[l.pos]
}

func (l *lexState) token(typ TokenType, start int) Token {
	return Token{Type: typ, Data: l.buffer[start:l.pos], Pos: start}
}

func unknownToken() Token {
	return Token{Type: TokenUnknown}
}

func isWhitespace(c byte) bool {
	return c == ' ' || c == '\t'
}

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isHexDigit(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func isOctDigit(c byte) bool {
	return c >= '0' && c <= '7'
}

func isBinDigit(c byte) bool {
	return c == '0' || c == '1'
}

func isPlusMinus(c byte) bool {
	return c == '+' || c == '-'
}

func isE(c byte) bool {
	return c == 'e' || c == 'E'
}

func isASCII7bit(c byte) bool {
	return c <= 0x7f
}

// skip helpers: each consumes greedily and reports how much it consumed

func (l *lexState) skipChr(c byte) bool {
	if !l.isEOS() && l.peek() == c {
		l.pos++
		return true
	}
	return false
}

func (l *lexState) skipWs() int {
	n := 0
	for !l.isEOS() && isWhitespace(l.peek()) {
		l.pos++
		n++
	}
	return n
}

func (l *lexState) skipDigits() int {
	n := 0
	for !l.isEOS() && isDigit(l.peek()) {
		l.pos++
		n++
	}
	return n
}

func (l *lexState) skipAlpha() int {
	n := 0
	for !l.isEOS() && isAlpha(l.peek()) {
		l.pos++
		n++
	}
	return n
}

func (l *lexState) skipWhile(pred func(byte) bool) int {
	n := 0
	for !l.isEOS() && pred(l.peek()) {
		l.pos++
		n++
	}
	return n
}

// skipProgramMnemonic consumes [a-zA-Z][a-zA-Z0-9_]* and reports whether
// the mnemonic ran into the end of the buffer, in which case it may still
// continue in the next chunk.
func (l *lexState) skipProgramMnemonic() (n int, incomplete bool) {
	if !l.isEOS() && isAlpha(l.peek()) {
		l.pos++
		n++
		for !l.isEOS() && (isAlpha(l.peek()) || isDigit(l.peek()) || l.peek() == '_') {
			l.pos++
			n++
		}
	}
	return n, l.isEOS()
}

// recognizers: each returns the token plus the three-way outcome, and
// restores the cursor itself on lexNone

// whiteSpace consumes a run of spaces and tabs
func (l *lexState) whiteSpace() (Token, lexResult) {
	start := l.pos
	if l.skipWs() > 0 {
		return l.token(TokenWhitespace, start), lexOK
	}
	return unknownToken(), lexNone
}

// skipCommonProgramHeader matches *<mnemonic>
func (l *lexState) skipCommonProgramHeader() lexResult {
	if !l.skipChr('*') {
		return lexNone
	}
	n, atEnd := l.skipProgramMnemonic()
	if n == 0 && atEnd {
		// just the star so far
		return lexIncomplete
	}
	// A mnemonic truncated by the buffer end still counts as a complete
	// header token; the message-level terminator scan decides whether to
	// wait for more bytes.
	return lexOK
}

// skipCompoundProgramHeader matches [:]<mnemonic>(:<mnemonic>)*
func (l *lexState) skipCompoundProgramHeader() lexResult {
	firstColon := l.skipChr(':')

	n, atEnd := l.skipProgramMnemonic()
	if n > 0 {
		for l.skipChr(':') {
			n, atEnd = l.skipProgramMnemonic()
			if n == 0 {
				if l.isEOS() {
					// colon at the buffer end, the mnemonic may follow
					return lexIncomplete
				}
				return lexNone
			}
			if atEnd {
				return lexOK
			}
		}
		return lexOK
	}
	if firstColon {
		if l.isEOS() {
			return lexIncomplete
		}
		return lexNone
	}
	return lexNone
}

// programHeader recognizes a common (*CLS) or compound (SYST:ERR?) header
func (l *lexState) programHeader() (Token, lexResult) {
	start := l.pos

	res := l.skipCommonProgramHeader()
	if res == lexOK {
		typ := TokenCommonProgramHeader
		if l.skipChr('?') {
			typ = TokenCommonQueryProgramHeader
		}
		return l.token(typ, start), lexOK
	}
	if res == lexIncomplete {
		return l.token(TokenIncompleteCommonProgramHeader, start), lexIncomplete
	}

	res = l.skipCompoundProgramHeader()
	if res == lexOK {
		typ := TokenCompoundProgramHeader
		if l.skipChr('?') {
			typ = TokenCompoundQueryProgramHeader
		}
		return l.token(typ, start), lexOK
	}
	if res == lexIncomplete {
		return l.token(TokenIncompleteCompoundProgramHeader, start), lexIncomplete
	}

	l.pos = start
	return unknownToken(), lexNone
}

// characterProgramData recognizes a bare mnemonic used as a parameter
func (l *lexState) characterProgramData() (Token, lexResult) {
	start := l.pos
	if !l.isEOS() && isAlpha(l.peek()) {
		l.pos++
		for !l.isEOS() && (isAlpha(l.peek()) || isDigit(l.peek()) || l.peek() == '_') {
			l.pos++
		}
		return l.token(TokenProgramMnemonic, start), lexOK
	}
	return unknownToken(), lexNone
}

func (l *lexState) skipMantissa() int {
	digits := 0
	if !l.isEOS() && isPlusMinus(l.peek()) {
		l.pos++
	}
	digits += l.skipDigits()
	if l.skipChr('.') {
		digits += l.skipDigits()
	}
	return digits
}

func (l *lexState) skipExponent() int {
	if l.isEOS() || !isE(l.peek()) {
		return 0
	}
	l.pos++
	l.skipWs()
	if !l.isEOS() && isPlusMinus(l.peek()) {
		l.pos++
	}
	return l.skipDigits()
}

// decimalNumericProgramData recognizes sign, digits, fraction and exponent.
// An exponent marker without digits is rolled back, keeping the mantissa:
// "1E" lexes as the number 1 so that a suffix mnemonic may follow.
func (l *lexState) decimalNumericProgramData() (Token, lexResult) {
	start := l.pos

	if l.skipMantissa() == 0 {
		l.pos = start
		return unknownToken(), lexNone
	}

	rollback := l.pos
	l.skipWs()
	if l.skipExponent() == 0 {
		l.pos = rollback
	}

	return l.token(TokenDecimalNumeric, start), lexOK
}

// suffixProgramData recognizes unit suffixes such as V, MV, DB/HZ, M.S-2
func (l *lexState) suffixProgramData() (Token, lexResult) {
	start := l.pos

	l.skipChr('/')
	if l.skipAlpha() == 0 {
		l.pos = start
		return unknownToken(), lexNone
	}
	l.skipChr('-')
	if !l.isEOS() && isDigit(l.peek()) {
		l.pos++
	}
	for !l.isEOS() && (l.peek() == '/' || l.peek() == '.') {
		l.pos++
		l.skipAlpha()
		l.skipChr('-')
		if !l.isEOS() && isDigit(l.peek()) {
			l.pos++
		}
	}

	return l.token(TokenSuffixProgramData, start), lexOK
}

// nondecimalNumericData recognizes #H.., #Q.., #B.. integers. The token
// data excludes the two-character prefix; the base is carried in the type.
func (l *lexState) nondecimalNumericData() (Token, lexResult) {
	start := l.pos
	if !l.skipChr('#') {
		return unknownToken(), lexNone
	}

	var typ TokenType
	var digits int
	switch {
	case !l.isEOS() && (l.peek() == 'H' || l.peek() == 'h'):
		l.pos++
		typ = TokenHexNum
		digits = l.skipWhile(isHexDigit)
	case !l.isEOS() && (l.peek() == 'Q' || l.peek() == 'q'):
		l.pos++
		typ = TokenOctNum
		digits = l.skipWhile(isOctDigit)
	case !l.isEOS() && (l.peek() == 'B' || l.peek() == 'b'):
		l.pos++
		typ = TokenBinNum
		digits = l.skipWhile(isBinDigit)
	default:
		l.pos = start
		return unknownToken(), lexNone
	}

	if digits == 0 {
		l.pos = start
		return unknownToken(), lexNone
	}
	return Token{Type: typ, Data: l.buffer[start+2 : l.pos], Pos: start}, lexOK
}

func (l *lexState) skipQuoteProgramData(quote byte) {
	for !l.isEOS() {
		c := l.peek()
		switch {
		case c == quote:
			l.pos++
			if !l.isEOS() && l.peek() == quote {
				l.pos++ // escaped quote, keep going
			} else {
				l.pos-- // closing quote, leave it for the caller
				return
			}
		case isASCII7bit(c):
			l.pos++
		default:
			return
		}
	}
}

// stringProgramData recognizes single or double quoted strings. A doubled
// quote is an escaped literal quote. An unterminated string at the end of
// the buffer is incomplete, not matched.
func (l *lexState) stringProgramData() (Token, lexResult) {
	start := l.pos
	quote := l.peek()

	var typ TokenType
	switch quote {
	case '"':
		typ = TokenDoubleQuoteData
	case '\'':
		typ = TokenSingleQuoteData
	default:
		return unknownToken(), lexNone
	}

	l.pos++
	l.skipQuoteProgramData(quote)
	if !l.isEOS() && l.peek() == quote {
		l.pos++
		return l.token(typ, start), lexOK
	}
	if l.isEOS() {
		// unterminated so far; the closing quote may be in the next chunk
		l.pos = start
		return unknownToken(), lexIncomplete
	}

	l.pos = start
	return unknownToken(), lexNone
}

// arbitraryBlockProgramData recognizes #<n><n length digits><payload>.
// When the declared payload does not fit in the remaining buffer the
// cursor is advanced to the buffer end and lexIncomplete is returned, so
// the caller can detect the short read and resume after more input.
func (l *lexState) arbitraryBlockProgramData() (Token, lexResult) {
	start := l.pos
	if !l.skipChr('#') {
		return unknownToken(), lexNone
	}

	if l.isEOS() {
		return unknownToken(), lexIncomplete
	}
	if !isDigit(l.peek()) || l.peek() == '0' {
		l.pos = start
		return unknownToken(), lexNone
	}

	lengthDigits := int(l.peek() - '0')
	l.pos++

	length := 0
	for i := 0; i < lengthDigits; i++ {
		if l.isEOS() {
			return unknownToken(), lexIncomplete
		}
		if !isDigit(l.peek()) {
			l.pos = start
			return unknownToken(), lexNone
		}
		length = length*10 + int(l.peek()-'0')
		l.pos++
	}

	if l.pos+length > l.len {
		l.pos = l.len
		return unknownToken(), lexIncomplete
	}

	dataStart := l.pos
	l.pos += length
	return Token{Type: TokenArbitraryBlock, Data: l.buffer[dataStart:l.pos], Pos: start}, lexOK
}

func isProgramExpressionChar(c byte) bool {
	if c < 0x20 || c > 0x7e {
		return false
	}
	switch c {
	case '"', '#', '\'', '(', ')', ';':
		return false
	}
	return true
}

// programExpression recognizes a parenthesized expression; nesting is not
// supported and an unterminated expression does not match.
func (l *lexState) programExpression() (Token, lexResult) {
	start := l.pos
	if !l.skipChr('(') {
		return unknownToken(), lexNone
	}

	l.skipWhile(isProgramExpressionChar)
	if l.skipChr(')') {
		return l.token(TokenProgramExpression, start), lexOK
	}

	l.pos = start
	return unknownToken(), lexNone
}

func (l *lexState) singleChar(c byte, typ TokenType) (Token, lexResult) {
	start := l.pos
	if l.skipChr(c) {
		return l.token(typ, start), lexOK
	}
	return unknownToken(), lexNone
}

func (l *lexState) comma() (Token, lexResult) {
	return l.singleChar(',', TokenComma)
}

func (l *lexState) semicolon() (Token, lexResult) {
	return l.singleChar(';', TokenSemicolon)
}

func (l *lexState) colon() (Token, lexResult) {
	return l.singleChar(':', TokenColon)
}

func (l *lexState) specificCharacter(c byte) (Token, lexResult) {
	return l.singleChar(c, TokenSpecificCharacter)
}

// newLine recognizes CR, LF or CRLF
func (l *lexState) newLine() (Token, lexResult) {
	start := l.pos
	l.skipChr('\r')
	l.skipChr('\n')
	if l.pos > start {
		return l.token(TokenNewLine, start), lexOK
	}
	return unknownToken(), lexNone
}
