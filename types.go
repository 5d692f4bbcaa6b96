// Package scpi implements an IEEE 488.2 / SCPI-99 command parser for
// instrument-side use: an incremental lexer over caller-owned buffers, a
// static command tree with short/long mnemonic matching, typed parameter
// decoding, and the standard error-queue and status-register bookkeeping.
package scpi

// Result represents the result of SCPI command execution
type Result int

const (
	ResOK  Result = 1
	ResErr Result = -1
)

// TokenType represents the type of token parsed
type TokenType int

const (
	TokenUnknown TokenType = iota
	TokenComma
	TokenSemicolon
	TokenColon
	TokenSpecificCharacter
	TokenNewLine
	TokenHexNum
	TokenOctNum
	TokenBinNum
	TokenProgramMnemonic
	TokenDecimalNumeric
	TokenDecimalNumericWithSuffix
	TokenSuffixProgramData
	TokenArbitraryBlock
	TokenSingleQuoteData
	TokenDoubleQuoteData
	TokenProgramExpression
	TokenCompoundProgramHeader
	TokenCompoundQueryProgramHeader
	TokenCommonProgramHeader
	TokenCommonQueryProgramHeader
	TokenIncompleteCompoundProgramHeader
	TokenIncompleteCommonProgramHeader
	TokenWhitespace
	TokenInvalid
)

// Token is a window into the input buffer; it never owns the bytes.
type Token struct {
	Type TokenType
	Data []byte
	Pos  int
}

// IsQuery reports whether the token is a query form program header.
func (t Token) IsQuery() bool {
	return t.Type == TokenCommonQueryProgramHeader || t.Type == TokenCompoundQueryProgramHeader
}

// MessageTermination represents how a program message unit was terminated
type MessageTermination int

const (
	TerminationNone MessageTermination = iota
	TerminationNewLine
	TerminationSemicolon
)

// Command represents a SCPI command definition.
//
// Pattern uses the conventional SCPI notation: "MEASure:VOLTage:DC?",
// "*IDN?", "OUTPut#:STATe" (numeric suffix), "SOURce:VOLTage[:LEVel]"
// (optional segment). Uppercase letters form the short form, the whole
// mnemonic the long form.
type Command struct {
	Pattern  string
	Callback func(*Context) Result
	Tag      int32 // Optional command tag

	// MaxSuffix limits numeric header suffixes (OUTPut2:...); zero
	// means unlimited. Suffixes are 1-based, so 0 is always rejected.
	MaxSuffix int32
}

// Error represents a SCPI error queue entry
type Error struct {
	Code int16
	Info string // Device-dependent info appended after the standard text
}

// ControlName identifies a status-driven control event delivered through
// Interface.Control.
type ControlName int

const (
	ControlSRQ ControlName = iota // service request
)

// Interface defines the callbacks binding the parser to its host
type Interface struct {
	Write   func(data []byte) (int, error)
	Flush   func() error
	Reset   func() error
	OnError func(err *Error)
	Control func(ctrl ControlName, value uint16) error
}

// RegisterName selects one of the IEEE 488.2 status registers
type RegisterName int

const (
	RegESR RegisterName = iota // standard event status register
	RegESE                     // event status enable
	RegSTB                     // status byte
	RegSRE                     // service request enable
	regCount
)

// Event status register bits
const (
	ESROperationComplete uint16 = 0x01
	ESRQueryError        uint16 = 0x04
	ESRDeviceError       uint16 = 0x08
	ESRExecutionError    uint16 = 0x10
	ESRCommandError      uint16 = 0x20
	ESRPowerOn           uint16 = 0x80
)

// Status byte bits
const (
	STBErrorQueue   uint16 = 0x04 // error/event queue not empty (EAV)
	STBMessage      uint16 = 0x10 // message available (MAV)
	STBEventSummary uint16 = 0x20 // ESR & ESE non-zero (ESB)
	STBServiceReq   uint16 = 0x40 // MSS/RQS
)

// Unit represents SCPI units
type Unit int

const (
	UnitNone Unit = iota
	UnitVolt
	UnitAmpere
	UnitOhm
	UnitHertz
	UnitCelsius
	UnitSecond
	UnitMeter
	UnitFarad
	UnitWatt
	UnitDecibel
	UnitPercent
)

// UnitDef defines a suffix mnemonic with its unit and multiplier
type UnitDef struct {
	Name string
	Unit Unit
	Mult float64
}

// ChoiceDef defines a choice option
type ChoiceDef struct {
	Name string
	Tag  int32
}

// SpecialNumber represents special numeric values
type SpecialNumber int

const (
	NumNumber SpecialNumber = iota
	NumMin
	NumMax
	NumDef
	NumUp
	NumDown
	NumNaN
	NumInf
	NumNInf
	NumAuto
)

// Number represents a numeric parameter with optional unit
type Number struct {
	Special bool
	Kind    SpecialNumber
	Value   float64
	Unit    Unit
	Base    int8
}

// ChannelListEntry is one entry of a SCPI channel list (@...); either a
// single multi-dimensional channel or a range between two of them.
type ChannelListEntry struct {
	IsRange    bool
	From       []int32
	To         []int32
	Dimensions int
}

// Parameter is an alias for Token
type Parameter Token

const maxHeaderSuffixes = 8

// Context represents one SCPI session: the compiled command tree, the
// resumable input buffer, the error queue and status registers, and the
// execution state of the command currently being dispatched.
type Context struct {
	tree  *commandTree
	iface *Interface
	units []UnitDef

	inputBuffer []byte
	bufferPos   int

	errors    errorQueue
	registers [regCount]uint16
	srqActive bool

	// current command path for headers without a leading colon
	currentPath *treeNode

	currentCmd    *Command
	currentParams []byte
	paramsPos     int
	inputCount    int
	cmdError      bool

	suffixes    [maxHeaderSuffixes]int32
	suffixCount int

	outputCount   int  // results written by the current command
	messageOutput bool // any output written since the last terminator
	termChars     []byte
	idn           [4]string
	userContext   interface{}
}
