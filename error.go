package scpi

// Standard SCPI / IEEE 488.2 error codes. The numeric values and the
// texts returned by ErrorTranslate follow the SCPI-99 error code table so
// that existing instrument-control clients can interpret them.
const (
	ErrNoError                int16 = 0
	ErrCommandError           int16 = -100
	ErrInvalidCharacter       int16 = -101
	ErrSyntaxError            int16 = -102
	ErrInvalidSeparator       int16 = -103
	ErrDataTypeError          int16 = -104
	ErrParameterNotAllowed    int16 = -108
	ErrMissingParameter       int16 = -109
	ErrUndefinedHeader        int16 = -113
	ErrHeaderSuffixOutOfRange int16 = -114
	ErrNumericDataError       int16 = -120
	ErrInvalidSuffix          int16 = -131
	ErrSuffixNotAllowed       int16 = -138
	ErrInvalidCharacterData   int16 = -141
	ErrInvalidStringData      int16 = -151
	ErrInvalidBlockData       int16 = -161
	ErrInvalidExpression      int16 = -171
	ErrExecutionError         int16 = -200
	ErrDataOutOfRange         int16 = -222
	ErrTooMuchData            int16 = -223
	ErrIllegalParameterValue  int16 = -224
	ErrSystemError            int16 = -310
	ErrQueueOverflow          int16 = -350
	ErrCommunicationError     int16 = -360
	ErrInputBufferOverrun     int16 = -363
	ErrQueryError             int16 = -400
	ErrQueryInterrupted       int16 = -410
	ErrQueryUnterminated      int16 = -420
)

var errorTexts = map[int16]string{
	ErrNoError:                "No error",
	ErrCommandError:           "Command error",
	ErrInvalidCharacter:       "Invalid character",
	ErrSyntaxError:            "Syntax error",
	ErrInvalidSeparator:       "Invalid separator",
	ErrDataTypeError:          "Data type error",
	ErrParameterNotAllowed:    "Parameter not allowed",
	ErrMissingParameter:       "Missing parameter",
	ErrUndefinedHeader:        "Undefined header",
	ErrHeaderSuffixOutOfRange: "Header suffix out of range",
	ErrNumericDataError:       "Numeric data error",
	ErrInvalidSuffix:          "Invalid suffix",
	ErrSuffixNotAllowed:       "Suffix not allowed",
	ErrInvalidCharacterData:   "Invalid character data",
	ErrInvalidStringData:      "Invalid string data",
	ErrInvalidBlockData:       "Invalid block data",
	ErrInvalidExpression:      "Invalid expression",
	ErrExecutionError:         "Execution error",
	ErrDataOutOfRange:         "Data out of range",
	ErrTooMuchData:            "Too much data",
	ErrIllegalParameterValue:  "Illegal parameter value",
	ErrSystemError:            "System error",
	ErrQueueOverflow:          "Queue overflow",
	ErrCommunicationError:     "Communication error",
	ErrInputBufferOverrun:     "Input buffer overrun",
	ErrQueryError:             "Query error",
	ErrQueryInterrupted:       "Query INTERRUPTED",
	ErrQueryUnterminated:      "Query UNTERMINATED",
}

// ErrorTranslate returns the standard text for a SCPI error code.
func ErrorTranslate(code int16) string {
	if text, ok := errorTexts[code]; ok {
		return text
	}
	return "Unknown error"
}

const defaultErrorQueueSize = 16

// errorQueue is a fixed-capacity FIFO of pending errors. On overflow the
// oldest unread entry is discarded so the newest failure survives, and a
// single -350 marker entry is surfaced ahead of the remaining entries on
// the next pop.
type errorQueue struct {
	data       []Error
	head       int
	count      int
	overflowed bool
}

func newErrorQueue(capacity int) errorQueue {
	if capacity <= 0 {
		capacity = defaultErrorQueueSize
	}
	return errorQueue{data: make([]Error, capacity)}
}

func (q *errorQueue) push(e Error) {
	if q.count == len(q.data) {
		q.head = (q.head + 1) % len(q.data)
		q.count--
		q.overflowed = true
	}
	q.data[(q.head+q.count)%len(q.data)] = e
	q.count++
}

func (q *errorQueue) pop() (Error, bool) {
	if q.overflowed {
		q.overflowed = false
		return Error{Code: ErrQueueOverflow}, true
	}
	if q.count == 0 {
		return Error{}, false
	}
	e := q.data[q.head]
	q.head = (q.head + 1) % len(q.data)
	q.count--
	return e, true
}

func (q *errorQueue) size() int {
	n := q.count
	if q.overflowed {
		n++
	}
	return n
}

func (q *errorQueue) clear() {
	q.head = 0
	q.count = 0
	q.overflowed = false
}

// SetErrorQueueCapacity replaces the error queue with an empty one of the
// given capacity. Pending errors are dropped, so size the queue before
// feeding input.
func (c *Context) SetErrorQueueCapacity(capacity int) {
	c.errors = newErrorQueue(capacity)
	c.updateStatus()
}

// ErrorPush adds an error to the queue, updates the status registers and
// notifies the host's error sink.
func (c *Context) ErrorPush(err *Error) {
	c.errors.push(*err)
	c.cmdError = true

	var bit uint16
	switch {
	case err.Code <= -400 && err.Code > -500:
		bit = ESRQueryError
	case err.Code <= -300 && err.Code > -400:
		bit = ESRDeviceError
	case err.Code <= -200 && err.Code > -300:
		bit = ESRExecutionError
	case err.Code <= -100 && err.Code > -200:
		bit = ESRCommandError
	default:
		bit = ESRDeviceError
	}
	c.registers[RegESR] |= bit
	c.updateStatus()

	if c.iface != nil && c.iface.OnError != nil {
		c.iface.OnError(err)
	}
}

// ErrorPushCode queues a standard error by code alone.
func (c *Context) ErrorPushCode(code int16) {
	c.ErrorPush(&Error{Code: code})
}

// ErrorPop removes and returns the oldest error, or nil when the queue is
// empty.
func (c *Context) ErrorPop() *Error {
	e, ok := c.errors.pop()
	if !ok {
		return nil
	}
	c.updateStatus()
	return &e
}

// ErrorCount returns the number of pending errors, including a pending
// overflow marker.
func (c *Context) ErrorCount() int {
	return c.errors.size()
}

// ErrorClear drops all pending errors without reporting them.
func (c *Context) ErrorClear() {
	c.errors.clear()
	c.updateStatus()
}
