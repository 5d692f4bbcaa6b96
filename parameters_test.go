package scpi

import (
	"math"
	"testing"
)

// paramContext returns a session primed as if a command with the given
// program data were executing.
func paramContext(t *testing.T, params string) *Context {
	t.Helper()
	c, err := NewContext(nil, nil, 0)
	if err != nil {
		t.Fatalf("NewContext: %v", err)
	}
	c.currentParams = []byte(params)
	return c
}

func TestParamInt32(t *testing.T) {
	tests := []struct {
		params string
		want   int32
	}{
		{"42", 42},
		{"-17", -17},
		{"+5", 5},
		{"3.9", 3}, // truncated toward zero
		{"#HFF", 255},
		{"#Q17", 15},
		{"#B101", 5},
	}

	for _, tt := range tests {
		c := paramContext(t, tt.params)
		got, res := c.ParamInt32(true)
		if res != ResOK {
			t.Errorf("ParamInt32(%q) failed", tt.params)
			continue
		}
		if got != tt.want {
			t.Errorf("ParamInt32(%q) = %d, want %d", tt.params, got, tt.want)
		}
	}
}

func TestParamInt32Errors(t *testing.T) {
	tests := []struct {
		params string
		code   int16
	}{
		{"", ErrMissingParameter},
		{"'text'", ErrDataTypeError},
		{"FOO", ErrDataTypeError},
		{"1E300", ErrDataOutOfRange},
		{"10 V", ErrSuffixNotAllowed},
	}

	for _, tt := range tests {
		c := paramContext(t, tt.params)
		if _, res := c.ParamInt32(true); res != ResErr {
			t.Errorf("ParamInt32(%q) succeeded, want error", tt.params)
			continue
		}
		e := c.ErrorPop()
		if e == nil || e.Code != tt.code {
			t.Errorf("ParamInt32(%q) queued %+v, want code %d", tt.params, e, tt.code)
		}
	}
}

func TestParamSequence(t *testing.T) {
	c := paramContext(t, "1, 2 ,3")
	for i, want := range []int32{1, 2, 3} {
		got, res := c.ParamInt32(true)
		if res != ResOK || got != want {
			t.Fatalf("parameter %d = %d (%v), want %d", i, got, res, want)
		}
	}
	if _, res := c.ParamInt32(false); res != ResErr {
		t.Errorf("fourth optional parameter should be absent")
	}
	if c.ErrorCount() != 0 {
		t.Errorf("absent optional parameter queued an error")
	}
}

func TestParamSeparatorError(t *testing.T) {
	c := paramContext(t, "1 2")
	if _, res := c.ParamInt32(true); res != ResOK {
		t.Fatalf("first parameter failed")
	}
	if _, res := c.ParamInt32(true); res != ResErr {
		t.Fatalf("missing comma accepted")
	}
	e := c.ErrorPop()
	if e == nil || e.Code != ErrInvalidSeparator {
		t.Errorf("queued %+v, want code %d", e, ErrInvalidSeparator)
	}
}

func TestParamOptionalKeepsCursor(t *testing.T) {
	c := paramContext(t, "")
	if _, res := c.ParamDouble(false); res != ResErr {
		t.Fatalf("optional parameter on empty data should fail")
	}
	if c.ErrorCount() != 0 {
		t.Errorf("optional miss queued an error")
	}
}

func TestParamUInt64(t *testing.T) {
	tests := []struct {
		params string
		want   uint64
	}{
		{"0", 0},
		{"4294967296", 1 << 32},
		{"#HFFFFFFFF00", 0xFFFFFFFF00},
	}

	for _, tt := range tests {
		c := paramContext(t, tt.params)
		got, res := c.ParamUInt64(true)
		if res != ResOK || got != tt.want {
			t.Errorf("ParamUInt64(%q) = %d (%v), want %d", tt.params, got, res, tt.want)
		}
	}

	for _, params := range []string{"-1", "2E19"} {
		c := paramContext(t, params)
		if _, res := c.ParamUInt64(true); res != ResErr {
			t.Errorf("ParamUInt64(%q) succeeded, want error", params)
			continue
		}
		if e := c.ErrorPop(); e == nil || e.Code != ErrDataOutOfRange {
			t.Errorf("ParamUInt64(%q) queued %+v, want code %d", params, e, ErrDataOutOfRange)
		}
	}
}

func TestParamDouble(t *testing.T) {
	tests := []struct {
		params string
		want   float64
	}{
		{"3.14", 3.14},
		{"-2.5e3", -2500},
		{"1E 5", 1e5},
		{"#H10", 16},
	}

	for _, tt := range tests {
		c := paramContext(t, tt.params)
		got, res := c.ParamDouble(true)
		if res != ResOK || got != tt.want {
			t.Errorf("ParamDouble(%q) = %v (%v), want %v", tt.params, got, res, tt.want)
		}
	}
}

func TestParamBool(t *testing.T) {
	tests := []struct {
		params string
		want   bool
	}{
		{"ON", true},
		{"on", true},
		{"OFF", false},
		{"1", true},
		{"0", false},
		{"2", true},
	}

	for _, tt := range tests {
		c := paramContext(t, tt.params)
		got, res := c.ParamBool(true)
		if res != ResOK || got != tt.want {
			t.Errorf("ParamBool(%q) = %v (%v), want %v", tt.params, got, res, tt.want)
		}
	}

	c := paramContext(t, "MAYBE")
	if _, res := c.ParamBool(true); res != ResErr {
		t.Errorf("ParamBool(MAYBE) succeeded")
	}
}

func TestParamString(t *testing.T) {
	tests := []struct {
		params string
		want   string
	}{
		{"'hello'", "hello"},
		{`"hello"`, "hello"},
		{"'a''b'", "a'b"},
		{`"say ""hi"""`, `say "hi"`},
		{"BARE", "BARE"},
	}

	for _, tt := range tests {
		c := paramContext(t, tt.params)
		got, res := c.ParamString(true)
		if res != ResOK || got != tt.want {
			t.Errorf("ParamString(%q) = %q (%v), want %q", tt.params, got, res, tt.want)
		}
	}

	c := paramContext(t, "123")
	if _, res := c.ParamString(true); res != ResErr {
		t.Fatalf("ParamString(123) succeeded")
	}
	if e := c.ErrorPop(); e == nil || e.Code != ErrInvalidStringData {
		t.Errorf("queued %+v, want code %d", e, ErrInvalidStringData)
	}
}

func TestParamChoice(t *testing.T) {
	options := []ChoiceDef{
		{Name: "BUS", Tag: 1},
		{Name: "IMMediate", Tag: 2},
		{Name: "EXTernal", Tag: 3},
	}

	tests := []struct {
		params string
		want   int32
	}{
		{"BUS", 1},
		{"IMM", 2},
		{"immediate", 2},
		{"EXT", 3},
	}

	for _, tt := range tests {
		c := paramContext(t, tt.params)
		got, res := c.ParamChoice(options, true)
		if res != ResOK || got != tt.want {
			t.Errorf("ParamChoice(%q) = %d (%v), want %d", tt.params, got, res, tt.want)
		}
	}

	c := paramContext(t, "NONSENSE")
	if _, res := c.ParamChoice(options, true); res != ResErr {
		t.Fatalf("ParamChoice(NONSENSE) succeeded")
	}
	if e := c.ErrorPop(); e == nil || e.Code != ErrIllegalParameterValue {
		t.Errorf("queued %+v, want code %d", e, ErrIllegalParameterValue)
	}
}

func TestParamNumberSpecials(t *testing.T) {
	tests := []struct {
		params string
		kind   SpecialNumber
	}{
		{"MIN", NumMin},
		{"MINIMUM", NumMin},
		{"max", NumMax},
		{"DEF", NumDef},
		{"UP", NumUp},
		{"DOWN", NumDown},
		{"INF", NumInf},
		{"NINF", NumNInf},
		{"NAN", NumNaN},
	}

	for _, tt := range tests {
		c := paramContext(t, tt.params)
		n, res := c.ParamNumber(true)
		if res != ResOK {
			t.Errorf("ParamNumber(%q) failed", tt.params)
			continue
		}
		if !n.Special || n.Kind != tt.kind {
			t.Errorf("ParamNumber(%q) = %+v, want special kind %v", tt.params, n, tt.kind)
		}
	}

	c := paramContext(t, "NAN")
	n, _ := c.ParamNumber(true)
	if !math.IsNaN(n.Value) {
		t.Errorf("ParamNumber(NAN).Value = %v, want NaN", n.Value)
	}
}

func TestParamNumberUnits(t *testing.T) {
	tests := []struct {
		params string
		want   float64
		unit   Unit
	}{
		{"0.01 V", 0.01, UnitVolt},
		{"10 MV", 0.01, UnitVolt},
		{"2 KV", 2000, UnitVolt},
		{"1.5 kHz", 1500, UnitHertz},
		{"100 ms", 0.1, UnitSecond},
		{"50ohm", 50, UnitOhm},
	}

	for _, tt := range tests {
		c := paramContext(t, tt.params)
		n, res := c.ParamNumber(true)
		if res != ResOK {
			t.Errorf("ParamNumber(%q) failed", tt.params)
			continue
		}
		if math.Abs(n.Value-tt.want) > 1e-12 || n.Unit != tt.unit {
			t.Errorf("ParamNumber(%q) = %+v, want value %v unit %v", tt.params, n, tt.want, tt.unit)
		}
	}

	c := paramContext(t, "10 XYZ")
	if _, res := c.ParamNumber(true); res != ResErr {
		t.Fatalf("ParamNumber(10 XYZ) succeeded")
	}
	if e := c.ErrorPop(); e == nil || e.Code != ErrInvalidSuffix {
		t.Errorf("queued %+v, want code %d", e, ErrInvalidSuffix)
	}
}

func TestParamChannelListErrors(t *testing.T) {
	for _, params := range []string{"(@)", "(@1!2:3)", "(@1,)", "(1,2)"} {
		c := paramContext(t, params)
		if _, res := c.ParamChannelList(true); res != ResErr {
			t.Errorf("ParamChannelList(%q) succeeded, want error", params)
			continue
		}
		if e := c.ErrorPop(); e == nil || e.Code != ErrInvalidExpression {
			t.Errorf("ParamChannelList(%q) queued %+v, want code %d", params, e, ErrInvalidExpression)
		}
	}
}
