package fuzz

import (
	"bytes"
	"testing"

	scpi "github.com/Nine-Fives/go-scpi"
)

// bufferSize bounds fuzz inputs: a chunk larger than the session buffer
// overruns immediately when fed whole but never when fed per byte, which
// is an intentional asymmetry, not a parser bug.
const bufferSize = 4096

type capture struct {
	out    bytes.Buffer
	errors []int16
	volts  float64
	text   string
	blob   []byte
}

func newSession(t *testing.T) (*scpi.Context, *capture) {
	rec := &capture{}

	iface := &scpi.Interface{
		Write: func(data []byte) (int, error) {
			rec.out.Write(data)
			return len(data), nil
		},
		OnError: func(err *scpi.Error) {
			rec.errors = append(rec.errors, err.Code)
		},
	}

	commands := []*scpi.Command{
		{Pattern: "SOURce:VOLTage[:LEVel]", Callback: func(c *scpi.Context) scpi.Result {
			v, res := c.ParamDouble(true)
			if res != scpi.ResOK {
				return scpi.ResErr
			}
			rec.volts = v
			return scpi.ResOK
		}},
		{Pattern: "SOURce:VOLTage[:LEVel]?", Callback: func(c *scpi.Context) scpi.Result {
			return c.ResultDouble(rec.volts)
		}},
		{Pattern: "TEST:TEXT", Callback: func(c *scpi.Context) scpi.Result {
			s, res := c.ParamString(true)
			if res != scpi.ResOK {
				return scpi.ResErr
			}
			rec.text = s
			return scpi.ResOK
		}},
		{Pattern: "TEST:BLOCk", Callback: func(c *scpi.Context) scpi.Result {
			b, res := c.ParamArbitraryBlock(true)
			if res != scpi.ResOK {
				return scpi.ResErr
			}
			rec.blob = append([]byte(nil), b...)
			return scpi.ResOK
		}},
		{Pattern: "TEST:ECHO?", Callback: func(c *scpi.Context) scpi.Result {
			v, res := c.ParamInt32(true)
			if res != scpi.ResOK {
				return scpi.ResErr
			}
			return c.ResultInt32(v)
		}},
	}

	ctx, err := scpi.NewContext(commands, iface, bufferSize)
	if err != nil {
		t.Fatalf("NewContext: %v", err)
	}
	ctx.SetIDN(0, "FUZZ")
	ctx.SetIDN(1, "TARGET")
	return ctx, rec
}

// FuzzStreamingInvariance checks the core resumability guarantee: feeding
// any input whole or one byte at a time, followed by a receive timeout,
// yields the same responses, the same error sequence, and the same
// instrument state.
func FuzzStreamingInvariance(f *testing.F) {
	seeds := []string{
		"*IDN?\r\n",
		"SYST:VERS?\r\n*IDN?",
		"SOUR:VOLT 1;VOLT?\r\n",
		"*ESE\r\nSYST:ERR?\r\n",
		"TEST:BLOC #15ab\r\nc\r\n",
		"TEST:TEXT 'a''b'\r\n",
		"TEST:ECHO? #HFF;*OPC\r\n",
		"*ESE @!;:SOUR:VOLT 8\r\n",
		"meas:volt:dc? 0.01 V, Default\r\n",
		"*ESE #H20\r\n*ESR?\r\n",
		"#13abc\r\n",
		"::\r\n",
		"@!\r\n*IDN?\r\n",
		"TEST:ECHO?#HFF\r\n",
	}
	for _, s := range seeds {
		f.Add([]byte(s))
	}

	f.Fuzz(func(t *testing.T, data []byte) {
		if len(data) >= bufferSize {
			t.Skip("exceeds session buffer")
		}

		whole, wholeRec := newSession(t)
		whole.Input(data)
		whole.Input(nil)

		bytewise, bytewiseRec := newSession(t)
		for i := 0; i < len(data); i++ {
			bytewise.Input(data[i : i+1])
		}
		bytewise.Input(nil)

		if !bytes.Equal(wholeRec.out.Bytes(), bytewiseRec.out.Bytes()) {
			t.Errorf("output diverged:\nwhole: %q\nbytes: %q",
				wholeRec.out.Bytes(), bytewiseRec.out.Bytes())
		}
		if len(wholeRec.errors) != len(bytewiseRec.errors) {
			t.Errorf("errors diverged:\nwhole: %v\nbytes: %v",
				wholeRec.errors, bytewiseRec.errors)
		} else {
			for i := range wholeRec.errors {
				if wholeRec.errors[i] != bytewiseRec.errors[i] {
					t.Errorf("errors diverged:\nwhole: %v\nbytes: %v",
						wholeRec.errors, bytewiseRec.errors)
					break
				}
			}
		}
		if wholeRec.volts != bytewiseRec.volts ||
			wholeRec.text != bytewiseRec.text ||
			!bytes.Equal(wholeRec.blob, bytewiseRec.blob) {
			t.Errorf("instrument state diverged for input %q", data)
		}
	})
}
