package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// OutputSeparatorESC is the alternative field separator used by newer map
// compilers so that parameters may contain commas.
const OutputSeparatorESC = "\x1b"

// FireAlways marks a connection that never runs out.
const FireAlways = -1

// ErrMalformedOutput is returned for connection strings with too few fields.
var ErrMalformedOutput = errors.New("malformed output connection")

// Output is one output-to-input connection: when the owning entity fires
// the output, Input is sent to every entity matching Target after Delay.
type Output struct {
	Target string
	Input  string
	Param  string
	Delay  float64
	Times  int // FireAlways for unlimited
}

// ParseOutput parses "target,input,param,delay,times".
// Trailing fields may be omitted. Fields are separated by commas, or by ESC
// when the value contains one.
func ParseOutput(s string) (Output, error) {
	sep := ","
	if strings.Contains(s, OutputSeparatorESC) {
		sep = OutputSeparatorESC
	}
	fields := strings.Split(s, sep)
	if len(fields) < 2 || fields[0] == "" || fields[1] == "" {
		return Output{}, fmt.Errorf("%w: %q", ErrMalformedOutput, s)
	}

	out := Output{
		Target: strings.TrimSpace(fields[0]),
		Input:  strings.TrimSpace(fields[1]),
		Times:  FireAlways,
	}
	if len(fields) > 2 {
		out.Param = fields[2]
	}
	if len(fields) > 3 && strings.TrimSpace(fields[3]) != "" {
		d, err := strconv.ParseFloat(strings.TrimSpace(fields[3]), 64)
		if err != nil {
			return Output{}, fmt.Errorf("%w: delay %q: %v", ErrMalformedOutput, fields[3], err)
		}
		out.Delay = d
	}
	if len(fields) > 4 && strings.TrimSpace(fields[4]) != "" {
		n, err := strconv.Atoi(strings.TrimSpace(fields[4]))
		if err != nil {
			return Output{}, fmt.Errorf("%w: times %q: %v", ErrMalformedOutput, fields[4], err)
		}
		out.Times = n
	}
	return out, nil
}

// String formats the connection back into its comma separated form.
func (o Output) String() string {
	return strings.Join([]string{
		o.Target,
		o.Input,
		o.Param,
		strconv.FormatFloat(o.Delay, 'g', -1, 64),
		strconv.Itoa(o.Times),
	}, ",")
}
