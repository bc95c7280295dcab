// Package filter implements display filters over classified frames
// using expr expressions, e.g.:
//
//	tech == "NfcA" && event == "REQA"
//	is_listen && crc_error
//	len > 16 && time < 2.5
package filter

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/nfclab/nfctrace/pkg/classify"
	"github.com/nfclab/nfctrace/pkg/model"
)

// FrameEnv is the expression environment built from one classified
// frame.
type FrameEnv struct {
	Number int     `expr:"number"`
	Len    int     `expr:"len"`
	Time   float64 `expr:"time"`
	Rate   int     `expr:"rate"`

	Tech  string `expr:"tech"`
	Event string `expr:"event"`

	IsPoll   bool `expr:"is_poll"`
	IsListen bool `expr:"is_listen"`
	IsNfcA   bool `expr:"is_nfca"`
	IsNfcB   bool `expr:"is_nfcb"`
	IsNfcF   bool `expr:"is_nfcf"`
	IsNfcV   bool `expr:"is_nfcv"`

	CRCError    bool `expr:"crc_error"`
	ParityError bool `expr:"parity_error"`
	SyncError   bool `expr:"sync_error"`
	Encrypted   bool `expr:"encrypted"`
	Truncated   bool `expr:"truncated"`
}

// NewFrameEnv builds the environment for a frame and its predecessor.
func NewFrameEnv(frame, prev *model.Frame) FrameEnv {
	return FrameEnv{
		Number: frame.Number,
		Len:    frame.Len(),
		Time:   frame.TimeStart,
		Rate:   frame.Rate,

		Tech:  frame.Tech.String(),
		Event: classify.Event(frame, prev),

		IsPoll:   frame.IsPoll(),
		IsListen: frame.IsListen(),
		IsNfcA:   frame.Tech == model.TechNfcA,
		IsNfcB:   frame.Tech == model.TechNfcB,
		IsNfcF:   frame.Tech == model.TechNfcF,
		IsNfcV:   frame.Tech == model.TechNfcV,

		CRCError:    frame.Flags&model.FlagCRCError != 0,
		ParityError: frame.Flags&model.FlagParityError != 0,
		SyncError:   frame.Flags&model.FlagSyncError != 0,
		Encrypted:   frame.IsEncrypted(),
		Truncated:   frame.Flags&model.FlagTruncated != 0,
	}
}

// Filter is a compiled display filter.
type Filter struct {
	expression string
	program    *vm.Program
}

// Compile parses and type-checks a filter expression.
func Compile(expression string) (*Filter, error) {
	program, err := expr.Compile(expression, expr.Env(FrameEnv{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile filter %q: %w", expression, err)
	}

	return &Filter{expression: expression, program: program}, nil
}

// Expression returns the source text of the filter.
func (f *Filter) Expression() string {
	return f.expression
}

// Match reports whether the frame passes the filter.
func (f *Filter) Match(frame, prev *model.Frame) (bool, error) {
	out, err := expr.Run(f.program, NewFrameEnv(frame, prev))
	if err != nil {
		return false, fmt.Errorf("run filter %q: %w", f.expression, err)
	}

	return out.(bool), nil
}
