package classify

import (
	"fmt"

	"github.com/nfclab/nfctrace/pkg/model"
)

// RateLabel formats the air bit rate in whole kilobits per second, e.g.
// "106k". Carrier events have no rate label.
func RateLabel(frame *model.Frame) string {
	if !frame.IsPoll() && !frame.IsListen() {
		return ""
	}

	return fmt.Sprintf("%.0fk", float64(frame.Rate)/1000.0)
}

// DeltaLabel formats the gap between the end of the previous frame and
// the start of this one, rounded to the nearest whole unit: microseconds
// below one millisecond, milliseconds below one second, seconds above.
// Empty when there is no previous frame.
func DeltaLabel(frame, prev *model.Frame) string {
	if prev == nil {
		return ""
	}

	elapsed := frame.TimeStart - prev.TimeEnd

	if elapsed < 1e-3 {
		return fmt.Sprintf("%.0f us", elapsed*1e6)
	}

	if elapsed < 1 {
		return fmt.Sprintf("%.0f ms", elapsed*1e3)
	}

	return fmt.Sprintf("%.0f s", elapsed)
}
