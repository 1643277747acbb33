package harness

import (
	"encoding/json"
	"math"
	"strconv"

	"github.com/roach88/fmigen/pkg/ir"
)

// Real is a Real value in a trace. Non-finite values are written as the
// strings "NaN", "+Inf" and "-Inf".
type Real float64

// MarshalJSON implements json.Marshaler.
func (r Real) MarshalJSON() ([]byte, error) {
	f := float64(r)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return []byte(strconv.Quote(ir.FormatReal(f))), nil
	}
	return json.Marshal(f)
}

// TraceEvent records one call and its outcome.
type TraceEvent struct {
	Seq      int64     `json:"seq"`
	Call     string    `json:"call"`
	Instance string    `json:"instance,omitempty"`
	Refs     []uint32  `json:"refs,omitempty"`
	Args     []float64 `json:"args,omitempty"`   // time, step size or experiment values
	Values   []any     `json:"values,omitempty"` // values written or read
	Status   string    `json:"status"`
	State    string    `json:"state"` // instance state after the call
}

// LogEvent is one message delivered to the host logger.
type LogEvent struct {
	Instance string `json:"instance"`
	Status   string `json:"status"`
	Category string `json:"category"`
	Message  string `json:"message"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every expectation and assertion held.
	Pass bool `json:"pass"`

	Trace  []TraceEvent `json:"trace"`
	Logs   []LogEvent   `json:"logs"`
	Errors []string     `json:"errors,omitempty"`
}

// NewResult creates a passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Logs:   []LogEvent{},
		Errors: []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
