package events

import "encoding/json"

// Event name constants
const (
	SampleAppended   = "sample.appended"
	AcquisitionState = "acquisition.state"
)

// Event is a generic SSE event from daemon.
type Event struct {
	Name string          // SSE event name
	Data json.RawMessage // Raw JSON payload
}

// AcquisitionStateEvent is the typed payload for acquisition.state.
type AcquisitionStateEvent struct {
	Running bool   `json:"running"`
	Source  string `json:"source,omitempty"`
	Message string `json:"message,omitempty"`
	Ts      int64  `json:"ts"`
}

// DecodeAs decodes the event payload into the caller-specified generic type T.
// It ignores the event name and simply unmarshals Data into T. If Data is empty,
// it returns the zero value of T with a nil error.
//
// Example:
//
//	st, err := events.DecodeAs[events.AcquisitionStateEvent](ev)
//	if err != nil { /* handle */ }
//	fmt.Println(st.Running)
func DecodeAs[T any](e Event) (T, error) {
	var zero T
	if len(e.Data) == 0 {
		return zero, nil
	}
	var v T
	if err := json.Unmarshal(e.Data, &v); err != nil {
		return zero, err
	}
	return v, nil
}
