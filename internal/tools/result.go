package tools

import (
	"encoding/json"
	"errors"
)

// Result is the outcome of one tool invocation: a payload on success or an
// error on failure, never both.
type Result struct {
	CallID  string
	Tool    string
	Payload Payload
	Err     error
}

// Success builds a success-tagged result
func Success(callID, tool string, p Payload) Result {
	return Result{CallID: callID, Tool: tool, Payload: p}
}

// Failure builds a failure-tagged result
func Failure(callID, tool string, err error) Result {
	return Result{CallID: callID, Tool: tool, Err: err}
}

// OK reports whether the invocation succeeded
func (r Result) OK() bool {
	return r.Err == nil
}

// Kind returns the payload kind, or "" for failures
func (r Result) Kind() Kind {
	if r.Err != nil || r.Payload == nil {
		return ""
	}
	return r.Payload.Kind()
}

// Content is the text placed in the tool message for the model
func (r Result) Content() string {
	if r.Err != nil {
		return "error: " + r.Err.Error()
	}
	if r.Payload == nil {
		return "error: " + ErrNoResult.Error()
	}
	return r.Payload.Summary()
}

type resultJSON struct {
	CallID  string          `json:"call_id"`
	Tool    string          `json:"tool"`
	Kind    Kind            `json:"kind,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// MarshalJSON stores the payload alongside its kind so it can be decoded back
func (r Result) MarshalJSON() ([]byte, error) {
	out := resultJSON{CallID: r.CallID, Tool: r.Tool}
	if r.Err != nil {
		out.Error = r.Err.Error()
		return json.Marshal(out)
	}
	if r.Payload != nil {
		data, err := json.Marshal(r.Payload)
		if err != nil {
			return nil, err
		}
		out.Kind = r.Payload.Kind()
		out.Payload = data
	}
	return json.Marshal(out)
}

// UnmarshalJSON restores a result. Errors come back as plain errors carrying
// the original message.
func (r *Result) UnmarshalJSON(data []byte) error {
	var in resultJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*r = Result{CallID: in.CallID, Tool: in.Tool}
	if in.Error != "" {
		r.Err = errors.New(in.Error)
		return nil
	}
	if in.Kind == "" {
		return nil
	}
	p, err := decodePayload(in.Kind, in.Payload)
	if err != nil {
		return err
	}
	r.Payload = p
	return nil
}
