package timelog

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrClockSkew is returned when a session would end before it started.
var ErrClockSkew = errors.New("end time is before start time")

// StartTime marks the beginning of a tracked session.
type StartTime struct {
	t time.Time
}

// EndTime marks the end of a tracked session.
type EndTime struct {
	t time.Time
}

// StartNow captures the current wall-clock time as a StartTime.
func StartNow() StartTime { return NewStartTime(time.Now()) }

// EndNow captures the current wall-clock time as an EndTime.
func EndNow() EndTime { return NewEndTime(time.Now()) }

// NewStartTime normalises t to UTC and drops its monotonic reading.
func NewStartTime(t time.Time) StartTime { return StartTime{t: normalize(t)} }

// NewEndTime normalises t to UTC and drops its monotonic reading.
func NewEndTime(t time.Time) EndTime { return EndTime{t: normalize(t)} }

func (s StartTime) Time() time.Time { return s.t }
func (e EndTime) Time() time.Time   { return e.t }

func (s StartTime) IsZero() bool { return s.t.IsZero() }
func (e EndTime) IsZero() bool   { return e.t.IsZero() }

func (s StartTime) String() string { return s.t.Format(time.RFC3339) }
func (e EndTime) String() string   { return e.t.Format(time.RFC3339) }

func (s StartTime) MarshalJSON() ([]byte, error) { return marshalTime(s.t) }
func (e EndTime) MarshalJSON() ([]byte, error)   { return marshalTime(e.t) }

func (s *StartTime) UnmarshalJSON(b []byte) error {
	t, err := unmarshalTime(b)
	if err != nil {
		return err
	}
	s.t = t
	return nil
}

func (e *EndTime) UnmarshalJSON(b []byte) error {
	t, err := unmarshalTime(b)
	if err != nil {
		return err
	}
	e.t = t
	return nil
}

// Record represents one completed tracking session.
type Record struct {
	Start StartTime `json:"start"`
	End   EndTime   `json:"end"`
}

// NewRecord pairs start and end, rejecting sessions that end before they start.
func NewRecord(start StartTime, end EndTime) (Record, error) {
	if end.t.Before(start.t) {
		return Record{}, fmt.Errorf("%w: start %s, end %s", ErrClockSkew, start, end)
	}
	return Record{Start: start, End: end}, nil
}

// Validate reports whether r is a complete session that does not end before
// it starts.
func (r Record) Validate() error {
	switch {
	case r.Start.IsZero():
		return errors.New("missing start")
	case r.End.IsZero():
		return errors.New("missing end")
	}
	_, err := NewRecord(r.Start, r.End)
	return err
}

// Duration returns the elapsed time of the session.
func (r Record) Duration() time.Duration {
	return r.End.t.Sub(r.Start.t)
}

func normalize(t time.Time) time.Time {
	return t.Round(0).UTC()
}

func marshalTime(t time.Time) ([]byte, error) {
	return json.Marshal(t.Format(time.RFC3339Nano))
}

func unmarshalTime(b []byte) (time.Time, error) {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return time.Time{}, fmt.Errorf("timestamp must be a string: %w", err)
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, err
	}
	return normalize(t), nil
}
