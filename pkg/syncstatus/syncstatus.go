// Package syncstatus holds the per-record upload state and the policy that
// decides when a server copy may replace a local one.
package syncstatus

import (
	"database/sql/driver"
	"fmt"
	"strings"
)

type Status int

const (
	Pending Status = iota + 1
	InFlight
	Invalid
	Done
)

var names = map[Status]string{
	Pending:  "PENDING",
	InFlight: "IN_FLIGHT",
	Invalid:  "INVALID",
	Done:     "DONE",
}

func (s Status) String() string {
	if name, ok := names[s]; ok {
		return name
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

func Parse(value string) (Status, error) {
	normalized := strings.ToUpper(strings.TrimSpace(value))
	for status, name := range names {
		if name == normalized {
			return status, nil
		}
	}
	return 0, fmt.Errorf("unknown sync status %q", value)
}

// CanOverwrite reports whether a server record may replace local state.
// A local record that is pending upload or being uploaded is never
// overwritten; invalid and reconciled copies always are.
func CanOverwrite(local Status, exists bool) bool {
	if !exists {
		return true
	}
	switch local {
	case Invalid, Done:
		return true
	default:
		return false
	}
}

func (s Status) MarshalText() ([]byte, error) {
	if _, ok := names[s]; !ok {
		return nil, fmt.Errorf("unknown sync status %d", int(s))
	}
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func (s Status) Value() (driver.Value, error) {
	if _, ok := names[s]; !ok {
		return nil, fmt.Errorf("unknown sync status %d", int(s))
	}
	return s.String(), nil
}

func (s *Status) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		return s.UnmarshalText([]byte(v))
	case []byte:
		return s.UnmarshalText(v)
	case nil:
		return fmt.Errorf("sync status is null")
	default:
		return fmt.Errorf("cannot scan %T into sync status", src)
	}
}

// GormDataType keeps the column textual across dialects.
func (Status) GormDataType() string {
	return "string"
}
