package db

import (
	"fmt"
	"strings"
	"time"
)

// Values read back from a backend do not share one representation: Firestore
// returns time.Time and []interface{}, the SQL backend returns whatever JSON
// decoding produced and older records may hold strings or epoch millis.
// The helpers below normalise all of them at the store boundary.

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func asString(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}

func asBool(v interface{}) bool {
	switch val := v.(type) {
	case bool:
		return val
	case string:
		return strings.EqualFold(val, "true")
	default:
		return false
	}
}

// asStrings accepts []string or []interface{}; non-string elements are skipped.
func asStrings(v interface{}) []string {
	out := []string{}
	switch val := v.(type) {
	case []string:
		out = append(out, val...)
	case []interface{}:
		for _, item := range val {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
	case string:
		if val != "" {
			out = append(out, val)
		}
	}
	return out
}

// asTime returns nil for absent, zero or unparseable values.
func asTime(v interface{}, loc *time.Location) *time.Time {
	var t time.Time
	switch val := v.(type) {
	case time.Time:
		t = val
	case *time.Time:
		if val == nil {
			return nil
		}
		t = *val
	case string:
		parsed, ok := parseTimeString(strings.TrimSpace(val), loc)
		if !ok {
			return nil
		}
		t = parsed
	case int64:
		t = time.UnixMilli(val)
	case int:
		t = time.UnixMilli(int64(val))
	case float64:
		t = time.UnixMilli(int64(val))
	case map[string]interface{}:
		// serialized Firestore timestamp
		secs, ok := val["seconds"]
		if !ok {
			secs, ok = val["_seconds"]
		}
		if !ok {
			return nil
		}
		f, isNum := secs.(float64)
		if !isNum {
			return nil
		}
		t = time.Unix(int64(f), 0)
	default:
		return nil
	}
	if t.IsZero() {
		return nil
	}
	if loc != nil {
		t = t.In(loc)
	}
	return &t
}

func parseTimeString(s string, loc *time.Location) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// timeValue converts an optional time into a storable field value.
func timeValue(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return *t
}
