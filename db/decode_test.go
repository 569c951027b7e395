package db

import (
	"reflect"
	"testing"
	"time"
)

func TestAsTime(t *testing.T) {
	loc := time.UTC
	want := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	ref := want

	tests := []struct {
		name  string
		in    interface{}
		want  *time.Time
		isNil bool
	}{
		{name: "time value", in: want, want: &want},
		{name: "time pointer", in: &ref, want: &want},
		{name: "rfc3339", in: "2025-03-10T10:00:00Z", want: &want},
		{name: "local datetime", in: "2025-03-10T10:00", want: &want},
		{name: "unix millis", in: want.UnixMilli(), want: &want},
		{name: "float millis", in: float64(want.UnixMilli()), want: &want},
		{name: "firestore map", in: map[string]interface{}{"_seconds": float64(want.Unix())}, want: &want},
		{name: "zero time", in: time.Time{}, isNil: true},
		{name: "nil pointer", in: (*time.Time)(nil), isNil: true},
		{name: "garbage string", in: "next tuesday", isNil: true},
		{name: "empty string", in: "", isNil: true},
		{name: "absent", in: nil, isNil: true},
		{name: "bool", in: true, isNil: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := asTime(tt.in, loc)
			if tt.isNil {
				if got != nil {
					t.Errorf("asTime(%v) = %v, want nil", tt.in, *got)
				}
				return
			}
			if got == nil || !got.Equal(*tt.want) {
				t.Errorf("asTime(%v) = %v, want %v", tt.in, got, *tt.want)
			}
		})
	}
}

func TestAsTime_DateOnlyUsesLocation(t *testing.T) {
	loc := time.FixedZone("ART", -3*3600)
	got := asTime("2025-03-10", loc)
	if got == nil {
		t.Fatal("asTime() = nil")
	}
	if y, m, d := got.Date(); y != 2025 || m != time.March || d != 10 {
		t.Errorf("date = %v, want 2025-03-10", got)
	}
	if got.Hour() != 0 || got.Location() != loc {
		t.Errorf("asTime() = %v, want midnight in %v", got, loc)
	}
}

func TestAsStrings(t *testing.T) {
	tests := []struct {
		name string
		in   interface{}
		want []string
	}{
		{"string slice", []string{"a", "b"}, []string{"a", "b"}},
		{"interface slice", []interface{}{"a", 3, "b"}, []string{"a", "b"}},
		{"single string", "a", []string{"a"}},
		{"nil", nil, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := asStrings(tt.in); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("asStrings(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestAsBool(t *testing.T) {
	if !asBool(true) || !asBool("TRUE") {
		t.Error("asBool should accept true and \"TRUE\"")
	}
	if asBool(nil) || asBool(1) || asBool("no") {
		t.Error("asBool should reject nil, numbers and other strings")
	}
}
