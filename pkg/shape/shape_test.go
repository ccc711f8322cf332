package shape

import (
	"encoding/json"
	"math"
	"reflect"
	"strings"
	"testing"
)

func TestID(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"int", 7, "7"},
		{"int64", int64(42), "42"},
		{"float integral", float64(9), "9"},
		{"float fractional", 1.5, "1.5"},
		{"json number", json.Number("12"), "12"},
		{"json number float form", json.Number("12.0"), "12"},
		{"string", "7", "7"},
		{"string padded", "  7 ", "7"},
		{"nil", nil, ""},
		{"nan", math.NaN(), ""},
		{"raw", json.RawMessage(`15`), "15"},
		{"unsupported", struct{}{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ID(tt.in); got != tt.want {
				t.Errorf("ID(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestID_NumberAndStringAgree(t *testing.T) {
	if ID(7) != ID("7") {
		t.Errorf("expected numeric and string ids to normalize equally")
	}
}

func TestNormalizeToArray(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want []string
	}{
		{"nil", nil, []string{}},
		{"string slice", []string{"a", "b"}, []string{"a", "b"}},
		{"mixed slice", []any{3.2, "neg"}, []string{"3.2", "neg"}},
		{"int slice", []int{1, 2, 3}, []string{"1", "2", "3"}},
		{"json array string", `["glucose","wbc"]`, []string{"glucose", "wbc"}},
		{"json array of numbers", `[110, 4.20]`, []string{"110", "4.20"}},
		{"json scalar string", `"glucose"`, []string{"glucose"}},
		{"json number string", `110`, []string{"110"}},
		{"json null string", `null`, []string{}},
		{"csv", "glucose, wbc ,,hb", []string{"glucose", "wbc", "hb"}},
		{"plain word", "glucose", []string{"glucose"}},
		{"empty string", "", []string{}},
		{"whitespace", "   ", []string{}},
		{"broken json falls back", `["a", "b"`, []string{`["a"`, `"b"`}},
		{"trailing garbage", `[1] junk`, []string{"[1] junk"}},
		{"null element", []any{nil, "x"}, []string{"", "x"}},
		{"object element", `[{"a":1}]`, []string{`{"a":1}`}},
		{"bare number", 5, []string{"5"}},
		{"unsupported", map[string]int{"a": 1}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeToArray(tt.in)
			if got == nil {
				t.Fatal("expected non-nil slice")
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("NormalizeToArray(%v) = %#v, want %#v", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeToArray_JoinRoundTrip(t *testing.T) {
	inputs := []any{
		[]string{"glucose", "wbc", "hb"},
		`["110","4.2"]`,
		"one, two",
		[]any{1, 2.5, "x"},
		[]string{"single"},
	}
	for _, in := range inputs {
		first := NormalizeToArray(in)
		again := NormalizeToArray(strings.Join(first, ","))
		if !reflect.DeepEqual(first, again) {
			t.Errorf("round trip of %v: got %#v, want %#v", in, again, first)
		}
	}
}

func TestNormalizeToArray_DoesNotAliasInput(t *testing.T) {
	in := []string{"a", "b"}
	out := NormalizeToArray(in)
	out[0] = "changed"
	if in[0] != "a" {
		t.Error("expected input slice to be left untouched")
	}
}

func TestStringify(t *testing.T) {
	if got := Stringify(json.Number("3.20")); got != "3.20" {
		t.Errorf("expected literal number text, got %q", got)
	}
	if got := Stringify(true); got != "true" {
		t.Errorf("expected true, got %q", got)
	}
	if got := Stringify(map[string]any{"k": "v"}); got != `{"k":"v"}` {
		t.Errorf("expected compact json, got %q", got)
	}
	if got := Stringify(nil); got != "" {
		t.Errorf("expected empty string for nil, got %q", got)
	}
}
