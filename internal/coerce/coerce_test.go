package coerce_test

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheMichaelB/triplog/internal/coerce"
)

func TestString(t *testing.T) {
	tests := []struct {
		name string
		in   interface{}
		want string
	}{
		{"trimmed", "  Home  ", "Home"},
		{"float", 1050.5, "1050.5"},
		{"integral float", 42.0, "42"},
		{"int", 7, "7"},
		{"json number", json.Number("12.25"), "12.25"},
		{"bool", true, "true"},
		{"nil", nil, ""},
		{"nan", math.NaN(), ""},
		{"object", map[string]interface{}{"a": 1}, ""},
		{"array", []interface{}{"a"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, coerce.String(tt.in))
		})
	}
}

func TestNumber(t *testing.T) {
	tests := []struct {
		name   string
		in     interface{}
		want   float64
		wantOK bool
	}{
		{"float", 12.5, 12.5, true},
		{"int", 3, 3, true},
		{"string", " 1000 ", 1000, true},
		{"decimal comma", "12,5", 12.5, true},
		{"empty string", "", 0, false},
		{"garbage", "abc", 0, false},
		{"nil", nil, 0, false},
		{"bool", true, 0, false},
		{"inf", math.Inf(1), 0, false},
		{"json number", json.Number("3.5"), 3.5, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := coerce.Number(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOptionalNumber(t *testing.T) {
	require.NotNil(t, coerce.OptionalNumber("5"))
	assert.Equal(t, 5.0, *coerce.OptionalNumber("5"))
	assert.Nil(t, coerce.OptionalNumber(""))
	assert.Nil(t, coerce.OptionalNumber(nil))
	assert.Equal(t, 9.0, coerce.NumberOr("x", 9))
}

func TestBool(t *testing.T) {
	assert.True(t, coerce.Bool(true))
	assert.True(t, coerce.Bool("yes"))
	assert.True(t, coerce.Bool(1.0))
	assert.False(t, coerce.Bool("no"))
	assert.False(t, coerce.Bool(nil))
	assert.False(t, coerce.Bool(0.0))
}

func TestContainers(t *testing.T) {
	assert.Nil(t, coerce.Map("x"))
	assert.NotNil(t, coerce.Map(map[string]interface{}{}))
	assert.Nil(t, coerce.Slice(map[string]interface{}{}))
	assert.Len(t, coerce.Slice([]interface{}{1, 2}), 2)
}

func TestFirst(t *testing.T) {
	m := map[string]interface{}{"from": "A", "startPlace": "  ", "odo": nil}

	assert.Equal(t, "A", coerce.First(m, "startPlace", "from"))
	assert.Nil(t, coerce.First(m, "odo", "missing"))
}

func TestStrings(t *testing.T) {
	assert.Equal(t, []string{"work", "3", "client"}, coerce.Strings([]interface{}{"work", " ", 3.0, "client"}))
	assert.Equal(t, []string{"a", "b"}, coerce.Strings("a, b,,"))
	assert.Equal(t, []string{}, coerce.Strings(nil))
}

func TestStringMap(t *testing.T) {
	got := coerce.StringMap(map[string]interface{}{
		"endPlace": "Office",
		"odoStart": 12.0,
		"nested":   map[string]interface{}{},
	})
	assert.Equal(t, map[string]string{"endPlace": "Office", "odoStart": "12"}, got)
	assert.Equal(t, map[string]string{}, coerce.StringMap("nope"))
}
