package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetEnvAsInt(t *testing.T) {
	tests := []struct {
		name  string
		value string
		set   bool
		want  int
	}{
		{name: "unset", want: 7},
		{name: "number", value: "250", set: true, want: 250},
		{name: "negative", value: "-3", set: true, want: -3},
		{name: "malformed", value: "lots", set: true, want: 7},
		{name: "empty", value: "", set: true, want: 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.set {
				t.Setenv("VOICEPAY_TEST_INT", tt.value)
			}
			assert.Equal(t, tt.want, GetEnvAsInt("VOICEPAY_TEST_INT", 7))
		})
	}
}
