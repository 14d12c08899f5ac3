package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidVersion(t *testing.T) {
	valid := []string{
		"canary",
		"0.0.0",
		"1.2.3",
		"1.2.3-pre4",
		"0.0.0-canary",
	}
	for _, v := range valid {
		assert.True(t, IsValidVersion(v), "version %q", v)
	}

	invalid := []string{
		"",
		"not-a-version",
		"1.2.3.4",
		"v1.2.3",
	}
	for _, v := range invalid {
		assert.False(t, IsValidVersion(v), "version %q", v)
	}
}
