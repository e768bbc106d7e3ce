package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetUtapiVersionIsNeverEmpty(t *testing.T) {
	assert.NotEmpty(t, GetUtapiVersion())
}

func TestGoVersionReportsToolchain(t *testing.T) {
	assert.Contains(t, GoVersion(), "go")
}
