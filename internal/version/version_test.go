package version

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetFullVersionString(t *testing.T) {
	full := GetFullVersionString()
	assert.Contains(t, full, "Waypoint "+Version)
	assert.Contains(t, full, runtime.Version())
}
