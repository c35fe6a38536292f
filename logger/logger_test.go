package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskKey(t *testing.T) {
	assert.Equal(t, "unset", MaskKey(""))
	assert.Equal(t, "****", MaskKey("short"))
	assert.Equal(t, "****", MaskKey("12345678"))
	assert.Equal(t, "AIza...WXYZ", MaskKey("AIzaSyExampleKeyWXYZ"))
}
