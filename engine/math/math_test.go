package math

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClamp(t *testing.T) {
	assert.Equal(t, 0, Clamp(-3, 0, 9))
	assert.Equal(t, 9, Clamp(12, 0, 9))
	assert.Equal(t, float32(2.5), Clamp(float32(2.5), 0, 9))
}

func TestFloorToInt(t *testing.T) {
	assert.Equal(t, 1, FloorToInt(float32(1.9)))
	assert.Equal(t, -1, FloorToInt(-0.5))
	assert.Equal(t, 2, FloorToInt(2.0))
}

func TestVec3Arithmetic(t *testing.T) {
	a := NewVec3(1, 2, 3)
	assert.Equal(t, NewVec3(2, 3, 4), a.Add(NewVec3One()))
	assert.Equal(t, NewVec3Zero(), a.Sub(a))
}
