package dynamo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStateNorms(t *testing.T) {
	s := State{3, -4}
	assert.InDelta(t, 5.0, s.Norm(), 1e-15)
	assert.Equal(t, 4.0, s.MaxAbs())

	var empty State
	assert.Equal(t, 0.0, empty.Norm())
	assert.Equal(t, 0.0, empty.MaxAbs())
}

func TestStateValidity(t *testing.T) {
	assert.True(t, State{0, 1}.IsValid())
	assert.False(t, State{math.NaN()}.IsValid())
	assert.False(t, State{0, math.Inf(-1)}.IsValid())

	snap := Snapshot{Q: State{1}, P: State{math.Inf(1)}}
	assert.False(t, snap.IsValid())
	snap.P = nil
	assert.True(t, snap.IsValid())
}

func TestSnapshotCloneDoesNotAlias(t *testing.T) {
	s := Snapshot{T: 1, Q: State{1, 2}, P: State{3}}
	c := s.Clone()
	c.Q[0], c.P[0] = 9, 9
	assert.Equal(t, State{1, 2}, s.Q)
	assert.Equal(t, State{3}, s.P)
	assert.Nil(t, c.Lambda)
}
