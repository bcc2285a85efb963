package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIn(t *testing.T) {
	assert.True(t, In([]string{"ripple", "bitcoin"}, "bitcoin"))
	assert.False(t, In([]string{"ripple", "bitcoin"}, "Bitcoin"))
	assert.False(t, In(nil, "ripple"))
}

func TestLower(t *testing.T) {
	assert.Equal(t, []string{"ripple", "ethereum"}, Lower([]string{"Ripple", "ETHEREUM"}))
	assert.Empty(t, Lower(nil))
}
