package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseParties(t *testing.T) {
	seeds, err := parseParties(" alice@upay:9000000001:1234:500.50 ,, bob@upay:9000000002:4321:0")
	require.NoError(t, err)
	require.Len(t, seeds, 2)
	assert.Equal(t, "alice@upay", seeds[0].address)
	assert.Equal(t, "500.50", seeds[0].funds.StringFixed(2))
	assert.Equal(t, "4321", seeds[1].pin)

	_, err = parseParties("alice@upay:9000000001")
	assert.Error(t, err)
}
