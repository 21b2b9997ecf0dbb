package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveAccountKnownPortfolio(t *testing.T) {
	account := ResolveAccount("growth", nil)
	require.NotNil(t, account)
	assert.Equal(t, "DU7654321", *account)
}

func TestResolveAccountUnknownPortfolio(t *testing.T) {
	assert.Nil(t, ResolveAccount("does-not-exist", nil))
	assert.Nil(t, ResolveAccount("", nil))
}

func TestResolveAccountExplicitWins(t *testing.T) {
	explicit := "DU0000001"
	account := ResolveAccount("growth", &explicit)
	require.NotNil(t, account)
	assert.Equal(t, "DU0000001", *account)
}

func TestResolveAccountEmptyExplicitFallsBack(t *testing.T) {
	empty := ""
	account := ResolveAccount("income", &empty)
	require.NotNil(t, account)
	assert.Equal(t, "DU7654323", *account)
}
