package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewID(t *testing.T) {
	id := GenerateUUID()
	parsed, err := NewID(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)

	_, err = NewID("42")
	assert.Error(t, err)
}

func TestMoney_Arithmetic(t *testing.T) {
	price := NewMoney(1234, "USD")

	assert.Equal(t, int64(3702), price.Multiply(3).Amount)
	assert.Equal(t, int64(-1234), price.Multiply(-1).Amount)

	sum, err := price.Add(NewMoney(66, "USD"))
	require.NoError(t, err)
	assert.Equal(t, int64(1300), sum.Amount)

	diff, err := sum.Subtract(price)
	require.NoError(t, err)
	assert.Equal(t, int64(66), diff.Amount)

	_, err = price.Add(NewMoney(1, "EUR"))
	assert.ErrorIs(t, err, ErrCurrencyMismatch)
}

func TestMoney_String(t *testing.T) {
	assert.Equal(t, "12.34 USD", NewMoney(1234, "USD").String())
	assert.Equal(t, "-12.34 USD", NewMoney(-1234, "USD").String())
	assert.Equal(t, "0.05 EUR", NewMoney(5, "EUR").String())
}

func TestVersion_Update(t *testing.T) {
	v := NewVersion()
	next := v.Update()
	assert.Equal(t, 1, v.Value)
	assert.Equal(t, 2, next.Value)
	assert.Equal(t, 1, next.Previous())
}
