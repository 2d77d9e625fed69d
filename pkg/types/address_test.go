package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShippingAddressNormalize(t *testing.T) {
	blank := "   "
	addr := ShippingAddress{
		Line1:      " 1 Main St ",
		Line2:      &blank,
		City:       "Austin ",
		State:      "TX",
		PostalCode: "78701",
	}.Normalize()

	assert.Equal(t, "1 Main St", addr.Line1)
	assert.Nil(t, addr.Line2)
	assert.Equal(t, "Austin", addr.City)
	assert.Equal(t, "US", addr.Country)
}

func TestShippingAddressValueAndScan(t *testing.T) {
	addr := ShippingAddress{Line1: "1 Main St", City: "Austin", State: "TX", PostalCode: "78701", Country: "US"}
	raw, err := addr.Value()
	require.NoError(t, err)

	var decoded ShippingAddress
	require.NoError(t, decoded.Scan([]byte(raw.(string))))
	assert.Equal(t, addr, decoded)

	_, err = ShippingAddress{City: "Austin"}.Value()
	assert.Error(t, err)

	assert.Error(t, decoded.Scan(42))
}
