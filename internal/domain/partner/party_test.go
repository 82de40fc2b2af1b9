package partner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCustomer(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	t.Run("normalizes code and name", func(t *testing.T) {
		c, err := NewCustomer("cli-001", "  Almacen Don Luis ", now)
		require.NoError(t, err)
		assert.Equal(t, "CLI-001", c.Code)
		assert.Equal(t, "Almacen Don Luis", c.Name)
		assert.Equal(t, now, c.CreatedAt)
		assert.Equal(t, 1, c.Version)
	})

	t.Run("rejects invalid code", func(t *testing.T) {
		_, err := NewCustomer("cli 001", "Name", now)
		assert.Error(t, err)
	})

	t.Run("rejects empty name", func(t *testing.T) {
		_, err := NewCustomer("CLI", "   ", now)
		assert.Error(t, err)
	})
}

func TestNewSupplier(t *testing.T) {
	s, err := NewSupplier("prov_1", "Molinos del Sur", time.Now())
	require.NoError(t, err)
	s.SetContact(" 30-11111111-9 ", "", "ventas@molinos.example")
	assert.Equal(t, "PROV_1", s.Code)
	assert.Equal(t, "30-11111111-9", s.TaxID)
}
