package entity

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewCartLine(t *testing.T) {
	line, err := NewCartLine(1, "P1", 3)
	require.NoError(t, err)
	require.Equal(t, int64(1), line.UserID)
	require.Equal(t, "P1", line.ProductID)
	require.Equal(t, 3, line.Quantity)
}

func TestNewCartLine_EmptyProduct(t *testing.T) {
	_, err := NewCartLine(1, "", 1)
	require.ErrorIs(t, err, ErrEmptyProduct)
}

func TestNewCartLine_NonPositiveQuantity(t *testing.T) {
	_, err := NewCartLine(1, "P1", 0)
	require.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = NewCartLine(1, "P1", -1)
	require.ErrorIs(t, err, ErrInvalidQuantity)
}
