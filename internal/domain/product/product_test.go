package product

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewPageRequest(t *testing.T) {
	require.Equal(t, PageRequest{Offset: 24, Limit: 12}, NewPageRequest(2, 12))
	require.Equal(t, PageRequest{Offset: 0, Limit: 12}, NewPageRequest(-3, 12))
}

func TestNewPageRequest_HugeIndexDoesNotOverflow(t *testing.T) {
	req := NewPageRequest(math.MaxInt, 12)
	require.GreaterOrEqual(t, req.Offset, 0)
	require.Equal(t, (math.MaxInt/12)*12, req.Offset)
}
