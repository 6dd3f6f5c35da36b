package shared

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewPaginationRoundsPagesUp(t *testing.T) {
	p := NewPagination(2, 25, int64(51))
	require.Equal(t, 2, p.Page)
	require.Equal(t, 25, p.PerPage)
	require.Equal(t, int64(51), p.Total)
	require.Equal(t, 3, p.TotalPages)
}

func TestNewPaginationDefaultsBadInput(t *testing.T) {
	p := NewPagination(0, 0, int64(0))
	require.Equal(t, 1, p.Page)
	require.Equal(t, 20, p.PerPage)
	require.Zero(t, p.Total)
	require.Zero(t, p.TotalPages)
}
