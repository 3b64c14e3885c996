package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPagination(t *testing.T) {
	p := NewPagination(2, 10, 35)
	assert.Equal(t, 2, p.Page)
	assert.Equal(t, 10, p.PerPage)
	assert.Equal(t, 35, p.Total)
	assert.Equal(t, 4, p.TotalPages)
}

func TestNewPaginationNormalizesInputs(t *testing.T) {
	p := NewPagination(0, -5, 0)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 10, p.PerPage)
	assert.Equal(t, 0, p.Total)
	assert.Equal(t, 0, p.TotalPages)
}
