package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePaginationFromQuery(t *testing.T) {
	tests := []struct {
		page, size       string
		wantPage, wantSz int
	}{
		{"", "", 1, 20},
		{"3", "10", 3, 10},
		{"-1", "abc", 1, 20},
		{"2", "500", 2, 100},
	}
	for _, tt := range tests {
		page, size := ParsePaginationFromQuery(tt.page, tt.size)
		assert.Equal(t, tt.wantPage, page, "page %q", tt.page)
		assert.Equal(t, tt.wantSz, size, "size %q", tt.size)
	}
}

func TestCalculatePaginationInfo(t *testing.T) {
	info := CalculatePaginationInfo(42, 2, 20)
	assert.Equal(t, 3, info.TotalPages)
	assert.True(t, info.HasNext)
	assert.True(t, info.HasPrevious)

	empty := CalculatePaginationInfo(0, 1, 20)
	assert.Equal(t, 1, empty.TotalPages)
	assert.False(t, empty.HasNext)

	assert.Equal(t, 40, CalculateOffset(3, 20))
}
