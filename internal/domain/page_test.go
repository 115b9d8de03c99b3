package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pkordes/formflow/internal/domain"
)

func intPtr(v int) *int { return &v }

func TestNewPaginationParams(t *testing.T) {
	tests := []struct {
		name        string
		page, limit *int
		want        domain.PaginationParams
	}{
		{"defaults", nil, nil, domain.PaginationParams{Page: 1, Limit: 20}},
		{"explicit", intPtr(3), intPtr(50), domain.PaginationParams{Page: 3, Limit: 50}},
		{"limit capped", intPtr(1), intPtr(500), domain.PaginationParams{Page: 1, Limit: 100}},
		{"non-positive ignored", intPtr(0), intPtr(-4), domain.PaginationParams{Page: 1, Limit: 20}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, domain.NewPaginationParams(tc.page, tc.limit))
		})
	}
}

func TestPaginationParams_Offset(t *testing.T) {
	p := domain.PaginationParams{Page: 3, Limit: 20}
	assert.Equal(t, 40, p.Offset())
}

func TestPage_Pages(t *testing.T) {
	p := domain.Page[int]{Total: 41, PaginationParams: domain.PaginationParams{Page: 1, Limit: 20}}
	assert.Equal(t, 3, p.Pages())

	p.Total = 0
	assert.Equal(t, 0, p.Pages())
}

func TestTrip_Identity(t *testing.T) {
	var trip domain.Trip
	_, ok := trip.Identity()
	assert.False(t, ok, "zero ID means not stored yet")

	trip.ID = [16]byte{1}
	id, ok := trip.Identity()
	assert.True(t, ok)
	assert.Equal(t, trip.ID.String(), id)
}
