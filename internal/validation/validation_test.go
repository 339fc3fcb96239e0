package validation

import (
	"errors"
	"testing"

	"github.com/Domenick1991/rideshare/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type place struct {
	City string   `json:"city" validate:"required,min=2,max=100"`
	Lat  *float64 `json:"lat" validate:"required,gte=-90,lte=90"`
}

type request struct {
	From  place   `json:"from"`
	Seats int     `json:"seats_total" validate:"min=1,max=8"`
	Notes *string `json:"notes" validate:"omitempty,max=5"`
}

func TestStruct_ReportsJSONFieldPaths(t *testing.T) {
	lat := 95.0
	notes := "far too long"

	err := Struct(request{From: place{City: "M", Lat: &lat}, Seats: 9, Notes: &notes})

	var de *domain.Error
	require.True(t, errors.As(err, &de))
	assert.Equal(t, domain.KindValidation, de.Kind)

	byField := map[string]domain.FieldError{}
	for _, f := range de.Fields {
		byField[f.Field] = f
	}
	assert.Equal(t, "min", byField["from.city"].Kind)
	assert.Equal(t, "must be at least 2 characters", byField["from.city"].Message)
	assert.Equal(t, "lte", byField["from.lat"].Kind)
	assert.Equal(t, "max", byField["seats_total"].Kind)
	assert.Equal(t, "must be at most 8", byField["seats_total"].Message)
	assert.Equal(t, "max", byField["notes"].Kind)
}

func TestStruct_Valid(t *testing.T) {
	lat := 0.0
	assert.NoError(t, Struct(request{From: place{City: "Madrid", Lat: &lat}, Seats: 3}))
}

func TestStruct_RequiredPointer(t *testing.T) {
	err := Struct(request{From: place{City: "Madrid"}, Seats: 1})

	var de *domain.Error
	require.True(t, errors.As(err, &de))
	require.Len(t, de.Fields, 1)
	assert.Equal(t, "from.lat", de.Fields[0].Field)
	assert.Equal(t, "is required", de.Fields[0].Message)
}
