package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
)

func TestNewBookingRepository(t *testing.T) {
	pool := &pgxpool.Pool{}
	repo := NewBookingRepository(pool)
	assert.NotNil(t, repo)
}

func TestNewTransactor(t *testing.T) {
	pool := &pgxpool.Pool{}
	assert.NotNil(t, NewTransactor(pool))
}

func TestIsUniqueViolation(t *testing.T) {
	dup := &pgconn.PgError{Code: "23505", ConstraintName: "bookings_active_rider_uniq"}

	assert.True(t, isUniqueViolation(dup))
	assert.True(t, isUniqueViolation(fmt.Errorf("insert: %w", dup)))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, isUniqueViolation(errors.New("boom")))
}

func TestHydratedBookingSelectJoinsParticipants(t *testing.T) {
	assert.Contains(t, hydratedBookingSelect, "JOIN rides r ON r.id = b.ride_id")
	assert.Contains(t, hydratedBookingSelect, "LEFT JOIN users d ON d.id = r.driver_id")
	assert.Contains(t, hydratedBookingSelect, "LEFT JOIN users u ON u.id = b.rider_id")
}
