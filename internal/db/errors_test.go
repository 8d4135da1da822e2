package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/hackgods/clinic-scheduling/internal/apperr"
)

func TestMapError(t *testing.T) {
	fk := &pgconn.PgError{Code: "23503", ConstraintName: "appointments_patient_id_fkey"}
	err := MapError(fmt.Errorf("insert: %w", fk))
	assert.True(t, errors.Is(err, apperr.ErrReferentialIntegrity))
	assert.Contains(t, err.Error(), "appointments_patient_id_fkey")

	uniq := &pgconn.PgError{Code: "23505", ConstraintName: "patients_dni_key"}
	assert.True(t, errors.Is(MapError(uniq), apperr.ErrConflict))
	assert.Equal(t, "patients_dni_key", ConstraintName(fmt.Errorf("wrapped: %w", uniq)))

	other := errors.New("connection reset")
	assert.Same(t, other, MapError(other))
	assert.Equal(t, "", ConstraintName(other))
}
