package postgres

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/example/lotledger/internal/models"
)

func TestTranslate(t *testing.T) {
	tests := []struct {
		code      string
		transient bool
	}{
		{code: codeDeadlockDetected, transient: true},
		{code: codeLockNotAvailable, transient: true},
		{code: codeSerializationFailure, transient: true},
		{code: codeUniqueViolation, transient: false},
		{code: "42P01", transient: false},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := translate("op", &pgconn.PgError{Code: tt.code})
			assert.Equal(t, tt.transient, errors.Is(err, models.ErrTransient))
		})
	}
	assert.NoError(t, translate("op", nil))
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(&pgconn.PgError{Code: codeUniqueViolation}))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: codeDeadlockDetected}))
	assert.False(t, isUniqueViolation(errors.New("plain")))
}
