package types

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordClone(t *testing.T) {
	rec := Record{
		"id":     "apt-1",
		"triage": map[string]interface{}{"chief_complaint": "febre"},
	}

	clone := rec.Clone()
	require.NotNil(t, clone)
	clone["status"] = "Cancelado"
	clone["triage"].(map[string]interface{})["chief_complaint"] = "tosse"

	// Nested values must not alias the original.
	assert.NotContains(t, rec, "status")
	assert.Equal(t, "febre", rec["triage"].(map[string]interface{})["chief_complaint"])
}

func TestRecordID(t *testing.T) {
	assert.Equal(t, "apt-1", Record{"id": "apt-1"}.ID())
	assert.Equal(t, "", Record{}.ID())
	assert.Equal(t, "", Record{"id": 42}.ID())
}

func TestClinicErrorUnwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := NewStorageError("não foi possível salvar", cause)

	assert.ErrorIs(t, err, cause)
	assert.True(t, IsErrorType(err, ErrorTypeStorage))
	assert.False(t, IsErrorType(err, ErrorTypeValidation))
	assert.False(t, IsErrorType(errors.New("plain"), ErrorTypeStorage))
}

func TestTransitionErrorDetails(t *testing.T) {
	err := NewTransitionError(StatusScheduled, StatusCompleted, "recepcionista")

	assert.True(t, IsErrorType(err, ErrorTypeTransition))
	assert.Equal(t, ErrCodeInvalidTransition, err.Code)
	assert.Equal(t, string(StatusScheduled), err.Details["current_status"])
	assert.Equal(t, string(StatusCompleted), err.Details["requested_status"])
	assert.Contains(t, err.Message, "não é possível alterar")
}
