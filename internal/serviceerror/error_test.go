package serviceerror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorKinds_AreDisjoint(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{"validation", Validation("client ID is required"), IsValidation},
		{"conflict", Conflict("consent", "CONSENT-1", "already revoked"), IsConflict},
		{"not found", NotFound("consent", "CONSENT-2"), IsNotFound},
		{"persistence", Persistence("dao.InsertConsent", errors.New("connection reset")), IsPersistence},
		{"unsupported driver", UnsupportedDriver("sybase"), IsUnsupportedDriver},
	}

	predicates := map[string]func(error) bool{
		"validation":         IsValidation,
		"conflict":           IsConflict,
		"not found":          IsNotFound,
		"persistence":        IsPersistence,
		"unsupported driver": IsUnsupportedDriver,
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for name, pred := range predicates {
				if name == tt.name {
					assert.True(t, pred(tt.err), "expected %s predicate to match", name)
				} else {
					assert.False(t, pred(tt.err), "predicate %s must not match a %s error", name, tt.name)
				}
			}
		})
	}
}

func TestError_UnwrapsCause(t *testing.T) {
	cause := errors.New("driver: bad connection")
	err := PersistenceWithID("dao.UpdateConsentStatus", "consent", "CONSENT-3", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "dao.UpdateConsentStatus")
	assert.Contains(t, err.Error(), "CONSENT-3")
}

func TestError_SurvivesWrapping(t *testing.T) {
	inner := Conflict("consent", "CONSENT-4", "already revoked")
	wrapped := fmt.Errorf("revoke failed: %w", inner)

	assert.True(t, IsConflict(wrapped))
	assert.False(t, IsNotFound(wrapped))
}
