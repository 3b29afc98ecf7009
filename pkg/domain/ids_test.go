package domain

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "leasekeeper/pkg/domain-errors"
)

// IDs must be valid, non-empty, non-nil UUIDs.
func TestParseID_RejectsMalformed(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseLeaseID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseAccountID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseUnitID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		raw := uuid.New()
		parsed, err := ParseNotificationID(raw.String())
		require.NoError(t, err)
		assert.Equal(t, NotificationID(raw), parsed)
		assert.False(t, parsed.IsNil())
	})
}

func TestIDsMarshalAsStrings(t *testing.T) {
	raw := uuid.New()
	out, err := json.Marshal(map[string]any{"lease_id": LeaseID(raw)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"lease_id":"`+raw.String()+`"}`, string(out))
}
