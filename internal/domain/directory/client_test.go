package directory

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	c, err := NewClient(uuid.New(), "Acme")
	require.NoError(t, err)
	return c
}

func TestNewClient(t *testing.T) {
	t.Run("starts unsynced and active", func(t *testing.T) {
		c := newTestClient(t)
		assert.Equal(t, SyncStatusUnsynced, c.SyncStatus)
		assert.Equal(t, ClientStatusActive, c.Status)
		assert.True(t, c.PendingFields.IsEmpty())
	})

	t.Run("requires a name", func(t *testing.T) {
		_, err := NewClient(uuid.New(), "   ")
		assert.Error(t, err)
	})
}

func TestClient_LinkExternalID(t *testing.T) {
	c := newTestClient(t)

	c.LinkExternalID("QB-100")
	require.True(t, c.HasExternalID())
	assert.Equal(t, "QB-100", *c.ExternalID)

	// An existing link is never overwritten
	c.LinkExternalID("QB-200")
	assert.Equal(t, "QB-100", *c.ExternalID)
}

func TestClient_FillCoordinates(t *testing.T) {
	lat, lng := 40.71, -74.0
	newLat, newLng := 51.5, -0.12

	t.Run("fills when absent", func(t *testing.T) {
		c := newTestClient(t)
		c.FillCoordinates(&lat, &lng)
		require.True(t, c.HasCoordinates())
		assert.Equal(t, lat, *c.Latitude)
	})

	t.Run("never overwrites existing coordinates", func(t *testing.T) {
		c := newTestClient(t)
		c.FillCoordinates(&lat, &lng)

		c.FillCoordinates(&newLat, &newLng)

		assert.Equal(t, lat, *c.Latitude)
		assert.Equal(t, lng, *c.Longitude)
	})

	t.Run("ignores partial coordinates", func(t *testing.T) {
		c := newTestClient(t)
		c.FillCoordinates(&lat, nil)
		assert.False(t, c.HasCoordinates())
	})
}

func TestClient_SyncLifecycle(t *testing.T) {
	t.Run("pending fields move client to pending", func(t *testing.T) {
		c := newTestClient(t)
		c.MarkFieldsPending(FieldAddress, FieldPhone)

		assert.Equal(t, SyncStatusPending, c.SyncStatus)
		assert.Equal(t, 2, c.PendingFields.Len())
	})

	t.Run("completing clears exactly the pushed fields", func(t *testing.T) {
		c := newTestClient(t)
		c.MarkFieldsPending(FieldAddress, FieldPhone)

		c.CompleteSync(FieldAddress)

		// Phone is still pending, so the client is not synced yet
		assert.Equal(t, SyncStatusPending, c.SyncStatus)
		assert.True(t, c.PendingFields.Has(FieldPhone))
		assert.False(t, c.PendingFields.Has(FieldAddress))

		c.CompleteSync(FieldPhone)

		assert.Equal(t, SyncStatusSynced, c.SyncStatus)
		assert.True(t, c.PendingFields.IsEmpty())
		assert.NotNil(t, c.LastSyncAt)
		assert.Empty(t, c.LastSyncError)
	})

	t.Run("synced implies empty pending set", func(t *testing.T) {
		c := newTestClient(t)
		c.MarkFieldsPending(FieldName)
		c.CompleteSync(FieldName)

		require.Equal(t, SyncStatusSynced, c.SyncStatus)
		assert.True(t, c.PendingFields.IsEmpty())
	})

	t.Run("failure records reason", func(t *testing.T) {
		c := newTestClient(t)
		c.MarkFieldsPending(FieldName)

		c.RetrySync("bridge timeout")
		assert.Equal(t, SyncStatusPending, c.SyncStatus)
		assert.Equal(t, "bridge timeout", c.LastSyncError)

		c.FailSync("bridge timeout")
		assert.Equal(t, SyncStatusFailed, c.SyncStatus)
	})
}

func TestClient_ApplyExternalValue(t *testing.T) {
	t.Run("writes value and clears pending flag", func(t *testing.T) {
		c := newTestClient(t)
		c.MarkFieldsPending(FieldAddress)

		require.NoError(t, c.ApplyExternalValue(FieldAddress, "9 External Rd"))

		assert.Equal(t, "9 External Rd", c.Address)
		assert.False(t, c.PendingFields.Has(FieldAddress))
	})

	t.Run("rejects coordinate writes", func(t *testing.T) {
		c := newTestClient(t)
		assert.Error(t, c.ApplyExternalValue(FieldCoordinates, "1,2"))
	})
}

func TestFoldEmail(t *testing.T) {
	assert.Equal(t, "a@x.com", FoldEmail("  A@X.COM "))
}

func TestPhoneDigits(t *testing.T) {
	assert.Equal(t, "15551234567", PhoneDigits("+1 (555) 123-4567"))
	assert.Equal(t, "", PhoneDigits("ext."))
}
