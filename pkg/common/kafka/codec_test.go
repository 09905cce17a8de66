package kafka

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeEventRoundTripsThroughDecode(t *testing.T) {
	message, event, err := encodeEvent("patient_sync", "sync-api", map[string]interface{}{
		"patients": []interface{}{map[string]interface{}{"id": "abc"}},
	})
	require.NoError(t, err)

	assert.Equal(t, event.ID, string(message.Key))
	assert.Equal(t, "event-type", message.Headers[0].Key)

	decoded, err := DecodeEvent(message.Value)
	require.NoError(t, err)
	assert.Equal(t, "patient_sync", decoded.Type)

	var patients []struct {
		ID string `json:"id"`
	}
	require.NoError(t, DecodeData(decoded, "patients", &patients))
	require.Len(t, patients, 1)
	assert.Equal(t, "abc", patients[0].ID)
}

func TestDecodeEventRejectsUntypedEvents(t *testing.T) {
	_, err := DecodeEvent([]byte(`{"id":"1"}`))
	assert.Error(t, err)
}

func TestDecodeDataRequiresKey(t *testing.T) {
	_, event, err := encodeEvent("protocol_sync", "sync-api", map[string]interface{}{})
	require.NoError(t, err)

	var target []interface{}
	assert.EqualError(t, DecodeData(event, "protocols", &target), "protocols payload missing")
}
