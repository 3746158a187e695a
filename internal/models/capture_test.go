package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCapturePayload_WireFormat(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 30, 45, 123000000, time.UTC)
	payload := NewCapturePayload("https://a.example.com/x", at, "<html></html>", []byte{0x89, 'P', 'N', 'G'})

	data, err := json.Marshal(payload)
	require.NoError(t, err)

	var wire map[string]string
	require.NoError(t, json.Unmarshal(data, &wire))
	assert.Len(t, wire, 4)
	assert.Equal(t, "https://a.example.com/x", wire["url"])
	assert.Equal(t, "2024-03-01T12:30:45.123Z", wire["timestamp"])
	assert.Equal(t, "<html></html>", wire["html"])
	assert.Equal(t, "data:image/png;base64,iVBORw==", wire["screenshot"])
}

func TestCapturePayload_PNGFromWire(t *testing.T) {
	original := NewCapturePayload("https://a.example.com/", time.Now(), "", []byte("png-bytes"))
	data, err := json.Marshal(original)
	require.NoError(t, err)

	var decoded CapturePayload
	require.NoError(t, json.Unmarshal(data, &decoded))

	png, err := decoded.PNG()
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), png)
}
