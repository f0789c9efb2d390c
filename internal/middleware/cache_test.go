package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCaptureWriterWithinLimit(t *testing.T) {
	rec := httptest.NewRecorder()
	cw := &captureWriter{ResponseWriter: rec, status: http.StatusOK, limit: 16}

	n, err := cw.Write([]byte("small body"))
	require.NoError(t, err)
	assert.Equal(t, 10, n)
	assert.False(t, cw.truncated())
	assert.Equal(t, "small body", cw.buf.String())
	assert.Equal(t, "small body", rec.Body.String(), "client sees the full body")
}

func TestCaptureWriterOverLimitNotCacheable(t *testing.T) {
	rec := httptest.NewRecorder()
	cw := &captureWriter{ResponseWriter: rec, status: http.StatusOK, limit: 8}

	_, err := cw.Write([]byte("01234567"))
	require.NoError(t, err)
	_, err = cw.Write([]byte("89abcdef"))
	require.NoError(t, err)

	// The buffer holds only a prefix, so the response must be marked
	// uncacheable while the client still receives every byte.
	assert.True(t, cw.truncated())
	assert.Equal(t, "01234567", cw.buf.String())
	assert.Equal(t, "0123456789abcdef", rec.Body.String())
}

func TestCaptureWriterUnlimited(t *testing.T) {
	rec := httptest.NewRecorder()
	cw := &captureWriter{ResponseWriter: rec, status: http.StatusOK}

	_, err := cw.Write([]byte("anything goes"))
	require.NoError(t, err)
	assert.False(t, cw.truncated())
	assert.Equal(t, "anything goes", cw.buf.String())
}

func TestPayloadRoundTrip(t *testing.T) {
	hdr := http.Header{"Content-Type": {"application/json"}}
	payload, err := encodePayload(http.StatusOK, hdr, []byte(`{"items":[]}`))
	require.NoError(t, err)

	status, gotHdr, body, ok := decodePayload(payload)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "application/json", gotHdr.Get("Content-Type"))
	assert.Equal(t, `{"items":[]}`, string(body))
}

func TestDecodePayloadRejectsShortInput(t *testing.T) {
	_, _, _, ok := decodePayload([]byte{1, 2, 3})
	assert.False(t, ok)
}
