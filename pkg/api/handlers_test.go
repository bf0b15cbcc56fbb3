package api

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitrec/bitrec/pkg/registry"
)

var headerDoc = `[
	{"name": "version", "bitLength": 8},
	{"name": "magic", "bitLength": 56},
	{"name": "length", "bitLength": 32},
	{"name": "header_length", "bitLength": 16},
	{"name": "type", "bitLength": 16}
]`

func setupTestServer(t *testing.T) *Server {
	t.Helper()

	reg, err := registry.Open(filepath.Join(t.TempDir(), "registry"))
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, reg.Close())
	})

	metrics := NewMetrics(prometheus.NewRegistry())
	return NewServer(reg, ServerConfig{}, metrics)
}

// doRequest routes a request through the full router and decodes the
// standard response envelope.
func doRequest(t *testing.T, server *Server, method, path string, body []byte) (*httptest.ResponseRecorder, APIResponse) {
	t.Helper()

	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	w := httptest.NewRecorder()
	server.Routes().ServeHTTP(w, req)

	var response APIResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	return w, response
}

// registerHeaderSchema registers the test schema and returns its id.
func registerHeaderSchema(t *testing.T, server *Server) string {
	t.Helper()

	w, response := doRequest(t, server, "POST", "/api/v1/schemas", []byte(headerDoc))
	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, response.Success)

	data, ok := response.Data.(map[string]interface{})
	require.True(t, ok)
	id, ok := data["id"].(string)
	require.True(t, ok)
	return id
}

func TestServer_handleHealth(t *testing.T) {
	server := setupTestServer(t)

	w, response := doRequest(t, server, "GET", "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, response.Success)
}

func TestServer_RegisterSchema(t *testing.T) {
	server := setupTestServer(t)

	w, response := doRequest(t, server, "POST", "/api/v1/schemas", []byte(headerDoc))
	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, response.Success)

	data := response.Data.(map[string]interface{})
	assert.Equal(t, float64(128), data["total_bits"])
	assert.Equal(t, float64(16), data["total_bytes"])
	assert.Len(t, data["fields"], 5)
}

func TestServer_RegisterSchema_Invalid(t *testing.T) {
	server := setupTestServer(t)

	testCases := []struct {
		name string
		doc  string
	}{
		{"bad bit width", `[{"name": "a", "bitLength": 70}]`},
		{"duplicate field", `[{"name": "a", "bitLength": 4}, {"name": "a", "bitLength": 4}]`},
		{"not json", `this is not a schema`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w, response := doRequest(t, server, "POST", "/api/v1/schemas", []byte(tc.doc))
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.False(t, response.Success)
			assert.NotEmpty(t, response.Error)
		})
	}
}

func TestServer_GetSchema(t *testing.T) {
	server := setupTestServer(t)
	id := registerHeaderSchema(t, server)

	w, response := doRequest(t, server, "GET", "/api/v1/schemas/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, response.Success)

	data := response.Data.(map[string]interface{})
	assert.Equal(t, id, data["id"])
	assert.Equal(t, float64(16), data["total_bytes"])
}

func TestServer_GetSchema_NotFound(t *testing.T) {
	server := setupTestServer(t)
	registerHeaderSchema(t, server)

	// Well-formed but unknown id.
	w, response := doRequest(t, server, "GET", "/api/v1/schemas/0ujsswThIGTUYm2K8FjOOfXtY1K", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.False(t, response.Success)

	// Malformed id.
	w, response = doRequest(t, server, "GET", "/api/v1/schemas/not-a-ksuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, response.Success)
}

func TestServer_DeleteSchema(t *testing.T) {
	server := setupTestServer(t)
	id := registerHeaderSchema(t, server)

	w, response := doRequest(t, server, "DELETE", "/api/v1/schemas/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, response.Success)

	w, _ = doRequest(t, server, "GET", "/api/v1/schemas/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_ListSchemas(t *testing.T) {
	server := setupTestServer(t)
	first := registerHeaderSchema(t, server)
	second := registerHeaderSchema(t, server)

	w, response := doRequest(t, server, "GET", "/api/v1/schemas", nil)
	require.Equal(t, http.StatusOK, w.Code)

	data := response.Data.(map[string]interface{})
	ids := data["ids"].([]interface{})
	assert.Len(t, ids, 2)
	assert.Contains(t, ids, first)
	assert.Contains(t, ids, second)
}

func TestServer_EncodeDecodeRoundTrip(t *testing.T) {
	server := setupTestServer(t)
	id := registerHeaderSchema(t, server)

	encodeBody := []byte(`{"values": {
		"version": 1,
		"magic": "0x123456789abcde",
		"length": 4951,
		"header_length": "0x48",
		"type": "0xab"
	}}`)

	w, response := doRequest(t, server, "POST", fmt.Sprintf("/api/v1/schemas/%s/encode", id), encodeBody)
	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, response.Success)

	encoded := response.Data.(map[string]interface{})
	assert.Equal(t, float64(16), encoded["size"])

	packed := encoded["data"].(string)
	raw, err := hex.DecodeString(packed)
	require.NoError(t, err)
	require.Len(t, raw, 16)
	assert.Equal(t, byte(0x01), raw[0])
	assert.Equal(t, byte(0xde), raw[1])

	decodeBody, err := json.Marshal(DecodeRequest{Data: packed})
	require.NoError(t, err)

	w, response = doRequest(t, server, "POST", fmt.Sprintf("/api/v1/schemas/%s/decode", id), decodeBody)
	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, response.Success)

	values := response.Data.(map[string]interface{})["values"].(map[string]interface{})
	assert.Equal(t, float64(1), values["version"])
	assert.Equal(t, float64(0x1357), values["length"])
	assert.Equal(t, float64(0x48), values["header_length"])
	assert.Equal(t, float64(0xab), values["type"])
	assert.Equal(t, float64(0x123456789abcde), values["magic"])
}

func TestServer_Encode_Errors(t *testing.T) {
	server := setupTestServer(t)
	id := registerHeaderSchema(t, server)

	testCases := []struct {
		name string
		body string
	}{
		{"unknown field", `{"values": {"missing": 1}}`},
		{"non-integer value", `{"values": {"version": "abc"}}`},
		{"malformed body", `{"values": `},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w, response := doRequest(t, server, "POST", fmt.Sprintf("/api/v1/schemas/%s/encode", id), []byte(tc.body))
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.False(t, response.Success)
		})
	}
}

func TestServer_Decode_Truncated(t *testing.T) {
	server := setupTestServer(t)
	id := registerHeaderSchema(t, server)

	body := []byte(`{"data": "0102"}`)
	w, response := doRequest(t, server, "POST", fmt.Sprintf("/api/v1/schemas/%s/decode", id), body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, response.Success)
	assert.Contains(t, response.Error, "shorter")
}

func TestServer_BlobValues(t *testing.T) {
	server := setupTestServer(t)

	doc := `[
		{"name": "tag", "bitLength": 8},
		{"name": "payload", "type": "blob", "size": 4}
	]`
	w, response := doRequest(t, server, "POST", "/api/v1/schemas", []byte(doc))
	require.Equal(t, http.StatusOK, w.Code)
	id := response.Data.(map[string]interface{})["id"].(string)

	// "AQI=" is []byte{1, 2}; the blob zero-pads to 4 bytes.
	encodeBody := []byte(`{"values": {"tag": 7, "payload": "AQI="}}`)
	w, response = doRequest(t, server, "POST", fmt.Sprintf("/api/v1/schemas/%s/encode", id), encodeBody)
	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, response.Success)

	packed := response.Data.(map[string]interface{})["data"].(string)
	assert.Equal(t, "0701020000", packed)

	decodeBody := []byte(fmt.Sprintf(`{"data": %q}`, packed))
	w, response = doRequest(t, server, "POST", fmt.Sprintf("/api/v1/schemas/%s/decode", id), decodeBody)
	require.Equal(t, http.StatusOK, w.Code)

	values := response.Data.(map[string]interface{})["values"].(map[string]interface{})
	assert.Equal(t, "AQIAAA==", values["payload"])
}
