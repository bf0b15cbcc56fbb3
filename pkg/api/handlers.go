package api

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/segmentio/ksuid"

	"github.com/bitrec/bitrec/pkg/codec"
	"github.com/bitrec/bitrec/pkg/registry"
	"github.com/bitrec/bitrec/pkg/schema"
)

// maxDocumentSize caps schema documents and encode/decode bodies.
const maxDocumentSize = 1 << 20

// Server holds the API server state
type Server struct {
	registry SchemaRegistry
	config   ServerConfig
	metrics  *Metrics
}

// NewServer creates a new API server
func NewServer(registry SchemaRegistry, config ServerConfig, metrics *Metrics) *Server {
	return &Server{
		registry: registry,
		config:   config,
		metrics:  metrics,
	}
}

// handleHealth reports service liveness
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.metrics.RecordHealthCheck(true)
	sendSuccess(w, map[string]string{"status": "healthy"})
}

// handleRegisterSchema stores the schema document in the request body and
// returns the compiled layout
func (s *Server) handleRegisterSchema(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	doc, err := io.ReadAll(io.LimitReader(r.Body, maxDocumentSize))
	if err != nil {
		s.metrics.RecordCodecOperation("register", false, time.Since(start))
		sendError(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	id, err := s.registry.Create(doc)
	if err != nil {
		s.metrics.RecordCodecOperation("register", false, time.Since(start))
		sendError(w, fmt.Sprintf("Invalid schema: %v", err), http.StatusBadRequest)
		return
	}

	compiled, _, err := s.registry.Get(id)
	if err != nil {
		s.metrics.RecordCodecOperation("register", false, time.Since(start))
		sendError(w, fmt.Sprintf("Failed to load schema: %v", err), http.StatusInternalServerError)
		return
	}

	s.metrics.RecordCodecOperation("register", true, time.Since(start))
	s.refreshSchemaCount()
	sendSuccess(w, layoutFor(id, compiled))
}

// handleGetSchema returns a registered schema's compiled layout
func (s *Server) handleGetSchema(w http.ResponseWriter, r *http.Request) {
	id, compiled, ok := s.loadSchema(w, r)
	if !ok {
		return
	}
	sendSuccess(w, layoutFor(id, compiled))
}

// handleListSchemas returns the IDs of all registered schemas
func (s *Server) handleListSchemas(w http.ResponseWriter, r *http.Request) {
	ids, err := s.registry.List()
	if err != nil {
		sendError(w, fmt.Sprintf("Failed to list schemas: %v", err), http.StatusInternalServerError)
		return
	}

	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	s.metrics.UpdateSchemaCount(len(out))
	sendSuccess(w, map[string][]string{"ids": out})
}

// handleDeleteSchema removes a registered schema
func (s *Server) handleDeleteSchema(w http.ResponseWriter, r *http.Request) {
	id, _, ok := s.loadSchema(w, r)
	if !ok {
		return
	}
	if err := s.registry.Delete(id); err != nil {
		sendError(w, fmt.Sprintf("Failed to delete schema: %v", err), http.StatusInternalServerError)
		return
	}
	s.refreshSchemaCount()
	sendSuccess(w, map[string]string{"id": id.String(), "status": "deleted"})
}

// handleEncode packs the supplied field values into one record
func (s *Server) handleEncode(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	_, compiled, ok := s.loadSchema(w, r)
	if !ok {
		s.metrics.RecordCodecOperation("encode", false, time.Since(start))
		return
	}

	var req EncodeRequest
	if err := decodeJSONBody(r, &req); err != nil {
		s.metrics.RecordCodecOperation("encode", false, time.Since(start))
		sendError(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	rec := codec.NewRecord(compiled)
	for name, raw := range req.Values {
		if err := setField(rec, name, raw); err != nil {
			s.metrics.RecordCodecOperation("encode", false, time.Since(start))
			sendError(w, fmt.Sprintf("Field %q: %v", name, err), http.StatusBadRequest)
			return
		}
	}

	s.metrics.RecordCodecOperation("encode", true, time.Since(start))
	sendSuccess(w, EncodeResponse{
		Data: hex.EncodeToString(rec.Bytes()),
		Size: rec.Size(),
	})
}

// handleDecode unpacks a hex record into named field values
func (s *Server) handleDecode(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	_, compiled, ok := s.loadSchema(w, r)
	if !ok {
		s.metrics.RecordCodecOperation("decode", false, time.Since(start))
		return
	}

	var req DecodeRequest
	if err := decodeJSONBody(r, &req); err != nil {
		s.metrics.RecordCodecOperation("decode", false, time.Since(start))
		sendError(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	data, err := hex.DecodeString(req.Data)
	if err != nil {
		s.metrics.RecordCodecOperation("decode", false, time.Since(start))
		sendError(w, fmt.Sprintf("Invalid hex data: %v", err), http.StatusBadRequest)
		return
	}

	rec := codec.NewRecord(compiled)
	if err := rec.Load(data); err != nil {
		s.metrics.RecordCodecOperation("decode", false, time.Since(start))
		sendError(w, fmt.Sprintf("Invalid record: %v", err), http.StatusBadRequest)
		return
	}

	values := make(map[string]interface{}, compiled.NumFields())
	for _, f := range compiled.Fields() {
		v, err := getField(rec, f)
		if err != nil {
			s.metrics.RecordCodecOperation("decode", false, time.Since(start))
			sendError(w, fmt.Sprintf("Field %q: %v", f.Name, err), http.StatusInternalServerError)
			return
		}
		values[f.Name] = v
	}

	s.metrics.RecordCodecOperation("decode", true, time.Since(start))
	sendSuccess(w, DecodeResponse{Values: values})
}

// loadSchema resolves the {id} URL parameter into a compiled schema,
// writing the error response itself when it fails
func (s *Server) loadSchema(w http.ResponseWriter, r *http.Request) (ksuid.KSUID, *schema.Schema, bool) {
	raw := chi.URLParam(r, "id")
	id, err := ksuid.Parse(raw)
	if err != nil {
		sendError(w, fmt.Sprintf("Invalid schema id %q", raw), http.StatusBadRequest)
		return ksuid.Nil, nil, false
	}

	compiled, _, err := s.registry.Get(id)
	if err != nil {
		status := http.StatusInternalServerError
		if isNotFound(err) {
			status = http.StatusNotFound
		}
		sendError(w, fmt.Sprintf("Schema %s: %v", id, err), status)
		return ksuid.Nil, nil, false
	}
	return id, compiled, true
}

// refreshSchemaCount best-effort updates the registry size gauge
func (s *Server) refreshSchemaCount() {
	if ids, err := s.registry.List(); err == nil {
		s.metrics.UpdateSchemaCount(len(ids))
	}
}

// isNotFound reports whether err means the schema id has no document
func isNotFound(err error) bool {
	return errors.Is(err, registry.ErrSchemaNotFound)
}

// decodeJSONBody strictly decodes a JSON request body into dst
func decodeJSONBody(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxDocumentSize))
	dec.DisallowUnknownFields()
	dec.UseNumber()
	return dec.Decode(dst)
}

// setField stores one request value into the record, choosing the accessor
// by the field's kind: base64 bytes for blobs, integers for everything else
func setField(rec *codec.Record, name string, value interface{}) error {
	f, ok := rec.Schema().Field(name)
	if !ok {
		return codec.ErrFieldNotFound
	}

	if f.Kind == schema.Blob {
		str, ok := value.(string)
		if !ok {
			return fmt.Errorf("blob value must be a base64 string: %w", codec.ErrTypeMismatch)
		}
		data, err := base64.StdEncoding.DecodeString(str)
		if err != nil {
			return fmt.Errorf("invalid base64: %w", err)
		}
		return rec.SetBytes(name, data)
	}

	v, err := parseScalar(value)
	if err != nil {
		return err
	}
	return rec.SetUint(name, v)
}

// parseScalar accepts a JSON number or a string in any base strconv
// understands ("26", "0x1a", "0b11010")
func parseScalar(value interface{}) (uint64, error) {
	switch v := value.(type) {
	case json.Number:
		if u, err := strconv.ParseUint(v.String(), 10, 64); err == nil {
			return u, nil
		}
		i, err := strconv.ParseInt(v.String(), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("not an integer: %s", v)
		}
		return uint64(i), nil
	case string:
		if u, err := strconv.ParseUint(v, 0, 64); err == nil {
			return u, nil
		}
		i, err := strconv.ParseInt(v, 0, 64)
		if err != nil {
			return 0, fmt.Errorf("not an integer: %q", v)
		}
		return uint64(i), nil
	default:
		return 0, fmt.Errorf("integer value must be a number or string, got %T", value)
	}
}

// getField extracts one field for a decode response
func getField(rec *codec.Record, f schema.Field) (interface{}, error) {
	switch f.Kind {
	case schema.Blob:
		data, err := rec.GetBytes(f.Name)
		if err != nil {
			return nil, err
		}
		return base64.StdEncoding.EncodeToString(data), nil
	case schema.FixedI32:
		return rec.GetInt(f.Name)
	default:
		return rec.GetUint(f.Name)
	}
}
