package api

import (
	"github.com/segmentio/ksuid"

	"github.com/bitrec/bitrec/pkg/schema"
)

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ServerConfig holds configuration for the API server
type ServerConfig struct {
	Port   int
	Bind   string
	APIKey string // empty disables authentication
}

// SchemaRegistry defines the schema storage operations the server needs
type SchemaRegistry interface {
	Create(doc []byte) (ksuid.KSUID, error)
	Get(id ksuid.KSUID) (*schema.Schema, []byte, error)
	Delete(id ksuid.KSUID) error
	List() ([]ksuid.KSUID, error)
}

// FieldLayout is one compiled field in a schema response
type FieldLayout struct {
	Name       string `json:"name"`
	Kind       string `json:"kind"`
	BitWidth   int    `json:"bit_width"`
	ByteSize   int    `json:"byte_size"`
	BitOffset  int    `json:"bit_offset"`
	ByteOffset int    `json:"byte_offset"`
}

// SchemaResponse describes a registered schema's compiled layout
type SchemaResponse struct {
	ID         string        `json:"id"`
	TotalBits  int           `json:"total_bits"`
	TotalBytes int           `json:"total_bytes"`
	Fields     []FieldLayout `json:"fields"`
}

// EncodeRequest carries named field values to pack into one record.
// Integer fields take JSON numbers or strings ("0x1f" works); blob fields
// take base64 strings.
type EncodeRequest struct {
	Values map[string]interface{} `json:"values"`
}

// EncodeResponse carries one packed record as hex
type EncodeResponse struct {
	Data string `json:"data"`
	Size int    `json:"size"`
}

// DecodeRequest carries one packed record as hex
type DecodeRequest struct {
	Data string `json:"data"`
}

// DecodeResponse carries every field's decoded value: integers for scalar
// fields (signed for int32), base64 strings for blobs
type DecodeResponse struct {
	Values map[string]interface{} `json:"values"`
}

// layoutFor flattens a compiled schema into a SchemaResponse
func layoutFor(id ksuid.KSUID, s *schema.Schema) SchemaResponse {
	fields := make([]FieldLayout, 0, s.NumFields())
	for _, f := range s.Fields() {
		fields = append(fields, FieldLayout{
			Name:       f.Name,
			Kind:       f.Kind.String(),
			BitWidth:   f.BitWidth,
			ByteSize:   f.ByteSize,
			BitOffset:  f.BitOffset,
			ByteOffset: f.ByteOffset,
		})
	}
	return SchemaResponse{
		ID:         id.String(),
		TotalBits:  s.TotalBits(),
		TotalBytes: s.TotalBytes(),
		Fields:     fields,
	}
}
