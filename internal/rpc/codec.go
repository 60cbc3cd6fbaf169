// Package rpc defines the billed.v1 Connect services: procedure names, message
// types, handler constructors and typed clients. Messages are plain Go structs
// carried by a JSON codec.
package rpc

import (
	"encoding/json"

	"connectrpc.com/connect"
)

// JSONCodec marshals messages with encoding/json. It registers under the
// "json" name so Connect serves and sends application/json.
type JSONCodec struct{}

var _ connect.Codec = JSONCodec{}

func (JSONCodec) Name() string { return "json" }

func (JSONCodec) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

func (JSONCodec) Unmarshal(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}
