// Package rpc defines the Connect procedures served by splitledger, their
// request and response messages, and typed handler and client constructors.
//
// Messages are plain Go structs carried by a JSON codec, so the package has
// the shape of generated Connect code without a protobuf schema.
package rpc

import (
	"encoding/json"
	"fmt"

	"connectrpc.com/connect"
)

// CodecName is the Connect codec name; requests use application/json.
const CodecName = "json"

type jsonCodec struct{}

func (jsonCodec) Name() string { return CodecName }

func (jsonCodec) Marshal(msg any) ([]byte, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("marshal %T: %w", msg, err)
	}
	return data, nil
}

func (jsonCodec) Unmarshal(data []byte, msg any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, msg); err != nil {
		return fmt.Errorf("unmarshal %T: %w", msg, err)
	}
	return nil
}

// WithJSON makes a handler or client speak the plain-struct JSON codec.
func WithJSON() connect.Option {
	return connect.WithCodec(jsonCodec{})
}
