package rpc

import (
	"github.com/fxamacker/cbor/v2"
)

// CodecName is the gRPC content subtype the provider protocol uses.
const CodecName = "cbor"

// Codec marshals protocol messages with CBOR. It is installed on the server
// with grpc.ForceServerCodec and on each client call with grpc.ForceCodec,
// so neither side needs generated protobuf types.
type Codec struct{}

// Marshal implements grpc encoding.Codec.
func (Codec) Marshal(v any) ([]byte, error) {
	return cbor.Marshal(v)
}

// Unmarshal implements grpc encoding.Codec.
func (Codec) Unmarshal(data []byte, v any) error {
	return cbor.Unmarshal(data, v)
}

// Name implements grpc encoding.Codec.
func (Codec) Name() string { return CodecName }
