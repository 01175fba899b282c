// Package rpc exposes the disbursement engine over Connect. Procedures use
// plain JSON messages, so any Connect or plain-HTTP/JSON client can call
// them without generated bindings.
package rpc

import "encoding/json"

// jsonCodec marshals Connect messages with encoding/json. Registering it
// under the "json" name replaces the default protobuf-backed JSON codec, so
// handlers can use ordinary structs as request and response messages.
type jsonCodec struct{}

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Marshal(message any) ([]byte, error) {
	return json.Marshal(message)
}

func (jsonCodec) Unmarshal(data []byte, message any) error {
	return json.Unmarshal(data, message)
}
