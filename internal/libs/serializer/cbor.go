package serializer

import (
	"github.com/hyp3rd/ewrap"
	"github.com/ugorji/go/codec"
)

// CBORSerializer encodes reports with the ugorji CBOR handle.
type CBORSerializer struct{}

// Marshal serializes the given value into CBOR.
func (*CBORSerializer) Marshal(v any) ([]byte, error) {
	var buf []byte

	err := codec.NewEncoderBytes(&buf, &codec.CborHandle{}).Encode(v)
	if err != nil {
		return nil, ewrap.Wrap(err, "failed to marshal cbor")
	}

	return buf, nil
}

// Unmarshal deserializes CBOR into v, which must be a pointer.
func (*CBORSerializer) Unmarshal(data []byte, v any) error {
	err := codec.NewDecoderBytes(data, &codec.CborHandle{}).Decode(v)
	if err != nil {
		return ewrap.Wrap(err, "failed to unmarshal cbor")
	}

	return nil
}

// ContentType implements ISerializer.
func (*CBORSerializer) ContentType() string { return "application/cbor" }
