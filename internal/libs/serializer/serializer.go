// Package serializer encodes benchmark reports for transport to a terminal, a file
// or the management HTTP server. Encoders are looked up by format name through a
// Registry so the CLI and the server accept the same format flags.
package serializer

import (
	"slices"

	"github.com/hyp3rd/ewrap"

	"github.com/hyp3rd/hyperbench/internal/sentinel"
)

// ISerializer is the interface that wraps the basic serializer methods.
type ISerializer interface {
	// Marshal serializes the given value into a byte slice.
	Marshal(v any) ([]byte, error)
	// Unmarshal deserializes the given byte slice into the given value.
	Unmarshal(data []byte, v any) error
	// ContentType is the MIME type of the encoded bytes.
	ContentType() string
}

// Registry manages serializer constructors keyed by format name.
type Registry struct {
	serializers map[string]func() ISerializer
}

func defaultSerializers() map[string]func() ISerializer {
	return map[string]func() ISerializer{
		"json":    func() ISerializer { return &JSONSerializer{} },
		"msgpack": func() ISerializer { return &MsgpackSerializer{} },
		"cbor":    func() ISerializer { return &CBORSerializer{} },
	}
}

// NewSerializerRegistry creates a registry with the json, msgpack and cbor formats.
func NewSerializerRegistry() *Registry {
	registry := NewEmptySerializerRegistry()
	for name, createFunc := range defaultSerializers() {
		registry.Register(name, createFunc)
	}

	return registry
}

// NewEmptySerializerRegistry creates a new serializer registry without default serializers.
func NewEmptySerializerRegistry() *Registry {
	return &Registry{
		serializers: make(map[string]func() ISerializer),
	}
}

// Register registers a new serializer under the given format name.
func (r *Registry) Register(format string, createFunc func() ISerializer) {
	r.serializers[format] = createFunc
}

// Names returns the registered format names in lexical order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.serializers))
	for name := range r.serializers {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}

// New returns a serializer for the given format.
func (r *Registry) New(format string) (ISerializer, error) {
	if format == "" {
		return nil, ewrap.Wrap(sentinel.ErrParamCannotBeEmpty, "format")
	}

	createFunc, ok := r.serializers[format]
	if !ok {
		return nil, ewrap.Wrap(sentinel.ErrSerializerNotFound, format)
	}

	return createFunc(), nil
}

// New returns a serializer for the given format from the default registry.
func New(format string) (ISerializer, error) {
	return NewSerializerRegistry().New(format)
}
