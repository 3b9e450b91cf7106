package serializer

import (
	"errors"
	"testing"

	"github.com/longbridgeapp/assert"

	"github.com/hyp3rd/hyperbench/internal/sentinel"
)

type sample struct {
	Name  string  `json:"name"  codec:"name"  msgpack:"name"`
	Total float64 `json:"total" codec:"total" msgpack:"total"`
}

func TestRegistry_Names(t *testing.T) {
	assert.Equal(t, []string{"cbor", "json", "msgpack"}, NewSerializerRegistry().Names())
}

func TestRegistry_Errors(t *testing.T) {
	_, err := New("")
	assert.True(t, errors.Is(err, sentinel.ErrParamCannotBeEmpty))

	_, err = New("xml")
	assert.True(t, errors.Is(err, sentinel.ErrSerializerNotFound))
}

func TestSerializers_Decode(t *testing.T) {
	for _, format := range NewSerializerRegistry().Names() {
		t.Run(format, func(t *testing.T) {
			s, err := New(format)
			assert.Nil(t, err)

			data, err := s.Marshal(sample{Name: "A", Total: 1.5})
			assert.Nil(t, err)
			assert.True(t, len(data) > 0)

			var out sample

			err = s.Unmarshal(data, &out)
			assert.Nil(t, err)
			assert.Equal(t, "A", out.Name)
			assert.Equal(t, 1.5, out.Total)
		})
	}
}
