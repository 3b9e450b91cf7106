package main

import (
	"context"
	"hash/crc32"
	"hash/fnv"
	"math/rand/v2"
	"slices"
	"sort"

	"github.com/cespare/xxhash/v2"
	"github.com/hyp3rd/ewrap"

	"github.com/hyp3rd/hyperbench"
	"github.com/hyp3rd/hyperbench/internal/libs/serializer"
	"github.com/hyp3rd/hyperbench/pkg/juxta"
	"github.com/hyp3rd/hyperbench/pkg/timer"
)

// suite registers a family of competing implementations with a session.
type suite func(s *hyperbench.Session, rng *rand.Rand, size int) error

var suites = map[string]suite{
	"sort":   sortSuite,
	"hash":   hashSuite,
	"encode": encodeSuite,
}

func suiteNames() []string {
	return sortedKeys(suites)
}

// register adds a test whose input is rebuilt, untimed, before every run.
func register(s *hyperbench.Session, name string, init, timed juxta.Action) error {
	return s.AddTest(name, &juxta.InitTimedCleanup{
		Timer: timer.NewNanoWrap2Sec(),
		Init:  init,
		Timed: timed,
	})
}

func sortSuite(s *hyperbench.Session, rng *rand.Rand, size int) error {
	source := make([]int, size)
	for i := range source {
		source[i] = rng.IntN(size * 4)
	}

	variants := map[string]func([]int){
		"slices.Sort": func(values []int) { slices.Sort(values) },
		"sort.Ints":   sort.Ints,
		"insertion": func(values []int) {
			for i := 1; i < len(values); i++ {
				for j := i; j > 0 && values[j] < values[j-1]; j-- {
					values[j], values[j-1] = values[j-1], values[j]
				}
			}
		},
	}

	for _, name := range sortedKeys(variants) {
		sortFn := variants[name]
		work := make([]int, size)

		err := register(s, name,
			func(context.Context) error {
				copy(work, source)

				return nil
			},
			func(context.Context) error {
				sortFn(work)

				if !slices.IsSorted(work) {
					return ewrap.New(name + " left the input unsorted")
				}

				return nil
			},
		)
		if err != nil {
			return err
		}
	}

	return nil
}

// hashSink keeps the hash results observable.
var hashSink uint64

func hashSuite(s *hyperbench.Session, rng *rand.Rand, size int) error {
	payload := make([]byte, size*64)
	for i := range payload {
		payload[i] = byte(rng.UintN(256))
	}

	variants := map[string]func([]byte) uint64{
		"xxhash": xxhash.Sum64,
		"fnv64a": func(data []byte) uint64 {
			h := fnv.New64a()
			_, _ = h.Write(data)

			return h.Sum64()
		},
		"crc32": func(data []byte) uint64 {
			return uint64(crc32.ChecksumIEEE(data))
		},
	}

	for _, name := range sortedKeys(variants) {
		hashFn := variants[name]

		err := register(s, name, nil, func(context.Context) error {
			hashSink ^= hashFn(payload)

			return nil
		})
		if err != nil {
			return err
		}
	}

	return nil
}

// record is the value encoded by the encode suite.
type record struct {
	ID     int64     `codec:"id"     json:"id"     msgpack:"id"`
	Name   string    `codec:"name"   json:"name"   msgpack:"name"`
	Values []float64 `codec:"values" json:"values" msgpack:"values"`
}

func encodeSuite(s *hyperbench.Session, rng *rand.Rand, size int) error {
	records := make([]record, size)
	for i := range records {
		records[i] = record{ID: rng.Int64(), Name: "record", Values: []float64{rng.Float64(), rng.Float64()}}
	}

	registry := serializer.NewSerializerRegistry()

	for _, format := range registry.Names() {
		ser, err := registry.New(format)
		if err != nil {
			return err
		}

		err = register(s, format, nil, func(context.Context) error {
			data, err := ser.Marshal(records)
			if err != nil {
				return err
			}

			var decoded []record

			return ser.Unmarshal(data, &decoded)
		})
		if err != nil {
			return err
		}
	}

	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	slices.Sort(keys)

	return keys
}
