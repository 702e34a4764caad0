package utils

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/core/v3/core1_0"
)

func TestFindMemoryType(t *testing.T) {
	hostVisible := core1_0.MemoryPropertyHostVisible | core1_0.MemoryPropertyHostCoherent
	types := MemoryTypes{
		core1_0.MemoryPropertyDeviceLocal,
		hostVisible,
		hostVisible | core1_0.MemoryPropertyHostCached,
		core1_0.MemoryPropertyDeviceLocal | hostVisible,
	}

	testCases := []struct {
		name     string
		typeBits uint32
		required core1_0.MemoryPropertyFlags
		index    int
	}{
		{"first allowed superset", 0b0110, core1_0.MemoryPropertyHostVisible, 1},
		{"skips disallowed match", 0b1100, hostVisible, 2},
		{"no required flags", 0b1000, 0, 3},
		{"device local", 0b1111, core1_0.MemoryPropertyDeviceLocal, 0},
		{"combined flags", 0b1111, core1_0.MemoryPropertyDeviceLocal | core1_0.MemoryPropertyHostVisible, 3},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			index, err := FindMemoryType(types, tc.typeBits, tc.required)
			require.NoError(t, err)
			assert.Equal(t, tc.index, index)

			index, err = types.Find(tc.typeBits, tc.required)
			require.NoError(t, err)
			assert.Equal(t, tc.index, index)
		})
	}
}

func TestFindMemoryType_NoMatch(t *testing.T) {
	types := MemoryTypes{
		core1_0.MemoryPropertyDeviceLocal,
		core1_0.MemoryPropertyHostVisible,
	}

	testCases := []struct {
		name     string
		typeBits uint32
		required core1_0.MemoryPropertyFlags
	}{
		{"empty mask", 0, 0},
		{"flags missing", 0b11, core1_0.MemoryPropertyLazilyAllocated},
		{"mask past table", 0b100, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := FindMemoryType(types, tc.typeBits, tc.required)
			assert.True(t, errors.Is(err, ErrNoCompatibleMemoryType))
		})
	}
}
