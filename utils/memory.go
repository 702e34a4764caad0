package utils

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"
)

// MemoryTypes holds the property flags of each memory type of a device, indexed
// by memory type index.
type MemoryTypes []core1_0.MemoryPropertyFlags

// Find returns the lowest memory type index that is allowed by typeBits and
// whose properties include every flag in required.
func (t MemoryTypes) Find(typeBits uint32, required core1_0.MemoryPropertyFlags) (int, error) {
	return FindMemoryType(t, typeBits, required)
}

func FindMemoryType(types MemoryTypes, typeBits uint32, required core1_0.MemoryPropertyFlags) (int, error) {
	mask := typeBits
	for index, properties := range types {
		if (mask&1) != 0 && (properties&required) == required {
			return index, nil
		}
		mask >>= 1
	}

	return 0, newError(NoCompatibleMemoryType, "find memory type", 0,
		errors.Newf("no memory type matching type bits %#x with flags %v", typeBits, required))
}
