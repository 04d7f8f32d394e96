package abi

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPackPtrLen(t *testing.T) {
	tests := []struct {
		name   string
		ptr    uint32
		length uint32
		want   uint64
	}{
		{"typical values", 0x12345678, 0xABCDEF00, (uint64(0x12345678) << PtrHighBits) | uint64(0xABCDEF00)},
		{"zero pointer zero length", 0, 0, 0},
		{"max pointer", 0xFFFFFFFF, 1, (uint64(0xFFFFFFFF) << PtrHighBits) | 1},
		{"pointer without length", 0x10, 0, uint64(0x10) << PtrHighBits},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			packed := PackPtrLen(tt.ptr, tt.length)
			assert.Equal(t, tt.want, packed)

			gotPtr, gotLen := UnpackPtrLen(packed)
			assert.Equal(t, tt.ptr, gotPtr)
			assert.Equal(t, tt.length, gotLen)
		})
	}
}

func TestPackPtrLen_PanicsOnNullPointerWithLength(t *testing.T) {
	assert.Panics(t, func() { PackPtrLen(0, 100) })
}

func TestUnpackPtrLen_PanicsOnInvalidPacked(t *testing.T) {
	assert.Panics(t, func() { UnpackPtrLen(uint64(1)) })
}
