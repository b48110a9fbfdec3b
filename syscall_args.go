package camsnap

import "unsafe"

// uint64Args lays out a 64 bit value as stdcall argument words for the
// running target.
func uint64Args(v uint64) []uintptr {
	return splitUint64(v, unsafe.Sizeof(uintptr(0)))
}

// splitUint64 returns v as one word when words are 64 bits wide, otherwise as
// the low word followed by the high word.
func splitUint64(v uint64, wordSize uintptr) []uintptr {
	if wordSize >= 8 {
		return []uintptr{uintptr(v)}
	}
	return []uintptr{uintptr(uint32(v)), uintptr(uint32(v >> 32))}
}
