package export

import "encoding/binary"

// putU16BE writes v big-endian at off. The destination must already be
// sized; these writers never grow the buffer.
func putU16BE(buf []byte, off int, v uint16) {
	binary.BigEndian.PutUint16(buf[off:off+2], v)
}

// putU32BE writes v big-endian at off.
func putU32BE(buf []byte, off int, v uint32) {
	binary.BigEndian.PutUint32(buf[off:off+4], v)
}

// putFixedString copies up to n bytes of s into buf at off, zero-padding
// the remainder. Characters are taken as raw bytes (code points 0-255),
// never re-encoded, so names survive byte-for-byte.
func putFixedString(buf []byte, off, n int, s string) {
	for i := 0; i < n; i++ {
		if i < len(s) {
			buf[off+i] = s[i]
		} else {
			buf[off+i] = 0
		}
	}
}

// pcm16to8 halves sample depth via arithmetic shift and bias. Both
// module encoders route their PCM through here so the lossy step has a
// single definition.
func pcm16to8(pcm []int16) []byte {
	out := make([]byte, len(pcm))
	for i, s := range pcm {
		out[i] = byte((int(s) >> 8) + 128)
	}
	return out
}

// evenLen rounds n up to the next even byte count (IFF pad rule, Amiga
// word alignment).
func evenLen(n int) int {
	return n + (n & 1)
}

// clampByte squeezes an int into 0-255.
func clampByte(v int) byte {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v)
}

// clampU16 squeezes an int into 0-65535.
func clampU16(v int) uint16 {
	if v < 0 {
		return 0
	}
	if v > 0xFFFF {
		return 0xFFFF
	}
	return uint16(v)
}
