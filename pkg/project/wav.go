package project

import (
	"encoding/binary"
	"fmt"
)

// parseWAV extracts mono 16-bit PCM from a RIFF/WAVE file. Multi-channel
// input is mixed down by averaging each frame. Only uncompressed 16-bit
// PCM is accepted; anything else is a malformed-input error, not a
// degradation case.
func parseWAV(data []byte) ([]int16, error) {
	if len(data) < 12 {
		return nil, fmt.Errorf("WAV too short to contain a RIFF header (%d bytes)", len(data))
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, fmt.Errorf("not a RIFF/WAVE file")
	}

	var (
		haveFmt  bool
		format   uint16
		channels uint16
		bits     uint16
		pcm      []byte
	)
	off := 12
	for off+8 <= len(data) {
		id := string(data[off : off+4])
		size := int(binary.LittleEndian.Uint32(data[off+4 : off+8]))
		body := off + 8
		if size < 0 || body+size > len(data) {
			return nil, fmt.Errorf("chunk %q declares %d bytes past file end", id, size)
		}
		switch id {
		case "fmt ":
			if size < 16 {
				return nil, fmt.Errorf("fmt chunk too short (%d bytes)", size)
			}
			format = binary.LittleEndian.Uint16(data[body : body+2])
			channels = binary.LittleEndian.Uint16(data[body+2 : body+4])
			bits = binary.LittleEndian.Uint16(data[body+14 : body+16])
			haveFmt = true
		case "data":
			pcm = data[body : body+size]
		}
		// RIFF chunks are word-aligned.
		off = body + size + (size & 1)
	}

	if !haveFmt {
		return nil, fmt.Errorf("no fmt chunk")
	}
	if pcm == nil {
		return nil, fmt.Errorf("no data chunk")
	}
	if format != 1 {
		return nil, fmt.Errorf("unsupported WAV format %d, want PCM", format)
	}
	if bits != 16 {
		return nil, fmt.Errorf("unsupported sample width %d bits, want 16", bits)
	}
	if channels < 1 {
		return nil, fmt.Errorf("fmt chunk declares zero channels")
	}

	frameBytes := int(channels) * 2
	frames := len(pcm) / frameBytes
	out := make([]int16, frames)
	for i := 0; i < frames; i++ {
		sum := 0
		for ch := 0; ch < int(channels); ch++ {
			s := int16(binary.LittleEndian.Uint16(pcm[i*frameBytes+ch*2:]))
			sum += int(s)
		}
		out[i] = int16(sum / int(channels))
	}
	return out, nil
}
