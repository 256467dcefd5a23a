package export

import (
	"math"
	"sort"
)

// GYM register-log command bytes. Frame waits occupy the rest of the
// opcode space: 0x03 alone waits one frame, 0x03+n waits n frames, so a
// single command tops out at 252 frames.
const (
	gymOpFMPort0 = 0x00 // reg, data follow
	gymOpFMPort1 = 0x01 // reg, data follow
	gymOpPSG     = 0x02 // data follows
	gymOpWait    = 0x03

	gymMaxWait = 252

	// gymFMPortSplit is the first FM port number routed to port 1.
	gymFMPortSplit = 256
)

// GYMFrameRate is the format's fixed NTSC frame clock in Hz. The format
// assumes it regardless of the capture's real timing.
const GYMFrameRate = 60

// DefaultSampleRate is the capture clock assumed when the caller does
// not know the trace's sample rate.
const DefaultSampleRate = 44100

// CanEncodeGYM reports whether the trace holds at least one write for a
// chip the GYM stream can carry.
func CanEncodeGYM(trace []RegisterWrite) bool {
	for _, w := range trace {
		if w.Chip == ChipFM || w.Chip == ChipPSG {
			return true
		}
	}
	return false
}

// EncodeGYM renders a register-write trace as a headerless GYM command
// stream. Writes are frame-quantized against sampleRate (the capture
// clock; <= 0 selects DefaultSampleRate) at the fixed 60 Hz frame rate.
// Unsupported chips are filtered out; a trace with none left encodes to
// an empty stream. The input slice is never reordered or mutated.
func EncodeGYM(trace []RegisterWrite, sampleRate float64) []byte {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	samplesPerFrame := sampleRate / GYMFrameRate

	writes := make([]RegisterWrite, 0, len(trace))
	for _, w := range trace {
		if w.Chip == ChipFM || w.Chip == ChipPSG {
			writes = append(writes, w)
		}
	}
	// Ties keep capture order: register writes within one frame are
	// order-sensitive on real hardware.
	sort.SliceStable(writes, func(i, j int) bool {
		return writes[i].Timestamp < writes[j].Timestamp
	})

	out := make([]byte, 0, len(writes)*3)
	lastTimestamp := 0.0
	for _, w := range writes {
		frames := int(math.Round((w.Timestamp - lastTimestamp) / samplesPerFrame))
		out = appendGYMWait(out, frames)
		lastTimestamp = w.Timestamp

		switch w.Chip {
		case ChipFM:
			op := byte(gymOpFMPort0)
			if w.Port >= gymFMPortSplit {
				op = gymOpFMPort1
			}
			out = append(out, op, byte(w.Port&0xFF), w.Data)
		case ChipPSG:
			out = append(out, gymOpPSG, w.Data)
		}
	}
	return out
}

// appendGYMWait emits wait commands covering frames, splitting anything
// over 252 across several commands.
func appendGYMWait(out []byte, frames int) []byte {
	for frames > 0 {
		if frames == 1 {
			return append(out, gymOpWait)
		}
		n := frames
		if n > gymMaxWait {
			n = gymMaxWait
		}
		out = append(out, byte(gymOpWait+n))
		frames -= n
	}
	return out
}
