package export

import (
	"math"
	"sort"
)

// NANO stream geometry. The packed cell byte spends 4 bits on the
// channel index, so the format tops out at 16 channels.
const (
	nanoMagic       = "NANO"
	nanoVersion     = 1
	nanoHeaderSize  = 8
	nanoInstRecSize = 12
	nanoMaxChannels = 16
	nanoParamCount  = 8
	nanoMaxOrder    = 255
)

// Presence mask bits of a packed cell, in field order.
const (
	nanoMaskNote = 0x08
	nanoMaskInst = 0x04
	nanoMaskVol  = 0x02
	nanoMaskEff  = 0x01
)

// nanoSynthIDs is the closed synth-type table. Lookups outside it fall
// through to 0, the player's "unknown" slot.
var nanoSynthIDs = map[SynthType]byte{
	SynthSample: 1,
	SynthFM:     2,
	SynthPSG:    3,
	SynthWave:   4,
	SynthNoise:  5,
}

// nanoUsage is the reachable set computed before serialization:
// patterns actually played, and instruments referenced from them.
type nanoUsage struct {
	patterns    []int // ascending pattern indices
	instruments []int // ascending 1-based instrument ids
}

// nanoScan walks the play order and marks every pattern it can reach,
// then collects instrument references from those patterns only. Dead
// patterns and dead instruments never make it into the stream.
func nanoScan(song *Song) nanoUsage {
	channels := nanoChannelCount(song)

	order := song.SongPositions
	if len(order) > nanoMaxOrder {
		order = order[:nanoMaxOrder]
	}
	patSeen := make(map[int]bool)
	for _, pos := range order {
		// Indices past one byte cannot appear in the order table.
		if pos >= 0 && pos < len(song.Patterns) && pos <= 255 {
			patSeen[pos] = true
		}
	}
	instSeen := make(map[int]bool)
	for pi := range patSeen {
		pat := song.Patterns[pi]
		rows := 0
		if pat != nil {
			rows = pat.Length
		}
		for ch := 0; ch < channels; ch++ {
			for row := 0; row < rows; row++ {
				id := pat.cell(ch, row).Instrument
				if id >= 1 && id <= 255 && song.instrument(id) != nil {
					instSeen[id] = true
				}
			}
		}
	}

	use := nanoUsage{
		patterns:    make([]int, 0, len(patSeen)),
		instruments: make([]int, 0, len(instSeen)),
	}
	for pi := range patSeen {
		use.patterns = append(use.patterns, pi)
	}
	for id := range instSeen {
		use.instruments = append(use.instruments, id)
	}
	sort.Ints(use.patterns)
	sort.Ints(use.instruments)
	return use
}

// EncodeNano renders the song as the compact player stream: header,
// used-instrument records, raw play order, then per used pattern the
// mask-driven cell records. Absent cell fields cost zero bytes.
func EncodeNano(song *Song) []byte {
	if song == nil {
		song = &Song{}
	}
	use := nanoScan(song)
	channels := nanoChannelCount(song)
	orderLen := len(song.SongPositions)
	if orderLen > nanoMaxOrder {
		orderLen = nanoMaxOrder
	}

	out := make([]byte, 0, nanoHeaderSize+3+len(use.instruments)*nanoInstRecSize+orderLen)
	out = append(out, nanoMagic...)
	out = append(out, nanoVersion, clampByte(song.BPM), clampByte(song.Speed), byte(channels))
	out = append(out, byte(len(use.instruments)), byte(orderLen), byte(len(use.patterns)))

	for _, id := range use.instruments {
		out = appendNanoInstrument(out, id, song.Instruments[id-1])
	}

	for i := 0; i < orderLen; i++ {
		out = append(out, clampByte(song.SongPositions[i]))
	}

	for _, pi := range use.patterns {
		out = appendNanoPattern(out, song.Patterns[pi], pi, channels)
	}
	return out
}

// appendNanoInstrument emits one fixed 12-byte instrument record.
func appendNanoInstrument(out []byte, id int, inst *Instrument) []byte {
	rec := [nanoInstRecSize]byte{
		byte(id),
		nanoSynthIDs[inst.SynthType],
		quantize255(inst.Volume),
		quantizePan(inst.Pan),
	}
	for i := 0; i < nanoParamCount && i < len(inst.Params); i++ {
		rec[4+i] = clampByte(inst.Params[i])
	}
	return append(out, rec[:]...)
}

// appendNanoPattern emits a pattern record: index, row count, then one
// zero byte per silent row or a cell count followed by packed cells.
func appendNanoPattern(out []byte, pat *Pattern, index, channels int) []byte {
	rows := 0
	if pat != nil && pat.Length > 0 {
		rows = pat.Length
	}
	if rows > 255 {
		rows = 255
	}
	out = append(out, byte(index), byte(rows))
	for row := 0; row < rows; row++ {
		count := 0
		for ch := 0; ch < channels; ch++ {
			if nanoCellMask(pat.cell(ch, row)) != 0 {
				count++
			}
		}
		if count == 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, byte(count))
		for ch := 0; ch < channels; ch++ {
			if c := pat.cell(ch, row); nanoCellMask(c) != 0 {
				out = appendNanoCell(out, ch, c)
			}
		}
	}
	return out
}

// nanoCellMask computes a cell's presence mask; 0 means the cell is
// inactive and costs nothing.
func nanoCellMask(c Cell) byte {
	var mask byte
	if c.Note != 0 {
		mask |= nanoMaskNote
	}
	if c.Instrument != 0 {
		mask |= nanoMaskInst
	}
	if c.Volume > 0 {
		mask |= nanoMaskVol
	}
	if c.EffTyp != 0 || c.EffParam != 0 {
		mask |= nanoMaskEff
	}
	return mask
}

// appendNanoCell packs one active cell: channel and mask share the lead
// byte, then exactly the flagged fields follow in mask-bit order.
func appendNanoCell(out []byte, channel int, c Cell) []byte {
	mask := nanoCellMask(c)
	out = append(out, byte(channel&0x0F)<<4|mask)
	if mask&nanoMaskNote != 0 {
		out = append(out, clampByte(c.Note))
	}
	if mask&nanoMaskInst != 0 {
		out = append(out, clampByte(c.Instrument))
	}
	if mask&nanoMaskVol != 0 {
		out = append(out, clampByte(c.Volume))
	}
	if mask&nanoMaskEff != 0 {
		out = append(out, effectChar(c.EffTyp), c.EffParam)
	}
	return out
}

// nanoCell is the decoded form of one packed record.
type nanoCell struct {
	channel  int
	mask     byte
	note     int
	inst     int
	vol      int
	effChar  byte
	effParam byte
}

// parseNanoCell is the decode half of the packed-cell contract. The
// player walks records exactly like this; tests drive it against
// appendNanoCell so the mask-to-field-order rule lives in one place.
// It returns the decoded cell and the number of bytes consumed.
func parseNanoCell(data []byte) (nanoCell, int) {
	var c nanoCell
	if len(data) == 0 {
		return c, 0
	}
	c.channel = int(data[0] >> 4)
	c.mask = data[0] & 0x0F
	n := 1
	if c.mask&nanoMaskNote != 0 && n < len(data) {
		c.note = int(data[n])
		n++
	}
	if c.mask&nanoMaskInst != 0 && n < len(data) {
		c.inst = int(data[n])
		n++
	}
	if c.mask&nanoMaskVol != 0 && n < len(data) {
		c.vol = int(data[n])
		n++
	}
	if c.mask&nanoMaskEff != 0 && n+1 < len(data) {
		c.effChar = data[n]
		c.effParam = data[n+1]
		n += 2
	}
	return c, n
}

// nanoChannelCount clamps the song's channel count into the 4-bit
// channel index space.
func nanoChannelCount(song *Song) int {
	n := song.NumChannels
	if n < 0 {
		n = 0
	}
	if n > nanoMaxChannels {
		n = nanoMaxChannels
	}
	return n
}

// quantize255 scales a 0..1 value onto one byte.
func quantize255(v float64) byte {
	n := int(math.Round(v * 255))
	if n < 0 {
		return 0
	}
	if n > 255 {
		return 255
	}
	return byte(n)
}

// quantizePan scales a -1..1 pan onto one byte, center at 128.
func quantizePan(v float64) byte {
	n := int(math.Round((v + 1) * 127.5))
	if n < 0 {
		return 0
	}
	if n > 255 {
		return 255
	}
	return byte(n)
}
