package export

// MMD0 module geometry. The header variant written here caps the song
// at 4 channels and 63 instruments; the excess is dropped.
const (
	medMaxChannels     = 4
	medMaxInstruments  = 63
	medMaxPlaySeq      = 256
	medHeaderSize      = 52
	medInstHeaderSize  = 8
	medSongMiscSize    = 268
	medSongSize        = medMaxInstruments*medInstHeaderSize + medSongMiscSize
	medBlockHeaderSize = 4
	medCellSize        = 4
	medDefaultVolume   = 64
)

// medLayout carries every offset and size for one module, computed in
// full before a single byte is written.
type medLayout struct {
	channels     int
	instruments  int
	blockCount   int
	songLen      int
	blockArr     int   // absolute offset of the block-pointer array
	blockOffsets []int // absolute offset per block
	blockSizes   []int
	sampleOffs   []int // absolute offset per instrument slot's PCM
	sampleLens   []int // PCM byte length before word alignment
	total        int
}

// buildMEDLayout sizes the whole file: header, song descriptor,
// block-pointer array, blocks, then word-aligned sample data.
func buildMEDLayout(song *Song) medLayout {
	l := medLayout{
		channels:    song.NumChannels,
		instruments: len(song.Instruments),
		blockCount:  len(song.Patterns),
		songLen:     len(song.SongPositions),
	}
	if l.channels > medMaxChannels {
		l.channels = medMaxChannels
	}
	if l.channels < 0 {
		l.channels = 0
	}
	if l.instruments > medMaxInstruments {
		l.instruments = medMaxInstruments
	}
	if l.songLen > medMaxPlaySeq {
		l.songLen = medMaxPlaySeq
	}

	off := medHeaderSize + medSongSize
	l.blockArr = off
	off += 4 * l.blockCount

	l.blockOffsets = make([]int, l.blockCount)
	l.blockSizes = make([]int, l.blockCount)
	for i, pat := range song.Patterns {
		l.blockOffsets[i] = off
		l.blockSizes[i] = medBlockHeaderSize + blockRows(pat)*l.channels*medCellSize
		off += l.blockSizes[i]
	}

	l.sampleOffs = make([]int, l.instruments)
	l.sampleLens = make([]int, l.instruments)
	for i := 0; i < l.instruments; i++ {
		l.sampleOffs[i] = off
		if inst := song.Instruments[i]; inst != nil && inst.Sample != nil {
			l.sampleLens[i] = len(inst.Sample.Data)
		}
		off += evenLen(l.sampleLens[i])
	}
	l.total = off
	return l
}

// blockRows returns the row count a pattern occupies in its block. The
// block header stores rows-1, so even a degenerate pattern takes one
// (empty) row.
func blockRows(p *Pattern) int {
	if p == nil || p.Length < 1 {
		return 1
	}
	return p.Length
}

// EncodeMED renders the song as an MMD0 module: 52-byte header, song
// descriptor (63 instrument headers plus song metadata), block-pointer
// array, pattern blocks, then 8-bit sample PCM. Over-capacity input is
// clamped, missing sample data leaves a zero-length slot, and
// out-of-range play positions stay zero in the sequence table.
func EncodeMED(song *Song) []byte {
	if song == nil {
		song = &Song{}
	}
	l := buildMEDLayout(song)
	buf := make([]byte, l.total)

	copy(buf[0:4], "MMD0")
	putU32BE(buf, 4, uint32(l.total))
	putU32BE(buf, 8, medHeaderSize)
	putU32BE(buf, 16, uint32(l.blockArr))

	// Instrument headers: length and loop bounds in 16-bit words.
	for i := 0; i < l.instruments; i++ {
		off := medHeaderSize + i*medInstHeaderSize
		frames, loopStart, loopLen := sampleBounds(song.Instruments[i])
		putU16BE(buf, off, clampU16((frames+1)/2))
		putU16BE(buf, off+2, clampU16(loopStart/2))
		putU16BE(buf, off+4, clampU16(loopLen/2))
		buf[off+6] = medDefaultVolume
	}

	misc := medHeaderSize + medMaxInstruments*medInstHeaderSize
	putU16BE(buf, misc, clampU16(l.blockCount))
	putU16BE(buf, misc+2, clampU16(l.songLen))
	for i := 0; i < l.songLen; i++ {
		if pos := song.SongPositions[i]; pos >= 0 && pos < l.blockCount {
			buf[misc+4+i] = byte(pos)
		}
	}
	putU16BE(buf, misc+260, clampU16(song.BPM))
	buf[misc+265] = clampByte(song.Speed)
	buf[misc+266] = medDefaultVolume
	buf[misc+267] = byte(l.instruments)

	for i, pat := range song.Patterns {
		putU32BE(buf, l.blockArr+4*i, uint32(l.blockOffsets[i]))
		writeMEDBlock(buf, l.blockOffsets[i], pat, l.channels)
	}

	for i := 0; i < l.instruments; i++ {
		if inst := song.Instruments[i]; inst != nil && inst.Sample != nil {
			copy(buf[l.sampleOffs[i]:], pcm16to8(inst.Sample.Data))
		}
	}
	return buf
}

// writeMEDBlock fills one pattern block: a 4-byte header (channels,
// rows-1) and row-major 4-byte cells.
func writeMEDBlock(buf []byte, off int, pat *Pattern, channels int) {
	rows := blockRows(pat)
	putU16BE(buf, off, uint16(channels))
	putU16BE(buf, off+2, uint16(rows-1))
	off += medBlockHeaderSize
	for row := 0; row < rows; row++ {
		for ch := 0; ch < channels; ch++ {
			writeMEDCell(buf, off, pat.cell(ch, row))
			off += medCellSize
		}
	}
}

// writeMEDCell packs one cell ProTracker-style: instrument nibbles
// wrap the 12-bit period, effect type and parameter trail.
func writeMEDCell(buf []byte, off int, c Cell) {
	period := periodForNote(c.Note)
	buf[off] = byte(c.Instrument&0xF0) | byte(period>>8)
	buf[off+1] = byte(period)
	buf[off+2] = byte(c.Instrument&0x0F)<<4 | c.EffTyp&0x0F
	buf[off+3] = c.EffParam
}

// sampleBounds extracts an instrument's PCM frame count and clamped
// loop window. Instruments without sample data report all zeros.
func sampleBounds(inst *Instrument) (frames, loopStart, loopLen int) {
	if inst == nil || inst.Sample == nil {
		return 0, 0, 0
	}
	frames = len(inst.Sample.Data)
	loopStart = inst.Sample.LoopStart
	if loopStart < 0 {
		loopStart = 0
	}
	if loopStart > frames {
		loopStart = frames
	}
	loopEnd := inst.Sample.LoopEnd
	if loopEnd > frames {
		loopEnd = frames
	}
	if loopEnd > loopStart {
		loopLen = loopEnd - loopStart
	}
	return frames, loopStart, loopLen
}
