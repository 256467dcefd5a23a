package export

// Oktalyzer container geometry. Pattern bodies always address 8
// channels; the sample table holds at most 36 slots.
const (
	oktChannels       = 8
	oktMaxInstruments = 36
	oktSampDescSize   = 32
	oktCellSize       = 4
	oktNameLen        = 20
	oktMaxVolume      = 64

	// oktNoteOffset shifts source note numbers onto the format's
	// 1-based scale; the playable window is 1..36.
	oktNoteOffset = 12
	oktNoteMax    = 36
)

// Oktalyzer effect command numbers produced by the translation table.
const (
	oktCmdPortaUp   = 1
	oktCmdPortaDown = 2
	oktCmdPosJump   = 25
	oktCmdSpeed     = 28
	oktCmdTonePorta = 30
	oktCmdVolume    = 31
)

// oktCommands maps source effect types onto Oktalyzer commands. Types
// outside the table degrade to no effect; that loss is the documented
// translation policy, not an error.
var oktCommands = map[byte]byte{
	effPortaUp:   oktCmdPortaUp,
	effPortaDown: oktCmdPortaDown,
	effTonePorta: oktCmdTonePorta,
	effVolSlide:  oktCmdVolume,
	effPosJump:   oktCmdPosJump,
	effSetVolume: oktCmdVolume,
	effSetSpeed:  oktCmdSpeed,
}

// oktEffect translates one source effect pair. Volume slides fold into
// the volume command's parameter space (0x41.. slides down, 0x51..
// slides up); plain set-volume clamps to the 0-64 range.
func oktEffect(typ, param byte) (byte, byte) {
	cmd, ok := oktCommands[typ]
	if !ok {
		return 0, 0
	}
	switch typ {
	case effSetVolume:
		if param > oktMaxVolume {
			param = oktMaxVolume
		}
	case effVolSlide:
		if up := param >> 4; up > 0 {
			param = 0x50 + up
		} else if down := param & 0x0F; down > 0 {
			param = 0x40 + down
		} else {
			return 0, 0
		}
	}
	return cmd, param
}

// oktNote maps a source note onto the format's 1-based note index;
// anything outside the 36-note window is written as no note.
func oktNote(note int) byte {
	n := note - oktNoteOffset
	if n < 1 || n > oktNoteMax {
		return 0
	}
	return byte(n)
}

// oktChunk is one inner IFF chunk before framing.
type oktChunk struct {
	id      string
	payload []byte
}

// buildOKTChunks assembles every chunk payload in the format's fixed
// order. Sizes are all known before the container is framed, which is
// what the FORM length accounting needs.
func buildOKTChunks(song *Song) []oktChunk {
	instruments := len(song.Instruments)
	if instruments > oktMaxInstruments {
		instruments = oktMaxInstruments
	}

	chunks := []oktChunk{
		{"CMOD", oktCMOD()},
		{"SAMP", oktSAMP(song, instruments)},
		{"SPEE", oktU16(song.Speed)},
		{"SLEN", oktU16(len(song.SongPositions))},
		{"PLEN", oktU16(len(song.Patterns))},
		{"PATT", oktPATT(song)},
	}
	for _, pat := range song.Patterns {
		chunks = append(chunks, oktChunk{"PBOD", oktPBOD(song, pat)})
	}
	for i := 0; i < instruments; i++ {
		chunks = append(chunks, oktChunk{"SBOD", oktSBOD(song.Instruments[i])})
	}
	return chunks
}

// EncodeOKT renders the song as a FORM/OKTA container. The declared
// FORM size covers the OKTA tag plus every inner chunk at its padded
// length; each inner chunk declares its unpadded payload length and is
// written even-aligned.
func EncodeOKT(song *Song) []byte {
	if song == nil {
		song = &Song{}
	}
	chunks := buildOKTChunks(song)

	inner := 4 // "OKTA"
	for _, c := range chunks {
		inner += 8 + evenLen(len(c.payload))
	}
	buf := make([]byte, 8+inner)
	copy(buf[0:4], "FORM")
	putU32BE(buf, 4, uint32(inner))
	copy(buf[8:12], "OKTA")

	off := 12
	for _, c := range chunks {
		copy(buf[off:off+4], c.id)
		putU32BE(buf, off+4, uint32(len(c.payload)))
		copy(buf[off+8:], c.payload)
		off += 8 + evenLen(len(c.payload))
	}
	return buf
}

// oktCMOD declares all four channel pairs split so pattern bodies can
// address the full 8 channels.
func oktCMOD() []byte {
	payload := make([]byte, 8)
	for i := 0; i < 4; i++ {
		putU16BE(payload, i*2, 1)
	}
	return payload
}

// oktSAMP writes one 32-byte descriptor per instrument slot: padded
// name, raw 8-bit PCM byte length, loop window in words, volume, mode.
func oktSAMP(song *Song, instruments int) []byte {
	payload := make([]byte, instruments*oktSampDescSize)
	for i := 0; i < instruments; i++ {
		off := i * oktSampDescSize
		inst := song.Instruments[i]
		if inst == nil {
			continue
		}
		putFixedString(payload, off, oktNameLen, inst.Name)
		frames, loopStart, loopLen := sampleBounds(inst)
		putU32BE(payload, off+20, uint32(frames))
		putU16BE(payload, off+24, clampU16(loopStart/2))
		putU16BE(payload, off+26, clampU16(loopLen/2))
		putU16BE(payload, off+28, uint16(quantizeVolume64(inst.Volume)))
	}
	return payload
}

func oktU16(v int) []byte {
	payload := make([]byte, 2)
	putU16BE(payload, 0, clampU16(v))
	return payload
}

// oktPATT is the raw play-order byte array. Out-of-range positions are
// written as zero, matching the skip-don't-fail policy.
func oktPATT(song *Song) []byte {
	payload := make([]byte, len(song.SongPositions))
	for i, pos := range song.SongPositions {
		if pos >= 0 && pos < len(song.Patterns) {
			payload[i] = clampByte(pos)
		}
	}
	return payload
}

// oktPBOD writes one pattern body: a row count and then rows of all 8
// format channels. Channels the song does not have stay empty.
func oktPBOD(song *Song, pat *Pattern) []byte {
	rows := 0
	if pat != nil && pat.Length > 0 {
		rows = pat.Length
	}
	channels := song.NumChannels
	if channels > oktChannels {
		channels = oktChannels
	}

	payload := make([]byte, 2+rows*oktChannels*oktCellSize)
	putU16BE(payload, 0, clampU16(rows))
	off := 2
	for row := 0; row < rows; row++ {
		for ch := 0; ch < oktChannels; ch++ {
			if ch < channels {
				writeOKTCell(payload, off, pat.cell(ch, row))
			}
			off += oktCellSize
		}
	}
	return payload
}

// writeOKTCell packs one cell: note index, 0-based sample number,
// translated effect command and parameter.
func writeOKTCell(buf []byte, off int, c Cell) {
	note := oktNote(c.Note)
	buf[off] = note
	if note != 0 && c.Instrument > 0 {
		buf[off+1] = clampByte(c.Instrument - 1)
	}
	cmd, param := oktEffect(c.EffTyp, c.EffParam)
	buf[off+2] = cmd
	buf[off+3] = param
}

// oktSBOD converts one instrument's PCM to 8 bits. Sample-less slots
// still get their chunk, just with an empty body, keeping SBOD order
// aligned with the SAMP table.
func oktSBOD(inst *Instrument) []byte {
	if inst == nil || inst.Sample == nil {
		return nil
	}
	return pcm16to8(inst.Sample.Data)
}

// quantizeVolume64 scales a 0..1 instrument volume onto the Amiga 0-64
// range.
func quantizeVolume64(v float64) int {
	n := int(v*oktMaxVolume + 0.5)
	if n < 0 {
		return 0
	}
	if n > oktMaxVolume {
		return oktMaxVolume
	}
	return n
}
