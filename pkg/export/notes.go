package export

// baseNote is the source note number of C-1, the first period table
// entry. The editor numbers notes from 1 = C-0.
const baseNote = 13

// periodTable holds the Amiga hardware periods for C-1 through B-3,
// twelve per octave.
var periodTable = [36]uint16{
	856, 808, 762, 720, 678, 640, 604, 570, 538, 508, 480, 453,
	428, 404, 381, 360, 339, 320, 302, 285, 269, 254, 240, 226,
	214, 202, 190, 180, 170, 160, 151, 143, 135, 127, 120, 113,
}

// periodForNote maps a source note number onto its Amiga period.
// Out-of-table notes, including the "no note" 0, yield period 0 so no
// pitch is written.
func periodForNote(note int) uint16 {
	idx := note - baseNote
	if idx < 0 || idx >= len(periodTable) {
		return 0
	}
	return periodTable[idx]
}

// ProTracker-style effect types as they arrive in pattern cells.
const (
	effPortaUp   = 0x1
	effPortaDown = 0x2
	effTonePorta = 0x3
	effVolSlide  = 0xA
	effPosJump   = 0xB
	effSetVolume = 0xC
	effSetSpeed  = 0xF
)

// effectChar returns the pattern editor's display character for an
// effect type: 0-9 then A-Z. Types past 'Z' have no column character
// and collapse to '0'.
func effectChar(typ byte) byte {
	switch {
	case typ < 10:
		return '0' + typ
	case typ < 36:
		return 'A' + typ - 10
	default:
		return '0'
	}
}
