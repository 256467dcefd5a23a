// Package export converts in-memory tracker songs and chip register
// traces into legacy binary music formats (GYM register logs, MMD0/MED
// and Oktalyzer modules, and the compact NANO stream), plus a Standard
// MIDI File rendering of the pattern grid.
package export

// ChipType identifies the sound chip a register write targets.
type ChipType string

const (
	// ChipFM is the 2-port FM synthesizer (YM2612-style register map).
	ChipFM ChipType = "fm"
	// ChipPSG is the square/noise generator (SN76489-style latch writes).
	ChipPSG ChipType = "psg"
)

// RegisterWrite is one captured chip register programming event.
// Port selects the register address space: for the FM chip, 0-255 land
// on port 0 and 256-511 on port 1; the PSG ignores it. Timestamp counts
// sample-clock ticks since capture start.
type RegisterWrite struct {
	Chip      ChipType
	Port      int
	Data      byte
	Timestamp float64
}

// SynthType names an instrument's sound source.
type SynthType string

const (
	SynthSample SynthType = "sample"
	SynthFM     SynthType = "fm"
	SynthPSG    SynthType = "psg"
	SynthWave   SynthType = "wavetable"
	SynthNoise  SynthType = "noise"
)

// Sample holds decoded mono 16-bit PCM. LoopStart and LoopEnd are in
// sample frames; LoopEnd <= LoopStart means no loop.
type Sample struct {
	Data      []int16
	LoopStart int
	LoopEnd   int
}

// Instrument describes one instrument slot. Sample is nil for purely
// synthesized instruments; those render silent in the module formats
// but keep their parameters in the NANO stream.
type Instrument struct {
	Name      string
	SynthType SynthType
	Volume    float64 // 0..1
	Pan       float64 // -1..1
	Params    []int
	Sample    *Sample
}

// Cell is one channel's state for one row. Note 0 means no note
// (silence/hold); Instrument 0 means none, i > 0 refers to
// Song.Instruments[i-1]. Volume 0 means an empty volume column, the
// tracker convention; restating volume zero takes a set-volume effect.
type Cell struct {
	Note       int
	Instrument int
	Volume     int
	EffTyp     byte
	EffParam   byte
}

// Pattern is a grid of cells addressed [channel][row].
type Pattern struct {
	Length   int
	Channels [][]Cell
}

// Song is the complete tracker song model handed to the exporters.
// Patterns are addressed by index from SongPositions (the play order);
// a pattern may appear any number of times there.
type Song struct {
	Name          string
	NumChannels   int
	Patterns      []*Pattern
	SongPositions []int
	Instruments   []*Instrument
	BPM           int
	Speed         int
}

// cell returns the cell at [channel][row], tolerating ragged or short
// grids by returning an empty cell.
func (p *Pattern) cell(channel, row int) Cell {
	if p == nil || channel < 0 || channel >= len(p.Channels) {
		return Cell{}
	}
	rows := p.Channels[channel]
	if row < 0 || row >= len(rows) {
		return Cell{}
	}
	return rows[row]
}

// pattern resolves a play-order index, returning nil when it is out of
// range. Legacy formats treat such references as silently skippable.
func (s *Song) pattern(index int) *Pattern {
	if s == nil || index < 0 || index >= len(s.Patterns) {
		return nil
	}
	return s.Patterns[index]
}

// instrument resolves a 1-based cell instrument reference, returning
// nil when the slot does not exist.
func (s *Song) instrument(num int) *Instrument {
	if s == nil || num < 1 || num > len(s.Instruments) {
		return nil
	}
	return s.Instruments[num-1]
}

// ExportResult holds the outcome of one export for surfaces that queue
// or report conversions.
type ExportResult struct {
	Data     []byte
	Filename string
	Format   string
	Error    error
}
