package export

import (
	"bytes"
	"fmt"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

const (
	midiTicksPerQuarter = 480
	// A pattern row plays as a 16th note.
	midiTicksPerRow = midiTicksPerQuarter / 4
	// midiNoteOffset aligns source note 13 (C-1) with MIDI note 24.
	midiNoteOffset = 11
	midiMaxTracks  = 16
)

// EncodeMIDI renders the play order as a type-1 Standard MIDI File: a
// meta track carrying tempo and time signature, then one track per
// pattern channel. Notes gate until the next note on their channel or
// the end of the song.
func EncodeMIDI(song *Song) ([]byte, error) {
	if song == nil {
		song = &Song{}
	}
	s := smf.New()
	s.TimeFormat = smf.MetricTicks(midiTicksPerQuarter)

	bpm := song.BPM
	if bpm <= 0 {
		bpm = 125
	}

	var meta smf.Track
	microsecondsPerBeat := uint32(60000000 / bpm)
	meta.Add(0, smf.Message([]byte{
		0xFF, 0x51, 0x03,
		byte(microsecondsPerBeat >> 16),
		byte(microsecondsPerBeat >> 8),
		byte(microsecondsPerBeat),
	}))
	// 4/4 time signature
	meta.Add(0, smf.Message([]byte{0xFF, 0x58, 0x04, 0x04, 0x02, 0x18, 0x08}))
	meta.Close(0)
	if err := s.Add(meta); err != nil {
		return nil, fmt.Errorf("failed to add meta track: %w", err)
	}

	channels := song.NumChannels
	if channels > midiMaxTracks {
		channels = midiMaxTracks
	}
	for ch := 0; ch < channels; ch++ {
		if err := s.Add(channelTrack(song, ch)); err != nil {
			return nil, fmt.Errorf("failed to add track: %w", err)
		}
	}

	var buf bytes.Buffer
	if _, err := s.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write MIDI: %w", err)
	}
	return buf.Bytes(), nil
}

// channelTrack walks the play order for one channel and lays down
// note on/off pairs on the row grid.
func channelTrack(song *Song, ch int) smf.Track {
	var track smf.Track
	midiChannel := uint8(ch & 0x0F)

	var (
		lastTick    uint32
		tick        uint32
		haveNote    bool
		soundingKey uint8
	)
	for _, pos := range song.SongPositions {
		pat := song.pattern(pos)
		if pat == nil {
			continue
		}
		for row := 0; row < pat.Length; row++ {
			cell := pat.cell(ch, row)
			key, ok := midiKey(cell.Note)
			if !ok {
				continue
			}
			rowTick := tick + uint32(row)*midiTicksPerRow
			if haveNote {
				track.Add(rowTick-lastTick, midi.NoteOff(midiChannel, soundingKey))
				lastTick = rowTick
			}
			track.Add(rowTick-lastTick, midi.NoteOn(midiChannel, key, midiVelocity(cell.Volume)))
			lastTick = rowTick
			haveNote = true
			soundingKey = key
		}
		if pat.Length > 0 {
			tick += uint32(pat.Length) * midiTicksPerRow
		}
	}
	if haveNote {
		track.Add(tick-lastTick, midi.NoteOff(midiChannel, soundingKey))
	}
	track.Close(0)
	return track
}

// midiKey maps a source note onto a MIDI key, rejecting the no-note
// sentinel and anything outside 0-127.
func midiKey(note int) (uint8, bool) {
	if note == 0 {
		return 0, false
	}
	key := note + midiNoteOffset
	if key < 0 || key > 127 {
		return 0, false
	}
	return uint8(key), true
}

// midiVelocity maps a tracker volume column (1-64) onto MIDI velocity,
// defaulting to 100 when the column is empty.
func midiVelocity(volume int) uint8 {
	if volume <= 0 {
		return 100
	}
	v := volume * 2
	if v > 127 {
		v = 127
	}
	return uint8(v)
}
