// Package project loads songs and register traces from the JSON
// interchange files the desktop editor writes. Loading normalizes the
// pattern grid so every encoder sees rectangular data; values that a
// target format cannot hold are left for the encoders to clamp.
package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"retroexport/pkg/export"
)

// File is the top-level interchange document.
type File struct {
	Name        string       `json:"name"`
	Channels    int          `json:"channels"`
	BPM         int          `json:"bpm"`
	Speed       int          `json:"speed"`
	Positions   []int        `json:"positions"`
	Patterns    []Pattern    `json:"patterns"`
	Instruments []Instrument `json:"instruments"`
	Trace       []Write      `json:"trace,omitempty"`
}

// Pattern is one pattern grid, channel-major like the editor keeps it.
type Pattern struct {
	Rows     int      `json:"rows"`
	Channels [][]Cell `json:"channels"`
}

// Cell mirrors one tracker cell. All fields are optional; an absent
// field means the column is empty.
type Cell struct {
	Note       int  `json:"note,omitempty"`
	Instrument int  `json:"instrument,omitempty"`
	Volume     int  `json:"volume,omitempty"`
	EffTyp     byte `json:"effect,omitempty"`
	EffParam   byte `json:"param,omitempty"`
}

// Instrument describes one instrument slot. Sample data may be inlined
// (base64 WAV) or referenced by a path relative to the project file.
type Instrument struct {
	Name   string     `json:"name"`
	Type   string     `json:"type"`
	Volume float64    `json:"volume"`
	Pan    float64    `json:"pan"`
	Params []int      `json:"params,omitempty"`
	Sample *SampleRef `json:"sample,omitempty"`
}

// SampleRef points at an instrument's PCM, either inline or on disk.
type SampleRef struct {
	WAV       []byte `json:"wav,omitempty"`
	File      string `json:"file,omitempty"`
	LoopStart int    `json:"loop_start,omitempty"`
	LoopEnd   int    `json:"loop_end,omitempty"`
}

// Write is one logged chip register write.
type Write struct {
	Chip string  `json:"chip"`
	Port int     `json:"port,omitempty"`
	Data byte    `json:"data"`
	Time float64 `json:"time"`
}

// Load reads a project file and builds the song. Sample file
// references resolve relative to the project's directory.
func Load(path string) (*export.Song, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read project file: %w", err)
	}
	return Parse(data, filepath.Dir(path))
}

// Parse builds a song from raw project JSON. dir anchors relative
// sample paths; pass "" when the project has none.
func Parse(data []byte, dir string) (*export.Song, error) {
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse project JSON: %w", err)
	}

	song := &export.Song{
		Name:          f.Name,
		NumChannels:   f.Channels,
		SongPositions: f.Positions,
		BPM:           f.BPM,
		Speed:         f.Speed,
	}
	if song.NumChannels <= 0 {
		song.NumChannels = widestPattern(f.Patterns)
	}

	for _, p := range f.Patterns {
		song.Patterns = append(song.Patterns, buildPattern(p, song.NumChannels))
	}

	for i, in := range f.Instruments {
		inst, err := buildInstrument(in, dir)
		if err != nil {
			return nil, fmt.Errorf("instrument %d (%s): %w", i+1, in.Name, err)
		}
		song.Instruments = append(song.Instruments, inst)
	}
	return song, nil
}

// widestPattern infers a channel count when the document omits one.
func widestPattern(patterns []Pattern) int {
	widest := 0
	for _, p := range patterns {
		if len(p.Channels) > widest {
			widest = len(p.Channels)
		}
	}
	return widest
}

// buildPattern squares off one pattern: every channel present, every
// channel as long as the row count. Ragged editor output is padded
// with empty cells and over-long channels are cut.
func buildPattern(p Pattern, channels int) *export.Pattern {
	rows := p.Rows
	if rows <= 0 {
		for _, ch := range p.Channels {
			if len(ch) > rows {
				rows = len(ch)
			}
		}
	}

	out := &export.Pattern{
		Length:   rows,
		Channels: make([][]export.Cell, channels),
	}
	for ch := 0; ch < channels; ch++ {
		out.Channels[ch] = make([]export.Cell, rows)
		if ch >= len(p.Channels) {
			continue
		}
		for row := 0; row < rows && row < len(p.Channels[ch]); row++ {
			c := p.Channels[ch][row]
			out.Channels[ch][row] = export.Cell{
				Note:       c.Note,
				Instrument: c.Instrument,
				Volume:     c.Volume,
				EffTyp:     c.EffTyp,
				EffParam:   c.EffParam,
			}
		}
	}
	return out
}

// buildInstrument converts one instrument entry, decoding its sample
// if the document carries or references one.
func buildInstrument(in Instrument, dir string) (*export.Instrument, error) {
	inst := &export.Instrument{
		Name:      in.Name,
		SynthType: export.SynthType(in.Type),
		Volume:    in.Volume,
		Pan:       in.Pan,
		Params:    in.Params,
	}
	if in.Sample == nil {
		return inst, nil
	}

	wav := in.Sample.WAV
	if len(wav) == 0 && in.Sample.File != "" {
		path := in.Sample.File
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, path)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read sample file: %w", err)
		}
		wav = data
	}
	if len(wav) == 0 {
		return inst, nil
	}

	pcm, err := parseWAV(wav)
	if err != nil {
		return nil, err
	}
	inst.Sample = &export.Sample{
		Data:      pcm,
		LoopStart: in.Sample.LoopStart,
		LoopEnd:   in.Sample.LoopEnd,
	}
	return inst, nil
}

// LoadTrace reads a register trace, either a bare JSON array of writes
// or a full project file with a trace section.
func LoadTrace(path string) ([]export.RegisterWrite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read trace file: %w", err)
	}
	return ParseTrace(data)
}

// ParseTrace decodes a register trace from raw JSON.
func ParseTrace(data []byte) ([]export.RegisterWrite, error) {
	var writes []Write
	if err := json.Unmarshal(data, &writes); err != nil {
		var f File
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("failed to parse trace JSON: %w", err)
		}
		writes = f.Trace
	}

	trace := make([]export.RegisterWrite, len(writes))
	for i, w := range writes {
		trace[i] = export.RegisterWrite{
			Chip:      export.ChipType(w.Chip),
			Port:      w.Port,
			Data:      w.Data,
			Timestamp: w.Time,
		}
	}
	return trace, nil
}
