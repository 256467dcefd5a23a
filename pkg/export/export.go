package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Format names a target file format.
type Format string

const (
	FormatGYM     Format = "gym"
	FormatMED     Format = "med"
	FormatOKT     Format = "okt"
	FormatNano    Format = "nano"
	FormatMIDI    Format = "mid"
	FormatUnknown Format = "unknown"
)

// DetectFormat picks a format from a filename extension.
func DetectFormat(filename string) Format {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".gym":
		return FormatGYM
	case ".med", ".mmd":
		return FormatMED
	case ".okt", ".okta":
		return FormatOKT
	case ".nano":
		return FormatNano
	case ".mid", ".midi":
		return FormatMIDI
	default:
		return FormatUnknown
	}
}

// Exporter is one song-to-bytes target. CanExport is the applicability
// predicate; Export owns its output buffer and never mutates the song.
type Exporter interface {
	Name() string
	Extension() string
	CanExport(song *Song) bool
	Export(song *Song) ([]byte, error)
}

// MED exports MMD0 modules.
type MED struct{}

// NewMED creates the MMD0 exporter.
func NewMED() *MED { return &MED{} }

func (*MED) Name() string              { return string(FormatMED) }
func (*MED) Extension() string         { return ".med" }
func (*MED) CanExport(song *Song) bool { return song != nil }

// Export renders the song as an MMD0 module. It never fails: fidelity
// loss is clamped or zero-filled per the format's rules.
func (*MED) Export(song *Song) ([]byte, error) { return EncodeMED(song), nil }

// OKT exports Oktalyzer containers.
type OKT struct{}

// NewOKT creates the Oktalyzer exporter.
func NewOKT() *OKT { return &OKT{} }

func (*OKT) Name() string                      { return string(FormatOKT) }
func (*OKT) Extension() string                 { return ".okt" }
func (*OKT) CanExport(song *Song) bool         { return song != nil }
func (*OKT) Export(song *Song) ([]byte, error) { return EncodeOKT(song), nil }

// Nano exports the compact player stream.
type Nano struct{}

// NewNano creates the NANO exporter.
func NewNano() *Nano { return &Nano{} }

func (*Nano) Name() string                      { return string(FormatNano) }
func (*Nano) Extension() string                 { return ".nano" }
func (*Nano) CanExport(song *Song) bool         { return song != nil }
func (*Nano) Export(song *Song) ([]byte, error) { return EncodeNano(song), nil }

// MIDI exports Standard MIDI Files.
type MIDI struct{}

// NewMIDI creates the SMF exporter.
func NewMIDI() *MIDI { return &MIDI{} }

func (*MIDI) Name() string      { return string(FormatMIDI) }
func (*MIDI) Extension() string { return ".mid" }
func (*MIDI) CanExport(song *Song) bool {
	return song != nil && len(song.Patterns) > 0
}
func (*MIDI) Export(song *Song) ([]byte, error) { return EncodeMIDI(song) }

// Exporters lists every song exporter in menu order. The GYM encoder
// consumes a register trace instead of a song and lives behind
// EncodeGYM/CanEncodeGYM.
func Exporters() []Exporter {
	return []Exporter{NewMED(), NewOKT(), NewNano(), NewMIDI()}
}

// ByName resolves an exporter by its format name.
func ByName(name string) (Exporter, error) {
	name = strings.ToLower(strings.TrimPrefix(name, "."))
	for _, e := range Exporters() {
		if e.Name() == name {
			return e, nil
		}
	}
	return nil, fmt.Errorf("unknown export format %q (supported: %s)", name, strings.Join(FormatNames(), ", "))
}

// FormatNames lists the song exporter names plus the trace-driven GYM.
func FormatNames() []string {
	names := make([]string, 0, len(Exporters())+1)
	for _, e := range Exporters() {
		names = append(names, e.Name())
	}
	return append(names, string(FormatGYM))
}

// WriteFile exports the song and writes the result to the caller's
// chosen path.
func WriteFile(e Exporter, song *Song, filename string) error {
	data, err := e.Export(song)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}

// WriteGYMFile encodes a register trace and writes the stream.
func WriteGYMFile(trace []RegisterWrite, sampleRate float64, filename string) error {
	if err := os.WriteFile(filename, EncodeGYM(trace, sampleRate), 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}

// OutputName swaps a source filename's extension for the exporter's.
func OutputName(input, ext string) string {
	return strings.TrimSuffix(input, filepath.Ext(input)) + ext
}
