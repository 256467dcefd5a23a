package export

import (
	"bytes"
	"encoding/binary"
	"testing"
)

// walkOKTChunks parses a FORM/OKTA container back into its inner
// chunks, failing the test on any framing inconsistency. Walking by
// declared-length-rounded-to-even must land exactly on the buffer end.
func walkOKTChunks(t *testing.T, buf []byte) []oktChunk {
	t.Helper()
	if len(buf) < 12 {
		t.Fatalf("container too short: %d bytes", len(buf))
	}
	if string(buf[0:4]) != "FORM" {
		t.Fatalf("magic = %q, want %q", buf[0:4], "FORM")
	}
	if size := binary.BigEndian.Uint32(buf[4:8]); int(size) != len(buf)-8 {
		t.Fatalf("FORM size = %d, want %d", size, len(buf)-8)
	}
	if string(buf[8:12]) != "OKTA" {
		t.Fatalf("form type = %q, want %q", buf[8:12], "OKTA")
	}

	var chunks []oktChunk
	off := 12
	for off < len(buf) {
		if off+8 > len(buf) {
			t.Fatalf("truncated chunk header at offset %d", off)
		}
		id := string(buf[off : off+4])
		size := int(binary.BigEndian.Uint32(buf[off+4 : off+8]))
		if off+8+size > len(buf) {
			t.Fatalf("chunk %s declares %d bytes past buffer end", id, size)
		}
		chunks = append(chunks, oktChunk{id, buf[off+8 : off+8+size]})
		off += 8 + evenLen(size)
	}
	if off != len(buf) {
		t.Fatalf("chunk walk ended at %d, want %d", off, len(buf))
	}
	return chunks
}

func oktTestSong() *Song {
	pat := emptyPattern(2, 2)
	pat.Channels[0][0] = Cell{Note: 13, Instrument: 3, EffTyp: effSetSpeed, EffParam: 6}
	pat.Channels[1][1] = Cell{Note: 24}
	return &Song{
		NumChannels:   2,
		Patterns:      []*Pattern{pat},
		SongPositions: []int{0},
		Instruments: []*Instrument{
			{Name: "kick", Volume: 1.0, Sample: &Sample{Data: []int16{1000, -1000, 500}}},
		},
		Speed: 6,
	}
}

func TestEncodeOKTFormAccounting(t *testing.T) {
	got := EncodeOKT(oktTestSong())
	chunks := walkOKTChunks(t, got)

	// PATT and SBOD have odd payloads here; their declared lengths stay
	// unpadded while the walk above only closes if the bytes are padded.
	for _, c := range chunks {
		switch c.id {
		case "PATT":
			if len(c.payload) != 1 {
				t.Errorf("PATT length = %d, want 1", len(c.payload))
			}
		case "SBOD":
			if len(c.payload) != 3 {
				t.Errorf("SBOD length = %d, want 3", len(c.payload))
			}
		}
	}
	if len(got) != 194 {
		t.Errorf("EncodeOKT() length = %d, want 194", len(got))
	}
}

func TestEncodeOKTChunkOrder(t *testing.T) {
	chunks := walkOKTChunks(t, EncodeOKT(oktTestSong()))

	want := []string{"CMOD", "SAMP", "SPEE", "SLEN", "PLEN", "PATT", "PBOD", "SBOD"}
	if len(chunks) != len(want) {
		t.Fatalf("chunk count = %d, want %d", len(chunks), len(want))
	}
	for i, c := range chunks {
		if c.id != want[i] {
			t.Errorf("chunk[%d] = %s, want %s", i, c.id, want[i])
		}
	}
}

func TestEncodeOKTEmptySong(t *testing.T) {
	for _, song := range []*Song{nil, {}} {
		got := EncodeOKT(song)
		chunks := walkOKTChunks(t, got)
		if len(chunks) != 6 {
			t.Fatalf("empty song chunk count = %d, want 6", len(chunks))
		}
		if !bytes.Equal(chunks[0].payload, []byte{0, 1, 0, 1, 0, 1, 0, 1}) {
			t.Errorf("CMOD payload = %v, want all pairs split", chunks[0].payload)
		}
	}
}

func TestOKTNote(t *testing.T) {
	tests := []struct {
		note int
		want byte
	}{
		{0, 0},
		{1, 0},
		{12, 0},
		{13, 1},
		{25, 13},
		{48, 36},
		{49, 0},
	}
	for _, tt := range tests {
		if got := oktNote(tt.note); got != tt.want {
			t.Errorf("oktNote(%d) = %d, want %d", tt.note, got, tt.want)
		}
	}
}

func TestOKTEffect(t *testing.T) {
	tests := []struct {
		name      string
		typ       byte
		param     byte
		wantCmd   byte
		wantParam byte
	}{
		{"porta up", effPortaUp, 0x05, oktCmdPortaUp, 0x05},
		{"porta down", effPortaDown, 0x03, oktCmdPortaDown, 0x03},
		{"tone porta", effTonePorta, 0x10, oktCmdTonePorta, 0x10},
		{"pos jump", effPosJump, 0x02, oktCmdPosJump, 0x02},
		{"set volume", effSetVolume, 0x20, oktCmdVolume, 0x20},
		{"set volume clamped", effSetVolume, 0x7F, oktCmdVolume, 0x40},
		{"set speed", effSetSpeed, 0x06, oktCmdSpeed, 0x06},
		{"vol slide up", effVolSlide, 0x30, oktCmdVolume, 0x53},
		{"vol slide down", effVolSlide, 0x04, oktCmdVolume, 0x44},
		{"vol slide empty", effVolSlide, 0x00, 0, 0},
		{"vibrato unmapped", 0x04, 0x12, 0, 0},
		{"no effect", 0, 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, param := oktEffect(tt.typ, tt.param)
			if cmd != tt.wantCmd || param != tt.wantParam {
				t.Errorf("oktEffect(%#02x, %#02x) = (%d, %#02x), want (%d, %#02x)",
					tt.typ, tt.param, cmd, param, tt.wantCmd, tt.wantParam)
			}
		})
	}
}

func TestEncodeOKTPatternBody(t *testing.T) {
	chunks := walkOKTChunks(t, EncodeOKT(oktTestSong()))

	var pbod []byte
	for _, c := range chunks {
		if c.id == "PBOD" {
			pbod = c.payload
		}
	}
	if pbod == nil {
		t.Fatal("no PBOD chunk in output")
	}
	if len(pbod) != 2+2*oktChannels*oktCellSize {
		t.Fatalf("PBOD length = %d, want %d", len(pbod), 2+2*oktChannels*oktCellSize)
	}
	if rows := binary.BigEndian.Uint16(pbod[0:2]); rows != 2 {
		t.Errorf("row count = %d, want 2", rows)
	}

	// Row 0 channel 0: note 13 -> index 1, instrument 3 -> sample 2,
	// speed effect passes through as command 28.
	if !bytes.Equal(pbod[2:6], []byte{1, 2, oktCmdSpeed, 6}) {
		t.Errorf("cell(0,0) = %v, want [1 2 28 6]", pbod[2:6])
	}
	// Row 1 channel 1: bare note, no sample number without an instrument.
	off := 2 + (oktChannels+1)*oktCellSize
	if !bytes.Equal(pbod[off:off+4], []byte{12, 0, 0, 0}) {
		t.Errorf("cell(1,1) = %v, want [12 0 0 0]", pbod[off:off+4])
	}
	// Channels beyond the song's two stay silent across both rows.
	for row := 0; row < 2; row++ {
		for ch := 2; ch < oktChannels; ch++ {
			off := 2 + (row*oktChannels+ch)*oktCellSize
			if !bytes.Equal(pbod[off:off+4], []byte{0, 0, 0, 0}) {
				t.Errorf("cell(%d,%d) = %v, want zeros", ch, row, pbod[off:off+4])
			}
		}
	}
}

func TestEncodeOKTSampleDescriptors(t *testing.T) {
	song := &Song{
		Instruments: []*Instrument{
			{
				Name:   "a name much longer than twenty bytes",
				Volume: 0.5,
				Sample: &Sample{Data: make([]int16, 5), LoopStart: 2, LoopEnd: 5},
			},
			nil,
			{Name: "lead", SynthType: SynthFM, Volume: 1.0},
		},
	}
	chunks := walkOKTChunks(t, EncodeOKT(song))

	var samp []byte
	sbods := 0
	for _, c := range chunks {
		switch c.id {
		case "SAMP":
			samp = c.payload
		case "SBOD":
			sbods++
		}
	}
	if len(samp) != 3*oktSampDescSize {
		t.Fatalf("SAMP length = %d, want %d", len(samp), 3*oktSampDescSize)
	}
	if sbods != 3 {
		t.Errorf("SBOD count = %d, want 3 (one per slot, empty or not)", sbods)
	}

	if got := string(samp[0:oktNameLen]); got != "a name much longer t" {
		t.Errorf("name = %q, want truncation to 20 bytes", got)
	}
	if n := binary.BigEndian.Uint32(samp[20:24]); n != 5 {
		t.Errorf("sample length = %d, want 5", n)
	}
	if ls := binary.BigEndian.Uint16(samp[24:26]); ls != 1 {
		t.Errorf("loop start words = %d, want 1", ls)
	}
	if ll := binary.BigEndian.Uint16(samp[26:28]); ll != 1 {
		t.Errorf("loop length words = %d, want 1", ll)
	}
	if vol := binary.BigEndian.Uint16(samp[28:30]); vol != 32 {
		t.Errorf("volume = %d, want 32", vol)
	}
	if mode := binary.BigEndian.Uint16(samp[30:32]); mode != 0 {
		t.Errorf("mode = %d, want 0", mode)
	}

	// Nil slot stays zeroed.
	if !bytes.Equal(samp[oktSampDescSize:2*oktSampDescSize], make([]byte, oktSampDescSize)) {
		t.Error("nil instrument slot is not zeroed")
	}
	// Sample-less slot carries its name but a zero length.
	off := 2 * oktSampDescSize
	if got := string(samp[off : off+4]); got != "lead" {
		t.Errorf("third slot name = %q, want %q", got, "lead")
	}
	if n := binary.BigEndian.Uint32(samp[off+20 : off+24]); n != 0 {
		t.Errorf("sample-less slot length = %d, want 0", n)
	}
}

func TestEncodeOKTInstrumentClamp(t *testing.T) {
	song := &Song{}
	for i := 0; i < 40; i++ {
		song.Instruments = append(song.Instruments, &Instrument{Name: "x"})
	}
	chunks := walkOKTChunks(t, EncodeOKT(song))

	sbods := 0
	for _, c := range chunks {
		switch c.id {
		case "SAMP":
			if len(c.payload) != oktMaxInstruments*oktSampDescSize {
				t.Errorf("SAMP length = %d, want %d", len(c.payload), oktMaxInstruments*oktSampDescSize)
			}
		case "SBOD":
			sbods++
		}
	}
	if sbods != oktMaxInstruments {
		t.Errorf("SBOD count = %d, want %d", sbods, oktMaxInstruments)
	}
}

func TestEncodeOKTIdempotent(t *testing.T) {
	song := oktTestSong()
	first := EncodeOKT(song)
	second := EncodeOKT(song)
	if !bytes.Equal(first, second) {
		t.Error("EncodeOKT() output differs between runs over the same song")
	}
}
