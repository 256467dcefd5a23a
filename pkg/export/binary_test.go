package export

import (
	"bytes"
	"testing"
)

func TestPutU16BE(t *testing.T) {
	buf := make([]byte, 4)
	putU16BE(buf, 1, 0x1234)

	want := []byte{0x00, 0x12, 0x34, 0x00}
	if !bytes.Equal(buf, want) {
		t.Errorf("putU16BE() buffer = % 02X, want % 02X", buf, want)
	}
}

func TestPutU32BE(t *testing.T) {
	buf := make([]byte, 6)
	putU32BE(buf, 2, 0xDEADBEEF)

	want := []byte{0x00, 0x00, 0xDE, 0xAD, 0xBE, 0xEF}
	if !bytes.Equal(buf, want) {
		t.Errorf("putU32BE() buffer = % 02X, want % 02X", buf, want)
	}
}

func TestPutFixedString(t *testing.T) {
	tests := []struct {
		name string
		s    string
		n    int
		want []byte
	}{
		{"exact fit", "OKTA", 4, []byte("OKTA")},
		{"zero padded", "hi", 4, []byte{'h', 'i', 0, 0}},
		{"truncated", "oversized", 4, []byte("over")},
		{"raw high bytes", "\xffA", 3, []byte{0xFF, 'A', 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := bytes.Repeat([]byte{0xAA}, tt.n+2)
			putFixedString(buf, 1, tt.n, tt.s)
			if !bytes.Equal(buf[1:1+tt.n], tt.want) {
				t.Errorf("putFixedString(%q) = % 02X, want % 02X", tt.s, buf[1:1+tt.n], tt.want)
			}
			if buf[0] != 0xAA || buf[1+tt.n] != 0xAA {
				t.Error("putFixedString() wrote outside its window")
			}
		})
	}
}

func TestPCM16To8(t *testing.T) {
	in := []int16{-32768, -256, -1, 0, 255, 256, 32767}
	want := []byte{0, 127, 127, 128, 128, 129, 255}

	got := pcm16to8(in)
	if len(got) != len(in) {
		t.Fatalf("pcm16to8() length = %d, want %d", len(got), len(in))
	}
	if !bytes.Equal(got, want) {
		t.Errorf("pcm16to8() = %v, want %v", got, want)
	}
}

func TestPCM16To8Range(t *testing.T) {
	in := make([]int16, 512)
	for i := range in {
		in[i] = int16((i - 256) * 128)
	}

	got := pcm16to8(in)
	if len(got) != len(in) {
		t.Fatalf("pcm16to8() length = %d, want %d", len(got), len(in))
	}
	// The byte type already bounds the range; check the mapping stays
	// monotonic across it.
	for i := 1; i < len(got); i++ {
		if got[i] < got[i-1] {
			t.Fatalf("pcm16to8() not monotonic at %d: %d then %d", i, got[i-1], got[i])
		}
	}
}

func TestEvenLen(t *testing.T) {
	tests := []struct {
		n, want int
	}{
		{0, 0}, {1, 2}, {2, 2}, {7, 8}, {100, 100},
	}
	for _, tt := range tests {
		if got := evenLen(tt.n); got != tt.want {
			t.Errorf("evenLen(%d) = %d, want %d", tt.n, got, tt.want)
		}
	}
}

func TestClampByte(t *testing.T) {
	tests := []struct {
		v    int
		want byte
	}{
		{-5, 0}, {0, 0}, {64, 64}, {255, 255}, {300, 255},
	}
	for _, tt := range tests {
		if got := clampByte(tt.v); got != tt.want {
			t.Errorf("clampByte(%d) = %d, want %d", tt.v, got, tt.want)
		}
	}
}

func TestPeriodForNote(t *testing.T) {
	tests := []struct {
		name string
		note int
		want uint16
	}{
		{"C-1 baseline", 13, 856},
		{"A-1", 22, 508},
		{"B-3 top", 48, 113},
		{"below table", 12, 0},
		{"above table", 49, 0},
		{"no note", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := periodForNote(tt.note); got != tt.want {
				t.Errorf("periodForNote(%d) = %d, want %d", tt.note, got, tt.want)
			}
		})
	}
}

func TestEffectChar(t *testing.T) {
	tests := []struct {
		typ  byte
		want byte
	}{
		{0, '0'}, {9, '9'}, {10, 'A'}, {15, 'F'}, {35, 'Z'}, {36, '0'}, {200, '0'},
	}
	for _, tt := range tests {
		if got := effectChar(tt.typ); got != tt.want {
			t.Errorf("effectChar(%d) = %c, want %c", tt.typ, got, tt.want)
		}
	}
}
