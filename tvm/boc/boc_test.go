package boc

import "testing"

func TestFlags(t *testing.T) {
	tests := []struct {
		name    string
		flags   Flags
		refSize int
		want    byte
	}{
		{"plain", Flags{}, 1, 0x01},
		{"crc", Flags{HasCrc32c: true}, 1, 0x41},
		{"idx crc", Flags{HasIndex: true, HasCrc32c: true}, 2, 0xC2},
		{"all", Flags{HasIndex: true, HasCrc32c: true, HasCacheBits: true}, 4, 0xE4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := tt.flags.Byte(tt.refSize)
			if b != tt.want {
				t.Fatalf("Byte() = %02x, want %02x", b, tt.want)
			}

			f, sz := ParseFlags(b)
			if f != tt.flags || sz != tt.refSize {
				t.Fatalf("ParseFlags() = %+v %d, want %+v %d", f, sz, tt.flags, tt.refSize)
			}
		})
	}
}

func TestParseFlags_Reserved(t *testing.T) {
	// reserved bits 4 and 3 set
	f, sz := ParseFlags(0b01011010)
	if f != (Flags{HasCrc32c: true}) || sz != 2 {
		t.Fatalf("ParseFlags() = %+v %d", f, sz)
	}

	if b := f.Byte(sz); b != 0b01000010 {
		t.Fatalf("reserved bits should not be written back, got %08b", b)
	}

	// index width is masked to 3 bits
	if b := (Flags{}).Byte(9); b != 0x01 {
		t.Fatalf("Byte() = %02x, want 01", b)
	}
}
