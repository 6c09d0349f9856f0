package cell

import "testing"

func TestLevelMask(t *testing.T) {
	tests := []struct {
		mask      byte
		level     int
		hashIndex int
		sign      [4]bool
	}{
		{0b000, 0, 0, [4]bool{true, false, false, false}},
		{0b001, 1, 1, [4]bool{true, true, false, false}},
		{0b010, 2, 1, [4]bool{true, false, true, false}},
		{0b101, 3, 2, [4]bool{true, true, false, true}},
		{0b111, 3, 3, [4]bool{true, true, true, true}},
	}

	for _, tt := range tests {
		m := LevelMask{tt.mask}
		if m.GetLevel() != tt.level {
			t.Fatalf("mask %03b: level %d, want %d", tt.mask, m.GetLevel(), tt.level)
		}
		if m.getHashIndex() != tt.hashIndex {
			t.Fatalf("mask %03b: hash index %d, want %d", tt.mask, m.getHashIndex(), tt.hashIndex)
		}
		for lvl := 0; lvl <= MaxLevel; lvl++ {
			if m.IsSignificant(lvl) != tt.sign[lvl] {
				t.Fatalf("mask %03b: significance of %d incorrect", tt.mask, lvl)
			}
		}
	}

	if (LevelMask{0b111}).Apply(2).Mask != 0b011 {
		t.Fatal("apply incorrect")
	}
	if (LevelMask{0b101}).Apply(0).Mask != 0 {
		t.Fatal("apply 0 incorrect")
	}
}
