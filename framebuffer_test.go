package slizzai

import (
	"testing"

	"github.com/Slizzurp/SlizzAi-3/internal/partition"
)

func TestNewFrameBuffer_InvalidDimensions(t *testing.T) {
	if NewFrameBuffer(0, 10) != nil || NewFrameBuffer(10, -1) != nil {
		t.Fatal("non-positive dimensions must yield nil")
	}
}

func TestWriteRegion(t *testing.T) {
	f := NewFrameBuffer(8, 8)

	pix := make([]uint8, 2*2*4)
	for i := range pix {
		pix[i] = uint8(i + 1)
	}
	if !f.WriteRegion(partition.Rect{X: 3, Y: 2, W: 2, H: 2}, pix) {
		t.Fatal("in-bounds write rejected")
	}

	// Row 2 starts at pixel (3,2); its two pixels are the first 8 bytes.
	data := f.Data()
	base := (2*8 + 3) * 4
	for i := 0; i < 8; i++ {
		if data[base+i] != pix[i] {
			t.Fatalf("byte %d = %d, want %d", i, data[base+i], pix[i])
		}
	}
	// Second tile row lands one buffer row below.
	base = (3*8 + 3) * 4
	for i := 0; i < 8; i++ {
		if data[base+i] != pix[8+i] {
			t.Fatalf("row 2 byte %d = %d, want %d", i, data[base+i], pix[8+i])
		}
	}
	// Neighboring pixel untouched.
	if data[(2*8+2)*4] != 0 {
		t.Fatal("write leaked outside its region")
	}
}

func TestWriteRegion_Rejections(t *testing.T) {
	f := NewFrameBuffer(8, 8)
	ok2x2 := make([]uint8, 2*2*4)

	cases := []struct {
		name string
		r    partition.Rect
		pix  []uint8
	}{
		{"out of bounds x", partition.Rect{X: 7, Y: 0, W: 2, H: 2}, ok2x2},
		{"out of bounds y", partition.Rect{X: 0, Y: 7, W: 2, H: 2}, ok2x2},
		{"negative origin", partition.Rect{X: -1, Y: 0, W: 2, H: 2}, ok2x2},
		{"empty region", partition.Rect{X: 0, Y: 0, W: 0, H: 2}, nil},
		{"short payload", partition.Rect{X: 0, Y: 0, W: 2, H: 2}, make([]uint8, 15)},
		{"long payload", partition.Rect{X: 0, Y: 0, W: 2, H: 2}, make([]uint8, 17)},
	}
	for _, tc := range cases {
		if f.WriteRegion(tc.r, tc.pix) {
			t.Errorf("%s: write accepted, want rejected", tc.name)
		}
	}
	for _, b := range f.Data() {
		if b != 0 {
			t.Fatal("rejected writes mutated the buffer")
		}
	}
}

func TestToImage(t *testing.T) {
	f := NewFrameBuffer(4, 4)
	pix := make([]uint8, 4*4*4)
	for i := range pix {
		pix[i] = 0xAB
	}
	f.WriteRegion(partition.Rect{X: 0, Y: 0, W: 4, H: 4}, pix)

	img := f.ToImage()
	if img.Bounds().Dx() != 4 || img.Bounds().Dy() != 4 {
		t.Fatalf("image bounds %v, want 4x4", img.Bounds())
	}
	img.Pix[0] = 0
	if f.Data()[0] != 0xAB {
		t.Fatal("ToImage shares storage with the buffer")
	}
}
