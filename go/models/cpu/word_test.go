package cpu

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/pkg/errors"

	"github.com/snapcorn/snapcorn/go/models"
)

func TestWords(t *testing.T) {
	tests := []struct {
		order binary.ByteOrder
		n     uint64
		size  int
		want  []byte
	}{
		{binary.LittleEndian, 0x0102, 2, []byte{2, 1}},
		{binary.BigEndian, 0x0102, 2, []byte{1, 2}},
		{binary.LittleEndian, 0x010203, 3, []byte{3, 2, 1}},
		{binary.BigEndian, 0xaabbccdd11223344, 8, []byte{0xaa, 0xbb, 0xcc, 0xdd, 0x11, 0x22, 0x33, 0x44}},
		// truncated to size
		{binary.LittleEndian, 0x1ff, 1, []byte{0xff}},
	}
	for _, tt := range tests {
		p, err := packWord(tt.order, tt.n, tt.size)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(p, tt.want) {
			t.Errorf("packWord(%#x, %d) = %x, want %x", tt.n, tt.size, p, tt.want)
		}
		n, err := unpackWord(tt.order, p)
		if err != nil {
			t.Fatal(err)
		}
		if want := tt.n & (^uint64(0) >> (64 - 8*uint(tt.size))); n != want {
			t.Errorf("unpackWord(%x) = %#x, want %#x", p, n, want)
		}
	}
}

func TestWordSizes(t *testing.T) {
	if _, err := packWord(binary.LittleEndian, 1, 9); errors.Cause(err) != models.ErrInvalidSize {
		t.Errorf("packWord 9 bytes: %v", err)
	}
	if _, err := unpackWord(binary.LittleEndian, nil); errors.Cause(err) != models.ErrInvalidSize {
		t.Errorf("unpackWord empty: %v", err)
	}
}
