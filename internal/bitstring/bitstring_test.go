package bitstring

import (
	"bytes"
	"testing"
)

func TestRoundTrip(t *testing.T) {
	cases := [][]byte{
		{},
		{0x00},
		{0xff},
		{0xde, 0xad, 0xbe, 0xef},
		bytes.Repeat([]byte{0x5a}, 32),
	}
	for _, c := range cases {
		enc := Encode(c)
		bits, err := Decode(enc, 8*len(c))
		if err != nil {
			t.Fatalf("decode(%q): %v", enc, err)
		}
		if got := bits.Bytes(); !bytes.Equal(got, c) {
			t.Errorf("round trip: got %x want %x", got, c)
		}
	}
}

func TestDecodeRejectsInvalidCharacter(t *testing.T) {
	if _, err := Decode("abc!def", 40); err == nil {
		t.Fatal("expected error for invalid character")
	}
}

func TestDecodeNeverPanics(t *testing.T) {
	inputs := []string{"", "0", "!!!!", "AAAA====", "\x00\x01\x02"}
	for _, in := range inputs {
		_, _ = Decode(in, 64)
	}
}

func TestMaxBitsTruncates(t *testing.T) {
	enc := Encode([]byte{0xff, 0xff, 0xff, 0xff})
	bits, err := Decode(enc, 3)
	if err != nil {
		t.Fatal(err)
	}
	if bits.Len() != 3 {
		t.Fatalf("expected 3 bits, got %d", bits.Len())
	}
}

func TestIncrementOverflow(t *testing.T) {
	bits, _ := Decode("77777777", 40)
	if !bits.All() {
		t.Fatalf("expected all-ones bit sequence")
	}
	_, overflow := bits.Increment()
	if !overflow {
		t.Fatal("expected overflow incrementing all-ones sequence")
	}
}
