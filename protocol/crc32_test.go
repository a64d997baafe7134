package protocol

import "testing"

func TestCRC32Vectors(t *testing.T) {
	cases := []struct {
		name string
		in   []byte
		want uint32
	}{
		{"empty", []byte{}, 0x00000000},
		{"check string", []byte("123456789"), 0xCBF43926},
		{"32 zero bytes", make([]byte, 32), 0x190A55AD},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := CRC32(c.in); got != c.want {
				t.Errorf("CRC32(%q) = %#08x, want %#08x", c.in, got, c.want)
			}
		})
	}
}
