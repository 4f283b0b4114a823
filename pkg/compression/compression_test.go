// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compression

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func testData() []byte {
	r := rand.New(rand.NewSource(1))
	b := make([]byte, 64<<10)
	r.Read(b[:16<<10])
	// The rest is compressible.
	copy(b[32<<10:], bytes.Repeat([]byte("mx28evk "), 4<<10))
	return b
}

var tests = []struct {
	name       string
	compressor Compressor
	file       string
}{
	{"lz4", &LZ4{}, "u-boot.bin.lz4"},
	{"xz", &XZ{}, "u-boot.bin.XZ"},
	{"zstd", &Zstd{}, "u-boot.bin.zst"},
	{"lzma", &LZMA{}, "u-boot.bin.lzma"},
}

func TestEncodeDecode(t *testing.T) {
	want := testData()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded, err := tt.compressor.Encode(want)
			require.NoError(t, err)
			require.Less(t, len(encoded), len(want))
			require.Equal(t, tt.compressor, Detect(encoded))

			got, err := tt.compressor.Decode(encoded)
			require.NoError(t, err)
			require.Equal(t, want, got)

			got, err = Decompress(encoded)
			require.NoError(t, err)
			require.Equal(t, want, got)
		})
	}
}

func TestCompressorFromFilename(t *testing.T) {
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.compressor, CompressorFromFilename(tt.file))
		})
	}
	require.Nil(t, CompressorFromFilename("u-boot.bin"))
}

func TestCompressorFromName(t *testing.T) {
	c, err := CompressorFromName("zstd")
	require.NoError(t, err)
	require.Equal(t, "ZSTD", c.Name())

	_, err = CompressorFromName("brotli")
	require.Error(t, err)
}

func TestDecompressPlain(t *testing.T) {
	plain := []byte{0xea, 0x00, 0x00, 0xea}
	got, err := Decompress(plain)
	require.NoError(t, err)
	require.Equal(t, plain, got)

	_, err = Decompress(append(append([]byte(nil), XZMagic...), 1, 2, 3))
	require.Error(t, err)
}
