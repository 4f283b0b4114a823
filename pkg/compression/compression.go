// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package compression unpacks boot images which were stored compressed.
//
// The format is recognized from the stream's magic number or, when
// writing, from the file name extension.
package compression

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
)

// Compressor defines a single compression scheme (such as XZ).
type Compressor interface {
	// Name is the short name of the scheme.
	Name() string

	// Decode and Encode obey "x == Decode(Encode(x))".
	Decode(encodedData []byte) ([]byte, error)
	Encode(decodedData []byte) ([]byte, error)
}

// Stream magic numbers. LZMA has none; LZMAMagic matches the header of
// streams written with the default properties and an 8 MiB dictionary.
var (
	LZ4Magic  = []byte{0x04, 0x22, 0x4d, 0x18}
	XZMagic   = []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}
	ZstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
	LZMAMagic = []byte{0x5d, 0x00, 0x00, 0x80, 0x00}
)

var compressors = []struct {
	magic []byte
	ext   string
	c     Compressor
}{
	{LZ4Magic, ".lz4", &LZ4{}},
	{XZMagic, ".xz", &XZ{}},
	{ZstdMagic, ".zst", &Zstd{}},
	{LZMAMagic, ".lzma", &LZMA{}},
}

// Detect returns the Compressor matching the magic number of data, or nil
// if data is not compressed in a known format.
func Detect(data []byte) Compressor {
	for _, entry := range compressors {
		if bytes.HasPrefix(data, entry.magic) {
			return entry.c
		}
	}
	return nil
}

// CompressorFromName returns the Compressor with the given name. Names are
// case insensitive.
func CompressorFromName(name string) (Compressor, error) {
	for _, entry := range compressors {
		if strings.EqualFold(entry.c.Name(), name) {
			return entry.c, nil
		}
	}
	return nil, fmt.Errorf("unknown compression '%s'", name)
}

// CompressorFromFilename returns the Compressor for the file extension, or
// nil for an uncompressed file.
func CompressorFromFilename(path string) Compressor {
	ext := strings.ToLower(filepath.Ext(path))
	for _, entry := range compressors {
		if entry.ext == ext {
			return entry.c
		}
	}
	return nil
}

// Decompress decodes data if it is compressed and returns it unchanged
// otherwise.
func Decompress(data []byte) ([]byte, error) {
	c := Detect(data)
	if c == nil {
		return data, nil
	}
	decoded, err := c.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("unable to decode %s data: %w", c.Name(), err)
	}
	return decoded, nil
}
