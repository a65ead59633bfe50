package container

import (
	"bytes"
	"crypto/cipher"
	"encoding/binary"
	"encoding/json"

	"github.com/klauspost/compress/zlib"
	"golang.org/x/crypto/blowfish"
)

// Encrypt is the inverse of decrypt: it prepends a throwaway IV-seed block
// and CBC-encrypts with the fixed replay key. Exported for round-trip tests
// (spec §8); Encode uses it to build synthetic containers.
func Encrypt(plaintext []byte) ([]byte, error) {
	block, err := blowfish.NewCipher(replayKey)
	if err != nil {
		return nil, err
	}

	padded := make([]byte, blowfish.BlockSize+len(plaintext))
	copy(padded[blowfish.BlockSize:], plaintext)
	if rem := len(padded) % blowfish.BlockSize; rem != 0 {
		padded = append(padded, make([]byte, blowfish.BlockSize-rem)...)
	}

	iv := make([]byte, blowfish.BlockSize)
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out, padded)
	return out, nil
}

// Compress wraps data in a zlib stream, the inverse of decompress.
func Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Encode assembles a well-formed container byte stream from a metadata
// record and a plaintext frame stream. It is the test/fixture counterpart
// to Decode.
func Encode(meta Metadata, frames []byte) ([]byte, error) {
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return nil, err
	}

	compressed, err := Compress(frames)
	if err != nil {
		return nil, err
	}
	encrypted, err := Encrypt(compressed)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.Write(magic[:])
	_ = binary.Write(&buf, binary.LittleEndian, uint32(1))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(len(metaJSON)))
	buf.Write(metaJSON)
	buf.Write(encrypted)
	return buf.Bytes(), nil
}
