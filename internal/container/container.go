// Package container decodes the outermost replay file format: a magic
// header, one or more JSON metadata blocks, and an encrypted, compressed
// payload of raw network frames.
package container

import (
	"bytes"
	"crypto/cipher"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
	"golang.org/x/crypto/blowfish"
)

// Sentinel errors for the container decode stage (spec §7: fatal at
// container).
var (
	ErrShortHeader  = errors.New("container: short header")
	ErrBadMagic     = errors.New("container: bad magic")
	ErrJSONParse    = errors.New("container: malformed metadata JSON")
	ErrCrypto       = errors.New("container: payload is not a multiple of the cipher block size")
	ErrCompression  = errors.New("container: decompression failed")
)

var magic = [4]byte{0x12, 0x32, 0x34, 0x11}

// replayKey is the fixed symmetric key the client embeds for this build
// line. Real deployments key this off the metadata's build version; this
// package uses this one key for every replay.
var replayKey = []byte{
	0x29, 0xB7, 0xC9, 0x09, 0x38, 0x3F, 0x84, 0x88,
	0xFA, 0x98, 0xEC, 0x4E, 0x13, 0x19, 0x79, 0xFB,
}

// Vehicle is one roster entry in the match metadata.
type Vehicle struct {
	ShipId   int64  `json:"shipId"`
	Relation int    `json:"relation"`
	Id       int64  `json:"id"`
	Name     string `json:"name"`
}

// Metadata is the first, authoritative JSON block: match configuration and
// player roster (spec §3's ReplayContainer metadata, spec §6's block
// format).
type Metadata struct {
	MatchGroup           string              `json:"matchGroup"`
	GameMode             int                 `json:"gameMode"`
	ClientVersionFromExe string              `json:"clientVersionFromExe"`
	MapDisplayName       string              `json:"mapDisplayName"`
	MapId                int                 `json:"mapId"`
	MapName              string              `json:"mapName"`
	PlayersPerTeam       int                 `json:"playersPerTeam"`
	Duration             int                 `json:"duration"`
	GameLogic            string              `json:"gameLogic"`
	Name                 string              `json:"name"`
	Scenario             string              `json:"scenario"`
	PlayerID             int64               `json:"playerID"`
	PlayerName           string              `json:"playerName"`
	Vehicles             []Vehicle           `json:"vehicles"`
	GameType             string              `json:"gameType"`
	DateTime             string              `json:"dateTime"`
	WeatherParams        map[string][]string `json:"weatherParams"`
}

// Container holds the decoded metadata blocks and the decompressed frame
// stream ready for the packet framer.
type Container struct {
	Meta      Metadata
	RawBlocks [][]byte
	Frames    []byte
}

// Decode authenticates the header, parses the metadata blocks, decrypts and
// decompresses the payload. It never touches the frame stream's internal
// structure — that is the packet framer's job.
func Decode(data []byte) (*Container, error) {
	if len(data) < 8 {
		return nil, ErrShortHeader
	}
	if !bytes.Equal(data[:4], magic[:]) {
		return nil, fmt.Errorf("%w: got %x", ErrBadMagic, data[:4])
	}

	blockCount := binary.LittleEndian.Uint32(data[4:8])
	offset := 8
	blocks := make([][]byte, 0, blockCount)
	for i := uint32(0); i < blockCount; i++ {
		if offset+4 > len(data) {
			return nil, ErrShortHeader
		}
		blockLen := int(binary.LittleEndian.Uint32(data[offset : offset+4]))
		offset += 4
		if offset+blockLen > len(data) {
			return nil, ErrShortHeader
		}
		blocks = append(blocks, data[offset:offset+blockLen])
		offset += blockLen
	}
	if len(blocks) == 0 {
		return nil, ErrShortHeader
	}

	var meta Metadata
	if err := json.Unmarshal(blocks[0], &meta); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrJSONParse, err)
	}

	plaintext, err := decrypt(data[offset:])
	if err != nil {
		return nil, err
	}

	frames, err := decompress(plaintext)
	if err != nil {
		return nil, err
	}

	return &Container{Meta: meta, RawBlocks: blocks, Frames: frames}, nil
}

// decrypt reverses the client's Blowfish-CBC encryption of the payload: a
// zero IV, the fixed replayKey, and a throwaway first plaintext block (it
// never carries real data — it exists only to seed the chain).
func decrypt(ciphertext []byte) ([]byte, error) {
	if len(ciphertext) == 0 || len(ciphertext)%blowfish.BlockSize != 0 {
		return nil, ErrCrypto
	}

	block, err := blowfish.NewCipher(replayKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCrypto, err)
	}

	iv := make([]byte, blowfish.BlockSize)
	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, ciphertext)

	return plaintext[blowfish.BlockSize:], nil
}

func decompress(plaintext []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(plaintext))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCompression, err)
	}
	defer r.Close()

	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCompression, err)
	}
	return out, nil
}
