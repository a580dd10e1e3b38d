package table

import (
	"bytes"
	"fmt"
)

// DecodeEntry unpacks width/4 words into width bytes. Each word is split
// big-endian, the most significant byte first.
func DecodeEntry(words []uint32, width uint32) ([]byte, error) {
	if err := validateWidth(width); err != nil {
		return nil, err
	}

	dst := make([]byte, width)
	if err := DecodeEntryInto(dst, words); err != nil {
		return nil, err
	}

	return dst, nil
}

// DecodeEntryInto unpacks words into dst without allocating. The length of
// dst is the entry byte width.
func DecodeEntryInto(dst []byte, words []uint32) error {
	if len(dst)%BytesPerWord != 0 {
		return &MalformedHeaderError{
			Field:  "entry_byte_width",
			Value:  uint32(len(dst)),
			Reason: "must be a multiple of 4",
		}
	}

	n := len(dst) / BytesPerWord
	if len(words) < n {
		return fmt.Errorf("entry needs %d words, got %d", n, len(words))
	}

	for i := 0; i < n; i++ {
		w := words[i]
		dst[4*i+0] = byte(w >> 24)
		dst[4*i+1] = byte(w >> 16)
		dst[4*i+2] = byte(w >> 8)
		dst[4*i+3] = byte(w)
	}

	return nil
}

// EncodeEntry packs bytes into words, 4 bytes per word with the first byte
// in the most significant position.
func EncodeEntry(b []byte) ([]uint32, error) {
	if len(b)%BytesPerWord != 0 {
		return nil, fmt.Errorf(
			"entry length %d is not a multiple of 4", len(b))
	}

	dst := make([]uint32, len(b)/BytesPerWord)
	if err := EncodeEntryInto(dst, b); err != nil {
		return nil, err
	}

	return dst, nil
}

// EncodeEntryInto packs b into dst without allocating.
func EncodeEntryInto(dst []uint32, b []byte) error {
	if len(b)%BytesPerWord != 0 {
		return fmt.Errorf(
			"entry length %d is not a multiple of 4", len(b))
	}

	n := len(b) / BytesPerWord
	if len(dst) < n {
		return fmt.Errorf("entry needs %d words, got %d", n, len(dst))
	}

	for i := 0; i < n; i++ {
		dst[i] = uint32(b[4*i])<<24 |
			uint32(b[4*i+1])<<16 |
			uint32(b[4*i+2])<<8 |
			uint32(b[4*i+3])
	}

	return nil
}

// TrimEntry returns the bytes of a string entry up to the first NUL.
func TrimEntry(b []byte) []byte {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		return b[:i]
	}

	return b
}
