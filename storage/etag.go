package storage

import (
	"crypto/sha1"
	"encoding/base64"
	"io"
	"os"
)

// Kodo etag scheme: content is split into 4MB blocks, each block is SHA-1
// hashed. Single-block content is tagged 0x16 followed by the block hash;
// multi-block content is tagged 0x96 followed by the SHA-1 of the
// concatenated block hashes. The result is URL-safe base64.
const etagBlockSize = 1 << 22

func EtagFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return EtagReader(f)
}

func EtagReader(r io.Reader) (string, error) {
	h := sha1.New()
	blocks := 0
	var sums []byte

	for {
		h.Reset()
		n, err := io.CopyN(h, r, etagBlockSize)
		if n > 0 || blocks == 0 {
			sums = append(sums, h.Sum(nil)...)
			blocks++
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
	}

	if blocks == 1 {
		return base64.URLEncoding.EncodeToString(append([]byte{0x16}, sums...)), nil
	}
	top := sha1.Sum(sums)
	return base64.URLEncoding.EncodeToString(append([]byte{0x96}, top[:]...)), nil
}
