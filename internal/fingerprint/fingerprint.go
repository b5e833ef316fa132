// Package fingerprint normalizes sequence payloads and computes the content
// checksums used as deduplication keys.
package fingerprint

import (
	"bytes"
	"crypto/sha1"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// Algorithm names a checksum function.
type Algorithm string

const (
	// SEGUID is base64(SHA-1) with the '=' padding removed.
	SEGUID  Algorithm = "seguid"
	BLAKE2b Algorithm = "blake2b"
)

// Options control normalization. Both apply before hashing.
type Options struct {
	Strip string // trailing characters to remove
	Upper bool
}

// IsZero reports whether o leaves payloads unchanged.
func (o Options) IsZero() bool { return o.Strip == "" && !o.Upper }

// Normalize returns a normalized copy of payload.
func Normalize(payload []byte, o Options) []byte {
	p := payload
	if o.Strip != "" {
		p = bytes.TrimRight(p, o.Strip)
	}
	out := make([]byte, len(p))
	copy(out, p)
	if o.Upper {
		for i, c := range out {
			if 'a' <= c && c <= 'z' {
				out[i] = c - ('a' - 'A')
			}
		}
	}
	return out
}

// Func computes a checksum of an already normalized payload.
type Func func(payload []byte) string

// New returns the checksum function for alg. The empty name selects SEGUID.
func New(alg Algorithm) (Func, error) {
	switch Algorithm(strings.ToLower(string(alg))) {
	case "", SEGUID:
		return Seguid, nil
	case BLAKE2b:
		return Blake2b, nil
	}
	return nil, fmt.Errorf("unknown checksum algorithm %q (want %s or %s)", alg, SEGUID, BLAKE2b)
}

// Seguid is the SEGUID checksum of payload.
func Seguid(payload []byte) string {
	sum := sha1.Sum(payload)
	return base64.RawStdEncoding.EncodeToString(sum[:])
}

// Blake2b is the unpadded base64 BLAKE2b-256 digest of payload.
func Blake2b(payload []byte) string {
	sum := blake2b.Sum256(payload)
	return base64.RawStdEncoding.EncodeToString(sum[:])
}
