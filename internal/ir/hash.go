package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// DomainOutput prefixes the content hash of converted documents.
// The version suffix leaves room for a later algorithm change.
const DomainOutput = "qppconv/output/v1"

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Hash returns the content hash of v's canonical form under domain.
func Hash(domain string, v Value) (string, error) {
	canonical, err := Marshal(v)
	if err != nil {
		return "", fmt.Errorf("Hash: failed to marshal: %w", err)
	}
	return hashWithDomain(domain, canonical), nil
}

// OutputHash is the content hash recorded for a converted document.
func OutputHash(v Value) (string, error) {
	return Hash(DomainOutput, v)
}
