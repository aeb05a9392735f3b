package model

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefix for content-addressed mitigator identity.
// Version suffix enables future algorithm migration.
const DomainMitigator = "ignis/mitigator/v1"

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data). The null byte prevents
// domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Fingerprint computes the content-addressed identity of a fitted mitigator.
// Two mitigators with identical fitted models, labels, and warnings share a
// fingerprint; it is stable across serialization round trips.
func (m *Mitigator) Fingerprint() (string, error) {
	canonical, err := MarshalCanonical(m)
	if err != nil {
		return "", fmt.Errorf("fingerprint: %w", err)
	}
	return hashWithDomain(DomainMitigator, canonical), nil
}

// MustFingerprint is like Fingerprint but panics on error.
// Use only in tests or when the mitigator is known to be valid.
func (m *Mitigator) MustFingerprint() string {
	fp, err := m.Fingerprint()
	if err != nil {
		panic(err)
	}
	return fp
}
