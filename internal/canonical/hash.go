package canonical

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity. The version suffix
// enables future algorithm migration without colliding with old hashes.
const (
	DomainIntent = "encore/intent/v1"
	DomainTrace  = "encore/trace/v1"
)

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data). The null separator prevents
// domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// IntentHash computes the content-addressed hash of an effect intent.
// Replay matching keys recorded effects by (effect_type, IntentHash(intent)),
// so structurally equal intents always produce the same hash regardless of
// map iteration order or string normalization form.
func IntentHash(intent map[string]any) (string, error) {
	data, err := Marshal(intent)
	if err != nil {
		return "", fmt.Errorf("IntentHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainIntent, data), nil
}

// MustIntentHash is like IntentHash but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustIntentHash(intent map[string]any) string {
	h, err := IntentHash(intent)
	if err != nil {
		panic(err)
	}
	return h
}
