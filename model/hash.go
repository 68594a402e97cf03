package model

import "github.com/minio/highwayhash"

// fingerprintKey is a fixed 32-byte key, following the same pattern as
// the teacher's inspector/graph.Hash: a stable key is sufficient here
// since fingerprints are used for same-run/next-run diffing, not as a
// cryptographic commitment.
var fingerprintKey = []byte("carrick-fingerprint-key-32bytes!")

// Fingerprint hashes a span's raw source text into a stable uint64,
// attached to every AbsoluteEndpoint/Call so an embedding host's cache
// can diff two runs without byte-comparing the whole serialized result.
func Fingerprint(span Span, raw string) uint64 {
	h, err := highwayhash.New64(fingerprintKey)
	if err != nil {
		// fingerprintKey is a fixed 32-byte constant; New64 only errors
		// on key length, so this is unreachable in practice.
		return 0
	}
	_, _ = h.Write([]byte(span.String()))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(raw))
	return h.Sum64()
}
