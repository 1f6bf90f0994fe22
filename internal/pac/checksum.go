package pac

import (
	"errors"
	"fmt"

	"github.com/opencontainers/go-digest"
)

var (
	// ErrChecksumMismatch is returned when payload bytes do not hash to the
	// stored checksum.
	ErrChecksumMismatch = errors.New("pac: checksum mismatch")

	// ErrNoChecksum is returned when the stored checksum is all zeros.
	ErrNoChecksum = errors.New("pac: no checksum recorded")
)

// VerifyChecksum compares the SHA-256 of data with a stored checksum.
func VerifyChecksum(data []byte, sum [ChecksumSize]byte) error {
	if sum == [ChecksumSize]byte{} {
		return ErrNoChecksum
	}

	want := digest.NewDigestFromBytes(digest.SHA256, sum[:])
	got := digest.SHA256.FromBytes(data)
	if got != want {
		return fmt.Errorf("%w: expected %s, got %s", ErrChecksumMismatch, want.Encoded(), got.Encoded())
	}

	return nil
}
