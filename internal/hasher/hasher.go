package hasher

import (
	"fmt"
	"io"

	"github.com/cespare/xxhash/v2"
)

// FingerprintLen is the number of hex chars kept from a 64-bit digest.
const FingerprintLen = 16

// Fingerprint returns the xxHash64 of data as 16 lowercase hex chars.
// Used to identify decoded sources and finished outputs.
func Fingerprint(data []byte) string {
	return fmt.Sprintf("%016x", xxhash.Sum64(data))
}

// FingerprintReader is Fingerprint over a stream.
func FingerprintReader(r io.Reader) (string, error) {
	h := xxhash.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return fmt.Sprintf("%016x", h.Sum64()), nil
}

// Key folds parts into a single digest. Parts are separated by a zero
// byte so ("ab", "c") and ("a", "bc") never collide.
func Key(parts ...string) uint64 {
	h := xxhash.New()
	for _, p := range parts {
		_, _ = h.WriteString(p)
		_, _ = h.Write([]byte{0})
	}
	return h.Sum64()
}
