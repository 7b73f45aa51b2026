package checksum

import (
	"crypto/sha256"
	"encoding/hex"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Note returns the digest used as a note's ETag. Title and content are
// separated by a NUL byte so that moving text between them changes the sum.
func Note(title, content string) string {
	buf := make([]byte, 0, len(title)+len(content)+1)
	buf = append(buf, title...)
	buf = append(buf, 0)
	buf = append(buf, content...)
	return Sum(buf)
}
