package hasher

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash/crc32"
)

// Digest returns the lowercase hex SHA-256 of data.
// This is the stored hash field and the value uploads are verified against,
// so it must always be computed over the exact bytes written to disk.
func Digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Checksum returns the CRC-32 (IEEE) of data as 8 hex digits.
// Cheap corruption detection only, never a security decision.
func Checksum(data []byte) string {
	return fmt.Sprintf("%08x", crc32.ChecksumIEEE(data))
}
