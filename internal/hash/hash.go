// Package hash computes the content-address token attached to every row an
// indexing pass persists (§4.3).
package hash

import (
	"crypto/md5"
	"encoding/hex"
)

// Hash returns the lowercase hex MD5 digest of source. MD5 is chosen for
// speed, not security: the only property relied on is that equal inputs
// yield equal digests.
func Hash(source []byte) string {
	sum := md5.Sum(source)
	return hex.EncodeToString(sum[:])
}
