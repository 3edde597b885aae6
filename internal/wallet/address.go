package wallet

import (
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/sha3"
)

// CanonicalAddress maps equivalent spellings of an account id onto one
// ledger key. A 0x-prefixed 20-byte hex address is rewritten in EIP-55
// checksum case; anything else (member ids, system accounts) is returned
// trimmed but otherwise untouched.
func CanonicalAddress(id string) string {
	id = strings.TrimSpace(id)
	if len(id) != 42 || !(strings.HasPrefix(id, "0x") || strings.HasPrefix(id, "0X")) {
		return id
	}
	lower := strings.ToLower(id[2:])
	if _, err := hex.DecodeString(lower); err != nil {
		return id
	}

	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(lower))
	digest := h.Sum(nil)

	out := make([]byte, 0, 42)
	out = append(out, '0', 'x')
	for i := 0; i < len(lower); i++ {
		c := lower[i]
		nibble := digest[i/2]
		if i%2 == 0 {
			nibble >>= 4
		} else {
			nibble &= 0x0f
		}
		if c >= 'a' && c <= 'f' && nibble >= 8 {
			c -= 'a' - 'A'
		}
		out = append(out, c)
	}
	return string(out)
}

// ShortAddress renders an address the way the history table shows it
// (0x7bC...7381f). Short ids are returned as-is.
func ShortAddress(id string) string {
	if len(id) <= 13 {
		return id
	}
	return id[:5] + "..." + id[len(id)-5:]
}
