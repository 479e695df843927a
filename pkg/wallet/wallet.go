/**
 * @description
 * This package derives the deposit/payout blockchain address presented to a
 * transfer counterparty. Derivation is deterministic: the same key material
 * always yields the same EIP-55 checksummed address, so retried initiations
 * observe a stable transferAddress.
 *
 * @dependencies
 * - golang.org/x/crypto/sha3: Keccak-256, used both for address derivation and
 *   for the EIP-55 checksum casing.
 */

package wallet

import (
	"encoding/hex"
	"errors"
	"strings"

	"golang.org/x/crypto/sha3"
)

// ErrEmptyKeyMaterial is returned when no private key material is configured
// for the requested direction.
var ErrEmptyKeyMaterial = errors.New("wallet: empty key material")

// Deriver resolves opaque private key material to a public blockchain address.
type Deriver interface {
	DeriveAddress(keyMaterial string) (string, error)
}

// KeccakDeriver derives Ethereum-format addresses from hex key material.
type KeccakDeriver struct{}

// NewKeccakDeriver returns the default deriver.
func NewKeccakDeriver() *KeccakDeriver {
	return &KeccakDeriver{}
}

// DeriveAddress maps key material to a stable 20-byte address rendered with the
// EIP-55 mixed-case checksum. Key material may carry a 0x prefix.
func (d *KeccakDeriver) DeriveAddress(keyMaterial string) (string, error) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(keyMaterial), "0x")
	if trimmed == "" {
		return "", ErrEmptyKeyMaterial
	}

	material, err := hex.DecodeString(trimmed)
	if err != nil {
		return "", errors.New("wallet: key material must be hex encoded")
	}

	digest := keccak256(material)
	// Address is the last 20 bytes of the digest, per the Ethereum convention.
	return checksumAddress(digest[12:]), nil
}

func keccak256(data []byte) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	return h.Sum(nil)
}

// checksumAddress applies EIP-55 casing: each hex letter is uppercased when the
// corresponding nibble of keccak256(lowercase address) is >= 8.
func checksumAddress(addr []byte) string {
	lower := hex.EncodeToString(addr)
	digest := keccak256([]byte(lower))

	out := make([]byte, len(lower))
	for i := 0; i < len(lower); i++ {
		c := lower[i]
		if c >= 'a' && c <= 'f' {
			nibble := digest[i/2]
			if i%2 == 0 {
				nibble >>= 4
			}
			if nibble&0x0f >= 8 {
				c = c - 'a' + 'A'
			}
		}
		out[i] = c
	}
	return "0x" + string(out)
}
