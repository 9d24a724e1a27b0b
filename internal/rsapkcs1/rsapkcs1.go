// Package rsapkcs1 verifies RSASSA-PKCS1-v1_5 signatures by hand: modular
// exponentiation via math/big plus an explicit padding-structure check,
// rather than crypto/rsa, since re-deriving the verification arithmetic is
// the point of this package.
package rsapkcs1

import (
	"bytes"
	"math/big"
)

// digestInfoPrefixes are the fixed DER-encoded
// "SEQUENCE{SEQUENCE{OID,NULL},OCTET STRING}" prefixes PKCS#1 v1.5 prepends
// to a raw digest before padding, keyed by the digest's dotted OID.
var digestInfoPrefixes = map[string][]byte{
	"1.3.14.3.2.26": { // sha1
		0x30, 0x21, 0x30, 0x09, 0x06, 0x05, 0x2b, 0x0e, 0x03, 0x02, 0x1a,
		0x05, 0x00, 0x04, 0x14,
	},
	"2.16.840.1.101.3.4.2.1": { // sha256
		0x30, 0x31, 0x30, 0x0d, 0x06, 0x09, 0x60, 0x86, 0x48, 0x01, 0x65,
		0x03, 0x04, 0x02, 0x01, 0x05, 0x00, 0x04, 0x20,
	},
	"2.16.840.1.101.3.4.2.2": { // sha384
		0x30, 0x41, 0x30, 0x0d, 0x06, 0x09, 0x60, 0x86, 0x48, 0x01, 0x65,
		0x03, 0x04, 0x02, 0x02, 0x05, 0x00, 0x04, 0x30,
	},
	"2.16.840.1.101.3.4.2.3": { // sha512
		0x30, 0x51, 0x30, 0x0d, 0x06, 0x09, 0x60, 0x86, 0x48, 0x01, 0x65,
		0x03, 0x04, 0x02, 0x03, 0x05, 0x00, 0x04, 0x40,
	},
}

// Verify checks an RSASSA-PKCS1-v1_5 signature over digest, computed under
// the hash named by digestOID, against the public key (modulus, exponent).
// It returns false — not an error — for any structural mismatch: wrong
// signature length, bad padding, unknown digest OID, or a digest that
// doesn't match. An error is reserved for inputs too malformed to even
// attempt the check (e.g. a zero modulus).
func Verify(modulus, exponent, signature, digest []byte, digestOID string) (bool, error) {
	prefix, ok := digestInfoPrefixes[digestOID]
	if !ok {
		return false, nil
	}

	n := new(big.Int).SetBytes(modulus)
	e := new(big.Int).SetBytes(exponent)
	if n.Sign() == 0 {
		return false, errZeroModulus
	}

	keyLen := (n.BitLen() + 7) / 8
	if len(signature) != keyLen {
		return false, nil
	}

	s := new(big.Int).SetBytes(signature)
	if s.Cmp(n) >= 0 {
		return false, nil
	}

	m := new(big.Int).Exp(s, e, n)

	encoded := m.Bytes()
	if len(encoded) > keyLen {
		return false, nil
	}
	padded := make([]byte, keyLen)
	copy(padded[keyLen-len(encoded):], encoded)

	return checkPadding(padded, prefix, digest), nil
}

var errZeroModulus = &verifyError{"modulus is zero"}

type verifyError struct{ msg string }

func (e *verifyError) Error() string { return "rsapkcs1: " + e.msg }

// checkPadding verifies 0x00 0x01 0xFF...0xFF 0x00 || DigestInfo-prefix ||
// digest, with no tolerance for a short or reordered structure.
func checkPadding(padded, prefix, digest []byte) bool {
	want := make([]byte, 0, len(padded))
	want = append(want, 0x00, 0x01)

	tail := append(append([]byte{}, prefix...), digest...)
	padLen := len(padded) - 2 - 1 - len(tail)
	if padLen < 8 {
		return false
	}
	for i := 0; i < padLen; i++ {
		want = append(want, 0xFF)
	}
	want = append(want, 0x00)
	want = append(want, tail...)

	if len(want) != len(padded) {
		return false
	}
	return bytes.Equal(want, padded)
}
