package cms

import (
	"bytes"
	"testing"
)

// buildCertificate assembles a minimal Certificate ::= SEQUENCE { tbsCertificate,
// signatureAlgorithm, signature } DER blob carrying just enough structure for
// certificateSerial and ExtractRSAPublicKey to do their work: no version tag
// (so serial lands at tbsCertificate.Children[0]), an RSA SubjectPublicKeyInfo
// somewhere among the TBS fields, and a throwaway outer signature.
func buildCertificate(serial, modulus, exponent byte) []byte {
	rsaPublicKey := seqOf(intOf(modulus), intOf(exponent))
	bitString := tlv(0x03, concat([]byte{0x00}, rsaPublicKey))
	spki := seqOf(seqOf(oidRSAEncTLV), bitString)

	unrelatedField := seqOf(oidSHA256TLV) // one child: never mistaken for an SPKI

	tbs := seqOf(intOf(serial), unrelatedField, spki)
	return seqOf(tbs, seqOf(oidSHA256TLV), tlv(0x03, []byte{0x00, 0xAB}))
}

func TestExtractRSAPublicKey_LocatesSPKIByOIDContent(t *testing.T) {
	cert := buildCertificate(99, 0x61, 0x03)
	key, err := ExtractRSAPublicKey(cert)
	if err != nil {
		t.Fatalf("ExtractRSAPublicKey: %v", err)
	}
	if !bytes.Equal(key.Modulus, []byte{0x61}) {
		t.Errorf("Modulus = %x, want 61", key.Modulus)
	}
	if !bytes.Equal(key.Exponent, []byte{0x03}) {
		t.Errorf("Exponent = %x, want 03", key.Exponent)
	}
}

func TestFindSigningCertificate_MatchesBySerial(t *testing.T) {
	certA := buildCertificate(10, 0x61, 0x03)
	certB := buildCertificate(20, 0x65, 0x03)

	found, ok := FindSigningCertificate([][]byte{certA, certB}, []byte{20})
	if !ok {
		t.Fatal("expected to find the certificate with matching serial 20")
	}
	if !bytes.Equal(found, certB) {
		t.Error("returned the wrong certificate")
	}
}

func TestFindSigningCertificate_NoMatchReturnsFalse(t *testing.T) {
	certA := buildCertificate(10, 0x61, 0x03)
	_, ok := FindSigningCertificate([][]byte{certA}, []byte{99})
	if ok {
		t.Fatal("expected no match for a serial that isn't present")
	}
}

func TestExtractRSAPublicKey_NoRSASPKIIsAnError(t *testing.T) {
	tbs := seqOf(intOf(1), seqOf(oidSHA256TLV))
	cert := seqOf(tbs, seqOf(oidSHA256TLV), tlv(0x03, []byte{0x00}))
	if _, err := ExtractRSAPublicKey(cert); err == nil {
		t.Fatal("expected an error when no RSA SubjectPublicKeyInfo is present")
	}
}
