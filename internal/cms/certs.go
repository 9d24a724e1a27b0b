package cms

import (
	"bytes"
	"fmt"

	"github.com/digitorus/pdfverify/internal/derasn1"
)

// RSAPublicKey is the modulus/exponent pair extracted from a certificate's
// SubjectPublicKeyInfo.
type RSAPublicKey struct {
	Modulus  []byte // big-endian, leading zero-sign-byte stripped
	Exponent []byte // big-endian, as found
}

// FindSigningCertificate selects, among certs, the one whose serial number
// exactly matches want. Certificates are matched by raw serial-number
// bytes, not a parsed big.Int, so no normalization happens beyond what the
// TBSCertificate's own INTEGER encoding already did.
func FindSigningCertificate(certs [][]byte, want []byte) ([]byte, bool) {
	for _, cert := range certs {
		serial, err := certificateSerial(cert)
		if err != nil {
			continue
		}
		if bytes.Equal(serial, want) {
			return cert, true
		}
	}
	return nil, false
}

func certificateSerial(certDER []byte) ([]byte, error) {
	tbs, err := tbsCertificate(certDER)
	if err != nil {
		return nil, err
	}
	idx := 0
	if len(tbs.Children) > 0 && tbs.Children[0].Kind == derasn1.KindExplicit &&
		tbs.Children[0].Class == derasn1.ClassContextSpecific && tbs.Children[0].Tag == 0 {
		idx = 1
	}
	if idx >= len(tbs.Children) || tbs.Children[idx].Kind != derasn1.KindInteger {
		return nil, fmt.Errorf("cms: certificate has no serialNumber field")
	}
	return tbs.Children[idx].Raw, nil
}

func tbsCertificate(certDER []byte) (derasn1.Block, error) {
	cert, _, err := derasn1.DecodeOne(certDER)
	if err != nil {
		return derasn1.Block{}, fmt.Errorf("cms: decoding certificate: %w", err)
	}
	if cert.Kind != derasn1.KindSequence || len(cert.Children) == 0 {
		return derasn1.Block{}, fmt.Errorf("cms: certificate is not a sequence")
	}
	tbs := cert.Children[0]
	if tbs.Kind != derasn1.KindSequence {
		return derasn1.Block{}, fmt.Errorf("cms: tbsCertificate is not a sequence")
	}
	return tbs, nil
}

// ExtractRSAPublicKey walks a certificate to its SubjectPublicKeyInfo,
// located by content (an AlgorithmIdentifier naming rsaEncryption) rather
// than a fixed field index, and decodes the RSAPublicKey it carries.
func ExtractRSAPublicKey(certDER []byte) (RSAPublicKey, error) {
	tbs, err := tbsCertificate(certDER)
	if err != nil {
		return RSAPublicKey{}, err
	}

	var spki *derasn1.Block
	for i := range tbs.Children {
		c := &tbs.Children[i]
		if c.Kind != derasn1.KindSequence || len(c.Children) != 2 {
			continue
		}
		alg := c.Children[0]
		if alg.Kind != derasn1.KindSequence || len(alg.Children) == 0 {
			continue
		}
		if alg.Children[0].Kind == derasn1.KindOID && alg.Children[0].OIDString() == oidRSAEncryption &&
			c.Children[1].Kind == derasn1.KindBitString {
			spki = c
			break
		}
	}
	if spki == nil {
		return RSAPublicKey{}, fmt.Errorf("cms: no RSA SubjectPublicKeyInfo found")
	}

	keyBlock, _, err := derasn1.DecodeOne(spki.Children[1].Raw)
	if err != nil || keyBlock.Kind != derasn1.KindSequence || len(keyBlock.Children) < 2 {
		return RSAPublicKey{}, fmt.Errorf("cms: malformed RSAPublicKey")
	}
	modulusBlock := keyBlock.Children[0]
	exponentBlock := keyBlock.Children[1]
	if modulusBlock.Kind != derasn1.KindInteger || exponentBlock.Kind != derasn1.KindInteger {
		return RSAPublicKey{}, fmt.Errorf("cms: RSAPublicKey fields are not integers")
	}

	modulus := modulusBlock.Raw
	if len(modulus) > 1 && modulus[0] == 0x00 {
		modulus = modulus[1:]
	}

	return RSAPublicKey{Modulus: modulus, Exponent: exponentBlock.Raw}, nil
}
