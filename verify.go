package pdfverify

import (
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"fmt"

	"github.com/digitorus/pdfverify/internal/cms"
	"github.com/digitorus/pdfverify/internal/rsapkcs1"
	"github.com/digitorus/pdfverify/internal/sigregion"
)

const (
	oidSHA1   = "1.3.14.3.2.26"
	oidSHA256 = "2.16.840.1.101.3.4.2.1"
	oidSHA384 = "2.16.840.1.101.3.4.2.2"
	oidSHA512 = "2.16.840.1.101.3.4.2.3"
)

// VerifyResult is the outcome of checking one embedded signature.
type VerifyResult struct {
	Valid bool

	// DigestMatches reports whether the signed-attributes' messageDigest
	// (when signed attributes are present) matches the digest actually
	// computed over the covered bytes.
	DigestMatches bool

	// SignatureValid reports whether the RSA signature verified against
	// the signing certificate's public key.
	SignatureValid bool

	// AlgorithmConsistent reports whether the outer signature algorithm's
	// implied hash agrees with the signed digestAlgorithm field.
	AlgorithmConsistent bool

	// CertificateFound reports whether a certificate matching the
	// signer's issuer/serial was present in the SignedData.
	CertificateFound bool
}

// VerifyBuilder configures and lazily executes signature verification.
// Verification only runs the first time a result is read.
type VerifyBuilder struct {
	doc *Document

	executed bool
	result   VerifyResult
	err      error
}

// Verify begins signature verification for the document.
func (d *Document) Verify() *VerifyBuilder {
	return &VerifyBuilder{doc: d}
}

func (b *VerifyBuilder) execute() {
	if b.executed {
		return
	}
	b.executed = true
	b.result, b.err = verifySignature(b.doc)
}

// Result returns the verification outcome, running verification if it
// hasn't already.
func (b *VerifyBuilder) Result() (VerifyResult, error) {
	b.execute()
	return b.result, b.err
}

// Valid is a convenience accessor equivalent to Result().Valid, swallowing
// the error (an unverifiable signature is not valid, regardless of why).
func (b *VerifyBuilder) Valid() bool {
	b.execute()
	return b.err == nil && b.result.Valid
}

// VerifySignature runs signature verification immediately and returns the
// result, without the builder's lazy-execution indirection.
func (d *Document) VerifySignature() (VerifyResult, error) {
	return verifySignature(d)
}

// VerifySignature opens path and verifies its embedded signature.
func VerifySignature(path string) (VerifyResult, error) {
	doc, err := OpenFile(path)
	if err != nil {
		return VerifyResult{}, err
	}
	return doc.VerifySignature()
}

// ValidateAndExtractResult bundles both halves of a full document check.
type ValidateAndExtractResult struct {
	Pages     []string
	Signature VerifyResult
}

// ValidateAndExtract verifies the embedded signature and extracts every
// page's text in one call, the common "is this safe to read, then read it"
// workflow. A signature that cannot be checked at all (none present, or a
// SignatureError) leaves Signature at its zero value, with Valid false, and
// the page text is still returned; only a failure to open the file or to
// extract text is returned as an error.
func ValidateAndExtract(path string) (ValidateAndExtractResult, error) {
	doc, err := OpenFile(path)
	if err != nil {
		return ValidateAndExtractResult{}, err
	}

	sigResult, err := doc.VerifySignature()
	if err != nil {
		pkgLogger.Debugf("signature not verified: %v", err)
		sigResult = VerifyResult{}
	}

	pagesText, err := doc.ExtractText()
	if err != nil {
		return ValidateAndExtractResult{}, err
	}

	return ValidateAndExtractResult{Pages: pagesText, Signature: sigResult}, nil
}

func verifySignature(d *Document) (VerifyResult, error) {
	region, byteRangeIdx, err := sigregion.FindByteRange(d.raw)
	if err != nil {
		return VerifyResult{}, &SignatureError{Msg: err.Error()}
	}
	contentsHex, err := sigregion.FindContentsHex(d.raw, byteRangeIdx)
	if err != nil {
		return VerifyResult{}, &SignatureError{Msg: err.Error()}
	}
	sigDER := sigregion.DecodeHexPadLeading(contentsHex)

	signedBytes, err := region.SignedBytes(d.raw)
	if err != nil {
		return VerifyResult{}, &SignatureError{Msg: err.Error()}
	}

	sd, err := cms.Parse(sigDER)
	if err != nil {
		return VerifyResult{}, &SignatureError{Msg: err.Error()}
	}
	if len(sd.SignerInfos) == 0 {
		return VerifyResult{}, &SignatureError{Msg: "no signer found in signature"}
	}
	si := sd.SignerInfos[0]

	pkgLogger.Debugf("verifying signer with digest algorithm %s", si.DigestAlgorithm)

	result := VerifyResult{
		AlgorithmConsistent: !si.ImpliedHashMismatch(),
	}

	contentDigest, err := digestFor(si.DigestAlgorithm, signedBytes)
	if err != nil {
		return VerifyResult{}, &SignatureError{Msg: err.Error()}
	}

	var toSign []byte
	if si.SignedAttrsRaw != nil {
		if si.MessageDigest == nil {
			return VerifyResult{}, &SignatureError{Msg: "signed attributes present but messageDigest attribute is missing"}
		}
		result.DigestMatches = bytesEqual(si.MessageDigest, contentDigest)
		toSign, err = digestFor(si.DigestAlgorithm, si.SignedAttrsRaw)
		if err != nil {
			return VerifyResult{}, &SignatureError{Msg: err.Error()}
		}
	} else {
		result.DigestMatches = true
		toSign = contentDigest
	}

	cert, found := cms.FindSigningCertificate(sd.Certificates, si.SerialNumber)
	result.CertificateFound = found
	if !found {
		return VerifyResult{}, &SignatureError{Msg: "no certificate matching the signer's serial number was found"}
	}

	pubKey, err := cms.ExtractRSAPublicKey(cert)
	if err != nil {
		return VerifyResult{}, &SignatureError{Msg: err.Error()}
	}
	ok, err := rsapkcs1.Verify(pubKey.Modulus, pubKey.Exponent, si.Signature, toSign, si.DigestAlgorithm)
	if err != nil {
		return VerifyResult{}, &SignatureError{Msg: err.Error()}
	}
	result.SignatureValid = ok

	result.Valid = result.DigestMatches && result.SignatureValid && result.AlgorithmConsistent && result.CertificateFound
	return result, nil
}

func digestFor(oid string, data []byte) ([]byte, error) {
	switch oid {
	case oidSHA1:
		sum := sha1.Sum(data)
		return sum[:], nil
	case oidSHA256:
		sum := sha256.Sum256(data)
		return sum[:], nil
	case oidSHA384:
		sum := sha512.Sum384(data)
		return sum[:], nil
	case oidSHA512:
		sum := sha512.Sum512(data)
		return sum[:], nil
	default:
		return nil, fmt.Errorf("unsupported digest algorithm %q", oid)
	}
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
