package pdfverify_test

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"testing"

	"github.com/digitorus/pdfverify"
)

var (
	oidSignedDataTLV  = []byte{0x06, 0x09, 0x2a, 0x86, 0x48, 0x86, 0xf7, 0x0d, 0x01, 0x07, 0x02}
	oidSHA256TLV      = []byte{0x06, 0x09, 0x60, 0x86, 0x48, 0x01, 0x65, 0x03, 0x04, 0x02, 0x01}
	oidRSAEncTLV      = []byte{0x06, 0x09, 0x2a, 0x86, 0x48, 0x86, 0xf7, 0x0d, 0x01, 0x01, 0x01}
	oidContentTypeTLV = []byte{0x06, 0x09, 0x2a, 0x86, 0x48, 0x86, 0xf7, 0x0d, 0x01, 0x09, 0x03}
)

func derTLV(tag byte, content []byte) []byte {
	return append(append([]byte{tag}, derLen(len(content))...), content...)
}

func derLen(n int) []byte {
	if n < 128 {
		return []byte{byte(n)}
	}
	return []byte{0x81, byte(n)}
}

func derSeq(parts ...[]byte) []byte { return derTLV(0x30, derConcat(parts...)) }
func derSet(parts ...[]byte) []byte { return derTLV(0x31, derConcat(parts...)) }
func derInt(b byte) []byte          { return derTLV(0x02, []byte{b}) }

func derConcat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// buildSignerInfoNoMessageDigest assembles a SignerInfo whose signedAttrs
// carries a contentType attribute and one filler attribute but no
// messageDigest, exercising the case a producer forgets (or strips) the
// messageDigest attribute entirely. Two attributes (rather than one) keep
// the [0] block from decoding as a single-child Explicit wrapper instead
// of the Unknown shape signedAttrs scanning looks for.
func buildSignerInfoNoMessageDigest(serial byte) []byte {
	digestAlg := derSeq(oidSHA256TLV)
	sigAlg := derSeq(oidRSAEncTLV)
	issuerAndSerial := derSeq(derSeq(), derInt(serial))

	attrContentType := derSeq(oidContentTypeTLV, derSet(oidSignedDataTLV))
	attrFiller := derSeq(oidRSAEncTLV, derSet(oidSignedDataTLV))
	signedAttrs := derTLV(0xA0, derConcat(attrContentType, attrFiller))

	return derSeq(derInt(1), issuerAndSerial, digestAlg, signedAttrs, sigAlg, derTLV(0x04, []byte{0x01, 0x02}))
}

// buildSignerInfoWithDigest builds a SignerInfo carrying a proper
// messageDigest attribute, for cases the failure lives further down the
// verification pipeline (certificate lookup, SPKI extraction).
func buildSignerInfoWithDigest(serial byte, digestBytes []byte) []byte {
	oidMessageDigestTLV := []byte{0x06, 0x09, 0x2a, 0x86, 0x48, 0x86, 0xf7, 0x0d, 0x01, 0x09, 0x04}
	digestAlg := derSeq(oidSHA256TLV)
	sigAlg := derSeq(oidRSAEncTLV)
	issuerAndSerial := derSeq(derSeq(), derInt(serial))

	attrContentType := derSeq(oidContentTypeTLV, derSet(oidSignedDataTLV))
	attrMessageDigest := derSeq(oidMessageDigestTLV, derSet(derTLV(0x04, digestBytes)))
	signedAttrs := derTLV(0xA0, derConcat(attrContentType, attrMessageDigest))

	return derSeq(derInt(1), issuerAndSerial, digestAlg, signedAttrs, sigAlg, derTLV(0x04, []byte{0x01, 0x02}))
}

// buildCertificateWithoutRSASPKI assembles a certificate whose
// SubjectPublicKeyInfo never names rsaEncryption, so ExtractRSAPublicKey
// has nothing to find.
func buildCertificateWithoutRSASPKI(serial byte) []byte {
	tbs := derSeq(derInt(serial), derSeq(oidSHA256TLV))
	return derSeq(tbs, derSeq(oidSHA256TLV), derTLV(0x03, []byte{0x00}))
}

func buildContentInfo(signerInfo []byte, certs [][]byte) []byte {
	digestAlgorithms := derSet(derSeq(oidSHA256TLV))
	encapContentInfo := derSeq(oidSignedDataTLV)
	signerInfos := derSet(signerInfo)

	sdContent := derConcat(derInt(1), digestAlgorithms, encapContentInfo)
	if len(certs) > 0 {
		sdContent = derConcat(sdContent, derTLV(0xA0, derConcat(certs...)))
	}
	sdContent = derConcat(sdContent, signerInfos)

	signedData := derTLV(0x30, sdContent)
	explicitContent := derTLV(0xA0, signedData)
	return derSeq(oidSignedDataTLV, explicitContent)
}

// buildSignedPDF lays content immediately before a "/Contents <hex>
// /ByteRange [...]" signature dictionary covering exactly content, the
// minimal shape sigregion and verifySignature need.
func buildSignedPDF(content, ci []byte) []byte {
	hexCI := hex.EncodeToString(ci)
	tail := fmt.Sprintf(" /Contents <%s> /ByteRange [0 %d 0 0]", hexCI, len(content))
	return append(append([]byte{}, content...), []byte(tail)...)
}

const unsignedPDF = "%PDF-1.4\n" +
	"1 0 obj << /Type /Catalog /Pages 2 0 R >> endobj\n" +
	"2 0 obj << /Type /Pages /Kids [3 0 R] /Count 1 >> endobj\n" +
	"3 0 obj << /Type /Page /Parent 2 0 R /Resources << /Font << /F1 4 0 R >> >> " +
	"/MediaBox [0 0 612 792] /Contents 5 0 R >> endobj\n" +
	"4 0 obj << /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >> endobj\n" +
	"5 0 obj << /Length 44 >>\n" +
	"stream\n" +
	"BT /F1 12 Tf 72 712 Td (Hello World) Tj ET\n" +
	"endstream\n" +
	"endobj\n" +
	"trailer\n" +
	"<< /Root 1 0 R >>\n"

func TestVerifySignature_NoByteRange(t *testing.T) {
	doc, err := pdfverify.OpenBytes([]byte(unsignedPDF))
	if err != nil {
		t.Fatalf("OpenBytes: %v", err)
	}

	_, err = doc.VerifySignature()
	if err == nil {
		t.Fatal("expected an error verifying a document with no /ByteRange")
	}
	if !strings.Contains(err.Error(), "ByteRange") {
		t.Errorf("error = %v, want it to mention /ByteRange", err)
	}
}

func TestExtractText_ReturnsPageContent(t *testing.T) {
	doc, err := pdfverify.OpenBytes([]byte(unsignedPDF))
	if err != nil {
		t.Fatalf("OpenBytes: %v", err)
	}

	pages, err := doc.ExtractText()
	if err != nil {
		t.Fatalf("ExtractText: %v", err)
	}
	if len(pages) != 1 {
		t.Fatalf("got %d pages, want 1", len(pages))
	}
	if pages[0] != "Hello World" {
		t.Errorf("page text = %q, want %q", pages[0], "Hello World")
	}
}

func TestVerifySignature_MissingMessageDigestAttributeIsAnError(t *testing.T) {
	content := []byte("the quick brown fox jumps over the lazy dog")
	ci := buildContentInfo(buildSignerInfoNoMessageDigest(7), nil)
	raw := buildSignedPDF(content, ci)

	doc, err := pdfverify.OpenBytes(raw)
	if err != nil {
		t.Fatalf("OpenBytes: %v", err)
	}
	if _, err := doc.VerifySignature(); err == nil {
		t.Fatal("expected an error when signed attributes are present but messageDigest is missing")
	} else if !strings.Contains(err.Error(), "messageDigest") {
		t.Errorf("error = %v, want it to mention messageDigest", err)
	}
}

func TestVerifySignature_NoMatchingCertificateIsAnError(t *testing.T) {
	content := []byte("another block of signed bytes entirely")
	digest := sha256.Sum256(content)
	ci := buildContentInfo(buildSignerInfoWithDigest(7, digest[:]), nil)
	raw := buildSignedPDF(content, ci)

	doc, err := pdfverify.OpenBytes(raw)
	if err != nil {
		t.Fatalf("OpenBytes: %v", err)
	}
	if _, err := doc.VerifySignature(); err == nil {
		t.Fatal("expected an error when no certificate matches the signer's serial")
	} else if !strings.Contains(err.Error(), "certificate") {
		t.Errorf("error = %v, want it to mention certificate", err)
	}
}

func TestVerifySignature_CertificateWithoutRSASPKIIsAnError(t *testing.T) {
	content := []byte("yet another block of signed bytes for this case")
	digest := sha256.Sum256(content)
	cert := buildCertificateWithoutRSASPKI(9)
	ci := buildContentInfo(buildSignerInfoWithDigest(9, digest[:]), [][]byte{cert})
	raw := buildSignedPDF(content, ci)

	doc, err := pdfverify.OpenBytes(raw)
	if err != nil {
		t.Fatalf("OpenBytes: %v", err)
	}
	if _, err := doc.VerifySignature(); err == nil {
		t.Fatal("expected an error when the matching certificate has no RSA public key")
	}
}
