package cms

import (
	"bytes"
	"testing"

	"github.com/digitorus/pdfverify/internal/derasn1"
)

var (
	oidSignedDataTLV    = []byte{0x06, 0x09, 0x2a, 0x86, 0x48, 0x86, 0xf7, 0x0d, 0x01, 0x07, 0x02}
	oidSHA256TLV        = []byte{0x06, 0x09, 0x60, 0x86, 0x48, 0x01, 0x65, 0x03, 0x04, 0x02, 0x01}
	oidRSAEncTLV        = []byte{0x06, 0x09, 0x2a, 0x86, 0x48, 0x86, 0xf7, 0x0d, 0x01, 0x01, 0x01}
	oidMessageDigestTLV = []byte{0x06, 0x09, 0x2a, 0x86, 0x48, 0x86, 0xf7, 0x0d, 0x01, 0x09, 0x04}
	oidContentTypeTLV   = []byte{0x06, 0x09, 0x2a, 0x86, 0x48, 0x86, 0xf7, 0x0d, 0x01, 0x09, 0x03}
)

func tlv(tag byte, content []byte) []byte {
	return append(append([]byte{tag}, encodeLength(len(content))...), content...)
}

func seqOf(parts ...[]byte) []byte { return tlv(0x30, concat(parts...)) }
func setOf(parts ...[]byte) []byte { return tlv(0x31, concat(parts...)) }
func octetOf(data []byte) []byte   { return tlv(0x04, data) }
func intOf(b byte) []byte          { return tlv(0x02, []byte{b}) }

func concat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// buildSignerInfo assembles a SignerInfo SEQUENCE with an IMPLICIT [0]
// signedAttrs block holding two attributes (so the decoder classifies it as
// Unknown rather than a single-child Explicit), a digestAlgorithm of
// SHA-256, a signatureAlgorithm of plain rsaEncryption, and a trailing
// OCTET STRING signature.
func buildSignerInfo(serial byte, digestBytes, sigBytes []byte) []byte {
	digestAlg := seqOf(oidSHA256TLV)
	sigAlg := seqOf(oidRSAEncTLV)
	issuerAndSerial := seqOf(seqOf(), intOf(serial))

	attrContentType := seqOf(oidContentTypeTLV, setOf(oidSignedDataTLV))
	attrMessageDigest := seqOf(oidMessageDigestTLV, setOf(octetOf(digestBytes)))
	signedAttrs := tlv(0xA0, concat(attrContentType, attrMessageDigest))

	return seqOf(
		intOf(1),
		issuerAndSerial,
		digestAlg,
		signedAttrs,
		sigAlg,
		octetOf(sigBytes),
	)
}

func buildContentInfo(signerInfo []byte) []byte {
	digestAlgorithms := setOf(seqOf(oidSHA256TLV))
	encapContentInfo := seqOf(oidSignedDataTLV)
	signerInfos := setOf(signerInfo)

	signedData := seqOf(intOf(1), digestAlgorithms, encapContentInfo, signerInfos)
	explicitContent := tlv(0xA0, signedData)

	return seqOf(oidSignedDataTLV, explicitContent)
}

func TestParse_FullRoundTripWithExplicitContentWrap(t *testing.T) {
	digestBytes := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	sigBytes := []byte{0x01, 0x02, 0x03, 0x04}

	ci := buildContentInfo(buildSignerInfo(42, digestBytes, sigBytes))

	sd, err := Parse(ci)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(sd.SignerInfos) != 1 {
		t.Fatalf("got %d signer infos, want 1", len(sd.SignerInfos))
	}
	si := sd.SignerInfos[0]

	if si.DigestAlgorithm != "2.16.840.1.101.3.4.2.1" {
		t.Errorf("DigestAlgorithm = %q, want sha256", si.DigestAlgorithm)
	}
	if si.SignatureAlgorithm != "1.2.840.113549.1.1.1" {
		t.Errorf("SignatureAlgorithm = %q, want rsaEncryption", si.SignatureAlgorithm)
	}
	if !bytes.Equal(si.SerialNumber, []byte{42}) {
		t.Errorf("SerialNumber = %x, want 2a", si.SerialNumber)
	}
	if !bytes.Equal(si.Signature, sigBytes) {
		t.Errorf("Signature = %x, want %x", si.Signature, sigBytes)
	}
	if !bytes.Equal(si.MessageDigest, digestBytes) {
		t.Errorf("MessageDigest = %x, want %x", si.MessageDigest, digestBytes)
	}
	if len(si.SignedAttrsRaw) == 0 || si.SignedAttrsRaw[0] != 0x31 {
		t.Errorf("SignedAttrsRaw should be reserialized as a DER SET (0x31), got %x", si.SignedAttrsRaw)
	}
}

func TestParse_RejectsWrongContentType(t *testing.T) {
	notSignedData := []byte{0x06, 0x03, 0x55, 0x04, 0x03} // an unrelated OID
	ci := seqOf(notSignedData, tlv(0xA0, seqOf(intOf(1))))
	if _, err := Parse(ci); err == nil {
		t.Fatal("expected an error for a ContentInfo whose contentType isn't signedData")
	}
}

func TestUnwrapContent_BareSequencePassesThrough(t *testing.T) {
	seq, _, err := derasn1.DecodeOne(seqOf(intOf(1)))
	if err != nil {
		t.Fatalf("DecodeOne: %v", err)
	}
	got, err := unwrapContent(seq)
	if err != nil {
		t.Fatalf("unwrapContent: %v", err)
	}
	if got.Kind != derasn1.KindSequence {
		t.Errorf("got kind %v, want Sequence", got.Kind)
	}
}

func TestUnwrapContent_UnknownShapeReparsesRawBytes(t *testing.T) {
	// Two top-level children inside the [0] wrapper: the decoder can't
	// treat it as a single-child Explicit, so it falls back to Unknown and
	// unwrapContent must reparse the raw bytes as their own TLV stream,
	// taking the first one.
	inner := concat(seqOf(intOf(7)), intOf(9))
	block := tlv(0xA0, inner)
	b, _, err := derasn1.DecodeOne(block)
	if err != nil {
		t.Fatalf("DecodeOne: %v", err)
	}
	if b.Kind != derasn1.KindUnknown {
		t.Fatalf("test setup: expected Unknown, got %v", b.Kind)
	}
	got, err := unwrapContent(b)
	if err != nil {
		t.Fatalf("unwrapContent: %v", err)
	}
	if got.Kind != derasn1.KindSequence || len(got.Children) != 1 {
		t.Errorf("got %+v, want the first inner SEQUENCE", got)
	}
}

func TestImpliedHashMismatch_DetectsAlgorithmConfusion(t *testing.T) {
	si := SignerInfo{
		SignatureAlgorithm: "1.2.840.113549.1.1.11", // sha256WithRSAEncryption
		DigestAlgorithm:    "1.3.14.3.2.26",          // sha1
	}
	if !si.ImpliedHashMismatch() {
		t.Fatal("expected a mismatch between the claimed sha256WithRSA algorithm and the sha1 digestAlgorithm")
	}
}

func TestImpliedHashMismatch_ConsistentAlgorithmsPass(t *testing.T) {
	si := SignerInfo{
		SignatureAlgorithm: "1.2.840.113549.1.1.11",
		DigestAlgorithm:    "2.16.840.1.101.3.4.2.1", // sha256
	}
	if si.ImpliedHashMismatch() {
		t.Fatal("expected no mismatch when both fields agree on sha256")
	}
}

func TestImpliedHashMismatch_UnmappedAlgorithmIsNotFlagged(t *testing.T) {
	si := SignerInfo{
		SignatureAlgorithm: "1.2.840.113549.1.1.1", // bare rsaEncryption, implies no hash
		DigestAlgorithm:    "1.3.14.3.2.26",
	}
	if si.ImpliedHashMismatch() {
		t.Fatal("a bare rsaEncryption signature algorithm has nothing to cross-check")
	}
}

func TestExtractMessageDigest_FlatAttributeList(t *testing.T) {
	digestBytes := []byte{1, 2, 3}
	content := concat(
		seqOf(oidContentTypeTLV, setOf(oidSignedDataTLV)),
		seqOf(oidMessageDigestTLV, setOf(octetOf(digestBytes))),
	)
	got := extractMessageDigest(content)
	if !bytes.Equal(got, digestBytes) {
		t.Errorf("got %x, want %x", got, digestBytes)
	}
}

func TestExtractMessageDigest_MissingAttributeYieldsNil(t *testing.T) {
	content := seqOf(oidContentTypeTLV, setOf(oidSignedDataTLV))
	if got := extractMessageDigest(content); got != nil {
		t.Errorf("got %x, want nil", got)
	}
}

func TestReserializeAsSet_ProducesValidSetTag(t *testing.T) {
	content := []byte{0x02, 0x01, 0x05}
	got := reserializeAsSet(content)
	if got[0] != 0x31 {
		t.Fatalf("tag = %x, want 0x31", got[0])
	}
	b, _, err := derasn1.DecodeOne(got)
	if err != nil {
		t.Fatalf("reserialized bytes don't decode: %v", err)
	}
	if b.Kind != derasn1.KindSet || !bytes.Equal(b.Raw, content) {
		t.Errorf("got %+v", b)
	}
}
