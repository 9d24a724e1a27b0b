// Package cms parses just enough of a PKCS#7/CMS SignedData structure (as
// embedded in a PDF's /Contents signature) to verify one signer: its
// digest algorithm, the reserialized signed-attributes set, the
// message digest and signature bytes, and the certificate its
// issuer/serial points at.
package cms

import (
	"fmt"

	"github.com/digitorus/pdfverify/internal/derasn1"
)

const (
	oidSignedData    = "1.2.840.113549.1.7.2"
	oidMessageDigest = "1.2.840.113549.1.9.4"
	oidRSAEncryption = "1.2.840.113549.1.1.1"
)

// sigAlgImpliedHash maps a combined signature-algorithm OID (the
// SignerInfo's digestEncryptionAlgorithm field, when it names both hash and
// padding/cipher together) to the hash OID it implies. A bare
// rsaEncryption OID implies no particular hash and is left out: there is
// nothing to cross-check against digestAlgorithm in that case.
var sigAlgImpliedHash = map[string]string{
	"1.2.840.113549.1.1.5":  "1.3.14.3.2.26",             // sha1WithRSAEncryption -> sha1
	"1.2.840.113549.1.1.11": "2.16.840.1.101.3.4.2.1",    // sha256WithRSAEncryption -> sha256
	"1.2.840.113549.1.1.12": "2.16.840.1.101.3.4.2.2",    // sha384WithRSAEncryption -> sha384
	"1.2.840.113549.1.1.13": "2.16.840.1.101.3.4.2.3",    // sha512WithRSAEncryption -> sha512
}

// SignerInfo is the single signer this model verifies.
type SignerInfo struct {
	DigestAlgorithm    string // dotted OID, from the digestAlgorithm field
	SignatureAlgorithm string // dotted OID, from the digestEncryptionAlgorithm field
	SerialNumber       []byte // raw, big-endian, as found in issuerAndSerialNumber
	SignedAttrsRaw     []byte // reserialized as a DER SET OF, or nil if absent
	MessageDigest      []byte
	Signature          []byte
}

// SignedData is the parsed PKCS#7 SignedData content.
type SignedData struct {
	SignerInfos  []SignerInfo
	Certificates [][]byte // raw DER-encoded certificates found in the [0] field
}

// ImpliedHashMismatch reports whether this signer's outer signature
// algorithm names a hash that disagrees with its digestAlgorithm field —
// the classic algorithm-confusion forgery: claim SHA-256 in one field,
// actually sign under SHA-1 in the other.
func (s SignerInfo) ImpliedHashMismatch() bool {
	implied, ok := sigAlgImpliedHash[s.SignatureAlgorithm]
	if !ok {
		return false
	}
	return implied != s.DigestAlgorithm
}

// Parse decodes a PKCS#7 ContentInfo wrapping a SignedData content.
func Parse(data []byte) (*SignedData, error) {
	ci, _, err := derasn1.DecodeOne(data)
	if err != nil {
		return nil, fmt.Errorf("cms: %w", err)
	}
	if ci.Kind != derasn1.KindSequence || len(ci.Children) < 2 {
		return nil, fmt.Errorf("cms: ContentInfo is not a 2-element sequence")
	}
	if ci.Children[0].Kind != derasn1.KindOID || ci.Children[0].OIDString() != oidSignedData {
		return nil, fmt.Errorf("cms: contentType is not signedData")
	}

	inner, err := unwrapContent(ci.Children[1])
	if err != nil {
		return nil, err
	}
	if inner.Kind != derasn1.KindSequence {
		return nil, fmt.Errorf("cms: SignedData content is not a sequence")
	}

	sd := &SignedData{}
	sd.Certificates = findCertificates(inner)

	signerInfoSet := lastSet(inner.Children)
	if signerInfoSet == nil || len(signerInfoSet.Children) == 0 {
		return nil, fmt.Errorf("cms: no signerInfos found")
	}
	signerInfoSeq := signerInfoSet.Children[0]
	if signerInfoSeq.Kind != derasn1.KindSequence {
		return nil, fmt.Errorf("cms: signerInfo is not a sequence")
	}

	si, err := parseSignerInfo(signerInfoSeq)
	if err != nil {
		return nil, err
	}
	sd.SignerInfos = []SignerInfo{si}
	return sd, nil
}

// unwrapContent handles the three shapes a ContentInfo's "content [0]"
// field takes in practice: an EXPLICIT [0] wrapping a SEQUENCE (the decoder
// will have already classified this as KindExplicit), a non-Universal
// block our decoder couldn't recognize as exactly-one-child (KindUnknown,
// whose raw bytes are themselves the SEQUENCE and need a fresh parse), or
// already a bare SEQUENCE.
func unwrapContent(field derasn1.Block) (derasn1.Block, error) {
	switch field.Kind {
	case derasn1.KindExplicit:
		return field.Children[0], nil
	case derasn1.KindSequence:
		return field, nil
	case derasn1.KindUnknown:
		reparsed, _, err := derasn1.DecodeOne(field.Raw)
		if err != nil {
			return derasn1.Block{}, fmt.Errorf("cms: reparsing content field: %w", err)
		}
		return reparsed, nil
	default:
		return derasn1.Block{}, fmt.Errorf("cms: unrecognized content field shape")
	}
}

func lastSet(children []derasn1.Block) *derasn1.Block {
	for i := len(children) - 1; i >= 0; i-- {
		if children[i].Kind == derasn1.KindSet {
			return &children[i]
		}
	}
	return nil
}

// findCertificates looks for the SignedData's optional "certificates [0]
// IMPLICIT SET OF Certificate" field: a context-specific, tag-0,
// constructed block whose content is a run of certificate SEQUENCEs.
func findCertificates(sd derasn1.Block) [][]byte {
	for _, child := range sd.Children {
		if child.Class != derasn1.ClassContextSpecific || child.Tag != 0 || !child.Constructed {
			continue
		}
		items, err := derasn1.DecodeAll(child.Raw)
		if err != nil {
			continue
		}
		var out [][]byte
		for _, item := range items {
			if item.Kind == derasn1.KindSequence {
				out = append(out, item.FullBytes)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return nil
}

func parseSignerInfo(seq derasn1.Block) (SignerInfo, error) {
	children := seq.Children
	if len(children) < 3 {
		return SignerInfo{}, fmt.Errorf("cms: signerInfo has too few fields")
	}

	issuerAndSerial := children[1]
	if issuerAndSerial.Kind != derasn1.KindSequence || len(issuerAndSerial.Children) < 2 {
		return SignerInfo{}, fmt.Errorf("cms: issuerAndSerialNumber malformed")
	}
	serial := issuerAndSerial.Children[1]
	if serial.Kind != derasn1.KindInteger {
		return SignerInfo{}, fmt.Errorf("cms: serialNumber is not an integer")
	}

	digestAlg := children[2]
	if digestAlg.Kind != derasn1.KindSequence || len(digestAlg.Children) == 0 || digestAlg.Children[0].Kind != derasn1.KindOID {
		return SignerInfo{}, fmt.Errorf("cms: digestAlgorithm malformed")
	}

	si := SignerInfo{
		DigestAlgorithm: digestAlg.Children[0].OIDString(),
		SerialNumber:    serial.Raw,
	}

	// signedAttrs [0] IMPLICIT SET: scan everywhere, not a fixed index,
	// since its presence shifts every field after it.
	for _, c := range children {
		if c.Class == derasn1.ClassContextSpecific && c.Constructed && c.Tag == 0 && c.Kind == derasn1.KindUnknown {
			si.SignedAttrsRaw = reserializeAsSet(c.Raw)
			si.MessageDigest = extractMessageDigest(c.Raw)
			break
		}
	}

	// signatureAlgorithm: the first Sequence{OID, ...} appearing after the
	// digestAlgorithm field (index 2); its OID is taken as found, without
	// checking which algorithm it names. digestAlgorithm itself is skipped
	// by starting at index 3.
	for i := 3; i < len(children); i++ {
		c := children[i]
		if c.Kind == derasn1.KindSequence && len(c.Children) > 0 && c.Children[0].Kind == derasn1.KindOID {
			si.SignatureAlgorithm = c.Children[0].OIDString()
			break
		}
	}

	// signature/encryptedDigest: the loose heuristic is "first OCTET
	// STRING at index >= 4", rather than a fixed field position, since
	// signedAttrs' presence and signatureAlgorithm's parameter shape both
	// shift where it actually lands.
	for i := 4; i < len(children); i++ {
		if children[i].Kind == derasn1.KindOctetString {
			si.Signature = children[i].Raw
			break
		}
	}
	if si.Signature == nil {
		return SignerInfo{}, fmt.Errorf("cms: signature bytes not found")
	}

	return si, nil
}

// reserializeAsSet turns the IMPLICIT [0] signedAttrs content back into a
// proper DER SET OF (tag 0x31) so its bytes hash the same way the signer
// originally computed the message digest over: the CMS signing operation
// digests the SET encoding, never the IMPLICIT [0] form found on the wire.
func reserializeAsSet(content []byte) []byte {
	out := []byte{0x31}
	out = append(out, encodeLength(len(content))...)
	out = append(out, content...)
	return out
}

func encodeLength(n int) []byte {
	if n < 128 {
		return []byte{byte(n)}
	}
	if n <= 0xFF {
		return []byte{0x81, byte(n)}
	}
	return []byte{0x82, byte(n >> 8), byte(n)}
}

// extractMessageDigest finds the messageDigest attribute inside a
// signedAttrs content blob, tolerating both shapes real-world producers
// emit: the content decoding to a single wrapping SET (unwrapped one more
// level), or already a flat list of attribute SEQUENCEs.
func extractMessageDigest(content []byte) []byte {
	attrs, err := derasn1.DecodeAll(content)
	if err != nil {
		return nil
	}
	if len(attrs) == 1 && attrs[0].Kind == derasn1.KindSet {
		attrs = attrs[0].Children
	}
	for _, a := range attrs {
		if a.Kind != derasn1.KindSequence || len(a.Children) < 2 {
			continue
		}
		if a.Children[0].Kind != derasn1.KindOID || a.Children[0].OIDString() != oidMessageDigest {
			continue
		}
		values := a.Children[1]
		if values.Kind == derasn1.KindSet && len(values.Children) > 0 {
			return values.Children[0].Raw
		}
	}
	return nil
}
