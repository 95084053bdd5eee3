package certificate

import (
	"encoding/pem"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/wireclient/httpcore/internal/obs"
)

// ParseDER parses a single DER-encoded X.509 certificate, spec §4.3.
func ParseDER(der []byte, log *zap.Logger) (*ParsedCertificate, error) {
	log = obs.Named(log, "certificate")
	certSeq, err := readSequence(der)
	if err != nil {
		return nil, wrapParseErr("certificate is not a SEQUENCE", err)
	}

	tbsTLV, rest, err := readTLV(certSeq)
	if err != nil || tbsTLV.Tag != tagSequence {
		return nil, parseErr("missing TBSCertificate")
	}
	// signatureAlgorithm and signatureValue follow; not modeled (peer
	// identity and signature verification are external TLS concerns).
	_ = rest

	pc, err := parseTBSCertificate(tbsTLV.Raw, log)
	if err != nil {
		return nil, err
	}
	return pc, nil
}

// ParsePEM parses PEM text delimited by the standard BEGIN/END CERTIFICATE
// markers, decoding the first block found.
func ParsePEM(text []byte, log *zap.Logger) (*ParsedCertificate, error) {
	block, _ := pem.Decode(text)
	if block == nil {
		return nil, parseErr("no PEM block found")
	}
	if block.Type != "CERTIFICATE" {
		return nil, parseErr(fmt.Sprintf("unexpected PEM block type %q", block.Type))
	}
	return ParseDER(block.Bytes, log)
}

func parseTBSCertificate(tbs []byte, log *zap.Logger) (*ParsedCertificate, error) {
	pc := &ParsedCertificate{}

	b := tbs
	// version [0] EXPLICIT INTEGER DEFAULT v1 -- optional context tag 0.
	if t, rest, err := readTLV(b); err == nil && t.Class == classContextSpecific && t.Tag == 0 {
		b = rest
	}

	serialTLV, b, err := readTLV(b)
	if err != nil || serialTLV.Tag != tagInteger {
		return nil, parseErr("missing serialNumber")
	}
	pc.SerialNumber = decodeInteger(serialTLV.Raw)

	// signature AlgorithmIdentifier
	_, b, err = readTLV(b)
	if err != nil {
		return nil, parseErr("missing signature algorithm")
	}

	issuerTLV, b, err := readTLV(b)
	if err != nil || issuerTLV.Tag != tagSequence {
		return nil, parseErr("missing issuer Name")
	}
	pc.Issuer, err = parseName(issuerTLV.Raw)
	if err != nil {
		log.Warn("issuer DN parse incomplete", zap.Error(err))
	}

	validityTLV, b, err := readTLV(b)
	if err != nil || validityTLV.Tag != tagSequence {
		return nil, parseErr("missing validity")
	}
	pc.NotBefore, pc.NotAfter, err = parseValidity(validityTLV.Raw)
	if err != nil {
		return nil, wrapParseErr("malformed validity dates", err)
	}

	subjectTLV, b, err := readTLV(b)
	if err != nil || subjectTLV.Tag != tagSequence {
		return nil, parseErr("missing subject Name")
	}
	pc.SubjectDER = append([]byte(nil), subjectTLV.Raw...)
	pc.Subject, err = parseName(subjectTLV.Raw)
	if err != nil {
		log.Warn("subject DN parse incomplete", zap.Error(err))
	}

	spkiTLV, b, err := readTLV(b)
	if err != nil || spkiTLV.Tag != tagSequence {
		return nil, parseErr("missing subjectPublicKeyInfo")
	}
	pc.SPKIDER = append([]byte(nil), spkiTLV.Raw...)
	pc.KeyAlgorithm, pc.KeyBits, err = parseSPKI(spkiTLV.Raw)
	if err != nil {
		log.Warn("key algorithm detection incomplete", zap.Error(err))
	}

	// Skip optional issuerUniqueID [1], subjectUniqueID [2]; find
	// extensions [3] EXPLICIT SEQUENCE OF Extension.
	for len(b) > 0 {
		t, rest, err := readTLV(b)
		if err != nil {
			break
		}
		b = rest
		if t.Class != classContextSpecific {
			continue
		}
		switch t.Tag {
		case 1, 2:
			continue
		case 3:
			extSeqTLV, _, err := readTLV(t.Raw)
			if err != nil || extSeqTLV.Tag != tagSequence {
				continue
			}
			applyExtensions(pc, parseExtensions(extSeqTLV.Raw, log), log)
		}
	}

	return pc, nil
}

func applyExtensions(pc *ParsedCertificate, exts []extension, log *zap.Logger) {
	for _, ext := range exts {
		switch ext.OID {
		case oidSubjectAltName:
			dns, ips := parseSAN(ext.Value)
			pc.SANDNSNames = append(pc.SANDNSNames, dns...)
			pc.SANIPAddresses = append(pc.SANIPAddresses, ips...)
		case oidBasicConstraints:
			if parseBasicConstraints(ext.Value) {
				pc.IsCA = true
			}
		case oidKeyUsage:
			pc.KeyUsage = parseKeyUsage(ext.Value)
		case oidAuthorityInfoAcc:
			pc.OCSPURLs = append(pc.OCSPURLs, parseAuthorityInfoAccess(ext.Value)...)
		case oidCRLDistribution:
			pc.CRLURLs = append(pc.CRLURLs, parseCRLDistributionPoints(ext.Value)...)
		default:
			log.Debug("unrecognized extension, ignored", zap.String("oid", ext.OID))
		}
	}
}

// parseName decodes a Name ::= RDNSequence into an ordered DN, preserving
// encounter order across RDNs (spec §3: DN is an ordered map).
func parseName(raw []byte) (DN, error) {
	var dn DN
	for len(raw) > 0 {
		rdnTLV, rest, err := readTLV(raw)
		if err != nil || rdnTLV.Tag != tagSet {
			return dn, parseErr("RDN is not a SET")
		}
		raw = rest
		atvSeq := rdnTLV.Raw
		for len(atvSeq) > 0 {
			atvTLV, atvRest, err := readTLV(atvSeq)
			if err != nil || atvTLV.Tag != tagSequence {
				break
			}
			atvSeq = atvRest
			oidTLV, valTLV, err := readTLV(atvTLV.Raw)
			if err != nil || oidTLV.Tag != tagOID {
				continue
			}
			oid, err := decodeOID(oidTLV.Raw)
			if err != nil {
				continue
			}
			vt, _, err := readTLV(valTLV)
			if err != nil {
				continue
			}
			switch vt.Tag {
			case tagUTF8String, tagPrintableString, tagIA5String:
				dn.OIDs = append(dn.OIDs, oid)
				dn.Values = append(dn.Values, string(vt.Raw))
			}
		}
	}
	return dn, nil
}

func parseValidity(raw []byte) (time.Time, time.Time, error) {
	notBeforeTLV, rest, err := readTLV(raw)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	notAfterTLV, _, err := readTLV(rest)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	nb, err := parseTime(notBeforeTLV)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	na, err := parseTime(notAfterTLV)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return nb.UTC(), na.UTC(), nil
}

func parseTime(t tlv) (time.Time, error) {
	switch t.Tag {
	case tagUTCTime:
		return time.Parse("060102150405Z0700", string(t.Raw))
	case tagGeneralizedTime:
		return time.Parse("20060102150405Z0700", string(t.Raw))
	default:
		return time.Time{}, parseErr("unsupported time tag")
	}
}

// parseSPKI decodes SubjectPublicKeyInfo ::= SEQUENCE { algorithm
// AlgorithmIdentifier, subjectPublicKey BIT STRING }.
func parseSPKI(raw []byte) (KeyAlgorithm, int, error) {
	algTLV, rest, err := readTLV(raw)
	if err != nil || algTLV.Tag != tagSequence {
		return KeyUnknown, 0, parseErr("missing algorithm identifier")
	}
	oidTLV, params, err := readTLV(algTLV.Raw)
	if err != nil || oidTLV.Tag != tagOID {
		return KeyUnknown, 0, parseErr("missing algorithm OID")
	}
	algOID, err := decodeOID(oidTLV.Raw)
	if err != nil {
		return KeyUnknown, 0, err
	}

	keyTLV, _, err := readTLV(rest)
	if err != nil || keyTLV.Tag != tagBitString {
		return KeyUnknown, 0, parseErr("missing subjectPublicKey")
	}
	keyBits, _, err := decodeBitString(keyTLV.Raw)
	if err != nil {
		return KeyUnknown, 0, err
	}

	algo, bits := detectKeyAlgorithm(algOID, params, keyBits)
	return algo, bits, nil
}
