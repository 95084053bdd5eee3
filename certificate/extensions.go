package certificate

import (
	"net"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const (
	oidSubjectAltName    = "2.5.29.17"
	oidBasicConstraints  = "2.5.29.19"
	oidKeyUsage          = "2.5.29.15"
	oidAuthorityInfoAcc  = "1.3.6.1.5.5.7.1.1"
	oidCRLDistribution   = "2.5.29.31"
	oidAccessDescOCSP    = "1.3.6.1.5.5.7.48.1"

	tagGeneralNameDNS = 2
	tagGeneralNameIP  = 7
	tagGeneralNameURI = 6
)

// extension is one parsed Extension SEQUENCE { extnID, critical?, extnValue
// OCTET STRING }.
type extension struct {
	OID      string
	Critical bool
	Value    []byte
}

// parseExtensions walks the Extensions SEQUENCE, tolerating malformed
// entries (spec §4.3: best-effort). Every tolerated problem is collected
// with multierr rather than logged one at a time, so a single combined
// warning -- not a flood of individually unremarkable log lines -- reaches
// the caller.
func parseExtensions(raw []byte, log *zap.Logger) []extension {
	var out []extension
	var warnings error
	for len(raw) > 0 {
		t, rest, err := readTLV(raw)
		if err != nil {
			warnings = multierr.Append(warnings, wrapParseErr("malformed extension entry, stopping extension scan", err))
			break
		}
		raw = rest

		body := t.Raw
		oidTLV, body, err := readTLV(body)
		if err != nil || oidTLV.Tag != tagOID {
			warnings = multierr.Append(warnings, wrapParseErr("extension missing OID, skipping", err))
			continue
		}
		oid, err := decodeOID(oidTLV.Raw)
		if err != nil {
			warnings = multierr.Append(warnings, wrapParseErr("malformed extension OID, skipping", err))
			continue
		}

		critical := false
		next, remAfterCritical, err := readTLV(body)
		if err == nil && next.Tag == tagBoolean {
			critical = len(next.Raw) == 1 && next.Raw[0] != 0x00
			body = remAfterCritical
		}

		valTLV, _, err := readTLV(body)
		if err != nil || valTLV.Tag != tagOctetString {
			warnings = multierr.Append(warnings, parseErr("extension "+oid+" missing OCTET STRING value, skipping"))
			continue
		}
		out = append(out, extension{OID: oid, Critical: critical, Value: valTLV.Raw})
	}
	if warnings != nil {
		log.Warn("tolerated extension parse issues", zap.Error(warnings))
	}
	return out
}

// parseSAN extracts dNSName and iPAddress GeneralNames. Other GeneralName
// lengths/types are ignored silently per spec §4.3's best-effort rule.
func parseSAN(value []byte) ([]string, []net.IP) {
	var dns []string
	var ips []net.IP
	body, err := readGeneralNamesSeq(value)
	if err != nil {
		return nil, nil
	}
	for len(body) > 0 {
		t, rest, err := readTLV(body)
		if err != nil {
			break
		}
		body = rest
		switch t.Tag {
		case tagGeneralNameDNS:
			dns = append(dns, string(t.Raw))
		case tagGeneralNameIP:
			switch len(t.Raw) {
			case 4:
				ips = append(ips, net.IPv4(t.Raw[0], t.Raw[1], t.Raw[2], t.Raw[3]))
			case 16:
				ip := make(net.IP, 16)
				copy(ip, t.Raw)
				ips = append(ips, ip)
			default:
				// other lengths ignored silently, spec §4.3
			}
		}
	}
	return dns, ips
}

func readGeneralNamesSeq(value []byte) ([]byte, error) {
	t, _, err := readTLV(value)
	if err != nil {
		return nil, err
	}
	return t.Raw, nil
}

// parseBasicConstraints sets is_ca when the encoded BOOLEAN TRUE sequence
// `01 01 FF` appears inside the extension value, exactly as spec §4.3
// mandates (a textual scan rather than a structural SEQUENCE walk, to match
// the teacher-style "match the byte pattern" shortcut the spec calls for).
func parseBasicConstraints(value []byte) bool {
	return containsBytes(value, []byte{0x01, 0x01, 0xff})
}

func containsBytes(haystack, needle []byte) bool {
	if len(needle) == 0 || len(haystack) < len(needle) {
		return false
	}
	for i := 0; i+len(needle) <= len(haystack); i++ {
		match := true
		for j := range needle {
			if haystack[i+j] != needle[j] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

// parseKeyUsage decodes the BIT STRING and maps bit positions to RFC 5280
// §4.2.1.3 names, bit 0 = digitalSignature through bit 8 = decipherOnly.
func parseKeyUsage(value []byte) KeyUsage {
	var ku KeyUsage
	t, _, err := readTLV(value)
	if err != nil || t.Tag != tagBitString {
		return ku
	}
	bits, unused, err := decodeBitString(t.Raw)
	if err != nil {
		return ku
	}
	has := func(pos int) bool {
		byteIdx := pos / 8
		if byteIdx >= len(bits) {
			return false
		}
		bitIdx := 7 - (pos % 8)
		if byteIdx == len(bits)-1 && bitIdx < unused {
			return false
		}
		return bits[byteIdx]&(1<<uint(bitIdx)) != 0
	}
	ku.DigitalSignature = has(0)
	ku.NonRepudiation = has(1)
	ku.KeyEncipherment = has(2)
	ku.DataEncipherment = has(3)
	ku.KeyAgreement = has(4)
	ku.KeyCertSign = has(5)
	ku.CRLSign = has(6)
	ku.EncipherOnly = has(7)
	ku.DecipherOnly = has(8)
	return ku
}

// parseAuthorityInfoAccess collects OCSP URIs from the AccessDescription
// SEQUENCE OF, filtering by access method id-ad-ocsp.
func parseAuthorityInfoAccess(value []byte) []string {
	var urls []string
	seq, err := readSequence(value)
	if err != nil {
		return nil
	}
	for len(seq) > 0 {
		adTLV, rest, err := readTLV(seq)
		if err != nil {
			break
		}
		seq = rest
		body := adTLV.Raw
		methodTLV, body, err := readTLV(body)
		if err != nil || methodTLV.Tag != tagOID {
			continue
		}
		method, err := decodeOID(methodTLV.Raw)
		if err != nil || method != oidAccessDescOCSP {
			continue
		}
		locTLV, _, err := readTLV(body)
		if err != nil || locTLV.Tag != tagGeneralNameURI {
			continue
		}
		urls = append(urls, string(locTLV.Raw))
	}
	return urls
}

// parseCRLDistributionPoints collects HTTP(S) URIs from each
// DistributionPoint's fullName GeneralNames.
func parseCRLDistributionPoints(value []byte) []string {
	var urls []string
	seq, err := readSequence(value)
	if err != nil {
		return nil
	}
	for len(seq) > 0 {
		dpTLV, rest, err := readTLV(seq)
		if err != nil {
			break
		}
		seq = rest
		// DistributionPoint ::= SEQUENCE { distributionPoint [0], ... }
		inner := dpTLV.Raw
		for len(inner) > 0 {
			fieldTLV, fieldRest, err := readTLV(inner)
			if err != nil {
				break
			}
			inner = fieldRest
			if fieldTLV.Class != classContextSpecific || fieldTLV.Tag != 0 {
				continue
			}
			// DistributionPointName ::= CHOICE { fullName [0] GeneralNames, ... }
			fullName := fieldTLV.Raw
			nameTLV, _, err := readTLV(fullName)
			if err != nil || nameTLV.Class != classContextSpecific || nameTLV.Tag != 0 {
				continue
			}
			names := nameTLV.Raw
			for len(names) > 0 {
				gn, gnRest, err := readTLV(names)
				if err != nil {
					break
				}
				names = gnRest
				if gn.Tag != tagGeneralNameURI {
					continue
				}
				uri := string(gn.Raw)
				if strings.HasPrefix(uri, "http://") || strings.HasPrefix(uri, "https://") {
					urls = append(urls, uri)
				}
			}
		}
	}
	return urls
}
