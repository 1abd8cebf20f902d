package tangerine

import "encoding/json"

// AddressAnswer is one A or AAAA answer: an IP address and, when requested via Options.TTL, its
// remaining TTL in seconds.
type AddressAnswer struct {
	Address string `json:"address"`
	TTL     uint32 `json:"ttl,omitempty"`
}

// MXAnswer is one MX answer.
type MXAnswer struct {
	Exchange string `json:"exchange"`
	Priority uint16 `json:"priority"`
}

// SRVAnswer is one SRV answer.
type SRVAnswer struct {
	Name     string `json:"name"` // target
	Port     uint16 `json:"port"`
	Priority uint16 `json:"priority"`
	Weight   uint16 `json:"weight"`
}

// SOAAnswer is the single SOA record for a zone.
type SOAAnswer struct {
	Nsname     string `json:"nsname"`
	Hostmaster string `json:"hostmaster"`
	Serial     uint32 `json:"serial"`
	Refresh    uint32 `json:"refresh"`
	Retry      uint32 `json:"retry"`
	Expire     uint32 `json:"expire"`
	Minttl     uint32 `json:"minttl"`
}

// CAAAnswer is one CAA answer. Its tag (issue, issuewild, iodef, ...) is not a fixed field name;
// it is itself the object's key, so CAAAnswer carries its own MarshalJSON/UnmarshalJSON rather than
// relying on struct tags.
type CAAAnswer struct {
	Critical uint8
	Tag      string
	Value    string
}

// MarshalJSON renders {"critical": flags, "<tag>": "<value>"}, with tag substituted in as a
// computed property name rather than a literal "tag" key.
func (c CAAAnswer) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		"critical": c.Critical,
		c.Tag:      c.Value,
	})
}

// UnmarshalJSON reverses MarshalJSON: "critical" is lifted out, and whatever single key remains
// becomes Tag/Value. A cache round-trip goes through this path via reencode.
func (c *CAAAnswer) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if critical, ok := raw["critical"]; ok {
		if err := json.Unmarshal(critical, &c.Critical); err != nil {
			return err
		}
		delete(raw, "critical")
	}
	for tag, value := range raw {
		var v string
		if err := json.Unmarshal(value, &v); err != nil {
			return err
		}
		c.Tag = tag
		c.Value = v
		break // exactly one tag key is expected per CAA answer
	}
	return nil
}

// CertAnswer is one CERT answer, decoded per the 2/2/1/remainder binary layout: type, key tag,
// algorithm, base64 certificate.
type CertAnswer struct {
	Name            string `json:"name"`
	TTL             uint32 `json:"ttl"`
	CertificateType string `json:"certificateType"`
	KeyTag          uint16 `json:"keyTag"`
	Algorithm       uint8  `json:"algorithm"`
	Certificate     string `json:"certificate"`
}

// TLSAAnswer is one TLSA answer, decoded per the 1/1/1/remainder binary layout: usage, selector,
// matching type, raw certificate association data. mtype/matchingType and cert/certificate are
// aliases of the same values, both present so either naming convention round-trips.
type TLSAAnswer struct {
	Name         string `json:"name"`
	TTL          uint32 `json:"ttl"`
	Usage        uint8  `json:"usage"`
	Selector     uint8  `json:"selector"`
	Mtype        uint8  `json:"mtype"`
	MatchingType uint8  `json:"matchingType"`
	Cert         string `json:"cert"`
	Certificate  string `json:"certificate"`
}

// certTypeNames maps the CERT RR's numeric certificate type onto its RFC 4398 mnemonic.
var certTypeNames = map[uint16]string{
	1: "PKIX", 2: "SPKI", 3: "PGP", 4: "IPKIX", 5: "ISPKI", 6: "IPGP",
	7: "ACPKIX", 8: "IACPKIX", 253: "URI", 254: "OID",
}

// AnyAnswer is one ResolveAny result, tagged with its record type.
type AnyAnswer struct {
	Type     string   `json:"type"`
	Address  string   `json:"address,omitempty"`
	TTL      uint32   `json:"ttl,omitempty"`
	Exchange string   `json:"exchange,omitempty"`
	Priority uint16   `json:"priority,omitempty"`
	Value    string   `json:"value,omitempty"`
	Entries  []string `json:"entries,omitempty"`
	SOAAnswer
}

// LookupAddress is one result of Lookup: an address and the family it belongs to.
type LookupAddress struct {
	Address string `json:"address"`
	Family  int    `json:"family"` // 4 or 6
}
