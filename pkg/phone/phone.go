package phone

import (
	"errors"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// ErrInvalidNumber is returned when the input cannot be parsed as a dialable number.
var ErrInvalidNumber = errors.New("invalid phone number")

// Normalizer formats phone numbers as E.164 using a default region for national input.
type Normalizer struct {
	defaultRegion string
}

// NewNormalizer constructs a normalizer. An empty region falls back to US.
func NewNormalizer(defaultRegion string) *Normalizer {
	if defaultRegion == "" {
		defaultRegion = "US"
	}
	return &Normalizer{defaultRegion: strings.ToUpper(defaultRegion)}
}

// Normalize returns the E.164 form of raw. Blank input yields an empty string and no error.
func (n *Normalizer) Normalize(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	num, err := phonenumbers.Parse(raw, n.defaultRegion)
	if err != nil {
		return "", ErrInvalidNumber
	}
	if !phonenumbers.IsValidNumber(num) {
		return "", ErrInvalidNumber
	}
	return phonenumbers.Format(num, phonenumbers.E164), nil
}

// Region returns the ISO region code for a normalized number, or empty when unknown.
func (n *Normalizer) Region(e164 string) string {
	num, err := phonenumbers.Parse(e164, n.defaultRegion)
	if err != nil {
		return ""
	}
	return phonenumbers.GetRegionCodeForNumber(num)
}
