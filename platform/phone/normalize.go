// Package phone formats CRM phone numbers.
package phone

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// DefaultRegion reads national numbers when no region is configured.
const DefaultRegion = "US"

// NormalizeE164In returns input in E.164 form, reading national numbers as
// belonging to region. Input that is not a valid number comes back trimmed
// but otherwise untouched so nothing the CRM stored is lost.
func NormalizeE164In(input, region string) string {
	raw := strings.TrimSpace(input)
	if raw == "" {
		return ""
	}
	if region = strings.ToUpper(strings.TrimSpace(region)); region == "" {
		region = DefaultRegion
	}

	if number, err := phonenumbers.Parse(raw, region); err == nil && phonenumbers.IsValidNumber(number) {
		return phonenumbers.Format(number, phonenumbers.E164)
	}
	return raw
}
