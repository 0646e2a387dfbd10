package transform

import (
	"regexp"
	"strings"
)

// cpfTail matches the CPF-like 11-digit run MEI company names carry at the
// tail, split into the segments the masked form keeps.
var cpfTail = regexp.MustCompile(`(\D)(\d{5})(\d{3})(\d{3})$`)

// MaskName masks the trailing 11-digit run of a person name, keeping digits
// 6-8 and 9-11 visible: "JOAO SILVA 12345678901" becomes
// "JOAO SILVA ***678***901***". Names without such a tail are returned
// trimmed but otherwise untouched. Masking is idempotent: a masked name no
// longer ends in digits.
func MaskName(name string) string {
	return strings.TrimSpace(cpfTail.ReplaceAllString(name, "${1}***${3}***${4}***"))
}

// MaskPersonalID replaces a partner personal-id field entirely with
// asterisks of identical length.
func MaskPersonalID(id string) string {
	return strings.Repeat("*", len(id))
}
