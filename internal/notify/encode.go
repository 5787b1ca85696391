package notify

import "strings"

const upperhex = "0123456789ABCDEF"

// EncodeURIComponent percent-encodes s as UTF-8, leaving only
// A–Z a–z 0–9 - _ . ! ~ * ' ( ) unescaped.  Spaces become %20, never “+”.
// This is the escaping browsers apply to query text, and it keeps the
// WhatsApp bold markers (“*”) readable in the link.
func EncodeURIComponent(s string) string {
	var sb strings.Builder
	sb.Grow(len(s) * 3)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if unreserved(c) {
			sb.WriteByte(c)
			continue
		}
		sb.WriteByte('%')
		sb.WriteByte(upperhex[c>>4])
		sb.WriteByte(upperhex[c&15])
	}
	return sb.String()
}

func unreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '-', '_', '.', '!', '~', '*', '\'', '(', ')':
		return true
	}
	return false
}
