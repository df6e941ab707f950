package email

import "strings"

// RedactEmail masks an address for logging: "operator@example.com" becomes
// "o***@example.com". A display-name form ("Album <album@example.com>") is
// reduced to the masked address. Input without "@" is masked entirely.
func RedactEmail(addr string) string {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return ""
	}
	if open := strings.LastIndexByte(addr, '<'); open >= 0 && strings.HasSuffix(addr, ">") {
		addr = addr[open+1 : len(addr)-1]
	}

	local, domain, ok := strings.Cut(addr, "@")
	if !ok {
		return "***"
	}
	if local == "" {
		return "***@" + domain
	}
	return local[:1] + "***@" + domain
}
