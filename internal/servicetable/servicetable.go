/*
Package servicetable is a small, compiled-in port/protocol -> service-name table, laid out the way
/etc/services is: name, port, protocol. It backs lookupService, which consults TCP first, then
UDP, per the lookup algorithm.
*/
package servicetable

// entries covers the common, well-known ports a lookupService caller is likely to probe; it is
// not an exhaustive IANA registry mirror.
var entries = []struct {
	name     string
	port     int
	protocol string
}{
	{"echo", 7, "tcp"}, {"echo", 7, "udp"},
	{"ftp-data", 20, "tcp"},
	{"ftp", 21, "tcp"},
	{"ssh", 22, "tcp"}, {"ssh", 22, "udp"},
	{"telnet", 23, "tcp"},
	{"smtp", 25, "tcp"},
	{"domain", 53, "tcp"}, {"domain", 53, "udp"},
	{"http", 80, "tcp"}, {"http", 80, "udp"},
	{"pop3", 110, "tcp"},
	{"ntp", 123, "udp"},
	{"imap", 143, "tcp"},
	{"snmp", 161, "udp"},
	{"ldap", 389, "tcp"}, {"ldap", 389, "udp"},
	{"https", 443, "tcp"}, {"https", 443, "udp"},
	{"submission", 587, "tcp"},
	{"ldaps", 636, "tcp"},
	{"imaps", 993, "tcp"},
	{"pop3s", 995, "tcp"},
	{"socks", 1080, "tcp"},
	{"mysql", 3306, "tcp"},
	{"rdp", 3389, "tcp"}, {"rdp", 3389, "udp"},
	{"postgresql", 5432, "tcp"},
	{"redis", 6379, "tcp"},
}

// Lookup returns the service name for port, checking TCP before UDP, and reports whether a match
// was found.
func Lookup(port int) (name string, ok bool) {
	var udpMatch string
	for _, e := range entries {
		if e.port != port {
			continue
		}
		if e.protocol == "tcp" {
			return e.name, true
		}
		if e.protocol == "udp" && udpMatch == "" {
			udpMatch = e.name
		}
	}
	if udpMatch != "" {
		return udpMatch, true
	}
	return "", false
}
