/*
Package hostsfile loads a platform hosts file into a read-only, in-memory rule set at
construction. It follows the same one-shot, parsed-once-then-read-only-after-load discipline that
the local resolver's resolv.conf loader uses: parse everything up front, store the result, never
touch the filesystem again for the lifetime of the resolver.
*/
package hostsfile

import (
	"bufio"
	"net"
	"os"
	"strings"
)

// Rule is one parsed hosts-file line: an IP and the name list, as written in the file, that maps
// to it.
type Rule struct {
	IP    net.IP
	Names []string
}

// Table is a read-only, loaded-once hosts table.
type Table struct {
	rules []Rule
}

// Load reads and parses the hosts file at path, ignoring comments, blank lines and malformed
// entries (an unparseable first field is skipped rather than failing the whole load, mirroring
// how /etc/hosts in practice has some tolerance for oddities).
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	t := &Table{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		ip := net.ParseIP(fields[0])
		if ip == nil {
			continue
		}
		t.rules = append(t.rules, Rule{IP: ip, Names: fields[1:]})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return t, nil
}

// Empty returns a Table with no rules, used when no hosts file is configured.
func Empty() *Table {
	return &Table{}
}

// LookupName returns the IPv4 and IPv6 addresses (if any) whose rule's name list contains name,
// matched case-insensitively, per the "Hosts shortcut" step of the lookup algorithm.
func (t *Table) LookupName(name string) (v4, v6 []net.IP) {
	for _, rule := range t.rules {
		for _, n := range rule.Names {
			if !strings.EqualFold(n, name) {
				continue
			}
			if ip4 := rule.IP.To4(); ip4 != nil {
				v4 = append(v4, ip4)
			} else {
				v6 = append(v6, rule.IP)
			}
		}
	}
	return v4, v6
}

// LookupAddr returns the names of every rule whose IP equals ip, used by reverse() to satisfy PTR lookups from
// the hosts table before falling back to a network query.
func (t *Table) LookupAddr(ip net.IP) []string {
	var names []string
	for _, rule := range t.rules {
		if rule.IP.Equal(ip) {
			names = append(names, rule.Names...)
		}
	}
	return names
}
