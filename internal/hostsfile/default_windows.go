//go:build windows

package hostsfile

// DefaultPath is the platform hosts file location consulted when no explicit path is configured.
const DefaultPath = `C:\Windows\System32\drivers\etc\hosts`
