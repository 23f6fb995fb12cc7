// Package hash produces deterministic content fingerprints used to build
// cache keys. Identifiers are hashes rather than raw addresses so key length
// stays bounded and no encoding issues leak into the backend.
package hash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/leaselens/leaselens/internal/model"
)

// fingerprint hashes s and truncates to 16 bytes (32 hex chars).
func fingerprint(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:16])
}

// Address fingerprints a canonical address string.
func Address(addr string) string {
	return fingerprint("addr|" + strings.TrimSpace(strings.ToLower(addr)))
}

// Prefs fingerprints a preference set. Nil-equivalent and zero-value
// preferences produce the same fingerprint.
func Prefs(p model.Preferences) string {
	return fingerprint("prefs|work=" + strings.TrimSpace(strings.ToLower(p.WorkAddress)))
}

// Token fingerprints a bearer token so raw credentials never reach the kv
// backend or the logs.
func Token(token string) string {
	return fingerprint("token|" + token)
}

// ReportKey builds the composite fingerprint for a generated report:
// address hash + preference hash + decoder config version.
func ReportKey(addrHash, prefsHash string, version int) string {
	return fingerprint(fmt.Sprintf("report|%s|%s|v%d", addrHash, prefsHash, version))
}
