// clearpass/identity.go
package clearpass

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Identity is a user principal of the form local@domain, as stored in the
// social_username attribute of endpoints and the subject common name of certificates.
type Identity struct {
	LocalPart string
	Domain    string
}

// ParseIdentity splits s at its first "@". Both halves must be non-empty.
func ParseIdentity(s string) (Identity, error) {
	local, domain, found := strings.Cut(s, "@")
	switch {
	case !found:
		return Identity{}, &InvalidArgumentError{Argument: "identity", Value: s, Reason: "missing @"}
	case local == "":
		return Identity{}, &InvalidArgumentError{Argument: "identity", Value: s, Reason: "empty local part"}
	case domain == "":
		return Identity{}, &InvalidArgumentError{Argument: "identity", Value: s, Reason: "empty domain"}
	}
	return Identity{LocalPart: local, Domain: domain}, nil
}

func (i Identity) String() string {
	return i.LocalPart + "@" + i.Domain
}

// filterExpression renders the JSON filter object ClearPass expects in the filter
// query parameter, e.g. {"social_username":"alice@example.com"}. The result still
// has to be URL-encoded.
func filterExpression(field string, id Identity) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(map[string]string{field: id.String()}); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
