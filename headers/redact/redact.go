// headers/redact/redact.go
package redact

import "strings"

const Redacted = "REDACTED"

// sensitiveKeys are matched case-insensitively against header names and form/log field keys.
var sensitiveKeys = map[string]bool{
	"accesstoken":   true,
	"access_token":  true,
	"authorization": true,
	"client_secret": true,
	"password":      true,
}

// RedactSensitiveHeaderData redacts sensitive data based on the hideSensitiveData flag.
func RedactSensitiveHeaderData(hideSensitiveData bool, key, value string) string {
	if hideSensitiveData && sensitiveKeys[strings.ToLower(key)] {
		return Redacted
	}
	return value
}
