package delivery

import "fmt"

// Method selects a delivery mechanism. Sinks are picked by explicit enum
// dispatch, never by a runtime name lookup into a registry.
type Method string

const (
	MethodConsole  Method = "console"
	MethodFile     Method = "file"
	MethodSMTP     Method = "smtp"
	MethodPostmark Method = "postmark"
)

// ParseMethod validates a user-supplied delivery method name
func ParseMethod(s string) (Method, error) {
	switch Method(s) {
	case MethodConsole, MethodFile, MethodSMTP, MethodPostmark:
		return Method(s), nil
	default:
		return "", fmt.Errorf("unknown delivery method %q (want console, file, smtp or postmark)", s)
	}
}
