package remote

import (
	"encoding/base64"
	"net/url"
	"strings"

	"github.com/pkg/errors"
)

// ErrInvalidConnectionString is returned (wrapped) for a missing or malformed
// connection string. It is an argument error: retrying will not help.
var ErrInvalidConnectionString = errors.New("invalid App Configuration connection string")

// ConnectionString is the parsed form of "Endpoint=...;Id=...;Secret=...".
type ConnectionString struct {
	Endpoint string
	ID       string
	Secret   string
}

// ParseConnectionString validates s. Segment names are matched case-insensitively;
// the secret must be base64.
func ParseConnectionString(s string) (ConnectionString, error) {
	if strings.TrimSpace(s) == "" {
		return ConnectionString{}, invalid("connection string is empty")
	}

	var cs ConnectionString
	for _, seg := range strings.Split(s, ";") {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}
		// split on the first '=' only: base64 secrets end in padding
		i := strings.IndexByte(seg, '=')
		if i <= 0 {
			return ConnectionString{}, invalid("malformed segment %q", redactSegment(seg))
		}
		name, value := seg[:i], seg[i+1:]
		switch strings.ToLower(name) {
		case "endpoint":
			cs.Endpoint = value
		case "id":
			cs.ID = value
		case "secret":
			cs.Secret = value
		default:
			return ConnectionString{}, invalid("unknown segment %q", name)
		}
	}

	switch {
	case cs.Endpoint == "":
		return ConnectionString{}, invalid("missing Endpoint")
	case cs.ID == "":
		return ConnectionString{}, invalid("missing Id")
	case cs.Secret == "":
		return ConnectionString{}, invalid("missing Secret")
	}

	u, err := url.Parse(cs.Endpoint)
	if err != nil || u.Host == "" || (u.Scheme != "https" && u.Scheme != "http") {
		return ConnectionString{}, invalid("endpoint %q is not an http(s) URL", cs.Endpoint)
	}
	if _, err := base64.StdEncoding.DecodeString(cs.Secret); err != nil {
		return ConnectionString{}, invalid("secret is not base64")
	}
	return cs, nil
}

// Value renders the full connection string, secret included.
func (cs ConnectionString) Value() string {
	return "Endpoint=" + cs.Endpoint + ";Id=" + cs.ID + ";Secret=" + cs.Secret
}

// String is safe to log.
func (cs ConnectionString) String() string {
	return "Endpoint=" + cs.Endpoint + ";Id=" + cs.ID + ";Secret=***"
}

func invalid(format string, args ...interface{}) error {
	return errors.Wrapf(ErrInvalidConnectionString, format, args...)
}

func redactSegment(seg string) string {
	if len(seg) > 8 {
		return seg[:8] + "..."
	}
	return seg
}
