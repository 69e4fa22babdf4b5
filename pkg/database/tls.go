package database

import (
	"fmt"
	"net/url"
	"strings"
)

// TLSOptions are the libpq sslmode, sslcert, sslkey and sslrootcert
// parameters layered onto DATABASE_URL. Empty fields keep whatever the URL
// already carries.
type TLSOptions struct {
	Mode     string
	Cert     string
	Key      string
	RootCert string
}

var sslModes = map[string]bool{
	"disable":     true,
	"allow":       true,
	"prefer":      true,
	"require":     true,
	"verify-ca":   true,
	"verify-full": true,
}

func (o TLSOptions) params() [][2]string {
	return [][2]string{
		{"sslmode", o.Mode},
		{"sslcert", o.Cert},
		{"sslkey", o.Key},
		{"sslrootcert", o.RootCert},
	}
}

// WithTLS returns databaseURL with the non-empty options applied. Both
// postgres:// URLs and keyword/value connection strings are accepted.
func WithTLS(databaseURL string, opts TLSOptions) (string, error) {
	if opts.Mode != "" && !sslModes[opts.Mode] {
		return "", fmt.Errorf("unsupported sslmode %q", opts.Mode)
	}
	if opts == (TLSOptions{}) {
		return databaseURL, nil
	}

	if !strings.HasPrefix(databaseURL, "postgres://") && !strings.HasPrefix(databaseURL, "postgresql://") {
		// keyword/value form: later keys win when pgx parses it
		var b strings.Builder
		b.WriteString(strings.TrimSpace(databaseURL))
		for _, p := range opts.params() {
			if p[1] != "" {
				fmt.Fprintf(&b, " %s=%s", p[0], quoteValue(p[1]))
			}
		}
		return strings.TrimSpace(b.String()), nil
	}

	u, err := url.Parse(databaseURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse database URL: %w", err)
	}
	query := u.Query()
	for _, p := range opts.params() {
		if p[1] != "" {
			query.Set(p[0], p[1])
		}
	}
	u.RawQuery = query.Encode()
	return u.String(), nil
}

func quoteValue(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}
