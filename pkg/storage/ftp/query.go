package ftp

import (
	"fmt"
	"net"
	"net/url"
	"strconv"

	"github.com/ftpstore/ftpstore/pkg/storage"
)

// DefaultPort is used when a query does not name a port. Plain and TLS
// sessions both start on the standard FTP control port.
const DefaultPort = 21

// Scheme identifies the transport protocol of an endpoint.
type Scheme string

const (
	// SchemePlain is cleartext FTP.
	SchemePlain Scheme = "ftp"
	// SchemeSecure is FTP with explicit TLS on the control and data
	// channels.
	SchemeSecure Scheme = "ftps"
)

// Endpoint identifies one remote server. It is a comparable value and is
// used as the session pool key: two queries with the same host, port and
// scheme share a session.
type Endpoint struct {
	Host   string
	Port   int
	Scheme Scheme
}

// Addr returns the host:port network location. It doubles as the rate
// limiter key and the dial address.
func (e Endpoint) Addr() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
}

func (e Endpoint) String() string {
	return string(e.Scheme) + "://" + e.Addr()
}

// ParsedQuery is a query string broken into endpoint identity and remote
// path. It is immutable after construction.
type ParsedQuery struct {
	raw      string
	endpoint Endpoint
	path     string
}

// ParseQuery splits an ftp:// or ftps:// query into its parts. The port
// defaults to 21. Wildcard placeholders such as {sample} are legal in the
// path and preserved verbatim. Rejections are *storage.ValidationError
// values carrying a human-readable reason.
func ParseQuery(query string) (ParsedQuery, error) {
	u, err := url.Parse(query)
	if err != nil {
		return ParsedQuery{}, &storage.ValidationError{Query: query, Reason: err.Error()}
	}

	var scheme Scheme
	switch u.Scheme {
	case "ftp":
		scheme = SchemePlain
	case "ftps":
		scheme = SchemeSecure
	default:
		return ParsedQuery{}, &storage.ValidationError{
			Query:  query,
			Reason: fmt.Sprintf("unsupported scheme %q, expected ftp or ftps", u.Scheme),
		}
	}

	if u.Hostname() == "" {
		return ParsedQuery{}, &storage.ValidationError{Query: query, Reason: "missing host"}
	}

	port := DefaultPort
	if p := u.Port(); p != "" {
		port, err = strconv.Atoi(p)
		if err != nil || port < 1 || port > 65535 {
			return ParsedQuery{}, &storage.ValidationError{Query: query, Reason: fmt.Sprintf("invalid port %q", p)}
		}
	}

	if u.Path == "" {
		return ParsedQuery{}, &storage.ValidationError{Query: query, Reason: "missing remote path"}
	}

	return ParsedQuery{
		raw: query,
		endpoint: Endpoint{
			Host:   u.Hostname(),
			Port:   port,
			Scheme: scheme,
		},
		path: u.Path,
	}, nil
}

// ValidateQuery reports whether query is one this backend can serve.
func ValidateQuery(query string) error {
	_, err := ParseQuery(query)
	return err
}

// Endpoint returns the server identity part of the query.
func (q ParsedQuery) Endpoint() Endpoint {
	return q.endpoint
}

// Path returns the absolute remote path, wildcards included.
func (q ParsedQuery) Path() string {
	return q.path
}

// LocalSuffix returns the suffix a host should stage this object under
// locally: the network location followed by the remote path.
func (q ParsedQuery) LocalSuffix() string {
	return q.endpoint.Addr() + q.path
}

func (q ParsedQuery) String() string {
	return q.raw
}
