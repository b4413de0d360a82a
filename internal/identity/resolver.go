package identity

import (
	"net"
	"net/http"
	"strings"
)

const (
	KindUser      = "user"
	KindAnonymous = "anonymous"
)

// Identity is the caller of a request: an authenticated user or an
// anonymous client known only by its address.
type Identity struct {
	Kind    string
	Subject string // username for KindUser, empty for anonymous
	Addr    string // client IP, best effort
}

// User returns an authenticated identity.
func User(subject string) Identity {
	return Identity{Kind: KindUser, Subject: subject}
}

// Anonymous returns an unauthenticated identity seen from addr.
func Anonymous(addr string) Identity {
	return Identity{Kind: KindAnonymous, Addr: addr}
}

func (id Identity) IsAnonymous() bool {
	return id.Kind != KindUser || id.Subject == ""
}

// Key is a stable per-client key used for per-client throttle buckets.
func (id Identity) Key() string {
	if !id.IsAnonymous() {
		return KindUser + ":" + id.Subject
	}
	if id.Addr != "" {
		return "ip:" + id.Addr
	}
	return KindAnonymous
}

func (id Identity) String() string {
	if id.IsAnonymous() {
		return KindAnonymous
	}
	return id.Subject
}

// Resolver resolves the caller identity from an HTTP request.
// Token issuance happens upstream; the resolver trusts the user header set
// by the authenticating proxy. The client address comes from the
// connection unless IPHeader names a header set by a trusted proxy.
type Resolver struct {
	UserHeader string
	IPHeader   string // empty: use RemoteAddr only
}

// NewResolver returns a resolver. With trustProxy the first
// X-Forwarded-For entry is taken as the client address; without it a
// caller cannot pick its own per-client bucket by rewriting the header.
func NewResolver(trustProxy bool) *Resolver {
	r := &Resolver{UserHeader: "X-User-Id"}
	if trustProxy {
		r.IPHeader = "X-Forwarded-For"
	}
	return r
}

// Resolve returns the user named by the user header, or an anonymous
// identity carrying the best-known client IP.
func (r *Resolver) Resolve(req *http.Request) Identity {
	if req == nil {
		return Anonymous("")
	}

	if user := strings.TrimSpace(req.Header.Get(r.UserHeader)); user != "" {
		id := User(user)
		id.Addr = clientIP(req, r.IPHeader)
		return id
	}

	return Anonymous(clientIP(req, r.IPHeader))
}

func clientIP(req *http.Request, header string) string {
	if header != "" {
		if ip := parseForwardedIP(req.Header.Get(header)); ip != "" {
			return ip
		}
	}
	return parseRemoteIP(req.RemoteAddr)
}

func parseForwardedIP(value string) string {
	if value == "" {
		return ""
	}
	first, _, _ := strings.Cut(value, ",")
	return strings.TrimSpace(first)
}

func parseRemoteIP(remoteAddr string) string {
	if remoteAddr == "" {
		return ""
	}
	host, _, err := net.SplitHostPort(remoteAddr)
	if err == nil && host != "" {
		return host
	}
	return remoteAddr
}
