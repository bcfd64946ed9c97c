package tenant

import (
	"context"
	"net"
	"regexp"
	"strings"
)

var (
	idRegex   = regexp.MustCompile(`^[a-z0-9-]+$`)
	ipv4Regex = regexp.MustCompile(`^\d{1,3}(\.\d{1,3}){3}$`)
)

// Context is the tenant a request was addressed to.
// An empty ID means the central (root) domain.
type Context struct {
	ID     string
	Host   string // hostname, without port
	Scheme string
}

func (c Context) IsCentral() bool { return c.ID == "" }

type ctxKey struct{}

func WithContext(ctx context.Context, tc Context) context.Context {
	return context.WithValue(ctx, ctxKey{}, tc)
}

func FromContext(ctx context.Context) (Context, bool) {
	tc, ok := ctx.Value(ctxKey{}).(Context)
	return tc, ok
}

// IDFromContext returns the tenant id of ctx, or "" for central / unknown.
func IDFromContext(ctx context.Context) string {
	tc, _ := FromContext(ctx)
	return tc.ID
}

type Resolver struct {
	DefaultTenant string // used for localhost & bare IPv4 hosts
	APIPort       string
	CentralAPIURL string
}

// ValidID reports whether id can name a tenant.
func ValidID(id string) bool {
	return idRegex.MatchString(id)
}

// Resolve derives the tenant id from a hostname.
//   - "<x>.localhost" -> x
//   - "localhost", "127.0.0.1", IPv4 -> DefaultTenant
//   - "example.com", "www.example.com" -> "" (central)
//   - "<x>.example.com" -> x
func (r Resolver) Resolve(hostname string) string {
	hostname = strings.ToLower(stripPort(strings.TrimSpace(hostname)))
	hostname = strings.TrimSuffix(hostname, ".")
	if hostname == "" {
		return ""
	}

	if strings.HasSuffix(hostname, ".localhost") {
		return validOrEmpty(strings.SplitN(hostname, ".", 2)[0])
	}
	if hostname == "localhost" || hostname == "127.0.0.1" || ipv4Regex.MatchString(hostname) {
		return r.DefaultTenant
	}

	parts := strings.Split(hostname, ".")
	if len(parts) <= 2 || parts[0] == "www" {
		return ""
	}
	return validOrEmpty(parts[0])
}

// FromRequest builds the Context of a request addressed to host ("name[:port]").
func (r Resolver) FromRequest(host, scheme string) Context {
	if scheme == "" {
		scheme = "http"
	}
	return Context{
		ID:     r.Resolve(host),
		Host:   strings.ToLower(stripPort(host)),
		Scheme: scheme,
	}
}

// APIBaseURL is the root of the church API serving tc.
// Tenants are served on their own host; central uses CentralAPIURL when set.
func (r Resolver) APIBaseURL(tc Context) string {
	if tc.ID == "" && r.CentralAPIURL != "" {
		return strings.TrimSuffix(r.CentralAPIURL, "/")
	}
	host := tc.Host
	if host == "" {
		host = "localhost"
	}
	if r.APIPort != "" {
		host = net.JoinHostPort(host, r.APIPort)
	}
	scheme := tc.Scheme
	if scheme == "" {
		scheme = "http"
	}
	return scheme + "://" + host + "/api"
}

// ValidFor reports whether a session issued for sessionTenant may be used on requestTenant.
// Requests without a tenant (local development) accept any session.
func ValidFor(sessionTenant, requestTenant string) bool {
	return requestTenant == "" || sessionTenant == requestTenant
}

func validOrEmpty(id string) string {
	if ValidID(id) {
		return id
	}
	return ""
}

func stripPort(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return host
}
