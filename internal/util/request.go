package util

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/thushan/warden/internal/core/domain"
)

const (
	HeaderForwardedFor = "X-Forwarded-For"
	HeaderRequestID    = "X-Request-ID"
)

type contextKey string

const (
	identityContextKey  contextKey = "identity"
	requestIDContextKey contextKey = "request_id"
)

func ContextWithIdentity(ctx context.Context, identity string) context.Context {
	return context.WithValue(ctx, identityContextKey, identity)
}

func IdentityFromContext(ctx context.Context) (string, bool) {
	identity, ok := ctx.Value(identityContextKey).(string)
	return identity, ok && identity != ""
}

func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDContextKey, id)
}

func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDContextKey).(string)
	return id
}

func GenerateRequestID() string {
	return uuid.NewString()
}

// IdentityResolver derives the caller identity for stateful tracking.
type IdentityResolver struct {
	trustedCIDRs      []*net.IPNet
	trustProxyHeaders bool
}

func NewIdentityResolver(trustProxyHeaders bool, trustedCIDRs []*net.IPNet) *IdentityResolver {
	return &IdentityResolver{
		trustProxyHeaders: trustProxyHeaders,
		trustedCIDRs:      trustedCIDRs,
	}
}

func (ir *IdentityResolver) Resolve(r *http.Request) string {
	return ResolveIdentity(r, ir.trustProxyHeaders, ir.trustedCIDRs)
}

// ResolveIdentity returns the peer address, then the first forwarded-for
// address, then the unknown sentinel. A peer inside trustedCIDRs is a proxy we
// trust to overwrite X-Forwarded-For, so its first entry wins instead.
func ResolveIdentity(r *http.Request, trustProxyHeaders bool, trustedCIDRs []*net.IPNet) string {
	peer := getSourceIP(r)
	forwarded := firstForwardedIP(r)

	if peer != nil {
		if trustProxyHeaders && forwarded != nil && isIPInTrustedCIDRs(peer, trustedCIDRs) {
			return forwarded.String()
		}
		return peer.String()
	}

	if forwarded != nil {
		return forwarded.String()
	}
	return domain.UnknownIdentity
}

func getSourceIP(r *http.Request) net.IP {
	if r.RemoteAddr == "" {
		return nil
	}
	if ip, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return net.ParseIP(ip)
	}
	return net.ParseIP(r.RemoteAddr)
}

func firstForwardedIP(r *http.Request) net.IP {
	header := r.Header.Get(HeaderForwardedFor)
	if header == "" {
		return nil
	}
	first := strings.TrimSpace(strings.Split(header, ",")[0])
	if host, _, err := net.SplitHostPort(first); err == nil {
		first = host
	}
	return net.ParseIP(first)
}
