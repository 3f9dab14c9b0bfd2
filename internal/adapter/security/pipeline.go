package security

/*
				Warden Security Adapter - Guard Pipeline
	Guard is the request-facing side of the security layer. Every route is
	wrapped for one RouteClass:

	  RouteAPI    headers, identity, blocked, rate limit, path and user agent
	              heuristics, bounded body read, SQL scan, XSS scan, sanitise
	  RouteAdmin  headers, identity, blocked, rate limit, bearer token
	  RouteProbe  headers only, so liveness checks never trip the guard

	The blocked check always runs first as it is the cheapest rejection.
	Rejections answer with a fixed message from domain.PublicResponse; the
	offending value only ever reaches the logs and the event sink.
*/

import (
	"crypto/subtle"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/thushan/warden/internal/core/constants"
	"github.com/thushan/warden/internal/core/domain"
	"github.com/thushan/warden/internal/core/ports"
	"github.com/thushan/warden/internal/logger"
	"github.com/thushan/warden/internal/util"
)

type RouteClass uint8

const (
	RouteAPI RouteClass = iota
	RouteAdmin
	RouteProbe
)

func (c RouteClass) String() string {
	switch c {
	case RouteAdmin:
		return "admin"
	case RouteProbe:
		return "probe"
	default:
		return "api"
	}
}

const (
	HeaderRateLimitLimit     = "X-RateLimit-Limit"
	HeaderRateLimitRemaining = "X-RateLimit-Remaining"
	HeaderRateLimitReset     = "X-RateLimit-Reset"
	HeaderRetryAfter         = "Retry-After"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type Guard struct {
	resolver   *util.IdentityResolver
	headers    *SecurityHeaders
	size       *SizeValidator
	recorder   *ViolationRecorder
	logger     logger.StyledLogger
	preBody    *ports.SecurityChain
	postBody   *ports.SecurityChain
	admin      *ports.SecurityChain
	adminToken string
}

func (g *Guard) Middleware(class RouteClass) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			g.headers.Apply(w)

			switch class {
			case RouteProbe:
				next.ServeHTTP(w, r)
			case RouteAdmin:
				g.serveAdmin(w, r, next)
			default:
				g.serveAPI(w, r, next)
			}
		})
	}
}

func (g *Guard) securityRequest(r *http.Request) *ports.SecurityRequest {
	identity, ok := util.IdentityFromContext(r.Context())
	if !ok {
		identity = g.resolver.Resolve(r)
	}
	return &ports.SecurityRequest{
		Identity:  identity,
		Path:      r.URL.Path,
		Method:    r.Method,
		UserAgent: r.UserAgent(),
		Headers:   r.Header,
	}
}

func (g *Guard) serveAPI(w http.ResponseWriter, r *http.Request, next http.Handler) {
	req := g.securityRequest(r)
	ctx := r.Context()

	_, err := g.preBody.Check(ctx, req)
	writeRateHeaders(w, req.Rate)
	if err != nil {
		g.reject(w, r, req, err)
		return
	}

	body, err := g.size.ReadBody(w, r)
	if err != nil {
		g.reject(w, r, req, err)
		return
	}

	input := BuildInput(r, body)
	req.Input = input.Value

	if _, err := g.postBody.Check(ctx, req); err != nil {
		g.reject(w, r, req, err)
		return
	}

	sanitised, err := input.Sanitise().Apply(r, body)
	if err != nil {
		g.reject(w, r, req, err)
		return
	}

	next.ServeHTTP(w, sanitised.WithContext(util.ContextWithIdentity(sanitised.Context(), req.Identity)))
}

func (g *Guard) serveAdmin(w http.ResponseWriter, r *http.Request, next http.Handler) {
	req := g.securityRequest(r)

	_, err := g.admin.Check(r.Context(), req)
	writeRateHeaders(w, req.Rate)
	if err != nil {
		g.reject(w, r, req, err)
		return
	}

	if g.adminToken != "" && !g.authorised(r) {
		g.logger.WarnWithIdentity("Admin request without a valid token from", req.Identity,
			"method", req.Method,
			"path", req.Path)
		writeJSONError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	next.ServeHTTP(w, r.WithContext(util.ContextWithIdentity(r.Context(), req.Identity)))
}

func (g *Guard) authorised(r *http.Request) bool {
	header := r.Header.Get(constants.HeaderAuthorization)
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(strings.TrimSpace(token)), []byte(g.adminToken)) == 1
}

func (g *Guard) reject(w http.ResponseWriter, r *http.Request, req *ports.SecurityRequest, err error) {
	g.recorder.Record(r.Context(), req, err)

	var rateErr *domain.RateLimitError
	if errors.As(err, &rateErr) {
		w.Header().Set(HeaderRetryAfter, strconv.Itoa(int(math.Ceil(rateErr.RetryAfter.Seconds()))))
		if rateErr.Window == domain.WindowGlobal {
			w.Header().Set(HeaderRateLimitLimit, strconv.Itoa(rateErr.Limit))
			w.Header().Set(HeaderRateLimitRemaining, "0")
		}
	}

	status, message := domain.PublicResponse(err)
	writeJSONError(w, status, message)
}

func writeRateHeaders(w http.ResponseWriter, decision *domain.RateDecision) {
	if decision == nil {
		return
	}
	h := w.Header()
	h.Set(HeaderRateLimitLimit, strconv.Itoa(decision.Limit))
	h.Set(HeaderRateLimitRemaining, strconv.Itoa(max(decision.Remaining, 0)))
	if !decision.ResetTime.IsZero() {
		h.Set(HeaderRateLimitReset, strconv.FormatInt(decision.ResetTime.Unix(), 10))
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set(constants.ContentTypeHeader, constants.ContentTypeJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
