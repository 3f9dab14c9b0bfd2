package router

import (
	"fmt"
	"net/http"
	"sort"

	"github.com/pterm/pterm"

	"github.com/thushan/warden/internal/adapter/security"
	"github.com/thushan/warden/internal/logger"
)

type RouteInfo struct {
	Handler     http.HandlerFunc
	Description string
	Method      string
	Order       int
	Class       security.RouteClass
}

// Pattern is the ServeMux pattern, method qualified when one is set
func (ri RouteInfo) pattern(route string) string {
	if ri.Method == "" {
		return route
	}
	return ri.Method + " " + route
}

// ClassMiddleware wraps a handler for its route class, normally
// security.Services.Middleware
type ClassMiddleware func(class security.RouteClass) func(http.Handler) http.Handler

type RouteRegistry struct {
	routes   map[string]RouteInfo
	logger   logger.StyledLogger
	orderSeq int
	quiet    bool
}

func NewRouteRegistry(logger logger.StyledLogger) *RouteRegistry {
	return &RouteRegistry{
		routes: make(map[string]RouteInfo),
		logger: logger,
	}
}

// Quiet skips the route table on WireUp, used by tests
func (r *RouteRegistry) Quiet() *RouteRegistry {
	r.quiet = true
	return r
}

func (r *RouteRegistry) RegisterProbe(route string, handler http.HandlerFunc, description string) {
	r.register(route, handler, description, http.MethodGet, security.RouteProbe)
}

func (r *RouteRegistry) RegisterAdmin(route string, handler http.HandlerFunc, description, method string) {
	r.register(route, handler, description, method, security.RouteAdmin)
}

// RegisterAPI adds a route that runs the full guard pipeline. An empty
// method matches every method.
func (r *RouteRegistry) RegisterAPI(route string, handler http.HandlerFunc, description, method string) {
	r.register(route, handler, description, method, security.RouteAPI)
}

func (r *RouteRegistry) register(route string, handler http.HandlerFunc, description, method string, class security.RouteClass) {
	info := RouteInfo{
		Handler:     handler,
		Description: description,
		Method:      method,
		Order:       r.orderSeq,
		Class:       class,
	}
	r.routes[info.pattern(route)] = info
	r.orderSeq++
}

// WireUp registers every route on the mux behind the middleware for its class
func (r *RouteRegistry) WireUp(mux *http.ServeMux, wrap ClassMiddleware) {
	for pattern, info := range r.routes {
		var handler http.Handler = info.Handler
		if wrap != nil {
			handler = wrap(info.Class)(handler)
		}
		mux.Handle(pattern, handler)
	}
	if !r.quiet {
		r.logRoutesTable()
	}
}

func (r *RouteRegistry) logRoutesTable() {
	if len(r.routes) == 0 {
		return
	}

	type routeEntry struct {
		pattern string
		class   string
		desc    string
		order   int
	}

	entries := make([]routeEntry, 0, len(r.routes))
	for pattern, info := range r.routes {
		entries = append(entries, routeEntry{
			pattern: pattern,
			class:   info.Class.String(),
			desc:    info.Description,
			order:   info.Order,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].order < entries[j].order
	})

	tableData := [][]string{
		{"ROUTE", "CLASS", "DESCRIPTION"},
	}
	for _, entry := range entries {
		tableData = append(tableData, []string{entry.pattern, entry.class, entry.desc})
	}

	r.logger.InfoWithCount("Registered web routes", len(entries))
	tableString, _ := pterm.DefaultTable.WithHasHeader().WithData(tableData).Srender()
	fmt.Print(tableString)
}

func (r *RouteRegistry) GetRoutes() map[string]RouteInfo {
	return r.routes
}
