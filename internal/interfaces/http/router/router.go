package router

import (
	"net/http"
	"path"
	"sort"

	"github.com/gin-gonic/gin"
)

// Area is a block of routes sharing a path prefix and middleware. Areas
// are described first and mounted onto gin in one pass, so a route table
// can be built, inspected and tested without an engine.
type Area struct {
	prefix   string
	use      []gin.HandlerFunc
	routes   []route
	children []*Area
}

type route struct {
	method   string
	path     string
	handlers []gin.HandlerFunc
}

// NewArea starts an area mounted at prefix, which may be empty
func NewArea(prefix string) *Area {
	return &Area{prefix: prefix}
}

// Use adds middleware run before every route of the area and its children
func (a *Area) Use(mw ...gin.HandlerFunc) *Area {
	a.use = append(a.use, mw...)
	return a
}

// Sub adds a nested area. Middleware added to it does not leak to siblings.
func (a *Area) Sub(prefix string) *Area {
	child := NewArea(prefix)
	a.children = append(a.children, child)
	return child
}

func (a *Area) Handle(method, p string, handlers ...gin.HandlerFunc) *Area {
	a.routes = append(a.routes, route{method: method, path: p, handlers: handlers})
	return a
}

func (a *Area) GET(p string, handlers ...gin.HandlerFunc) *Area {
	return a.Handle(http.MethodGet, p, handlers...)
}

func (a *Area) POST(p string, handlers ...gin.HandlerFunc) *Area {
	return a.Handle(http.MethodPost, p, handlers...)
}

func (a *Area) PUT(p string, handlers ...gin.HandlerFunc) *Area {
	return a.Handle(http.MethodPut, p, handlers...)
}

func (a *Area) DELETE(p string, handlers ...gin.HandlerFunc) *Area {
	return a.Handle(http.MethodDelete, p, handlers...)
}

func (a *Area) mount(parent *gin.RouterGroup) {
	g := parent.Group(a.prefix, a.use...)
	for _, r := range a.routes {
		g.Handle(r.method, r.path, r.handlers...)
	}
	for _, child := range a.children {
		child.mount(g)
	}
}

// Routes lists "METHOD /path" for every route under base, sorted
func (a *Area) Routes(base string) []string {
	var out []string
	a.walk(base, func(method, full string) { out = append(out, method+" "+full) })
	sort.Strings(out)
	return out
}

func (a *Area) walk(base string, fn func(method, full string)) {
	here := joinPath(base, a.prefix)
	for _, r := range a.routes {
		fn(r.method, joinPath(here, r.path))
	}
	for _, child := range a.children {
		child.walk(here, fn)
	}
}

// joinPath joins like gin does, keeping a trailing slash of p
func joinPath(base, p string) string {
	if p == "" {
		return base
	}
	joined := path.Join(base, p)
	if p[len(p)-1] == '/' && joined[len(joined)-1] != '/' {
		joined += "/"
	}
	return joined
}

// API is the versioned root every Area is mounted under
type API struct {
	version string
	use     []gin.HandlerFunc
	areas   []*Area
}

// NewAPI returns an API mounted at /api/<version>
func NewAPI(version string) *API {
	return &API{version: version}
}

// BasePath returns the versioned prefix
func (api *API) BasePath() string {
	return "/api/" + api.version
}

// Use adds middleware to versioned routes only. Infrastructure endpoints
// registered directly on the engine are not affected.
func (api *API) Use(mw ...gin.HandlerFunc) *API {
	api.use = append(api.use, mw...)
	return api
}

// Add queues areas for Mount
func (api *API) Add(areas ...*Area) *API {
	api.areas = append(api.areas, areas...)
	return api
}

// Mount registers every queued area on engine
func (api *API) Mount(engine *gin.Engine) {
	root := engine.Group(api.BasePath(), api.use...)
	for _, a := range api.areas {
		a.mount(root)
	}
}

// Routes lists every versioned route, sorted
func (api *API) Routes() []string {
	var out []string
	for _, a := range api.areas {
		out = append(out, a.Routes(api.BasePath())...)
	}
	sort.Strings(out)
	return out
}
