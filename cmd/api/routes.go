package main

import (
	"expvar"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var knownRoutes = map[string]bool{
	"/":              true,
	"/health":        true,
	"/config":        true,
	"/test/database": true,
	"/debug/vars":    true,
	"/metrics":       true,
}

func (app *application) routes() http.Handler {
	router := httprouter.New()
	router.RedirectTrailingSlash = false

	router.NotFound = http.HandlerFunc(app.notFoundResponse)
	router.MethodNotAllowed = http.HandlerFunc(app.methodNotAllowedResponse)

	router.HandlerFunc(http.MethodGet, "/", app.rootHandler)
	router.HandlerFunc(http.MethodGet, "/health", app.healthHandler)
	router.HandlerFunc(http.MethodGet, "/config", app.configCheckHandler)
	router.HandlerFunc(http.MethodGet, "/test/database", app.testDatabaseHandler)

	router.Handler(http.MethodGet, "/debug/vars", expvar.Handler())
	router.Handler(http.MethodGet, "/metrics", promhttp.Handler())

	return app.metrics(app.recoverPanic(app.enableCORS(app.rateLimit(router))))
}

// routeLabel keeps metric label cardinality bounded to the registered routes.
func routeLabel(path string) string {
	if knownRoutes[path] {
		return path
	}
	return "unmatched"
}
