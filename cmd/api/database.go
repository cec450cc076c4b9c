package main

import (
	"errors"
	"net/http"

	"neniwer/api/internal/probe"
)

const (
	connectedLabel         = "✅ CONNECTED"
	notConfiguredLabel     = "❌ NOT CONFIGURED"
	driverUnavailableLabel = "❌ POSTGRES DRIVER NOT INSTALLED"
)

// testDatabaseHandler opens and closes one connection to DATABASE_URL. Every
// outcome is a 200; callers read the embedded status.
func (app *application) testDatabaseHandler(w http.ResponseWriter, r *http.Request) {
	var label, status, outcome string

	err := app.prober.Probe(r.Context(), app.cfg.databaseURL)
	switch {
	case err == nil:
		label, status, outcome = connectedLabel, "success", "connected"
	case errors.Is(err, probe.ErrDriverUnavailable):
		label, status, outcome = driverUnavailableLabel, "error", "driver_unavailable"
	case errors.Is(err, probe.ErrNotConfigured):
		label, status, outcome = notConfiguredLabel, "error", "not_configured"
	default:
		label = "❌ CONNECTION FAILED: " + err.Error()
		status, outcome = "error", "connection_failed"
		app.logger.Error(err, map[string]string{"probe": "database"})
	}

	databaseProbeTotal.WithLabelValues(outcome).Inc()

	err = app.writeJSON(w, http.StatusOK, nil, envelope{"database": label, "status": status})
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
