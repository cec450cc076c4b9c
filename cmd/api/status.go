package main

import (
	"net/http"
)

const (
	readyLabel   = "✅ READY"
	missingLabel = "❌ MISSING"

	// Kept as a fixed literal so /health responses stay byte-identical.
	healthTimestamp = "2024-01-01T00:00:00Z"
)

func (app *application) rootHandler(w http.ResponseWriter, r *http.Request) {
	evlp := envelope{
		"message": "🚀 Neniwer v3.0 API is LIVE!",
		"status":  "operational",
		"version": version,
	}
	err := app.writeJSON(w, http.StatusOK, nil, evlp)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) healthHandler(w http.ResponseWriter, r *http.Request) {
	evlp := envelope{
		"status":    "healthy",
		"timestamp": healthTimestamp,
		"services":  []string{"api", "database", "ai"},
	}
	err := app.writeJSON(w, http.StatusOK, nil, evlp)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) configCheckHandler(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{
		"supabase":    capabilityStatus(app.cfg.supabaseURL),
		"database":    capabilityStatus(app.cfg.databaseURL),
		"ai_service":  capabilityStatus(app.cfg.huggingFaceToken),
		"environment": app.cfg.env,
	}

	app.logger.Info("config check", status)

	evlp := envelope{}
	for k, v := range status {
		evlp[k] = v
	}
	err := app.writeJSON(w, http.StatusOK, nil, evlp)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func capabilityStatus(value string) string {
	if value != "" {
		return readyLabel
	}
	return missingLabel
}
