package main

import (
	"encoding/json"
	"net/http"
)

type envelope map[string]any

func (app *application) writeJSON(w http.ResponseWriter, status int, header http.Header, data envelope) error {
	resBody, err := json.Marshal(data)
	if err != nil {
		return err
	}

	resBody = append(resBody, '\n')

	for key, val := range header {
		w.Header()[key] = val
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(resBody)
	return nil
}
