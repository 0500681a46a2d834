package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/xraph/vidqueue/job"
	"github.com/xraph/vidqueue/queue"
)

// FetchRequest is the body of POST /api/fetch.
type FetchRequest struct {
	Source  string `json:"source"`
	Name    string `json:"name,omitempty"`
	Creator string `json:"creator,omitempty"`
}

// FetchResponse echoes the enqueued job.
type FetchResponse struct {
	Status  string  `json:"status"`
	Message job.Job `json:"message"`
}

func (a *API) requestFetch(w http.ResponseWriter, r *http.Request) {
	var req FetchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	if strings.TrimSpace(req.Source) == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "source is required"})
		return
	}

	p := job.FetchFromURL{Source: req.Source, Name: req.Name, Creator: req.Creator}
	if p.Name == "" {
		p.Name = DefaultName
	}
	if p.Creator == "" {
		p.Creator = DefaultCreator
	}
	j := job.New(p, "Fetch request received and enqueued at "+a.stamp())

	if err := queue.SendJob(r.Context(), a.producer, j); err != nil {
		a.logger.Error("enqueue fetch failed",
			slog.String("source", p.Source),
			slog.String("error", err.Error()),
		)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "could not enqueue job"})
		return
	}

	a.logger.Info("fetch enqueued", slog.String("source", p.Source), slog.String("name", p.Name))
	writeJSON(w, http.StatusCreated, FetchResponse{Status: "Enqueued", Message: j})
}
