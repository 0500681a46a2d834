package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/xraph/vidqueue/job"
	"github.com/xraph/vidqueue/queue"
)

// Webhook is the part of a media API video notification we read.
type Webhook struct {
	UID    string `json:"uid"`
	Status struct {
		State     string `json:"state"`
		ErrorCode string `json:"errReasonCode,omitempty"`
		ErrorText string `json:"errReasonText,omitempty"`
	} `json:"status"`
}

// inboundWebhook fans a "ready" notification out into a download job
// and a captions job. The sender only needs an acknowledgement, so the
// reply is always 204.
func (a *API) inboundWebhook(w http.ResponseWriter, r *http.Request) {
	defer w.WriteHeader(http.StatusNoContent)

	var hook Webhook
	if err := json.NewDecoder(r.Body).Decode(&hook); err != nil {
		a.logger.Warn("unreadable webhook", slog.String("error", err.Error()))
		return
	}

	if hook.Status.State != "ready" {
		a.logger.Info("webhook ignored",
			slog.String("uid", hook.UID),
			slog.String("state", hook.Status.State),
			slog.String("reason_code", hook.Status.ErrorCode),
			slog.String("reason", hook.Status.ErrorText),
		)
		return
	}
	if hook.UID == "" {
		a.logger.Warn("ready webhook without uid")
		return
	}

	note := "Generated from inbound webhook and enqueued at " + a.stamp()
	jobs := []job.Job{
		job.New(job.EnableDownload{UID: hook.UID}, note),
		job.New(job.EnableCaptions{UID: hook.UID, Language: job.DefaultLanguage}, note),
	}
	for _, j := range jobs {
		if err := queue.SendJob(r.Context(), a.producer, j); err != nil {
			a.logger.Error("enqueue from webhook failed",
				slog.String("uid", hook.UID),
				slog.String("action", string(j.Action())),
				slog.String("error", err.Error()),
			)
			continue
		}
		a.logger.Info("job enqueued from webhook",
			slog.String("uid", hook.UID),
			slog.String("action", string(j.Action())),
		)
	}
}
