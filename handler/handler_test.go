package handler_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/xraph/vidqueue"
	"github.com/xraph/vidqueue/handler"
	"github.com/xraph/vidqueue/job"
	"github.com/xraph/vidqueue/mediaapi"
)

// fakeAPI records calls and replies with a fixed status or error.
type fakeAPI struct {
	mu      sync.Mutex
	status  int
	err     error
	calls   []string
	copies  []mediaapi.CopyRequest
	langs   []string
	uids    []string
	respond func() (*mediaapi.Response, error)
}

func (f *fakeAPI) reply() (*mediaapi.Response, error) {
	if f.respond != nil {
		return f.respond()
	}
	if f.err != nil {
		return nil, f.err
	}
	return &mediaapi.Response{StatusCode: f.status}, nil
}

func (f *fakeAPI) CopyFromURL(_ context.Context, req mediaapi.CopyRequest) (*mediaapi.Response, error) {
	f.mu.Lock()
	f.calls = append(f.calls, "copy")
	f.copies = append(f.copies, req)
	f.mu.Unlock()
	return f.reply()
}

func (f *fakeAPI) EnableDownloads(_ context.Context, uid string) (*mediaapi.Response, error) {
	f.mu.Lock()
	f.calls = append(f.calls, "downloads")
	f.uids = append(f.uids, uid)
	f.mu.Unlock()
	return f.reply()
}

func (f *fakeAPI) GenerateCaptions(_ context.Context, uid, lang string) (*mediaapi.Response, error) {
	f.mu.Lock()
	f.calls = append(f.calls, "captions")
	f.uids = append(f.uids, uid)
	f.langs = append(f.langs, lang)
	f.mu.Unlock()
	return f.reply()
}

func (f *fakeAPI) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func TestFetch_SendsCopyRequest(t *testing.T) {
	api := &fakeAPI{status: 201}
	h := handler.NewFetch(api, nil)

	o := h.Handle(context.Background(), job.New(job.FetchFromURL{
		Source:  "https://example.com/v.mp4",
		Creator: "alice",
		Name:    "holiday",
	}))
	if o.Status != 201 || o.Err != nil {
		t.Fatalf("outcome = %v, want status 201", o)
	}
	if len(api.copies) != 1 {
		t.Fatalf("expected 1 copy call, got %d", len(api.copies))
	}
	got := api.copies[0]
	if got.URL != "https://example.com/v.mp4" || got.Creator != "alice" || got.Meta.Name != "holiday" {
		t.Errorf("copy request = %+v", got)
	}
}

func TestDownload_PassesStatusThrough(t *testing.T) {
	api := &fakeAPI{status: 429}
	h := handler.NewDownload(api, nil)

	o := h.Handle(context.Background(), job.New(job.EnableDownload{UID: "abc"}))
	if o.Status != 429 {
		t.Fatalf("Status = %d, want 429", o.Status)
	}
	if len(api.uids) != 1 || api.uids[0] != "abc" {
		t.Errorf("uids = %v", api.uids)
	}
}

func TestCaptions_Language(t *testing.T) {
	tests := []struct {
		name     string
		opts     []handler.CaptionsOption
		payload  job.EnableCaptions
		wantLang string
	}{
		{"default en", nil, job.EnableCaptions{UID: "abc"}, "en"},
		{"payload language", nil, job.EnableCaptions{UID: "abc", Language: "fr"}, "fr"},
		{"handler default", []handler.CaptionsOption{handler.WithDefaultLanguage("de")}, job.EnableCaptions{UID: "abc"}, "de"},
		{"empty option ignored", []handler.CaptionsOption{handler.WithDefaultLanguage("")}, job.EnableCaptions{UID: "abc"}, "en"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeAPI{status: 409}
			h := handler.NewCaptions(api, nil, tt.opts...)

			o := h.Handle(context.Background(), job.New(tt.payload))
			if o.Status != 409 {
				t.Fatalf("Status = %d, want 409", o.Status)
			}
			if len(api.langs) != 1 || api.langs[0] != tt.wantLang {
				t.Errorf("langs = %v, want [%s]", api.langs, tt.wantLang)
			}
		})
	}
}

func TestHandlers_TransportFailureIsUnreachable(t *testing.T) {
	api := &fakeAPI{err: errors.New("dial tcp: connection refused")}

	for action, h := range handler.Table(api, nil) {
		var p job.Payload
		switch action {
		case job.ActionFetchFromURL:
			p = job.FetchFromURL{Source: "s", Creator: "c", Name: "n"}
		case job.ActionEnableDownload:
			p = job.EnableDownload{UID: "u"}
		case job.ActionEnableCaptions:
			p = job.EnableCaptions{UID: "u"}
		}
		o := h.Handle(context.Background(), job.New(p))
		if o.Status != job.StatusUnreachable {
			t.Errorf("%s: Status = %d, want %d", action, o.Status, job.StatusUnreachable)
		}
		if !errors.Is(o.Err, vidqueue.ErrUnreachable) {
			t.Errorf("%s: expected ErrUnreachable, got %v", action, o.Err)
		}
	}
}

func TestHandlers_MalformedResponse(t *testing.T) {
	malformed := fmt.Errorf("%w: invalid character", vidqueue.ErrMalformedResponse)

	tests := []struct {
		name       string
		status     int
		wantStatus int
	}{
		{"2xx with bad body", 200, job.StatusMalformedResponse},
		{"5xx with bad body keeps status", 502, 502},
		{"4xx with bad body keeps status", 409, 409},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeAPI{respond: func() (*mediaapi.Response, error) {
				return &mediaapi.Response{StatusCode: tt.status}, malformed
			}}
			h := handler.NewDownload(api, nil)

			o := h.Handle(context.Background(), job.New(job.EnableDownload{UID: "abc"}))
			if o.Status != tt.wantStatus {
				t.Fatalf("Status = %d, want %d", o.Status, tt.wantStatus)
			}
			if o.OK() {
				t.Error("malformed response must never be OK")
			}
		})
	}
}

func TestHandlers_WrongPayload(t *testing.T) {
	api := &fakeAPI{status: 200}
	h := handler.NewFetch(api, nil)

	o := h.Handle(context.Background(), job.New(job.EnableDownload{UID: "abc"}))
	if o.Status != job.StatusInvalid {
		t.Fatalf("Status = %d, want %d", o.Status, job.StatusInvalid)
	}
	if !errors.Is(o.Err, vidqueue.ErrInvalidJob) {
		t.Errorf("expected ErrInvalidJob, got %v", o.Err)
	}
	if api.callCount() != 0 {
		t.Errorf("expected no api calls, got %d", api.callCount())
	}
}

func TestFunc_Adapter(t *testing.T) {
	var h handler.Handler = handler.Func(func(_ context.Context, j job.Job) job.Outcome {
		return job.Status(204)
	})
	if o := h.Handle(context.Background(), job.Job{}); o.Status != 204 {
		t.Fatalf("Status = %d, want 204", o.Status)
	}
}
