package job_test

import (
	"errors"
	"testing"

	"github.com/xraph/vidqueue"
	"github.com/xraph/vidqueue/job"
)

func TestParseAction(t *testing.T) {
	tests := []struct {
		in     string
		want   job.Action
		wantOK bool
	}{
		{"fetch-from-url", job.ActionFetchFromURL, true},
		{"enable-download", job.ActionEnableDownload, true},
		{"enable-captions", job.ActionEnableCaptions, true},
		{"uploadFetch", job.ActionFetchFromURL, true},
		{"enableMP4Download", job.ActionEnableDownload, true},
		{"enableAutoCaptionsEN", job.ActionEnableCaptions, true},
		{"bogus", "", false},
		{"", "", false},
		{"Fetch-From-URL", "", false},
	}
	for _, tt := range tests {
		got, ok := job.ParseAction(tt.in)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("ParseAction(%q) = (%q, %v), want (%q, %v)", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestAction_Known(t *testing.T) {
	for _, a := range job.Actions() {
		if !a.Known() {
			t.Errorf("%q should be known", a)
		}
	}
	for _, a := range []job.Action{"bogus", "uploadFetch", ""} {
		if a.Known() {
			t.Errorf("%q should not be known", a)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		job     job.Job
		wantErr error
	}{
		{
			name: "fetch complete",
			job:  job.New(job.FetchFromURL{Source: "http://x/y.mp4", Creator: "c1", Name: "n1"}),
		},
		{
			name:    "fetch missing source",
			job:     job.New(job.FetchFromURL{Creator: "c1", Name: "n1"}),
			wantErr: vidqueue.ErrMissingField,
		},
		{
			name:    "fetch blank creator",
			job:     job.New(job.FetchFromURL{Source: "http://x", Creator: "  ", Name: "n1"}),
			wantErr: vidqueue.ErrMissingField,
		},
		{
			name: "fetch source not checked for URL shape",
			job:  job.New(job.FetchFromURL{Source: "not a url", Creator: "c1", Name: "n1"}),
		},
		{
			name: "download complete",
			job:  job.New(job.EnableDownload{UID: "abc"}),
		},
		{
			name:    "download missing uid",
			job:     job.New(job.EnableDownload{}),
			wantErr: vidqueue.ErrMissingField,
		},
		{
			name: "captions without language",
			job:  job.New(job.EnableCaptions{UID: "abc"}),
		},
		{
			name:    "captions missing uid",
			job:     job.New(job.EnableCaptions{Language: "fr"}),
			wantErr: vidqueue.ErrMissingField,
		},
		{
			name:    "rejected",
			job:     job.New(job.Rejected{Name: "bogus"}),
			wantErr: vidqueue.ErrUnknownAction,
		},
		{
			name:    "no payload",
			job:     job.Job{},
			wantErr: vidqueue.ErrUnknownAction,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.job.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if !errors.Is(err, vidqueue.ErrInvalidJob) {
				t.Errorf("validation errors should wrap ErrInvalidJob, got %v", err)
			}
		})
	}
}

func TestEnableCaptions_Lang(t *testing.T) {
	if got := (job.EnableCaptions{UID: "abc"}).Lang(); got != job.DefaultLanguage {
		t.Errorf("Lang() = %q, want %q", got, job.DefaultLanguage)
	}
	if got := (job.EnableCaptions{UID: "abc", Language: "de"}).Lang(); got != "de" {
		t.Errorf("Lang() = %q, want de", got)
	}
}

func TestWithNote_DoesNotAlias(t *testing.T) {
	base := job.New(job.EnableDownload{UID: "abc"}, "first")
	base.Notes = append(base.Notes[:1:1], "second")[:1]

	a := base.WithNote("a %d", 1)
	b := base.WithNote("b %d", 2)

	if len(base.Notes) != 1 {
		t.Fatalf("base notes mutated: %v", base.Notes)
	}
	if a.Notes[1] != "a 1" || b.Notes[1] != "b 2" {
		t.Errorf("notes share backing storage: a=%v b=%v", a.Notes, b.Notes)
	}
}

func TestOutcome(t *testing.T) {
	tests := []struct {
		outcome job.Outcome
		ok      bool
	}{
		{job.Status(200), true},
		{job.Status(201), true},
		{job.Status(299), true},
		{job.Status(300), false},
		{job.Status(199), false},
		{job.Invalid(vidqueue.ErrUnknownAction), false},
		{job.Unreachable(errors.New("dial tcp: refused")), false},
		{job.MalformedResponse(errors.New("eof")), false},
	}
	for _, tt := range tests {
		if got := tt.outcome.OK(); got != tt.ok {
			t.Errorf("%v.OK() = %v, want %v", tt.outcome, got, tt.ok)
		}
	}

	if o := job.Unreachable(errors.New("x")); o.Status != job.StatusUnreachable || !errors.Is(o.Err, vidqueue.ErrUnreachable) {
		t.Errorf("Unreachable() = %v", o)
	}
	if o := job.MalformedResponse(errors.New("x")); o.Status != job.StatusMalformedResponse || !errors.Is(o.Err, vidqueue.ErrMalformedResponse) {
		t.Errorf("MalformedResponse() = %v", o)
	}
}
