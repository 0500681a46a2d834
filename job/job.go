package job

import (
	"fmt"
	"strings"

	"github.com/xraph/vidqueue"
)

// Action is the discriminant that selects a payload variant and handler.
type Action string

const (
	// ActionFetchFromURL asks the media API to ingest a video from a URL.
	ActionFetchFromURL Action = "fetch-from-url"
	// ActionEnableDownload enables the downloadable MP4 derivative.
	ActionEnableDownload Action = "enable-download"
	// ActionEnableCaptions requests auto-generated captions.
	ActionEnableCaptions Action = "enable-captions"
)

// DefaultLanguage is the captions language used when a job names none.
const DefaultLanguage = "en"

// aliases maps the action names used by earlier producers.
var aliases = map[string]Action{
	"uploadFetch":          ActionFetchFromURL,
	"enableMP4Download":    ActionEnableDownload,
	"enableAutoCaptionsEN": ActionEnableCaptions,
}

// Actions returns every known action in a stable order.
func Actions() []Action {
	return []Action{ActionFetchFromURL, ActionEnableDownload, ActionEnableCaptions}
}

// ParseAction resolves a wire name, including legacy aliases, to a known
// Action. It reports false for anything else.
func ParseAction(s string) (Action, bool) {
	switch a := Action(s); a {
	case ActionFetchFromURL, ActionEnableDownload, ActionEnableCaptions:
		return a, true
	}
	a, ok := aliases[s]
	return a, ok
}

// Known reports whether a is one of the closed set of canonical actions.
// Aliases are not Known; resolve them with ParseAction first.
func (a Action) Known() bool {
	switch a {
	case ActionFetchFromURL, ActionEnableDownload, ActionEnableCaptions:
		return true
	}
	return false
}

// Payload is the action-specific part of a Job. The set of
// implementations is closed to this package.
type Payload interface {
	// Action returns the discriminant for this variant.
	Action() Action

	validate() error
}

// FetchFromURL ingests a video from Source, attributed to Creator and
// shown as Name.
type FetchFromURL struct {
	Source  string
	Creator string
	Name    string
}

// Action implements Payload.
func (FetchFromURL) Action() Action { return ActionFetchFromURL }

func (p FetchFromURL) validate() error {
	return required("source", p.Source, "creator", p.Creator, "name", p.Name)
}

// EnableDownload turns on the MP4 download for the video UID.
type EnableDownload struct {
	UID string
}

// Action implements Payload.
func (EnableDownload) Action() Action { return ActionEnableDownload }

func (p EnableDownload) validate() error { return required("uid", p.UID) }

// EnableCaptions requests generated captions in Language for the video
// UID. An empty Language means DefaultLanguage.
type EnableCaptions struct {
	UID      string
	Language string
}

// Action implements Payload.
func (EnableCaptions) Action() Action { return ActionEnableCaptions }

func (p EnableCaptions) validate() error { return required("uid", p.UID) }

// Lang returns the requested language or DefaultLanguage.
func (p EnableCaptions) Lang() string {
	if p.Language == "" {
		return DefaultLanguage
	}
	return p.Language
}

// Rejected stands in for an envelope that could not be decoded into a
// known variant. Name holds the raw action string, if any.
type Rejected struct {
	Name string
	Err  error
}

// Action implements Payload. The result is never a known action unless
// the envelope was rejected for another reason.
func (p Rejected) Action() Action { return Action(p.Name) }

func (p Rejected) validate() error {
	if p.Err == nil {
		return vidqueue.ErrUnknownAction
	}
	return p.Err
}

// Job is a queued unit of work.
type Job struct {
	// ID is the transport's handle for the message (lease or message ID).
	// It is used for diagnostics and to line up dispositions.
	ID string

	// Notes is a diagnostic trail. Never interpreted.
	Notes []string

	// Payload is the action-specific data.
	Payload Payload
}

// New creates a Job from a payload and optional notes.
func New(p Payload, notes ...string) Job {
	return Job{Payload: p, Notes: notes}
}

// Action returns the job's action, or "" if it has no payload.
func (j Job) Action() Action {
	if j.Payload == nil {
		return ""
	}
	return j.Payload.Action()
}

// WithNote returns a copy of j with a formatted note appended.
func (j Job) WithNote(format string, args ...any) Job {
	notes := make([]string, len(j.Notes), len(j.Notes)+1)
	copy(notes, j.Notes)
	j.Notes = append(notes, fmt.Sprintf(format, args...))
	return j
}

// Validate checks that the action is known and that every field it
// requires is non-empty. The returned error wraps vidqueue.ErrInvalidJob.
func (j Job) Validate() error {
	if j.Payload == nil {
		return fmt.Errorf("%w: %w", vidqueue.ErrInvalidJob, vidqueue.ErrUnknownAction)
	}
	if err := j.Payload.validate(); err != nil {
		return fmt.Errorf("%w: %s: %w", vidqueue.ErrInvalidJob, j.describe(), err)
	}
	return nil
}

func (j Job) describe() string {
	if a := j.Action(); a != "" {
		return string(a)
	}
	return "<no action>"
}

// required returns an error naming every empty field. Arguments are
// name/value pairs.
func required(pairs ...string) error {
	var missing []string
	for i := 0; i+1 < len(pairs); i += 2 {
		if strings.TrimSpace(pairs[i+1]) == "" {
			missing = append(missing, pairs[i])
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", vidqueue.ErrMissingField, strings.Join(missing, ", "))
}
