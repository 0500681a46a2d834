package job

import (
	"encoding/json"
	"fmt"

	"github.com/xraph/vidqueue"
)

// envelope is the flat JSON shape of a queue message body.
type envelope struct {
	Action  string   `json:"action"`
	Notes   []string `json:"notes"`
	Source  string   `json:"source,omitempty"`
	Creator string   `json:"creator,omitempty"`
	Name    string   `json:"name,omitempty"`
	UID     string   `json:"uid,omitempty"`
	Lang    string   `json:"lang,omitempty"`
}

// Decode turns a message body into a Job. It never fails: bodies that are
// not valid JSON, or whose action is unknown, decode to a Rejected payload
// that Validate refuses. Fields irrelevant to the action are dropped.
func Decode(msgID string, body []byte) Job {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return Job{
			ID:      msgID,
			Payload: Rejected{Err: fmt.Errorf("%w: %w", vidqueue.ErrMalformedJob, err)},
		}
	}

	j := Job{ID: msgID, Notes: env.Notes}

	action, ok := ParseAction(env.Action)
	if !ok {
		j.Payload = Rejected{
			Name: env.Action,
			Err:  fmt.Errorf("%w: %q", vidqueue.ErrUnknownAction, env.Action),
		}
		return j
	}

	switch action {
	case ActionFetchFromURL:
		j.Payload = FetchFromURL{Source: env.Source, Creator: env.Creator, Name: env.Name}
	case ActionEnableDownload:
		j.Payload = EnableDownload{UID: env.UID}
	case ActionEnableCaptions:
		j.Payload = EnableCaptions{UID: env.UID, Language: env.Lang}
	}
	return j
}

// Encode renders j in the wire format. Rejected and empty payloads cannot
// be encoded.
func Encode(j Job) ([]byte, error) {
	return json.Marshal(j)
}

// MarshalJSON implements json.Marshaler using the wire format.
func (j Job) MarshalJSON() ([]byte, error) {
	env := envelope{Notes: j.Notes}
	if env.Notes == nil {
		env.Notes = []string{}
	}

	switch p := j.Payload.(type) {
	case FetchFromURL:
		env.Source, env.Creator, env.Name = p.Source, p.Creator, p.Name
	case EnableDownload:
		env.UID = p.UID
	case EnableCaptions:
		env.UID, env.Lang = p.UID, p.Language
	case Rejected:
		return nil, fmt.Errorf("job: encode rejected payload: %w", p.validate())
	default:
		return nil, fmt.Errorf("job: encode: %w", vidqueue.ErrUnknownAction)
	}
	env.Action = string(j.Payload.Action())

	return json.Marshal(env)
}

// UnmarshalJSON implements json.Unmarshaler. Unlike Decode it returns an
// error for malformed bodies; unknown actions still become Rejected.
func (j *Job) UnmarshalJSON(data []byte) error {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return fmt.Errorf("%w: %w", vidqueue.ErrMalformedJob, err)
	}
	*j = Decode(j.ID, data)
	return nil
}
