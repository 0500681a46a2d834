package cfqueues_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/xraph/vidqueue"
	"github.com/xraph/vidqueue/queue"
	"github.com/xraph/vidqueue/queue/cfqueues"
)

type recorded struct {
	path string
	auth string
	body map[string]any
}

func newServer(t *testing.T, reply func(w http.ResponseWriter, r *http.Request)) (*httptest.Server, *[]recorded) {
	t.Helper()
	var reqs []recorded
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		rec := recorded{path: r.URL.Path, auth: r.Header.Get("Authorization")}
		_ = json.Unmarshal(raw, &rec.body)
		reqs = append(reqs, rec)
		reply(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, &reqs
}

func ok(result string) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"success":true,"errors":[],"messages":[],"result":`+result+`}`)
	}
}

func TestClient_Pull(t *testing.T) {
	srv, reqs := newServer(t, ok(`{"message_backlog_count":2,"messages":[
		{"id":"m1","lease_id":"l1","attempts":1,"timestamp_ms":1700000000000,"body":{"action":"enable-download","uid":"abc"}},
		{"id":"m2","lease_id":"l2","attempts":3,"timestamp_ms":1700000000000,"body":"{\"action\":\"enable-captions\",\"uid\":\"abc\"}"}
	]}`))

	c := cfqueues.New(srv.URL, "acct", "q1", "tok", cfqueues.WithVisibility(90*time.Second))
	msgs, err := c.Pull(context.Background(), 5)
	if err != nil {
		t.Fatalf("Pull: %v", err)
	}

	req := (*reqs)[0]
	if req.path != "/acct/queues/q1/messages/pull" {
		t.Errorf("path = %q", req.path)
	}
	if req.auth != "Bearer tok" {
		t.Errorf("auth = %q", req.auth)
	}
	if req.body["batch_size"] != float64(5) || req.body["visibility_timeout_ms"] != float64(90000) {
		t.Errorf("pull body = %v", req.body)
	}

	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2", len(msgs))
	}
	if msgs[0].ID != "m1" || msgs[0].LeaseID != "l1" || msgs[0].Attempts != 1 {
		t.Errorf("msgs[0] = %+v", msgs[0])
	}
	if string(msgs[0].Body) != `{"action":"enable-download","uid":"abc"}` {
		t.Errorf("json body = %s", msgs[0].Body)
	}
	if string(msgs[1].Body) != `{"action":"enable-captions","uid":"abc"}` {
		t.Errorf("text body = %s", msgs[1].Body)
	}
	if msgs[1].Timestamp.UnixMilli() != 1700000000000 {
		t.Errorf("timestamp = %v", msgs[1].Timestamp)
	}
}

func TestClient_Ack(t *testing.T) {
	srv, reqs := newServer(t, ok(`{"ackCount":1,"retryCount":1,"warnings":[]}`))
	c := cfqueues.New(srv.URL, "acct", "q1", "tok")

	err := c.Ack(context.Background(), queue.Report{
		Acks:    []string{"l1"},
		Retries: []queue.Retry{{LeaseID: "l2", Delay: 5 * time.Minute}},
	})
	if err != nil {
		t.Fatalf("Ack: %v", err)
	}

	req := (*reqs)[0]
	if req.path != "/acct/queues/q1/messages/ack" {
		t.Errorf("path = %q", req.path)
	}
	acks, _ := req.body["acks"].([]any)
	retries, _ := req.body["retries"].([]any)
	if len(acks) != 1 || len(retries) != 1 {
		t.Fatalf("ack body = %v", req.body)
	}
	if acks[0].(map[string]any)["lease_id"] != "l1" {
		t.Errorf("acks = %v", acks)
	}
	rt := retries[0].(map[string]any)
	if rt["lease_id"] != "l2" || rt["delay_seconds"] != float64(300) {
		t.Errorf("retries = %v", retries)
	}
}

func TestClient_AckEmptyReportSkipsRequest(t *testing.T) {
	srv, reqs := newServer(t, ok(`{}`))
	c := cfqueues.New(srv.URL, "acct", "q1", "tok")

	if err := c.Ack(context.Background(), queue.Report{}); err != nil {
		t.Fatalf("Ack: %v", err)
	}
	if len(*reqs) != 0 {
		t.Errorf("expected no request, got %d", len(*reqs))
	}
}

func TestClient_Send(t *testing.T) {
	srv, reqs := newServer(t, ok(`null`))
	c := cfqueues.New(srv.URL, "acct", "q1", "tok")

	if err := c.Send(context.Background(), []byte(`{"action":"enable-download","uid":"abc"}`)); err != nil {
		t.Fatalf("Send json: %v", err)
	}
	if err := c.Send(context.Background(), []byte("plain text")); err != nil {
		t.Fatalf("Send text: %v", err)
	}

	if (*reqs)[0].path != "/acct/queues/q1/messages" {
		t.Errorf("path = %q", (*reqs)[0].path)
	}
	if (*reqs)[0].body["content_type"] != "json" {
		t.Errorf("json send body = %v", (*reqs)[0].body)
	}
	if b, _ := (*reqs)[0].body["body"].(map[string]any); b["uid"] != "abc" {
		t.Errorf("json send payload = %v", (*reqs)[0].body["body"])
	}
	if (*reqs)[1].body["content_type"] != "text" || (*reqs)[1].body["body"] != "plain text" {
		t.Errorf("text send body = %v", (*reqs)[1].body)
	}
}

func TestClient_Errors(t *testing.T) {
	tests := []struct {
		name  string
		reply func(http.ResponseWriter, *http.Request)
	}{
		{"http error", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			_, _ = io.WriteString(w, `{"success":false,"errors":[{"code":10000,"message":"Authentication error"}]}`)
		}},
		{"success false", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, `{"success":false,"errors":[{"code":11000,"message":"queue not found"}]}`)
		}},
		{"not json", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, `<html>`)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newServer(t, tt.reply)
			c := cfqueues.New(srv.URL, "acct", "q1", "tok")

			_, err := c.Pull(context.Background(), 1)
			if !errors.Is(err, vidqueue.ErrQueueRequest) {
				t.Fatalf("expected ErrQueueRequest, got %v", err)
			}
		})
	}
}

func TestClient_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := cfqueues.New(url, "acct", "q1", "tok")
	if _, err := c.Pull(context.Background(), 1); !errors.Is(err, vidqueue.ErrQueueRequest) {
		t.Fatalf("expected ErrQueueRequest, got %v", err)
	}
}
