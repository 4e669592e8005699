package logger

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
)

func serve(a *AccessLogger, req *http.Request, h http.HandlerFunc) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	a.Middleware(h).ServeHTTP(rec, req)
	return rec
}

func TestAccessLogger_Middleware(t *testing.T) {
	tests := []struct {
		name       string
		requestID  string
		handler    http.HandlerFunc
		wantStatus float64
		wantBytes  float64
	}{
		{
			name:       "ok body",
			requestID:  "req-42",
			handler:    func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("hello")) },
			wantStatus: http.StatusOK,
			wantBytes:  5,
		},
		{
			name:       "not found",
			handler:    http.NotFound,
			wantStatus: http.StatusNotFound,
			wantBytes:  float64(len("404 page not found\n")),
		},
		{
			name:       "explicit status without body",
			handler:    func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) },
			wantStatus: http.StatusNoContent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			a := NewAccessLogger("taskpool", buf)

			req := httptest.NewRequest(http.MethodGet, "/metrics?x=1", nil)
			req.Header.Set("User-Agent", "scraper/1.0")
			if tt.requestID != "" {
				req.Header.Set(RequestIDHeader, tt.requestID)
			}

			rec := serve(a, req, tt.handler)
			if int(tt.wantStatus) != rec.Code {
				t.Errorf("response status = %d, want %v", rec.Code, tt.wantStatus)
			}

			records := decodeLines(t, buf)
			if len(records) != 1 {
				t.Fatalf("expected 1 record, got %d", len(records))
			}
			r := records[0]

			if r["msg"] != "request" || r["level"] != "INFO" {
				t.Errorf("msg/level = %v/%v", r["msg"], r["level"])
			}
			if r["app"] != "taskpool" {
				t.Errorf("app = %v", r["app"])
			}
			if r["method"] != http.MethodGet || r["path"] != "/metrics" {
				t.Errorf("method/path = %v %v", r["method"], r["path"])
			}
			if r["status"] != tt.wantStatus {
				t.Errorf("status = %v, want %v", r["status"], tt.wantStatus)
			}
			if r["bytes"] != tt.wantBytes {
				t.Errorf("bytes = %v, want %v", r["bytes"], tt.wantBytes)
			}
			if r["user_agent"] != "scraper/1.0" {
				t.Errorf("user_agent = %v", r["user_agent"])
			}
			if _, ok := r["duration"]; !ok {
				t.Error("expected duration field")
			}
			if _, ok := r["user"]; ok {
				t.Errorf("unexpected user field %v", r["user"])
			}

			id, _ := r["request_id"].(string)
			if id == "" {
				t.Fatal("expected a request id")
			}
			if tt.requestID != "" && id != tt.requestID {
				t.Errorf("request_id = %q, want %q", id, tt.requestID)
			}
			if got := rec.Header().Get(RequestIDHeader); got != id {
				t.Errorf("response %s = %q, want %q", RequestIDHeader, got, id)
			}
		})
	}
}

func TestAccessLogger_UserID(t *testing.T) {
	buf := &bytes.Buffer{}
	a := NewAccessLogger("taskpool", buf)
	a.SetUserIDFunc(func(r *http.Request) string { return r.Header.Get("X-User") })

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-User", "alice")
	serve(a, req, func(w http.ResponseWriter, _ *http.Request) {})

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	serve(a, req, func(w http.ResponseWriter, _ *http.Request) {})

	records := decodeLines(t, buf)
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0]["user"] != "alice" {
		t.Errorf("user = %v, want alice", records[0]["user"])
	}
	if _, ok := records[1]["user"]; ok {
		t.Errorf("empty user id should be omitted, got %v", records[1]["user"])
	}
}

func TestAccessLogger_Enable(t *testing.T) {
	buf := &bytes.Buffer{}
	a := NewAccessLogger("taskpool", buf)
	a.Enable(false)

	rec := serve(a, httptest.NewRequest(http.MethodGet, "/", nil), func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	if rec.Body.String() != "ok" {
		t.Errorf("body = %q, handler should still run", rec.Body.String())
	}
	if buf.Len() != 0 {
		t.Errorf("expected no output while disabled, got %q", buf.String())
	}

	a.Enable(true)
	serve(a, httptest.NewRequest(http.MethodGet, "/", nil), func(w http.ResponseWriter, _ *http.Request) {})
	if len(decodeLines(t, buf)) != 1 {
		t.Error("expected output after re-enabling")
	}
}

func TestAccessLogger_Setters(t *testing.T) {
	first := &bytes.Buffer{}
	second := &bytes.Buffer{}
	a := NewAccessLogger("first", first)

	a.SetAppID("second")
	a.SetOutput(second)
	a.SetOutput(nil)

	serve(a, httptest.NewRequest(http.MethodGet, "/", nil), func(w http.ResponseWriter, _ *http.Request) {})

	if first.Len() != 0 {
		t.Errorf("old output should be unused, got %q", first.String())
	}
	records := decodeLines(t, second)
	if len(records) != 1 || records[0]["app"] != "second" {
		t.Errorf("records = %v", records)
	}
}

func TestAppLogger_Access(t *testing.T) {
	buf := &bytes.Buffer{}
	l := New("billing", LevelInfo, buf)

	a := l.Access()
	serve(a, httptest.NewRequest(http.MethodPost, "/charge", nil), func(w http.ResponseWriter, _ *http.Request) {})

	records := decodeLines(t, buf)
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0]["app"] != "billing" || records[0]["method"] != http.MethodPost {
		t.Errorf("record = %v", records[0])
	}

	buf.Reset()
	l.Enable(false)
	serve(l.Access(), httptest.NewRequest(http.MethodGet, "/", nil), func(w http.ResponseWriter, _ *http.Request) {})
	if buf.Len() != 0 {
		t.Errorf("access logger of a disabled app logger wrote %q", buf.String())
	}
}
