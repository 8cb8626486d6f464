package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strconv"
	"testing"

	"github.com/desertthunder/auraspace/internal/media"
	"github.com/desertthunder/auraspace/internal/models"
	"github.com/desertthunder/auraspace/internal/repositories"
	"github.com/desertthunder/auraspace/internal/shared"
	tu "github.com/desertthunder/auraspace/internal/testing"
)

const trackSize = 5000

type streamEnv struct {
	router   *BasicRouter
	repo     *repositories.TrackRepository
	data     []byte
	local    string
	external string
	deleted  string
	lost     string
	logs     *bytes.Buffer
}

// setupStreamEnv wires a real SQLite repository, resolver and streamer behind the router.
func setupStreamEnv(t *testing.T) *streamEnv {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create database: %v", err)
	}
	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	repo := repositories.NewTrackRepository(db)
	t.Cleanup(func() { repo.Close() })

	root := t.TempDir()
	data := tu.Pattern(trackSize)
	tu.MustWriteFile(t, root, "calm.mp3", data)

	create := func(title, location string) string {
		track := models.NewTrack(0, models.TrackInfo{Title: title, TrackURL: location})
		if err := repo.Create(track); err != nil {
			t.Fatalf("failed to create track: %v", err)
		}
		return track.ID()
	}

	env := &streamEnv{
		repo:     repo,
		data:     data,
		local:    create("Calm", "calm.mp3"),
		external: create("Remote", "https://cdn.example.com/calm.mp3"),
		deleted:  create("Gone", "calm.mp3"),
		lost:     create("Lost", "lost.mp3"),
		logs:     &bytes.Buffer{},
	}
	if err := repo.Delete(env.deleted); err != nil {
		t.Fatalf("failed to delete track: %v", err)
	}

	resolver, err := media.NewResolver(root)
	if err != nil {
		t.Fatalf("failed to create resolver: %v", err)
	}
	logger := shared.NewLogger(env.logs)
	streamer := media.NewStreamer(repo, resolver, logger)

	env.router = NewBasicRouter()
	env.router.Handler(NewStreamHandler(streamer, logger))

	return env
}

func (e *streamEnv) get(t *testing.T, id, rangeHeader string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/tracks/"+id+"/stream", nil)
	if rangeHeader != "" {
		req.Header.Set("Range", rangeHeader)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) Envelope {
	t.Helper()
	var body Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not a JSON envelope: %v (%q)", err, rec.Body.String())
	}
	return body
}

func assertAudioHeaders(t *testing.T, rec *httptest.ResponseRecorder, length int) {
	t.Helper()
	h := rec.Header()
	if h.Get("Content-Type") != "audio/mpeg" {
		t.Errorf("expected audio/mpeg, got %q", h.Get("Content-Type"))
	}
	if h.Get("Accept-Ranges") != "bytes" {
		t.Errorf("expected Accept-Ranges bytes, got %q", h.Get("Accept-Ranges"))
	}
	if h.Get("Cache-Control") != "public, max-age=3600" {
		t.Errorf("unexpected Cache-Control %q", h.Get("Cache-Control"))
	}
	if h.Get("Content-Length") != strconv.Itoa(length) {
		t.Errorf("expected Content-Length %d, got %q", length, h.Get("Content-Length"))
	}
	if rec.Body.Len() != length {
		t.Errorf("expected %d body bytes, got %d", length, rec.Body.Len())
	}
}

func TestStreamHandler(t *testing.T) {
	t.Run("Deleted Track Is Not Found", func(t *testing.T) {
		env := setupStreamEnv(t)

		deleted := env.get(t, env.deleted, "")
		unknown := env.get(t, shared.GenerateID(), "")

		for _, rec := range []*httptest.ResponseRecorder{deleted, unknown} {
			if rec.Code != http.StatusNotFound {
				t.Fatalf("expected 404, got %d", rec.Code)
			}
			body := decodeEnvelope(t, rec)
			if body.Success || body.Message != "Track not found" {
				t.Errorf("unexpected body %+v", body)
			}
		}

		if deleted.Body.String() != unknown.Body.String() {
			t.Errorf("deleted and unknown tracks should be indistinguishable: %q vs %q", deleted.Body, unknown.Body)
		}
	})

	t.Run("External Track Bypasses Range", func(t *testing.T) {
		env := setupStreamEnv(t)

		for _, header := range []string{"", "bytes=0-1023", "bytes=999999-", "bytes=-0"} {
			rec := env.get(t, env.external, header)
			if rec.Code != http.StatusOK {
				t.Fatalf("Range %q: expected 200, got %d", header, rec.Code)
			}
			if rec.Header().Get("Content-Type") != "application/json" {
				t.Errorf("expected JSON content type, got %q", rec.Header().Get("Content-Type"))
			}

			var body struct {
				Success bool          `json:"success"`
				Data    ExternalTrack `json:"data"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("failed to decode: %v", err)
			}
			want := ExternalTrack{TrackID: env.external, URL: "https://cdn.example.com/calm.mp3", Type: "external"}
			if !body.Success || body.Data != want {
				t.Errorf("Range %q: unexpected body %+v", header, body)
			}
		}
	})

	t.Run("Full Content", func(t *testing.T) {
		env := setupStreamEnv(t)

		rec := env.get(t, env.local, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		assertAudioHeaders(t, rec, trackSize)
		if rec.Header().Get("Content-Range") != "" {
			t.Errorf("full responses should not carry Content-Range, got %q", rec.Header().Get("Content-Range"))
		}
		if !bytes.Equal(rec.Body.Bytes(), env.data) {
			t.Error("full body does not match file")
		}
	})

	t.Run("Closed Range", func(t *testing.T) {
		env := setupStreamEnv(t)

		rec := env.get(t, env.local, "bytes=0-1023")
		if rec.Code != http.StatusPartialContent {
			t.Fatalf("expected 206, got %d", rec.Code)
		}
		assertAudioHeaders(t, rec, 1024)
		if got := rec.Header().Get("Content-Range"); got != fmt.Sprintf("bytes 0-1023/%d", trackSize) {
			t.Errorf("unexpected Content-Range %q", got)
		}
		if !bytes.Equal(rec.Body.Bytes(), env.data[:1024]) {
			t.Error("partial body does not match file slice")
		}
	})

	t.Run("Open Ended Range", func(t *testing.T) {
		env := setupStreamEnv(t)

		rec := env.get(t, env.local, "bytes=1000-")
		if rec.Code != http.StatusPartialContent {
			t.Fatalf("expected 206, got %d", rec.Code)
		}
		assertAudioHeaders(t, rec, trackSize-1000)
		if got := rec.Header().Get("Content-Range"); got != fmt.Sprintf("bytes 1000-%d/%d", trackSize-1, trackSize) {
			t.Errorf("unexpected Content-Range %q", got)
		}
		if !bytes.Equal(rec.Body.Bytes(), env.data[1000:]) {
			t.Error("open ended body does not match file tail")
		}
	})

	t.Run("Huge End Clamps To File", func(t *testing.T) {
		env := setupStreamEnv(t)

		rec := env.get(t, env.local, "bytes=0-99999999999999999999")
		if rec.Code != http.StatusPartialContent {
			t.Fatalf("expected 206, got %d", rec.Code)
		}
		assertAudioHeaders(t, rec, trackSize)
		if got := rec.Header().Get("Content-Range"); got != fmt.Sprintf("bytes 0-%d/%d", trackSize-1, trackSize) {
			t.Errorf("unexpected Content-Range %q", got)
		}
	})

	t.Run("Suffix Range", func(t *testing.T) {
		env := setupStreamEnv(t)

		rec := env.get(t, env.local, "bytes=-100")
		if rec.Code != http.StatusPartialContent {
			t.Fatalf("expected 206, got %d", rec.Code)
		}
		if !bytes.Equal(rec.Body.Bytes(), env.data[trackSize-100:]) {
			t.Error("suffix body does not match file tail")
		}
	})

	t.Run("Unsatisfiable Range", func(t *testing.T) {
		env := setupStreamEnv(t)

		for _, header := range []string{"bytes=5000-", "bytes=6000-7000", "bytes=300-200", "bytes=99999999999999999999-"} {
			rec := env.get(t, env.local, header)
			if rec.Code != http.StatusRequestedRangeNotSatisfiable {
				t.Fatalf("Range %q: expected 416, got %d", header, rec.Code)
			}
			if got := rec.Header().Get("Content-Range"); got != fmt.Sprintf("bytes */%d", trackSize) {
				t.Errorf("unexpected Content-Range %q", got)
			}
			if rec.Body.Len() != 0 {
				t.Errorf("416 should have an empty body, got %q", rec.Body.String())
			}
		}
	})

	t.Run("Malformed Range Serves Full File", func(t *testing.T) {
		env := setupStreamEnv(t)

		for _, header := range []string{"bytes=abc-def", "pages=1-2", "bytes=0-9,20-29"} {
			rec := env.get(t, env.local, header)
			if rec.Code != http.StatusOK {
				t.Fatalf("Range %q: expected 200, got %d", header, rec.Code)
			}
			assertAudioHeaders(t, rec, trackSize)
		}
	})

	t.Run("Missing File", func(t *testing.T) {
		env := setupStreamEnv(t)

		rec := env.get(t, env.lost, "")
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		body := decodeEnvelope(t, rec)
		if body.Success || body.Message != "Track file not found" {
			t.Errorf("unexpected body %+v", body)
		}
	})

	t.Run("Malformed ID", func(t *testing.T) {
		env := setupStreamEnv(t)

		for _, id := range []string{"not-a-valid-id", "123", "%20"} {
			rec := env.get(t, id, "")
			if rec.Code != http.StatusNotFound {
				t.Fatalf("id %q: expected 404, got %d", id, rec.Code)
			}
			if body := decodeEnvelope(t, rec); body.Success {
				t.Errorf("id %q: expected success=false", id)
			}
		}
	})

	t.Run("Repeated Range Requests Are Identical", func(t *testing.T) {
		env := setupStreamEnv(t)

		first := env.get(t, env.local, "bytes=0-1023")
		second := env.get(t, env.local, "bytes=0-1023")

		if first.Code != second.Code {
			t.Errorf("status differs: %d vs %d", first.Code, second.Code)
		}
		if !reflect.DeepEqual(first.Header(), second.Header()) {
			t.Errorf("headers differ: %v vs %v", first.Header(), second.Header())
		}
		if !bytes.Equal(first.Body.Bytes(), second.Body.Bytes()) {
			t.Error("bodies differ")
		}
	})

	t.Run("HEAD Sends Headers Only", func(t *testing.T) {
		env := setupStreamEnv(t)

		req := httptest.NewRequest(http.MethodHead, "/api/tracks/"+env.local+"/stream", nil)
		req.Header.Set("Range", "bytes=0-99")
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, req)

		if rec.Code != http.StatusPartialContent {
			t.Fatalf("expected 206, got %d", rec.Code)
		}
		if rec.Header().Get("Content-Length") != "100" {
			t.Errorf("expected Content-Length 100, got %q", rec.Header().Get("Content-Length"))
		}
		if rec.Body.Len() != 0 {
			t.Errorf("HEAD should not write a body, got %d bytes", rec.Body.Len())
		}
	})

	t.Run("Logs Stream Start", func(t *testing.T) {
		env := setupStreamEnv(t)

		env.get(t, env.local, "bytes=0-9")
		if !bytes.Contains(env.logs.Bytes(), []byte("track_id="+env.local)) {
			t.Errorf("expected stream start log, got %q", env.logs.String())
		}
	})
}

type fakeOpener struct {
	stream *media.Stream
	err    error
}

func (f fakeOpener) Open(ctx context.Context, trackID, rangeHeader string) (*media.Stream, error) {
	return f.stream, f.err
}

func TestStreamHandlerErrors(t *testing.T) {
	tc := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{
			name:    "streaming failure",
			err:     fmt.Errorf("%w: permission denied", shared.ErrStreamingFailed),
			status:  http.StatusInternalServerError,
			message: "Error streaming track",
		},
		{
			name:    "unexpected error",
			err:     errors.New("boom"),
			status:  http.StatusInternalServerError,
			message: "Error streaming track",
		},
		{
			name:    "cancelled request",
			err:     fmt.Errorf("lookup: %w", context.Canceled),
			status:  http.StatusServiceUnavailable,
			message: "Request cancelled",
		},
		{
			name:    "deadline exceeded",
			err:     context.DeadlineExceeded,
			status:  http.StatusServiceUnavailable,
			message: "Request cancelled",
		},
		{
			name:    "wrapped not found",
			err:     fmt.Errorf("lookup: %w", shared.ErrTrackNotFound),
			status:  http.StatusNotFound,
			message: "Track not found",
		},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			var logs bytes.Buffer
			handler := NewStreamHandler(fakeOpener{err: tt.err}, shared.NewLogger(&logs))

			req := httptest.NewRequest(http.MethodGet, "/api/tracks/x/stream", nil)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, rec.Code)
			}
			body := decodeEnvelope(t, rec)
			if body.Success || body.Message != tt.message {
				t.Errorf("unexpected body %+v", body)
			}
		})
	}

	t.Run("failures are logged", func(t *testing.T) {
		var logs bytes.Buffer
		handler := NewStreamHandler(fakeOpener{err: shared.ErrStreamingFailed}, shared.NewLogger(&logs))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/tracks/x/stream", nil))

		if !bytes.Contains(logs.Bytes(), []byte("failed to open stream")) || !bytes.Contains(logs.Bytes(), []byte("timestamp=")) {
			t.Errorf("expected error log with timestamp, got %q", logs.String())
		}
	})

	t.Run("routes", func(t *testing.T) {
		handler := NewStreamHandler(fakeOpener{}, nil)
		if got := handler.Routes(); len(got) != 1 || got[0] != "GET /api/tracks/{id}/stream" {
			t.Errorf("unexpected routes %v", got)
		}
	})
}
