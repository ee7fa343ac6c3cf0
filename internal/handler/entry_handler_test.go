package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"linkdrop/internal/generator"
	"linkdrop/internal/logger"
	"linkdrop/internal/model"
	"linkdrop/internal/repository"
	"linkdrop/internal/service"
	"linkdrop/internal/storage"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(unix int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = time.Unix(unix, 0)
}

func setupTestServer(t *testing.T) (*httptest.Server, *testClock, *storage.FileStore) {
	t.Helper()

	repo, err := repository.NewSQLiteRepository(":memory:")
	if err != nil {
		t.Fatalf("Failed to create repo: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	files, err := storage.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create file store: %v", err)
	}

	clock := &testClock{now: time.Unix(0, 0)}
	log := logger.New(logger.Config{Output: io.Discard})
	svc := service.NewEntryService(repo, generator.New(6), nil, log, "http://localhost:8080", 600*time.Second).
		WithNow(clock.Now)

	h := NewEntryHandler(svc, files, log)
	srv := httptest.NewServer(h.SetupRoutes())
	t.Cleanup(srv.Close)

	return srv, clock, files
}

func postMultipart(t *testing.T, url string, fields map[string]string, fileName, fileContent string) (*http.Response, []byte) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		mw.WriteField(k, v)
	}
	if fileName != "" {
		fw, err := mw.CreateFormFile("file", fileName)
		if err != nil {
			t.Fatalf("CreateFormFile failed: %v", err)
		}
		io.Copy(fw, strings.NewReader(fileContent))
	}
	mw.Close()

	res, err := http.Post(url, mw.FormDataContentType(), &buf)
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	data, _ := io.ReadAll(res.Body)
	res.Body.Close()
	return res, data
}

func noRedirectClient() *http.Client {
	return &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func TestUpload_URL(t *testing.T) {
	srv, _, _ := setupTestServer(t)

	res, body := postMultipart(t, srv.URL+"/upload",
		map[string]string{"url": "https://example.com", "code": "abc123"}, "", "")
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d; want 201 (body: %s)", res.StatusCode, body)
	}

	var resp model.CreateEntryResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("bad response JSON: %v", err)
	}
	if resp.ShortURL != "http://localhost:8080/abc123" {
		t.Errorf("ShortURL = %s", resp.ShortURL)
	}
	if resp.SecondsLeft != 600 {
		t.Errorf("SecondsLeft = %d; want 600", resp.SecondsLeft)
	}
}

func TestUpload_Validation(t *testing.T) {
	srv, _, _ := setupTestServer(t)

	tests := []struct {
		name     string
		fields   map[string]string
		fileName string
		status   int
	}{
		{"neither url nor file", map[string]string{}, "", http.StatusBadRequest},
		{"both url and file", map[string]string{"url": "https://example.com"}, "x.txt", http.StatusBadRequest},
		{"reserved code", map[string]string{"url": "https://example.com", "code": "admin"}, "", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, _ := postMultipart(t, srv.URL+"/upload", tt.fields, tt.fileName, "content")
			if res.StatusCode != tt.status {
				t.Errorf("status = %d; want %d", res.StatusCode, tt.status)
			}
		})
	}
}

func TestRedirect_Lifecycle(t *testing.T) {
	srv, clock, _ := setupTestServer(t)
	client := noRedirectClient()

	postMultipart(t, srv.URL+"/upload",
		map[string]string{"url": "https://example.com", "code": "abc123"}, "", "")

	// Live: 302 with the target in Location.
	clock.Set(599)
	res, err := client.Get(srv.URL + "/abc123")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusFound {
		t.Fatalf("status at t=599 = %d; want 302", res.StatusCode)
	}
	if loc := res.Header.Get("Location"); loc != "https://example.com" {
		t.Errorf("Location = %s", loc)
	}

	// Expired but not yet reaped: 410, never a redirect.
	clock.Set(601)
	res, err = client.Get(srv.URL + "/abc123")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusGone {
		t.Errorf("status at t=601 = %d; want 410", res.StatusCode)
	}

	// Unknown code: 404, distinct from expiry.
	res, err = client.Get(srv.URL + "/nosuch")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusNotFound {
		t.Errorf("status for unknown code = %d; want 404", res.StatusCode)
	}
}

func TestUpload_FileRoundTrip(t *testing.T) {
	srv, _, _ := setupTestServer(t)

	res, body := postMultipart(t, srv.URL+"/upload",
		map[string]string{"code": "doc"}, "notes.txt", "hello file")
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d; want 201 (body: %s)", res.StatusCode, body)
	}

	var resp model.CreateEntryResponse
	json.Unmarshal(body, &resp)
	if !strings.HasPrefix(resp.Target, model.UploadPrefix) {
		t.Fatalf("Target = %s; want %s prefix", resp.Target, model.UploadPrefix)
	}

	res, err := http.Get(srv.URL + "/doc")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	data, _ := io.ReadAll(res.Body)
	res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("download status = %d; want 200", res.StatusCode)
	}
	if string(data) != "hello file" {
		t.Errorf("downloaded %q; want %q", data, "hello file")
	}
	if cd := res.Header.Get("Content-Disposition"); !strings.Contains(cd, "attachment") {
		t.Errorf("Content-Disposition = %q; want attachment", cd)
	}
}

func TestMetadata(t *testing.T) {
	srv, clock, _ := setupTestServer(t)

	postMultipart(t, srv.URL+"/upload",
		map[string]string{"url": "https://example.com", "code": "meta"}, "", "")

	clock.Set(100)
	res, body := getBody(t, srv.URL+"/api/metadata/meta")
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d; want 200", res.StatusCode)
	}

	var m model.Metadata
	if err := json.Unmarshal(body, &m); err != nil {
		t.Fatalf("bad metadata JSON: %v", err)
	}
	if m.Target != "https://example.com" || m.ExpiresIn != 500 || m.Hits != 0 {
		t.Errorf("metadata = %+v; want target example.com, expires_in 500, hits 0", m)
	}

	res, _ = getBody(t, srv.URL+"/api/metadata/nosuch")
	if res.StatusCode != http.StatusNotFound {
		t.Errorf("metadata for unknown code = %d; want 404", res.StatusCode)
	}
}

func TestQR(t *testing.T) {
	srv, _, _ := setupTestServer(t)

	postMultipart(t, srv.URL+"/upload",
		map[string]string{"url": "https://example.com", "code": "qrme"}, "", "")

	res, body := getBody(t, srv.URL+"/qr/qrme")
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d; want 200", res.StatusCode)
	}
	if ct := res.Header.Get("Content-Type"); ct != "image/png" {
		t.Errorf("Content-Type = %s; want image/png", ct)
	}
	if len(body) == 0 {
		t.Error("empty QR body")
	}

	res, _ = getBody(t, srv.URL+"/qr/nosuch")
	if res.StatusCode != http.StatusNotFound {
		t.Errorf("QR for unknown code = %d; want 404", res.StatusCode)
	}
}

func TestAdmin(t *testing.T) {
	srv, _, _ := setupTestServer(t)

	postMultipart(t, srv.URL+"/upload",
		map[string]string{"url": "https://alpha.example", "code": "one"}, "", "")
	postMultipart(t, srv.URL+"/upload",
		map[string]string{"url": "https://beta.example", "code": "two"}, "", "")

	res, body := getBody(t, srv.URL+"/admin")
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d; want 200", res.StatusCode)
	}
	page := string(body)
	if !strings.Contains(page, "one") || !strings.Contains(page, "two") {
		t.Error("admin page missing entries")
	}

	res, body = getBody(t, srv.URL+"/admin?q=beta")
	page = string(body)
	if strings.Contains(page, "alpha.example") || !strings.Contains(page, "beta.example") {
		t.Error("admin filter did not narrow results")
	}
}

func TestHealth(t *testing.T) {
	srv, _, _ := setupTestServer(t)

	res, body := getBody(t, srv.URL+"/health")
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d; want 200", res.StatusCode)
	}
	if !strings.Contains(string(body), "healthy") {
		t.Errorf("body = %s", body)
	}
}

func getBody(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	res, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	data, _ := io.ReadAll(res.Body)
	res.Body.Close()
	return res, data
}
