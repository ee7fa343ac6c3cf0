package handler

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	qrcode "github.com/skip2/go-qrcode"

	"linkdrop/internal/errors"
	"linkdrop/internal/logger"
	"linkdrop/internal/model"
	"linkdrop/internal/service"
	"linkdrop/internal/storage"
)

// maxUploadBytes caps multipart uploads at 64 MiB.
const maxUploadBytes = 64 << 20

// reservedCodes are path segments owned by the handler's own routes.
// A mapping under one of these could never be reached, so creation
// refuses them. This is the only code-shape check anywhere: everything
// else passes through to the store verbatim.
var reservedCodes = map[string]bool{
	"upload":  true,
	"admin":   true,
	"health":  true,
	"qr":      true,
	"api":     true,
	"static":  true,
	"uploads": true,
}

// EntryHandler handles HTTP requests for short-link operations
type EntryHandler struct {
	service *service.EntryService
	files   *storage.FileStore
	log     *logger.Logger
}

// NewEntryHandler creates a new handler instance
func NewEntryHandler(svc *service.EntryService, files *storage.FileStore, log *logger.Logger) *EntryHandler {
	return &EntryHandler{
		service: svc,
		files:   files,
		log:     log,
	}
}

// ============ HANDLERS ============

// HandleHome renders the upload form
// GET /
func (h *EntryHandler) HandleHome(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := homeTemplate.Execute(w, map[string]any{
		"TTL": int64(h.service.TTL().Seconds()),
	}); err != nil {
		h.log.Error("render home failed", "error", err.Error())
	}
}

// HandleUpload creates a mapping from a URL or an uploaded file
// POST /upload
func (h *EntryHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		errors.BadRequest("Use POST method").WriteJSON(w)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		errors.BadRequest("Could not parse multipart form").WriteJSON(w)
		return
	}

	rawURL := strings.TrimSpace(r.FormValue("url"))
	code := strings.TrimSpace(r.FormValue("code"))
	file, header, fileErr := r.FormFile("file")
	hasFile := fileErr == nil && header != nil && header.Filename != ""
	if hasFile {
		defer file.Close()
	}

	switch {
	case hasFile && rawURL != "":
		errors.ConflictingTargets().WriteJSON(w)
		return
	case !hasFile && rawURL == "":
		errors.MissingTarget().WriteJSON(w)
		return
	}

	if reservedCodes[strings.ToLower(code)] {
		errors.BadRequest("This code is reserved").WriteJSON(w)
		return
	}

	target := rawURL
	if hasFile {
		stored, err := h.files.Save(header.Filename, file, time.Now())
		if err != nil {
			h.log.Error("file save failed", "name", header.Filename, "error", err.Error())
			errors.Internal("").WriteJSON(w)
			return
		}
		target = model.UploadPrefix + stored
	}

	entry, err := h.service.Create(r.Context(), code, target)
	if err != nil {
		h.log.Error("create failed", "code", code, "error", err.Error())
		errors.Internal("").WriteJSON(w)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(model.CreateEntryResponse{
		ShortURL:    h.service.ShortURL(entry.Code),
		Code:        entry.Code,
		Target:      entry.Target,
		SecondsLeft: h.service.SecondsLeft(entry.CreatedAt),
	})
}

// HandleRedirect resolves a code: URL targets redirect, file targets
// download. Expired links answer 410, unknown ones 404.
// GET /{code}
func (h *EntryHandler) HandleRedirect(w http.ResponseWriter, r *http.Request) {
	code := strings.TrimPrefix(r.URL.Path, "/")

	if code == "" {
		h.HandleHome(w, r)
		return
	}
	if code == "favicon.ico" {
		http.NotFound(w, r)
		return
	}

	target, err := h.service.Lookup(r.Context(), code)
	if err != nil {
		switch {
		case service.IsNotFound(err):
			errors.EntryNotFound(code).WriteJSON(w)
		case service.IsExpired(err):
			errors.EntryExpired(code).WriteJSON(w)
		default:
			errors.Internal("").WriteJSON(w)
		}
		return
	}

	if strings.HasPrefix(target, model.UploadPrefix) {
		h.serveArtifact(w, r, target)
		return
	}

	// Temporary redirect on purpose: the mapping dies with its TTL and
	// must not be cached as permanent.
	http.Redirect(w, r, target, http.StatusFound)
}

// serveArtifact streams a stored file as an attachment download.
func (h *EntryHandler) serveArtifact(w http.ResponseWriter, r *http.Request, target string) {
	name := strings.TrimPrefix(target, model.UploadPrefix)
	f, err := h.files.Open(name)
	if err != nil {
		// Row outlived its artifact; the reaper will collect it.
		errors.NotFound("File").WriteJSON(w)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		errors.Internal("").WriteJSON(w)
		return
	}

	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	http.ServeContent(w, r, name, info.ModTime(), f)
}

// HandleQR serves a PNG QR code of the absolute short URL
// GET /qr/{code}
func (h *EntryHandler) HandleQR(w http.ResponseWriter, r *http.Request) {
	code := strings.TrimPrefix(r.URL.Path, "/qr/")
	if code == "" {
		errors.NotFound("Short link").WriteJSON(w)
		return
	}

	if _, _, err := h.service.Metadata(r.Context(), code); err != nil {
		if service.IsNotFound(err) {
			errors.EntryNotFound(code).WriteJSON(w)
			return
		}
		errors.Internal("").WriteJSON(w)
		return
	}

	png, err := qrcode.Encode(h.service.ShortURL(code), qrcode.Medium, 256)
	if err != nil {
		h.log.Error("qr encode failed", "code", code, "error", err.Error())
		errors.Internal("").WriteJSON(w)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}

// HandleMetadata returns entry metadata as JSON. Expired-but-unreaped
// entries are reported with expires_in = 0; only absent codes are 404.
// GET /api/metadata/{code}
func (h *EntryHandler) HandleMetadata(w http.ResponseWriter, r *http.Request) {
	code := strings.TrimPrefix(r.URL.Path, "/api/metadata/")

	entry, left, err := h.service.Metadata(r.Context(), code)
	if err != nil {
		if service.IsNotFound(err) {
			errors.EntryNotFound(code).WriteJSON(w)
			return
		}
		errors.Internal("").WriteJSON(w)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(model.Metadata{
		Target:    entry.Target,
		CreatedAt: entry.CreatedAt,
		ExpiresIn: left,
		Hits:      entry.Hits,
	})
}

// adminRow is one rendered line of the admin table.
type adminRow struct {
	Code        string
	Target      string
	Created     string
	SecondsLeft int64
	Hits        uint64
}

// HandleAdmin renders the entry table, newest first
// GET /admin?q=filter
func (h *EntryHandler) HandleAdmin(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))

	entries, err := h.service.List(q)
	if err != nil {
		h.log.Error("list failed", "error", err.Error())
		errors.Internal("").WriteJSON(w)
		return
	}

	rows := make([]adminRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, adminRow{
			Code:        e.Code,
			Target:      e.Target,
			Created:     time.Unix(e.CreatedAt, 0).Format(time.RFC1123),
			SecondsLeft: h.service.SecondsLeft(e.CreatedAt),
			Hits:        e.Hits,
		})
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := adminTemplate.Execute(w, map[string]any{
		"Query": q,
		"Rows":  rows,
	}); err != nil {
		h.log.Error("render admin failed", "error", err.Error())
	}
}

// HandleHealth returns service health status
// GET /health
func (h *EntryHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status": "healthy"}`))
}

// ============ ROUTER SETUP ============

// SetupRoutes configures all HTTP routes
func (h *EntryHandler) SetupRoutes() http.Handler {
	mux := http.NewServeMux()

	// Specific routes first
	mux.HandleFunc("/upload", h.HandleUpload)
	mux.HandleFunc("/admin", h.HandleAdmin)
	mux.HandleFunc("/health", h.HandleHealth)
	mux.HandleFunc("/qr/", h.HandleQR)
	mux.HandleFunc("/api/metadata/", h.HandleMetadata)

	// Catch-all for redirects (must be last)
	mux.HandleFunc("/", h.HandleRedirect)

	return mux
}
