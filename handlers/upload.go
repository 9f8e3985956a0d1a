package handlers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/kevinaaaquil/bookworm/service"
	"github.com/kevinaaaquil/bookworm/validation"
)

var imageExts = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// Upload folders by image kind.
var imageFolders = map[string]string{
	"cover":   "covers/",
	"genre":   "genres/",
	"profile": "profiles/",
}

type UploadHandler struct {
	Images   service.ImageStore
	MaxBytes int64
	// Fetch is the client used to mirror remote images; nil uses a 10s default.
	Fetch *http.Client
}

type UploadResponse struct {
	URL string `json:"url"`
	Key string `json:"key"`
}

type mirrorRequest struct {
	URL  string `json:"url" validate:"required,url"`
	Kind string `json:"kind" validate:"omitempty,oneof=cover genre profile"`
}

// Image stores a cover, genre or profile image and returns its URL. It takes
// either a multipart "file" (with optional "kind") or a JSON body
// {"url","kind"} naming a remote image to copy, e.g. a cover from an ISBN lookup.
func (h *UploadHandler) Image(w http.ResponseWriter, r *http.Request) {
	if h.Images == nil {
		writeError(w, http.StatusServiceUnavailable, "upload not configured (missing S3)")
		return
	}
	if h.MaxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.MaxBytes)
	}
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		h.mirror(w, r)
		return
	}

	if err := r.ParseMultipartForm(h.MaxBytes); err != nil {
		writeError(w, http.StatusBadRequest, "failed to parse multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file")
		return
	}
	defer file.Close()

	kind := r.FormValue("kind")
	if err := validation.Validator().Var(kind, "omitempty,oneof=cover genre profile"); err != nil {
		writeError(w, http.StatusBadRequest, "kind must be one of: cover genre profile")
		return
	}
	body, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read file")
		return
	}
	ct := http.DetectContentType(body)
	if _, ok := imageExts[ct]; !ok {
		writeError(w, http.StatusBadRequest, "only jpeg, png, webp and gif images are allowed")
		return
	}
	name := header.Filename
	if filepath.Ext(name) == "" {
		name += imageExts[ct]
	}
	h.store(w, r, kind, name, body, ct)
}

func (h *UploadHandler) mirror(w http.ResponseWriter, r *http.Request) {
	var req mirrorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := validation.ValidateStruct(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	body, ct, err := h.download(r.Context(), req.URL)
	if err != nil {
		writeError(w, http.StatusBadGateway, "failed to fetch image")
		return
	}
	if _, ok := imageExts[ct]; !ok {
		writeError(w, http.StatusBadRequest, "url does not point to a supported image")
		return
	}
	h.store(w, r, req.Kind, "image"+imageExts[ct], body, ct)
}

func (h *UploadHandler) store(w http.ResponseWriter, r *http.Request, kind, name string, body []byte, ct string) {
	folder, ok := imageFolders[kind]
	if !ok {
		folder = "images/"
	}
	key, err := h.Images.Upload(r.Context(), folder, name, bytes.NewReader(body), ct)
	if err != nil {
		serverError(w, r, fmt.Errorf("upload image: %w", err))
		return
	}
	writeJSON(w, http.StatusCreated, UploadResponse{URL: h.Images.URL(key), Key: key})
}

// download fetches url and sniffs its content type. The body is capped at
// MaxBytes.
func (h *UploadHandler) download(ctx context.Context, url string) ([]byte, string, error) {
	client := h.Fetch
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("image URL returned %d", resp.StatusCode)
	}
	var rd io.Reader = resp.Body
	if h.MaxBytes > 0 {
		rd = io.LimitReader(resp.Body, h.MaxBytes+1)
	}
	body, err := io.ReadAll(rd)
	if err != nil {
		return nil, "", err
	}
	if h.MaxBytes > 0 && int64(len(body)) > h.MaxBytes {
		return nil, "", fmt.Errorf("image larger than %d bytes", h.MaxBytes)
	}
	return body, http.DetectContentType(body), nil
}
