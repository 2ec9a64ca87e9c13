package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"chall_zone/internal/app/service"
	"chall_zone/internal/common"
	"chall_zone/internal/domain/model"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// decodeJSON reads and validates a JSON body. It writes the error response
// itself and reports whether the handler should continue.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return false
	}
	if err := validate.Struct(dst); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, validationMessage(err))
		return false
	}
	return true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "Invalid request: " + err.Error()
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s failed on '%s'", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return "Invalid request: " + strings.Join(fields, ", ")
}

// pathID parses a positive numeric URL parameter.
func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid "+name)
		return 0, false
	}
	return id, true
}

// page reads ?page=, defaulting to the first page.
func page(r *http.Request) int {
	p, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || p < 0 {
		return 0
	}
	return p
}

// category reads the optional ?category= filter.
func category(w http.ResponseWriter, r *http.Request) (*int64, bool) {
	raw := r.URL.Query().Get("category")
	if raw == "" {
		return nil, true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid category")
		return nil, false
	}
	return &id, true
}

// formFile reads an optional multipart file field. A missing or empty field
// yields nil.
func formFile(r *http.Request, field string) (*service.Upload, error) {
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", common.ErrBadRequest, field, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", common.ErrBadRequest, field, err)
	}
	if header.Filename == "" && len(data) == 0 {
		return nil, nil
	}
	return &service.Upload{Filename: header.Filename, Bytes: data}, nil
}

// parseMultipart bounds the request body and parses the form.
func parseMultipart(w http.ResponseWriter, r *http.Request, maxBytes int64) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			common.RespondWithError(w, http.StatusRequestEntityTooLarge, "Upload too large")
			return false
		}
		common.RespondWithError(w, http.StatusBadRequest, "Invalid multipart form: "+err.Error())
		return false
	}
	return true
}

// feedEntry tags a feed item with its kind on the wire.
type feedEntry struct {
	Kind model.ContentKind `json:"kind"`
	Item model.FeedItem    `json:"item"`
}

func feedEntries[T model.FeedItem](items []T) []feedEntry {
	entries := make([]feedEntry, 0, len(items))
	for _, item := range items {
		entries = append(entries, feedEntry{Kind: item.Kind(), Item: item})
	}
	return entries
}
