package storage

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
)

type Handler struct {
	store *Store
}

func NewHandler(store *Store) *Handler {
	return &Handler{store: store}
}

// Upload handles POST /api/uploads (multipart, field "file"). Uploads the
// user just initiated get explicit errors, unlike background sync paths.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize)

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file field is required and must be under 10MB", http.StatusBadRequest)
		return
	}
	defer file.Close()

	url, err := h.store.Save(header.Filename, file)
	if err != nil {
		if errors.Is(err, ErrTooLarge) {
			http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
			return
		}
		log.Printf("[Storage] upload failed: %v", err)
		http.Error(w, "failed to store attachment", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]string{
		"url":  url,
		"name": header.Filename,
		"type": header.Header.Get("Content-Type"),
	})
}
