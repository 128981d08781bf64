package web

import (
	"net/http"
)

// maxUploadSize bounds the in-memory part of multipart parsing.
const maxUploadSize = 32 << 20

func (s *Server) upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeJSON(w, http.StatusBadRequest, messageJSON{Message: "No file uploaded"})
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, messageJSON{Message: "No file uploaded"})
		return
	}
	defer file.Close()

	upload, err := s.deps.Uploader.Upload(r.Context(), header.Filename, file)
	if err != nil {
		s.deps.Logger.Error("failed to upload file", "url", r.URL.String(), "error", err)
		writeJSON(w, http.StatusInternalServerError, messageJSON{Message: "Upload failed"})
		return
	}

	writeJSON(w, http.StatusOK, upload)
}
