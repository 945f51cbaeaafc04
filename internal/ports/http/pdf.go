package http

import (
	"bytes"
	"contract-signing/internal/model"
	"net/http"
	"path"
	"time"

	"github.com/gorilla/mux"
)

func (ser server) uploadFile(w http.ResponseWriter, r *http.Request) {
	filename, data, err := ser.readPDF(w, r)
	if err != nil {
		ser.fail(w, r, err)
		return
	}

	ref, err := ser.app.UploadFile(r.Context(), filename, data)
	if err != nil {
		ser.fail(w, r, err)
		return
	}

	ser.respond(w, r, http.StatusOK, map[string]interface{}{
		"filename": ref.Name,
		"path":     ref.Path(),
	})
}

func (ser server) listUploads(w http.ResponseWriter, r *http.Request) {
	files, err := ser.app.ListUploads(r.Context())
	if err != nil {
		ser.fail(w, r, err)
		return
	}

	ser.respond(w, r, http.StatusOK, map[string]interface{}{
		"files": files,
	})
}

func (ser server) signFile(w http.ResponseWriter, r *http.Request) {
	req, err := ser.readSignRequest(w, r)
	if err != nil {
		ser.fail(w, r, err)
		return
	}

	out, err := ser.app.SignFile(r.Context(), req)
	if err != nil {
		ser.fail(w, r, err)
		return
	}

	ser.respond(w, r, http.StatusOK, map[string]interface{}{
		"ok":     true,
		"output": out.Path(),
	})
}

func (ser server) serveUpload(w http.ResponseWriter, r *http.Request) {
	ser.serveFile(w, r, model.AreaUploads)
}

func (ser server) serveArtifact(w http.ResponseWriter, r *http.Request) {
	ser.serveFile(w, r, model.AreaStorage)
}

// serveFile streams a stored blob read-only.
func (ser server) serveFile(w http.ResponseWriter, r *http.Request, area model.Area) {
	name := path.Base(mux.Vars(r)["name"])
	ref := model.FileRef{Area: area, Name: name}

	data, err := ser.app.OpenFile(r.Context(), ref)
	if err != nil {
		ser.fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	http.ServeContent(w, r, name, time.Time{}, bytes.NewReader(data))
}
