package http

import (
	"bytes"
	"contract-signing/internal/apperrors"
	"contract-signing/internal/model"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
)

const multipartMemory = 32 << 20

func normalize(s string) string {
	return strings.TrimSpace(s)
}

func tooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}

// readJSON decodes a size limited JSON body into v. An empty body leaves v
// untouched.
func (ser server) readJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, ser.cfg.MaxJSONBodySize))
	if err != nil {
		if tooLarge(err) {
			return apperrors.TooLarge(fmt.Sprintf("request body exceeds %d bytes", ser.cfg.MaxJSONBodySize))
		}
		return apperrors.Validation(apperrors.CodeBadPayload, "failed to read the request body", err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}

	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()
	if err := decoder.Decode(v); err != nil {
		return apperrors.Validation(apperrors.CodeBadPayload, "malformed JSON body", err)
	}
	return nil
}

// fields is a flat view of a JSON object or a form, so handlers can accept
// the field synonyms older clients send.
type fields map[string]string

func (f fields) first(keys ...string) (string, bool) {
	for _, key := range keys {
		if value, ok := f[key]; ok {
			return value, true
		}
	}
	return "", false
}

func (f fields) get(keys ...string) string {
	value, _ := f.first(keys...)
	return value
}

func (ser server) readFields(w http.ResponseWriter, r *http.Request) (fields, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		r.Body = http.MaxBytesReader(w, r.Body, ser.cfg.MaxJSONBodySize)
		var err error
		if mediaType == "multipart/form-data" {
			err = r.ParseMultipartForm(multipartMemory)
		} else {
			err = r.ParseForm()
		}
		if err != nil {
			if tooLarge(err) {
				return nil, apperrors.TooLarge("form exceeds the size limit")
			}
			return nil, apperrors.Validation(apperrors.CodeBadPayload, "failed to parse the form", err)
		}

		f := make(fields)
		for key, values := range r.Form {
			if len(values) > 0 {
				f[key] = normalize(values[0])
			}
		}
		return f, nil
	}

	var raw map[string]interface{}
	if err := ser.readJSON(w, r, &raw); err != nil {
		return nil, err
	}

	f := make(fields, len(raw))
	for key, value := range raw {
		switch v := value.(type) {
		case nil:
		case string:
			f[key] = normalize(v)
		case json.Number:
			f[key] = v.String()
		case bool:
			f[key] = strconv.FormatBool(v)
		default:
			return nil, apperrors.Validation(apperrors.CodeBadPayload, "field "+key+" must be a scalar", nil)
		}
	}
	return f, nil
}

// optionalID parses an id field; absent or empty gives zero.
func optionalID(f fields, keys ...string) (int64, error) {
	raw, ok := f.first(keys...)
	if !ok || raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.Validation(apperrors.CodeInvalidID, "invalid "+keys[0]+": "+strconv.Quote(raw), nil)
	}
	return id, nil
}

type signPayload struct {
	PageIndex    *int     `json:"pageIndex"`
	X            *float64 `json:"x"`
	Y            *float64 `json:"y"`
	Width        *float64 `json:"width"`
	Height       *float64 `json:"height"`
	ImageDataURL string   `json:"imageDataUrl"`
	Notes        string   `json:"notes"`
	Filename     string   `json:"filename"`
}

func (p signPayload) toRequest() model.SignRequest {
	return model.SignRequest{
		PageIndex:    p.PageIndex,
		X:            p.X,
		Y:            p.Y,
		Width:        p.Width,
		Height:       p.Height,
		ImageDataURL: normalize(p.ImageDataURL),
		Notes:        p.Notes,
		Filename:     normalize(p.Filename),
	}
}

func (ser server) readSignRequest(w http.ResponseWriter, r *http.Request) (model.SignRequest, error) {
	var payload signPayload
	if err := ser.readJSON(w, r, &payload); err != nil {
		return model.SignRequest{}, err
	}
	return payload.toRequest(), nil
}

// readPDF takes the single file of a multipart upload. The declared content
// type has to be PDF; the bytes are checked again below the transport.
func (ser server) readPDF(w http.ResponseWriter, r *http.Request) (string, []byte, error) {
	// room for the multipart framing around the file
	r.Body = http.MaxBytesReader(w, r.Body, ser.cfg.MaxFileSize+1<<20)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		if tooLarge(err) {
			return "", nil, apperrors.TooLarge(fmt.Sprintf("file exceeds %d bytes", ser.cfg.MaxFileSize))
		}
		return "", nil, apperrors.Validation(apperrors.CodeBadPayload, "failed to parse the form", err)
	}

	file, header, err := r.FormFile("pdf")
	if errors.Is(err, http.ErrMissingFile) {
		file, header, err = r.FormFile("file")
	}
	if err != nil {
		return "", nil, apperrors.Validation(apperrors.CodeBadPayload, "a file in the pdf field is required", err)
	}
	defer file.Close()

	if header.Size > ser.cfg.MaxFileSize {
		return "", nil, apperrors.TooLarge(fmt.Sprintf("file exceeds %d bytes", ser.cfg.MaxFileSize))
	}

	mediaType, _, _ := mime.ParseMediaType(header.Header.Get("Content-Type"))
	if mediaType != "application/pdf" && mediaType != "application/x-pdf" {
		return "", nil, apperrors.Validation(apperrors.CodeNotPDF, "only PDF files are accepted", errors.New("content type "+strconv.Quote(mediaType)))
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return "", nil, apperrors.Validation(apperrors.CodeBadPayload, "failed to read the uploaded file", err)
	}
	return header.Filename, data, nil
}
