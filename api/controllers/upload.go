package controllers

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"

	pkgerrors "github.com/warehouse-incentives/incentives-backend/pkg/errors"
)

// multipartMemory is how much of a form is buffered before spilling to disk.
const multipartMemory = 8 << 20

// readUpload returns the named multipart file. Bodies over maxBytes fail with
// CodeTooLarge before the form is parsed in full.
func readUpload(w http.ResponseWriter, r *http.Request, field string, maxBytes int64) (string, []byte, error) {
	if maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return "", nil, pkgerrors.Wrapf(pkgerrors.CodeTooLarge, err, "upload exceeds %d MB", maxBytes>>20)
		}
		return "", nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "expected a multipart form")
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile(field)
	if err != nil {
		return "", nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "no file selected").
			WithDetails(map[string]any{"field": field})
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return "", nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read upload")
	}
	if len(data) == 0 {
		return "", nil, pkgerrors.New(pkgerrors.CodeValidation, "uploaded file is empty").
			WithDetails(map[string]any{"field": field})
	}
	return filepath.Base(header.Filename), data, nil
}
