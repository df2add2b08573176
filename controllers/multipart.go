package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"sort"
	"strings"

	"verivault/uploads"

	"github.com/gin-gonic/gin"
)

// submissionForm is the formData/verificationData pair carried by either a
// multipart body (JSON strings) or a JSON body (objects).
type submissionForm struct {
	ReportType       string
	FormData         string
	VerificationData string
	Files            []*multipart.FileHeader
}

func isJSON(c *gin.Context) bool {
	return strings.HasPrefix(c.ContentType(), "application/json")
}

// limitBody caps the request body at n bytes; a larger body fails while
// being read with an error wrapping uploads.ErrFileTooLarge.
func limitBody(c *gin.Context, n int64) {
	if n > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
	}
}

func bodyError(err error) error {
	var tooBig *http.MaxBytesError
	if errors.As(err, &tooBig) {
		return fmt.Errorf("request body exceeds %d bytes: %w", tooBig.Limit, uploads.ErrFileTooLarge)
	}
	return err
}

// rejectBody answers a request whose body could not be read.
func (s *Srv) rejectBody(c *gin.Context, err error) {
	if errors.Is(err, uploads.ErrFileTooLarge) {
		s.respondError(c, err, "Upload")
		return
	}
	fail(c, http.StatusBadRequest, "invalid request body")
}

// readSubmission reads the body within limit bytes. Multipart parts are kept
// in memory (the engine's MaxMultipartMemory is the same limit), so nothing
// is spooled to disk before the attachments are validated.
func readSubmission(c *gin.Context, limit int64) (submissionForm, error) {
	limitBody(c, limit)
	if isJSON(c) {
		var body struct {
			ReportType       string          `json:"reportType"`
			FormData         json.RawMessage `json:"formData"`
			VerificationData json.RawMessage `json:"verificationData"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			return submissionForm{}, bodyError(err)
		}
		return submissionForm{
			ReportType:       body.ReportType,
			FormData:         unquote(body.FormData),
			VerificationData: unquote(body.VerificationData),
		}, nil
	}

	form, err := c.MultipartForm()
	if err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return submissionForm{}, bodyError(err)
	}
	out := submissionForm{
		ReportType:       c.PostForm("reportType"),
		FormData:         c.PostForm("formData"),
		VerificationData: c.PostForm("verificationData"),
	}
	if form != nil {
		out.Files = formFiles(form)
	}
	return out, nil
}

// formFiles flattens every file part (attachment_0, attachments, ...) in
// field-name order.
func formFiles(form *multipart.Form) []*multipart.FileHeader {
	keys := make([]string, 0, len(form.File))
	for k := range form.File {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var files []*multipart.FileHeader
	for _, k := range keys {
		files = append(files, form.File[k]...)
	}
	return files
}

// unquote accepts either a JSON object or a JSON string holding one.
func unquote(raw json.RawMessage) string {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return ""
	}
	if strings.HasPrefix(s, `"`) {
		var inner string
		if json.Unmarshal(raw, &inner) == nil {
			return inner
		}
	}
	return s
}
