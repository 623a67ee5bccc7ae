// Package upload forwards documents to the file upload service.
package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"

	"membership/internal/collaborators/rest"
	"membership/internal/registration/models"
)

// Client implements ports.Uploader.
type Client struct {
	rest *rest.Client
}

func New(rc *rest.Client) *Client {
	return &Client{rest: rc}
}

type uploadResponse struct {
	URL string `json:"url"`
}

// Upload sends file as the "file" part of a multipart form and returns the
// stored location. The service's own 413 and 415 answers become constraint
// errors on field.
func (c *Client) Upload(ctx context.Context, field models.FileField, file models.RawFile) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("field", string(field)); err != nil {
		return "", err
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, file.Name))
	if file.ContentType != "" {
		header.Set("Content-Type", file.ContentType)
	}
	part, err := mw.CreatePart(header)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(file.Data); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	req, err := c.rest.NewRequest(ctx, http.MethodPost, "/uploads", nil, &body, mw.FormDataContentType())
	if err != nil {
		return "", err
	}
	var resp uploadResponse
	err = c.rest.Send(req, &resp)
	switch {
	case rest.IsStatus(err, http.StatusRequestEntityTooLarge):
		return "", &models.UploadConstraintError{Field: field, Reason: "file is too large", TooLarge: true}
	case rest.IsStatus(err, http.StatusUnsupportedMediaType):
		return "", &models.UploadConstraintError{Field: field, Reason: "unsupported file type"}
	case err != nil:
		return "", rest.Normalize("upload_"+string(field), err)
	}
	if resp.URL == "" {
		return "", rest.Normalize("upload_"+string(field), errors.New("upload service returned no url"))
	}
	return resp.URL, nil
}
