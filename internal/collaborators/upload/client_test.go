package upload

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"membership/internal/collaborators/rest"
	"membership/internal/registration/models"
)

func newClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	rc, err := rest.New(srv.URL, "", time.Second)
	require.NoError(t, err)
	return New(rc)
}

var photo = models.RawFile{Name: "me.png", ContentType: "image/png", Data: []byte("\x89PNG\r\n\x1a\n")}

func TestUpload(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "profilePhoto", r.FormValue("field"))
		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		data, _ := io.ReadAll(f)
		assert.Equal(t, photo.Data, data)
		assert.Equal(t, "me.png", hdr.Filename)
		assert.Equal(t, "image/png", hdr.Header.Get("Content-Type"))
		_, _ = w.Write([]byte(`{"url":"https://cdn.example/me.png"}`))
	})

	url, err := c.Upload(context.Background(), models.FileProfilePhoto, photo)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/me.png", url)
}

func TestUploadRejections(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		tooLarge bool
	}{
		{name: "too large", status: http.StatusRequestEntityTooLarge, tooLarge: true},
		{name: "unsupported", status: http.StatusUnsupportedMediaType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			})
			_, err := c.Upload(context.Background(), models.FileJanAadhaar, photo)
			var ce *models.UploadConstraintError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, models.FileJanAadhaar, ce.Field)
			assert.Equal(t, tt.tooLarge, ce.TooLarge)
		})
	}
}

func TestUploadOutage(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	_, err := c.Upload(context.Background(), models.FileJanAadhaar, photo)
	var nf *models.NetworkFailure
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "upload_janAadhaar", nf.Op)
}

func TestUploadMissingURL(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})
	_, err := c.Upload(context.Background(), models.FileJanAadhaar, photo)
	var nf *models.NetworkFailure
	assert.ErrorAs(t, err, &nf)
}
