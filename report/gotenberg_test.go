package report

import (
	"context"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderHTMLSendsLayoutFields(t *testing.T) {
	var fields map[string]string
	var filename string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/forms/chromium/convert/html", r.URL.Path)
		_, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		require.NoError(t, err)
		reader := multipart.NewReader(r.Body, params["boundary"])
		fields = make(map[string]string)
		for {
			part, err := reader.NextPart()
			if err == io.EOF {
				break
			}
			require.NoError(t, err)
			value, err := io.ReadAll(part)
			require.NoError(t, err)
			if part.FileName() != "" {
				filename = part.FileName()
				continue
			}
			fields[part.FormName()] = string(value)
		}
		_, _ = w.Write([]byte("%PDF-1.7"))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	pdf, err := client.RenderHTML(context.Background(), "<html><body>Invoice</body></html>", InvoiceLayout())
	require.NoError(t, err)

	assert.Equal(t, []byte("%PDF-1.7"), pdf)
	assert.Equal(t, "index.html", filename)
	assert.Equal(t, "8.27", fields["paperWidth"])
	assert.Equal(t, "11.69", fields["paperHeight"])
	assert.Equal(t, "0.40", fields["marginTop"])
	assert.Equal(t, "0.40", fields["marginBottom"])
}

func TestRenderHTMLSurfacesServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).RenderHTML(context.Background(), "<html></html>", Layout{})
	assert.ErrorContains(t, err, "503")
}
