package http

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func multipartRequest(t *testing.T, target string, fields map[string]string, fileName, contentType string, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if fileName != "" {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="file"; filename="`+fileName+`"`)
		h.Set("Content-Type", contentType)
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestFileEventFromRequest(t *testing.T) {
	req := multipartRequest(t, "/bills/new/file", nil, "image.png", "image/png", []byte("png"))
	w := httptest.NewRecorder()
	require.Nil(t, ParseMultipartOrFail(w, req, 1<<20))

	ev, err := FileEventFromRequest(req)
	require.NoError(t, err)
	assert.Equal(t, "image.png", ev.Name)
	assert.Equal(t, "image/png", ev.ContentType)
	assert.Equal(t, []byte("png"), ev.Data)
}

func TestFileEventFromRequest_NoFile(t *testing.T) {
	req := multipartRequest(t, "/bills/new", map[string]string{"name": "x"}, "", "", nil)
	w := httptest.NewRecorder()
	require.Nil(t, ParseMultipartOrFail(w, req, 1<<20))

	_, err := FileEventFromRequest(req)
	assert.ErrorIs(t, err, errNoFile)
}

func TestParseMultipartOrFail_TooLarge(t *testing.T) {
	req := multipartRequest(t, "/bills/new/file", nil, "image.png", "image/png", bytes.Repeat([]byte("a"), 4096))
	w := httptest.NewRecorder()

	resp := ParseMultipartOrFail(w, req, 512)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.statusCode)
}

func TestSubmitEventFromRequest(t *testing.T) {
	req := multipartRequest(t, "/bills/new", map[string]string{
		"type":       "Transports",
		"name":       "  Vol Paris Londres ",
		"date":       "2004-04-04",
		"amount":     "348",
		"vat":        "70",
		"pct":        "20",
		"commentary": "séminaire\x00",
	}, "", "", nil)
	w := httptest.NewRecorder()
	require.Nil(t, ParseMultipartOrFail(w, req, 1<<20))

	ev := SubmitEventFromRequest(req)
	assert.Equal(t, "Transports", ev.Type)
	assert.Equal(t, "Vol Paris Londres", ev.Name)
	assert.Equal(t, "348", ev.Amount)
	assert.Equal(t, "séminaire", ev.Commentary)
}
