package canva

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	c, err := NewClient("canva-key", "tmpl-1", WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	return c
}

func TestNewClient_RequiresKeyAndTemplate(t *testing.T) {
	_, err := NewClient("", "tmpl-1")
	require.Error(t, err)
	_, err = NewClient("key", "")
	require.Error(t, err)
}

func TestAutofill(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/autofills", r.URL.Path)
		require.Equal(t, "Bearer canva-key", r.Header.Get("Authorization"))
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &got))
		_, _ = w.Write([]byte(`{"design":{"id":"design-1"}}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)

	id, err := c.Autofill(context.Background(), "タイトル", "")
	require.NoError(t, err)
	require.Equal(t, "design-1", id)

	require.Equal(t, "tmpl-1", got["brand_template_id"])
	data := got["data"].(map[string]any)
	require.Equal(t, "タイトル", data["title"])
	require.Equal(t, "", data["subtitle"])
	require.Equal(t, "タイトル", data["lecture_title"])
	require.Equal(t, "講義録画", data["lecture_subtitle"])
}

func TestAutofill_TruncatesLongFields(t *testing.T) {
	long := ""
	for i := 0; i < 80; i++ {
		long += "あ"
	}

	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
		_, _ = w.Write([]byte(`{"design":{"id":"design-1"}}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)

	_, err := c.Autofill(context.Background(), long, long)
	require.NoError(t, err)

	data := got["data"].(map[string]any)
	require.Len(t, []rune(data["title"].(string)), maxTitleFieldLen)
	require.Len(t, []rune(data["subtitle"].(string)), maxSubtitleFieldLen)
	// The semantic alias carries the untruncated title.
	require.Len(t, []rune(data["lecture_title"].(string)), 80)
}

func TestAutofill_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message":"bad template"}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)

	_, err := c.Autofill(context.Background(), "t", "s")
	var statusErr *HTTPStatusError
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, http.StatusUnprocessableEntity, statusErr.StatusCode)
}

func TestAutofill_MissingDesignID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"design":{}}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)

	_, err := c.Autofill(context.Background(), "t", "s")
	require.Error(t, err)
	require.Contains(t, err.Error(), "no design id")
}

func TestCloneTemplate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/designs", r.URL.Path)
		_, _ = w.Write([]byte(`{"design":{"id":"design-2"}}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)

	id, err := c.CloneTemplate(context.Background())
	require.NoError(t, err)
	require.Equal(t, "design-2", id)
}

func TestUpdateText(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/designs/design-2/elements", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)

	err := c.UpdateText(context.Background(), "design-2", map[string]string{"el-1": "新しいタイトル"})
	require.NoError(t, err)
	updates := got["updates"].([]any)
	require.Len(t, updates, 1)
}

func TestExport(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/designs/design-1/export", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
		_, _ = w.Write([]byte(`{"export_url":"https://export.canva.com/design-1.png"}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)

	url, err := c.Export(context.Background(), "design-1")
	require.NoError(t, err)
	require.Equal(t, "https://export.canva.com/design-1.png", url)
	require.Equal(t, "PNG", got["format"])
	require.Equal(t, float64(1280), got["width"])
	require.Equal(t, float64(720), got["height"])
}

func TestExport_MissingURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)

	_, err := c.Export(context.Background(), "design-1")
	require.Error(t, err)
	require.Contains(t, err.Error(), "no URL")
}
