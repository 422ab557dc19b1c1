package source

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"
)

const corpus = "# Text\n\nkathaṃ jñānam avāpto 'ti // Avg_1.1\n"

func TestSpecKind(t *testing.T) {
	tests := []struct {
		spec Spec
		want Kind
		err  error
	}{
		{Spec{URL: "https://example.org"}, KindURL, nil},
		{Spec{File: "a.txt"}, KindFile, nil},
		{Spec{Text: "x"}, KindText, nil},
		{Spec{}, "", ErrNoSource},
		{Spec{URL: "https://example.org", File: "a.txt"}, "", ErrAmbiguousSource},
	}
	for _, tt := range tests {
		got, err := tt.spec.Kind()
		assert.Equal(t, tt.want, got)
		assert.ErrorIs(t, err, tt.err)
	}
}

func TestLoadText(t *testing.T) {
	doc, err := NewLoader(time.Second, "test").Load(context.Background(), Spec{Text: corpus})
	require.NoError(t, err)
	assert.Equal(t, corpus, doc.Text)
	assert.Equal(t, KindText, doc.Kind)
	assert.Equal(t, "inline", doc.Origin)
	assert.Len(t, doc.Hash, 64)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gita.txt")
	require.NoError(t, os.WriteFile(path, []byte(corpus), 0o644))

	doc, err := NewLoader(time.Second, "test").Load(context.Background(), Spec{File: path})
	require.NoError(t, err)
	assert.Equal(t, corpus, doc.Text)
	assert.Equal(t, KindFile, doc.Kind)
	assert.Equal(t, len(corpus), doc.Size)
	assert.Equal(t, FromText(corpus).Hash, doc.Hash)
}

func TestLoadFileStripsBOM(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bom.txt")
	require.NoError(t, os.WriteFile(path, append([]byte{0xEF, 0xBB, 0xBF}, corpus...), 0o644))

	doc, err := NewLoader(time.Second, "test").Load(context.Background(), Spec{File: path})
	require.NoError(t, err)
	assert.Equal(t, corpus, doc.Text)
}

func TestLoadFileXZ(t *testing.T) {
	var buf bytes.Buffer
	w, err := xz.NewWriter(&buf)
	require.NoError(t, err)
	_, err = w.Write([]byte(corpus))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	path := filepath.Join(t.TempDir(), "gita.txt.xz")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	doc, err := NewLoader(time.Second, "test").Load(context.Background(), Spec{File: path})
	require.NoError(t, err)
	assert.Equal(t, corpus, doc.Text)
}

func TestLoadFileMissing(t *testing.T) {
	_, err := NewLoader(time.Second, "test").Load(context.Background(), Spec{File: filepath.Join(t.TempDir(), "nope.txt")})
	require.Error(t, err)

	var re *RetrievalError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, "read", re.Op)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadFileInvalidUTF8(t *testing.T) {
	path := filepath.Join(t.TempDir(), "latin1.txt")
	require.NoError(t, os.WriteFile(path, []byte{'a', 0xE9, 'b'}, 0o644))

	_, err := NewLoader(time.Second, "test").Load(context.Background(), Spec{File: path})
	assert.ErrorIs(t, err, ErrInvalidEncoding)
}

func TestLoadURL(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(corpus))
	}))
	defer srv.Close()

	doc, err := NewLoader(time.Second, "verseprism-test").Load(context.Background(), Spec{URL: srv.URL + "/gita.txt"})
	require.NoError(t, err)
	assert.Equal(t, corpus, doc.Text)
	assert.Equal(t, KindURL, doc.Kind)
	assert.Equal(t, "verseprism-test", gotUA)
}

func TestLoadURLStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := NewLoader(time.Second, "test").Load(context.Background(), Spec{URL: srv.URL})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrHTTPStatus)
	assert.Contains(t, err.Error(), "404")
}

func TestLoadURLTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	_, err := NewLoader(50*time.Millisecond, "test").Load(context.Background(), Spec{URL: srv.URL})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLoadNoSource(t *testing.T) {
	_, err := NewLoader(time.Second, "test").Load(context.Background(), Spec{})
	assert.ErrorIs(t, err, ErrNoSource)
}
