// Package source retrieves raw corpus text from a URL, a local file or an
// inline string. All three produce the same Document for the parser.
package source

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ulikunitz/xz"
	"github.com/zeebo/blake3"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// maxBodyBytes caps a fetched or decompressed corpus.
const maxBodyBytes = 64 << 20

var (
	// ErrNoSource is returned when a Spec names no source
	ErrNoSource = errors.New("either a URL, a file path or text content must be provided")
	// ErrAmbiguousSource is returned when a Spec names more than one source
	ErrAmbiguousSource = errors.New("only one of URL, file path or text content may be provided")
	// ErrHTTPStatus is returned for non-2xx responses
	ErrHTTPStatus = errors.New("unexpected HTTP status")
	// ErrInvalidEncoding is returned when the bytes are not UTF-8
	ErrInvalidEncoding = errors.New("text is not valid UTF-8")
	// ErrTooLarge is returned when a body exceeds maxBodyBytes
	ErrTooLarge = errors.New("source exceeds size limit")
)

// Kind identifies where a Document came from
type Kind string

const (
	KindURL  Kind = "url"
	KindFile Kind = "file"
	KindText Kind = "text"
)

// Spec selects exactly one source
type Spec struct {
	URL  string
	File string
	Text string
}

// Kind returns the selected source kind
func (s Spec) Kind() (Kind, error) {
	var kinds []Kind
	if s.URL != "" {
		kinds = append(kinds, KindURL)
	}
	if s.File != "" {
		kinds = append(kinds, KindFile)
	}
	if s.Text != "" {
		kinds = append(kinds, KindText)
	}
	switch len(kinds) {
	case 0:
		return "", ErrNoSource
	case 1:
		return kinds[0], nil
	default:
		return "", ErrAmbiguousSource
	}
}

// Document is retrieved corpus text
type Document struct {
	Text   string
	Origin string // URL, file path or "inline"
	Kind   Kind
	Hash   string // BLAKE3 of the retrieved bytes, hex
	Size   int
}

// RetrievalError reports a source that could not be obtained
type RetrievalError struct {
	Op     string // "fetch", "read" or "decode"
	Origin string
	Err    error
}

func (e *RetrievalError) Error() string {
	if e.Origin != "" {
		return fmt.Sprintf("failed to %s %s: %v", e.Op, e.Origin, e.Err)
	}
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *RetrievalError) Unwrap() error {
	return e.Err
}

// Loader retrieves Documents
type Loader struct {
	Client    *http.Client
	UserAgent string
	Timeout   time.Duration
}

// NewLoader returns a Loader using a dedicated HTTP client
func NewLoader(timeout time.Duration, userAgent string) *Loader {
	return &Loader{
		Client:    &http.Client{},
		UserAgent: userAgent,
		Timeout:   timeout,
	}
}

// Load retrieves the source named by spec
func (l *Loader) Load(ctx context.Context, spec Spec) (*Document, error) {
	kind, err := spec.Kind()
	if err != nil {
		return nil, &RetrievalError{Op: "select source", Err: err}
	}

	switch kind {
	case KindURL:
		return l.fetch(ctx, spec.URL)
	case KindFile:
		return readFile(spec.File)
	default:
		return FromText(spec.Text), nil
	}
}

// FromText wraps inline text
func FromText(text string) *Document {
	return &Document{
		Text:   text,
		Origin: "inline",
		Kind:   KindText,
		Hash:   hashBytes([]byte(text)),
		Size:   len(text),
	}
}

func (l *Loader) fetch(ctx context.Context, url string) (*Document, error) {
	if l.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &RetrievalError{Op: "fetch", Origin: url, Err: err}
	}
	if l.UserAgent != "" {
		req.Header.Set("User-Agent", l.UserAgent)
	}

	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, &RetrievalError{Op: "fetch", Origin: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &RetrievalError{Op: "fetch", Origin: url, Err: fmt.Errorf("%w: %s", ErrHTTPStatus, resp.Status)}
	}

	var body io.Reader = resp.Body
	if isXZ(url) {
		zr, err := xz.NewReader(resp.Body)
		if err != nil {
			return nil, &RetrievalError{Op: "decode", Origin: url, Err: err}
		}
		body = zr
	}

	raw, err := readLimited(body)
	if err != nil {
		return nil, &RetrievalError{Op: "fetch", Origin: url, Err: err}
	}
	return newDocument(raw, url, KindURL)
}

func readFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &RetrievalError{Op: "read", Origin: path, Err: err}
	}
	defer f.Close()

	var r io.Reader = f
	if isXZ(path) {
		zr, err := xz.NewReader(f)
		if err != nil {
			return nil, &RetrievalError{Op: "decode", Origin: path, Err: err}
		}
		r = zr
	}

	raw, err := readLimited(r)
	if err != nil {
		return nil, &RetrievalError{Op: "read", Origin: path, Err: err}
	}
	return newDocument(raw, path, KindFile)
}

func newDocument(raw []byte, origin string, kind Kind) (*Document, error) {
	text, err := decodeUTF8(raw)
	if err != nil {
		return nil, &RetrievalError{Op: "decode", Origin: origin, Err: err}
	}
	return &Document{
		Text:   text,
		Origin: origin,
		Kind:   kind,
		Hash:   hashBytes(raw),
		Size:   len(raw),
	}, nil
}

func readLimited(r io.Reader) ([]byte, error) {
	raw, err := io.ReadAll(io.LimitReader(r, maxBodyBytes+1))
	if err != nil {
		return nil, err
	}
	if len(raw) > maxBodyBytes {
		return nil, ErrTooLarge
	}
	return raw, nil
}

var (
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// decodeUTF8 drops a byte-order mark and otherwise keeps every code point.
// UTF-16 input is accepted only when it starts with a BOM.
func decodeUTF8(raw []byte) (string, error) {
	utf16 := bytes.HasPrefix(raw, bomUTF16LE) || bytes.HasPrefix(raw, bomUTF16BE)
	if !utf16 && !utf8.Valid(raw) {
		return "", ErrInvalidEncoding
	}
	out, _, err := transform.Bytes(unicode.BOMOverride(unicode.UTF8.NewDecoder()), raw)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func hashBytes(b []byte) string {
	sum := blake3.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func isXZ(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".xz")
}
