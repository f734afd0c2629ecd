package httpds

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/zeebo/xxh3"

	"github.com/muhammadJRahmat-dev/datadik-cilebar/internal/datasource"
)

// IsURL reports whether s is an http or https URL.
func IsURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

var _ datasource.Source = (*Source)(nil)

// Source implements datasource.Source for a remote export.
type Source struct {
	URL    string
	Client *Client
}

// New returns a Source fetching rawURL with client. A nil client gets the
// defaults of NewClient.
func New(rawURL string, client *Client) *Source {
	if client == nil {
		client = NewClient(Config{})
	}
	return &Source{URL: rawURL, Client: client}
}

// Name returns the last path segment of the URL, which carries the file
// extension used for format detection.
func (s *Source) Name() string {
	return NameFromURL(s.URL)
}

// Open downloads the export. Any status other than 2xx is an error.
func (s *Source) Open(ctx context.Context) (io.ReadCloser, error) {
	resp, err := s.Client.Get(ctx, s.URL)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("httpds: GET %s: %s", redact(s.URL), resp.Status)
	}
	return resp.Body, nil
}

// NameFromURL derives a stable display name from rawURL: the unescaped last
// path segment, or a hash of the URL when the path has none.
func NameFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err == nil {
		if base := path.Base(u.Path); base != "." && base != "/" && base != "" {
			if name, err := url.PathUnescape(base); err == nil {
				return name
			}
			return base
		}
	}
	return "download-" + strconv.FormatUint(xxh3.HashString(rawURL), 16)
}

// redact drops the query string, which often carries an access token.
func redact(rawURL string) string {
	if i := strings.IndexAny(rawURL, "?#"); i >= 0 {
		return rawURL[:i]
	}
	return rawURL
}
