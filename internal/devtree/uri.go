package devtree

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/mpremote-tools/mpfs/internal/listing"
)

// Scheme marks a document whose content comes from the device.
const Scheme = "mpremote"

// URIFor returns the address of device path p: the scheme followed by the
// percent-encoded absolute path.
func URIFor(p string) string {
	return Scheme + ":" + url.PathEscape(listing.CleanPath(p))
}

// ParseURI returns the absolute device path addressed by uri.
func ParseURI(uri string) (string, error) {
	rest, ok := strings.CutPrefix(uri, Scheme+":")
	if !ok {
		return "", fmt.Errorf("parsing %q: not a %s: URI", uri, Scheme)
	}
	p, err := url.PathUnescape(rest)
	if err != nil {
		return "", fmt.Errorf("parsing %q: %w", uri, err)
	}
	return listing.CleanPath(p), nil
}
