// Package asset finds bucket image URLs in post content, derives their
// storage keys and splices local paths back into the content.
package asset

import (
	"net/url"
	"path"
	"strings"

	"github.com/jimcal/jamstack-cms/internal/domain"
)

const imagesSegment = "images"

var keyStripper = strings.NewReplacer("{", "", "(", "", ")", "", "}", "")

// ExtractKey derives the storage key from a bucket URL or path.
//
// The key is everything after the images/ segment, where that segment either
// starts the path or follows an access level prefix (public/, protected/<id>/,
// private/<id>/). A leading bucket segment, as found in path-style URLs, is
// tolerated. Query strings are ignored and the characters {()} are removed.
func ExtractKey(raw string) (string, error) {
	p, err := objectPath(raw)
	if err != nil {
		return "", domain.ErrInvalidKey.Wrap(err)
	}

	segments := strings.Split(strings.Trim(p, "/"), "/")
	idx := imagesIndex(segments)
	if idx < 0 {
		return "", domain.ErrInvalidKey.WithKey(raw)
	}

	rest := segments[idx+1:]
	for _, s := range rest {
		if s == ".." || s == "." {
			return "", domain.ErrInvalidKey.WithKey(raw)
		}
	}

	key := keyStripper.Replace(strings.Join(rest, "/"))
	if key == "" || strings.HasSuffix(key, "/") {
		return "", domain.ErrInvalidKey.WithKey(raw)
	}
	return key, nil
}

// FileKey derives a key from the last path segment of raw. It is used for
// cover images hosted outside the bucket.
func FileKey(raw string) (string, error) {
	p, err := objectPath(raw)
	if err != nil {
		return "", domain.ErrInvalidKey.Wrap(err)
	}

	key := keyStripper.Replace(path.Base(p))
	if key == "" || key == "." || key == "/" || key == ".." {
		return "", domain.ErrInvalidKey.WithKey(raw)
	}
	return key, nil
}

// StorageKey returns the object key the storage collaborator expects.
func StorageKey(key string) string {
	return imagesSegment + "/" + key
}

// objectPath returns the decoded path component of raw.
func objectPath(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if strings.Contains(raw, "://") {
		u, err := url.Parse(raw)
		if err != nil {
			return "", err
		}
		return u.Path, nil
	}

	if i := strings.IndexAny(raw, "?#"); i >= 0 {
		raw = raw[:i]
	}
	return url.PathUnescape(raw)
}

func imagesIndex(segments []string) int {
	for i, s := range segments {
		if s != imagesSegment {
			continue
		}
		switch {
		case i == 0, i == 1:
			return i
		case segments[i-1] == "public":
			return i
		case segments[i-2] == "protected" || segments[i-2] == "private":
			return i
		}
	}
	return -1
}
