package asset

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/jimcal/jamstack-cms/internal/domain"
)

// Rewrite replaces matches[i] with replacements[i] in content. An empty
// replacement leaves that occurrence untouched. Matches must come from a scan
// of this exact content, in order and without overlap.
func Rewrite(content string, matches []Match, replacements []string) (string, error) {
	if len(matches) != len(replacements) {
		return "", domain.ErrRewrite.Wrap(fmt.Errorf("%d matches but %d replacements", len(matches), len(replacements)))
	}
	if len(matches) == 0 {
		return content, nil
	}

	var b strings.Builder
	b.Grow(len(content))

	pos := 0
	for i, m := range matches {
		if m.Start < pos || m.End < m.Start || m.End > len(content) {
			return "", domain.ErrRewrite.Wrap(fmt.Errorf("match %d at [%d,%d) is out of order or out of range", i, m.Start, m.End))
		}
		if content[m.Start:m.End] != m.Text {
			return "", domain.ErrRewrite.Wrap(fmt.Errorf("match %d does not equal content at [%d,%d)", i, m.Start, m.End))
		}

		b.WriteString(content[pos:m.Start])
		if replacements[i] == "" {
			b.WriteString(m.Text)
		} else {
			b.WriteString(replacements[i])
		}
		pos = m.End
	}
	b.WriteString(content[pos:])

	return b.String(), nil
}

// LocalPath returns the path content uses to reference a cached key. Each key
// segment is percent-encoded so names with spaces stay valid link targets.
func LocalPath(prefix, key string) string {
	segments := strings.Split(key, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.TrimSuffix(prefix, "/") + "/" + strings.Join(segments, "/")
}
