package asset

import (
	"net/url"
	"regexp"
	"strings"

	"mvdan.cc/xurls/v2"
)

// Match is one URL occurrence in content, as byte offsets.
type Match struct {
	Text  string
	Start int
	End   int
}

// BucketMatcher decides whether a URL points at the asset bucket.
type BucketMatcher struct {
	bucket string
	domain string
}

// NewBucketMatcher builds a matcher for bucket. domain, when set, is an extra
// host (CDN or custom endpoint) that also serves the bucket.
func NewBucketMatcher(bucket, domain string) BucketMatcher {
	return BucketMatcher{
		bucket: strings.ToLower(bucket),
		domain: strings.ToLower(strings.TrimSuffix(domain, "/")),
	}
}

// Match reports whether raw is a bucket URL.
func (m BucketMatcher) Match(raw string) bool {
	if m.bucket == "" && m.domain == "" {
		return false
	}

	u, err := parseLoose(raw)
	if err != nil || u.Host == "" {
		return false
	}
	host := strings.ToLower(u.Hostname())

	if m.domain != "" && host == m.domain {
		return true
	}
	if m.bucket == "" || !strings.HasSuffix(host, ".amazonaws.com") {
		return false
	}

	// virtual-hosted style
	if host == m.bucket+".s3.amazonaws.com" ||
		strings.HasPrefix(host, m.bucket+".s3.") ||
		strings.HasPrefix(host, m.bucket+".s3-") {
		return true
	}

	// path style
	if host == "s3.amazonaws.com" || strings.HasPrefix(host, "s3.") || strings.HasPrefix(host, "s3-") {
		return strings.HasPrefix(u.Path, "/"+m.bucket+"/")
	}
	return false
}

// Scanner finds URLs in content. The same grammar serves every pass so the
// matches fed to the rewriter line up with the content they came from.
type Scanner struct {
	re     *regexp.Regexp
	bucket BucketMatcher
}

// NewScanner creates a scanner filtering on the given bucket.
func NewScanner(bucket BucketMatcher) *Scanner {
	return &Scanner{
		re:     xurls.Relaxed(),
		bucket: bucket,
	}
}

// ScanAll returns every URL in content in order of appearance.
func (s *Scanner) ScanAll(content string) []Match {
	locs := s.re.FindAllStringIndex(content, -1)
	matches := make([]Match, 0, len(locs))
	for _, loc := range locs {
		start, end := loc[0], trimUnbalanced(content, loc[0], loc[1])
		if end <= start {
			continue
		}
		matches = append(matches, Match{Text: content[start:end], Start: start, End: end})
	}
	return matches
}

// Scan returns the bucket URLs in content in order, duplicates included.
func (s *Scanner) Scan(content string) []Match {
	var matches []Match
	for _, m := range s.ScanAll(content) {
		if s.bucket.Match(m.Text) {
			matches = append(matches, m)
		}
	}
	return matches
}

// IsBucketURL reports whether raw points at the asset bucket.
func (s *Scanner) IsBucketURL(raw string) bool {
	return s.bucket.Match(raw)
}

// trimUnbalanced drops trailing ) and } that have no opening partner inside
// the match, as in markdown image links.
func trimUnbalanced(content string, start, end int) int {
	for end > start {
		text := content[start:end]
		last := text[len(text)-1]
		var open byte
		switch last {
		case ')':
			open = '('
		case '}':
			open = '{'
		default:
			return end
		}
		if strings.Count(text, string(open)) >= strings.Count(text, string(last)) {
			return end
		}
		end--
	}
	return end
}

func parseLoose(raw string) (*url.URL, error) {
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	return url.Parse(raw)
}
