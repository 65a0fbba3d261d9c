package domain

import (
	"strings"
	"unicode"
)

// PageType tags every page the build emits so templates can tell sources apart.
const PageType = "appsyncData"

// Post is a blog post as returned by the content API.
type Post struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Content     string `json:"content"`
	CreatedAt   string `json:"createdAt"`
	Description string `json:"description"`
	Published   bool   `json:"published"`
	CoverImage  string `json:"cover_image,omitempty"`
}

// NavLink is the summary of a sibling post used for previous/next links.
type NavLink struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Slug  string `json:"slug"`
}

// Nav holds the neighbours of a post in the published list.
type Nav struct {
	Previous *NavLink
	Next     *NavLink
}

// PageContext is the payload handed to the page template.
type PageContext struct {
	ID              string   `json:"id"`
	Content         string   `json:"content"`
	Title           string   `json:"title"`
	Published       bool     `json:"published"`
	CreatedAt       string   `json:"createdAt"`
	CoverImage      string   `json:"cover_image,omitempty"`
	LocalCoverImage string   `json:"local_cover_image,omitempty"`
	Description     string   `json:"description"`
	Slug            string   `json:"slug"`
	Type            string   `json:"type"`
	Previous        *NavLink `json:"previous"`
	Next            *NavLink `json:"next"`
}

// Page is one page request for the site generator.
type Page struct {
	Path      string      `json:"path"`
	Component string      `json:"component"`
	Context   PageContext `json:"context"`
}

// Slug returns the URL slug derived from the post title, or from the id when
// the title has no letters or digits.
func (p *Post) Slug() string {
	if slug := Slugify(p.Title); slug != "" {
		return slug
	}
	return Slugify(p.ID)
}

// Link returns the navigation summary for the post.
func (p *Post) Link() *NavLink {
	return &NavLink{ID: p.ID, Title: p.Title, Slug: p.Slug()}
}

// Slugify lowercases s and collapses every run of characters that are not
// letters or digits into one hyphen. Non-ASCII letters are kept.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	prev := false
	for _, r := range s {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
			prev = false
		default:
			if !prev && b.Len() > 0 {
				b.WriteByte('-')
				prev = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// PublishedOnly keeps published posts in source order, dropping nil entries.
func PublishedOnly(posts []*Post) []*Post {
	out := make([]*Post, 0, len(posts))
	for _, p := range posts {
		if p != nil && p.Published {
			out = append(out, p)
		}
	}
	return out
}

// Navigation computes previous/next links over posts as ordered by the source
// query. previous is the following element and next the preceding one.
func Navigation(posts []*Post) []Nav {
	navs := make([]Nav, len(posts))
	for i := range posts {
		if i+1 < len(posts) {
			navs[i].Previous = posts[i+1].Link()
		}
		if i > 0 {
			navs[i].Next = posts[i-1].Link()
		}
	}
	return navs
}
