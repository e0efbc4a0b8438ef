package services

import (
	"strings"

	"github.com/nestify/discovery/internal/models"
)

// ImageResolver turns stored image paths into public URLs.
type ImageResolver struct {
	publicURL string
}

func NewImageResolver(publicURL string) *ImageResolver {
	return &ImageResolver{
		publicURL: strings.TrimRight(publicURL, "/"),
	}
}

// Resolve leaves absolute and protocol-relative URLs untouched.
func (r *ImageResolver) Resolve(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return ""
	}

	lower := strings.ToLower(path)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") || strings.HasPrefix(path, "//") {
		return path
	}

	return r.publicURL + "/" + strings.TrimLeft(path, "/")
}

// ResolveAll keeps order and drops empty paths.
func (r *ImageResolver) ResolveAll(paths models.StringSet) []string {
	urls := make([]string, 0, len(paths))
	for _, p := range paths {
		if u := r.Resolve(p); u != "" {
			urls = append(urls, u)
		}
	}
	return urls
}
