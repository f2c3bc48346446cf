package models

import (
	"net/url"
	"path"
	"path/filepath"
	"slices"
	"strings"
)

// AliasPrefix marks a directory entry that points at another emoji instead of an image.
const AliasPrefix = "alias:"

// DefaultExtension is used when an image URL has no file suffix.
const DefaultExtension = ".png"

// ImageExtensions lists the file suffixes recognised as upload candidates.
var ImageExtensions = []string{".png", ".jpg", ".jpeg", ".gif"}

// Catalog maps emoji names to image URLs. It never holds alias entries.
type Catalog map[string]string

// IsAlias reports whether a directory value is an alias reference.
func IsAlias(value string) bool {
	return strings.HasPrefix(value, AliasPrefix)
}

// NewCatalog builds a [Catalog] from a raw directory listing, dropping aliases.
func NewCatalog(raw map[string]string) Catalog {
	c := make(Catalog, len(raw))
	for name, value := range raw {
		if IsAlias(value) {
			continue
		}
		c[name] = value
	}
	return c
}

// Names returns the emoji names in lexical order.
func (c Catalog) Names() []string {
	names := make([]string, 0, len(c))
	for name := range c {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// LocalAsset is an emoji image stored on disk.
type LocalAsset struct {
	Name      string // Emoji name (file stem)
	Path      string // Path to the image file
	Extension string // File suffix including the dot
}

// ExtensionFromURL returns the path suffix of rawURL, or [DefaultExtension] when there is none.
func ExtensionFromURL(rawURL string) string {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		p = u.Path
	}
	if ext := path.Ext(p); ext != "" {
		return ext
	}
	return DefaultExtension
}

// IsImageFile reports whether filename carries one of [ImageExtensions]. The match is case-sensitive.
func IsImageFile(filename string) bool {
	return slices.Contains(ImageExtensions, filepath.Ext(filename))
}

// SafeName reports whether name can be used as a file stem inside a download directory.
func SafeName(name string) bool {
	switch {
	case name == "", name == ".", strings.Contains(name, ".."):
		return false
	case strings.ContainsAny(name, `/\`), strings.ContainsRune(name, filepath.Separator):
		return false
	}
	return true
}

// AssetFromPath describes the file at p, naming the emoji after the file stem.
func AssetFromPath(p string) LocalAsset {
	base := filepath.Base(p)
	ext := filepath.Ext(base)
	return LocalAsset{
		Name:      strings.TrimSuffix(base, ext),
		Path:      p,
		Extension: ext,
	}
}
