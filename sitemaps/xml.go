package sitemaps

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"
)

const xmlns = "http://www.sitemaps.org/schemas/sitemap/0.9"

// ErrEmptyPage is returned for a page past the last one.
var ErrEmptyPage = errors.New("sitemap page out of range")

type urlSet struct {
	XMLName xml.Name   `xml:"urlset"`
	Xmlns   string     `xml:"xmlns,attr"`
	URLs    []urlEntry `xml:"url"`
}

type urlEntry struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq,omitempty"`
	Priority   string `xml:"priority,omitempty"`
}

type sitemapIndex struct {
	XMLName  xml.Name       `xml:"sitemapindex"`
	Xmlns    string         `xml:"xmlns,attr"`
	Sitemaps []sitemapEntry `xml:"sitemap"`
}

type sitemapEntry struct {
	Loc string `xml:"loc"`
}

func pageSize(sm Sitemap) int {
	if size := sm.PageSize(); size > 0 {
		return size
	}
	return DefaultPageSize
}

// Pages returns the number of pages the items of sm span, at least one.
func Pages(ctx context.Context, sm Sitemap) (int, error) {
	items, err := sm.Items(ctx)
	if err != nil {
		return 0, err
	}
	return pagesOf(len(items), pageSize(sm)), nil
}

func pagesOf(count, size int) int {
	if count == 0 {
		return 1
	}
	return (count + size - 1) / size
}

func absolute(baseURL, location string) string {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return location
	}
	return strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(location, "/")
}

func encode(w io.Writer, v any) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}

	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// Write renders page (1 based) of sm as a urlset with locations below baseURL.
func Write(ctx context.Context, w io.Writer, baseURL string, sm Sitemap, page int) error {
	if page < 1 {
		page = 1
	}

	items, err := sm.Items(ctx)
	if err != nil {
		return err
	}

	size := pageSize(sm)
	if page > pagesOf(len(items), size) {
		return fmt.Errorf("%w: page %d", ErrEmptyPage, page)
	}

	start := (page - 1) * size
	end := min(start+size, len(items))

	set := urlSet{Xmlns: xmlns}
	for _, item := range items[start:end] {
		location, locErr := sm.Location(ctx, item)
		if locErr != nil {
			return locErr
		}
		if location == "" {
			continue
		}

		entry := urlEntry{
			Loc:        absolute(baseURL, location),
			ChangeFreq: sm.ChangeFrequency(item),
		}
		if modified := sm.LastModified(item); modified != nil {
			entry.LastMod = modified.UTC().Format(time.DateOnly)
		}
		if priority := sm.Priority(item); priority > 0 {
			entry.Priority = strconv.FormatFloat(min(priority, 1), 'f', -1, 64)
		}

		set.URLs = append(set.URLs, entry)
	}

	return encode(w, set)
}

// SectionLocation is the path of page of a section, e.g. /sitemap-things-en.xml?p=2.
func SectionLocation(section string, page int) string {
	location := "/sitemap-" + section + ".xml"
	if page > 1 {
		location += "?p=" + strconv.Itoa(page)
	}
	return location
}

// WriteIndex renders a sitemapindex listing every page of every section, sections sorted by name.
func WriteIndex(ctx context.Context, w io.Writer, baseURL string, sections map[string]Sitemap) error {
	index := sitemapIndex{Xmlns: xmlns}

	for _, section := range slices.Sorted(maps.Keys(sections)) {
		pages, err := Pages(ctx, sections[section])
		if err != nil {
			return fmt.Errorf("sitemap section %s: %w", section, err)
		}

		for page := 1; page <= pages; page++ {
			index.Sitemaps = append(index.Sitemaps, sitemapEntry{Loc: absolute(baseURL, SectionLocation(section, page))})
		}
	}

	return encode(w, index)
}
