// Package sitemap adds ad pages to the static sitemap.xml. URLs are compared in
// normalized form so an ad is never listed twice, whatever month spelling an
// earlier run used.
package sitemap

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	aduc "github.com/abyuwono/bagasi/internal/usecase/ad"
)

const xmlns = "http://www.sitemaps.org/schemas/sitemap/0.9"

type URLSet struct {
	XMLName xml.Name `xml:"urlset"`
	Xmlns   string   `xml:"xmlns,attr"`
	URLs    []URL    `xml:"url"`
}

type URL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq,omitempty"`
	Priority   string `xml:"priority,omitempty"`
}

var months = map[string]string{
	"january":   "januari",
	"february":  "februari",
	"march":     "maret",
	"april":     "april",
	"may":       "mei",
	"june":      "juni",
	"july":      "juli",
	"august":    "agustus",
	"september": "september",
	"october":   "oktober",
	"november":  "november",
	"december":  "desember",
}

// AdURL is the public page of a travel ad, e.g.
// https://bagasi.id/ads/jastip-sydney-jakarta/25-December-2024/abc123.
func AdURL(site string, ad aduc.View) string {
	host := strings.TrimPrefix(strings.TrimPrefix(site, "https://"), "http://")
	d := ad.DepartureDate
	return fmt.Sprintf("https://%s/ads/jastip-%s-%s/%d-%s-%d/%s",
		strings.TrimSuffix(host, "/"), slug(ad.DepartureCity), slug(ad.ArrivalCity),
		d.Day(), d.Month(), d.Year(), ad.ID)
}

func slug(city string) string {
	return strings.Join(strings.Fields(city), "-")
}

// Normalize lowercases u and spells English month names in Indonesian.
func Normalize(u string) string {
	u = cases.Lower(language.Indonesian).String(strings.TrimSpace(u))
	segs := strings.Split(u, "/")
	for i, seg := range segs {
		parts := strings.Split(seg, "-")
		for j, p := range parts {
			if id, ok := months[p]; ok {
				parts[j] = id
			}
		}
		segs[i] = strings.Join(parts, "-")
	}
	return strings.Join(segs, "/")
}

// Reconcile appends a URL for every ad not yet in set and returns the added locations.
func Reconcile(set *URLSet, ads []aduc.View, site string, now time.Time) []string {
	have := make(map[string]bool, len(set.URLs))
	for _, u := range set.URLs {
		have[Normalize(u.Loc)] = true
	}

	var added []string
	for _, ad := range ads {
		loc := Normalize(AdURL(site, ad))
		if have[loc] {
			continue
		}
		have[loc] = true
		set.URLs = append(set.URLs, URL{
			Loc:        loc,
			LastMod:    now.Format(time.DateOnly),
			ChangeFreq: "daily",
			Priority:   "0.8",
		})
		added = append(added, loc)
	}
	return added
}

func Read(r io.Reader) (*URLSet, error) {
	var set URLSet
	if err := xml.NewDecoder(r).Decode(&set); err != nil {
		return nil, fmt.Errorf("decode sitemap: %w", err)
	}
	// the namespace is written from Xmlns; a namespaced XMLName would repeat it
	set.XMLName = xml.Name{}
	if set.Xmlns == "" {
		set.Xmlns = xmlns
	}
	return &set, nil
}

func Write(w io.Writer, set *URLSet) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(set); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

type AdsAPI interface {
	Ads(ctx context.Context, departure, arrival string) ([]aduc.View, error)
}

// Update reconciles the sitemap file at path with the ads the API lists.
// A missing file is created.
func Update(ctx context.Context, api AdsAPI, path, site string, now time.Time) ([]string, error) {
	set, err := load(path)
	if err != nil {
		return nil, err
	}

	ads, err := api.Ads(ctx, "", "")
	if err != nil {
		return nil, fmt.Errorf("fetch ads: %w", err)
	}

	added := Reconcile(set, ads, site, now)
	if len(added) == 0 {
		return nil, nil
	}
	return added, save(path, set)
}

func load(path string) (*URLSet, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &URLSet{Xmlns: xmlns}, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}

// save writes through a temp file so a failed run leaves the old sitemap intact.
func save(path string, set *URLSet) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".sitemap-*.xml")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return err
	}
	if err := Write(tmp, set); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
