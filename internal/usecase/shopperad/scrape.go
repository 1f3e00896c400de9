package shopperad

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/net/html"

	"github.com/abyuwono/bagasi/internal/domain/listing"
)

// HTMLScraper reads OpenGraph and product meta tags from a store page.
type HTMLScraper struct {
	Client   *http.Client
	MaxBytes int64
}

func NewHTMLScraper() *HTMLScraper {
	return &HTMLScraper{Client: &http.Client{Timeout: 10 * time.Second}, MaxBytes: 2 << 20}
}

func (s *HTMLScraper) Scrape(ctx context.Context, rawURL string) (*Product, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, ErrInvalidInput
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; BagasiBot/1.0)")
	req.Header.Set("Accept", "text/html")

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrScrapeFailed, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%w: status %d", ErrScrapeFailed, resp.StatusCode)
	}

	p, err := ParseProduct(io.LimitReader(resp.Body, s.MaxBytes))
	if err != nil {
		return nil, err
	}
	p.URL = u.String()
	return p, nil
}

// ParseProduct extracts name, image and price from an HTML document.
func ParseProduct(r io.Reader) (*Product, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrScrapeFailed, err)
	}

	meta := map[string]string{}
	var title string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "meta":
				var key, content string
				for _, a := range n.Attr {
					switch strings.ToLower(a.Key) {
					case "property", "name", "itemprop":
						if key == "" {
							key = strings.ToLower(a.Val)
						}
					case "content":
						content = strings.TrimSpace(a.Val)
					}
				}
				if key != "" && content != "" {
					if _, seen := meta[key]; !seen {
						meta[key] = content
					}
				}
			case "title":
				if title == "" && n.FirstChild != nil {
					title = strings.TrimSpace(n.FirstChild.Data)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	p := &Product{
		Name:  first(meta, "og:title", "twitter:title", "name"),
		Image: first(meta, "og:image", "twitter:image", "image"),
	}
	if p.Name == "" {
		p.Name = title
	}
	if p.Name == "" {
		return nil, fmt.Errorf("%w: no product name", ErrScrapeFailed)
	}

	if raw := first(meta, "product:price:amount", "og:price:amount", "price"); raw != "" {
		if d, err := decimal.NewFromString(strings.ReplaceAll(raw, ",", "")); err == nil && d.IsPositive() {
			p.Price = &d
		}
	}
	if c, err := listing.ParseCurrency(first(meta, "product:price:currency", "og:price:currency", "pricecurrency")); err == nil {
		p.Currency = c
	}
	return p, nil
}

func first(m map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := m[k]; v != "" {
			return v
		}
	}
	return ""
}
