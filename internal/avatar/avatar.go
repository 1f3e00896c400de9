// Package avatar draws the placeholder avatar shown for users without a photo.
// The same name always gets the same colour.
package avatar

import (
	"fmt"
	"html"
	"strings"
	"unicode"
	"unicode/utf16"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var Palette = []string{
	"#F44336", "#E91E63", "#9C27B0", "#673AB7",
	"#3F51B5", "#2196F3", "#03A9F4", "#00BCD4",
	"#009688", "#4CAF50", "#8BC34A", "#FF9800",
	"#FF5722", "#795548", "#607D8B",
}

// Hash is the 32-bit h = c + (h<<5) - h over the UTF-16 code units of s.
func Hash(s string) int32 {
	var h int32
	for _, c := range utf16.Encode([]rune(s)) {
		h = int32(c) + (h << 5) - h
	}
	return h
}

func Color(name string) string {
	h := int(Hash(name))
	if h < 0 {
		h = -h
	}
	return Palette[h%len(Palette)]
}

// Initials takes the first letter of the first two words, "?" for an empty name.
func Initials(name string) string {
	upper := cases.Upper(language.Und)
	var b strings.Builder
	for i, w := range strings.Fields(name) {
		if i == 2 {
			break
		}
		for _, r := range w {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				b.WriteString(upper.String(string(r)))
				break
			}
		}
	}
	if b.Len() == 0 {
		return "?"
	}
	return b.String()
}

func SVG(name string, size int) string {
	if size <= 0 {
		size = 40
	}
	return fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%[1]d" height="%[1]d" viewBox="0 0 %[1]d %[1]d">`+
		`<circle cx="%[2]d" cy="%[2]d" r="%[2]d" fill="%[3]s"/>`+
		`<text x="50%%" y="50%%" dy=".35em" text-anchor="middle" fill="#FFFFFF" font-family="sans-serif" font-size="%[4]d">%[5]s</text>`+
		`</svg>`,
		size, size/2, Color(name), size*2/5, html.EscapeString(Initials(name)))
}
