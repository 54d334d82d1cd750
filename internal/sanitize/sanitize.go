// Package sanitize turns catalog strings into path segments the host accepts.
package sanitize

import (
	"strings"

	"github.com/brettbedarf/vostfs/config"
)

const (
	cyrillic = "абвгдеёжзийклмнопрстуфхцчшщъыьэюяАБВГДЕЁЖЗИЙКЛМНОПРСТУФХЦЧШЩЪЫЬЭЮЯ/"
	latin    = "abvgdeejzijklmnoprstufhzcss_y_euaABVGDEEJZIJKLMNOPRSTUFHZCSS_Y_EUA╱"
)

// Replacer maps runes one to one
type Replacer struct {
	table map[rune]rune
}

func newReplacer(from, to string) *Replacer {
	src, dst := []rune(from), []rune(to)
	if len(src) != len(dst) {
		panic("sanitize: translation tables differ in length")
	}
	table := make(map[rune]rune, len(src))
	for i, r := range src {
		table[r] = dst[i]
	}
	return &Replacer{table: table}
}

func (r *Replacer) with(from, to rune) *Replacer {
	table := make(map[rune]rune, len(r.table)+1)
	for k, v := range r.table {
		table[k] = v
	}
	table[from] = to
	return &Replacer{table: table}
}

// Replace returns s with every mapped rune swapped
func (r *Replacer) Replace(s string) string {
	return strings.Map(func(c rune) rune {
		if m, ok := r.table[c]; ok {
			return m
		}
		return c
	}, s)
}

var (
	simple  = newReplacer("/", "╱")
	latinRe = newReplacer(cyrillic, latin)
	extra   = latinRe.with('?', '_')
)

// For returns the replacer implementing purity p. Unknown values fall back to
// the simple policy so a name never carries a path separator.
func For(p config.Purity) *Replacer {
	switch p {
	case config.PurityLatin:
		return latinRe
	case config.PurityExtra:
		return extra
	default:
		return simple
	}
}

// Name purifies s according to p
func Name(p config.Purity, s string) string {
	return For(p).Replace(s)
}
