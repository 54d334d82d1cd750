// Package playlist orders episodes and renders them into m3u8 playlist files.
package playlist

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// UnknownDuration is written for every entry since the catalog reports none
const UnknownDuration = -1

// Episode is one playable item of a title
type Episode struct {
	Title    string
	URL      string // empty when no quality was reachable
	Duration int
}

// NewEpisode returns an Episode with an unknown duration
func NewEpisode(title, url string) Episode {
	return Episode{Title: title, URL: url, Duration: UnknownDuration}
}

// number parses the leading whitespace delimited token of the title
func (e Episode) number() (int, bool) {
	fields := strings.Fields(e.Title)
	if len(fields) == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(fields[0])
	return n, err == nil
}

// Compare orders episodes by leading episode number. Numbered titles sort
// before unnumbered ones, unnumbered titles sort lexically, and equal numbers
// fall back to the full title so only identical titles compare equal.
func Compare(a, b Episode) int {
	an, aok := a.number()
	bn, bok := b.number()
	switch {
	case aok && bok:
		if c := cmp.Compare(an, bn); c != 0 {
			return c
		}
	case aok:
		return -1
	case bok:
		return 1
	}
	return strings.Compare(a.Title, b.Title)
}

// Sort orders episodes in place by [Compare]
func Sort(episodes []Episode) {
	slices.SortStableFunc(episodes, Compare)
}

// entry renders the episode as one m3u8 item. An episode without a URL
// renders as a blank separator.
func (e Episode) entry() string {
	if e.URL == "" {
		return "\n"
	}
	return fmt.Sprintf("#EXTINF:%d, %s\n%s\n", e.Duration, e.Title, e.URL)
}
