package config

import "slices"

// Quality is a stream resolution variant offered by the catalog
type Quality string

const (
	QualitySD Quality = "std"
	QualityHD Quality = "hd"
)

// KnownQualities is the fallback order used when the preferred quality is unusable
var KnownQualities = []Quality{QualitySD, QualityHD}

// GroupPolicy controls how an episode list is split into playlist files
type GroupPolicy string

const (
	// One playlist per episode
	GroupSingle GroupPolicy = "single"
	// One playlist holding every episode
	GroupAll GroupPolicy = "all"
	// One playlist per episode, queueing every later episode after it
	GroupEachToLast GroupPolicy = "each-to-last"
)

// GroupPolicies lists every accepted [GroupPolicy]
var GroupPolicies = []GroupPolicy{GroupAll, GroupSingle, GroupEachToLast}

// Purity selects how catalog titles are escaped before use as path segments
type Purity string

const (
	// Only the path separator is replaced
	PuritySimple Purity = "simple"
	// Cyrillic is transliterated to latin as well
	PurityLatin Purity = "latin"
	// Like latin, and '?' is replaced too
	PurityExtra Purity = "extra"
)

// Purities lists every accepted [Purity]
var Purities = []Purity{PuritySimple, PurityLatin, PurityExtra}

// CLI verbosity levels as accepted by [ConfigOverride.LogLvl]
const (
	ErrorVerbose = iota + 1
	WarnVerbose
	InfoVerbose
	DebugVerbose
	TraceVerbose
)

func validQuality(q Quality) bool { return slices.Contains(KnownQualities, q) }
func validGroup(g GroupPolicy) bool { return slices.Contains(GroupPolicies, g) }
func validPurity(p Purity) bool { return slices.Contains(Purities, p) }
