package models

// RefineMode names the rewrite applied by a refine request.
type RefineMode string

const (
	RefineGrammar      RefineMode = "grammar"
	RefineProfessional RefineMode = "professional"
	RefineShorten      RefineMode = "shorten"
	RefineExpand       RefineMode = "expand"
)

// Valid reports whether m is a known refine mode.
func (m RefineMode) Valid() bool {
	switch m {
	case RefineGrammar, RefineProfessional, RefineShorten, RefineExpand:
		return true
	}
	return false
}

// Topic is one entry of the topic catalog offered to writers.
type Topic struct {
	Value string `json:"value" yaml:"value"`
	Label string `json:"label" yaml:"label"`
}

// Theme is the reader-facing colour scheme.
type Theme string

const (
	ThemeLight   Theme = "light"
	ThemeDark    Theme = "dark"
	ThemeReading Theme = "reading"
)

// Valid reports whether t is a known theme.
func (t Theme) Valid() bool {
	return t == ThemeLight || t == ThemeDark || t == ThemeReading
}

// Preferences holds the per-installation UI state.
type Preferences struct {
	Theme            Theme `json:"theme" msgpack:"theme"`
	ReadingIntensity int   `json:"reading_intensity" msgpack:"reading_intensity"`
	Authenticated    bool  `json:"authenticated" msgpack:"authenticated"`
}

// Profile is the signed-in writer's public profile.
type Profile struct {
	Name      string `json:"name" msgpack:"name"`
	Bio       string `json:"bio" msgpack:"bio"`
	Avatar    string `json:"avatar" msgpack:"avatar"`
	Location  string `json:"location" msgpack:"location"`
	Instagram string `json:"instagram" msgpack:"instagram"`
	Twitter   string `json:"twitter" msgpack:"twitter"`
	LinkedIn  string `json:"linkedin" msgpack:"linkedin"`
	Facebook  string `json:"facebook" msgpack:"facebook"`
}

// BlobMeta describes a stored binary asset such as a cover image.
type BlobMeta struct {
	Name     string `json:"name"`
	Size     int64  `json:"size"`
	Checksum string `json:"checksum"`
}
