package model

// Config holds the resolved run configuration. Values come from an optional
// config.json merged with CLI flags; CLI wins. Every crawl step receives this
// struct explicitly, never through ambient state.
type Config struct {
	OutPath  string   `json:"outPath"`
	Lang     string   `json:"lang"`
	Quality  int      `json:"quality"`
	Category string   `json:"category"`
	Exclude  []string `json:"exclude,omitempty"`
	Quiet    bool     `json:"quiet,omitempty"`
}

// Args holds CLI arguments parsed by go-arg.
type Args struct {
	OutPath   string `arg:"positional" placeholder:"DIR" help:"Directory to save playlists in. Will be made if it doesn't already exist."`
	Lang      string `arg:"-l,--lang" placeholder:"CODE" help:"Language code."`
	Languages bool   `arg:"--languages" help:"Display a list of valid language codes."`
	Quality   int    `arg:"-Q,--quality" default:"0" help:"Maximum video quality.\n\t\t\t 240 / 360 / 480 / 720"`
	Category  string `arg:"-c,--category" placeholder:"KEY" help:"Root category to index."`
	Exclude   string `arg:"--exclude" placeholder:"KEY,KEY" help:"Comma separated category keys to skip."`
	Quiet     bool   `arg:"-q,--quiet" help:"Less info."`
}

// Description provides custom help text for go-arg.
func (Args) Description() string {
	return "Index the JW Broadcasting catalog as M3U playlists."
}

// Language is one entry of the mediator language list.
type Language struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// LanguagesResp is the envelope of the language-list endpoint.
type LanguagesResp struct {
	Languages []Language `json:"languages"`
}
