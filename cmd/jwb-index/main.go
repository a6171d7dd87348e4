package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/jwb-index/jwb-index/internal/api"
	"github.com/jwb-index/jwb-index/internal/catalog"
	"github.com/jwb-index/jwb-index/internal/config"
	"github.com/jwb-index/jwb-index/internal/model"
	"github.com/jwb-index/jwb-index/internal/playlist"
	"github.com/jwb-index/jwb-index/internal/ui"
)

func main() {
	os.Exit(run())
}

// run owns the whole orchestration: configuration, language verification,
// the visited set's lifetime, the root crawl step, and the exit code.
// Deferred cleanup runs on the error paths too, and the signal context turns
// an interrupt into an ordinary error return, so the visited set is
// destroyed exactly once on every termination path.
func run() int {
	args := config.ParseArgs()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if home, err := os.UserHomeDir(); err == nil {
		// Best effort: a missing request log never blocks an index run.
		if err := api.InitRequestLog(filepath.Join(home, ".jwb-index", "requests.log")); err != nil {
			ui.PrintWarning(fmt.Sprintf("request log disabled: %v", err))
		}
	}

	if args.Languages {
		langs, err := api.GetLanguages(ctx)
		if err != nil {
			ui.PrintError(err.Error())
			return 1
		}
		ui.PrintHeader("Language codes")
		printLanguages(langs)
		return 0
	}

	cfg, err := config.ParseCfg(args)
	if err != nil {
		ui.PrintError(err.Error())
		return 1
	}
	ui.Quiet = cfg.Quiet

	// The default language needs no network round trip, same as the
	// original; anything else is checked against the language list.
	if cfg.Lang != config.DefaultLang {
		langs, err := api.GetLanguages(ctx)
		if err != nil {
			ui.PrintError(err.Error())
			return 1
		}
		if !validLanguage(langs, cfg.Lang) {
			ui.PrintError(fmt.Sprintf("%s: invalid language code, valid codes are:", cfg.Lang))
			printLanguages(langs)
			return 1
		}
	}

	visited := catalog.NewVisitedSet()
	defer visited.Destroy()
	for _, key := range cfg.Exclude {
		visited.Add(key)
	}

	out := playlist.NewWriter(cfg.OutPath, "jwb-"+cfg.Lang)
	defer out.Close()

	crawler := &catalog.Crawler{
		Cfg:     cfg,
		Deps:    catalog.DefaultDeps(),
		Visited: visited,
		Out:     out,
	}

	ui.PrintHeader(fmt.Sprintf("Indexing %s", cfg.Category))
	ui.PrintInfo(fmt.Sprintf("language %s, max quality %dp", cfg.Lang, cfg.Quality))
	if err := crawler.Run(ctx); err != nil {
		ui.PrintError(err.Error())
		return 1
	}
	if err := out.Close(); err != nil {
		ui.PrintError(err.Error())
		return 1
	}

	ui.PrintSuccess(fmt.Sprintf("Indexed %s playlists: %s entries, %s written",
		humanize.Comma(int64(out.Playlists)),
		humanize.Comma(int64(out.Entries)),
		humanize.Bytes(uint64(out.Bytes))))
	if ui.RunErrorCount > 0 || ui.RunWarningCount > 0 {
		ui.PrintInfo(fmt.Sprintf("run finished with %d error(s), %d warning(s)",
			ui.RunErrorCount, ui.RunWarningCount))
	}
	return 0
}

// printLanguages lists valid language codes on stderr, right-aligned code
// first, keeping stdout clean for pipelines.
func printLanguages(langs []model.Language) {
	for _, l := range langs {
		fmt.Fprintf(os.Stderr, "%s%3s%s  %s\n", ui.ColorCyan, l.Code, ui.ColorReset, l.Name)
	}
}

func validLanguage(langs []model.Language, code string) bool {
	for _, l := range langs {
		if l.Code == code {
			return true
		}
	}
	return false
}
