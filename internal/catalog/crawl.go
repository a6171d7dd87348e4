package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/jwb-index/jwb-index/internal/model"
	"github.com/jwb-index/jwb-index/internal/playlist"
)

// ErrTokenOrder indicates a category document that violates the field
// ordering contract: every "name" must follow a "key" for the same block,
// and every download URL must follow the "title" it belongs to. The original
// implementation produced silently ill-formed playlists on such documents;
// here the violation is an explicit fatal error.
var ErrTokenOrder = errors.New("category document violates field ordering")

// Crawler walks the catalog tree depth-first, one category per step. Each
// step fetches, tokenizes and parses a single category document, appends
// entries to that category's playlist, and dispatches children recursively.
// Dispatch blocks until the child's whole subtree is done, so the visited
// set never has two writers active at once.
type Crawler struct {
	Cfg     *model.Config
	Deps    *Deps
	Visited *VisitedSet
	Out     *playlist.Writer
}

// Run dispatches the root crawl step for the configured root category.
// The root key is recorded in the visited set up front, exactly like a child
// dispatch, so the document's own key/name header never re-triggers a crawl.
func (c *Crawler) Run(ctx context.Context) error {
	c.Visited.Add(c.Cfg.Category)
	return c.step(ctx, c.Cfg.Category, true)
}

// step is one fetch → tokenize → parse → emit unit of work.
func (c *Crawler) step(ctx context.Context, key string, root bool) error {
	doc, err := c.Deps.FetchCategory(ctx, c.Cfg.Lang, key)
	if err != nil {
		return err
	}
	if err := c.Out.Ensure(key, root); err != nil {
		return err
	}
	return c.consume(ctx, NewTokenizer(doc), key, root)
}

// consume runs the crawl state machine over one category's token stream.
func (c *Crawler) consume(ctx context.Context, tok *Tokenizer, key string, root bool) error {
	var (
		pendingKey   string
		haveKey      bool
		pendingTitle string
		haveTitle    bool
	)
	sel := NewSelector(c.Cfg.Quality)

	for {
		t, err := tok.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		switch t.Kind {
		case TokenKey:
			pendingKey = t.Value
			haveKey = true

		case TokenName:
			if !haveKey {
				return fmt.Errorf("%w: name %q without a preceding key in category %s", ErrTokenOrder, t.Value, key)
			}
			child := pendingKey
			haveKey = false
			if c.Visited.Contains(child) {
				continue
			}
			c.Visited.Add(child)
			if err := c.Out.Append(key, root, t.Value, c.childLocator(child, root)); err != nil {
				return err
			}
			// Depth-first and blocking: the child's entire subtree finishes
			// before this category's next token is processed.
			if err := c.step(ctx, child, false); err != nil {
				return err
			}

		case TokenTitle:
			if err := c.flush(key, root, pendingTitle, haveTitle, sel); err != nil {
				return err
			}
			sel.Reset()
			pendingTitle = t.Value
			haveTitle = true

		case TokenURL:
			if !haveTitle {
				return fmt.Errorf("%w: download URL without a preceding title in category %s", ErrTokenOrder, key)
			}
			if err := c.observe(ctx, sel, t.Value); err != nil {
				return err
			}
		}
	}
	return c.flush(key, root, pendingTitle, haveTitle, sel)
}

// observe resolves one url token to a tiered variant and feeds the selector.
func (c *Crawler) observe(ctx context.Context, sel *Selector, locator string) error {
	if IsAdaptive(locator) {
		v, ok, err := ResolveAdaptive(ctx, c.Deps.FetchManifest, locator, c.Cfg.Quality)
		if err != nil {
			return err
		}
		if ok {
			sel.Observe(v)
		}
		return nil
	}
	tier, err := ParseTier(locator)
	if err != nil {
		return err
	}
	sel.Observe(Variant{Tier: tier, URL: locator})
	return nil
}

// flush writes the pending media item, if it resolved to a variant. Items
// whose variants were all discarded produce no entry.
func (c *Crawler) flush(key string, root bool, title string, haveTitle bool, sel *Selector) error {
	if !haveTitle {
		return nil
	}
	v, ok := sel.Chosen()
	if !ok {
		return nil
	}
	return c.Out.Append(key, root, title, v.URL)
}

// childLocator is the relative path from a category's playlist to a child's.
// From the root playlist that crosses into the shared subdirectory; between
// descendants it is a plain sibling file name.
func (c *Crawler) childLocator(childKey string, fromRoot bool) string {
	if fromRoot {
		return path.Join(c.Out.SubDir(), playlist.FileName(childKey))
	}
	return playlist.FileName(childKey)
}
