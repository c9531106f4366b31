package scripture

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/bibliafides/backend/internal/config"
	"github.com/bibliafides/backend/internal/logger"
	"github.com/bibliafides/backend/internal/model/scripture"
)

var (
	// ErrLookupFailure wraps any failure talking to the Bible text API.
	ErrLookupFailure = errors.New("scripture lookup failed")
	// ErrUnknownBook is returned for an abbreviation missing from the catalog.
	ErrUnknownBook = errors.New("unknown book")
	// ErrOutOfRange is returned for a chapter or verse the book does not have.
	ErrOutOfRange = errors.New("chapter or verse out of range")
)

// RetryPrompt is the inline message shown in the reader when a lookup fails.
const RetryPrompt = "Não foi possível carregar o texto bíblico. Tente novamente."

const maxBodyBytes = 4 << 20

// Client reads chapters and verses from ABíbliaDigital.
type Client struct {
	baseURL        string
	token          string
	defaultVersion string
	httpClient     *http.Client
	catalog        scripture.Catalog
	cache          *lru.Cache[string, scripture.Chapter]
	group          singleflight.Group
	log            *logger.Logger
}

// NewClient builds a client for cfg. catalog bounds every request before it
// leaves the process.
func NewClient(cfg config.ScriptureConfig, catalog scripture.Catalog, log *logger.Logger) (*Client, error) {
	size := cfg.CacheSize
	if size <= 0 {
		size = 256
	}
	cache, err := lru.New[string, scripture.Chapter](size)
	if err != nil {
		return nil, fmt.Errorf("create chapter cache: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	version := strings.ToLower(strings.TrimSpace(cfg.DefaultVersion))
	if version == "" {
		version = "nvi"
	}

	return &Client{
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		token:          cfg.Token,
		defaultVersion: version,
		httpClient:     &http.Client{Timeout: timeout},
		catalog:        catalog,
		cache:          cache,
		log:            log.With("component", "scripture"),
	}, nil
}

// Books returns the catalog in canonical order.
func (c *Client) Books() []scripture.Book {
	return c.catalog.List()
}

// DefaultVersion is the translation used when the caller gives none.
func (c *Client) DefaultVersion() string {
	return c.defaultVersion
}

// Chapter returns every verse of the chapter, in order.
func (c *Client) Chapter(ctx context.Context, version, abbrev string, chapter int) (scripture.Chapter, error) {
	version = c.version(version)
	book, err := c.resolve(abbrev, chapter)
	if err != nil {
		return scripture.Chapter{}, err
	}

	key := fmt.Sprintf("%s/%s/%d", version, book.Abbrev, chapter)
	if cached, ok := c.cache.Get(key); ok {
		return cached, nil
	}

	// Shared fetches ignore the first caller's cancellation; the http client
	// timeout bounds them.
	fetchCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (interface{}, error) {
		var payload chapterPayload
		if err := c.get(fetchCtx, fmt.Sprintf("/verses/%s/%s/%d", version, book.Abbrev, chapter), &payload); err != nil {
			return nil, err
		}
		if len(payload.Verses) == 0 {
			return nil, fmt.Errorf("%w: empty chapter %s", ErrLookupFailure, key)
		}

		result := scripture.Chapter{
			Version: version,
			Book:    book,
			Number:  chapter,
			Verses:  make([]scripture.Verse, 0, len(payload.Verses)),
		}
		for _, verse := range payload.Verses {
			result.Verses = append(result.Verses, scripture.Verse{Number: verse.Number, Text: strings.TrimSpace(verse.Text)})
		}
		c.cache.Add(key, result)
		return result, nil
	})

	select {
	case <-ctx.Done():
		return scripture.Chapter{}, fmt.Errorf("%w: %w", ErrLookupFailure, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			c.log.Warn("chapter lookup failed", "key", key, "error", res.Err)
			return scripture.Chapter{}, res.Err
		}
		if res.Shared {
			c.log.Debug("chapter lookup shared", "key", key)
		}
		return res.Val.(scripture.Chapter), nil
	}
}

// Verse returns one verse. It is served from a cached chapter when possible.
func (c *Client) Verse(ctx context.Context, version, abbrev string, chapter, number int) (scripture.Verse, error) {
	version = c.version(version)
	book, err := c.resolve(abbrev, chapter)
	if err != nil {
		return scripture.Verse{}, err
	}
	if number < 1 {
		return scripture.Verse{}, fmt.Errorf("%w: verse %d", ErrOutOfRange, number)
	}

	if cached, ok := c.cache.Get(fmt.Sprintf("%s/%s/%d", version, book.Abbrev, chapter)); ok {
		for _, verse := range cached.Verses {
			if verse.Number == number {
				return verse, nil
			}
		}
		return scripture.Verse{}, fmt.Errorf("%w: %s %d:%d", ErrOutOfRange, book.Abbrev, chapter, number)
	}

	var payload versePayload
	if err := c.get(ctx, fmt.Sprintf("/verses/%s/%s/%d/%d", version, book.Abbrev, chapter, number), &payload); err != nil {
		c.log.Warn("verse lookup failed", "book", book.Abbrev, "chapter", chapter, "verse", number, "error", err)
		return scripture.Verse{}, err
	}
	if strings.TrimSpace(payload.Text) == "" {
		return scripture.Verse{}, fmt.Errorf("%w: empty verse %s %d:%d", ErrLookupFailure, book.Abbrev, chapter, number)
	}
	return scripture.Verse{Number: payload.Number, Text: strings.TrimSpace(payload.Text)}, nil
}

func (c *Client) version(v string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" {
		return c.defaultVersion
	}
	return v
}

func (c *Client) resolve(abbrev string, chapter int) (scripture.Book, error) {
	book, ok := c.catalog.FindByAbbrev(abbrev)
	if !ok {
		return scripture.Book{}, fmt.Errorf("%w: %q", ErrUnknownBook, abbrev)
	}
	if chapter < 1 || chapter > book.Chapters {
		return scripture.Book{}, fmt.Errorf("%w: %s has %d chapters, got %d", ErrOutOfRange, book.Abbrev, book.Chapters, chapter)
	}
	return book, nil
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("%w: build request: %w", ErrLookupFailure, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrLookupFailure, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("%w: read body: %w", ErrLookupFailure, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s returned %d: %s", ErrLookupFailure, path, resp.StatusCode, truncate(string(body), 200))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: decode %s: %w", ErrLookupFailure, path, err)
	}
	return nil
}

type chapterPayload struct {
	Verses []struct {
		Number int    `json:"number"`
		Text   string `json:"text"`
	} `json:"verses"`
}

type versePayload struct {
	Number int    `json:"number"`
	Text   string `json:"text"`
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
