package scripture

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibliafides/backend/internal/config"
	"github.com/bibliafides/backend/internal/logger"
	"github.com/bibliafides/backend/internal/model/scripture"
)

const psalm23 = `{
  "book": {"abbrev": {"pt": "sl"}, "name": "Salmos"},
  "chapter": {"number": 23, "verses": 3},
  "verses": [
    {"number": 1, "text": "O Senhor é o meu pastor; de nada terei falta."},
    {"number": 2, "text": "Em verdes pastagens me faz repousar "},
    {"number": 3, "text": "Restaura-me o vigor."}
  ]
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *int32) {
	t.Helper()
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	client, err := NewClient(config.ScriptureConfig{
		BaseURL:        srv.URL + "/api/",
		Token:          "tok",
		DefaultVersion: "NVI",
		CacheSize:      8,
		Timeout:        2 * time.Second,
	}, scripture.NewMemoryCatalog(scripture.Seed()), logger.Nop())
	require.NoError(t, err)
	return client, &hits
}

func TestChapterFetchesAndCaches(t *testing.T) {
	client, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/verses/nvi/sl/23", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(psalm23))
	})

	ch, err := client.Chapter(context.Background(), "", "SL", 23)
	require.NoError(t, err)
	assert.Equal(t, "nvi", ch.Version)
	assert.Equal(t, "Salmos", ch.Book.Name)
	assert.Equal(t, 23, ch.Number)
	require.Len(t, ch.Verses, 3)
	assert.Equal(t, 1, ch.Verses[0].Number)
	assert.Equal(t, "Em verdes pastagens me faz repousar", ch.Verses[1].Text)

	_, err = client.Chapter(context.Background(), "nvi", "sl", 23)
	require.NoError(t, err)
	assert.EqualValues(t, 1, atomic.LoadInt32(hits))

	verse, err := client.Verse(context.Background(), "nvi", "sl", 23, 3)
	require.NoError(t, err)
	assert.Equal(t, "Restaura-me o vigor.", verse.Text)
	assert.EqualValues(t, 1, atomic.LoadInt32(hits))
}

func TestChapterDeduplicatesConcurrentFetches(t *testing.T) {
	release := make(chan struct{})
	client, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-release
		_, _ = w.Write([]byte(psalm23))
	})

	const callers = 5
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := client.Chapter(context.Background(), "nvi", "sl", 23)
			errs <- err
		}()
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	assert.LessOrEqual(t, atomic.LoadInt32(hits), int32(callers))
	assert.GreaterOrEqual(t, atomic.LoadInt32(hits), int32(1))
}

func TestSharedFetchSurvivesFirstCallerCancel(t *testing.T) {
	arrived := make(chan struct{}, 1)
	release := make(chan struct{})
	client, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		arrived <- struct{}{}
		<-release
		_, _ = w.Write([]byte(psalm23))
	})

	firstCtx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := client.Chapter(firstCtx, "nvi", "sl", 23)
		firstErr <- err
	}()

	select {
	case <-arrived:
	case <-time.After(2 * time.Second):
		t.Fatal("upstream never called")
	}

	secondDone := make(chan error, 1)
	go func() {
		ch, err := client.Chapter(context.Background(), "nvi", "sl", 23)
		if err == nil && len(ch.Verses) != 3 {
			err = assert.AnError
		}
		secondDone <- err
	}()

	cancel()
	err := <-firstErr
	require.ErrorIs(t, err, ErrLookupFailure)
	require.ErrorIs(t, err, context.Canceled)

	close(release)
	require.NoError(t, <-secondDone)
	assert.EqualValues(t, 1, atomic.LoadInt32(hits))

	_, err = client.Chapter(context.Background(), "nvi", "sl", 23)
	require.NoError(t, err)
	assert.EqualValues(t, 1, atomic.LoadInt32(hits))
}

func TestVerseFetchesSingleVerse(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/verses/acf/jo/3/16", r.URL.Path)
		_, _ = w.Write([]byte(`{"book":{"name":"João"},"chapter":3,"number":16,"text":"Porque Deus amou o mundo de tal maneira"}`))
	})

	verse, err := client.Verse(context.Background(), "acf", "jo", 3, 16)
	require.NoError(t, err)
	assert.Equal(t, 16, verse.Number)
	assert.Equal(t, "Porque Deus amou o mundo de tal maneira", verse.Text)
}

func TestLookupFailureOnUpstreamError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"msg":"too many requests"}`, http.StatusTooManyRequests)
	})

	_, err := client.Chapter(context.Background(), "nvi", "gn", 1)
	require.ErrorIs(t, err, ErrLookupFailure)

	_, err = client.Verse(context.Background(), "nvi", "gn", 1, 1)
	require.ErrorIs(t, err, ErrLookupFailure)
}

func TestLookupFailureOnGarbage(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>maintenance</html>`))
	})

	_, err := client.Chapter(context.Background(), "nvi", "gn", 1)
	require.ErrorIs(t, err, ErrLookupFailure)
}

func TestRangeCheckedBeforeRequest(t *testing.T) {
	client, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s", r.URL.Path)
	})
	ctx := context.Background()

	_, err := client.Chapter(ctx, "nvi", "xyz", 1)
	require.ErrorIs(t, err, ErrUnknownBook)

	_, err = client.Chapter(ctx, "nvi", "sl", 151)
	require.ErrorIs(t, err, ErrOutOfRange)

	_, err = client.Chapter(ctx, "nvi", "gn", 0)
	require.ErrorIs(t, err, ErrOutOfRange)

	_, err = client.Verse(ctx, "nvi", "gn", 1, 0)
	require.ErrorIs(t, err, ErrOutOfRange)

	assert.Zero(t, atomic.LoadInt32(hits))
	assert.Len(t, client.Books(), 66)
	assert.Equal(t, "nvi", client.DefaultVersion())
}
