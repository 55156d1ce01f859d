// media-insight (minsight) - Media Insight CLI tool
// Copyright (C) 2026  Harrison Wang <https://mingest.com>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package embedding

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingEmbedder struct {
	inner      Embedder
	calls      atomic.Int32
	batchCalls atomic.Int32
	batchSizes []int
	mu         sync.Mutex
}

func (c *countingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	c.calls.Add(1)
	return c.inner.Embed(ctx, text)
}

func (c *countingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	c.batchCalls.Add(1)
	c.mu.Lock()
	c.batchSizes = append(c.batchSizes, len(texts))
	c.mu.Unlock()
	return c.inner.EmbedBatch(ctx, texts)
}

func (c *countingEmbedder) Model() string { return c.inner.Model() }

func dot(a, b []float32) float64 {
	var s float64
	for i := range a {
		s += float64(a[i]) * float64(b[i])
	}
	return s
}

func TestHashEmbedder(t *testing.T) {
	e := NewHashEmbedder(0)
	assert.Equal(t, "hash-256", e.Model())

	a, err := e.Embed(context.Background(), "Quantum physics for beginners")
	require.NoError(t, err)
	require.Len(t, a, DefaultHashDimension)
	assert.InDelta(t, 1.0, math.Sqrt(dot(a, a)), 1e-5)

	again, err := e.Embed(context.Background(), "quantum PHYSICS, for beginners!")
	require.NoError(t, err)
	assert.Equal(t, a, again)

	zero, err := e.Embed(context.Background(), "  ...  ")
	require.NoError(t, err)
	assert.Equal(t, make([]float32, DefaultHashDimension), zero)

	batch, err := e.EmbedBatch(context.Background(), []string{"quantum physics for beginners", ""})
	require.NoError(t, err)
	require.Len(t, batch, 2)
	assert.Equal(t, a, batch[0])
}

func TestCachedEmbedder(t *testing.T) {
	inner := &countingEmbedder{inner: NewHashEmbedder(32)}
	cached, err := Cached(inner, 8)
	require.NoError(t, err)

	first, err := cached.Embed(context.Background(), "hello")
	require.NoError(t, err)
	second, err := cached.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), inner.calls.Load())

	vecs, err := cached.EmbedBatch(context.Background(), []string{"hello", "world", "again"})
	require.NoError(t, err)
	require.Len(t, vecs, 3)
	assert.Equal(t, first, vecs[0])
	assert.Equal(t, []int{2}, inner.batchSizes)
	assert.Equal(t, 3, cached.Len())

	_, err = cached.EmbedBatch(context.Background(), []string{"world", "again"})
	require.NoError(t, err)
	assert.Equal(t, int32(1), inner.batchCalls.Load())
	assert.Equal(t, "hash-32", cached.Model())
}

func TestHandleInitializesOnce(t *testing.T) {
	var builds atomic.Int32
	h := NewHandle(func() (Embedder, error) {
		builds.Add(1)
		return NewHashEmbedder(16), nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.Embed(context.Background(), "text")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), builds.Load())
	assert.Equal(t, "hash-16", h.Model())
}

func TestHandleRemembersError(t *testing.T) {
	var builds atomic.Int32
	h := NewHandle(func() (Embedder, error) {
		builds.Add(1)
		return nil, errors.New("no key")
	})

	_, err := h.Embed(context.Background(), "x")
	require.Error(t, err)
	_, err = h.EmbedBatch(context.Background(), []string{"x"})
	require.Error(t, err)
	assert.Equal(t, "", h.Model())
	assert.Equal(t, int32(1), builds.Load())

	_, err = NewHandle(nil).Get()
	assert.Error(t, err)
	_, err = NewHandle(func() (Embedder, error) { return nil, nil }).Get()
	assert.Error(t, err)
}

func TestStaticHandle(t *testing.T) {
	e := NewHashEmbedder(8)
	got, err := Static(e).Get()
	require.NoError(t, err)
	assert.Same(t, e, got)
}

func TestOpenAIEmbedder(t *testing.T) {
	var req map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		w.Header().Set("Content-Type", "application/json")
		// Out of order on purpose; vectors are placed by index.
		_, _ = w.Write([]byte(`{
			"object": "list",
			"model": "text-embedding-3-small",
			"data": [
				{"object": "embedding", "index": 1, "embedding": [0, 1]},
				{"object": "embedding", "index": 0, "embedding": [1, 0]}
			],
			"usage": {"prompt_tokens": 2, "total_tokens": 2}
		}`))
	}))
	defer srv.Close()

	e, err := NewOpenAIEmbedder(OpenAIConfig{APIKey: "k", BaseURL: srv.URL + "/", Dimensions: 2})
	require.NoError(t, err)
	assert.Equal(t, DefaultOpenAIModel, e.Model())

	vecs, err := e.EmbedBatch(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 0}, {0, 1}}, vecs)
	assert.Equal(t, "text-embedding-3-small", req["model"])
	assert.Equal(t, []any{"a", "b"}, req["input"])
	assert.Equal(t, 2.0, req["dimensions"])

	empty, err := e.EmbedBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, empty)
}

func TestOpenAIEmbedderRequiresKey(t *testing.T) {
	_, err := NewOpenAIEmbedder(OpenAIConfig{})
	assert.Error(t, err)
}
