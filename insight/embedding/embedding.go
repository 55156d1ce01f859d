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

// Package embedding provides text embedders and the shared handle the
// ranker draws them from.
package embedding

import (
	"context"
	"errors"
	"sync"
)

// ErrEmptyResult is returned when a provider answers without vectors.
var ErrEmptyResult = errors.New("embedding: provider returned no vectors")

// Embedder maps text to a fixed-length vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Model() string
}

// Factory builds an Embedder. It runs at most once per Handle.
type Factory func() (Embedder, error)

// Handle defers building an embedder until first use and then shares it.
// Initialization errors are remembered; a Handle never retries its factory.
type Handle struct {
	once    sync.Once
	factory Factory
	emb     Embedder
	err     error
}

func NewHandle(factory Factory) *Handle {
	return &Handle{factory: factory}
}

// Static wraps an already built embedder, mostly for tests.
func Static(e Embedder) *Handle {
	return NewHandle(func() (Embedder, error) { return e, nil })
}

// Get returns the embedder, building it on the first call.
func (h *Handle) Get() (Embedder, error) {
	h.once.Do(func() {
		if h.factory == nil {
			h.err = errors.New("embedding: no factory configured")
			return
		}
		h.emb, h.err = h.factory()
		if h.err == nil && h.emb == nil {
			h.err = errors.New("embedding: factory returned nil embedder")
		}
	})
	return h.emb, h.err
}

func (h *Handle) Embed(ctx context.Context, text string) ([]float32, error) {
	e, err := h.Get()
	if err != nil {
		return nil, err
	}
	return e.Embed(ctx, text)
}

func (h *Handle) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	e, err := h.Get()
	if err != nil {
		return nil, err
	}
	return e.EmbedBatch(ctx, texts)
}

func (h *Handle) Model() string {
	e, err := h.Get()
	if err != nil {
		return ""
	}
	return e.Model()
}
