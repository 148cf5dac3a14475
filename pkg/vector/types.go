// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package vector

import "context"

// Result is a single vector search hit.
type Result struct {
	ID       string
	Score    float32
	Content  string
	Metadata map[string]any
	Vector   []float32
}

// Provider is the common interface implemented by every vector backend.
//
// Vectors are always supplied pre-computed by the caller; providers do not
// perform embedding themselves.
type Provider interface {
	// Name returns a short identifier for the backend (e.g. "chromem").
	Name() string

	// Upsert adds or replaces a document's vector and metadata.
	Upsert(ctx context.Context, collection string, id string, vector []float32, metadata map[string]any) error

	// Search returns the topK nearest neighbors to vector.
	Search(ctx context.Context, collection string, vector []float32, topK int) ([]Result, error)

	// SearchWithFilter is Search restricted to documents matching filter.
	SearchWithFilter(ctx context.Context, collection string, vector []float32, topK int, filter map[string]any) ([]Result, error)

	// Delete removes a single document by id.
	Delete(ctx context.Context, collection string, id string) error

	// DeleteByFilter removes every document matching filter.
	DeleteByFilter(ctx context.Context, collection string, filter map[string]any) error

	// CreateCollection ensures a collection exists, sized for vectorDimension.
	CreateCollection(ctx context.Context, collection string, vectorDimension int) error

	// DeleteCollection removes a collection and everything in it.
	DeleteCollection(ctx context.Context, collection string) error

	// Close releases provider resources.
	Close() error
}

// NilProvider is a no-op Provider used when no vector store is configured.
// Every operation returns an empty result rather than failing, so callers
// that treat memory as optional don't need a nil check.
type NilProvider struct{}

func (NilProvider) Name() string { return "nil" }

func (NilProvider) Upsert(ctx context.Context, collection string, id string, vector []float32, metadata map[string]any) error {
	return nil
}

func (NilProvider) Search(ctx context.Context, collection string, vector []float32, topK int) ([]Result, error) {
	return nil, nil
}

func (NilProvider) SearchWithFilter(ctx context.Context, collection string, vector []float32, topK int, filter map[string]any) ([]Result, error) {
	return nil, nil
}

func (NilProvider) Delete(ctx context.Context, collection string, id string) error { return nil }

func (NilProvider) DeleteByFilter(ctx context.Context, collection string, filter map[string]any) error {
	return nil
}

func (NilProvider) CreateCollection(ctx context.Context, collection string, vectorDimension int) error {
	return nil
}

func (NilProvider) DeleteCollection(ctx context.Context, collection string) error { return nil }

func (NilProvider) Close() error { return nil }

var _ Provider = NilProvider{}
