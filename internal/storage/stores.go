package storage

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"passive-genius/internal/idea"
)

const (
	profileKey        = "pg_profile"
	favoritesKey      = "pg_favorites"
	progressKeyPrefix = "pg_progress_"
)

func userKey(userID, key string) string {
	return userID + "/" + key
}

// load reads a JSON value. Missing or unreadable entries yield ok=false and
// are logged; they never surface as errors.
func load[T any](ctx context.Context, kv KV, key string, out *T) bool {
	data, err := kv.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return false
	}
	if err != nil {
		log.Printf("Warning: failed to read %s, using default: %v", key, err)
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		log.Printf("Warning: corrupt data under %s, using default: %v", key, err)
		return false
	}
	return true
}

// save writes through best-effort; failures are logged and swallowed.
func save(ctx context.Context, kv KV, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("Warning: failed to encode %s: %v", key, err)
		return
	}
	if err := kv.Set(context.WithoutCancel(ctx), key, data); err != nil {
		log.Printf("Warning: failed to persist %s: %v", key, err)
	}
}

// ProfileStore persists a user's onboarding profile.
type ProfileStore struct {
	kv KV
}

func NewProfileStore(kv KV) *ProfileStore {
	return &ProfileStore{kv: kv}
}

// Load returns the stored profile, or an empty one.
func (s *ProfileStore) Load(ctx context.Context, userID string) idea.UserProfile {
	var p idea.UserProfile
	if !load(ctx, s.kv, userKey(userID, profileKey), &p) {
		return idea.UserProfile{}
	}
	if err := p.Validate(); err != nil {
		log.Printf("Warning: stored profile for %s is invalid, using default: %v", userID, err)
		return idea.UserProfile{}
	}
	return p
}

func (s *ProfileStore) Save(ctx context.Context, userID string, p idea.UserProfile) {
	save(ctx, s.kv, userKey(userID, profileKey), p)
}

// FavoritesStore persists the ordered list of saved ideas.
type FavoritesStore struct {
	kv KV
}

func NewFavoritesStore(kv KV) *FavoritesStore {
	return &FavoritesStore{kv: kv}
}

// Load returns the saved ideas, or an empty list. Duplicate ids keep their
// first occurrence.
func (s *FavoritesStore) Load(ctx context.Context, userID string) []idea.IncomeIdea {
	var favs []idea.IncomeIdea
	if !load(ctx, s.kv, userKey(userID, favoritesKey), &favs) {
		return []idea.IncomeIdea{}
	}
	out := make([]idea.IncomeIdea, 0, len(favs))
	for _, f := range favs {
		if f.ID == "" || idea.IsFavorite(out, f.ID) {
			continue
		}
		out = append(out, f)
	}
	return out
}

func (s *FavoritesStore) Save(ctx context.Context, userID string, favs []idea.IncomeIdea) {
	if favs == nil {
		favs = []idea.IncomeIdea{}
	}
	save(ctx, s.kv, userKey(userID, favoritesKey), favs)
}

// ProgressStore persists task completion per idea.
type ProgressStore struct {
	kv KV
}

func NewProgressStore(kv KV) *ProgressStore {
	return &ProgressStore{kv: kv}
}

// Load returns the progress map for an idea, or an empty one.
func (s *ProgressStore) Load(ctx context.Context, userID, ideaID string) idea.Progress {
	var p idea.Progress
	if !load(ctx, s.kv, userKey(userID, progressKeyPrefix+ideaID), &p) || p == nil {
		return idea.Progress{}
	}
	return p
}

func (s *ProgressStore) Save(ctx context.Context, userID, ideaID string, p idea.Progress) {
	if p == nil {
		p = idea.Progress{}
	}
	save(ctx, s.kv, userKey(userID, progressKeyPrefix+ideaID), p)
}

// Stores groups the three per-user stores over one backend.
type Stores struct {
	Profile   *ProfileStore
	Favorites *FavoritesStore
	Progress  *ProgressStore
}

func NewStores(kv KV) *Stores {
	return &Stores{
		Profile:   NewProfileStore(kv),
		Favorites: NewFavoritesStore(kv),
		Progress:  NewProgressStore(kv),
	}
}
