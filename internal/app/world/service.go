package world

import (
	"context"
	"errors"
	"fmt"
	"time"

	cache "github.com/go-pkgz/expirable-cache/v3"
	"github.com/rs/zerolog"

	"lemuria/internal/app/dump"
	"lemuria/internal/app/terrain"
	"lemuria/internal/pkg/logx"
)

// Repository is the relational storage of worlds, props and elevation nodes.
type Repository interface {
	ListWorlds(ctx context.Context) ([]Record, error)

	// GetWorld returns ErrNotFound for unknown ids.
	GetWorld(ctx context.Context, id int) (Record, error)

	// FindWorldByName matches names case-insensitively and returns ErrNotFound on no match.
	FindWorldByName(ctx context.Context, name string) (Record, error)

	// Props returns the props of a world inside b, in storage order.
	Props(ctx context.Context, worldID int, b Bounds) ([]Prop, error)

	ElevationNodes(ctx context.Context, worldID int) ([]terrain.NodeRecord, error)
	PageNodes(ctx context.Context, worldID, pageX, pageZ int) ([]terrain.NodeRecord, error)

	// ImportWorld creates or replaces the world named in data, all in one transaction,
	// and returns its id.
	ImportWorld(ctx context.Context, data ImportData) (int, error)
}

// ImportData is the parsed content of a world's dumps.
type ImportData struct {
	Name       string
	Attributes string
	Props      []dump.PropRecord
	Nodes      []terrain.NodeRecord
}

// OnlineCounter reports how many connected users are in each world.
type OnlineCounter interface {
	OnlineCounts() map[int]int
}

// CacheOptions configures the prop and terrain read caches.
type CacheOptions struct {
	TTL     time.Duration
	MaxKeys int
}

// Service answers world read requests, caching prop queries and terrain pages.
type Service struct {
	repo   Repository
	online OnlineCounter

	props cache.Cache[string, []Prop]
	pages cache.Cache[string, terrain.PageMap]

	logger zerolog.Logger
}

// NewService wires a Service to its storage and to the presence registry.
func NewService(repo Repository, online OnlineCounter, opts CacheOptions) *Service {
	return &Service{
		repo:   repo,
		online: online,
		props:  cache.NewCache[string, []Prop]().WithMaxKeys(opts.MaxKeys).WithLRU().WithTTL(opts.TTL),
		pages:  cache.NewCache[string, terrain.PageMap]().WithMaxKeys(opts.MaxKeys).WithLRU().WithTTL(opts.TTL),
		logger: logx.Logger().With().Str("component", "WorldService").Logger(),
	}
}

// List returns every world with the number of connected users in it.
func (s *Service) List(ctx context.Context) ([]Summary, error) {
	records, err := s.repo.ListWorlds(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing worlds: %w", err)
	}

	counts := s.online.OnlineCounts()

	out := make([]Summary, 0, len(records))
	for _, r := range records {
		out = append(out, Summary{ID: r.ID, Name: r.Name, Users: counts[r.ID]})
	}
	return out, nil
}

// Get returns the descriptor of world id with its elevation pages. Failing to read the
// elevation data leaves Elev nil instead of failing the request.
func (s *Service) Get(ctx context.Context, id int) (*World, error) {
	rec, err := s.repo.GetWorld(ctx, id)
	if err != nil {
		return nil, err
	}

	w, err := FromRecord(rec)
	if err != nil {
		return nil, err
	}

	nodes, err := s.repo.ElevationNodes(ctx, id)
	if err != nil {
		s.logger.Warn().Err(err).Int("world_id", id).Msg("Elevation data unavailable, serving world without it.")
		return w, nil
	}
	w.Elev = terrain.BuildPages(nodes)

	return w, nil
}

// Props returns the props of world id inside b.
func (s *Service) Props(ctx context.Context, id int, b Bounds) (PropList, error) {
	key := fmt.Sprintf("P-%d-%s", id, b.key())
	if props, ok := s.props.Get(key); ok {
		return PropList{Entries: props}, nil
	}

	props, err := s.repo.Props(ctx, id, b)
	if err != nil {
		return PropList{}, fmt.Errorf("querying props of world %d: %w", id, err)
	}
	if props == nil {
		props = []Prop{}
	}

	s.props.Set(key, props, 0)
	return PropList{Entries: props}, nil
}

// TerrainPage returns page (pageX, pageZ) of world id, keyed like the descriptor's
// elevation map. A page without nodes is empty.
func (s *Service) TerrainPage(ctx context.Context, id, pageX, pageZ int) (terrain.PageMap, error) {
	key := fmt.Sprintf("T-%d-%d-%d", id, pageX, pageZ)
	if page, ok := s.pages.Get(key); ok {
		return page, nil
	}

	nodes, err := s.repo.PageNodes(ctx, id, pageX, pageZ)
	if err != nil {
		return nil, fmt.Errorf("querying terrain page of world %d: %w", id, err)
	}

	page := terrain.PageMap{terrain.PageKey(pageX, pageZ): terrain.BuildPage(nodes)}
	s.pages.Set(key, page, 0)
	return page, nil
}

// Invalidate drops every cached query, e.g. after an import.
func (s *Service) Invalidate() {
	s.props.Purge()
	s.pages.Purge()
}

// IsNotFound reports whether err means the world does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
