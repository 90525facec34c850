package world

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"lemuria/internal/app/dump"
	"lemuria/internal/app/storage"
	"lemuria/internal/app/terrain"
	"lemuria/internal/pkg/logx"
)

// ErrDumpMissing is returned when the attribute dump of an import does not exist.
var ErrDumpMissing = errors.New("attribute dump missing")

// Dump file names for a world.
func attributeDump(name string) string { return "at" + name + ".txt" }
func elevationDump(name string) string { return "elev" + name + ".txt" }
func propDump(name string) string      { return "prop" + name + ".txt" }

// Transfer imports worlds from dumps and exports them back.
type Transfer struct {
	repo  Repository
	store storage.DumpStore

	// svc, when set, has its caches dropped after each import.
	svc *Service

	logger zerolog.Logger
}

// NewTransfer returns a Transfer reading and writing dumps in store. svc may be nil.
func NewTransfer(repo Repository, store storage.DumpStore, svc *Service) *Transfer {
	return &Transfer{
		repo:   repo,
		store:  store,
		svc:    svc,
		logger: logx.Logger().With().Str("component", "WorldTransfer").Logger(),
	}
}

// Import reads at<name>.txt, elev<name>.txt and prop<name>.txt and stores the world they
// describe, replacing any world of the same name. The attribute dump is required; missing
// elevation or prop dumps import as empty. Every dump is parsed before anything is written,
// and the write is a single transaction, so a failed import leaves storage untouched.
func (t *Transfer) Import(ctx context.Context, name string) (int, error) {
	var attrs map[string]any
	err := t.read(ctx, attributeDump(name), func(r io.Reader) (err error) {
		attrs, err = dump.ParseAttributes(r)
		return err
	})
	if errors.Is(err, storage.ErrNotFound) {
		return 0, fmt.Errorf("%w: %s: %w", ErrDumpMissing, attributeDump(name), err)
	}
	if err != nil {
		return 0, err
	}

	var nodes []terrain.NodeRecord
	err = t.read(ctx, elevationDump(name), func(r io.Reader) (err error) {
		nodes, err = dump.ParseElevation(r)
		return err
	})
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return 0, err
	}

	var props []dump.PropRecord
	err = t.read(ctx, propDump(name), func(r io.Reader) (err error) {
		props, err = dump.ParseProps(r)
		return err
	})
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return 0, err
	}

	worldName, _ := attrs["name"].(string)
	if strings.TrimSpace(worldName) == "" {
		worldName = name
		attrs["name"] = name
	}

	data, err := json.Marshal(attrs)
	if err != nil {
		return 0, fmt.Errorf("encoding attributes of %s: %w", worldName, err)
	}

	id, err := t.repo.ImportWorld(ctx, ImportData{
		Name:       worldName,
		Attributes: string(data),
		Props:      props,
		Nodes:      nodes,
	})
	if err != nil {
		return 0, fmt.Errorf("importing world %s: %w", worldName, err)
	}

	if t.svc != nil {
		t.svc.Invalidate()
	}

	t.logger.Info().
		Str("world", worldName).
		Int("world_id", id).
		Int("props", len(props)).
		Int("nodes", len(nodes)).
		Msg("World imported.")

	return id, nil
}

func (t *Transfer) read(ctx context.Context, file string, parse func(io.Reader) error) error {
	rc, err := t.store.Open(ctx, file)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			t.logger.Warn().Str("file", file).Msg("Dump not found.")
		}
		return err
	}
	defer rc.Close()

	if err := parse(rc); err != nil {
		return fmt.Errorf("%s: %w", file, err)
	}
	return nil
}

// Export writes the world named name as export_at<name>.txt, export_elev<name>.txt and
// export_prop<name>.txt.
func (t *Transfer) Export(ctx context.Context, name string) error {
	rec, err := t.repo.FindWorldByName(ctx, name)
	if err != nil {
		return err
	}

	attrs := make(map[string]any)
	if rec.Data != "" {
		dec := json.NewDecoder(strings.NewReader(rec.Data))
		dec.UseNumber()
		if err := dec.Decode(&attrs); err != nil {
			return fmt.Errorf("decoding attributes of world %d: %w", rec.ID, err)
		}
	}
	attrs["name"] = rec.Name

	nodes, err := t.repo.ElevationNodes(ctx, rec.ID)
	if err != nil {
		return fmt.Errorf("reading elevation of world %d: %w", rec.ID, err)
	}

	props, err := t.repo.Props(ctx, rec.ID, Bounds{})
	if err != nil {
		return fmt.Errorf("reading props of world %d: %w", rec.ID, err)
	}

	records := make([]dump.PropRecord, 0, len(props))
	for _, p := range props {
		records = append(records, dump.PropRecord{
			Owner: p.Owner,
			Date:  p.Date,
			X:     p.X,
			Y:     p.Y,
			Z:     p.Z,
			Yaw:   p.Yaw,
			Pitch: p.Pitch,
			Roll:  p.Roll,
			Name:  p.Name,
			Desc:  p.Desc,
			Act:   p.Act,
		})
	}

	writes := []struct {
		file  string
		write func(io.Writer) error
	}{
		{"export_" + attributeDump(name), func(w io.Writer) error { return dump.WriteAttributes(w, attrs) }},
		{"export_" + elevationDump(name), func(w io.Writer) error { return dump.WriteElevation(w, nodes) }},
		{"export_" + propDump(name), func(w io.Writer) error { return dump.WriteProps(w, records) }},
	}

	for _, wr := range writes {
		var buf bytes.Buffer
		if err := wr.write(&buf); err != nil {
			return fmt.Errorf("rendering %s: %w", wr.file, err)
		}
		if err := t.store.Save(ctx, wr.file, &buf); err != nil {
			return fmt.Errorf("saving %s: %w", wr.file, err)
		}
	}

	t.logger.Info().
		Str("world", rec.Name).
		Int("props", len(records)).
		Int("nodes", len(nodes)).
		Msg("World exported.")

	return nil
}
