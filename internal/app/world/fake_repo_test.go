package world

import (
	"context"
	"errors"
	"strings"
	"sync"

	"lemuria/internal/app/terrain"
)

type fakeRepo struct {
	mu sync.Mutex

	worlds []Record
	props  map[int][]Prop
	nodes  map[int][]terrain.NodeRecord

	nodesErr  error
	propCalls int
	pageCalls int

	imported []ImportData
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		props: make(map[int][]Prop),
		nodes: make(map[int][]terrain.NodeRecord),
	}
}

func (f *fakeRepo) ListWorlds(context.Context) ([]Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Record(nil), f.worlds...), nil
}

func (f *fakeRepo) GetWorld(_ context.Context, id int) (Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, w := range f.worlds {
		if w.ID == id {
			return w, nil
		}
	}
	return Record{}, ErrNotFound
}

func (f *fakeRepo) FindWorldByName(_ context.Context, name string) (Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, w := range f.worlds {
		if strings.EqualFold(w.Name, name) {
			return w, nil
		}
	}
	return Record{}, ErrNotFound
}

func (f *fakeRepo) Props(_ context.Context, worldID int, b Bounds) ([]Prop, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.propCalls++
	return b.Filter(f.props[worldID]), nil
}

func (f *fakeRepo) ElevationNodes(_ context.Context, worldID int) ([]terrain.NodeRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.nodesErr != nil {
		return nil, f.nodesErr
	}
	return f.nodes[worldID], nil
}

func (f *fakeRepo) PageNodes(_ context.Context, worldID, pageX, pageZ int) ([]terrain.NodeRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pageCalls++
	var out []terrain.NodeRecord
	for _, n := range f.nodes[worldID] {
		if n.PageX == pageX && n.PageZ == pageZ {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *fakeRepo) ImportWorld(_ context.Context, data ImportData) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if data.Name == "" {
		return 0, errors.New("empty name")
	}
	f.imported = append(f.imported, data)

	id := len(f.worlds) + 1
	for _, w := range f.worlds {
		if strings.EqualFold(w.Name, data.Name) {
			id = w.ID
		}
	}
	f.worlds = append(f.worlds, Record{ID: id, Name: data.Name, Data: data.Attributes})

	props := make([]Prop, 0, len(data.Props))
	for i, p := range data.Props {
		props = append(props, Prop{
			ID: i + 1, WorldID: id, Owner: p.Owner, Date: p.Date, Name: p.Name,
			X: p.X, Y: p.Y, Z: p.Z, Pitch: p.Pitch, Yaw: p.Yaw, Roll: p.Roll,
			Desc: p.Desc, Act: p.Act,
		})
	}
	f.props[id] = props
	f.nodes[id] = data.Nodes
	return id, nil
}

type fakeOnline map[int]int

func (f fakeOnline) OnlineCounts() map[int]int { return f }
