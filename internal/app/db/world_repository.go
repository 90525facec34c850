package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"lemuria/internal/app/terrain"
	"lemuria/internal/app/world"
)

// WorldRepository stores worlds, props and elevation nodes in PostgreSQL.
type WorldRepository struct {
	db *sql.DB
}

// NewWorldRepository returns a repository on db.
func NewWorldRepository(db *sql.DB) *WorldRepository {
	return &WorldRepository{db: db}
}

var _ world.Repository = (*WorldRepository)(nil)

func (r *WorldRepository) ListWorlds(ctx context.Context) ([]world.Record, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM world ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []world.Record
	for rows.Next() {
		var rec world.Record
		if err := rows.Scan(&rec.ID, &rec.Name); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (r *WorldRepository) GetWorld(ctx context.Context, id int) (world.Record, error) {
	return r.getWorld(ctx, `SELECT id, name, COALESCE(data, '') FROM world WHERE id = $1`, id)
}

func (r *WorldRepository) FindWorldByName(ctx context.Context, name string) (world.Record, error) {
	return r.getWorld(ctx, `SELECT id, name, COALESCE(data, '') FROM world WHERE lower(name) = lower($1)`, name)
}

func (r *WorldRepository) getWorld(ctx context.Context, query string, arg any) (world.Record, error) {
	var rec world.Record
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&rec.ID, &rec.Name, &rec.Data)
	if errors.Is(err, sql.ErrNoRows) {
		return world.Record{}, world.ErrNotFound
	}
	if err != nil {
		return world.Record{}, fmt.Errorf("db error: %w", err)
	}
	return rec, nil
}

const propColumns = `id, wid, uid, date, name, x, y, z, pi, ya, ro, "desc", act`

// Props builds its WHERE clause from the sides of b that are set.
func (r *WorldRepository) Props(ctx context.Context, worldID int, b world.Bounds) ([]world.Prop, error) {
	conds := []string{"wid = $1"}
	args := []any{worldID}

	add := func(column, op string, v *int) {
		if v == nil {
			return
		}
		args = append(args, *v)
		conds = append(conds, column+" "+op+" $"+strconv.Itoa(len(args)))
	}
	add("x", ">=", b.MinX)
	add("x", "<", b.MaxX)
	add("y", ">=", b.MinY)
	add("y", "<", b.MaxY)
	add("z", ">=", b.MinZ)
	add("z", "<", b.MaxZ)

	query := `SELECT ` + propColumns + ` FROM prop WHERE ` + strings.Join(conds, " AND ") + ` ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	out := []world.Prop{}
	for rows.Next() {
		var (
			p         world.Prop
			desc, act sql.NullString
		)
		if err := rows.Scan(&p.ID, &p.WorldID, &p.Owner, &p.Date, &p.Name,
			&p.X, &p.Y, &p.Z, &p.Pitch, &p.Yaw, &p.Roll, &desc, &act); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		p.Desc = nullableText(desc)
		p.Act = nullableText(act)
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func nullableText(s sql.NullString) *string {
	if !s.Valid || s.String == "" {
		return nil
	}
	return &s.String
}

func textOrNull(s *string) any {
	if s == nil || *s == "" {
		return nil
	}
	return *s
}

const elevColumns = `page_x, page_z, node_x, node_z, radius, textures, heights`

func (r *WorldRepository) ElevationNodes(ctx context.Context, worldID int) ([]terrain.NodeRecord, error) {
	return r.nodes(ctx, `SELECT `+elevColumns+` FROM elev WHERE wid = $1 ORDER BY id`, worldID)
}

func (r *WorldRepository) PageNodes(ctx context.Context, worldID, pageX, pageZ int) ([]terrain.NodeRecord, error) {
	return r.nodes(ctx,
		`SELECT `+elevColumns+` FROM elev WHERE wid = $1 AND page_x = $2 AND page_z = $3 ORDER BY id`,
		worldID, pageX, pageZ)
}

func (r *WorldRepository) nodes(ctx context.Context, query string, args ...any) ([]terrain.NodeRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []terrain.NodeRecord
	for rows.Next() {
		var (
			n                 terrain.NodeRecord
			textures, heights string
		)
		if err := rows.Scan(&n.PageX, &n.PageZ, &n.NodeX, &n.NodeZ, &n.Radius, &textures, &heights); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		if n.Textures, err = terrain.ParseIntList(textures); err != nil {
			return nil, fmt.Errorf("elevation node textures: %w", err)
		}
		if n.Heights, err = terrain.ParseIntList(heights); err != nil {
			return nil, fmt.Errorf("elevation node heights: %w", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

// ImportWorld replaces the props and elevation of the world named data.Name, creating the
// world when no name matches case-insensitively.
func (r *WorldRepository) ImportWorld(ctx context.Context, data world.ImportData) (int, error) {
	var id int

	err := WithTx(ctx, r.db, nil, func(ctx context.Context, tx DBTX) error {
		err := tx.QueryRowContext(ctx, `SELECT id FROM world WHERE lower(name) = lower($1)`, data.Name).Scan(&id)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			err = tx.QueryRowContext(ctx,
				`INSERT INTO world (name, data) VALUES ($1, $2) RETURNING id`,
				data.Name, data.Attributes).Scan(&id)
			if err != nil {
				return fmt.Errorf("inserting world: %w", err)
			}
		case err != nil:
			return fmt.Errorf("looking up world: %w", err)
		default:
			if _, err := tx.ExecContext(ctx, `UPDATE world SET name = $1, data = $2 WHERE id = $3`,
				data.Name, data.Attributes, id); err != nil {
				return fmt.Errorf("updating world: %w", err)
			}
			if _, err := tx.ExecContext(ctx, `DELETE FROM prop WHERE wid = $1`, id); err != nil {
				return fmt.Errorf("clearing props: %w", err)
			}
			if _, err := tx.ExecContext(ctx, `DELETE FROM elev WHERE wid = $1`, id); err != nil {
				return fmt.Errorf("clearing elevation: %w", err)
			}
		}

		for i, p := range data.Props {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO prop (wid, uid, date, name, x, y, z, pi, ya, ro, "desc", act)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
				id, p.Owner, p.Date, p.Name, p.X, p.Y, p.Z, p.Pitch, p.Yaw, p.Roll,
				textOrNull(p.Desc), textOrNull(p.Act))
			if err != nil {
				return fmt.Errorf("inserting prop %d: %w", i+1, err)
			}
		}

		for i, n := range data.Nodes {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO elev (wid, page_x, page_z, node_x, node_z, radius, textures, heights)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
				id, n.PageX, n.PageZ, n.NodeX, n.NodeZ, n.Radius,
				terrain.FormatIntList(n.Textures), terrain.FormatIntList(n.Heights))
			if err != nil {
				return fmt.Errorf("inserting elevation node %d: %w", i+1, err)
			}
		}
		return nil
	})
	if err != nil {
		if IsUniqueViolation(err) {
			return 0, fmt.Errorf("world %q already exists: %w", data.Name, err)
		}
		return 0, err
	}

	return id, nil
}
