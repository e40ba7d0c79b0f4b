package repositories

import (
	"context"
	"fmt"
	"strings"

	intconfig "github.com/Harsha992004/online-bus-booking-app/internal/config"
	intdb "github.com/Harsha992004/online-bus-booking-app/internal/db"
	"github.com/Harsha992004/online-bus-booking-app/internal/domain/models"
	"github.com/jmoiron/sqlx"
)

const tripColumns = `id, name, from_city, to_city, depart_time, arrive_time,
	COALESCE(seats_total, 0) AS seats_total, fare, COALESCE(vehicle_tags, '') AS vehicle_tags`

type TripsRepository struct {
	DB *sqlx.DB
}

func (r TripsRepository) db() *sqlx.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

// Search applies every non-empty filter with AND. Text filters are
// case-insensitive substring matches.
func (r TripsRepository) Search(ctx context.Context, f models.TripFilter) ([]models.Trip, error) {
	db := r.db()
	if db == nil {
		return nil, fmt.Errorf("db not available")
	}

	where := []string{"1=1"}
	args := []any{}
	if s := strings.TrimSpace(f.From); s != "" {
		where = append(where, "LOWER(from_city) LIKE ?")
		args = append(args, intdb.LikeContains(s))
	}
	if s := strings.TrimSpace(f.To); s != "" {
		where = append(where, "LOWER(to_city) LIKE ?")
		args = append(args, intdb.LikeContains(s))
	}
	if s := strings.TrimSpace(f.Date); s != "" {
		where = append(where, "CAST(depart_time AS DATE) = ?")
		args = append(args, s)
	}
	if s := strings.TrimSpace(f.Operator); s != "" {
		where = append(where, "LOWER(name) LIKE ?")
		args = append(args, intdb.LikeContains(s))
	}
	if f.FareMin != nil {
		where = append(where, "fare >= ?")
		args = append(args, f.FareMin.String())
	}
	if f.FareMax != nil {
		where = append(where, "fare <= ?")
		args = append(args, f.FareMax.String())
	}
	if f.Type != "" {
		where = append(where, "vehicle_tags LIKE ?")
		args = append(args, "%,"+string(f.Type)+",%")
	}

	query := `SELECT ` + tripColumns + ` FROM buses WHERE ` + strings.Join(where, " AND ") + ` ORDER BY depart_time ASC, id ASC`
	out := []models.Trip{}
	if err := db.SelectContext(ctx, &out, db.Rebind(query), args...); err != nil {
		return nil, err
	}
	return out, nil
}

func (r TripsRepository) GetByID(ctx context.Context, id int64) (models.Trip, error) {
	var out models.Trip
	if id <= 0 {
		return out, intdb.ErrNotFound
	}
	ex := intdb.ExecutorFrom(ctx, r.db())
	err := ex.GetContext(ctx, &out, ex.Rebind(`SELECT `+tripColumns+` FROM buses WHERE id = ?`), id)
	return out, intdb.NotFound(err)
}

func (r TripsRepository) Create(ctx context.Context, t models.Trip) (int64, error) {
	ex := intdb.ExecutorFrom(ctx, r.db())
	return intdb.InsertID(ctx, ex,
		`INSERT INTO buses (name, from_city, to_city, depart_time, arrive_time, seats_total, fare, vehicle_tags)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.Operator, t.FromCity, t.ToCity, t.DepartAt, t.ArriveAt, t.SeatsTotal, t.Fare.String(), t.Tags.Encode())
}

func (r TripsRepository) Update(ctx context.Context, t models.Trip) error {
	ex := intdb.ExecutorFrom(ctx, r.db())
	res, err := ex.ExecContext(ctx, ex.Rebind(
		`UPDATE buses SET name = ?, from_city = ?, to_city = ?, depart_time = ?, arrive_time = ?,
		 seats_total = ?, fare = ?, vehicle_tags = ? WHERE id = ?`),
		t.Operator, t.FromCity, t.ToCity, t.DepartAt, t.ArriveAt, t.SeatsTotal, t.Fare.String(), t.Tags.Encode(), t.ID)
	if err != nil {
		return err
	}
	return requireAffected(ctx, ex, res, "buses", t.ID)
}

func (r TripsRepository) Delete(ctx context.Context, id int64) error {
	ex := intdb.ExecutorFrom(ctx, r.db())
	res, err := ex.ExecContext(ctx, ex.Rebind(`DELETE FROM buses WHERE id = ?`), id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return intdb.ErrNotFound
	}
	return nil
}

// Locations returns distinct origin and destination cities starting with prefix.
func (r TripsRepository) Locations(ctx context.Context, prefix string, limit int) ([]string, error) {
	db := r.db()
	if db == nil {
		return nil, fmt.Errorf("db not available")
	}
	if limit <= 0 {
		limit = 20
	}
	like := strings.ToLower(strings.TrimSpace(prefix)) + "%"
	query := `SELECT city FROM (
		SELECT from_city AS city FROM buses
		UNION
		SELECT to_city AS city FROM buses
	) cities WHERE LOWER(city) LIKE ? ORDER BY city ASC LIMIT ?`
	out := []string{}
	if err := db.SelectContext(ctx, &out, db.Rebind(query), like, limit); err != nil {
		return nil, err
	}
	return out, nil
}

func (r TripsRepository) Count(ctx context.Context) (int, error) {
	db := r.db()
	if db == nil {
		return 0, fmt.Errorf("db not available")
	}
	var n int
	err := db.GetContext(ctx, &n, `SELECT COUNT(*) FROM buses`)
	return n, err
}

// ListUntagged returns trips saved before vehicle tags existed.
func (r TripsRepository) ListUntagged(ctx context.Context) ([]models.Trip, error) {
	db := r.db()
	if db == nil {
		return nil, fmt.Errorf("db not available")
	}
	out := []models.Trip{}
	err := db.SelectContext(ctx, &out, `SELECT `+tripColumns+` FROM buses WHERE COALESCE(vehicle_tags, '') = '' ORDER BY id ASC`)
	return out, err
}
