// Package memory is a process-local storage adapter for development and
// tests. Transactions are serialized and rolled back by restoring a copy of
// the state.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	intdb "github.com/Harsha992004/online-bus-booking-app/internal/db"
	"github.com/Harsha992004/online-bus-booking-app/internal/domain/models"
	"github.com/Harsha992004/online-bus-booking-app/internal/utils"
	"github.com/shopspring/decimal"
)

type holdKey struct {
	trip int64
	date string
	seat string
}

type state struct {
	seq        int64
	trips      map[int64]models.Trip
	bookings   map[int64]models.Booking
	holds      map[holdKey]int64
	holdOrder  []holdKey
	passengers []models.Passenger
	users      map[int64]models.User
}

func (s *state) next() int64 {
	s.seq++
	return s.seq
}

func (s *state) clone() state {
	out := state{
		seq:        s.seq,
		trips:      make(map[int64]models.Trip, len(s.trips)),
		bookings:   make(map[int64]models.Booking, len(s.bookings)),
		holds:      make(map[holdKey]int64, len(s.holds)),
		holdOrder:  append([]holdKey(nil), s.holdOrder...),
		passengers: append([]models.Passenger(nil), s.passengers...),
		users:      make(map[int64]models.User, len(s.users)),
	}
	for k, v := range s.trips {
		out.trips[k] = v
	}
	for k, v := range s.bookings {
		out.bookings[k] = v
	}
	for k, v := range s.holds {
		out.holds[k] = v
	}
	for k, v := range s.users {
		out.users[k] = v
	}
	return out
}

type txKey struct{ store *Store }

// Store holds every table. Its repositories are the exported fields.
type Store struct {
	mu    sync.Mutex
	state state
	now   func() time.Time

	Trips      TripRepo
	Seats      SeatRepo
	Bookings   BookingRepo
	Passengers PassengerRepo
	Users      UserRepo
}

func New() *Store {
	s := &Store{
		state: state{
			trips:    map[int64]models.Trip{},
			bookings: map[int64]models.Booking{},
			holds:    map[holdKey]int64{},
			users:    map[int64]models.User{},
		},
		now: time.Now,
	}
	s.Trips = TripRepo{s}
	s.Seats = SeatRepo{s}
	s.Bookings = BookingRepo{s}
	s.Passengers = PassengerRepo{s}
	s.Users = UserRepo{s}
	return s
}

// WithinTransaction runs fn with the store locked; an error restores the
// state as it was before fn.
func (s *Store) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{s}) != nil {
		return fn(ctx)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	saved := s.state.clone()
	if err := fn(context.WithValue(ctx, txKey{s}, true)); err != nil {
		s.state = saved
		return err
	}
	return nil
}

func (s *Store) with(ctx context.Context, fn func(st *state) error) error {
	if ctx.Value(txKey{s}) == nil {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	return fn(&s.state)
}

type TripRepo struct{ s *Store }

func (r TripRepo) Search(ctx context.Context, f models.TripFilter) ([]models.Trip, error) {
	out := []models.Trip{}
	err := r.s.with(ctx, func(st *state) error {
		for _, t := range st.trips {
			if tripMatches(t, f) {
				out = append(out, t)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].DepartAt.Equal(out[j].DepartAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].DepartAt.Before(out[j].DepartAt)
	})
	return out, err
}

func tripMatches(t models.Trip, f models.TripFilter) bool {
	contains := func(field, q string) bool {
		q = strings.TrimSpace(q)
		return q == "" || strings.Contains(strings.ToLower(field), strings.ToLower(q))
	}
	if !contains(t.FromCity, f.From) || !contains(t.ToCity, f.To) || !contains(t.Operator, f.Operator) {
		return false
	}
	if d := strings.TrimSpace(f.Date); d != "" && t.DepartDate() != d {
		return false
	}
	if f.FareMin != nil && t.Fare.LessThan(*f.FareMin) {
		return false
	}
	if f.FareMax != nil && t.Fare.GreaterThan(*f.FareMax) {
		return false
	}
	if f.Type != "" && !t.Tags.Has(f.Type) {
		return false
	}
	return true
}

func (r TripRepo) GetByID(ctx context.Context, id int64) (models.Trip, error) {
	var out models.Trip
	err := r.s.with(ctx, func(st *state) error {
		t, ok := st.trips[id]
		if !ok {
			return intdb.ErrNotFound
		}
		out = t
		return nil
	})
	return out, err
}

func (r TripRepo) Create(ctx context.Context, t models.Trip) (int64, error) {
	var id int64
	err := r.s.with(ctx, func(st *state) error {
		id = st.next()
		t.ID = id
		st.trips[id] = t
		return nil
	})
	return id, err
}

func (r TripRepo) Update(ctx context.Context, t models.Trip) error {
	return r.s.with(ctx, func(st *state) error {
		if _, ok := st.trips[t.ID]; !ok {
			return intdb.ErrNotFound
		}
		st.trips[t.ID] = t
		return nil
	})
}

func (r TripRepo) Delete(ctx context.Context, id int64) error {
	return r.s.with(ctx, func(st *state) error {
		if _, ok := st.trips[id]; !ok {
			return intdb.ErrNotFound
		}
		for _, b := range st.bookings {
			if b.TripID == id {
				return fmt.Errorf("trip %d has bookings: %w", id, intdb.ErrReferenced)
			}
		}
		delete(st.trips, id)
		return nil
	})
}

func (r TripRepo) Locations(ctx context.Context, prefix string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 20
	}
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	seen := map[string]struct{}{}
	out := []string{}
	err := r.s.with(ctx, func(st *state) error {
		for _, t := range st.trips {
			for _, c := range []string{t.FromCity, t.ToCity} {
				if _, ok := seen[c]; ok || !strings.HasPrefix(strings.ToLower(c), prefix) {
					continue
				}
				seen[c] = struct{}{}
				out = append(out, c)
			}
		}
		return nil
	})
	sort.Strings(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, err
}

func (r TripRepo) Count(ctx context.Context) (int, error) {
	n := 0
	err := r.s.with(ctx, func(st *state) error {
		n = len(st.trips)
		return nil
	})
	return n, err
}

func (r TripRepo) ListUntagged(ctx context.Context) ([]models.Trip, error) {
	out := []models.Trip{}
	err := r.s.with(ctx, func(st *state) error {
		for _, t := range st.trips {
			if len(t.Tags) == 0 {
				out = append(out, t)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, err
}

type SeatRepo struct{ s *Store }

func (r SeatRepo) Booked(ctx context.Context, tripID int64, date string) ([]string, error) {
	out := []string{}
	err := r.s.with(ctx, func(st *state) error {
		for k := range st.holds {
			if k.trip == tripID && k.date == date {
				out = append(out, k.seat)
			}
		}
		return nil
	})
	utils.SortSeatLabels(out)
	return out, err
}

func (r SeatRepo) Conflicts(ctx context.Context, tripID int64, date string, labels []string) ([]string, error) {
	out := []string{}
	err := r.s.with(ctx, func(st *state) error {
		for _, l := range labels {
			if _, ok := st.holds[holdKey{tripID, date, l}]; ok {
				out = append(out, l)
			}
		}
		return nil
	})
	return out, err
}

// Insert enforces the (trip, date, seat) uniqueness that the SQL schema
// enforces with a unique key.
func (r SeatRepo) Insert(ctx context.Context, holds []models.SeatHold) error {
	return r.s.with(ctx, func(st *state) error {
		for _, h := range holds {
			k := holdKey{h.TripID, h.JourneyDate, h.SeatNo}
			if _, ok := st.holds[k]; ok {
				return fmt.Errorf("seat %s: %w", h.SeatNo, intdb.ErrDuplicateKey)
			}
			st.holds[k] = h.BookingID
			st.holdOrder = append(st.holdOrder, k)
		}
		return nil
	})
}

func (r SeatRepo) DeleteByBooking(ctx context.Context, bookingID int64) (int64, error) {
	var n int64
	err := r.s.with(ctx, func(st *state) error {
		kept := st.holdOrder[:0]
		for _, k := range st.holdOrder {
			if st.holds[k] == bookingID {
				delete(st.holds, k)
				n++
				continue
			}
			kept = append(kept, k)
		}
		st.holdOrder = kept
		return nil
	})
	return n, err
}

func (r SeatRepo) ListByBooking(ctx context.Context, bookingID int64) ([]string, error) {
	out := []string{}
	err := r.s.with(ctx, func(st *state) error {
		for _, k := range st.holdOrder {
			if st.holds[k] == bookingID {
				out = append(out, k.seat)
			}
		}
		return nil
	})
	return out, err
}

type BookingRepo struct{ s *Store }

func (r BookingRepo) Create(ctx context.Context, b models.Booking) (int64, error) {
	var id int64
	err := r.s.with(ctx, func(st *state) error {
		if _, ok := st.trips[b.TripID]; !ok {
			return fmt.Errorf("bus %d: %w", b.TripID, intdb.ErrReferenced)
		}
		if b.Status == "" {
			b.Status = models.StatusConfirmed
		}
		if b.PaymentStatus == "" {
			b.PaymentStatus = models.PaymentUnpaid
		}
		if b.BookedAt.IsZero() {
			b.BookedAt = r.s.now()
		}
		id = st.next()
		b.ID = id
		st.bookings[id] = b
		return nil
	})
	return id, err
}

func (r BookingRepo) update(ctx context.Context, id int64, fn func(b *models.Booking)) error {
	return r.s.with(ctx, func(st *state) error {
		b, ok := st.bookings[id]
		if !ok {
			return intdb.ErrNotFound
		}
		fn(&b)
		st.bookings[id] = b
		return nil
	})
}

func (r BookingRepo) AttachCoupon(ctx context.Context, id int64, code string, discount decimal.Decimal) error {
	return r.update(ctx, id, func(b *models.Booking) {
		b.CouponCode = code
		b.DiscountAmount = discount
	})
}

func (r BookingRepo) UpdateStatus(ctx context.Context, id int64, status models.BookingStatus) error {
	return r.update(ctx, id, func(b *models.Booking) { b.Status = status })
}

func (r BookingRepo) UpdatePayment(ctx context.Context, id int64, status models.PaymentStatus, ref string) error {
	return r.update(ctx, id, func(b *models.Booking) {
		b.PaymentStatus = status
		b.PaymentRef = ref
	})
}

func (r BookingRepo) Snapshot(ctx context.Context, id int64) (models.BookingView, error) {
	var out models.BookingView
	err := r.s.with(ctx, func(st *state) error {
		b, ok := st.bookings[id]
		if !ok {
			return intdb.ErrNotFound
		}
		out = st.view(b)
		return nil
	})
	return out, err
}

func (st *state) view(b models.Booking) models.BookingView {
	t := st.trips[b.TripID]
	v := models.BookingView{
		Booking:  b,
		BusName:  t.Operator,
		FromCity: t.FromCity,
		ToCity:   t.ToCity,
		DepartAt: t.DepartAt,
		ArriveAt: t.ArriveAt,
		LiveFare: t.Fare,
	}
	if b.UserID != nil {
		v.OwnerEmail = st.users[*b.UserID].Email
	}
	return v
}

func (r BookingRepo) ClaimByPhone(ctx context.Context, userID int64, phone string) (int64, error) {
	phone = strings.TrimSpace(phone)
	if userID <= 0 || phone == "" {
		return 0, nil
	}
	var n int64
	err := r.s.with(ctx, func(st *state) error {
		for id, b := range st.bookings {
			if b.UserID == nil && b.PassengerPhone == phone {
				uid := userID
				b.UserID = &uid
				st.bookings[id] = b
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r BookingRepo) ListByOwner(ctx context.Context, userID int64, phone string) ([]models.BookingView, error) {
	phone = strings.TrimSpace(phone)
	return r.list(ctx, func(v models.BookingView) bool {
		return (v.UserID != nil && *v.UserID == userID) || (phone != "" && v.PassengerPhone == phone)
	}, 0)
}

func (r BookingRepo) List(ctx context.Context, f models.BookingFilter) ([]models.BookingView, error) {
	return r.list(ctx, func(v models.BookingView) bool { return bookingMatches(v, f) }, f.Limit)
}

func (r BookingRepo) list(ctx context.Context, keep func(models.BookingView) bool, limit int) ([]models.BookingView, error) {
	out := []models.BookingView{}
	err := r.s.with(ctx, func(st *state) error {
		for _, b := range st.bookings {
			if v := st.view(b); keep(v) {
				out = append(out, v)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, err
}

func bookingMatches(v models.BookingView, f models.BookingFilter) bool {
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		hit := false
		for _, field := range []string{v.PassengerName, v.PassengerPhone, v.BusName, v.FromCity, v.ToCity} {
			if strings.Contains(strings.ToLower(field), q) {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}
	if f.Status != "" && v.Status != f.Status {
		return false
	}
	if f.Payment != "" && v.PaymentStatus != f.Payment {
		return false
	}
	day := v.BookedAt.Format("2006-01-02")
	if s := strings.TrimSpace(f.From); s != "" && day < s {
		return false
	}
	if s := strings.TrimSpace(f.To); s != "" && day > s {
		return false
	}
	return true
}

func (r BookingRepo) Stats(ctx context.Context, f models.BookingFilter) (models.BookingStats, error) {
	var out models.BookingStats
	views, err := r.List(ctx, models.BookingFilter{From: f.From, To: f.To})
	if err != nil {
		return out, err
	}
	for _, v := range views {
		out.Total++
		switch v.Status {
		case models.StatusConfirmed:
			out.Confirmed++
		case models.StatusCancelled:
			out.Cancelled++
		}
	}
	return out, nil
}

type PassengerRepo struct{ s *Store }

func (r PassengerRepo) Insert(ctx context.Context, passengers []models.Passenger) error {
	return r.s.with(ctx, func(st *state) error {
		for _, p := range passengers {
			p.ID = st.next()
			st.passengers = append(st.passengers, p)
		}
		return nil
	})
}

func (r PassengerRepo) ListByBooking(ctx context.Context, bookingID int64) ([]models.Passenger, error) {
	out := []models.Passenger{}
	err := r.s.with(ctx, func(st *state) error {
		for _, p := range st.passengers {
			if p.BookingID == bookingID {
				out = append(out, p)
			}
		}
		return nil
	})
	return out, err
}

type UserRepo struct{ s *Store }

func (r UserRepo) Create(ctx context.Context, u models.User) (int64, error) {
	var id int64
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	err := r.s.with(ctx, func(st *state) error {
		for _, existing := range st.users {
			if existing.Email == u.Email {
				return intdb.ErrDuplicateKey
			}
		}
		id = st.next()
		u.ID = id
		if u.CreatedAt.IsZero() {
			u.CreatedAt = r.s.now()
		}
		st.users[id] = u
		return nil
	})
	return id, err
}

func (r UserRepo) GetByID(ctx context.Context, id int64) (models.User, error) {
	var out models.User
	err := r.s.with(ctx, func(st *state) error {
		u, ok := st.users[id]
		if !ok {
			return intdb.ErrNotFound
		}
		out = u
		return nil
	})
	return out, err
}

func (r UserRepo) GetByEmail(ctx context.Context, email string) (models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var out models.User
	err := r.s.with(ctx, func(st *state) error {
		for _, u := range st.users {
			if u.Email == email {
				out = u
				return nil
			}
		}
		return intdb.ErrNotFound
	})
	return out, err
}

func (r UserRepo) updateUser(ctx context.Context, id int64, fn func(u *models.User)) error {
	return r.s.with(ctx, func(st *state) error {
		u, ok := st.users[id]
		if !ok {
			return intdb.ErrNotFound
		}
		fn(&u)
		st.users[id] = u
		return nil
	})
}

func (r UserRepo) UpdateProfile(ctx context.Context, id int64, name, phone string) error {
	return r.updateUser(ctx, id, func(u *models.User) {
		u.Name = name
		u.Phone = phone
	})
}

func (r UserRepo) UpdatePassword(ctx context.Context, id int64, hash string) error {
	return r.updateUser(ctx, id, func(u *models.User) { u.PasswordHash = hash })
}

func (r UserRepo) SetRole(ctx context.Context, id int64, role string) error {
	return r.updateUser(ctx, id, func(u *models.User) { u.Role = role })
}

func (r UserRepo) Count(ctx context.Context) (int, error) {
	n := 0
	err := r.s.with(ctx, func(st *state) error {
		n = len(st.users)
		return nil
	})
	return n, err
}
