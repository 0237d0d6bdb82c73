package dashboard

import (
	"context"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"roombook/api"
	"roombook/booking"
)

type AdminSource interface {
	ListAdminRooms(ctx context.Context) ([]api.Room, error)
	ListUsers(ctx context.Context) ([]api.User, error)
	ListAdminBookings(ctx context.Context) ([]api.Booking, error)
	ListViolations(ctx context.Context) ([]api.Violation, error)
}

type Admin struct {
	Rooms      Result[api.Room]      `json:"rooms"`
	Users      Result[api.User]      `json:"users"`
	Bookings   Result[api.Booking]   `json:"bookings"`
	Violations Result[api.Violation] `json:"violations"`

	Summary          booking.Summary `json:"summary"`
	OpenViolations   int             `json:"open_violations"`
	RoomsInService   int             `json:"rooms_in_service"`
	PendingApprovals int             `json:"pending_approvals"`
	Notices          []string        `json:"notices"`
}

// LoadAdmin fetches the four admin lists together and returns once all of
// them have either loaded or fallen back.
func LoadAdmin(ctx context.Context, l *Loader, src AdminSource) Admin {
	var out Admin
	var g errgroup.Group
	g.Go(func() error {
		out.Rooms = Fetch(ctx, l, "rooms", src.ListAdminRooms)
		return nil
	})
	g.Go(func() error {
		out.Users = Fetch(ctx, l, "users", src.ListUsers)
		return nil
	})
	g.Go(func() error {
		out.Bookings = Fetch(ctx, l, "bookings", src.ListAdminBookings)
		return nil
	})
	g.Go(func() error {
		out.Violations = Fetch(ctx, l, "violations", src.ListViolations)
		return nil
	})
	_ = g.Wait()

	now := l.now()
	out.Summary = booking.Summarize(out.Bookings.Items, now)
	out.PendingApprovals = out.Summary.ByCategory[booking.Pending]
	for _, v := range out.Violations.Items {
		if !strings.EqualFold(strings.TrimSpace(v.Status), booking.ViolationResolved) {
			out.OpenViolations++
		}
	}
	for _, r := range out.Rooms.Items {
		if booking.Bookable(r) {
			out.RoomsInService++
		}
	}
	out.Notices = Notices(out.Rooms.Notice, out.Users.Notice, out.Bookings.Notice, out.Violations.Notice)
	return out
}

type GuardSource interface {
	ListSecurityBookings(ctx context.Context) ([]api.Booking, error)
}

type Guard struct {
	Bookings Result[api.Booking]                `json:"bookings"`
	Groups   map[booking.Category][]api.Booking `json:"groups"`
	Overdue  []booking.OverdueBooking           `json:"overdue"`
	Notices  []string                           `json:"notices"`
}

func LoadGuard(ctx context.Context, l *Loader, src GuardSource) Guard {
	res := Fetch(ctx, l, "security_bookings", src.ListSecurityBookings)
	now := l.now()
	return Guard{
		Bookings: res,
		Groups:   booking.Group(res.Items, now),
		Overdue:  booking.OverdueList(res.Items, now),
		Notices:  Notices(res.Notice),
	}
}

type StudentSource interface {
	ListMyBookings(ctx context.Context) ([]api.Booking, error)
	ListRooms(ctx context.Context) ([]api.Room, error)
}

type Student struct {
	Bookings Result[api.Booking]                `json:"bookings"`
	Rooms    Result[api.Room]                   `json:"rooms"`
	Groups   map[booking.Category][]api.Booking `json:"groups"`
	Summary  booking.Summary                    `json:"summary"`
	Notices  []string                           `json:"notices"`
}

func LoadStudent(ctx context.Context, l *Loader, src StudentSource) Student {
	var out Student
	var g errgroup.Group
	g.Go(func() error {
		out.Bookings = Fetch(ctx, l, "my_bookings", src.ListMyBookings)
		return nil
	})
	g.Go(func() error {
		out.Rooms = Fetch(ctx, l, "rooms", src.ListRooms)
		return nil
	})
	_ = g.Wait()

	now := l.now()
	out.Groups = booking.Group(out.Bookings.Items, now)
	out.Summary = booking.Summarize(out.Bookings.Items, now)
	out.Notices = Notices(out.Bookings.Notice, out.Rooms.Notice)
	return out
}

// Age is how long ago a result was fetched, zero for never.
func Age[T any](r Result[T], now time.Time) time.Duration {
	if r.FetchedAt.IsZero() {
		return 0
	}
	return now.Sub(r.FetchedAt)
}
