package cmd

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"roombook/api"
	"roombook/booking"
	"roombook/dashboard"
	"roombook/listing"

	"github.com/spf13/cobra"
)

// bookingPipeline searches room, purpose and people; the category attribute
// is the classifier's answer at now.
func bookingPipeline(now time.Time) listing.Pipeline[api.Booking] {
	return listing.Pipeline[api.Booking]{
		SearchFields: []listing.Accessor[api.Booking]{
			func(b api.Booking) string { return b.RoomName },
			func(b api.Booking) string { return b.Purpose },
			func(b api.Booking) string { return b.FullName },
			func(b api.Booking) string { return b.Username },
		},
		Attributes: map[string]listing.Accessor[api.Booking]{
			"category":      func(b api.Booking) string { return string(booking.Classify(b, now)) },
			"status":        func(b api.Booking) string { return string(booking.NormalizeStatus(b.Status)) },
			"room_category": func(b api.Booking) string { return b.RoomCategory },
		},
	}
}

func bookingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bookings",
		Short: "Manage your bookings",
	}

	cmd.AddCommand(bookingsListCmd())
	cmd.AddCommand(bookingsCreateCmd())
	cmd.AddCommand(bookingsCancelCmd())
	cmd.AddCommand(bookingsStatsCmd())
	return cmd
}

func bookingsListCmd() *cobra.Command {
	var list listFlags
	var tab string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List your bookings",
		RunE: func(cmd *cobra.Command, args []string) error {
			if tab != listing.Any {
				if _, ok := booking.ParseCategory(tab); !ok {
					return fmt.Errorf("invalid --tab %q (expected active, upcoming, past, pending, cancelled or all)", tab)
				}
			}

			loader, closeCache := newLoader(cacheScope("student"))
			defer closeCache()
			res := dashboard.Fetch(cmd.Context(), loader, "my_bookings", client.ListMyBookings)
			if !res.OK() && !res.Cached {
				return res.Err
			}
			printNotices(dashboard.Notices(res.Notice))

			now := time.Now()
			page := bookingPipeline(now).Run(res.Items, list.state(map[string]string{"category": tab}))
			if outputJSON {
				return writeJSON(page)
			}
			if len(page.Items) == 0 {
				fmt.Println("No bookings found.")
				return nil
			}
			return printBookings(page, now, false)
		},
	}

	list.bind(cmd)
	cmd.Flags().StringVar(&tab, "tab", listing.Any, "active, upcoming, past, pending, cancelled or all")
	return cmd
}

func printBookings(page listing.Page[api.Booking], now time.Time, withUser bool) error {
	writer := tabwriter.NewWriter(os.Stdout, 2, 2, 2, ' ', 0)
	if !outputCompact {
		if withUser {
			fmt.Fprintln(writer, "ID\tWHEN\tROOM\tUSER\tPURPOSE\tSTATUS\tTAB")
		} else {
			fmt.Fprintln(writer, "ID\tWHEN\tROOM\tPURPOSE\tSTATUS\tTAB\tCODE")
		}
	}
	for _, b := range page.Items {
		category := booking.Classify(b, now)
		if withUser {
			fmt.Fprintf(writer, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
				b.ID, formatWindow(b.Start, b.End), dash(b.RoomName), dash(firstNonBlank(b.FullName, b.Username)),
				dash(b.Purpose), dash(b.Status), category)
			continue
		}
		code := "-"
		if category == booking.Active || category == booking.Upcoming {
			code = dash(b.SecretCode)
		}
		fmt.Fprintf(writer, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			b.ID, formatWindow(b.Start, b.End), dash(b.RoomName), dash(b.Purpose), dash(b.Status), category, code)
	}
	if err := writer.Flush(); err != nil {
		return err
	}
	printPageFooter(page.Page, page.TotalPages, page.Total)
	return nil
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func bookingsCreateCmd() *cobra.Command {
	var roomInput string
	var date string
	var from string
	var to string
	var purpose string
	var attendees int

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Request a room booking",
		RunE: func(cmd *cobra.Command, args []string) error {
			if roomInput == "" || from == "" || to == "" {
				return fmt.Errorf("--room, --from, and --to are required")
			}
			start, end, err := parseSlot(date, from, to, time.Now())
			if err != nil {
				return err
			}

			room, err := resolveRoom(cmd.Context(), roomInput)
			if err != nil {
				return err
			}
			if !booking.Bookable(room) {
				return fmt.Errorf("%s is %s and cannot be booked", booking.DisplayName(room), dash(room.Status))
			}
			if room.Capacity > 0 && attendees > room.Capacity {
				return fmt.Errorf("%s holds %d people, requested %d", booking.DisplayName(room), room.Capacity, attendees)
			}

			created, err := client.CreateBooking(cmd.Context(), api.CreateBookingRequest{
				RoomID:    room.ID,
				Start:     start,
				End:       end,
				Purpose:   purpose,
				Attendees: attendees,
			})
			if err != nil {
				return err
			}

			if outputJSON {
				return writeJSON(created)
			}
			fmt.Printf("Requested %s %s (booking #%d, %s).\n",
				booking.DisplayName(room), formatWindow(created.Start, created.End), created.ID, dash(created.Status))
			return nil
		},
	}

	cmd.Flags().StringVar(&roomInput, "room", "", "Room id, alias or name")
	cmd.Flags().StringVar(&date, "date", "today", "Date (today, tomorrow, YYYY-MM-DD)")
	cmd.Flags().StringVar(&from, "from", "", "Start time (HH:MM)")
	cmd.Flags().StringVar(&to, "to", "", "End time (HH:MM)")
	cmd.Flags().StringVar(&purpose, "purpose", "", "Purpose of the booking")
	cmd.Flags().IntVar(&attendees, "attendees", 1, "Number of attendees")
	return cmd
}

func bookingsCancelCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cancel <id>",
		Short: "Cancel a pending or approved booking",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			bookings, err := client.ListMyBookings(cmd.Context())
			if err != nil {
				return err
			}
			target, ok := findBooking(bookings, id)
			if !ok {
				return fmt.Errorf("booking #%d not found", id)
			}
			status := booking.NormalizeStatus(target.Status)
			if !booking.CanTransition(status, booking.StatusCancelled) {
				return fmt.Errorf("booking #%d is %s: %w", id, status, booking.ErrTransitionNotAllowed)
			}

			if err := client.CancelBooking(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Printf("Cancelled booking #%d.\n", id)
			return nil
		},
	}

	return cmd
}

func findBooking(bookings []api.Booking, id int64) (api.Booking, bool) {
	for _, b := range bookings {
		if b.ID == id {
			return b, true
		}
	}
	return api.Booking{}, false
}

func bookingsStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show booking stats",
		RunE: func(cmd *cobra.Command, args []string) error {
			loader, closeCache := newLoader(cacheScope("student"))
			defer closeCache()
			view := dashboard.LoadStudent(cmd.Context(), loader, client)
			if !view.Bookings.OK() && !view.Bookings.Cached {
				return view.Bookings.Err
			}
			printNotices(view.Notices)

			if outputJSON {
				return writeJSON(view.Summary)
			}
			if view.Summary.TotalBookings == 0 {
				fmt.Println("No bookings found.")
				return nil
			}
			printSummary(view.Summary)
			return nil
		},
	}

	return cmd
}

func printSummary(stats booking.Summary) {
	fmt.Printf("Total bookings: %d\n", stats.TotalBookings)
	for _, c := range booking.Categories {
		fmt.Printf("  %-10s %d\n", c, stats.ByCategory[c])
	}
	if stats.Overdue > 0 {
		fmt.Printf("Overdue keys: %d\n", stats.Overdue)
	}
	if stats.BusiestRoom != "" {
		fmt.Printf("Busiest room: %s (%d bookings)\n", stats.BusiestRoom, stats.BusiestRoomCount)
	}
	fmt.Printf("Usual time: %s\n", dash(stats.UsualTime))
	fmt.Printf("Last used: %s\n", dash(stats.LastUsed))
}
