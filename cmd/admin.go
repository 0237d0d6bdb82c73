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

var userPipeline = listing.Pipeline[api.User]{
	SearchFields: []listing.Accessor[api.User]{
		func(u api.User) string { return u.Username },
		func(u api.User) string { return u.FullName },
		func(u api.User) string { return u.Email },
		func(u api.User) string { return u.Group },
		func(u api.User) string { return u.Department },
	},
	Attributes: map[string]listing.Accessor[api.User]{
		"role":   func(u api.User) string { return u.Role },
		"status": func(u api.User) string { return u.Status },
	},
}

var violationPipeline = listing.Pipeline[api.Violation]{
	SearchFields: []listing.Accessor[api.Violation]{
		func(v api.Violation) string { return v.Username },
		func(v api.Violation) string { return v.RoomName },
		func(v api.Violation) string { return v.Description },
	},
	Attributes: map[string]listing.Accessor[api.Violation]{
		"status": func(v api.Violation) string { return v.Status },
		"type":   func(v api.Violation) string { return v.Type },
	},
}

func adminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Administer bookings, users, rooms and violations",
	}

	cmd.AddCommand(adminBookingsCmd())
	cmd.AddCommand(adminUsersCmd())
	cmd.AddCommand(adminRoomsCmd())
	cmd.AddCommand(adminViolationsCmd())
	cmd.AddCommand(adminDashboardCmd())
	cmd.AddCommand(adminSyncCmd())
	return cmd
}

func adminBookingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bookings",
		Short: "Review booking requests",
	}

	cmd.AddCommand(adminBookingsListCmd())
	cmd.AddCommand(adminBookingDecisionCmd(booking.StatusApproved))
	cmd.AddCommand(adminBookingDecisionCmd(booking.StatusRejected))
	return cmd
}

func adminBookingsListCmd() *cobra.Command {
	var list listFlags
	var tab string
	var status string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all bookings",
		RunE: func(cmd *cobra.Command, args []string) error {
			if tab != listing.Any {
				if _, ok := booking.ParseCategory(tab); !ok {
					return fmt.Errorf("invalid --tab %q", tab)
				}
			}

			loader, closeCache := newLoader(cacheScope("admin"))
			defer closeCache()
			res := dashboard.Fetch(cmd.Context(), loader, "bookings", client.ListAdminBookings)
			if !res.OK() && !res.Cached {
				return res.Err
			}
			printNotices(dashboard.Notices(res.Notice))

			now := time.Now()
			page := bookingPipeline(now).Run(res.Items, list.state(map[string]string{
				"category": tab,
				"status":   status,
			}))
			if outputJSON {
				return writeJSON(page)
			}
			if len(page.Items) == 0 {
				fmt.Println("No bookings found.")
				return nil
			}
			return printBookings(page, now, true)
		},
	}

	list.bind(cmd)
	cmd.Flags().StringVar(&tab, "tab", listing.Any, "active, upcoming, past, pending, cancelled or all")
	cmd.Flags().StringVar(&status, "status", listing.Any, "Filter by raw status")
	return cmd
}

func adminBookingDecisionCmd(decision booking.Status) *cobra.Command {
	var reason string

	use := "approve <id>"
	short := "Approve a pending booking"
	if decision == booking.StatusRejected {
		use = "reject <id>"
		short = "Reject a pending booking"
	}

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			bookings, err := client.ListAdminBookings(cmd.Context())
			if err != nil {
				return err
			}
			target, ok := findBooking(bookings, id)
			if !ok {
				return fmt.Errorf("booking #%d not found", id)
			}
			status := booking.NormalizeStatus(target.Status)
			if !booking.CanTransition(status, decision) {
				return fmt.Errorf("booking #%d is %s: %w", id, status, booking.ErrTransitionNotAllowed)
			}

			if decision == booking.StatusApproved {
				err = client.ApproveBooking(cmd.Context(), id)
			} else {
				err = client.RejectBooking(cmd.Context(), id, reason)
			}
			if err != nil {
				return err
			}
			fmt.Printf("Booking #%d %s.\n", id, decision)
			return nil
		},
	}

	if decision == booking.StatusRejected {
		cmd.Flags().StringVar(&reason, "reason", "", "Reason shown to the student")
	}
	return cmd
}

func adminUsersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage user accounts",
	}

	cmd.AddCommand(adminUsersListCmd())
	cmd.AddCommand(adminUsersSetStatusCmd())
	return cmd
}

func adminUsersListCmd() *cobra.Command {
	var list listFlags
	var role string
	var status string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List users",
		RunE: func(cmd *cobra.Command, args []string) error {
			loader, closeCache := newLoader(cacheScope("admin"))
			defer closeCache()
			res := dashboard.Fetch(cmd.Context(), loader, "users", client.ListUsers)
			if !res.OK() && !res.Cached {
				return res.Err
			}
			printNotices(dashboard.Notices(res.Notice))

			page := userPipeline.Run(res.Items, list.state(map[string]string{"role": role, "status": status}))
			if outputJSON {
				return writeJSON(page)
			}
			if len(page.Items) == 0 {
				fmt.Println("No users found.")
				return nil
			}

			writer := tabwriter.NewWriter(os.Stdout, 2, 2, 2, ' ', 0)
			if !outputCompact {
				fmt.Fprintln(writer, "ID\tUSERNAME\tNAME\tROLE\tSTATUS\tDETAILS")
			}
			for _, u := range page.Items {
				fmt.Fprintf(writer, "%d\t%s\t%s\t%s\t%s\t%s\n",
					u.ID, u.Username, dash(u.FullName), dash(u.Role), dash(u.Status), dash(userDetails(u)))
			}
			if err := writer.Flush(); err != nil {
				return err
			}
			printPageFooter(page.Page, page.TotalPages, page.Total)
			return nil
		},
	}

	list.bind(cmd)
	cmd.Flags().StringVar(&role, "role", listing.Any, "Filter by role (student, staff, admin)")
	cmd.Flags().StringVar(&status, "status", listing.Any, "Filter by status")
	return cmd
}

// userDetails shows the role-specific fields that are set.
func userDetails(u api.User) string {
	parts := []string{}
	if u.Group != "" {
		parts = append(parts, "group "+u.Group)
	}
	if u.Course > 0 {
		parts = append(parts, fmt.Sprintf("course %d", u.Course))
	}
	if u.Faculty != "" {
		parts = append(parts, u.Faculty)
	}
	if u.Department != "" {
		parts = append(parts, u.Department)
	}
	if u.IsSupervisor {
		parts = append(parts, "supervisor")
	}
	return strings.Join(parts, ", ")
}

func adminUsersSetStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set-status <id> <active|inactive|blocked>",
		Short: "Change a user's account status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			status := strings.ToLower(strings.TrimSpace(args[1]))
			if err := client.SetUserStatus(cmd.Context(), id, status); err != nil {
				return err
			}
			fmt.Printf("User #%d is now %s.\n", id, status)
			return nil
		},
	}

	return cmd
}

func adminRoomsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rooms",
		Short: "Manage rooms",
	}

	cmd.AddCommand(adminRoomsListCmd())
	cmd.AddCommand(adminRoomsCreateCmd())
	cmd.AddCommand(adminRoomsUpdateCmd())
	cmd.AddCommand(adminRoomsDeleteCmd())
	return cmd
}

func adminRoomsListCmd() *cobra.Command {
	var list listFlags
	var status string
	var category string
	var building string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all rooms",
		RunE: func(cmd *cobra.Command, args []string) error {
			loader, closeCache := newLoader(cacheScope("admin"))
			defer closeCache()
			res := dashboard.Fetch(cmd.Context(), loader, "rooms", client.ListAdminRooms)
			if !res.OK() && !res.Cached {
				return res.Err
			}
			printNotices(dashboard.Notices(res.Notice))

			page := roomPipeline.Run(res.Items, list.state(map[string]string{
				"status":   status,
				"category": category,
				"building": building,
			}))
			if outputJSON {
				return writeJSON(page)
			}
			if len(page.Items) == 0 {
				fmt.Println("No rooms found.")
				return nil
			}
			return printRooms(page)
		},
	}

	list.bind(cmd)
	cmd.Flags().StringVar(&status, "status", listing.Any, "Filter by status")
	cmd.Flags().StringVar(&category, "category", listing.Any, "Filter by category")
	cmd.Flags().StringVar(&building, "building", listing.Any, "Filter by building")
	return cmd
}

type roomFlags struct {
	name     string
	building string
	category string
	capacity int
	status   string
	features []string
}

func (f *roomFlags) bind(cmd *cobra.Command, defaultStatus string) {
	cmd.Flags().StringVar(&f.name, "name", "", "Room name")
	cmd.Flags().StringVar(&f.building, "building", "", "Building")
	cmd.Flags().StringVar(&f.category, "category", "", "Category (lecture, lab, meeting, ...)")
	cmd.Flags().IntVar(&f.capacity, "capacity", 0, "Seats")
	cmd.Flags().StringVar(&f.status, "status", defaultStatus, "available, unavailable or maintenance")
	cmd.Flags().StringSliceVar(&f.features, "feature", nil, "Feature (repeatable)")
}

// input overlays the flags the user actually set on base.
func (f *roomFlags) input(cmd *cobra.Command, base api.RoomInput) api.RoomInput {
	if cmd.Flags().Changed("name") {
		base.Name = f.name
	}
	if cmd.Flags().Changed("building") {
		base.Building = f.building
	}
	if cmd.Flags().Changed("category") {
		base.Category = f.category
	}
	if cmd.Flags().Changed("capacity") {
		base.Capacity = f.capacity
	}
	if cmd.Flags().Changed("status") || base.Status == "" {
		base.Status = strings.ToLower(f.status)
	}
	if cmd.Flags().Changed("feature") {
		base.Features = f.features
	}
	return base
}

func adminRoomsCreateCmd() *cobra.Command {
	var flags roomFlags

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Add a room",
		RunE: func(cmd *cobra.Command, args []string) error {
			room, err := client.CreateRoom(cmd.Context(), flags.input(cmd, api.RoomInput{}))
			if err != nil {
				return err
			}
			if outputJSON {
				return writeJSON(room)
			}
			fmt.Printf("Created room #%d %s.\n", room.ID, booking.DisplayName(room))
			return nil
		},
	}

	flags.bind(cmd, booking.RoomAvailable)
	return cmd
}

func adminRoomsUpdateCmd() *cobra.Command {
	var flags roomFlags

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change a room; unset flags keep their current values",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			rooms, err := client.ListAdminRooms(cmd.Context())
			if err != nil {
				return err
			}
			var current *api.Room
			for i := range rooms {
				if rooms[i].ID == id {
					current = &rooms[i]
					break
				}
			}
			if current == nil {
				return fmt.Errorf("room #%d not found", id)
			}

			input := flags.input(cmd, api.RoomInput{
				Name:     current.Name,
				Building: current.Building,
				Category: current.Category,
				Capacity: current.Capacity,
				Status:   strings.ToLower(current.Status),
				Features: current.Features,
			})
			room, err := client.UpdateRoom(cmd.Context(), id, input)
			if err != nil {
				return err
			}
			if outputJSON {
				return writeJSON(room)
			}
			fmt.Printf("Updated room #%d %s.\n", id, booking.DisplayName(room))
			return nil
		},
	}

	flags.bind(cmd, booking.RoomAvailable)
	return cmd
}

func adminRoomsDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a room",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := client.DeleteRoom(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Printf("Deleted room #%d.\n", id)
			return nil
		},
	}

	return cmd
}

func adminViolationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "violations",
		Short: "Track policy violations",
	}

	cmd.AddCommand(adminViolationsListCmd())
	cmd.AddCommand(adminViolationsCreateCmd())
	cmd.AddCommand(adminViolationsResolveCmd())
	return cmd
}

type violationRow struct {
	api.Violation
	AgeDays int `json:"age_days"`
}

func adminViolationsListCmd() *cobra.Command {
	var list listFlags
	var status string
	var kind string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List violations",
		RunE: func(cmd *cobra.Command, args []string) error {
			loader, closeCache := newLoader(cacheScope("admin"))
			defer closeCache()
			res := dashboard.Fetch(cmd.Context(), loader, "violations", client.ListViolations)
			if !res.OK() && !res.Cached {
				return res.Err
			}
			printNotices(dashboard.Notices(res.Notice))

			now := time.Now()
			page := violationPipeline.Run(res.Items, list.state(map[string]string{"status": status, "type": kind}))
			rows := make([]violationRow, 0, len(page.Items))
			for _, v := range page.Items {
				rows = append(rows, violationRow{Violation: v, AgeDays: booking.ViolationAge(v, now)})
			}
			if outputJSON {
				return writeJSON(listing.Page[violationRow]{
					Items:      rows,
					Page:       page.Page,
					PageSize:   page.PageSize,
					TotalPages: page.TotalPages,
					Total:      page.Total,
				})
			}
			if len(rows) == 0 {
				fmt.Println("No violations found.")
				return nil
			}

			writer := tabwriter.NewWriter(os.Stdout, 2, 2, 2, ' ', 0)
			if !outputCompact {
				fmt.Fprintln(writer, "ID\tBOOKING\tUSER\tROOM\tTYPE\tSTATUS\tAGE")
			}
			for _, row := range rows {
				age := "-"
				if strings.EqualFold(row.Status, booking.ViolationPending) {
					age = fmt.Sprintf("%dd", row.AgeDays)
				}
				fmt.Fprintf(writer, "%d\t%d\t%s\t%s\t%s\t%s\t%s\n",
					row.ID, row.BookingID, dash(row.Username), dash(row.RoomName), dash(row.Type), dash(row.Status), age)
			}
			if err := writer.Flush(); err != nil {
				return err
			}
			printPageFooter(page.Page, page.TotalPages, page.Total)
			return nil
		},
	}

	list.bind(cmd)
	cmd.Flags().StringVar(&status, "status", listing.Any, "pending, resolved or all")
	cmd.Flags().StringVar(&kind, "type", listing.Any, "Filter by violation type")
	return cmd
}

func adminViolationsCreateCmd() *cobra.Command {
	var input api.ViolationInput

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Record a violation against a booking",
		RunE: func(cmd *cobra.Command, args []string) error {
			input.Type = strings.ToLower(strings.TrimSpace(input.Type))
			violation, err := client.CreateViolation(cmd.Context(), input)
			if err != nil {
				return err
			}
			if outputJSON {
				return writeJSON(violation)
			}
			fmt.Printf("Recorded violation #%d for booking #%d.\n", violation.ID, input.BookingID)
			return nil
		},
	}

	cmd.Flags().Int64Var(&input.BookingID, "booking", 0, "Booking id")
	cmd.Flags().StringVar(&input.Type, "type", "", "late_return, property_damage, no_show, misuse or other")
	cmd.Flags().StringVar(&input.Description, "description", "", "What happened")
	return cmd
}

func adminViolationsResolveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve <id>",
		Short: "Mark a violation resolved",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := client.ResolveViolation(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Printf("Violation #%d resolved.\n", id)
			return nil
		},
	}

	return cmd
}

func adminDashboardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Overview of rooms, users, bookings and violations",
		RunE: func(cmd *cobra.Command, args []string) error {
			loader, closeCache := newLoader(cacheScope("admin"))
			defer closeCache()
			view := dashboard.LoadAdmin(cmd.Context(), loader, client)

			if outputJSON {
				return writeJSON(view)
			}
			printNotices(view.Notices)

			fmt.Printf("Rooms: %d (%d available)\n", len(view.Rooms.Items), view.RoomsInService)
			fmt.Printf("Users: %d\n", len(view.Users.Items))
			fmt.Printf("Pending approvals: %d\n", view.PendingApprovals)
			fmt.Printf("Open violations: %d\n", view.OpenViolations)
			fmt.Println()
			printSummary(view.Summary)
			return nil
		},
	}

	return cmd
}
