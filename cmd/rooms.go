package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"roombook/api"
	"roombook/booking"
	"roombook/dashboard"
	"roombook/listing"
	"roombook/storage"

	"github.com/spf13/cobra"
)

var roomPipeline = listing.Pipeline[api.Room]{
	SearchFields: []listing.Accessor[api.Room]{
		func(r api.Room) string { return r.Name },
		func(r api.Room) string { return r.Category },
		func(r api.Room) string { return r.Building },
	},
	Attributes: map[string]listing.Accessor[api.Room]{
		"status":   func(r api.Room) string { return r.Status },
		"category": func(r api.Room) string { return r.Category },
		"building": func(r api.Room) string { return r.Building },
	},
}

func roomsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rooms",
		Short: "Browse rooms and manage saved room aliases",
	}

	cmd.AddCommand(roomsListCmd())
	cmd.AddCommand(roomsAvailabilityCmd())
	cmd.AddCommand(roomsAliasCmd())
	return cmd
}

func roomsListCmd() *cobra.Command {
	var list listFlags
	var status string
	var category string
	var building string
	var availableNow bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List rooms",
		RunE: func(cmd *cobra.Command, args []string) error {
			loader, closeCache := newLoader(cacheScope("student"))
			defer closeCache()
			rooms, notices, err := loadRooms(cmd.Context(), loader, client.ListRooms)
			if err != nil {
				return err
			}
			printNotices(notices)
			if availableNow {
				rooms = freeRooms(rooms, time.Now())
			}

			page := roomPipeline.Run(rooms, list.state(map[string]string{
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
	cmd.Flags().StringVar(&status, "status", listing.Any, "Filter by status (available, unavailable, maintenance)")
	cmd.Flags().StringVar(&category, "category", listing.Any, "Filter by category")
	cmd.Flags().StringVar(&building, "building", listing.Any, "Filter by building")
	cmd.Flags().BoolVar(&availableNow, "available-now", false, "Only rooms that are bookable and free right now")
	return cmd
}

// loadRooms fetches the room list under the "rooms" snapshot, so a failed
// fetch still shows the last cached list.
func loadRooms(ctx context.Context, loader *dashboard.Loader, fetch func(context.Context) ([]api.Room, error)) ([]api.Room, []string, error) {
	res := dashboard.Fetch(ctx, loader, "rooms", fetch)
	if !res.OK() && !res.Cached {
		return nil, nil, res.Err
	}
	return res.Items, dashboard.Notices(res.Notice), nil
}

func freeRooms(rooms []api.Room, now time.Time) []api.Room {
	free := make([]api.Room, 0, len(rooms))
	for _, room := range rooms {
		if booking.IsAvailableNow(room, now) {
			free = append(free, room)
		}
	}
	return free
}

func printRooms(page listing.Page[api.Room]) error {
	writer := tabwriter.NewWriter(os.Stdout, 2, 2, 2, ' ', 0)
	if !outputCompact {
		fmt.Fprintln(writer, "ID\tNAME\tBUILDING\tCATEGORY\tCAPACITY\tSTATUS")
	}
	for _, room := range page.Items {
		fmt.Fprintf(writer, "%d\t%s\t%s\t%s\t%s\t%s\n",
			room.ID,
			booking.DisplayName(room),
			dash(room.Building),
			booking.DisplayCategory(room),
			booking.DisplayCapacity(room),
			dash(room.Status),
		)
	}
	if err := writer.Flush(); err != nil {
		return err
	}
	printPageFooter(page.Page, page.TotalPages, page.Total)
	return nil
}

func roomsAvailabilityCmd() *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "availability <room>",
		Short: "Show a room's time slots for a day",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := parseDateInput(date)
			if err != nil {
				return err
			}
			room, err := resolveRoom(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			availability, err := client.GetRoomAvailability(cmd.Context(), room.ID, day)
			if err != nil {
				return err
			}

			if outputJSON {
				return writeJSON(availability)
			}

			if !booking.Bookable(room) {
				fmt.Printf("Note: %s is %s and cannot be booked.\n", booking.DisplayName(room), dash(room.Status))
			}
			if len(availability.Slots) == 0 {
				fmt.Printf("No slots for %s on %s.\n", booking.DisplayName(room), availability.Date)
				return nil
			}

			if outputCompact {
				free := []string{}
				for _, slot := range availability.Slots {
					if slot.Available {
						free = append(free, slotLabel(slot.Start))
					}
				}
				fmt.Printf("%s %s: %s\n", booking.DisplayName(room), availability.Date, strings.Join(free, ", "))
				return nil
			}

			writer := tabwriter.NewWriter(os.Stdout, 2, 2, 2, ' ', 0)
			fmt.Fprintln(writer, "START\tEND\tSTATUS")
			for _, slot := range availability.Slots {
				state := "free"
				if !slot.Available {
					state = "booked"
					if slot.BookedBy != "" {
						state = "booked by " + slot.BookedBy
					}
				}
				fmt.Fprintf(writer, "%s\t%s\t%s\n", slotLabel(slot.Start), slotLabel(slot.End), state)
			}
			return writer.Flush()
		},
	}

	cmd.Flags().StringVar(&date, "date", "today", "Date (today, tomorrow, YYYY-MM-DD)")
	return cmd
}

// slotLabel shows HH:MM for full timestamps and clock strings alike.
func slotLabel(value string) string {
	if t, ok := booking.ParseTimestamp(value); ok {
		return t.Format("15:04")
	}
	if len(value) >= 5 {
		return value[:5]
	}
	return value
}

func roomsAliasCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "alias",
		Short: "Manage saved room aliases",
	}

	cmd.AddCommand(roomsAliasListCmd())
	cmd.AddCommand(roomsAliasAddCmd())
	cmd.AddCommand(roomsAliasRemoveCmd())
	return cmd
}

func roomsAliasListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved room aliases",
		RunE: func(cmd *cobra.Command, args []string) error {
			rooms, err := storage.LoadRoomAliases()
			if err != nil {
				return err
			}

			if outputJSON {
				return writeJSON(rooms)
			}

			if len(rooms) == 0 {
				fmt.Println("No room aliases saved.")
				return nil
			}

			writer := tabwriter.NewWriter(os.Stdout, 2, 2, 2, ' ', 0)
			if !outputCompact {
				fmt.Fprintln(writer, "ALIAS\tROOM\tNAME\tBUILDING")
			}
			for _, room := range rooms {
				fmt.Fprintf(writer, "%s\t%d\t%s\t%s\n", room.Alias, room.RoomID, room.Name, dash(room.Building))
			}
			return writer.Flush()
		},
	}

	return cmd
}

func roomsAliasAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <alias> <room>",
		Short: "Save a short alias for a room",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			alias := strings.TrimSpace(args[0])
			if alias == "" {
				return fmt.Errorf("alias is required")
			}
			if _, err := strconv.ParseInt(alias, 10, 64); err == nil {
				return fmt.Errorf("alias %q would shadow a room id", alias)
			}

			room, err := resolveRoom(cmd.Context(), args[1])
			if err != nil {
				return err
			}

			rooms, err := storage.LoadRoomAliases()
			if err != nil {
				return err
			}
			rooms = storage.PutRoomAlias(rooms, storage.RoomAlias{
				Alias:    alias,
				RoomID:   room.ID,
				Name:     room.Name,
				Building: room.Building,
			})
			if err := storage.SaveRoomAliases(rooms); err != nil {
				return err
			}

			fmt.Printf("Saved alias %s for %s.\n", alias, booking.DisplayName(room))
			return nil
		},
	}

	return cmd
}

func roomsAliasRemoveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove <alias>",
		Short: "Remove a saved room alias",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			alias := strings.TrimSpace(args[0])
			rooms, err := storage.LoadRoomAliases()
			if err != nil {
				return err
			}

			rooms, removed := storage.RemoveRoomAlias(rooms, alias)
			if !removed {
				return fmt.Errorf("room alias %q not found", alias)
			}
			if err := storage.SaveRoomAliases(rooms); err != nil {
				return err
			}

			fmt.Printf("Removed alias %s.\n", alias)
			return nil
		},
	}

	return cmd
}
