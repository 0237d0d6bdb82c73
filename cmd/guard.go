package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"roombook/api"
	"roombook/booking"
	"roombook/dashboard"
	"roombook/listing"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
)

var errCodeMismatch = errors.New("code does not match the booking")

func guardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "guard",
		Short: "Security desk: bookings, keys and overdue returns",
	}

	cmd.AddCommand(guardListCmd())
	cmd.AddCommand(guardOverdueCmd())
	cmd.AddCommand(guardKeyCmd(booking.KeyGive))
	cmd.AddCommand(guardKeyCmd(booking.KeyTake))
	cmd.AddCommand(guardWatchCmd())
	return cmd
}

func guardListCmd() *cobra.Command {
	var list listFlags
	var tab string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List bookings visible at the desk",
		RunE: func(cmd *cobra.Command, args []string) error {
			if tab != listing.Any {
				if _, ok := booking.ParseCategory(tab); !ok {
					return fmt.Errorf("invalid --tab %q", tab)
				}
			}

			loader, closeCache := newLoader(cacheScope("guard"))
			defer closeCache()
			view := dashboard.LoadGuard(cmd.Context(), loader, client)
			if !view.Bookings.OK() && !view.Bookings.Cached {
				return view.Bookings.Err
			}
			printNotices(view.Notices)

			now := time.Now()
			page := bookingPipeline(now).Run(view.Bookings.Items, list.state(map[string]string{"category": tab}))
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
	cmd.Flags().StringVar(&tab, "tab", string(booking.Active), "active, upcoming, past, pending, cancelled or all")
	return cmd
}

func guardOverdueCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "overdue",
		Short: "List keys that should have been returned",
		RunE: func(cmd *cobra.Command, args []string) error {
			loader, closeCache := newLoader(cacheScope("guard"))
			defer closeCache()
			view := dashboard.LoadGuard(cmd.Context(), loader, client)
			if !view.Bookings.OK() && !view.Bookings.Cached {
				return view.Bookings.Err
			}
			printNotices(view.Notices)

			if outputJSON {
				return writeJSON(view.Overdue)
			}
			return printOverdue(view.Overdue)
		},
	}

	return cmd
}

func printOverdue(overdue []booking.OverdueBooking) error {
	if len(overdue) == 0 {
		fmt.Println("No overdue keys.")
		return nil
	}
	writer := tabwriter.NewWriter(os.Stdout, 2, 2, 2, ' ', 0)
	if !outputCompact {
		fmt.Fprintln(writer, "ID\tROOM\tHOLDER\tENDED\tOVERDUE")
	}
	for _, item := range overdue {
		b := item.Booking
		fmt.Fprintf(writer, "%d\t%s\t%s\t%s\t%s\n",
			b.ID, dash(b.RoomName), dash(firstNonBlank(b.FullName, b.Username)), slotLabel(b.End), formatMinutes(item.Minutes))
	}
	return writer.Flush()
}

func formatMinutes(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("%dm", minutes)
	}
	return fmt.Sprintf("%dh%02dm", minutes/60, minutes%60)
}

func guardKeyCmd(action booking.KeyAction) *cobra.Command {
	var code string

	use := "give-key <booking-id>"
	short := "Hand out the key for an approved booking"
	if action == booking.KeyTake {
		use = "take-key <booking-id>"
		short = "Record that a key came back"
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

			bookings, err := client.ListSecurityBookings(cmd.Context())
			if err != nil {
				return err
			}
			target, ok := findBooking(bookings, id)
			if !ok {
				return fmt.Errorf("booking #%d not found", id)
			}

			handoff, err := keyHandoff(target, action, code)
			if err != nil {
				return fmt.Errorf("booking #%d (%s): %w", id, dash(target.Status), err)
			}

			if action == booking.KeyGive {
				err = client.GiveKey(cmd.Context(), handoff)
			} else {
				err = client.TakeKey(cmd.Context(), handoff)
			}
			if err != nil {
				return err
			}

			if action == booking.KeyGive {
				fmt.Printf("Key for %s handed to %s.\n", handoff.RoomName, firstNonBlank(target.FullName, handoff.Username))
			} else {
				fmt.Printf("Key for %s returned by %s.\n", handoff.RoomName, firstNonBlank(target.FullName, handoff.Username))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&code, "code", "", "Access code shown by the student (defaults to the booking's code)")
	return cmd
}

// keyHandoff checks the booking state and the presented code before any
// request is made.
func keyHandoff(b api.Booking, action booking.KeyAction, presented string) (api.KeyHandoff, error) {
	presented = strings.TrimSpace(presented)
	code := b.SecretCode
	if presented != "" {
		if b.SecretCode != "" && !strings.EqualFold(presented, b.SecretCode) {
			return api.KeyHandoff{}, errCodeMismatch
		}
		code = presented
	}
	if err := booking.KeyActionAllowed(b, action, code); err != nil {
		return api.KeyHandoff{}, err
	}
	return api.KeyHandoff{Username: b.Username, RoomName: b.RoomName, Code: code}, nil
}

func guardWatchCmd() *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Keep the desk board refreshed until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			if interval <= 0 {
				interval = cfg.WatchInterval
			}
			ctx := cmd.Context()
			loader, closeCache := newLoader(cacheScope("guard"))
			defer closeCache()

			refresh := func() {
				view := dashboard.LoadGuard(ctx, loader, client)
				if ctx.Err() != nil {
					return
				}
				renderGuardBoard(view, time.Now())
			}

			refresh()

			c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
			if _, err := c.AddFunc("@every "+interval.String(), refresh); err != nil {
				return fmt.Errorf("schedule refresh: %w", err)
			}
			c.Start()
			logger.Debug("watching", "interval", interval)

			<-ctx.Done()
			stopped := c.Stop()
			waitCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			select {
			case <-stopped.Done():
			case <-waitCtx.Done():
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", 0, "Refresh interval (default from config)")
	return cmd
}

func renderGuardBoard(view dashboard.Guard, now time.Time) {
	if outputJSON {
		_ = writeJSON(view)
		return
	}
	if isTerminal(os.Stdout) {
		fmt.Print("\033[H\033[2J")
	}
	fmt.Printf("Desk board, %s\n", now.Format("2006-01-02 15:04:05"))
	printNotices(view.Notices)

	active := view.Groups[booking.Active]
	fmt.Printf("\nActive (%d)\n", len(active))
	if len(active) > 0 {
		page := listing.Paginate(active, 1, len(active))
		_ = printBookings(page, now, true)
	}

	fmt.Printf("\nOverdue (%d)\n", len(view.Overdue))
	_ = printOverdue(view.Overdue)
}
