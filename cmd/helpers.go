package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"roombook/api"
	"roombook/booking"
	"roombook/dashboard"
	"roombook/listing"
	"roombook/storage"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"github.com/texttheater/golang-levenshtein/levenshtein"
	"golang.org/x/term"
)

func parseDateInput(input string) (time.Time, error) {
	return parseDateInputAt(input, time.Now())
}

func parseDateInputAt(input string, now time.Time) (time.Time, error) {
	if input == "" {
		return time.Time{}, fmt.Errorf("date is required")
	}
	switch strings.ToLower(input) {
	case "today":
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()), nil
	case "tomorrow":
		t := now.AddDate(0, 0, 1)
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location()), nil
	}
	parsed, err := time.ParseInLocation("2006-01-02", input, now.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD)", input)
	}
	return parsed, nil
}

// parseSlot combines a date input with HH:MM start and end clocks.
func parseSlot(dateInput, from, to string, now time.Time) (time.Time, time.Time, error) {
	day, err := parseDateInputAt(dateInput, now)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	start, err := parseClock(from)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := parseClock(to)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return day.Add(start), day.Add(end), nil
}

func parseClock(input string) (time.Duration, error) {
	parsed, err := time.Parse("15:04", strings.TrimSpace(input))
	if err != nil {
		return 0, fmt.Errorf("invalid time %q (expected HH:MM)", input)
	}
	return time.Duration(parsed.Hour())*time.Hour + time.Duration(parsed.Minute())*time.Minute, nil
}

func parseID(input string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimPrefix(strings.TrimSpace(input), "#"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", input)
	}
	return id, nil
}

func writeJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// formatWindow renders a booking window, falling back to the raw strings
// when they cannot be parsed.
func formatWindow(start, end string) string {
	s, okStart := booking.ParseTimestamp(start)
	e, okEnd := booking.ParseTimestamp(end)
	if !okStart || !okEnd {
		return strings.TrimSpace(start + " - " + end)
	}
	if s.Format("2006-01-02") == e.Format("2006-01-02") {
		return fmt.Sprintf("%s %s-%s", s.Format("2006-01-02"), s.Format("15:04"), e.Format("15:04"))
	}
	return fmt.Sprintf("%s - %s", s.Format("2006-01-02 15:04"), e.Format("2006-01-02 15:04"))
}

func dash(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}

// resolveRoom accepts a room id, a saved alias or a room name.
func resolveRoom(ctx context.Context, input string) (api.Room, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return api.Room{}, fmt.Errorf("room is required")
	}

	rooms, err := client.ListRooms(ctx)
	if err != nil {
		return api.Room{}, err
	}

	if aliases, err := storage.LoadRoomAliases(); err == nil {
		if alias, ok := storage.FindRoomByAlias(aliases, input); ok {
			input = strconv.FormatInt(alias.RoomID, 10)
		}
	}
	if id, err := parseID(input); err == nil {
		for _, room := range rooms {
			if room.ID == id {
				return room, nil
			}
		}
		return api.Room{}, fmt.Errorf("room #%d not found", id)
	}

	names := make([]string, 0, len(rooms))
	for _, room := range rooms {
		if strings.EqualFold(room.Name, input) {
			return room, nil
		}
		names = append(names, room.Name)
	}
	if suggestions := suggestNames(input, names, 3); len(suggestions) > 0 {
		return api.Room{}, fmt.Errorf("room %q not found. Did you mean: %s?", input, strings.Join(suggestions, ", "))
	}
	return api.Room{}, fmt.Errorf("room %q not found", input)
}

// suggestNames returns up to limit names within a small edit distance of
// input, closest first.
func suggestNames(input string, names []string, limit int) []string {
	type candidate struct {
		name     string
		distance int
	}
	needle := strings.ToLower(input)
	maxDistance := len([]rune(needle))/3 + 1
	candidates := []candidate{}
	seen := map[string]struct{}{}
	for _, name := range names {
		key := strings.ToLower(name)
		if _, ok := seen[key]; ok || key == "" {
			continue
		}
		seen[key] = struct{}{}
		distance := levenshtein.DistanceForStrings([]rune(needle), []rune(key), levenshtein.DefaultOptions)
		if distance <= maxDistance {
			candidates = append(candidates, candidate{name: name, distance: distance})
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].distance != candidates[j].distance {
			return candidates[i].distance < candidates[j].distance
		}
		return candidates[i].name < candidates[j].name
	})
	out := []string{}
	for i := 0; i < len(candidates) && i < limit; i++ {
		out = append(out, candidates[i].name)
	}
	return out
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// progressBar renders a fixed-width bar such as "[#####.....]  50%".
func progressBar(percent float64, width int) string {
	if width <= 0 {
		width = 30
	}
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	filled := int(percent / 100 * float64(width))
	return fmt.Sprintf("[%s%s] %3.0f%%", strings.Repeat("#", filled), strings.Repeat(".", width-filled), percent)
}

// newLoader opens the snapshot cache for a dashboard scope. A cache that
// cannot be opened only disables the offline fallback.
func newLoader(scope string) (*dashboard.Loader, func()) {
	l := &dashboard.Loader{Scope: scope, Timeout: cfg.Timeout}
	db, err := storage.OpenCacheDB()
	if err != nil {
		logger.Warn("snapshot cache unavailable", "error", err)
		return l, func() {}
	}
	l.DB = db
	return l, func() { _ = db.Close() }
}

func printNotices(notices []string) {
	for _, notice := range notices {
		fmt.Fprintf(os.Stderr, "warning: %s\n", notice)
	}
}

func printPageFooter(page, totalPages, total int) {
	if outputCompact {
		return
	}
	fmt.Printf("\nPage %d of %d (%d total)\n", page, totalPages, total)
}

// listFlags are the search and paging flags shared by list commands.
type listFlags struct {
	search   string
	page     int
	pageSize int
}

func (f *listFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.search, "search", "s", "", "Free-text search")
	cmd.Flags().IntVar(&f.page, "page", 1, "Page number")
	cmd.Flags().IntVar(&f.pageSize, "page-size", 0, "Items per page (default from config)")
}

// state builds the view state in the order a user would set it, so the
// page flag is applied after the query and filters have reset it.
func (f *listFlags) state(filters map[string]string) listing.State {
	size := f.pageSize
	if size <= 0 {
		size = cfg.PageSize
	}
	state := listing.NewState(size)
	state.SetQuery(f.search)
	keys := make([]string, 0, len(filters))
	for key := range filters {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		state.SetFilter(key, filters[key])
	}
	state.SetPage(f.page)
	return state
}

func cacheScope(view string) string {
	if credentials != nil && credentials.Username != "" {
		return view + ":" + credentials.Username
	}
	return view
}
