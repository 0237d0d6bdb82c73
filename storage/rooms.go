package storage

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/goccy/go-json"
)

// RoomAlias is a local shortcut for a room, e.g. "lab" for room 12.
type RoomAlias struct {
	Alias    string `json:"alias"`
	RoomID   int64  `json:"room_id"`
	Name     string `json:"name"`
	Building string `json:"building,omitempty"`
}

type RoomsFile struct {
	Rooms []RoomAlias `json:"rooms"`
}

func LoadRoomAliases() ([]RoomAlias, error) {
	path, err := RoomsPath()
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []RoomAlias{}, nil
		}
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("rooms path is a directory: %s", path)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var payload RoomsFile
	if err := json.NewDecoder(file).Decode(&payload); err != nil {
		return nil, err
	}
	return payload.Rooms, nil
}

func SaveRoomAliases(rooms []RoomAlias) error {
	if _, err := ensureConfigDir(); err != nil {
		return err
	}

	path, err := RoomsPath()
	if err != nil {
		return err
	}

	sorted := make([]RoomAlias, len(rooms))
	copy(sorted, rooms)
	sort.Slice(sorted, func(i, j int) bool {
		return strings.ToLower(sorted[i].Alias) < strings.ToLower(sorted[j].Alias)
	})

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(RoomsFile{Rooms: sorted})
}

func FindRoomByAlias(rooms []RoomAlias, alias string) (RoomAlias, bool) {
	needle := strings.ToLower(strings.TrimSpace(alias))
	for _, room := range rooms {
		if strings.ToLower(room.Alias) == needle {
			return room, true
		}
	}
	return RoomAlias{}, false
}

// PutRoomAlias replaces an alias with the same name or appends a new one.
func PutRoomAlias(rooms []RoomAlias, alias RoomAlias) []RoomAlias {
	needle := strings.ToLower(strings.TrimSpace(alias.Alias))
	out := make([]RoomAlias, 0, len(rooms)+1)
	for _, room := range rooms {
		if strings.ToLower(room.Alias) == needle {
			continue
		}
		out = append(out, room)
	}
	return append(out, alias)
}

func RemoveRoomAlias(rooms []RoomAlias, alias string) ([]RoomAlias, bool) {
	needle := strings.ToLower(strings.TrimSpace(alias))
	out := make([]RoomAlias, 0, len(rooms))
	removed := false
	for _, room := range rooms {
		if strings.ToLower(room.Alias) == needle {
			removed = true
			continue
		}
		out = append(out, room)
	}
	return out, removed
}
