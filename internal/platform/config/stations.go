package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"spinget/internal/capture"
)

// rawStation maps directly to one entry of the stations JSON file.
type rawStation struct {
	ID        string `json:"id"`
	Shortcode string `json:"shortcode"`
	IndexURL  string `json:"index_url"`
	Timezone  string `json:"timezone"`
}

// Stations is the validated station registry, looked up by station id.
type Stations map[string]capture.StationProfile

// LoadStations reads and validates the stations file at path. Every entry
// must carry an id, shortcode, a resolvable IANA timezone, and an index URL
// template containing both the {shortcode} and {stamp} placeholders.
func LoadStations(path string) (Stations, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read stations file %s: %w", path, err)
	}

	var raw []rawStation
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse stations file %s: %w", path, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("stations file %s defines no stations", path)
	}

	stations := make(Stations, len(raw))
	for _, rs := range raw {
		if rs.ID == "" || rs.Shortcode == "" {
			return nil, fmt.Errorf("station entry %+v: id and shortcode are required", rs)
		}
		if !strings.Contains(rs.IndexURL, "{shortcode}") || !strings.Contains(rs.IndexURL, "{stamp}") {
			return nil, fmt.Errorf("station %s: index_url must contain {shortcode} and {stamp}", rs.ID)
		}
		if _, err := time.LoadLocation(rs.Timezone); err != nil {
			return nil, fmt.Errorf("station %s: invalid timezone %q: %w", rs.ID, rs.Timezone, err)
		}
		if _, dup := stations[rs.ID]; dup {
			return nil, fmt.Errorf("station %s: duplicate id", rs.ID)
		}
		stations[rs.ID] = capture.StationProfile{
			ID:        rs.ID,
			Shortcode: rs.Shortcode,
			IndexURL:  rs.IndexURL,
			Timezone:  rs.Timezone,
		}
	}
	return stations, nil
}

// Lookup returns the profile for the given station id.
func (s Stations) Lookup(id string) (capture.StationProfile, error) {
	profile, ok := s[id]
	if !ok {
		return capture.StationProfile{}, fmt.Errorf("unknown station %q", id)
	}
	return profile, nil
}
