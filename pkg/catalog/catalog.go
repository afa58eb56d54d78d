package catalog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
)

// Profile holds the ideal growing conditions for one crop. Profiles are
// immutable after load and shared read-only across sessions.
type Profile struct {
	Name        string  `json:"crop"`
	N           float64 `json:"ideal_n"`
	P           float64 `json:"ideal_p"`
	K           float64 `json:"ideal_k"`
	Temperature float64 `json:"ideal_temp"`
	Humidity    float64 `json:"ideal_humidity"`
	PH          float64 `json:"ideal_ph"`
	Rainfall    float64 `json:"ideal_rainfall"`
	SoilTypes   string  `json:"soil_types,omitempty"`
	Season      string  `json:"season,omitempty"`
	Description string  `json:"description,omitempty"`
}

// Ideal returns the profile's ideal value for a parameter key.
func (p *Profile) Ideal(key Key) float64 {
	switch key {
	case KeyN:
		return p.N
	case KeyP:
		return p.P
	case KeyK:
		return p.K
	case KeyTemperature:
		return p.Temperature
	case KeyHumidity:
		return p.Humidity
	case KeyPH:
		return p.PH
	case KeyRainfall:
		return p.Rainfall
	default:
		return 0
	}
}

// Catalog is the ordered, immutable set of crop profiles. Order matters:
// scoring ties are broken by catalog position.
type Catalog struct {
	profiles []Profile
	byName   map[string]int
}

// Load reads crop profiles from a CSV file. A missing or malformed catalog is
// a fatal condition for the caller: the advisor must not serve turns without
// one.
func Load(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open crop profiles: %w", err)
	}
	defer f.Close()

	c, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse crop profiles %s: %w", path, err)
	}
	return c, nil
}

// Parse reads crop profiles from CSV data. The header row must name at least
// the crop column and the seven ideal-condition columns.
func Parse(r io.Reader) (*Catalog, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[name] = i
	}
	required := []string{
		"crop", "ideal_n", "ideal_p", "ideal_k",
		"ideal_temp", "ideal_humidity", "ideal_ph", "ideal_rainfall",
	}
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
	}

	c := &Catalog{byName: make(map[string]int)}
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		line++

		p := Profile{Name: record[cols["crop"]]}
		if p.Name == "" {
			return nil, fmt.Errorf("row %d: empty crop name", line)
		}

		numeric := []struct {
			col string
			dst *float64
		}{
			{"ideal_n", &p.N},
			{"ideal_p", &p.P},
			{"ideal_k", &p.K},
			{"ideal_temp", &p.Temperature},
			{"ideal_humidity", &p.Humidity},
			{"ideal_ph", &p.PH},
			{"ideal_rainfall", &p.Rainfall},
		}
		for _, n := range numeric {
			v, err := strconv.ParseFloat(record[cols[n.col]], 64)
			if err != nil {
				return nil, fmt.Errorf("row %d: column %q: %w", line, n.col, err)
			}
			*n.dst = v
		}

		if i, ok := cols["soil_types"]; ok && i < len(record) {
			p.SoilTypes = record[i]
		}
		if i, ok := cols["season"]; ok && i < len(record) {
			p.Season = record[i]
		}
		if i, ok := cols["description"]; ok && i < len(record) {
			p.Description = record[i]
		}

		if _, dup := c.byName[p.Name]; dup {
			return nil, fmt.Errorf("row %d: duplicate crop %q", line, p.Name)
		}
		c.byName[p.Name] = len(c.profiles)
		c.profiles = append(c.profiles, p)
	}

	if len(c.profiles) == 0 {
		return nil, fmt.Errorf("catalog contains no profiles")
	}
	return c, nil
}

// Profiles returns the catalog entries in load order.
func (c *Catalog) Profiles() []Profile {
	return c.profiles
}

// Len returns the number of profiles.
func (c *Catalog) Len() int {
	return len(c.profiles)
}

// Get looks up a profile by crop name.
func (c *Catalog) Get(name string) (Profile, bool) {
	i, ok := c.byName[name]
	if !ok {
		return Profile{}, false
	}
	return c.profiles[i], true
}
