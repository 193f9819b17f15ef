package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jmoiron/sqlx/types"
	"gopkg.in/yaml.v3"

	"github.com/derekprior/padelfix/internal/availability"
	"github.com/derekprior/padelfix/internal/models"
	"github.com/derekprior/padelfix/internal/schedule"
)

// Date is a wrapper around time.Time for YAML date parsing.
type Date struct {
	Time time.Time
}

func (d *Date) UnmarshalYAML(value *yaml.Node) error {
	t, err := time.Parse("2006-01-02", value.Value)
	if err != nil {
		return fmt.Errorf("invalid date %q: %w", value.Value, err)
	}
	d.Time = t
	return nil
}

// Restrictions keeps a pair's restriction block as JSON so both payload
// shapes reach the availability parser untouched.
type Restrictions struct {
	Raw types.JSONText
}

func (r *Restrictions) UnmarshalYAML(value *yaml.Node) error {
	var v any
	if err := value.Decode(&v); err != nil {
		return fmt.Errorf("restrictions: %w", err)
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("restrictions: %w", err)
	}
	r.Raw = raw
	return nil
}

type Tournament struct {
	Name           string                 `yaml:"name"`
	StartDate      Date                   `yaml:"start_date"`
	EndDate        Date                   `yaml:"end_date"`
	MatchMinutes   int                    `yaml:"match_minutes"`
	OperatingHours *models.OperatingHours `yaml:"operating_hours"`
}

type Reservation struct {
	Date      *Date    `yaml:"date"`
	StartDate *Date    `yaml:"start_date"`
	EndDate   *Date    `yaml:"end_date"`
	Times     []string `yaml:"times"`
	Reason    string   `yaml:"reason"`
}

// Dates returns all dates covered by this reservation.
// Supports single date (date:) or range (start_date:/end_date:).
func (r *Reservation) Dates() []time.Time {
	if r.StartDate != nil && r.EndDate != nil {
		var dates []time.Time
		d := r.StartDate.Time
		for !d.After(r.EndDate.Time) {
			dates = append(dates, d)
			d = d.AddDate(0, 0, 1)
		}
		return dates
	}
	if r.Date != nil {
		return []time.Time{r.Date.Time}
	}
	return nil
}

type Court struct {
	Name         string        `yaml:"name"`
	Active       *bool         `yaml:"active"`
	Reservations []Reservation `yaml:"reservations"`
}

type Pair struct {
	Players      []string         `yaml:"players"`
	State        models.PairState `yaml:"state"`
	Rating       float64          `yaml:"rating"`
	Restrictions Restrictions     `yaml:"restrictions"`
}

// Name renders the pair the way operator output does.
func (p Pair) Name() string {
	return strings.Join(p.Players, " / ")
}

type Category struct {
	Name     string             `yaml:"name"`
	Gender   string             `yaml:"gender"`
	ZoneSize int                `yaml:"zone_size"`
	Zones    int                `yaml:"zones"`
	Balance  models.BalanceMode `yaml:"balance"`
	Pairs    []Pair             `yaml:"pairs"`
}

type Config struct {
	Tournament Tournament     `yaml:"tournament"`
	Courts     []Court        `yaml:"courts"`
	Categories []Category     `yaml:"categories"`
	Strategy   string         `yaml:"strategy"`
	Assigner   string         `yaml:"assigner"`
	Rules      schedule.Rules `yaml:"rules"`
}

// LoadFromBytes parses YAML bytes into a Config and validates it.
func LoadFromBytes(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFromFile reads and parses a YAML config file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return LoadFromBytes(data)
}

func (c *Config) validate() error {
	if c.Tournament.StartDate.Time.IsZero() || c.Tournament.EndDate.Time.IsZero() {
		return fmt.Errorf("tournament start_date and end_date are required")
	}
	if c.Tournament.EndDate.Time.Before(c.Tournament.StartDate.Time) {
		return fmt.Errorf("end date %s must be on or after start date %s",
			c.Tournament.EndDate.Time.Format("2006-01-02"),
			c.Tournament.StartDate.Time.Format("2006-01-02"))
	}
	if c.Tournament.MatchMinutes < 0 {
		return fmt.Errorf("match_minutes must be positive")
	}
	if c.Rules.MinRestMinutes < 0 || c.Rules.MaxMatchesPerDay < 0 {
		return fmt.Errorf("rules cannot be negative")
	}

	if len(c.Courts) == 0 {
		return fmt.Errorf("at least one court is required")
	}
	if len(c.Categories) == 0 {
		return fmt.Errorf("at least one category is required")
	}

	courts := make(map[string]bool)
	for _, court := range c.Courts {
		if court.Name == "" {
			return fmt.Errorf("every court needs a name")
		}
		if courts[court.Name] {
			return fmt.Errorf("court %q is listed twice", court.Name)
		}
		courts[court.Name] = true

		for _, r := range court.Reservations {
			hasDate := r.Date != nil
			hasRange := r.StartDate != nil || r.EndDate != nil
			if !hasDate && !hasRange {
				return fmt.Errorf("court %q: reservation must have either 'date' or 'start_date'/'end_date'", court.Name)
			}
			if hasDate && hasRange {
				return fmt.Errorf("court %q: reservation cannot have both 'date' and 'start_date'/'end_date'", court.Name)
			}
			if hasRange && (r.StartDate == nil || r.EndDate == nil) {
				return fmt.Errorf("court %q: reservation with date range must have both 'start_date' and 'end_date'", court.Name)
			}
			if hasRange && r.EndDate.Time.Before(r.StartDate.Time) {
				return fmt.Errorf("court %q: reservation end_date must be on or after start_date", court.Name)
			}
			if len(r.Times) == 0 {
				return fmt.Errorf("court %q: reservation needs at least one time", court.Name)
			}
			for _, tm := range r.Times {
				if _, err := models.ParseClock(tm); err != nil {
					return fmt.Errorf("court %q: reservation: %w", court.Name, err)
				}
			}
		}
	}

	categories := make(map[string]bool)
	for _, cat := range c.Categories {
		if cat.Name == "" {
			return fmt.Errorf("every category needs a name")
		}
		key := slug(cat.Name)
		if categories[key] {
			return fmt.Errorf("category %q is listed twice", cat.Name)
		}
		categories[key] = true

		switch cat.Balance {
		case "", models.BalanceNone, models.BalanceRating, models.BalanceTime:
		default:
			return fmt.Errorf("category %q: unknown balance %q", cat.Name, cat.Balance)
		}
		if len(cat.Pairs) == 0 {
			return fmt.Errorf("category %q has no pairs", cat.Name)
		}

		// A player may enter several categories but only one pair per category.
		seen := make(map[string]int)
		for i, p := range cat.Pairs {
			if len(p.Players) != 2 {
				return fmt.Errorf("category %q: pair %d must list exactly 2 players", cat.Name, i+1)
			}
			for _, player := range p.Players {
				if prev, ok := seen[slug(player)]; ok {
					return fmt.Errorf("category %q: player %q appears in pairs %d and %d", cat.Name, player, prev, i+1)
				}
				seen[slug(player)] = i + 1
			}
			switch p.State {
			case "", models.PairConfirmed, models.PairPending, models.PairWithdrawn:
			default:
				return fmt.Errorf("category %q: pair %q has unknown state %q", cat.Name, p.Name(), p.State)
			}
			if _, err := availability.Parse(p.Restrictions.Raw); err != nil {
				return fmt.Errorf("category %q: pair %q: %w", cat.Name, p.Name(), err)
			}
		}
	}

	return nil
}

// ModelTournament converts the tournament block.
func (c *Config) ModelTournament() *models.Tournament {
	t := &models.Tournament{
		ID:           slug(c.Tournament.Name),
		Name:         c.Tournament.Name,
		StartDate:    c.Tournament.StartDate.Time,
		EndDate:      c.Tournament.EndDate.Time,
		MatchMinutes: c.Tournament.MatchMinutes,
	}
	if c.Tournament.OperatingHours != nil {
		t.Hours = *c.Tournament.OperatingHours
	}
	return t
}

// ModelCourts converts the court list. Courts are active unless marked
// otherwise and keep their file order.
func (c *Config) ModelCourts() []models.Court {
	tournamentID := slug(c.Tournament.Name)
	courts := make([]models.Court, 0, len(c.Courts))
	for i, court := range c.Courts {
		courts = append(courts, models.Court{
			ID:           slug(court.Name),
			TournamentID: tournamentID,
			Name:         court.Name,
			Active:       court.Active == nil || *court.Active,
			Position:     i + 1,
		})
	}
	return courts
}

// CategoryData is one category with its roster.
type CategoryData struct {
	Category models.Category
	Pairs    []models.Pair
	Zones    int
}

// ModelCategories converts every category and its pairs. Player ids are
// derived from names so one player entered in two categories is recognised.
func (c *Config) ModelCategories() []CategoryData {
	tournamentID := slug(c.Tournament.Name)
	var out []CategoryData
	for _, cat := range c.Categories {
		catID := slug(cat.Name)
		data := CategoryData{
			Category: models.Category{
				ID:           catID,
				TournamentID: tournamentID,
				Name:         cat.Name,
				Gender:       cat.Gender,
				ZoneSize:     cat.ZoneSize,
				Balance:      cat.Balance,
			},
			Zones: cat.Zones,
		}
		for i, p := range cat.Pairs {
			state := p.State
			if state == "" {
				state = models.PairConfirmed
			}
			data.Pairs = append(data.Pairs, models.Pair{
				ID:           fmt.Sprintf("%s-%02d", catID, i+1),
				CategoryID:   catID,
				Player1ID:    slug(p.Players[0]),
				Player1Name:  p.Players[0],
				Player2ID:    slug(p.Players[1]),
				Player2Name:  p.Players[1],
				State:        state,
				Rating:       p.Rating,
				Restrictions: p.Restrictions.Raw,
			})
		}
		out = append(out, data)
	}
	return out
}

// Reserved turns court reservations into bookings the assigner must keep
// clear of.
func (c *Config) Reserved() []models.Match {
	var out []models.Match
	for _, court := range c.Courts {
		courtID := slug(court.Name)
		for _, r := range court.Reservations {
			for _, d := range r.Dates() {
				for _, tm := range r.Times {
					clock, err := models.ParseClock(tm)
					if err != nil {
						continue
					}
					id := courtID
					start := d.Add(time.Duration(clock) * time.Minute)
					out = append(out, models.Match{
						ID:       fmt.Sprintf("reservation:%s:%s", courtID, start.Format("2006-01-02T15:04")),
						CourtID:  &id,
						StartsAt: &start,
						State:    models.MatchScheduled,
						Origin:   models.OriginManual,
					})
				}
			}
		}
	}
	return out
}

// slug lowercases s, folds accents and joins words with dashes.
func slug(s string) string {
	return strings.Join(strings.Fields(models.Fold(s)), "-")
}
