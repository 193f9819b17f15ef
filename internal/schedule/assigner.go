package schedule

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/derekprior/padelfix/internal/models"
)

// Lookup answers availability questions about pairs. *availability.Resolver
// implements it.
type Lookup interface {
	Available(pairID string, d time.Weekday, t models.Clock) bool
	Summary(pairID string) string
}

// Rules are the tunable hard constraints of an assignment run.
type Rules struct {
	// MinRestMinutes is added to the match duration when spacing two matches
	// of the same pair or player.
	MinRestMinutes int `yaml:"min_rest_minutes" json:"min_rest_minutes"`
	// MaxMatchesPerDay caps matches per pair per date; 0 means no cap.
	MaxMatchesPerDay int `yaml:"max_matches_per_day" json:"max_matches_per_day"`
}

// Input is everything an Assigner needs for one run.
type Input struct {
	Calendar     *Calendar
	Matches      []models.Match
	Zones        []models.Zone
	Pairs        map[string]models.Pair
	Availability Lookup
	// Reserved are scheduled matches that already hold courts and pair time:
	// manual assignments and other categories sharing the venue.
	Reserved []models.Match
	Rules    Rules
}

// Assigner places matches into calendar slots.
type Assigner interface {
	Assign(in Input) *Result
}

// GetAssigner returns an Assigner by name. An empty name selects greedy.
func GetAssigner(name string) (Assigner, error) {
	switch name {
	case "", "greedy":
		return &Greedy{}, nil
	default:
		return nil, fmt.Errorf("unknown assigner: %q", name)
	}
}

// rejectionReason categorizes why a slot was rejected for a match.
type rejectionReason int

const (
	rejectCourtBusy rejectionReason = iota
	rejectPair1Unavailable
	rejectPair2Unavailable
	rejectPairBusy
	rejectDailyCap
)

var rejectionNames = map[rejectionReason]string{
	rejectCourtBusy:        "court_busy",
	rejectPair1Unavailable: "pair1_unavailable",
	rejectPair2Unavailable: "pair2_unavailable",
	rejectPairBusy:         "pair_busy",
	rejectDailyCap:         "daily_cap",
}

// Greedy commits the first viable slot for each match, in input order, and
// never revisits a commitment.
type Greedy struct{}

type dateKey struct {
	who  string
	date time.Time
}

type assigner struct {
	in       Input
	spacing  time.Duration
	duration time.Duration

	courtStarts map[string][]time.Time // court -> committed starts
	busy        map[string][]time.Time // pair or player -> committed starts
	perDay      map[dateKey]int        // pair+date -> matches
	usedSlots   int
}

// Assign runs the greedy pass.
func (g *Greedy) Assign(in Input) *Result {
	a := &assigner{
		in:          in,
		duration:    in.Calendar.Duration,
		spacing:     in.Calendar.Duration + time.Duration(in.Rules.MinRestMinutes)*time.Minute,
		courtStarts: make(map[string][]time.Time),
		busy:        make(map[string][]time.Time),
		perDay:      make(map[dateKey]int),
	}
	for _, m := range in.Reserved {
		if m.State != models.MatchScheduled || m.CourtID == nil || m.StartsAt == nil {
			continue
		}
		a.commit(m, *m.CourtID, *m.StartsAt)
	}

	result := &Result{
		Zones:    len(in.Zones),
		Courts:   len(in.Calendar.Courts),
		Slots:    in.Calendar.Len(),
		Duration: in.Calendar.Duration,
	}
	for _, m := range in.Matches {
		if slot, ok := a.place(m); ok {
			m.Schedule(slot.Court, slot.Start(), models.OriginAuto)
			a.commit(m, slot.Court, slot.Start())
			a.usedSlots++
			result.Scheduled = append(result.Scheduled, m)
			continue
		}
		diag := a.diagnose(m)
		m.State = models.MatchUnschedulable
		m.Origin = models.OriginAuto
		m.CourtID = nil
		m.StartsAt = nil
		if raw, err := json.Marshal(diag); err == nil {
			m.Diagnostic = raw
		}
		result.Unschedulable = append(result.Unschedulable, Unschedulable{Match: m, Diagnostic: diag})
	}
	result.SlotsUsed = a.usedSlots
	return result
}

func (a *assigner) place(m models.Match) (Slot, bool) {
	for _, slot := range a.in.Calendar.Slots {
		if _, ok := a.check(m, slot); ok {
			return slot, true
		}
	}
	return Slot{}, false
}

func (a *assigner) check(m models.Match, slot Slot) (rejectionReason, bool) {
	start := slot.Start()

	if conflicts(a.courtStarts[slot.Court], start, a.duration) {
		return rejectCourtBusy, false
	}
	if !a.available(m.Pair1ID, slot) {
		return rejectPair1Unavailable, false
	}
	if !a.available(m.Pair2ID, slot) {
		return rejectPair2Unavailable, false
	}
	for _, who := range a.participants(m) {
		if conflicts(a.busy[who], start, a.spacing) {
			return rejectPairBusy, false
		}
	}
	if limit := a.in.Rules.MaxMatchesPerDay; limit > 0 {
		for _, p := range []string{m.Pair1ID, m.Pair2ID} {
			if a.perDay[dateKey{p, slot.Date}] >= limit {
				return rejectDailyCap, false
			}
		}
	}
	return 0, true
}

func (a *assigner) available(pairID string, slot Slot) bool {
	if a.in.Availability == nil {
		return true
	}
	return a.in.Availability.Available(pairID, slot.Weekday, slot.Time)
}

// participants returns the pair ids plus the player ids of both pairs, so a
// player entered in two categories is never double-booked. Court
// reservations carry no pairs.
func (a *assigner) participants(m models.Match) []string {
	var who []string
	for _, id := range []string{m.Pair1ID, m.Pair2ID} {
		if id == "" {
			continue
		}
		who = append(who, "pair:"+id)
		for _, player := range a.in.Pairs[id].Players() {
			who = append(who, "player:"+player)
		}
	}
	return who
}

func (a *assigner) commit(m models.Match, court string, start time.Time) {
	a.courtStarts[court] = append(a.courtStarts[court], start)
	for _, who := range a.participants(m) {
		a.busy[who] = append(a.busy[who], start)
	}
	date := truncateDay(start)
	a.perDay[dateKey{m.Pair1ID, date}]++
	a.perDay[dateKey{m.Pair2ID, date}]++
}

func (a *assigner) diagnose(m models.Match) Diagnostic {
	rejections := make(map[string]int)
	shared := 0
	for _, slot := range a.in.Calendar.Slots {
		if a.available(m.Pair1ID, slot) && a.available(m.Pair2ID, slot) {
			shared++
		}
		if reason, ok := a.check(m, slot); !ok {
			rejections[rejectionNames[reason]]++
		}
	}

	d := Diagnostic{
		ZoneID:     m.Zone(),
		Pair1ID:    m.Pair1ID,
		Pair1Name:  a.pairName(m.Pair1ID),
		Pair2ID:    m.Pair2ID,
		Pair2Name:  a.pairName(m.Pair2ID),
		Rejections: rejections,
	}
	for _, z := range a.in.Zones {
		if z.ID == d.ZoneID {
			d.ZoneName = z.Name
		}
	}
	if a.in.Availability != nil {
		d.Pair1Availability = a.in.Availability.Summary(m.Pair1ID)
		d.Pair2Availability = a.in.Availability.Summary(m.Pair2ID)
	}
	if shared == 0 {
		d.Reason = "the pairs share no available time in the tournament calendar"
	} else {
		d.Reason = fmt.Sprintf("all %d slots where both pairs are available are taken or clash with their other matches", shared)
	}
	return d
}

func (a *assigner) pairName(id string) string {
	if p, ok := a.in.Pairs[id]; ok {
		return p.Name()
	}
	return id
}

// conflicts reports whether start is closer than gap to any committed start.
func conflicts(starts []time.Time, start time.Time, gap time.Duration) bool {
	for _, s := range starts {
		d := start.Sub(s)
		if d < 0 {
			d = -d
		}
		if d < gap {
			return true
		}
	}
	return false
}
