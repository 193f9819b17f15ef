package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var weekdayNames = map[string]time.Weekday{
	"domingo":   time.Sunday,
	"lunes":     time.Monday,
	"martes":    time.Tuesday,
	"miercoles": time.Wednesday,
	"jueves":    time.Thursday,
	"viernes":   time.Friday,
	"sabado":    time.Saturday,

	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,

	"dom": time.Sunday,
	"lun": time.Monday,
	"mar": time.Tuesday,
	"mie": time.Wednesday,
	"jue": time.Thursday,
	"vie": time.Friday,
	"sab": time.Saturday,
	"sun": time.Sunday,
	"mon": time.Monday,
	"tue": time.Tuesday,
	"wed": time.Wednesday,
	"thu": time.Thursday,
	"fri": time.Friday,
	"sat": time.Saturday,
}

var displayNames = [...]string{"domingo", "lunes", "martes", "miércoles", "jueves", "viernes", "sábado"}

// Fold lowercases s and strips diacritics ("Sábado" -> "sabado").
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return strings.ToLower(strings.TrimSpace(s))
	}
	return out
}

// ParseWeekday accepts Spanish or English names, with or without accents,
// and ISO day numbers (1 = Monday ... 7 = Sunday).
func ParseWeekday(s string) (time.Weekday, error) {
	key := Fold(s)
	if d, ok := weekdayNames[key]; ok {
		return d, nil
	}
	if n, err := strconv.Atoi(key); err == nil && n >= 1 && n <= 7 {
		return time.Weekday(n % 7), nil
	}
	return 0, fmt.Errorf("unknown weekday %q", s)
}

// WeekdayName returns the Spanish display name used in operator output.
func WeekdayName(d time.Weekday) string {
	return displayNames[d]
}

// IsWeekend reports whether d is a Saturday or Sunday.
func IsWeekend(d time.Weekday) bool {
	return d == time.Saturday || d == time.Sunday
}
