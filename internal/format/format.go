// Package format turns stored bill values into the labels shown to employees.
package format

import (
	"fmt"
	"strings"
	"time"

	"github.com/mmynk/billed/internal/models"
)

// Status returns the display label of a bill status.
func Status(status models.Status) string {
	switch status {
	case models.StatusPending:
		return "En attente"
	case models.StatusAccepted:
		return "Accepté"
	case models.StatusRefused:
		return "Refused"
	default:
		return string(status)
	}
}

var shortMonths = [...]string{
	"janv.", "févr.", "mars", "avr.", "mai", "juin",
	"juil.", "août", "sept.", "oct.", "nov.", "déc.",
}

// Date formats an ISO calendar date as "4 Avr. 04".
func Date(iso string) (string, error) {
	d, err := time.Parse(time.DateOnly, iso)
	if err != nil {
		return "", fmt.Errorf("invalid date %q: %w", iso, err)
	}

	month := []rune(shortMonths[d.Month()-1])
	if len(month) > 3 {
		month = month[:3]
	}
	label := strings.ToUpper(string(month[0])) + string(month[1:])

	return fmt.Sprintf("%d %s. %02d", d.Day(), label, d.Year()%100), nil
}
