package core

import (
	"strconv"
	"strings"
	"time"
)

// DateLayout is the wire format of bill dates (HTML date inputs and the REST backend).
const DateLayout = "2006-01-02"

var frenchMonths = [...]string{"Jan.", "Fév.", "Mar.", "Avr.", "Mai.", "Jui.", "Jui.", "Aoû.", "Sep.", "Oct.", "Nov.", "Déc."}

// ParseBillDate parses a yyyy-mm-dd date as UTC midnight.
func ParseBillDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, strings.TrimSpace(s), time.UTC)
}

// FormatBillDate renders a date in the short French form used by the bills list, e.g. "4 Avr. 04".
func FormatBillDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	yy := t.Year() % 100
	return strconv.Itoa(t.Day()) + " " + frenchMonths[t.Month()-1] + " " + pad2(yy)
}

func pad2(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}
