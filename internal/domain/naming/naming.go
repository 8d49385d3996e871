// Package naming builds the durable, audit-friendly document numbering
// scheme: NNN/DIVISION/TYPE/ROMAN_MONTH/YEAR. Titles are immutable once
// assigned; uniqueness is backed by the per-division counter plus a unique
// index on the store.
package naming

import (
	"fmt"
	"time"

	"docuflow/internal/domain/entity"
)

// index 0 unused so the month number indexes directly
var romanMonths = [13]string{
	"", "I", "II", "III", "IV", "V", "VI", "VII", "VIII", "IX", "X", "XI", "XII",
}

// RomanMonth returns the roman numeral for a 1-based month.
func RomanMonth(m time.Month) string {
	return romanMonths[int(m)]
}

// DocumentTitle formats a title like 001/FIN/BA/VIII/2026 from a per-division
// sequence number and the creation time.
func DocumentTitle(seq int, division entity.Division, docType entity.DocType, at time.Time) string {
	return fmt.Sprintf("%03d/%s/%s/%s/%d", seq, division, docType, RomanMonth(at.Month()), at.Year())
}
