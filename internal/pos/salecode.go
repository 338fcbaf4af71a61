package pos

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Payment method prefixes for sale codes.
var paymentPrefixes = map[string]string{
	"Efectivo":      "EF",
	"Transferencia": "TR",
	"Tarjeta":       "TA",
	"Nequi":         "NE",
	"Mixto":         "MX",
	"quote":         "COT",
}

const defaultSalePrefix = "VT"

func PaymentPrefix(method string) string {
	if p, ok := paymentPrefixes[method]; ok {
		return p
	}
	return defaultSalePrefix
}

// SaleCode builds the human-readable code {prefix}-{YYYYMMDD}-{NNN}.
func SaleCode(prefix string, day time.Time, sequence int) string {
	return fmt.Sprintf("%s-%s-%03d", prefix, day.Format("20060102"), sequence)
}

// FallbackSaleCode substitutes a 6-digit timestamp for the sequence after
// repeated collisions, trading sequentiality for uniqueness.
func FallbackSaleCode(prefix string, now time.Time) string {
	return fmt.Sprintf("%s-%s-%s", prefix, now.Format("20060102"), now.Format("150405"))
}

// NextSequence derives the next unused counter from existing codes for one
// organization, prefix and day. Timestamp-fallback codes (6-digit suffix)
// are skipped.
func NextSequence(codes []string) int {
	highest := 0
	for _, code := range codes {
		parts := strings.Split(code, "-")
		if len(parts) != 3 || len(parts[2]) != 3 {
			continue
		}
		n, err := strconv.Atoi(parts[2])
		if err != nil {
			continue
		}
		if n > highest {
			highest = n
		}
	}
	return highest + 1
}
