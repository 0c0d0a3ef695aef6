package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

func shortRandom(n int) string {
	s := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return s[:n]
}

// NewBookingReference → "BK-<base36 millis>-<4 random>"
func NewBookingReference() string {
	ts := strings.ToUpper(strconv.FormatInt(time.Now().UnixMilli(), 36))
	return fmt.Sprintf("BK-%s-%s", ts, shortRandom(4))
}

// NewInvoiceNumber → "INV-<base36 millis>-<4 random>"
func NewInvoiceNumber() string {
	ts := strings.ToUpper(strconv.FormatInt(time.Now().UnixMilli(), 36))
	return fmt.Sprintf("INV-%s-%s", ts, shortRandom(4))
}

// NewMembershipNumber → "MEM-<base36 millis>-<4 random>"
func NewMembershipNumber() string {
	ts := strings.ToUpper(strconv.FormatInt(time.Now().UnixMilli(), 36))
	return fmt.Sprintf("MEM-%s-%s", ts, shortRandom(4))
}

// MaskEmail returns masked email for safe display in logs.
func MaskEmail(email string) string {
	email = strings.TrimSpace(email)
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return email
	}
	local := parts[0]
	if len(local) > 2 {
		local = local[:1] + strings.Repeat("*", len(local)-2) + local[len(local)-1:]
	} else if len(local) == 2 {
		local = local[:1] + "*"
	}
	return local + "@" + parts[1]
}
