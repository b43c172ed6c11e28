package duration

import (
	"fmt"
	"strconv"
	"strings"
)

// ToRouterOS converts a colon separated duration into the limit-uptime
// syntax understood by RouterOS:
//
//	DD:HH:MM:SS -> {D}d{HH}:{MM}:{SS} (or HH:MM:SS when D is 0)
//	HH:MM:SS    -> zero padded HH:MM:SS
//	MM:SS       -> 00:MM:SS
//
// Any other input, including fields that are not unsigned integers, is returned as-is
// so RouterOS can decide (it accepts "1h", "1d", "30m" natively).
func ToRouterOS(raw string) string {
	s := strings.TrimSpace(raw)
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 4 {
		return raw
	}

	fields := make([]int, len(parts))
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if !unsigned(p) {
			return raw
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return raw
		}
		fields[i] = n
	}

	switch len(fields) {
	case 4:
		days, h, m, sec := fields[0], fields[1], fields[2], fields[3]
		if days > 0 {
			return fmt.Sprintf("%dd%02d:%02d:%02d", days, h, m, sec)
		}
		return fmt.Sprintf("%02d:%02d:%02d", h, m, sec)
	case 3:
		return fmt.Sprintf("%02d:%02d:%02d", fields[0], fields[1], fields[2])
	default:
		return fmt.Sprintf("00:%02d:%02d", fields[0], fields[1])
	}
}

// unsigned reports whether s is a non-empty run of ASCII digits.
func unsigned(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
