package convert

import (
	"strings"
	"time"
)

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02",
	time.RFC1123,
	time.RFC1123Z,
}

// ParseDateTime accepts RFC 3339 and the common date layouts. Layouts
// without a zone are read in local time.
func ParseDateTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if d, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return d, true
		}
	}
	return time.Time{}, false
}

// dateTokens maps custom format tokens (yyyy-MM-dd HH:mm:ss style) to Go
// layout fragments.
var dateTokens = map[string]string{
	"yyyy": "2006",
	"yy":   "06",
	"MMMM": "January",
	"MMM":  "Jan",
	"MM":   "01",
	"M":    "1",
	"dddd": "Monday",
	"ddd":  "Mon",
	"dd":   "02",
	"d":    "2",
	"HH":   "15",
	"hh":   "03",
	"h":    "3",
	"mm":   "04",
	"m":    "4",
	"ss":   "05",
	"s":    "5",
	"tt":   "PM",
	"zzz":  "-07:00",
	"zz":   "-07",
}

// FormatTime renders t with a yyyy-MM-dd HH:mm:ss style format. Runs of
// f are fractional seconds, text in single quotes is literal, and any other
// character is copied as is.
func FormatTime(t time.Time, format string) string {
	var sb strings.Builder
	for i := 0; i < len(format); {
		c := format[i]
		if c == '\'' {
			end := strings.IndexByte(format[i+1:], '\'')
			if end < 0 {
				sb.WriteString(format[i+1:])
				break
			}
			sb.WriteString(format[i+1 : i+1+end])
			i += end + 2
			continue
		}

		j := i
		for j < len(format) && format[j] == c {
			j++
		}
		run := format[i:j]

		if c == 'f' {
			frac := t.Format("." + strings.Repeat("0", min(len(run), 9)))
			sb.WriteString(frac[1:])
			i = j
			continue
		}

		if layout, ok := longestToken(run); ok {
			sb.WriteString(t.Format(layout))
			i += len(longestPrefix(run))
			continue
		}

		sb.WriteByte(c)
		i++
	}
	return sb.String()
}

func longestPrefix(run string) string {
	for n := len(run); n > 0; n-- {
		if _, ok := dateTokens[run[:n]]; ok {
			return run[:n]
		}
	}
	return ""
}

func longestToken(run string) (string, bool) {
	p := longestPrefix(run)
	if p == "" {
		return "", false
	}
	return dateTokens[p], true
}
