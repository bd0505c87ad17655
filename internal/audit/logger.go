// Package audit writes auth business events to the structured log.
package audit

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"
)

// Logger provides structured audit logging for auth business events.
type Logger struct {
	log zerolog.Logger
}

func New(log zerolog.Logger) *Logger {
	return &Logger{
		log: log.With().Bool("audit", true).Logger(),
	}
}

// Record logs one action emitted by the auth service. Rejections and
// failures are warnings; the email field is masked.
func (l *Logger) Record(action string, fields map[string]string) {
	ev := l.log.Info()
	if isFailure(action) {
		ev = l.log.Warn()
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		v := fields[k]
		if k == "email" {
			v = maskEmail(v)
		}
		ev = ev.Str(k, v)
	}
	ev.Str("action", action).Msg("auth event")
}

func isFailure(action string) bool {
	return strings.HasSuffix(action, ".failed") ||
		strings.HasSuffix(action, ".rejected") ||
		strings.HasSuffix(action, ".event_failed")
}

// maskEmail keeps the first two characters and the domain. Values without
// an @ (login identifiers that are usernames) keep only the prefix.
func maskEmail(email string) string {
	if utf8.RuneCountInString(email) < 5 {
		return "***"
	}
	local, domain := email, ""
	if at := strings.IndexByte(email, '@'); at >= 0 {
		local, domain = email[:at], email[at:]
	}
	return runePrefix(local, 2) + "***" + domain
}

// runePrefix returns at most n leading runes of s.
func runePrefix(s string, n int) string {
	for i := range s {
		if n == 0 {
			return s[:i]
		}
		n--
	}
	return s
}
