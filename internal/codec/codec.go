// Package codec converts list membership and view metadata to and from the
// compact delimited strings stored in the host save document.
//
// A partition string is a comma separated list of entries, each of the form
//
//	{id}|{pin slot or N}|{details visible}
//
// Decoding is lenient: a malformed entry is logged and skipped so that one bad
// token never discards the rest of a list.
package codec

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/robby/cwp/internal/domain"
)

const (
	entrySep = ","
	fieldSep = "|"

	// Unpinned is the pin field sentinel for members without a pin slot.
	Unpinned = "N"
)

var (
	// ErrFieldCount indicates an entry without exactly three fields.
	ErrFieldCount = errors.New("entry must have 3 fields")
	// ErrBool indicates a boolean field that is neither true nor false.
	ErrBool = errors.New("invalid boolean")
)

// Entry is the persisted state of one list member.
type Entry struct {
	ID             domain.ItemID
	Pin            *int // nil when unpinned
	DetailsVisible bool
}

// Pinned reports whether the entry carries a pin slot.
func (e Entry) Pinned() bool {
	return e.Pin != nil
}

// Slot returns a pointer to a copy of v, for building pinned entries.
func Slot(v int) *int {
	return &v
}

// Encode joins entries into a partition string. An empty slice encodes to "".
func Encode(entries []Entry) string {
	if len(entries) == 0 {
		return ""
	}

	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		pin := Unpinned
		if e.Pin != nil {
			pin = strconv.Itoa(*e.Pin)
		}
		parts = append(parts, e.ID.String()+fieldSep+pin+fieldSep+FormatBool(e.DetailsVisible))
	}
	return strings.Join(parts, entrySep)
}

// Decode parses a partition string. Entries that cannot be parsed are logged
// at warn level and skipped; the remaining entries are returned in textual order.
func Decode(s string, log zerolog.Logger) []Entry {
	if strings.TrimSpace(s) == "" {
		return nil
	}

	tokens := strings.Split(s, entrySep)
	entries := make([]Entry, 0, len(tokens))
	for _, token := range tokens {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}

		e, err := decodeEntry(token, log)
		if err != nil {
			log.Warn().Err(err).Str("entry", token).Msg("skipping malformed list entry")
			continue
		}
		entries = append(entries, e)
	}
	return entries
}

func decodeEntry(token string, log zerolog.Logger) (Entry, error) {
	fields := strings.Split(token, fieldSep)
	if len(fields) != 3 {
		return Entry{}, fmt.Errorf("%w: got %d", ErrFieldCount, len(fields))
	}

	id, err := uuid.Parse(strings.TrimSpace(fields[0]))
	if err != nil {
		return Entry{}, fmt.Errorf("invalid id: %w", err)
	}

	visible, err := ParseBool(fields[2])
	if err != nil {
		return Entry{}, err
	}

	e := Entry{ID: id, DetailsVisible: visible}

	pin := strings.TrimSpace(fields[1])
	if pin != Unpinned {
		slot, err := strconv.Atoi(pin)
		if err != nil || slot < 0 {
			log.Warn().Str("id", id.String()).Str("pin", pin).Msg("invalid pin slot, treating as unpinned")
		} else {
			e.Pin = &slot
		}
	}

	return e, nil
}

// FormatBool renders a boolean the way the host document stores it.
func FormatBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

// ParseBool accepts "true" or "false" in any letter case, ignoring surrounding whitespace.
func ParseBool(s string) (bool, error) {
	s = strings.TrimSpace(s)
	switch {
	case strings.EqualFold(s, "true"):
		return true, nil
	case strings.EqualFold(s, "false"):
		return false, nil
	default:
		return false, fmt.Errorf("%w: %q", ErrBool, s)
	}
}

// EncodeIDs joins identifiers with commas.
func EncodeIDs(ids []uuid.UUID) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, id.String())
	}
	return strings.Join(parts, entrySep)
}

// DecodeIDs parses a comma-joined identifier string, skipping invalid tokens
// with a warning.
func DecodeIDs(s string, log zerolog.Logger) []uuid.UUID {
	var ids []uuid.UUID
	for _, token := range strings.Split(s, entrySep) {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		id, err := uuid.Parse(token)
		if err != nil {
			log.Warn().Err(err).Str("token", token).Msg("skipping invalid association id")
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// EncodeInts joins integers with commas.
func EncodeInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, entrySep)
}

// DecodeInts parses a comma-joined integer string. Empty tokens are ignored;
// any other malformed token fails the whole string.
func DecodeInts(s string) ([]int, error) {
	var values []int
	for _, token := range strings.Split(s, entrySep) {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		v, err := strconv.Atoi(token)
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q: %w", token, err)
		}
		values = append(values, v)
	}
	return values, nil
}

// EncodeBools joins booleans with commas.
func EncodeBools(values []bool) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = FormatBool(v)
	}
	return strings.Join(parts, entrySep)
}

// DecodeBools parses a comma-joined boolean string. Empty tokens are ignored;
// any other malformed token fails the whole string.
func DecodeBools(s string) ([]bool, error) {
	var values []bool
	for _, token := range strings.Split(s, entrySep) {
		if strings.TrimSpace(token) == "" {
			continue
		}
		v, err := ParseBool(token)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, nil
}
