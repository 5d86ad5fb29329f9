package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/dshills/shipshape/internal/findings"
	"github.com/dshills/shipshape/internal/reportmeta"
)

// Key scopes for the two independent blob stores.
const (
	OverridesScope = "overrides"
	MetaScope      = "meta"
)

// Report pairs the override and metadata stores for one backend.
type Report struct {
	Overrides Store
	Meta      Store
}

// ForBackend splits s into the override and metadata scopes.
func ForBackend(s Store) Report {
	return Report{
		Overrides: Scoped(s, OverridesScope),
		Meta:      Scoped(s, MetaScope),
	}
}

// ErrMalformedOverrides is returned by UpdateOverrides when the stored blob
// could not be read in full. Writing back would drop the unreadable entries.
var ErrMalformedOverrides = errors.New("store: stored overrides are malformed")

// readOverrides decodes the blob for reportID. intact is false when any part
// of a stored blob was unreadable.
func readOverrides(ctx context.Context, s Store, reportID string, log zerolog.Logger) (ov findings.Overrides, intact bool, err error) {
	empty := findings.Overrides{Entries: map[string]findings.Override{}}
	data, err := s.Get(ctx, reportID)
	if errors.Is(err, ErrNotFound) {
		return empty, true, nil
	}
	if err != nil {
		return empty, false, err
	}
	ov, problems, err := findings.DecodeOverrides(data)
	if err != nil {
		log.Warn().Err(err).Str("report_id", reportID).Msg("malformed override blob, using empty overrides")
		return ov, false, nil
	}
	for _, p := range problems {
		log.Warn().Str("report_id", reportID).Str("path", p.Path).Str("problem", p.Message).Msg("malformed override entry skipped")
	}
	return ov, len(problems) == 0, nil
}

// LoadOverrides returns the override set stored for reportID. A missing
// blob is an empty set. Unreadable entries are logged and skipped; a
// malformed blob or a read failure is logged and treated as empty.
func LoadOverrides(ctx context.Context, s Store, reportID string, log zerolog.Logger) findings.Overrides {
	ov, _, err := readOverrides(ctx, s, reportID, log)
	if err != nil {
		log.Warn().Err(err).Str("report_id", reportID).Msg("override store read failed, using empty overrides")
	}
	return ov
}

// SaveOverrides writes ov for reportID.
func SaveOverrides(ctx context.Context, s Store, reportID string, ov findings.Overrides) error {
	data, err := ov.Encode()
	if err != nil {
		return fmt.Errorf("store.SaveOverrides: %w", err)
	}
	if err := s.Set(ctx, reportID, data); err != nil {
		return fmt.Errorf("store.SaveOverrides: %w", err)
	}
	return nil
}

// UpdateOverrides reads, transforms and writes back the override set. It
// refuses to write when the stored blob could not be read in full, and does
// not guard against a concurrent writer; the later write wins.
func UpdateOverrides(ctx context.Context, s Store, reportID string, log zerolog.Logger, fn func(findings.Overrides) findings.Overrides) (findings.Overrides, error) {
	ov, intact, err := readOverrides(ctx, s, reportID, log)
	if err != nil {
		return ov, fmt.Errorf("store.UpdateOverrides: %w", err)
	}
	if !intact {
		return ov, fmt.Errorf("store.UpdateOverrides: %s: %w", reportID, ErrMalformedOverrides)
	}
	ov = fn(ov)
	return ov, SaveOverrides(ctx, s, reportID, ov)
}

// LoadMeta returns the metadata stored for reportID, or the defaults when
// the blob is missing, unreadable or malformed.
func LoadMeta(ctx context.Context, s Store, reportID string, log zerolog.Logger) reportmeta.Meta {
	data, err := s.Get(ctx, reportID)
	if errors.Is(err, ErrNotFound) {
		return reportmeta.Default()
	}
	if err != nil {
		log.Warn().Err(err).Str("report_id", reportID).Msg("metadata store read failed, using defaults")
		return reportmeta.Default()
	}
	m, err := reportmeta.Decode(data)
	if err != nil {
		log.Warn().Err(err).Str("report_id", reportID).Msg("malformed metadata blob, using defaults")
	}
	return m
}

// SaveMeta writes m for reportID.
func SaveMeta(ctx context.Context, s Store, reportID string, m reportmeta.Meta) error {
	data, err := m.Encode()
	if err != nil {
		return fmt.Errorf("store.SaveMeta: %w", err)
	}
	if err := s.Set(ctx, reportID, data); err != nil {
		return fmt.Errorf("store.SaveMeta: %w", err)
	}
	return nil
}
