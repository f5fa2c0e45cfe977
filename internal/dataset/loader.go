package dataset

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"salesinsight/internal/catalog"
	"salesinsight/internal/synth"
	"salesinsight/internal/weblog"
)

// Loader resolves the dataset file into a Snapshot:
//
//	no file             -> generate and write
//	file, valid         -> load
//	file, invalid       -> discard, generate and overwrite
//
// There is no partial repair; an invalid file is always fully replaced.
type Loader struct {
	Path      string
	Catalog   *catalog.Catalog
	Generator synth.Generator
	// Records is the number of events to synthesize.
	Records int
	Gap     time.Duration
}

// Load runs the load state machine once.
func (l *Loader) Load() (*Snapshot, error) {
	events, dropped, err := ReadFile(l.Path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		log.Info().Str("path", l.Path).Msg("no dataset found, generating synthetic data")
		return l.generate(SourceGenerated, "")
	case errors.Is(err, ErrMissingColumns), errors.Is(err, ErrMalformed):
		log.Warn().Err(err).Str("path", l.Path).Msg("invalid dataset, regenerating")
		return l.generate(SourceRegenerated, NoticeInvalid)
	case err != nil:
		return nil, fmt.Errorf("read dataset %s: %w", l.Path, err)
	}

	if dropped > 0 {
		log.Warn().Int("dropped", dropped).Str("path", l.Path).Msg("dropped rows with unparseable timestamps")
	}
	snap := l.snapshot(events, SourceLoaded, "")
	snap.DroppedRows = dropped
	return snap, nil
}

// Regenerate replaces the dataset with fresh synthetic data regardless of
// the current file.
func (l *Loader) Regenerate() (*Snapshot, error) {
	return l.generate(SourceRegenerated, "")
}

func (l *Loader) generate(src Source, notice string) (*Snapshot, error) {
	events := l.Generator.Generate(l.Records)
	if err := WriteFile(l.Path, events); err != nil {
		return nil, fmt.Errorf("write dataset %s: %w", l.Path, err)
	}
	return l.snapshot(events, src, notice), nil
}

func (l *Loader) snapshot(events []weblog.Event, src Source, notice string) *Snapshot {
	records, summaries := Derive(events, l.Catalog, l.Gap)
	return &Snapshot{
		ID:       uuid.NewString(),
		LoadedAt: time.Now(),
		Source:   src,
		Notice:   notice,
		Path:     l.Path,
		Records:  records,
		Sessions: summaries,
	}
}
