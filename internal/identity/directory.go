package identity

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// Lister bulk-loads user display names, typically from the Zendesk user API.
type Lister interface {
	ListUsers(ctx context.Context) (map[int64]string, error)
}

// Directory resolves assignee ids to display names. Built once per run; a
// failed build degrades to raw identifiers instead of aborting the report.
type Directory struct {
	names map[int64]string
}

func NewDirectory(names map[int64]string) *Directory {
	if names == nil {
		names = make(map[int64]string)
	}
	return &Directory{names: names}
}

func Build(ctx context.Context, lister Lister, log zerolog.Logger) *Directory {
	names, err := lister.ListUsers(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("user directory unavailable, falling back to raw ids")
		return NewDirectory(nil)
	}
	log.Debug().Int("users", len(names)).Msg("user directory loaded")
	return NewDirectory(names)
}

// Resolve returns the display name for an id, reporting whether it is known.
func (d *Directory) Resolve(id int64) (string, bool) {
	name, ok := d.names[id]
	return name, ok
}

// DisplayName always returns something printable, using the raw id when the
// directory has no entry.
func (d *Directory) DisplayName(id int64) string {
	if name, ok := d.names[id]; ok {
		return name
	}
	return fmt.Sprintf("user-%d", id)
}
