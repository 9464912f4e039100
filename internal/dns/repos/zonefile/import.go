package zonefile

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/multierr"

	"github.com/haukened/rr-dnsadm/internal/dns/common/log"
	"github.com/haukened/rr-dnsadm/internal/dns/domain"
	"github.com/haukened/rr-dnsadm/internal/dns/services/dnsadmin"
)

// Stats summarizes one import run.
type Stats struct {
	ZonesCreated  int
	ZonesExisting int
	OwnersChanged int
	Failures      int
}

// Importer applies loaded zones through the admin command surface.
type Importer struct {
	handler dnsadmin.CommandHandler
	logger  log.Logger
}

// NewImporter returns an importer executing commands on handler.
func NewImporter(handler dnsadmin.CommandHandler, logger log.Logger) *Importer {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &Importer{handler: handler, logger: logger}
}

// Import creates each zone that does not exist yet and adds its record values. Values already
// present are skipped, so importing the same files twice changes nothing. Failures are collected
// and the remaining zones and owners are still imported.
func (im *Importer) Import(ctx context.Context, zones []Zone) (Stats, error) {
	var stats Stats
	var errs error

	for _, z := range zones {
		if err := ctx.Err(); err != nil {
			return stats, multierr.Append(errs, err)
		}
		created, err := im.ensureZone(ctx, z)
		if err != nil {
			stats.Failures++
			errs = multierr.Append(errs, fmt.Errorf("zone %s: %w", z.Name, err))
			continue
		}
		if created {
			stats.ZonesCreated++
		} else {
			stats.ZonesExisting++
		}

		for _, owner := range z.OwnerNames() {
			changed, err := im.addOwner(ctx, z, owner)
			if err != nil {
				stats.Failures++
				errs = multierr.Append(errs, fmt.Errorf("zone %s owner %s: %w", z.Name, owner, err))
				continue
			}
			if changed {
				stats.OwnersChanged++
			}
		}
	}

	im.logger.Info(map[string]any{
		"zones_created":  stats.ZonesCreated,
		"zones_existing": stats.ZonesExisting,
		"owners_changed": stats.OwnersChanged,
		"failures":       stats.Failures,
	}, "zone import finished")
	return stats, errs
}

// ensureZone runs zone_add and reports whether the zone was created.
func (im *Importer) ensureZone(ctx context.Context, z Zone) (bool, error) {
	opts := make(map[string]any, len(z.Options)+1)
	for k, v := range z.Options {
		opts[k] = v
	}
	if _, ok := opts["force"]; !ok {
		opts["force"] = true
	}

	_, err := im.handler.Execute(ctx, "zone_add", []string{z.Name}, opts)
	var dup *domain.DuplicateEntryError
	switch {
	case err == nil:
		im.logger.Debug(map[string]any{"zone": z.Name, "files": z.Files}, "imported zone created")
		return true, nil
	case errors.As(err, &dup):
		return false, nil
	}
	return false, err
}

// addOwner runs record_add with every record type of owner at once.
func (im *Importer) addOwner(ctx context.Context, z Zone, owner string) (bool, error) {
	opts := map[string]any{"force": true}
	for t, values := range z.Owners[owner] {
		opts[t.Attribute()] = values
	}

	_, err := im.handler.Execute(ctx, "record_add", []string{z.Name, owner}, opts)
	var empty *domain.EmptyModlistError
	if errors.As(err, &empty) {
		return false, nil
	}
	return err == nil, err
}
