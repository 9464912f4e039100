package dnsadmin

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/haukened/rr-dnsadm/internal/dns/common/clock"
	"github.com/haukened/rr-dnsadm/internal/dns/common/log"
	"github.com/haukened/rr-dnsadm/internal/dns/common/utils"
	"github.com/haukened/rr-dnsadm/internal/dns/domain"
)

// Not-found reasons reported to callers.
const (
	reasonZoneNotFound   = "DNS zone not found"
	reasonRecordNotFound = "DNS resource record not found"
)

// Service is the zone and record management engine. It validates and normalizes commands and
// turns them into directory operations; it holds no state of its own between calls.
type Service struct {
	dir       Directory
	logger    log.Logger
	clock     clock.Clock
	container domain.DN
	soa       domain.SOATimers
	sizeLimit int
	glue      GlueResolver
	validate  *validator.Validate
}

// Options configures a Service. Directory and BaseDN are required.
type Options struct {
	Directory Directory
	Logger    log.Logger
	Clock     clock.Clock
	// BaseDN is the directory suffix; zones live below cn=dns,<BaseDN>.
	BaseDN domain.DN
	// SOADefaults apply to zone_add when a timer is not given. Zero value means DefaultSOATimers.
	SOADefaults domain.SOATimers
	// SizeLimit caps find results; 0 is unlimited.
	SizeLimit int
	// Glue, when set, is asked for nameserver addresses the directory does not hold.
	Glue GlueResolver
}

// New builds a Service from opts.
func New(opts Options) (*Service, error) {
	if opts.Directory == nil {
		return nil, errors.New("dnsadmin: directory is required")
	}
	if len(opts.BaseDN) == 0 {
		return nil, errors.New("dnsadmin: base DN is required")
	}
	if opts.Logger == nil {
		opts.Logger = log.NewNoopLogger()
	}
	if opts.Clock == nil {
		opts.Clock = clock.RealClock{}
	}
	if opts.SOADefaults == (domain.SOATimers{}) {
		opts.SOADefaults = domain.DefaultSOATimers
	}
	return &Service{
		dir:       opts.Directory,
		logger:    opts.Logger,
		clock:     opts.Clock,
		container: opts.BaseDN.Child(domain.AttrCN, "dns"),
		soa:       opts.SOADefaults,
		sizeLimit: opts.SizeLimit,
		glue:      opts.Glue,
		validate:  newValidator(),
	}, nil
}

// Bootstrap creates the cn=dns container, which also holds the global configuration, if it
// does not exist yet.
func (s *Service) Bootstrap(ctx context.Context) error {
	_, err := s.dir.Get(ctx, s.container)
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrNoSuchEntry) {
		return err
	}
	e := domain.NewEntry(s.container)
	e.Set(domain.AttrObjectClass, domain.ContainerObjectClasses()...)
	e.Set(domain.AttrCN, "dns")
	if err := s.dir.Add(ctx, e); err != nil && !errors.Is(err, domain.ErrEntryExists) {
		return err
	}
	s.logger.Info(map[string]any{"dn": s.container.String()}, "created DNS container")
	return nil
}

// Container returns the DN of the cn=dns container.
func (s *Service) Container() domain.DN {
	return s.container
}

func (s *Service) zoneDN(zone string) domain.DN {
	return s.container.Child(domain.AttrName, zone)
}

// ownerDN returns the entry holding the records of owner; the apex lives on the zone entry.
func (s *Service) ownerDN(zone, owner string) domain.DN {
	if owner == domain.ApexName {
		return s.zoneDN(zone)
	}
	return s.zoneDN(zone).Child(domain.AttrName, owner)
}

// normalizeZoneName validates a zone name and returns its absolute lowercase form.
func normalizeZoneName(name string) (string, error) {
	zone, err := utils.NormalizeName(name, "")
	if err != nil {
		return "", &domain.ValidationError{Name: domain.AttrName, Detail: err.Error()}
	}
	return zone, nil
}

// getZone loads the zone entry for name.
func (s *Service) getZone(ctx context.Context, name string) (string, domain.Entry, error) {
	zone, err := normalizeZoneName(name)
	if err != nil {
		return "", domain.Entry{}, err
	}
	e, err := s.dir.Get(ctx, s.zoneDN(zone))
	if err != nil {
		return "", domain.Entry{}, notFound(err, reasonZoneNotFound)
	}
	if !e.ContainsValue(domain.AttrObjectClass, domain.ObjectClassZone) {
		return "", domain.Entry{}, &domain.NotFoundError{Reason: reasonZoneNotFound}
	}
	return zone, e, nil
}

// findZone returns the most specific managed zone that contains fqdn.
func (s *Service) findZone(ctx context.Context, fqdn string) (string, domain.Entry, bool, error) {
	for _, candidate := range utils.EnclosingNames(fqdn) {
		e, err := s.dir.Get(ctx, s.zoneDN(candidate))
		if errors.Is(err, domain.ErrNoSuchEntry) {
			continue
		}
		if err != nil {
			return "", domain.Entry{}, false, err
		}
		if e.ContainsValue(domain.AttrObjectClass, domain.ObjectClassZone) {
			return candidate, e, true, nil
		}
	}
	return "", domain.Entry{}, false, nil
}

// notFound maps a missing entry to a NotFoundError with reason; other errors pass through.
func notFound(err error, reason string) error {
	if errors.Is(err, domain.ErrNoSuchEntry) {
		return &domain.NotFoundError{Reason: reason}
	}
	return err
}

// modifyChecked applies mods that were computed from a prior read of dn. A missing or already
// present value then means another writer got there first.
func (s *Service) modifyChecked(ctx context.Context, dn domain.DN, mods []domain.Modification) error {
	err := s.dir.Modify(ctx, dn, mods)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrNoSuchValue), errors.Is(err, domain.ErrValueExists), errors.Is(err, domain.ErrNoSuchEntry):
		return &domain.ConflictError{DN: dn.String(), Err: err}
	default:
		return err
	}
}

// serialMods returns the compare-and-set modifications that move zone's serial to the next
// value. Applied together with other changes they make the whole write fail if the serial
// moved since zone was read.
func serialMods(zone domain.Entry) []domain.Modification {
	cur := zone.First(domain.AttrSOASerial)
	v, err := domain.ParseUint(cur)
	if cur == "" || err != nil {
		return []domain.Modification{domain.ReplaceValues(domain.AttrSOASerial, domain.FormatUint(1))}
	}
	return []domain.Modification{
		domain.DeleteValues(domain.AttrSOASerial, cur),
		domain.AddValues(domain.AttrSOASerial, domain.FormatUint(domain.NextSerial(v))),
	}
}

// bumpSerial advances the serial of zone after a change to one of its non-apex records.
func (s *Service) bumpSerial(ctx context.Context, zone string) error {
	dn := s.zoneDN(zone)
	e, err := s.dir.Get(ctx, dn)
	if err != nil {
		return notFound(err, reasonZoneNotFound)
	}
	if err := s.modifyChecked(ctx, dn, serialMods(e)); err != nil {
		s.logger.Warn(map[string]any{"zone": zone, "error": err.Error()}, "zone serial update failed")
		return err
	}
	return nil
}

// EntryResult is the envelope of single-entry commands.
type EntryResult struct {
	Value   string  `json:"value"`
	Summary *string `json:"summary"`
	Result  any     `json:"result"`
}

// FindResult is the envelope of search commands.
type FindResult struct {
	Count     int            `json:"count"`
	Truncated bool           `json:"truncated"`
	Summary   *string        `json:"summary"`
	Result    []domain.Entry `json:"result"`
}

// failedResult marks a successful deletion.
func failedResult() map[string]string {
	return map[string]string{"failed": ""}
}

func summary(format string, args ...any) *string {
	s := fmt.Sprintf(format, args...)
	return &s
}
