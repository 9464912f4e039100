package dnsadmin

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/haukened/rr-dnsadm/internal/dns/common/clock"
	"github.com/haukened/rr-dnsadm/internal/dns/common/utils"
	"github.com/haukened/rr-dnsadm/internal/dns/domain"
)

// Zone ACL defaults.
const (
	defaultAllowQuery    = "any;"
	defaultAllowTransfer = "none;"
)

// zoneInput holds the parsed zone-level options of zone_add and zone_mod. Pointer and nil
// fields were not given.
type zoneInput struct {
	mname         *string
	mnameGiven    string
	rname         *string
	soa           soaInput
	dynUpdate     *bool
	allowQuery    *string
	allowTransfer *string
	forwarders    []string
	forwardersSet bool
	forwardPolicy *string
	policySet     bool
	ipAddress     string
	force         bool
}

// readZoneInput parses zone options. zone qualifies relative nameserver and mailbox names.
func (s *Service) readZoneInput(o *optionSet, zone string) (*zoneInput, error) {
	in := &zoneInput{}

	if v, ok, err := o.str(domain.AttrSOAMName); err != nil {
		return nil, err
	} else if ok && strings.TrimSpace(v) != "" {
		mname, err := utils.NormalizeName(v, zone)
		if err != nil {
			return nil, &domain.ValidationError{Name: domain.AttrSOAMName, Detail: err.Error()}
		}
		in.mname = &mname
		in.mnameGiven = strings.TrimSpace(v)
	}
	if v, ok, err := o.str(domain.AttrSOARName); err != nil {
		return nil, err
	} else if ok && strings.TrimSpace(v) != "" {
		rname, err := normalizeMailbox(v, zone)
		if err != nil {
			return nil, err
		}
		in.rname = &rname
	}

	var err error
	if in.soa.Serial, err = o.uint(domain.AttrSOASerial); err != nil {
		return nil, err
	}
	if in.soa.Refresh, err = o.uint(domain.AttrSOARefresh); err != nil {
		return nil, err
	}
	if in.soa.Retry, err = o.uint(domain.AttrSOARetry); err != nil {
		return nil, err
	}
	if in.soa.Expire, err = o.uint(domain.AttrSOAExpire); err != nil {
		return nil, err
	}
	if in.soa.Minimum, err = o.uint(domain.AttrSOAMinimum); err != nil {
		return nil, err
	}
	if err := s.check(in.soa); err != nil {
		return nil, err
	}

	if b, ok, err := o.boolean(domain.AttrAllowDynUpdate); err != nil {
		return nil, err
	} else if ok {
		in.dynUpdate = &b
	}
	if in.allowQuery, err = readACL(o, domain.AttrAllowQuery, defaultAllowQuery); err != nil {
		return nil, err
	}
	if in.allowTransfer, err = readACL(o, domain.AttrAllowTransfer, defaultAllowTransfer); err != nil {
		return nil, err
	}

	fwd, err := s.readForwarding(o)
	if err != nil {
		return nil, err
	}
	in.forwarders, in.forwardersSet = fwd.Forwarders, o.has(domain.AttrForwarders)
	in.policySet = o.has(domain.AttrForwardPolicy)
	if in.policySet {
		in.forwardPolicy = &fwd.Policy
	}

	if v, ok, err := o.str("ip_address"); err != nil {
		return nil, err
	} else if ok {
		in.ipAddress = strings.TrimSpace(v)
	}
	if in.force, _, err = o.boolean("force"); err != nil {
		return nil, err
	}
	return in, nil
}

// readForwarding parses and validates idnsforwarders and idnsforwardpolicy.
func (s *Service) readForwarding(o *optionSet) (forwardInput, error) {
	var fwd forwardInput
	list, _, err := o.strs(domain.AttrForwarders)
	if err != nil {
		return fwd, err
	}
	for _, f := range list {
		if f = strings.TrimSpace(f); f != "" {
			fwd.Forwarders = append(fwd.Forwarders, f)
		}
	}
	policy, _, err := o.str(domain.AttrForwardPolicy)
	if err != nil {
		return fwd, err
	}
	fwd.Policy = strings.ToLower(strings.TrimSpace(policy))
	if err := s.check(fwd); err != nil {
		return fwd, err
	}
	fwd.Forwarders = normalizeForwarders(fwd.Forwarders)
	return fwd, nil
}

// readACL normalizes an address match list option. A null value resets it to def.
func readACL(o *optionSet, key, def string) (*string, error) {
	if !o.has(key) {
		return nil, nil
	}
	if o.null(key) {
		o.consume(key)
		return &def, nil
	}
	v, _, err := o.str(key)
	if err != nil {
		return nil, err
	}
	acl, err := utils.NormalizeACL(v)
	if err != nil {
		return nil, &domain.ValidationError{Name: key, Detail: err.Error()}
	}
	return &acl, nil
}

// normalizeMailbox turns an SOA responsible-person value into a domain name. The e-mail form
// user@example.com is accepted and written as user.example.com.
func normalizeMailbox(v, zone string) (string, error) {
	v = strings.TrimSpace(v)
	if local, host, ok := strings.Cut(v, "@"); ok {
		if local == "" || host == "" || strings.Contains(local, ".") {
			return "", &domain.ValidationError{Name: domain.AttrSOARName, Detail: fmt.Sprintf("%q is not a valid mailbox", v)}
		}
		v = local + "." + utils.CanonicalDNSName(host)
	}
	rname, err := utils.NormalizeName(v, zone)
	if err != nil {
		return "", &domain.ValidationError{Name: domain.AttrSOARName, Detail: err.Error()}
	}
	return rname, nil
}

// zoneNameFromOptions resolves the zone name of zone_add from the argument or name_from_ip.
func zoneNameFromOptions(name string, o *optionSet) (string, error) {
	fromIP, ok, err := o.str("name_from_ip")
	if err != nil {
		return "", err
	}
	name = strings.TrimSpace(name)
	if ok && strings.TrimSpace(fromIP) != "" {
		rev, err := utils.ReverseZoneFromCIDR(fromIP)
		if err != nil {
			return "", &domain.ValidationError{Name: "name_from_ip", Detail: "invalid format"}
		}
		if name == "" {
			return rev, nil
		}
		if utils.CanonicalDNSName(name) != rev {
			return "", &domain.ValidationError{
				Name:   "name_from_ip",
				Detail: fmt.Sprintf("zone name %s does not match %s", name, rev),
			}
		}
	}
	if name == "" {
		return "", &domain.RequirementError{Name: domain.AttrName}
	}
	return normalizeZoneName(name)
}

// ZoneAdd creates a zone with its SOA data and an apex NS record for the primary nameserver.
// With ip_address an address record for the nameserver is created as well; otherwise the
// nameserver must already resolve unless force is set.
func (s *Service) ZoneAdd(ctx context.Context, name string, opts map[string]any) (*EntryResult, error) {
	o := newOptionSet(opts)
	zone, err := zoneNameFromOptions(name, o)
	if err != nil {
		return nil, err
	}
	in, err := s.readZoneInput(o, zone)
	if err != nil {
		return nil, err
	}
	if err := o.unknown(); err != nil {
		return nil, err
	}
	if in.mname == nil {
		return nil, &domain.RequirementError{Name: domain.AttrSOAMName}
	}
	if in.rname == nil {
		rname := utils.CanonicalDNSName("hostmaster." + zone)
		in.rname = &rname
	}

	if err := s.Bootstrap(ctx); err != nil {
		return nil, err
	}
	dn := s.zoneDN(zone)
	if _, err := s.dir.Get(ctx, dn); err == nil {
		return nil, &domain.DuplicateEntryError{Message: fmt.Sprintf("DNS zone with name \"%s\" already exists", zone)}
	} else if !errors.Is(err, domain.ErrNoSuchEntry) {
		return nil, err
	}

	var glue *gluePlan
	switch {
	case in.ipAddress != "":
		plan, err := s.planGlue(ctx, *in.mname, in.ipAddress, zone)
		if err != nil {
			return nil, err
		}
		glue = &plan
	case !in.force:
		if err := s.requireGlue(ctx, *in.mname, in.mnameGiven); err != nil {
			return nil, err
		}
	}

	z := domain.Zone{
		Name: zone,
		SOA: domain.SOA{
			MName:  *in.mname,
			RName:  *in.rname,
			Serial: uint32Value(in.soa.Serial, clock.Serial(s.clock)),
			SOATimers: domain.SOATimers{
				Refresh: uint32Value(in.soa.Refresh, s.soa.Refresh),
				Retry:   uint32Value(in.soa.Retry, s.soa.Retry),
				Expire:  uint32Value(in.soa.Expire, s.soa.Expire),
				Minimum: uint32Value(in.soa.Minimum, s.soa.Minimum),
			},
		},
		Active:        true,
		AllowQuery:    stringOr(in.allowQuery, defaultAllowQuery),
		AllowTransfer: stringOr(in.allowTransfer, defaultAllowTransfer),
		Forwarders:    in.forwarders,
	}
	if in.dynUpdate != nil {
		z.AllowDynUpdate = *in.dynUpdate
	}
	if in.forwardPolicy != nil {
		z.ForwardPolicy = *in.forwardPolicy
	}
	if err := s.dir.Add(ctx, z.Entry(dn)); err != nil {
		if errors.Is(err, domain.ErrEntryExists) {
			return nil, &domain.DuplicateEntryError{Message: fmt.Sprintf("DNS zone with name \"%s\" already exists", zone)}
		}
		return nil, err
	}
	s.logger.Info(map[string]any{"zone": zone, "mname": *in.mname, "serial": z.SOA.Serial}, "created DNS zone")

	if glue != nil {
		if err := s.applyGlue(ctx, *glue); err != nil {
			return nil, &domain.SecondaryEffectError{Effect: "nameserver address record creation", Err: err}
		}
	}
	return s.zoneResult(ctx, zone)
}

// ZoneMod changes zone-level attributes. The serial advances unless it is set explicitly.
func (s *Service) ZoneMod(ctx context.Context, name string, opts map[string]any) (*EntryResult, error) {
	o := newOptionSet(opts)
	zone, e, err := s.getZone(ctx, name)
	if err != nil {
		return nil, err
	}
	in, err := s.readZoneInput(o, zone)
	if err != nil {
		return nil, err
	}
	if in.ipAddress != "" {
		return nil, &domain.ValidationError{Name: "ip_address", Detail: "only allowed when a zone is created"}
	}
	if err := o.unknown(); err != nil {
		return nil, err
	}

	var mods []domain.Modification
	set := func(attr string, values ...string) {
		if !sameValues(e.Get(attr), values) {
			mods = append(mods, domain.ReplaceValues(attr, values...))
		}
	}
	if in.mname != nil {
		if !strings.EqualFold(e.First(domain.AttrSOAMName), *in.mname) && !in.force {
			if err := s.requireGlue(ctx, *in.mname, in.mnameGiven); err != nil {
				return nil, err
			}
		}
		set(domain.AttrSOAMName, *in.mname)
	}
	if in.rname != nil {
		set(domain.AttrSOARName, *in.rname)
	}
	for attr, v := range map[string]*uint64{
		domain.AttrSOARefresh: in.soa.Refresh,
		domain.AttrSOARetry:   in.soa.Retry,
		domain.AttrSOAExpire:  in.soa.Expire,
		domain.AttrSOAMinimum: in.soa.Minimum,
	} {
		if v != nil {
			set(attr, domain.FormatUint(uint32(*v)))
		}
	}
	if in.dynUpdate != nil {
		set(domain.AttrAllowDynUpdate, domain.FormatBool(*in.dynUpdate))
	}
	if in.allowQuery != nil {
		set(domain.AttrAllowQuery, *in.allowQuery)
	}
	if in.allowTransfer != nil {
		set(domain.AttrAllowTransfer, *in.allowTransfer)
	}
	if in.forwardersSet {
		set(domain.AttrForwarders, in.forwarders...)
	}
	if in.policySet {
		if *in.forwardPolicy == "" {
			set(domain.AttrForwardPolicy)
		} else {
			set(domain.AttrForwardPolicy, *in.forwardPolicy)
		}
	}
	if in.soa.Serial != nil {
		set(domain.AttrSOASerial, domain.FormatUint(uint32(*in.soa.Serial)))
	}
	if len(mods) == 0 {
		return nil, &domain.EmptyModlistError{}
	}
	if in.soa.Serial == nil {
		mods = append(mods, serialMods(e)...)
	}
	if err := s.modifyChecked(ctx, e.DN, mods); err != nil {
		return nil, err
	}
	s.logger.Info(map[string]any{"zone": zone, "changes": len(mods)}, "modified DNS zone")
	return s.zoneResult(ctx, zone)
}

// ZoneDel removes a zone and every owner entry below it.
func (s *Service) ZoneDel(ctx context.Context, name string) (*EntryResult, error) {
	zone, e, err := s.getZone(ctx, name)
	if err != nil {
		return nil, err
	}
	children, err := s.dir.Search(ctx, domain.SearchRequest{Base: e.DN, Scope: domain.ScopeOneLevel})
	if err != nil {
		return nil, err
	}
	for _, child := range children.Entries {
		if err := s.dir.Delete(ctx, child.DN); err != nil && !errors.Is(err, domain.ErrNoSuchEntry) {
			return nil, err
		}
	}
	if err := s.dir.Delete(ctx, e.DN); err != nil {
		if errors.Is(err, domain.ErrNotLeaf) {
			return nil, &domain.ConflictError{DN: e.DN.String(), Err: err}
		}
		return nil, notFound(err, reasonZoneNotFound)
	}
	s.logger.Info(map[string]any{"zone": zone, "records": len(children.Entries)}, "deleted DNS zone")
	return &EntryResult{Value: zone, Result: failedResult()}, nil
}

// ZoneShow returns the zone entry.
func (s *Service) ZoneShow(ctx context.Context, name string) (*EntryResult, error) {
	zone, e, err := s.getZone(ctx, name)
	if err != nil {
		return nil, err
	}
	return &EntryResult{Value: zone, Result: e}, nil
}

// zoneSearchAttrs are the zone attributes usable as exact-match find options.
var zoneSearchAttrs = []string{
	domain.AttrSOAMName,
	domain.AttrSOARName,
	domain.AttrSOASerial,
	domain.AttrSOARefresh,
	domain.AttrSOARetry,
	domain.AttrSOAExpire,
	domain.AttrSOAMinimum,
	domain.AttrZoneActive,
	domain.AttrAllowDynUpdate,
	domain.AttrAllowQuery,
	domain.AttrAllowTransfer,
	domain.AttrForwarders,
	domain.AttrForwardPolicy,
}

// ZoneFind lists zones in name order. criteria keeps zones whose name contains it; attribute
// options must match exactly; forward_only drops reverse zones.
func (s *Service) ZoneFind(ctx context.Context, criteria string, opts map[string]any) (*FindResult, error) {
	o := newOptionSet(opts)
	filters := []domain.Filter{domain.Equal(domain.AttrObjectClass, domain.ObjectClassZone)}
	if c := strings.ToLower(strings.TrimSpace(criteria)); c != "" {
		filters = append(filters, domain.Substring(domain.AttrName, c))
	}
	if name, ok, err := o.str(domain.AttrName); err != nil {
		return nil, err
	} else if ok && name != "" {
		filters = append(filters, domain.Equal(domain.AttrName, utils.CanonicalDNSName(name)))
	}
	for _, attr := range zoneSearchAttrs {
		v, ok, err := o.str(attr)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		switch attr {
		case domain.AttrSOAMName, domain.AttrSOARName:
			v = utils.CanonicalDNSName(v)
		case domain.AttrZoneActive, domain.AttrAllowDynUpdate:
			b, _ := strconv.ParseBool(strings.TrimSpace(v))
			v = domain.FormatBool(b)
		}
		filters = append(filters, domain.Equal(attr, v))
	}
	forwardOnly, _, err := o.boolean("forward_only")
	if err != nil {
		return nil, err
	}
	if forwardOnly {
		filters = append(filters, domain.FilterFunc(func(e domain.Entry) bool {
			return !utils.IsReverseZone(e.First(domain.AttrName))
		}))
	}
	limit, err := o.uint("sizelimit")
	if err != nil {
		return nil, err
	}
	if err := o.unknown(); err != nil {
		return nil, err
	}

	req := domain.SearchRequest{
		Base:      s.container,
		Scope:     domain.ScopeOneLevel,
		Filter:    domain.And(filters...),
		SizeLimit: s.sizeLimit,
	}
	if limit != nil {
		req.SizeLimit = int(*limit)
	}
	found, err := s.dir.Search(ctx, req)
	if err != nil {
		return nil, err
	}
	res := &FindResult{Count: len(found.Entries), Truncated: found.Truncated, Result: found.Entries}
	if res.Result == nil {
		res.Result = []domain.Entry{}
	}
	return res, nil
}

// ZoneEnable marks a zone active.
func (s *Service) ZoneEnable(ctx context.Context, name string) (*EntryResult, error) {
	return s.setZoneActive(ctx, name, true)
}

// ZoneDisable marks a zone inactive; its data is kept.
func (s *Service) ZoneDisable(ctx context.Context, name string) (*EntryResult, error) {
	return s.setZoneActive(ctx, name, false)
}

func (s *Service) setZoneActive(ctx context.Context, name string, active bool) (*EntryResult, error) {
	zone, e, err := s.getZone(ctx, name)
	if err != nil {
		return nil, err
	}
	verb := "Disabled"
	if active {
		verb = "Enabled"
	}
	if domain.ParseBool(e.First(domain.AttrZoneActive)) != active {
		mods := append([]domain.Modification{
			domain.ReplaceValues(domain.AttrZoneActive, domain.FormatBool(active)),
		}, serialMods(e)...)
		if err := s.modifyChecked(ctx, e.DN, mods); err != nil {
			return nil, err
		}
		s.logger.Info(map[string]any{"zone": zone, "active": active}, "changed DNS zone state")
	}
	return &EntryResult{
		Value:   zone,
		Summary: summary("%s DNS zone \"%s\"", verb, zone),
		Result:  true,
	}, nil
}

func (s *Service) zoneResult(ctx context.Context, zone string) (*EntryResult, error) {
	e, err := s.dir.Get(ctx, s.zoneDN(zone))
	if err != nil {
		return nil, notFound(err, reasonZoneNotFound)
	}
	return &EntryResult{Value: zone, Result: e}, nil
}

func stringOr(p *string, def string) string {
	if p == nil {
		return def
	}
	return *p
}
