package dnsadmin

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/haukened/rr-dnsadm/internal/dns/common/rrdata"
	"github.com/haukened/rr-dnsadm/internal/dns/common/utils"
	"github.com/haukened/rr-dnsadm/internal/dns/domain"
)

// typeInput collects the options given for one record type.
type typeInput struct {
	t        domain.RRType
	raw      []string
	rawGiven bool
	parts    rrdata.Parts
	reverse  bool
}

// collectRecordInput reads <type>record, <type>_part_<name> and <type>_extra_create_reverse
// options, in type code order.
func collectRecordInput(o *optionSet) ([]*typeInput, error) {
	var out []*typeInput
	for _, t := range domain.SupportedRRTypes() {
		in := &typeInput{t: t}
		if o.has(t.Attribute()) {
			vals, _, err := o.strs(t.Attribute())
			if err != nil {
				return nil, err
			}
			in.rawGiven = true
			for _, v := range vals {
				if strings.TrimSpace(v) != "" {
					in.raw = append(in.raw, v)
				}
			}
		}
		for _, part := range rrdata.PartNames(t) {
			key := rrdata.PartOption(t, part)
			if !o.has(key) {
				continue
			}
			vals, _, err := o.strs(key)
			if err != nil {
				return nil, err
			}
			if in.parts == nil {
				in.parts = make(rrdata.Parts)
			}
			in.parts[part] = strings.TrimSpace(strings.Join(vals, " "))
		}
		if t == domain.RRTypeA || t == domain.RRTypeAAAA {
			rev, given, err := o.boolean(t.Option() + "_extra_create_reverse")
			if err != nil {
				return nil, err
			}
			in.reverse = given && rev
		}
		if in.rawGiven || in.parts != nil {
			out = append(out, in)
		}
	}
	return out, nil
}

// normalizeOwner returns owner relative to zone; "@" and the zone name denote the apex.
func normalizeOwner(owner, zone string) (string, error) {
	owner = strings.TrimSpace(owner)
	if owner == "" {
		return "", &domain.RequirementError{Name: domain.AttrName}
	}
	if utils.CanonicalDNSName(owner) == zone {
		return domain.ApexName, nil
	}
	fqdn, err := utils.NormalizeName(owner, zone)
	if err != nil {
		return "", &domain.ValidationError{Name: domain.AttrName, Detail: err.Error()}
	}
	rel, ok := utils.RelativeName(fqdn, zone)
	if !ok {
		return "", &domain.ValidationError{Name: domain.AttrName, Detail: fmt.Sprintf("%s is not in zone %s", fqdn, zone)}
	}
	return rel, nil
}

// ownerFQDN returns the absolute name of owner in zone.
func ownerFQDN(owner, zone string) string {
	if owner == domain.ApexName {
		return zone
	}
	return utils.CanonicalDNSName(owner + "." + zone)
}

// nameserverFQDN qualifies an NS target against zone for the glue check.
func nameserverFQDN(target, zone string) string {
	if utils.IsAbsolute(target) {
		return utils.CanonicalDNSName(target)
	}
	return utils.CanonicalDNSName(target + "." + zone)
}

func newOwnerEntry(dn domain.DN, owner string) domain.Entry {
	e := domain.NewEntry(dn)
	e.Set(domain.AttrObjectClass, domain.RecordObjectClasses()...)
	e.Set(domain.AttrName, owner)
	return e
}

// recordView is the entry shape returned by add, mod, show and partial delete: the DN, object
// classes, name and record attributes. Zone-level attributes of the apex are left out.
func recordView(e domain.Entry) domain.Entry {
	out := domain.NewEntry(e.DN)
	out.Set(domain.AttrObjectClass, e.Get(domain.AttrObjectClass)...)
	out.Set(domain.AttrName, e.Get(domain.AttrName)...)
	for _, attr := range domain.RecordAttributes() {
		out.Set(attr, e.Get(attr)...)
	}
	return out
}

// findView is the shorter shape of record_find, with the apex shown as "@".
func findView(e domain.Entry, apex bool) domain.Entry {
	out := domain.NewEntry(e.DN)
	if apex {
		out.Set(domain.AttrName, domain.ApexName)
	} else {
		out.Set(domain.AttrName, e.Get(domain.AttrName)...)
	}
	for _, attr := range domain.RecordAttributes() {
		out.Set(attr, e.Get(attr)...)
	}
	return out
}

// loadOwner returns the entry holding owner's records.
func (s *Service) loadOwner(ctx context.Context, zone string, zoneEntry domain.Entry, owner string) (domain.Entry, error) {
	if owner == domain.ApexName {
		return zoneEntry, nil
	}
	e, err := s.dir.Get(ctx, s.ownerDN(zone, owner))
	if err != nil {
		return domain.Entry{}, notFound(err, reasonRecordNotFound)
	}
	return e, nil
}

// findValue returns the stored value of t on e equal to v. Values are compared in canonical
// form when v parses, literally otherwise.
func findValue(e domain.Entry, t domain.RRType, v string) (string, bool) {
	candidates := []string{v}
	if canon, err := rrdata.Normalize(t, v); err == nil && canon != v {
		candidates = append(candidates, canon)
	}
	for _, stored := range e.Get(t.Attribute()) {
		for _, c := range candidates {
			if strings.EqualFold(stored, c) {
				return stored, true
			}
		}
	}
	return "", false
}

// checkGlue requires an address for every NS target in values.
func (s *Service) checkGlue(ctx context.Context, zone string, values []string) error {
	for _, v := range values {
		if err := s.requireGlue(ctx, nameserverFQDN(v, zone), v); err != nil {
			return err
		}
	}
	return nil
}

// RecordAdd adds values to owner in zone, creating the owner entry when needed.
func (s *Service) RecordAdd(ctx context.Context, zoneName, ownerName string, opts map[string]any) (*EntryResult, error) {
	o := newOptionSet(opts)
	zone, zoneEntry, err := s.getZone(ctx, zoneName)
	if err != nil {
		return nil, err
	}
	owner, err := normalizeOwner(ownerName, zone)
	if err != nil {
		return nil, err
	}
	inputs, err := collectRecordInput(o)
	if err != nil {
		return nil, err
	}
	force, _, err := o.boolean("force")
	if err != nil {
		return nil, err
	}
	if err := o.unknown(); err != nil {
		return nil, err
	}

	dn := s.ownerDN(zone, owner)
	current := zoneEntry
	exists := true
	if owner != domain.ApexName {
		current, err = s.dir.Get(ctx, dn)
		switch {
		case errors.Is(err, domain.ErrNoSuchEntry):
			exists = false
			current = newOwnerEntry(dn, owner)
		case err != nil:
			return nil, err
		}
	}

	var (
		mods     []domain.Modification
		reverse  []reversePlan
		given    int
		fqdnName = ownerFQDN(owner, zone)
	)
	for _, in := range inputs {
		if in.rawGiven && in.parts != nil {
			return nil, &domain.ValidationError{
				Name:   in.t.Attribute(),
				Detail: "raw value of a DNS record cannot be combined with part options",
			}
		}
		var values []string
		for _, raw := range in.raw {
			rd, err := rrdata.Parse(in.t, raw)
			if err != nil {
				return nil, err
			}
			values = append(values, rd.String())
		}
		if in.parts != nil {
			rd, err := rrdata.FromParts(in.t, in.parts)
			if err != nil {
				return nil, err
			}
			values = append(values, rd.String())
		}
		given += len(values)

		var fresh []string
		for _, v := range values {
			if !current.ContainsValue(in.t.Attribute(), v) && !containsFold(fresh, v) {
				fresh = append(fresh, v)
			}
		}
		if len(fresh) == 0 {
			continue
		}
		if in.t == domain.RRTypeNS && !force {
			if err := s.checkGlue(ctx, zone, fresh); err != nil {
				return nil, err
			}
		}
		if in.reverse {
			for _, ip := range fresh {
				plan, err := s.planReverse(ctx, ip, fqdnName)
				if err != nil {
					return nil, err
				}
				reverse = append(reverse, plan)
			}
		}
		mods = append(mods, domain.AddValues(in.t.Attribute(), fresh...))
	}
	if given == 0 {
		return nil, &domain.ValidationError{Name: "record", Detail: "at least one DNS record value is required"}
	}
	if len(mods) == 0 {
		return nil, &domain.EmptyModlistError{}
	}

	switch {
	case owner == domain.ApexName:
		err = s.modifyChecked(ctx, dn, append(mods, serialMods(zoneEntry)...))
	case exists:
		err = s.modifyChecked(ctx, dn, mods)
	default:
		if err = current.Apply(mods); err == nil {
			err = s.dir.Add(ctx, current)
			if errors.Is(err, domain.ErrEntryExists) {
				err = &domain.ConflictError{DN: dn.String(), Err: err}
			}
		}
	}
	if err != nil {
		return nil, err
	}
	s.logger.Info(map[string]any{"zone": zone, "owner": owner}, "added DNS records")

	if owner != domain.ApexName {
		if err := s.bumpSerial(ctx, zone); err != nil {
			return nil, &domain.SecondaryEffectError{Effect: "zone serial update", Err: err}
		}
	}
	for _, plan := range reverse {
		if err := s.applyReverse(ctx, plan); err != nil {
			return nil, &domain.SecondaryEffectError{Effect: "reverse record creation for " + plan.ip, Err: err}
		}
	}
	return s.recordResult(ctx, zone, owner)
}

// RecordMod changes the values of owner. Raw values replace an attribute; parts build a new
// value, or edit the single raw value given alongside them.
func (s *Service) RecordMod(ctx context.Context, zoneName, ownerName string, opts map[string]any) (*EntryResult, error) {
	o := newOptionSet(opts)
	zone, zoneEntry, err := s.getZone(ctx, zoneName)
	if err != nil {
		return nil, err
	}
	owner, err := normalizeOwner(ownerName, zone)
	if err != nil {
		return nil, err
	}
	current, err := s.loadOwner(ctx, zone, zoneEntry, owner)
	if err != nil {
		return nil, err
	}
	inputs, err := collectRecordInput(o)
	if err != nil {
		return nil, err
	}
	force, _, err := o.boolean("force")
	if err != nil {
		return nil, err
	}
	if err := o.unknown(); err != nil {
		return nil, err
	}

	var mods []domain.Modification
	for _, in := range inputs {
		attr := in.t.Attribute()
		cur := current.Get(attr)
		var added []string

		switch {
		case in.parts != nil && !in.rawGiven:
			if len(cur) > 0 {
				return nil, &domain.RequirementError{Name: attr}
			}
			rd, err := rrdata.FromParts(in.t, in.parts)
			if err != nil {
				return nil, err
			}
			added = []string{rd.String()}
			mods = append(mods, domain.AddValues(attr, rd.String()))

		case in.parts != nil:
			if len(in.raw) != 1 {
				return nil, &domain.ValidationError{Name: attr, Detail: "exactly one value is required when parts are modified"}
			}
			stored, ok := findValue(current, in.t, in.raw[0])
			if !ok {
				return nil, &domain.AttrValueNotFoundError{Attr: in.t.String(), Value: in.raw[0]}
			}
			rd, err := rrdata.Parse(in.t, stored)
			if err != nil {
				return nil, err
			}
			next, err := rrdata.WithParts(rd, in.parts)
			if err != nil {
				return nil, err
			}
			if next.String() == stored {
				continue
			}
			mods = append(mods, domain.DeleteValues(attr, stored))
			if !current.ContainsValue(attr, next.String()) {
				added = []string{next.String()}
				mods = append(mods, domain.AddValues(attr, next.String()))
			}

		default:
			var values []string
			for _, raw := range in.raw {
				v, err := rrdata.Normalize(in.t, raw)
				if err != nil {
					return nil, err
				}
				if !containsFold(values, v) {
					values = append(values, v)
				}
			}
			if sameValues(cur, values) {
				continue
			}
			for _, v := range values {
				if !containsFold(cur, v) {
					added = append(added, v)
				}
			}
			mods = append(mods, domain.ReplaceValues(attr, values...))
		}

		if in.t == domain.RRTypeNS && !force {
			if err := s.checkGlue(ctx, zone, added); err != nil {
				return nil, err
			}
		}
	}
	if len(mods) == 0 {
		return nil, &domain.EmptyModlistError{}
	}

	next := current.Clone()
	if err := next.Apply(mods); err != nil {
		return nil, err
	}
	rs := domain.RecordSetFromEntry(next)
	dn := s.ownerDN(zone, owner)

	if owner == domain.ApexName {
		if len(rs[domain.RRTypeNS]) == 0 {
			return nil, apexNSRequired()
		}
		if err := s.modifyChecked(ctx, dn, append(mods, serialMods(zoneEntry)...)); err != nil {
			return nil, err
		}
		s.logger.Info(map[string]any{"zone": zone, "owner": owner}, "modified DNS records")
		return s.recordResult(ctx, zone, owner)
	}

	if rs.Empty() {
		return s.deleteOwner(ctx, zone, owner)
	}
	if err := s.modifyChecked(ctx, dn, mods); err != nil {
		return nil, err
	}
	s.logger.Info(map[string]any{"zone": zone, "owner": owner}, "modified DNS records")
	if err := s.bumpSerial(ctx, zone); err != nil {
		return nil, &domain.SecondaryEffectError{Effect: "zone serial update", Err: err}
	}
	return s.recordResult(ctx, zone, owner)
}

// RecordDel removes values from owner, or the whole owner with del_all. An owner left without
// records is removed.
func (s *Service) RecordDel(ctx context.Context, zoneName, ownerName string, opts map[string]any) (*EntryResult, error) {
	o := newOptionSet(opts)
	zone, zoneEntry, err := s.getZone(ctx, zoneName)
	if err != nil {
		return nil, err
	}
	owner, err := normalizeOwner(ownerName, zone)
	if err != nil {
		return nil, err
	}
	delAll, _, err := o.boolean("del_all")
	if err != nil {
		return nil, err
	}
	if delAll && owner == domain.ApexName {
		return nil, &domain.ValidationError{Name: "del_all", Detail: "Zone record '@' cannot be deleted"}
	}
	current, err := s.loadOwner(ctx, zone, zoneEntry, owner)
	if err != nil {
		return nil, err
	}
	inputs, err := collectRecordInput(o)
	if err != nil {
		return nil, err
	}
	if err := o.unknown(); err != nil {
		return nil, err
	}
	if delAll {
		return s.deleteOwner(ctx, zone, owner)
	}

	var mods []domain.Modification
	for _, in := range inputs {
		if in.parts != nil {
			return nil, &domain.ValidationError{
				Name:   rrdata.PartOption(in.t, firstPart(in)),
				Detail: "part options cannot be used to delete records",
			}
		}
		var stored []string
		for _, raw := range in.raw {
			v, ok := findValue(current, in.t, raw)
			if !ok {
				return nil, &domain.AttrValueNotFoundError{Attr: in.t.String(), Value: raw}
			}
			if !containsFold(stored, v) {
				stored = append(stored, v)
			}
		}
		if len(stored) > 0 {
			mods = append(mods, domain.DeleteValues(in.t.Attribute(), stored...))
		}
	}
	if len(mods) == 0 {
		return nil, &domain.ValidationError{Name: "del_all", Detail: "Zone record needs to be deleted as a whole or at least one value must be given"}
	}

	next := current.Clone()
	if err := next.Apply(mods); err != nil {
		return nil, err
	}
	rs := domain.RecordSetFromEntry(next)
	dn := s.ownerDN(zone, owner)

	if owner == domain.ApexName {
		if len(rs[domain.RRTypeNS]) == 0 {
			return nil, apexNSRequired()
		}
		if err := s.modifyChecked(ctx, dn, append(mods, serialMods(zoneEntry)...)); err != nil {
			return nil, err
		}
		s.logger.Info(map[string]any{"zone": zone, "owner": owner}, "deleted DNS record values")
		return s.recordResult(ctx, zone, owner)
	}
	if rs.Empty() {
		return s.deleteOwner(ctx, zone, owner)
	}
	if err := s.modifyChecked(ctx, dn, mods); err != nil {
		return nil, err
	}
	s.logger.Info(map[string]any{"zone": zone, "owner": owner}, "deleted DNS record values")
	if err := s.bumpSerial(ctx, zone); err != nil {
		return nil, &domain.SecondaryEffectError{Effect: "zone serial update", Err: err}
	}
	return s.recordResult(ctx, zone, owner)
}

// RecordShow returns the records of owner.
func (s *Service) RecordShow(ctx context.Context, zoneName, ownerName string) (*EntryResult, error) {
	zone, _, err := s.getZone(ctx, zoneName)
	if err != nil {
		return nil, err
	}
	owner, err := normalizeOwner(ownerName, zone)
	if err != nil {
		return nil, err
	}
	return s.recordResult(ctx, zone, owner)
}

// RecordFind lists the owners of zone: the apex first, then the other owners in name order.
// criteria, when set, keeps owners whose name contains it; record options keep owners holding
// the given value.
func (s *Service) RecordFind(ctx context.Context, zoneName, criteria string, opts map[string]any) (*FindResult, error) {
	o := newOptionSet(opts)
	zone, zoneEntry, err := s.getZone(ctx, zoneName)
	if err != nil {
		return nil, err
	}
	limit, err := o.uint("sizelimit")
	if err != nil {
		return nil, err
	}
	inputs, err := collectRecordInput(o)
	if err != nil {
		return nil, err
	}
	if err := o.unknown(); err != nil {
		return nil, err
	}

	filters := []domain.Filter{domain.Equal(domain.AttrObjectClass, domain.ObjectClassRecord)}
	for _, in := range inputs {
		for _, raw := range in.raw {
			v := raw
			if canon, err := rrdata.Normalize(in.t, raw); err == nil {
				v = canon
			}
			filters = append(filters, domain.Equal(in.t.Attribute(), v))
		}
	}
	criteria = strings.ToLower(strings.TrimSpace(criteria))

	sizeLimit := s.sizeLimit
	if limit != nil {
		sizeLimit = int(*limit)
	}

	res := &FindResult{Result: []domain.Entry{}}
	apex := domain.And(filters...)
	apexName := strings.TrimSuffix(zone, ".")
	if apex.Match(zoneEntry) && (criteria == "" || strings.Contains(apexName, criteria) || criteria == domain.ApexName) {
		res.Result = append(res.Result, findView(zoneEntry, true))
	}

	childFilters := filters
	if criteria != "" {
		childFilters = append(childFilters, domain.Substring(domain.AttrName, criteria))
	}
	req := domain.SearchRequest{
		Base:   s.zoneDN(zone),
		Scope:  domain.ScopeOneLevel,
		Filter: domain.And(childFilters...),
	}
	full := false
	if sizeLimit > 0 {
		req.SizeLimit = sizeLimit - len(res.Result)
		if req.SizeLimit <= 0 {
			// the apex used up the limit; one child is enough to tell whether owners were cut
			req.SizeLimit = 1
			full = true
		}
	}
	found, err := s.dir.Search(ctx, req)
	if err != nil {
		return nil, err
	}
	if full {
		res.Count = len(res.Result)
		res.Truncated = len(found.Entries) > 0
		return res, nil
	}
	for _, e := range found.Entries {
		res.Result = append(res.Result, findView(e, false))
	}
	res.Count = len(res.Result)
	res.Truncated = found.Truncated
	return res, nil
}

// deleteOwner removes a non-apex owner entry with all its records.
func (s *Service) deleteOwner(ctx context.Context, zone, owner string) (*EntryResult, error) {
	dn := s.ownerDN(zone, owner)
	if err := s.dir.Delete(ctx, dn); err != nil {
		return nil, notFound(err, reasonRecordNotFound)
	}
	s.logger.Info(map[string]any{"zone": zone, "owner": owner}, "deleted DNS record")
	if err := s.bumpSerial(ctx, zone); err != nil {
		return nil, &domain.SecondaryEffectError{Effect: "zone serial update", Err: err}
	}
	return &EntryResult{
		Value:   owner,
		Summary: summary("Deleted record \"%s\"", owner),
		Result:  failedResult(),
	}, nil
}

// recordResult re-reads owner and wraps its record view.
func (s *Service) recordResult(ctx context.Context, zone, owner string) (*EntryResult, error) {
	e, err := s.dir.Get(ctx, s.ownerDN(zone, owner))
	if err != nil {
		return nil, notFound(err, reasonRecordNotFound)
	}
	return &EntryResult{Value: owner, Result: recordView(e)}, nil
}

func apexNSRequired() error {
	return &domain.ValidationError{Name: domain.RRTypeNS.Attribute(), Detail: "at least one nameserver is required at the zone apex"}
}

func containsFold(values []string, v string) bool {
	for _, cur := range values {
		if strings.EqualFold(cur, v) {
			return true
		}
	}
	return false
}

// sameValues compares two value lists as sets.
func sameValues(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for _, v := range b {
		if !containsFold(a, v) {
			return false
		}
	}
	return true
}

// firstPart returns the first part given for in, in raw value order.
func firstPart(in *typeInput) string {
	for _, n := range rrdata.PartNames(in.t) {
		if _, ok := in.parts[n]; ok {
			return n
		}
	}
	return ""
}
