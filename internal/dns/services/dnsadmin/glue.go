package dnsadmin

import (
	"context"
	"errors"
	"fmt"
	"net/netip"

	"github.com/haukened/rr-dnsadm/internal/dns/common/utils"
	"github.com/haukened/rr-dnsadm/internal/dns/domain"
)

func glueNotFound(ns string) error {
	return &domain.NotFoundError{Reason: fmt.Sprintf("Nameserver '%s' does not have a corresponding A/AAAA record", ns)}
}

// hasGlue reports whether the nameserver fqdn resolves to an address: first through A/AAAA
// records in the most specific managed zone that holds it, then through the glue resolver.
func (s *Service) hasGlue(ctx context.Context, fqdn string) (bool, error) {
	zone, zoneEntry, ok, err := s.findZone(ctx, fqdn)
	if err != nil {
		return false, err
	}
	if ok {
		owner, _ := utils.RelativeName(fqdn, zone)
		e := zoneEntry
		if owner != domain.ApexName {
			e, err = s.dir.Get(ctx, s.ownerDN(zone, owner))
			if err != nil && !errors.Is(err, domain.ErrNoSuchEntry) {
				return false, err
			}
		}
		if e.Has(domain.RRTypeA.Attribute()) || e.Has(domain.RRTypeAAAA.Attribute()) {
			return true, nil
		}
	}
	if s.glue == nil {
		return false, nil
	}
	found, err := s.glue.HasAddress(ctx, fqdn)
	if err != nil {
		s.logger.Warn(map[string]any{"nameserver": fqdn, "error": err.Error()}, "glue lookup failed")
		return false, nil
	}
	return found, nil
}

// requireGlue fails with NotFound when nameserver has no address. display is the name as the
// caller wrote it.
func (s *Service) requireGlue(ctx context.Context, fqdn, display string) error {
	ok, err := s.hasGlue(ctx, fqdn)
	if err != nil {
		return err
	}
	if !ok {
		return glueNotFound(display)
	}
	return nil
}

// gluePlan is an address record to create for a nameserver.
type gluePlan struct {
	zone  string
	owner string
	rtype domain.RRType
	value string
}

// planGlue validates ip and locates the zone that will hold the address record of nameserver.
// newZone is a zone about to be created and counts as managed.
func (s *Service) planGlue(ctx context.Context, nameserver, ip, newZone string) (gluePlan, error) {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return gluePlan{}, &domain.ValidationError{Name: "ip_address", Detail: fmt.Sprintf("%q is not a valid IP address", ip)}
	}
	addr = addr.Unmap()
	plan := gluePlan{rtype: domain.RRTypeA, value: addr.String()}
	if addr.Is6() {
		plan.rtype = domain.RRTypeAAAA
	}

	zone, _, ok, err := s.findZone(ctx, nameserver)
	if err != nil {
		return gluePlan{}, err
	}
	// the new zone wins when it is more specific than any existing one
	if newZone != "" && utils.IsSubDomain(newZone, nameserver) && (!ok || utils.IsSubDomain(zone, newZone)) {
		zone, ok = newZone, true
	}
	if !ok {
		return gluePlan{}, &domain.ValidationError{
			Name:   "ip_address",
			Detail: fmt.Sprintf("nameserver %s is not in a managed zone", nameserver),
		}
	}
	plan.zone = zone
	plan.owner, _ = utils.RelativeName(nameserver, zone)
	return plan, nil
}

// applyGlue writes the planned address record. An address that is already present is left
// alone.
func (s *Service) applyGlue(ctx context.Context, plan gluePlan) error {
	attr := plan.rtype.Attribute()
	dn := s.ownerDN(plan.zone, plan.owner)
	e, err := s.dir.Get(ctx, dn)
	switch {
	case errors.Is(err, domain.ErrNoSuchEntry):
		e = newOwnerEntry(dn, plan.owner)
		e.Set(attr, plan.value)
		if err := s.dir.Add(ctx, e); err != nil {
			return err
		}
	case err != nil:
		return err
	case e.ContainsValue(attr, plan.value):
		return nil
	default:
		if err := s.modifyChecked(ctx, dn, []domain.Modification{domain.AddValues(attr, plan.value)}); err != nil {
			return err
		}
	}
	s.logger.Info(map[string]any{"zone": plan.zone, "owner": plan.owner, attr: plan.value}, "created nameserver glue record")
	return s.bumpSerial(ctx, plan.zone)
}
