package dnsadmin

import (
	"context"
	"errors"
	"fmt"

	"github.com/haukened/rr-dnsadm/internal/dns/common/utils"
	"github.com/haukened/rr-dnsadm/internal/dns/domain"
)

// reversePlan is a PTR record to create alongside an address record.
type reversePlan struct {
	ip     string
	zone   string
	owner  string
	target string
}

// planReverse locates the reverse zone of ip and checks that its PTR owner is still free.
// It runs before the address record is written so a conflict leaves nothing behind.
func (s *Service) planReverse(ctx context.Context, ip, target string) (reversePlan, error) {
	rev, err := utils.ReverseName(ip)
	if err != nil {
		return reversePlan{}, &domain.ValidationError{Name: "ip_address", Detail: err.Error()}
	}
	zone, _, ok, err := s.findZone(ctx, rev)
	if err != nil {
		return reversePlan{}, err
	}
	if !ok || !utils.IsReverseZone(zone) {
		return reversePlan{}, &domain.NotFoundError{
			Reason: fmt.Sprintf("DNS reverse zone for IP address %s not found", ip),
		}
	}
	owner, _ := utils.RelativeName(rev, zone)
	e, err := s.dir.Get(ctx, s.ownerDN(zone, owner))
	switch {
	case errors.Is(err, domain.ErrNoSuchEntry):
	case err != nil:
		return reversePlan{}, err
	case e.Has(domain.RRTypePTR.Attribute()):
		return reversePlan{}, &domain.DuplicateEntryError{
			Message: fmt.Sprintf("Reverse record for IP address %s already exists in reverse zone %s.", ip, zone),
		}
	}
	return reversePlan{ip: ip, zone: zone, owner: owner, target: utils.CanonicalDNSName(target)}, nil
}

// applyReverse writes the planned PTR record.
func (s *Service) applyReverse(ctx context.Context, plan reversePlan) error {
	attr := domain.RRTypePTR.Attribute()
	dn := s.ownerDN(plan.zone, plan.owner)
	e, err := s.dir.Get(ctx, dn)
	switch {
	case errors.Is(err, domain.ErrNoSuchEntry):
		e = newOwnerEntry(dn, plan.owner)
		e.Set(attr, plan.target)
		err = s.dir.Add(ctx, e)
	case err != nil:
	case e.Has(attr):
		err = &domain.DuplicateEntryError{
			Message: fmt.Sprintf("Reverse record for IP address %s already exists in reverse zone %s.", plan.ip, plan.zone),
		}
	default:
		err = s.modifyChecked(ctx, dn, []domain.Modification{domain.AddValues(attr, plan.target)})
	}
	if err != nil {
		return err
	}
	s.logger.Info(map[string]any{"zone": plan.zone, "owner": plan.owner, "target": plan.target}, "created reverse record")
	return s.bumpSerial(ctx, plan.zone)
}
