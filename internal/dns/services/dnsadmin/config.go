package dnsadmin

import (
	"context"

	"github.com/haukened/rr-dnsadm/internal/dns/domain"
)

// configAttrs are the global settings kept on the cn=dns container.
var configAttrs = []string{
	domain.AttrForwarders,
	domain.AttrForwardPolicy,
	domain.AttrAllowSyncPTR,
	domain.AttrZoneRefresh,
}

type configInput struct {
	ZoneRefresh *uint64 `opt:"idnszonerefresh" validate:"omitempty,max=2147483647"`
}

// configView returns the global settings without DN or object classes.
func configView(e domain.Entry) domain.Entry {
	out := domain.Entry{Attrs: make(map[string][]string)}
	for _, attr := range configAttrs {
		out.Set(attr, e.Get(attr)...)
	}
	return out
}

// ConfigShow returns the global DNS configuration.
func (s *Service) ConfigShow(ctx context.Context) (*EntryResult, error) {
	if err := s.Bootstrap(ctx); err != nil {
		return nil, err
	}
	e, err := s.dir.Get(ctx, s.container)
	if err != nil {
		return nil, err
	}
	return &EntryResult{Result: configView(e)}, nil
}

// ConfigMod changes the global DNS configuration. An option given as null removes the setting.
func (s *Service) ConfigMod(ctx context.Context, opts map[string]any) (*EntryResult, error) {
	o := newOptionSet(opts)
	if err := s.Bootstrap(ctx); err != nil {
		return nil, err
	}
	e, err := s.dir.Get(ctx, s.container)
	if err != nil {
		return nil, err
	}

	var mods []domain.Modification
	set := func(attr string, values ...string) {
		if !sameValues(e.Get(attr), values) {
			mods = append(mods, domain.ReplaceValues(attr, values...))
		}
	}

	forwardersGiven, policyGiven := o.has(domain.AttrForwarders), o.has(domain.AttrForwardPolicy)
	fwd, err := s.readForwarding(o)
	if err != nil {
		return nil, err
	}
	if forwardersGiven {
		set(domain.AttrForwarders, fwd.Forwarders...)
	}
	if policyGiven {
		if fwd.Policy == "" {
			set(domain.AttrForwardPolicy)
		} else {
			set(domain.AttrForwardPolicy, fwd.Policy)
		}
	}

	if o.null(domain.AttrAllowSyncPTR) {
		o.consume(domain.AttrAllowSyncPTR)
		set(domain.AttrAllowSyncPTR)
	} else if b, ok, err := o.boolean(domain.AttrAllowSyncPTR); err != nil {
		return nil, err
	} else if ok {
		set(domain.AttrAllowSyncPTR, domain.FormatBool(b))
	}

	var in configInput
	if o.null(domain.AttrZoneRefresh) {
		o.consume(domain.AttrZoneRefresh)
		set(domain.AttrZoneRefresh)
	} else {
		if in.ZoneRefresh, err = o.uint(domain.AttrZoneRefresh); err != nil {
			return nil, err
		}
		if err := s.check(in); err != nil {
			return nil, err
		}
		if in.ZoneRefresh != nil {
			set(domain.AttrZoneRefresh, domain.FormatUint(uint32(*in.ZoneRefresh)))
		}
	}

	if err := o.unknown(); err != nil {
		return nil, err
	}
	if len(mods) == 0 {
		return nil, &domain.EmptyModlistError{}
	}
	if err := s.modifyChecked(ctx, s.container, mods); err != nil {
		return nil, err
	}
	s.logger.Info(map[string]any{"changes": len(mods)}, "modified DNS configuration")

	e, err = s.dir.Get(ctx, s.container)
	if err != nil {
		return nil, err
	}
	return &EntryResult{Result: configView(e)}, nil
}
