package dnsadmin

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/haukened/rr-dnsadm/internal/dns/common/log"
	"github.com/haukened/rr-dnsadm/internal/dns/domain"
)

// ErrUnknownCommand is returned by Execute for a command name it does not serve.
var ErrUnknownCommand = errors.New("unknown command")

// command is one entry of the dispatch table. minArgs/maxArgs bound the positional arguments.
type command struct {
	minArgs int
	maxArgs int
	run     func(s *Service, ctx context.Context, args []string, opts map[string]any) (any, error)
}

var commands = map[string]command{
	"zone_add": {0, 1, func(s *Service, ctx context.Context, a []string, o map[string]any) (any, error) {
		return s.ZoneAdd(ctx, arg(a, 0), o)
	}},
	"zone_mod": {1, 1, func(s *Service, ctx context.Context, a []string, o map[string]any) (any, error) {
		return s.ZoneMod(ctx, a[0], o)
	}},
	"zone_del": {1, 1, withoutOptions(func(s *Service, ctx context.Context, a []string) (any, error) {
		return s.ZoneDel(ctx, a[0])
	})},
	"zone_show": {1, 1, withoutOptions(func(s *Service, ctx context.Context, a []string) (any, error) {
		return s.ZoneShow(ctx, a[0])
	})},
	"zone_find": {0, 1, func(s *Service, ctx context.Context, a []string, o map[string]any) (any, error) {
		return s.ZoneFind(ctx, arg(a, 0), o)
	}},
	"zone_enable": {1, 1, withoutOptions(func(s *Service, ctx context.Context, a []string) (any, error) {
		return s.ZoneEnable(ctx, a[0])
	})},
	"zone_disable": {1, 1, withoutOptions(func(s *Service, ctx context.Context, a []string) (any, error) {
		return s.ZoneDisable(ctx, a[0])
	})},
	"record_add": {2, 2, func(s *Service, ctx context.Context, a []string, o map[string]any) (any, error) {
		return s.RecordAdd(ctx, a[0], a[1], o)
	}},
	"record_mod": {2, 2, func(s *Service, ctx context.Context, a []string, o map[string]any) (any, error) {
		return s.RecordMod(ctx, a[0], a[1], o)
	}},
	"record_del": {2, 2, func(s *Service, ctx context.Context, a []string, o map[string]any) (any, error) {
		return s.RecordDel(ctx, a[0], a[1], o)
	}},
	"record_show": {2, 2, withoutOptions(func(s *Service, ctx context.Context, a []string) (any, error) {
		return s.RecordShow(ctx, a[0], a[1])
	})},
	"record_find": {1, 2, func(s *Service, ctx context.Context, a []string, o map[string]any) (any, error) {
		return s.RecordFind(ctx, a[0], arg(a, 1), o)
	}},
	"config_show": {0, 0, withoutOptions(func(s *Service, ctx context.Context, _ []string) (any, error) {
		return s.ConfigShow(ctx)
	})},
	"config_mod": {0, 0, func(s *Service, ctx context.Context, _ []string, o map[string]any) (any, error) {
		return s.ConfigMod(ctx, o)
	}},
}

func withoutOptions(fn func(s *Service, ctx context.Context, args []string) (any, error)) func(*Service, context.Context, []string, map[string]any) (any, error) {
	return func(s *Service, ctx context.Context, args []string, opts map[string]any) (any, error) {
		if len(opts) > 0 {
			if err := newOptionSet(opts).unknown(); err != nil {
				return nil, err
			}
		}
		return fn(s, ctx, args)
	}
}

func arg(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}

// CommandName maps a command name to its canonical form. The long names used by other
// directory-backed DNS tools (dnszone_add, dnsrecord_find, dnsconfig_mod) are accepted too.
func CommandName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if strings.HasPrefix(name, "dnszone_") || strings.HasPrefix(name, "dnsrecord_") || strings.HasPrefix(name, "dnsconfig_") {
		name = strings.TrimPrefix(name, "dns")
	}
	return name
}

// Commands returns the canonical command names in sorted order.
func Commands() []string {
	out := make([]string, 0, len(commands))
	for name := range commands {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Execute runs the named command. It implements CommandHandler.
func (s *Service) Execute(ctx context.Context, name string, args []string, options map[string]any) (any, error) {
	canonical := CommandName(name)
	cmd, ok := commands[canonical]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, name)
	}
	logger := log.With(s.logger, map[string]any{"command": canonical})
	if len(args) < cmd.minArgs {
		return nil, &domain.RequirementError{Name: domain.AttrName}
	}
	if len(args) > cmd.maxArgs {
		return nil, &domain.ValidationError{Name: "args", Detail: fmt.Sprintf("takes at most %d arguments", cmd.maxArgs)}
	}

	start := s.clock.Now()
	result, err := cmd.run(s, ctx, args, options)
	fields := map[string]any{"args": args, "duration": s.clock.Now().Sub(start).Round(time.Microsecond).String()}
	if err != nil {
		fields["error"] = err.Error()
		fields["code"] = domain.ErrorCode(err)
		if domain.ErrorCode(err) == "" {
			logger.Error(fields, "command failed")
		} else {
			logger.Debug(fields, "command rejected")
		}
		return nil, err
	}
	logger.Debug(fields, "command completed")
	return result, nil
}

var _ CommandHandler = (*Service)(nil)
