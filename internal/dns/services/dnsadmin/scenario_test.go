package dnsadmin_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haukened/rr-dnsadm/internal/dns/common/clock"
	"github.com/haukened/rr-dnsadm/internal/dns/domain"
	"github.com/haukened/rr-dnsadm/internal/dns/repos/directory/memory"
	"github.com/haukened/rr-dnsadm/internal/dns/services/dnsadmin"
)

const (
	zone1    = "dnszone.test"
	zone1Abs = "dnszone.test."
	revZone  = "15.142.80.in-addr.arpa."
	mname    = "ns1.dnszone.test."
	rname    = "root.dnszone.test."
	record1  = "testdnsres"
)

var baseDN = domain.MustParseDN("dc=example,dc=com")

func newService(t *testing.T, dir dnsadmin.Directory, mutate ...func(*dnsadmin.Options)) *dnsadmin.Service {
	t.Helper()
	opts := dnsadmin.Options{
		Directory: dir,
		BaseDN:    baseDN,
		Clock:     &clock.MockClock{CurrentTime: time.Unix(1700000000, 0)},
	}
	for _, m := range mutate {
		m(&opts)
	}
	svc, err := dnsadmin.New(opts)
	require.NoError(t, err)
	require.NoError(t, svc.Bootstrap(context.Background()))
	return svc
}

func zoneOpts(extra map[string]any) map[string]any {
	out := map[string]any{
		"idnssoamname": mname,
		"idnssoarname": rname,
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

func entryOf(t *testing.T, res *dnsadmin.EntryResult) domain.Entry {
	t.Helper()
	require.NotNil(t, res)
	e, ok := res.Result.(domain.Entry)
	require.True(t, ok, "result is %T", res.Result)
	return e
}

// requireError checks the taxonomy code and, when name is set, the attributed option.
func requireError(t *testing.T, err error, code, name string) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, code, domain.ErrorCode(err), err.Error())
	if name != "" {
		assert.Equal(t, name, domain.ErrorName(err), err.Error())
	}
}

func requireNotFound(t *testing.T, err error, reason string) {
	t.Helper()
	var nf *domain.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, reason, nf.Reason)
}

func TestZoneAndRecordLifecycle(t *testing.T) {
	ctx := context.Background()
	dir := memory.New()
	svc := newService(t, dir)
	var firstSerial string

	t.Run("missing zone", func(t *testing.T) {
		_, err := svc.ZoneShow(ctx, zone1)
		requireNotFound(t, err, "DNS zone not found")
		_, err = svc.ZoneMod(ctx, zone1, map[string]any{"idnssoamname": "foobar"})
		requireNotFound(t, err, "DNS zone not found")
		_, err = svc.ZoneDel(ctx, zone1)
		requireNotFound(t, err, "DNS zone not found")
	})

	t.Run("invalid zone name", func(t *testing.T) {
		_, err := svc.ZoneAdd(ctx, "invalid zone", zoneOpts(nil))
		requireError(t, err, domain.CodeValidation, "idnsname")
	})

	t.Run("nameserver without address", func(t *testing.T) {
		_, err := svc.ZoneAdd(ctx, zone1, zoneOpts(nil))
		requireNotFound(t, err, "Nameserver 'ns1.dnszone.test.' does not have a corresponding A/AAAA record")
	})

	t.Run("create zone with nameserver address", func(t *testing.T) {
		res, err := svc.ZoneAdd(ctx, zone1, zoneOpts(map[string]any{"ip_address": "1.2.3.4"}))
		require.NoError(t, err)
		assert.Equal(t, zone1Abs, res.Value)
		assert.Nil(t, res.Summary)

		e := entryOf(t, res)
		assert.Equal(t, "idnsname=dnszone.test.,cn=dns,dc=example,dc=com", e.DN.String())
		assert.Equal(t, []string{zone1Abs}, e.Get("idnsname"))
		assert.Equal(t, []string{"TRUE"}, e.Get("idnszoneactive"))
		assert.Equal(t, []string{mname}, e.Get("idnssoamname"))
		assert.Equal(t, []string{mname}, e.Get("nsrecord"))
		assert.Equal(t, []string{rname}, e.Get("idnssoarname"))
		assert.Equal(t, []string{"3600"}, e.Get("idnssoarefresh"))
		assert.Equal(t, []string{"900"}, e.Get("idnssoaretry"))
		assert.Equal(t, []string{"1209600"}, e.Get("idnssoaexpire"))
		assert.Equal(t, []string{"3600"}, e.Get("idnssoaminimum"))
		assert.Equal(t, []string{"FALSE"}, e.Get("idnsallowdynupdate"))
		assert.Equal(t, []string{"none;"}, e.Get("idnsallowtransfer"))
		assert.Equal(t, []string{"any;"}, e.Get("idnsallowquery"))
		assert.Equal(t, []string{"top", "idnsrecord", "idnszone"}, e.Get("objectclass"))
		firstSerial = e.First("idnssoaserial")
		assert.NotEmpty(t, firstSerial)

		glue, err := svc.RecordShow(ctx, zone1, "ns1")
		require.NoError(t, err)
		assert.Equal(t, []string{"1.2.3.4"}, entryOf(t, glue).Get("arecord"))
	})

	t.Run("duplicate zone", func(t *testing.T) {
		_, err := svc.ZoneAdd(ctx, zone1, zoneOpts(map[string]any{"ip_address": "1.2.3.4"}))
		requireError(t, err, domain.CodeDuplicateEntry, "")
	})

	t.Run("reverse zone from invalid network", func(t *testing.T) {
		_, err := svc.ZoneAdd(ctx, "", zoneOpts(map[string]any{"name_from_ip": "foo"}))
		var ve *domain.ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "name_from_ip", ve.Name)
		assert.Equal(t, "invalid format", ve.Detail)
	})

	t.Run("reverse zone from network", func(t *testing.T) {
		res, err := svc.ZoneAdd(ctx, "", zoneOpts(map[string]any{
			"name_from_ip": "80.142.15.0/24",
			"ip_address":   "1.2.3.4",
		}))
		require.NoError(t, err)
		assert.Equal(t, revZone, res.Value)
		assert.Equal(t, []string{revZone}, entryOf(t, res).Get("idnsname"))

		// the nameserver address already existed
		glue, err := svc.RecordShow(ctx, zone1, "ns1")
		require.NoError(t, err)
		assert.Equal(t, []string{"1.2.3.4"}, entryOf(t, glue).Get("arecord"))
	})

	t.Run("modify SOA refresh", func(t *testing.T) {
		res, err := svc.ZoneMod(ctx, zone1, map[string]any{"idnssoarefresh": 5478})
		require.NoError(t, err)
		e := entryOf(t, res)
		assert.Equal(t, []string{"5478"}, e.Get("idnssoarefresh"))
		assert.NotEqual(t, firstSerial, e.First("idnssoaserial"))
	})

	t.Run("find zones by nameserver", func(t *testing.T) {
		res, err := svc.ZoneFind(ctx, "", map[string]any{"idnssoamname": mname})
		require.NoError(t, err)
		assert.Equal(t, 2, res.Count)
		assert.False(t, res.Truncated)
		require.Len(t, res.Result, 2)
		assert.Equal(t, revZone, res.Result[0].First("idnsname"))
		assert.Equal(t, zone1Abs, res.Result[1].First("idnsname"))

		res, err = svc.ZoneFind(ctx, "", map[string]any{"forward_only": true})
		require.NoError(t, err)
		require.Equal(t, 1, res.Count)
		assert.Equal(t, zone1Abs, res.Result[0].First("idnsname"))
	})

	t.Run("missing record", func(t *testing.T) {
		_, err := svc.RecordShow(ctx, zone1, record1)
		requireNotFound(t, err, "DNS resource record not found")
	})

	t.Run("invalid record name", func(t *testing.T) {
		_, err := svc.RecordAdd(ctx, zone1, "invalid record", map[string]any{"arecord": "127.0.0.1"})
		requireError(t, err, domain.CodeValidation, "idnsname")
	})

	t.Run("add record", func(t *testing.T) {
		res, err := svc.RecordAdd(ctx, zone1, record1, map[string]any{"arecord": "127.0.0.1"})
		require.NoError(t, err)
		e := entryOf(t, res)
		assert.Equal(t, "idnsname=testdnsres,idnsname=dnszone.test.,cn=dns,dc=example,dc=com", e.DN.String())
		assert.Equal(t, []string{record1}, e.Get("idnsname"))
		assert.Equal(t, []string{"top", "idnsrecord"}, e.Get("objectclass"))
		assert.Equal(t, []string{"127.0.0.1"}, e.Get("arecord"))
	})

	t.Run("find records", func(t *testing.T) {
		res, err := svc.RecordFind(ctx, zone1, "", nil)
		require.NoError(t, err)
		assert.Equal(t, 3, res.Count)
		require.Len(t, res.Result, 3)
		assert.Equal(t, []string{"@"}, res.Result[0].Get("idnsname"))
		assert.Equal(t, []string{mname}, res.Result[0].Get("nsrecord"))
		assert.False(t, res.Result[0].Has("objectclass"))
		assert.False(t, res.Result[0].Has("idnssoamname"))
		assert.Equal(t, []string{"ns1"}, res.Result[1].Get("idnsname"))
		assert.Equal(t, []string{record1}, res.Result[2].Get("idnsname"))

		res, err = svc.RecordFind(ctx, zone1, "dnsres", nil)
		require.NoError(t, err)
		require.Equal(t, 1, res.Count)
		assert.Equal(t, []string{record1}, res.Result[0].Get("idnsname"))
	})

	t.Run("add and delete values", func(t *testing.T) {
		res, err := svc.RecordAdd(ctx, zone1, record1, map[string]any{"arecord": "10.10.0.1"})
		require.NoError(t, err)
		assert.Equal(t, []string{"127.0.0.1", "10.10.0.1"}, entryOf(t, res).Get("arecord"))

		res, err = svc.RecordDel(ctx, zone1, record1, map[string]any{"arecord": "127.0.0.1"})
		require.NoError(t, err)
		assert.Equal(t, []string{"10.10.0.1"}, entryOf(t, res).Get("arecord"))

		_, err = svc.RecordAdd(ctx, zone1, record1, map[string]any{"arecord": "10.10.0.1"})
		requireError(t, err, domain.CodeEmptyModlist, "")

		_, err = svc.RecordDel(ctx, zone1, record1, map[string]any{"arecord": "192.0.2.1"})
		requireError(t, err, domain.CodeAttrValueNotFound, "A")
	})

	t.Run("apex record", func(t *testing.T) {
		res, err := svc.RecordAdd(ctx, zone1, zone1, map[string]any{"arecord": "10.10.0.1"})
		require.NoError(t, err)
		e := entryOf(t, res)
		assert.Equal(t, []string{"top", "idnsrecord", "idnszone"}, e.Get("objectclass"))
		assert.Equal(t, []string{zone1Abs}, e.Get("idnsname"))
		assert.Equal(t, []string{mname}, e.Get("nsrecord"))
		assert.Equal(t, []string{"10.10.0.1"}, e.Get("arecord"))
		assert.False(t, e.Has("idnssoamname"))
	})

	t.Run("delete rules", func(t *testing.T) {
		_, err := svc.RecordDel(ctx, zone1, "does-not-exist", map[string]any{"del_all": true})
		requireNotFound(t, err, "DNS resource record not found")

		_, err = svc.RecordDel(ctx, zone1, "@", map[string]any{"del_all": true})
		requireError(t, err, domain.CodeValidation, "del_all")

		_, err = svc.RecordDel(ctx, zone1, record1, nil)
		requireError(t, err, domain.CodeValidation, "del_all")

		_, err = svc.RecordDel(ctx, zone1, "@", map[string]any{"nsrecord": mname})
		requireError(t, err, domain.CodeValidation, "nsrecord")
	})

	t.Run("modify adds missing type", func(t *testing.T) {
		res, err := svc.RecordMod(ctx, zone1, record1, map[string]any{"aaaarecord": "::1"})
		require.NoError(t, err)
		e := entryOf(t, res)
		assert.Equal(t, []string{"::1"}, e.Get("aaaarecord"))
		assert.Equal(t, []string{"10.10.0.1"}, e.Get("arecord"))
	})

	t.Run("MX", func(t *testing.T) {
		_, err := svc.RecordAdd(ctx, zone1, record1, map[string]any{"mxrecord": "foo-1.example.com"})
		requireError(t, err, domain.CodeValidation, "mxrecord")

		res, err := svc.RecordAdd(ctx, zone1, record1, map[string]any{"mxrecord": "0 ns1.dnszone.test."})
		require.NoError(t, err)
		assert.Equal(t, []string{"0 ns1.dnszone.test."}, entryOf(t, res).Get("mxrecord"))
	})

	t.Run("SRV", func(t *testing.T) {
		_, err := svc.RecordAdd(ctx, zone1, record1, map[string]any{"srvrecord": "foo bar"})
		requireError(t, err, domain.CodeValidation, "srvrecord")

		_, err = svc.RecordAdd(ctx, zone1, record1, map[string]any{
			"srv_part_priority": "0",
			"srv_part_weight":   "0",
			"srv_part_port":     "123",
			"srv_part_target":   "foo bar",
		})
		requireError(t, err, domain.CodeValidation, "srv_part_target")

		_, err = svc.RecordAdd(ctx, zone1, record1, map[string]any{
			"srvrecord":         "1 100 1234 ns1.dnszone.test.",
			"srv_part_priority": "0",
			"srv_part_weight":   "0",
			"srv_part_port":     "123",
			"srv_part_target":   "foo.bar.",
		})
		requireError(t, err, domain.CodeValidation, "srvrecord")

		res, err := svc.RecordAdd(ctx, zone1, record1, map[string]any{"srvrecord": "0 100 1234 ns1.dnszone.test."})
		require.NoError(t, err)
		assert.Equal(t, []string{"0 100 1234 ns1.dnszone.test."}, entryOf(t, res).Get("srvrecord"))

		_, err = svc.RecordMod(ctx, zone1, record1, map[string]any{"srv_part_priority": "1"})
		requireError(t, err, domain.CodeRequirement, "srvrecord")

		_, err = svc.RecordMod(ctx, zone1, record1, map[string]any{
			"srvrecord":         "0 100 1234 does.not.exist.",
			"srv_part_priority": "1",
		})
		var ae *domain.AttrValueNotFoundError
		require.ErrorAs(t, err, &ae)
		assert.Equal(t, "SRV", ae.Attr)
		assert.Equal(t, "0 100 1234 does.not.exist.", ae.Value)

		_, err = svc.RecordMod(ctx, zone1, record1, map[string]any{
			"srvrecord":         "0 100 1234 ns1.dnszone.test.",
			"srv_part_priority": "100000",
		})
		requireError(t, err, domain.CodeValidation, "srv_part_priority")

		res, err = svc.RecordMod(ctx, zone1, record1, map[string]any{
			"srvrecord":         "0 100 1234 ns1.dnszone.test.",
			"srv_part_priority": "1",
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"1 100 1234 ns1.dnszone.test."}, entryOf(t, res).Get("srvrecord"))
	})

	t.Run("LOC", func(t *testing.T) {
		_, err := svc.RecordAdd(ctx, zone1, record1, map[string]any{"locrecord": "91 11 42.4 N 16 36 29.6 E 227.64"})
		requireError(t, err, domain.CodeValidation, "locrecord")

		res, err := svc.RecordAdd(ctx, zone1, record1, map[string]any{"locrecord": "49 11 42.4 N 16 36 29.6 E 227.64"})
		require.NoError(t, err)
		assert.Equal(t, []string{"49 11 42.400 N 16 36 29.600 E 227.64"}, entryOf(t, res).Get("locrecord"))
	})

	t.Run("CNAME", func(t *testing.T) {
		_, err := svc.RecordAdd(ctx, zone1, record1, map[string]any{"cnamerecord": "-.example.com"})
		requireError(t, err, domain.CodeValidation, "cnamerecord")

		res, err := svc.RecordAdd(ctx, zone1, record1, map[string]any{"cnamerecord": "foo-1.example.com."})
		require.NoError(t, err)
		assert.Equal(t, []string{"foo-1.example.com."}, entryOf(t, res).Get("cnamerecord"))
	})

	t.Run("KX", func(t *testing.T) {
		_, err := svc.RecordAdd(ctx, zone1, record1, map[string]any{"kxrecord": "foo-1.example.com"})
		requireError(t, err, domain.CodeValidation, "kxrecord")

		res, err := svc.RecordAdd(ctx, zone1, record1, map[string]any{"kxrecord": "1 foo-1"})
		require.NoError(t, err)
		assert.Equal(t, []string{"1 foo-1"}, entryOf(t, res).Get("kxrecord"))
	})

	t.Run("TXT", func(t *testing.T) {
		res, err := svc.RecordAdd(ctx, zone1, record1, map[string]any{"txtrecord": "foo bar"})
		require.NoError(t, err)
		assert.Equal(t, []string{"foo bar"}, entryOf(t, res).Get("txtrecord"))
	})

	t.Run("NSEC from parts", func(t *testing.T) {
		res, err := svc.RecordAdd(ctx, zone1, record1, map[string]any{
			"nsec_part_next":  zone1,
			"nsec_part_types": []any{"TXT", "A"},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"dnszone.test TXT A"}, entryOf(t, res).Get("nsecrecord"))
	})

	t.Run("NS needs an address unless forced", func(t *testing.T) {
		_, err := svc.RecordAdd(ctx, zone1, record1, map[string]any{"nsrecord": "does.not.exist"})
		requireNotFound(t, err, "Nameserver 'does.not.exist' does not have a corresponding A/AAAA record")

		res, err := svc.RecordAdd(ctx, zone1, record1, map[string]any{"nsrecord": "does.not.exist", "force": true})
		require.NoError(t, err)
		assert.Equal(t, []string{"does.not.exist"}, entryOf(t, res).Get("nsrecord"))
	})

	t.Run("delete whole record", func(t *testing.T) {
		res, err := svc.RecordDel(ctx, zone1, record1, map[string]any{"del_all": true})
		require.NoError(t, err)
		require.NotNil(t, res.Summary)
		assert.Equal(t, `Deleted record "testdnsres"`, *res.Summary)
		assert.Equal(t, map[string]string{"failed": ""}, res.Result)

		_, err = svc.RecordShow(ctx, zone1, record1)
		requireNotFound(t, err, "DNS resource record not found")
	})

	t.Run("PTR", func(t *testing.T) {
		_, err := svc.RecordAdd(ctx, revZone, "80", map[string]any{"ptrrecord": "-.example.com"})
		requireError(t, err, domain.CodeValidation, "ptrrecord")

		res, err := svc.RecordAdd(ctx, revZone, "80", map[string]any{"ptrrecord": "foo-1.example.com"})
		require.NoError(t, err)
		assert.Equal(t, []string{"foo-1.example.com."}, entryOf(t, res).Get("ptrrecord"))
	})

	t.Run("zone ACLs", func(t *testing.T) {
		_, err := svc.ZoneMod(ctx, zone1, map[string]any{"idnsallowquery": "localhost"})
		requireError(t, err, domain.CodeValidation, "idnsallowquery")

		res, err := svc.ZoneMod(ctx, zone1, map[string]any{"idnsallowquery": "!10/8;any"})
		require.NoError(t, err)
		assert.Equal(t, []string{"!10.0.0.0/8;any;"}, entryOf(t, res).Get("idnsallowquery"))

		_, err = svc.ZoneMod(ctx, zone1, map[string]any{"idnsallowtransfer": "10."})
		requireError(t, err, domain.CodeValidation, "idnsallowtransfer")

		res, err = svc.ZoneMod(ctx, zone1, map[string]any{"idnsallowtransfer": "80.142.15.80"})
		require.NoError(t, err)
		assert.Equal(t, []string{"80.142.15.80;"}, entryOf(t, res).Get("idnsallowtransfer"))
	})

	t.Run("reverse record already exists", func(t *testing.T) {
		_, err := svc.RecordAdd(ctx, zone1, record1, map[string]any{
			"arecord":                 "80.142.15.80",
			"a_extra_create_reverse": true,
		})
		requireError(t, err, domain.CodeDuplicateEntry, "")

		_, err = svc.RecordShow(ctx, zone1, record1)
		requireNotFound(t, err, "DNS resource record not found")
	})

	t.Run("reverse record created", func(t *testing.T) {
		res, err := svc.RecordAdd(ctx, zone1, record1, map[string]any{
			"arecord":                 "80.142.15.81",
			"a_extra_create_reverse": true,
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"80.142.15.81"}, entryOf(t, res).Get("arecord"))

		ptr, err := svc.RecordShow(ctx, revZone, "81")
		require.NoError(t, err)
		assert.Equal(t, []string{"testdnsres.dnszone.test."}, entryOf(t, ptr).Get("ptrrecord"))
	})

	t.Run("global forwarders", func(t *testing.T) {
		res, err := svc.ConfigMod(ctx, map[string]any{"idnsforwarders": []any{"172.16.31.80"}})
		require.NoError(t, err)
		assert.Equal(t, "", res.Value)
		assert.Nil(t, res.Summary)
		assert.Equal(t, []string{"172.16.31.80"}, entryOf(t, res).Get("idnsforwarders"))

		res, err = svc.ConfigMod(ctx, map[string]any{"idnsforwarders": nil})
		require.NoError(t, err)
		assert.False(t, entryOf(t, res).Has("idnsforwarders"))

		_, err = svc.ConfigMod(ctx, map[string]any{"idnsforwarders": nil})
		requireError(t, err, domain.CodeEmptyModlist, "")
	})

	t.Run("disable and enable", func(t *testing.T) {
		res, err := svc.ZoneDisable(ctx, zone1)
		require.NoError(t, err)
		require.NotNil(t, res.Summary)
		assert.Equal(t, `Disabled DNS zone "dnszone.test."`, *res.Summary)
		assert.Equal(t, true, res.Result)

		shown, err := svc.ZoneShow(ctx, zone1)
		require.NoError(t, err)
		assert.Equal(t, []string{"FALSE"}, entryOf(t, shown).Get("idnszoneactive"))

		res, err = svc.ZoneEnable(ctx, zone1)
		require.NoError(t, err)
		assert.Equal(t, `Enabled DNS zone "dnszone.test."`, *res.Summary)
	})

	t.Run("delete zones", func(t *testing.T) {
		res, err := svc.ZoneDel(ctx, zone1)
		require.NoError(t, err)
		assert.Nil(t, res.Summary)
		assert.Equal(t, map[string]string{"failed": ""}, res.Result)

		_, err = svc.ZoneDel(ctx, revZone)
		require.NoError(t, err)

		// only the container is left
		assert.Equal(t, 1, dir.Len())
	})
}
