package domain

import (
	"strconv"
	"strings"
)

// Directory attribute names.
const (
	AttrName           = "idnsname"
	AttrObjectClass    = "objectclass"
	AttrZoneActive     = "idnszoneactive"
	AttrSOAMName       = "idnssoamname"
	AttrSOARName       = "idnssoarname"
	AttrSOASerial      = "idnssoaserial"
	AttrSOARefresh     = "idnssoarefresh"
	AttrSOARetry       = "idnssoaretry"
	AttrSOAExpire      = "idnssoaexpire"
	AttrSOAMinimum     = "idnssoaminimum"
	AttrAllowDynUpdate = "idnsallowdynupdate"
	AttrAllowTransfer  = "idnsallowtransfer"
	AttrAllowQuery     = "idnsallowquery"
	AttrForwarders     = "idnsforwarders"
	AttrForwardPolicy  = "idnsforwardpolicy"
	AttrAllowSyncPTR   = "idnsallowsyncptr"
	AttrZoneRefresh    = "idnszonerefresh"
	AttrCN             = "cn"
)

// Object classes tagging entry kinds.
const (
	ObjectClassTop       = "top"
	ObjectClassRecord    = "idnsrecord"
	ObjectClassZone      = "idnszone"
	ObjectClassContainer = "nscontainer"
	ObjectClassConfig    = "idnsconfigobject"
)

// ApexName is the relative owner name of the zone apex.
const ApexName = "@"

// ZoneObjectClasses returns the object classes of a zone entry.
func ZoneObjectClasses() []string {
	return []string{ObjectClassTop, ObjectClassRecord, ObjectClassZone}
}

// RecordObjectClasses returns the object classes of a non-apex owner entry.
func RecordObjectClasses() []string {
	return []string{ObjectClassTop, ObjectClassRecord}
}

// ContainerObjectClasses returns the object classes of the cn=dns container, which also holds
// the global configuration.
func ContainerObjectClasses() []string {
	return []string{ObjectClassTop, ObjectClassContainer, ObjectClassConfig}
}

// SOA bounds.
const (
	MaxSOASerial = 4294967295
	MaxSOATimer  = 2147483647
)

// SOATimers are the zone refresh/retry/expire/minimum values in seconds.
type SOATimers struct {
	Refresh uint32 `koanf:"refresh" validate:"lte=2147483647"`
	Retry   uint32 `koanf:"retry" validate:"lte=2147483647"`
	Expire  uint32 `koanf:"expire" validate:"lte=2147483647"`
	Minimum uint32 `koanf:"minimum" validate:"lte=2147483647"`
}

// DefaultSOATimers holds the timers applied when zone_add does not set them.
var DefaultSOATimers = SOATimers{
	Refresh: 3600,
	Retry:   900,
	Expire:  1209600,
	Minimum: 3600,
}

// SOA is the start-of-authority data kept on a zone entry.
type SOA struct {
	MName  string
	RName  string
	Serial uint32
	SOATimers
}

// Zone is the typed view of a zone entry's zone-level attributes.
type Zone struct {
	Name           string
	SOA            SOA
	Active         bool
	AllowDynUpdate bool
	AllowQuery     string
	AllowTransfer  string
	Forwarders     []string
	ForwardPolicy  string
}

// Entry renders the zone as a directory entry at dn. The apex NS record holds the primary
// nameserver.
func (z Zone) Entry(dn DN) Entry {
	e := NewEntry(dn)
	e.Set(AttrObjectClass, ZoneObjectClasses()...)
	e.Set(AttrName, z.Name)
	e.Set(AttrZoneActive, FormatBool(z.Active))
	e.Set(AttrSOAMName, z.SOA.MName)
	e.Set(AttrSOARName, z.SOA.RName)
	e.Set(AttrSOASerial, FormatUint(z.SOA.Serial))
	e.Set(AttrSOARefresh, FormatUint(z.SOA.Refresh))
	e.Set(AttrSOARetry, FormatUint(z.SOA.Retry))
	e.Set(AttrSOAExpire, FormatUint(z.SOA.Expire))
	e.Set(AttrSOAMinimum, FormatUint(z.SOA.Minimum))
	e.Set(AttrAllowDynUpdate, FormatBool(z.AllowDynUpdate))
	e.Set(AttrAllowTransfer, z.AllowTransfer)
	e.Set(AttrAllowQuery, z.AllowQuery)
	e.Set(AttrForwarders, z.Forwarders...)
	if z.ForwardPolicy != "" {
		e.Set(AttrForwardPolicy, z.ForwardPolicy)
	}
	e.Set(RRTypeNS.Attribute(), z.SOA.MName)
	return e
}

// NextSerial returns the serial following cur using RFC 1982 arithmetic; 0 is skipped.
func NextSerial(cur uint32) uint32 {
	next := cur + 1
	if next == 0 {
		next = 1
	}
	return next
}

// FormatBool renders a directory boolean.
func FormatBool(b bool) string {
	if b {
		return "TRUE"
	}
	return "FALSE"
}

// ParseBool reads a directory boolean; anything but TRUE is false.
func ParseBool(s string) bool {
	return strings.EqualFold(strings.TrimSpace(s), "TRUE")
}

// FormatUint renders numeric attributes as decimal strings.
func FormatUint(v uint32) string {
	return strconv.FormatUint(uint64(v), 10)
}

// ParseUint reads a decimal numeric attribute.
func ParseUint(s string) (uint32, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 32)
	return uint32(v), err
}
