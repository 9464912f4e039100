package transport

import (
	"fmt"

	"github.com/haukened/rr-dnsadm/internal/dns/common/log"
	"github.com/haukened/rr-dnsadm/internal/dns/services/dnsadmin"
)

// NewTransport creates a new transport instance based on the specified type.
func NewTransport(transportType TransportType, addr string, logger log.Logger) (dnsadmin.ServerTransport, error) {
	switch transportType {
	case TransportHTTP:
		return NewHTTPTransport(addr, logger), nil

	case TransportHTTPS:
		return nil, fmt.Errorf("HTTPS transport not yet implemented")

	default:
		return nil, fmt.Errorf("unsupported transport type: %s", transportType)
	}
}

// GetSupportedTransports returns a list of currently supported transport types.
func GetSupportedTransports() []TransportType {
	return []TransportType{
		TransportHTTP,
	}
}

// IsTransportSupported checks if a given transport type is currently supported.
func IsTransportSupported(transportType TransportType) bool {
	for _, t := range GetSupportedTransports() {
		if t == transportType {
			return true
		}
	}
	return false
}
