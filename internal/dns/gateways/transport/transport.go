// Package transport exposes the admin command surface over the network.
// It handles request decoding and error mapping so the service layer only sees
// command names, positional arguments and option maps.
package transport

// TransportType represents the different admin transports supported.
type TransportType string

const (
	// TransportHTTP serves commands as JSON over plain HTTP.
	TransportHTTP TransportType = "http"

	// TransportHTTPS serves commands as JSON over HTTP with TLS - future implementation
	TransportHTTPS TransportType = "https"
)
