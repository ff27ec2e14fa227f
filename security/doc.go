// Package security holds the TLS settings shared by the network endpoints.
//
// Kafka and Redis both embed a TLSConfig under a "tls" key:
//
//	kafka:
//	  tls:
//	    enabled: true
//	    ca_file: /etc/fluxmux/ca.pem
//
// Build turns the settings into a *tls.Config, or nil when TLS is off.
package security
