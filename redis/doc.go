// Package redis moves messages through Redis streams.
//
// It wraps go-redis with fluxmux logging and configuration conventions.
// StreamSource reads a stream from its first entry with XREAD; StreamSink
// appends entries with XADD. Both use the same entry layout:
//
//	payload   the message payload
//	key       the message key, when present
//	h:<name>  one field per header
//
// # Configuration
//
//	redis:
//	  addr: "localhost:6379"
//	  pool_size: 10
//	  max_len: 100000
package redis
