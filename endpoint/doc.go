// Package endpoint turns endpoint URIs into sources and sinks.
//
// ParseSource and ParseSink validate the URI grammar and return a Spec.
// OpenSource and OpenSink build the matching adapter from the Spec and a set
// of base configurations (Deps); anything given in the URI, such as broker
// addresses or a DSN, overrides the base configuration.
//
//	src, _ := endpoint.ParseSource("kafka://localhost:9092/orders?group=audit")
//	sink, _ := endpoint.ParseSink("postgres://u:p@db/app?table=orders")
//	if err := endpoint.ValidateBridge(src, sink); err != nil {
//		return err
//	}
package endpoint
