// Package database writes messages into SQL tables through GORM.
//
// Open connects with the postgres dialector (or sqlite for local runs and
// tests), retrying connection failures, and routes GORM logs through the
// fluxmux logger. TableSink inserts one row per JSON object message and can
// verify the table layout against a required column list before the first
// insert:
//
//	db, err := database.Open(ctx, database.Config{DSN: dsn}, log)
//	if err != nil {
//	    return err
//	}
//	cols, _ := database.ParseColumns("id:integer,name:text")
//	sink, err := database.NewTableSink(db, "events", cols, log)
//
// # Configuration
//
//	database:
//	  driver: "postgres"
//	  max_open_conns: 10
//	  connect_retries: 3
//	  slow_query_threshold: "200ms"
package database
