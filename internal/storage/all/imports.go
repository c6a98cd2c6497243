// Package all wires every built-in storage backend into the storage factory.
//
// This package exists purely for side effects: importing it (even as a blank
// import) runs the init functions of each backend, which register their
// factories and DDL bootstrappers with the storage package. The CLI binaries
// import it so config alone selects the backend at runtime:
//
//   - "sqlite"   (internal/storage/sqlite)
//   - "postgres" (internal/storage/postgres)
//   - "mssql"    (internal/storage/mssql)
package all

import (
	_ "github.com/eljeilany/ecom-analytics-studdy/internal/storage/mssql"
	_ "github.com/eljeilany/ecom-analytics-studdy/internal/storage/postgres"
	_ "github.com/eljeilany/ecom-analytics-studdy/internal/storage/sqlite"
)
