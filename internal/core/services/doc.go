// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// Ingestion writes relational rows before vector points. A failed vector
// upsert therefore leaves chunk rows without vectors, which
// ReconcileService can detect and repair. Nothing here holds global state;
// every dependency is passed to a constructor.
package services
