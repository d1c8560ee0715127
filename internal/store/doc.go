// Package store is the gateway to the relational appointment store.
//
// It exposes two operations:
//   - FetchNotifiable: appointments inside the reminder window with no
//     prior sent notification record
//   - RecordSent: idempotent upsert of the notification record
//
// Appointments themselves are written by the booking subsystem; this
// package only reads them. The mysql driver therefore never touches the
// schema. The sqlite driver (local/dev/test) applies the embedded schema
// on open.
package store
