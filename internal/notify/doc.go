// Package notify is the reminder dispatch engine: a fixed-cadence polling
// scheduler over the appointment store plus the per-appointment send/record
// worker.
//
// Cadence starts after the first session-open event and survives later
// disconnects; failed cycles never stop future ticks. Within a cycle
// appointments are dispatched sequentially in ascending scheduled-time
// order, and at most one cycle runs at a time (a tick arriving while the
// previous cycle is still running is skipped).
package notify
