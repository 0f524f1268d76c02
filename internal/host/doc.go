// Package host defines the capabilities a plugin receives from the runtime
// it is loaded into, and the runtime's timer implementation.
//
// Plugins only see the Scheduler and Chat interfaces. Timers is the concrete
// Scheduler: a robfig/cron instance driving constant-delay entries with
// sub-second precision. Each entry is wrapped so that it never overlaps with
// itself and becomes inert the moment it is cancelled.
package host
