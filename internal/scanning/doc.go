// Package scanning drives the external nmap binary: it maps latency
// tiers to scan arguments, executes tier-specific scans with retry and
// artifact validation, runs the two-phase verification pipeline and
// dispatches per-network scan units under bounded concurrency.
package scanning
