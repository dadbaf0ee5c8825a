// Package internaldefs names every engine metric once for the Prometheus and
// OTel exporters, along with the latency bucket labels and the helpers that
// turn raw bucket counts into cumulative ones.
//
// # What this package must NOT do
//
//   - Import an exporter package.
//   - Perform I/O.
package internaldefs
