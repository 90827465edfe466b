// Package data carries the routes.txt export compiled into the binary.
package data

import _ "embed"

// RoutesSource describes RoutesCSV in logs and API responses.
const RoutesSource = "Embedded routes.txt content"

// RoutesCSV is the GTFS routes.txt bundled at build time.
//
//go:embed routes.txt
var RoutesCSV []byte
