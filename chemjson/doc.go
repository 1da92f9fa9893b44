// Package chemjson implements serialization and unserialization of
// topologies and coordinates as JSON, so they can be exchanged with
// programs written in other languages, for instance via UNIX pipes.
package chemjson
