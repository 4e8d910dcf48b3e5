// Package core turns published sanctions lists into a uniform entity dataset
// and screens candidate names against it.
//
// The package has no CLI or HTTP dependencies; the command in cmd/sanctions
// and the handlers in internal/web are thin wrappers over it.
//
// # Pipeline
//
// A transform run is a straight line:
//
//  1. [source.Open] yields raw rows keyed by the file's own column labels
//  2. [Normalize] resolves name, sdn_type, program and remarks through the
//     alias tables ([NameAliases], [SDNTypeAliases], ...)
//  3. [Builder.Build] classifies the row as Person or Organization, assigns a
//     deterministic id and joins program and remarks into notes; rows without
//     a name are skipped
//  4. the entity is written as one JSON line, flat ([ShapeSimple]) or as a
//     property-graph record ([ShapeGraph])
//
// Entity ids are name-based UUIDs over the row's position in the source and
// its name, so re-running on an unchanged file gives identical output and
// editing one row changes only that row's id.
//
// # Screening
//
// [LoadIndex] reads an entity file in file order. [Index.Match] returns the
// first entity whose lower-cased name contains the lower-cased query. There
// is no ranking: the earliest entity in the file wins, and a blank query
// never matches.
//
// # Validation
//
// [ValidateJSONL] gates a pipeline on the entity file being well-formed and
// large enough; see [ValidationError].
//
// # Error Handling
//
// Row-level problems are data decisions, not errors. I/O and parse failures
// propagate wrapped with the operation and path; [MapError] turns them into
// coded messages for the CLI and HTTP layers.
package core
