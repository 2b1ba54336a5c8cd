// Package vizspec provides type-safe Go definitions for the drey
// visualization data model.
//
// # Overview
//
// A chart in drey is described declaratively: fields are assigned to visual
// channels (rows, columns, color, size, ...) and a configuration bag selects
// geometry, stacking, sizing and interactivity. The packages under internal/
// turn that description into one composite spec per grid cell, each embedding
// a mark/encoding fragment produced by a single-view builder.
//
// # Core concepts
//
// FieldDescriptor identifies a data column and its analytic role (dimension
// or measure). Descriptors are immutable value objects; two descriptors are
// the same field when their FieldID matches.
//
// ChannelAssignment is the read-only channel→field mapping owned by the host
// application's field store. drey never mutates it.
//
// CompositeSpec is one renderable unit per grid cell, tagged with a stable
// ViewIndex that the interaction bus uses as its source identifier.
//
// # Usage example
//
//	assignment := vizspec.ChannelAssignment{
//		Rows:    []vizspec.FieldDescriptor{{FieldID: "sales", AnalyticType: vizspec.AnalyticTypeMeasure, Aggregation: vizspec.AggregationSum}},
//		Columns: []vizspec.FieldDescriptor{{FieldID: "region", AnalyticType: vizspec.AnalyticTypeDimension}},
//	}
//	if err := assignment.Validate(); err != nil {
//		log.Fatal(err)
//	}
//
// # Design principles
//
//   - Type safety: every enum has a Validate method with exhaustive cases
//   - Immutability: assignments and descriptors are never mutated by drey
//   - Opacity: mark/encoding fragments are carried as-is; the wire format is
//     not standardized beyond the fields needed for composition and wiring
package vizspec
