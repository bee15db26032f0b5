// Package schema defines the property model of a parametric component.
//
// A Schema is an ordered list of named property definitions. The order is
// significant: it fixes the nesting order of combination expansion and
// therefore the order in which combinations are produced.
//
// Property kinds are closed to BOOLEAN, VARIANT and TEXT. Values assigned to
// properties are represented by the sealed Value interface (BoolValue and
// TextValue). A Combination is an ordered, immutable assignment of values to
// property names.
package schema
