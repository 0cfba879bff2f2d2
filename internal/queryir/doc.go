// Package queryir provides the parsed-query intermediate representation (IR)
// that sits between the SQL-subset parser and the SPARQL generator.
//
// ARCHITECTURE:
//
//	[SQL text] → parser → [Query IR] → querysparql → [SPARQL text]
//
// The parser knows nothing about SPARQL and the generator knows nothing about
// SQL. The Query IR is the contract between them.
//
// DATA MODEL:
//
//   - EntityRef: a Wikidata item (Q + digits) or property (P + digits) id.
//   - Table: a class pattern. ClassifyingProperty (default P31) links the
//     subject to ClassID.
//   - Column: sealed interface over Wildcard, SubjectColumn and
//     PropertyColumn. Subject and property columns carry a Form, either
//     LabelForm or IdentifierForm (the "_qid" suffix).
//   - Predicate: column = literal, matched against the label (LabelMatch) or
//     the raw entity id (IdentityMatch).
//   - Join: a second table bound to the first through one shared value.
//
// SEALED INTERFACES:
//
// Column uses the marker method pattern so backends can switch exhaustively:
//
//	switch c := col.(type) {
//	case Wildcard:
//	case SubjectColumn:
//	case PropertyColumn:
//	}
//
// BINDINGS:
//
// Every non-wildcard column reads one Binding: the subject of a table or one
// property of a table. Join columns on the secondary table resolve to the
// primary table's Binding, so both sides of a join share one value. Backends
// name their variables from Bindings, never from the raw column text.
//
// LIFECYCLE:
//
// A Query is built once per input string, validated, consumed once by a
// backend and discarded. Nothing in this package holds state between calls.
package queryir
