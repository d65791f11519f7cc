// Package tabular reconstructs structured holding records from the
// unordered, positioned text fragments produced by a cloud text-detection
// service. A photographed brokerage holdings table has no guaranteed
// layout: row boundaries, column order and header wording differ between
// apps, numbers can be visually merged with neighbouring tokens, and the
// sign of the profit column is conveyed only by text color.
//
// The pipeline is pure and synchronous: tokens are clustered into rows by
// vertical proximity, header keywords in the first rows establish column
// anchors, each row is scanned for an instrument code, and the remaining
// numeric fragments are assigned to quantity, average price and profit by
// anchor distance with positional fallbacks. Row-level failures degrade to
// default field values; nothing in this package aborts a whole-image
// extraction.
package tabular
