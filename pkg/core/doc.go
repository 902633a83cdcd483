// Package core holds the shared data contracts exchanged between the
// translator, the CTE builder, and the assembler. It contains value types
// only; all behavior lives in the packages that produce and consume them.
package core
