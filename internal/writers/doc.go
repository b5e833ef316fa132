// Package writers holds output helpers shared by the subcommands.
//
// Record and mapping serialization stays in the format packages; this
// package only decides how a failed write is reported.
package writers
