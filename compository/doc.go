// Package compository is the client side of the compository DNA: the
// registry of reusable zome definitions, DNA templates composed from them,
// and the record of which installable DNA was generated from which template.
//
// It also holds the DNA generation routine that turns a published template
// into an installable DnaFile.
package compository
