// Package domain contains the core business entities for doctrine.
// These types have no dependencies on adapters or external libraries
// and represent the corpus model: sources, guides, links, references,
// validation issues, and the frameworks catalog.
package domain
