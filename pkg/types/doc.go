// Package types defines the investment domain entities, the Gateway contract
// for tabular spreadsheet stores, configuration, and the standard errors
// shared by the persistence adapter.
package types
