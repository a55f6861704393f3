// Package core holds the QuickBooks connection domain: the credential and
// invoice types, the store and provider contracts, and the Service that runs
// the authorization, refresh and invoice query flows. Provider and storage
// adapters depend on core; core does not import them.
package core
