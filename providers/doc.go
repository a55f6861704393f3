// Package providers holds provider implementations. The quickbooks
// subpackage runs the Intuit OAuth2 grants and the accounting query API.
package providers
