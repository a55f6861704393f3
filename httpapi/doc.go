// Package httpapi exposes the QuickBooks connect, callback and invoice routes
// over net/http using gorilla/mux.
package httpapi
