// Package dnsgateway serves DNS queries from registry records. A query for
// alpha.crypto derives the token id from the name and answers from the
// dns.* record keys through the proxy reader, so names held by either
// registry generation resolve.
package dnsgateway
