// Package main (cmd/regsigner) is the client-side signing utility for the
// naming registry.
//
// It generates keys and produces signatures for the three signed surfaces
// the server accepts: structured forward requests, legacy per-operation
// digests, and minter relay payloads. Digests are computed exactly as the
// server verifies them, so the printed signature can be submitted directly
// to the corresponding API endpoint.
//
// Example usage:
//
//	regsigner keygen
//	regsigner sign-forward --key=<hex> --chain-id=1337 \
//	    --registry-address=0x..f1 --token-id=0x.. --nonce=3 --data=0x..
//	regsigner sign-legacy --key=<hex> --registry-address=0x..f1 \
//	    --nonce=3 --data=0x..
//	regsigner sign-relay --key=<hex> --manager-address=0x..f2 --data=0x..
package main
