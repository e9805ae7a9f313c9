/*
Package api holds the wire types and server configuration of the read-only
inventory registry API.

The API is served by package httpserver and consumed through package
api/clients. Every response body is JSON; public keys are encoded as
base58 strings.

# Endpoints

  - GET /api/v1/registry/{authority}/address - registry PDA and bump of an authority
  - GET /api/v1/registry/{authority} - decoded registry account
  - GET /api/v1/registry/{authority}/slots/{class} - the slots of one class

Failures are reported with an ErrorResponse body and one of the status
codes 400 (malformed authority or class), 404 (registry not initialized)
or 502 (the Solana RPC node failed).
*/
package api
