// Package api holds the wire contracts of the tracker gRPC services. Each versioned subpackage
// defines the request/response messages (encoded with the JSON codec in internal/server/rpc), the
// server interface and its grpc.ServiceDesc.
package api
