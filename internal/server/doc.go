// Package server wires authentication, authorization, and rate
// limiting into the HTTP surface of the service.
package server
