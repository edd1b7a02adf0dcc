// Package tools provides host command execution shared by the transport
// bootstrap and device discovery.
package tools
