// Package core defines the shared vocabulary of the switchboard runtime:
// topics, messages, sessions and the error taxonomy. Every other package
// builds on these types; core itself depends on nothing but the standard
// library and the uuid package.
package core
