// Package testutil contains helper builders used across tests to reduce
// boilerplate when constructing sessions, transcripts and scripted agent
// handlers. These helpers are intentionally minimal and are not intended
// for production usage.
package testutil
