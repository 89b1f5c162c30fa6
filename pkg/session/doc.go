/*
Package session implements session management and persistence orchestration.

It serialises the read-modify-write cycle of a journey state per session ID:
requests for the same session inside one process wait on a reference-counted
mutex, and an optional DistributedLocker extends the exclusion across replicas.
*/
package session
