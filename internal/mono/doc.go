// Package mono degenerics finalized generic units. Every instance is keyed
// by the generic's name and its concrete type arguments; the first
// requester claims the key and spawns the job that builds it, everyone
// else gets the same name back.
package mono
