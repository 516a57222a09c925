// Package store keeps the latest dashboard data per widget and fans updates
// out to subscribers.
//
// The main components are:
//
//   - [Store]: Interface defining storage and subscription operations
//   - [MemoryStore]: In-memory implementation of Store with pub/sub
//   - [Snapshot]: Latest ranked projects or active users of one widget
//   - [Event]: Data or scroll update delivered to subscribers
//
// Nothing is persisted; state lives for the lifetime of the process.
package store
