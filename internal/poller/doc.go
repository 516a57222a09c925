// Package poller fetches dashboard data from backend HTTP endpoints on a
// fixed interval.
//
// The main components are:
//
//   - [Client]: HTTP client wrapper with per-request timeouts and a body limit
//   - [Poller]: Periodic fetch of one [Job], handing bodies to a [Consumer]
//   - [Handle]: The owned, cancelable result of [Poller.Activate]
//
// A Poller fetches immediately on activation and then once per interval. A
// tick is skipped while the previous request is still outstanding. Stopping a
// handle does not abort an in-flight request; its result is dropped instead,
// so no consumer call happens once [Handle.Stop] has returned.
//
// Users of the campuspulse library should not need to interact with this
// package directly.
package poller
