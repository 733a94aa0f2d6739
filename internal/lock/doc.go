// Package lock serializes posting attempts per item through filesystem lock
// files, valid across goroutines and across process restarts.
package lock
