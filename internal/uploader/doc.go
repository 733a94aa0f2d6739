// Package uploader defines the publishing collaborator contract and ships an
// HTTP multipart implementation with platform-wide rate limiting.
package uploader
