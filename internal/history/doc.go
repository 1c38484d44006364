// Package history provides viewing and editing of room message histories.
//
// Histories alternate user and assistant entries. Deletion is therefore
// paired: removing a user entry takes its reply with it, and removing an
// assistant entry takes the user entry that prompted it. Indices are 1-based
// to match the numbering users see in the View listing.
package history
