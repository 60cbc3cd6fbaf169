// Package models defines the domain models shared by the bill store, the
// controllers and the HTML front.
//
// # Bills
//
// A Bill is an employee expense record with a receipt attachment. It is
// created in two steps:
//  1. the receipt upload creates a draft (email, file URL, file name),
//  2. the form submission completes the draft and stamps CommittedAt.
//
// Only committed bills are listed.
//
// # Sessions
//
// A Session identifies the connected user (Employee or Admin) and is passed
// explicitly to every controller.
package models
