// Package repository implements CRUD over the JSON collections in the
// key-value store. Every mutation is a read-modify-write of the whole
// collection under the store lock; uniqueness is a linear scan at create
// time, matching the behavior of the data already in storage.
//
// The sentinel errors below let handlers map failures to HTTP statuses
// (409 for uniqueness violations, 404 for missing records) without string
// matching.
package repository

import "errors"

// ErrNotFound is returned when an id, token or lookup field matches no
// record in the collection.
var ErrNotFound = errors.New("record not found")

// ErrEmailExists is returned by create when the email is already taken.
var ErrEmailExists = errors.New("email already exists")

// ErrPhoneExists is returned by create when the phone is already taken.
var ErrPhoneExists = errors.New("phone already exists")

// ErrVehicleExists is returned by driver create when the vehicle number is
// already registered.
var ErrVehicleExists = errors.New("vehicle number already exists")
