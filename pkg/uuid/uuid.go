// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package uuid generates the primary keys of user accounts and the names of
uploaded avatar objects.

Values are UUIDv7, so keys sort by creation time and stay B-tree friendly in
PostgreSQL while remaining compatible with the 'uuid' column type.
*/
package uuid

import "github.com/google/uuid"

// New generates a new UUIDv7 string.
//
// It panics if the system entropy source fails, which is unrecoverable.
func New() string {
	id, err := uuid.NewV7()
	if err != nil {
		panic("uuid: failed to generate UUIDv7: " + err.Error())
	}
	return id.String()
}
