package services

import (
	"strconv"

	"github.com/google/uuid"
)

// pointNamespace scopes chunk point IDs so they never collide with other
// UUIDv5 values.
var pointNamespace = uuid.MustParse("5b0e7c1d-3f4a-4e8b-9a26-c1d84f7e2a90")

// PointID returns the vector point ID for the chunk at position in document
// docID. The result is a UUIDv5, so re-upserting a chunk overwrites its
// existing point.
func PointID(docID int64, position int) string {
	name := strconv.FormatInt(docID, 10) + ":" + strconv.Itoa(position)
	return uuid.NewSHA1(pointNamespace, []byte(name)).String()
}
