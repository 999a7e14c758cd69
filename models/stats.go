package models

// GroupCount is one bucket of a group-by count.
type GroupCount struct {
	Key   string `bson:"_id" json:"key"`
	Count int64  `bson:"count" json:"count"`
}

// ActivityCount is a user with the number of records they authored.
type ActivityCount struct {
	UserID    int64  `bson:"_id"`
	FirstName string `bson:"first_name"`
	LastName  string `bson:"last_name"`
	Count     int64  `bson:"count"`
}

// Location is the projection used for spatial bucketing.
type Location struct {
	Latitude  float64 `bson:"latitude"`
	Longitude float64 `bson:"longitude"`
}
