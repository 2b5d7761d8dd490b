package models

// MongoDbCollection names a collection in the bot's MongoDB database
type MongoDbCollection string

func (m MongoDbCollection) String() string {
	return string(m)
}
