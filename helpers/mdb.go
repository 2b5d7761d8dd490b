package helpers

import (
	"reflect"
	"strings"

	"github.com/globalsign/mgo"
	"github.com/globalsign/mgo/bson"
	"github.com/pkg/errors"
	"github.com/starboardbot/starboard/cache"
	"github.com/starboardbot/starboard/models"
)

var (
	mDbSession *mgo.Session
	mDbName    string
)

// ConnectMDB connects to mongodb and stores the session
func ConnectMDB(url string, database string) {
	var err error

	log := cache.GetLogger()
	log.WithField("module", "mdb").Info("Connecting to " + url)

	newSession, err := mgo.Dial(url)
	if err != nil {
		log.WithField("module", "mdb").Error("Error connecting to MongoDB: " + err.Error())
		panic(err)
	}
	newSession.SetMode(mgo.Strong, true)
	newSession.SetSafe(&mgo.Safe{WMode: "majority"})

	mDbSession = newSession
	mDbName = database
}

// GetMDbSession returns the mongodb session
func GetMDbSession() *mgo.Session {
	return mDbSession
}

// GetMDb returns the bot's mongodb database
func GetMDb() *mgo.Database {
	return mDbSession.DB(mDbName)
}

// MdbCollection takes a collection name and returns the mgo collection
func MdbCollection(collection models.MongoDbCollection) *mgo.Collection {
	return GetMDb().C(collection.String())
}

// MDbInsert inserts a new object into a collection, generating a new ID
// the ID field of data gets set if the struct has one
func MDbInsert(collection models.MongoDbCollection, data interface{}) (rid bson.ObjectId, err error) {
	newID := bson.NewObjectId()

	ptr := reflect.New(reflect.TypeOf(data))
	ptr.Elem().Set(reflect.ValueOf(data))
	idField := ptr.Elem().FieldByName("ID")
	if idField.IsValid() && idField.CanSet() {
		idField.Set(reflect.ValueOf(newID))
	}

	err = MdbCollection(collection).Insert(ptr.Elem().Interface())
	if err != nil {
		return bson.ObjectId(""), err
	}

	return newID, nil
}

// MDbUpdate updates an object in a collection by its ID
func MDbUpdate(collection models.MongoDbCollection, id bson.ObjectId, data interface{}) (err error) {
	if !id.Valid() {
		return errors.New("invalid id")
	}

	return MdbCollection(collection).UpdateId(id, data)
}

// MDbUpdateQuery updates objects in a collection matching the selector
func MDbUpdateQuery(collection models.MongoDbCollection, selector interface{}, data interface{}) (err error) {
	return MdbCollection(collection).Update(selector, data)
}

// MDbDelete removes an object in a collection by its ID
func MDbDelete(collection models.MongoDbCollection, id bson.ObjectId) (err error) {
	if !id.Valid() {
		return errors.New("invalid id")
	}

	return MdbCollection(collection).RemoveId(id)
}

// MdbDeleteQuery removes all objects in a collection matching the selector
func MdbDeleteQuery(collection models.MongoDbCollection, selector interface{}) (info *mgo.ChangeInfo, err error) {
	return MdbCollection(collection).RemoveAll(selector)
}

// MdbOne finds one object matching the query
func MdbOne(query *mgo.Query, object interface{}) (err error) {
	return query.One(object)
}

// IsMdbNotFound returns true if the error means that no object was found
func IsMdbNotFound(err error) bool {
	if err == nil {
		return false
	}
	if errors.Cause(err) == mgo.ErrNotFound {
		return true
	}
	return strings.Contains(err.Error(), "not found")
}

// IsMdbDup returns true if the error is a duplicate key error
func IsMdbDup(err error) bool {
	return mgo.IsDup(errors.Cause(err))
}
