package models

// RoleOfficer is the role entitled to receive poaching incident alerts
const RoleOfficer = "officer"

// RoleManager is the role that receives the daily incident digest email
const RoleManager = "manager"

// User holds the structure for the user collection in mongo
type User struct {
	ID      string      `json:"_id" bson:"_id"`
	Details UserDetails `json:"user" bson:"user"`
	Version int32       `json:"__v" bson:"__v"`
}

// UserDetails holds the structure for the inner user structure as defined in
// the user collection in mongo.
//
// Token, PushToken and NotificationToken are legacy duplicate slots for the
// same FCM registration token; older app builds wrote different fields. They
// are kept in sync by the mobile client, so readers take the first non-empty
// one.
type UserDetails struct {
	Name              string      `json:"name" bson:"name"`
	Email             string      `json:"email" bson:"email"`
	Password          string      `json:"password" bson:"password"`
	Role              string      `json:"role" bson:"role"`
	ProfilePicture    string      `json:"profilePicture" bson:"profilePicture"`
	Token             string      `json:"token" bson:"token"`
	PushToken         string      `json:"pushToken" bson:"pushToken"`
	NotificationToken string      `json:"notificationToken" bson:"notificationToken"`
	CreatedAt         interface{} `json:"createdAt" bson:"createdAt"`
	UpdatedAt         interface{} `json:"updatedAt" bson:"updatedAt"`
}

// DeviceToken returns the first non-empty registration token slot, in
// priority order token, pushToken, notificationToken.
func (d UserDetails) DeviceToken() string {
	if d.Token != "" {
		return d.Token
	}
	if d.PushToken != "" {
		return d.PushToken
	}
	return d.NotificationToken
}
