package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Address represents a user's address for delivery
type Address struct {
	Street   string `bson:"street" json:"street" validate:"max=200"`
	District string `bson:"district" json:"district" validate:"max=120"`
	City     string `bson:"city" json:"city" validate:"max=120"`
	State    string `bson:"state" json:"state" validate:"max=120"`
	ZipCode  string `bson:"zipcode" json:"zipcode" validate:"max=10"`
}

// Profile holds the optional, user editable account details
type Profile struct {
	DisplayName      string     `bson:"display_name" json:"display_name" validate:"max=60"`
	Phone            string     `bson:"phone" json:"phone" validate:"max=30"`
	GamerTag         string     `bson:"gamer_tag" json:"gamer_tag" validate:"max=60"`
	FavoritePlatform string     `bson:"favorite_platform" json:"favorite_platform" validate:"max=40"`
	BirthDate        *time.Time `bson:"birth_date,omitempty" json:"birth_date,omitempty"`
	Address          Address    `bson:"address" json:"address"`
	NewsletterOK     bool       `bson:"newsletter_ok" json:"newsletter_ok"`
}

// User represents a user in the system
type User struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Username          string             `bson:"username" json:"username"`
	Email             string             `bson:"email" json:"email"`
	Password          string             `bson:"password,omitempty" json:"-"`
	Role              string             `bson:"role" json:"role"` // "user" or "admin"
	IsVerified        bool               `bson:"is_verified" json:"is_verified"`
	VerificationToken string             `bson:"verification_token" json:"-"`
	Profile           Profile            `bson:"profile" json:"profile"`
	CreatedAt         time.Time          `bson:"created_at" json:"created_at"`
}

// DisplayName returns the public name of the user
func (u User) DisplayName() string {
	if u.Profile.DisplayName != "" {
		return u.Profile.DisplayName
	}
	return u.Username
}
