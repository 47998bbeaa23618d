package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MediaRef points at an object stored on the media host.
type MediaRef struct {
	URL      string `bson:"url" json:"url"`
	PublicID string `bson:"public_id" json:"publicId"`
}

func (m MediaRef) IsZero() bool {
	return m.URL == "" && m.PublicID == ""
}

type User struct {
	ID           primitive.ObjectID   `bson:"_id,omitempty" json:"_id"`
	Username     string               `bson:"username" json:"username"`
	Email        string               `bson:"email" json:"email"`
	Fullname     string               `bson:"fullname" json:"fullname"`
	Avatar       MediaRef             `bson:"avatar" json:"avatar"`
	CoverImage   MediaRef             `bson:"coverImage" json:"coverImage"`
	WatchHistory []primitive.ObjectID `bson:"watchHistory" json:"watchHistory"`
	Password     string               `bson:"password" json:"-"`
	RefreshToken string               `bson:"refreshToken,omitempty" json:"-"`
	CreatedAt    time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// Public strips the credential fields before a user leaves the service layer.
func (u User) Public() User {
	u.Password = ""
	u.RefreshToken = ""
	if u.WatchHistory == nil {
		u.WatchHistory = []primitive.ObjectID{}
	}
	return u
}

type AuthClaims struct {
	UserID   string `json:"sub"`
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	Fullname string `json:"fullname,omitempty"`
	Type     string `json:"typ"`
	TokenID  string `json:"jti"`
}

type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type LoginResult struct {
	User         User   `json:"user"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// RegisterInput is the validated text part of a registration form plus the
// staged local paths of the uploaded images.
type RegisterInput struct {
	Fullname       string
	Email          string
	Username       string
	Password       string
	AvatarPath     string
	AvatarType     string
	CoverImagePath string
	CoverImageType string
}

type LoginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

type UpdateAccountRequest struct {
	Fullname string `json:"fullname" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
}

// ImageField names the user document field an uploaded image is stored in.
type ImageField string

const (
	AvatarField     ImageField = "avatar"
	CoverImageField ImageField = "coverImage"
)
