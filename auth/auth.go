// Copyright (C) 2026 The Reel Authors.
//
// This file is part of Reel.
//
// Reel is free software: you can redistribute it and/or modify it under the
// terms of the GNU Affero General Public License as published by the Free
// Software Foundation, either version 3 of the License, or (at your option)
// any later version.
//
// Reel is distributed in the hope that it will be useful, but WITHOUT ANY
// WARRANTY; without even the implied warranty of MERCHANTABILITY or FITNESS
// FOR A PARTICULAR PURPOSE.  See the GNU Affero General Public License for
// more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with Reel.  If not, see <https://www.gnu.org/licenses/>.

package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/defsub/reel"
	"github.com/defsub/reel/config"
	"github.com/defsub/reel/lib/fail"
	g "github.com/defsub/reel/lib/gorm"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	CookieName = reel.AppName
)

var (
	ErrUserNotFound       = fail.NotFound("user")
	ErrSessionNotFound    = fail.NotFound("session")
	ErrSessionExpired     = errors.New("session expired")
	ErrKeyMismatch        = fail.Invalid("incorrect username or password")
	ErrMissingFields      = fail.Invalid("please fill in all fields")
	ErrPasswordMismatch   = fail.Invalid("passwords do not match")
	ErrUsernameTaken      = fail.Invalid("username is already taken")
	ErrEmailTaken         = fail.Invalid("email is already in use")
	ErrCurrentPassword    = fail.Invalid("current password is incorrect")
	ErrSelfAdminChange    = fail.Invalid("you cannot change your own admin role")
	ErrSelfDelete         = fail.Invalid("you cannot delete yourself")
	ErrAdminRequired      = fail.Forbidden("admin access required")
	ErrInvalidTokenSecret = errors.New("invalid token secret")
)

type User struct {
	g.Model
	Username     string `gorm:"size:80;uniqueIndex:idx_user_username;not null"`
	Email        string `gorm:"size:120;uniqueIndex:idx_user_email;not null"`
	PasswordHash string `gorm:"size:255;not null" json:"-"`
	IsAdmin      bool   `gorm:"default:false"`
	AvatarURL    string `gorm:"size:500"`
}

// Admin reports whether u may run admin operations. Nil is anonymous.
func (u *User) Admin() bool {
	return u != nil && u.IsAdmin
}

// RequireAdmin is the capability check run at the start of every admin
// operation.
func RequireAdmin(u *User) error {
	if !u.Admin() {
		return ErrAdminRequired
	}
	return nil
}

type Session struct {
	g.Model
	UserID  uint      `gorm:"index:idx_session_user;not null"`
	Token   string    `gorm:"size:64;uniqueIndex:idx_session_token;not null"`
	Expires time.Time `gorm:"index:idx_session_expires"`
}

func (s *Session) Expired() bool {
	now := time.Now()
	return now.After(s.Expires)
}

func (s *Session) Valid() bool {
	return !s.Expired()
}

// Cleanup removes rows owned by a user inside the delete transaction.
type Cleanup func(tx *gorm.DB, userID uint) error

type Auth struct {
	config   *config.Config
	db       *gorm.DB
	cleanups []Cleanup
}

func NewAuth(config *config.Config, db *gorm.DB) *Auth {
	return &Auth{config: config, db: db}
}

func (a *Auth) Open() (err error) {
	err = a.db.AutoMigrate(Models()...)
	return
}

func Models() []interface{} {
	return []interface{}{&User{}, &Session{}}
}

// OnDelete registers cleanups run when a user is deleted.
func (a *Auth) OnDelete(fns ...Cleanup) {
	a.cleanups = append(a.cleanups, fns...)
}

func (a *Auth) minPassword() int {
	if a.config.Auth.MinPasswordLength > 0 {
		return a.config.Auth.MinPasswordLength
	}
	return 6
}

func (a *Auth) checkPassword(pass, confirm string) error {
	if pass != confirm {
		return ErrPasswordMismatch
	}
	if len([]rune(pass)) < a.minPassword() {
		return fail.Invalid(fmt.Sprintf("password must be at least %d characters", a.minPassword()))
	}
	return nil
}

// Register creates a regular user after validating the form fields.
func (a *Auth) Register(username, email, pass, confirm string) (User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || email == "" || pass == "" {
		return User{}, ErrMissingFields
	}
	if err := a.checkPassword(pass, confirm); err != nil {
		return User{}, err
	}
	return a.AddUser(username, email, pass, false)
}

// AddUser creates a user without form validation, used by the CLI.
func (a *Auth) AddUser(username, email, pass string, admin bool) (User, error) {
	if err := a.checkUnique(0, username, email); err != nil {
		return User{}, err
	}
	digest, err := HashPassword(pass)
	if err != nil {
		return User{}, err
	}
	u := User{Username: username, Email: email, PasswordHash: digest, IsAdmin: admin}
	err = a.createUser(&u)
	if err != nil {
		if fail.IsConflict(err) {
			// lost a race with another registration
			return User{}, a.checkUnique(0, username, email)
		}
		return User{}, fail.Store(err)
	}
	return u, nil
}

func (a *Auth) checkUnique(self uint, username, email string) error {
	var count int64
	err := a.db.Model(&User{}).Where("username = ? and id <> ?", username, self).Count(&count).Error
	if err != nil {
		return fail.Store(err)
	}
	if count > 0 {
		return ErrUsernameTaken
	}
	err = a.db.Model(&User{}).Where("email = ? and id <> ?", email, self).Count(&count).Error
	if err != nil {
		return fail.Store(err)
	}
	if count > 0 {
		return ErrEmailTaken
	}
	return nil
}

func (a *Auth) User(id uint) (User, error) {
	var u User
	err := a.db.First(&u, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return User{}, ErrUserNotFound
		}
		return User{}, fail.Store(err)
	}
	return u, nil
}

func (a *Auth) UserByName(username string) (User, error) {
	var u User
	err := a.db.Where("username = ?", username).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return User{}, ErrUserNotFound
		}
		return User{}, fail.Store(err)
	}
	return u, nil
}

// UsersByID loads the given users keyed by id. Unknown ids are skipped.
func (a *Auth) UsersByID(ids []uint) (map[uint]User, error) {
	result := make(map[uint]User)
	if len(ids) == 0 {
		return result, nil
	}
	var list []User
	err := a.db.Where("id in ?", ids).Find(&list).Error
	if err != nil {
		return nil, fail.Store(err)
	}
	for _, u := range list {
		result[u.ID] = u
	}
	return result, nil
}

func (a *Auth) Users() []User {
	var users []User
	a.db.Order("created_at desc, id desc").Find(&users)
	return users
}

func (a *Auth) UserCount() int64 {
	var count int64
	a.db.Model(&User{}).Count(&count)
	return count
}

func (a *Auth) Check(username, pass string) (User, error) {
	u, err := a.UserByName(username)
	if err != nil {
		if fail.IsNotFound(err) {
			return User{}, ErrKeyMismatch
		}
		return User{}, err
	}
	if !VerifyPassword(pass, u.PasswordHash) {
		return User{}, ErrKeyMismatch
	}
	return u, nil
}

func CredentialsError(err error) bool {
	return errors.Is(err, ErrKeyMismatch)
}

func (a *Auth) Login(username, pass string) (Session, error) {
	u, err := a.Check(username, pass)
	if err != nil {
		return Session{}, err
	}
	session := a.session(&u)
	err = a.createSession(&session)
	if err != nil {
		return Session{}, fail.Store(err)
	}
	return session, nil
}

func (a *Auth) Logout(session *Session) {
	a.db.Delete(session)
}

func (a *Auth) ChangePassword(u *User, current, newpass, confirm string) error {
	if current == "" || newpass == "" || confirm == "" {
		return ErrMissingFields
	}
	if err := a.checkPassword(newpass, confirm); err != nil {
		return err
	}
	if !VerifyPassword(current, u.PasswordHash) {
		return ErrCurrentPassword
	}
	return a.SetPassword(u, newpass)
}

// SetPassword replaces the digest without checking the old password.
func (a *Auth) SetPassword(u *User, pass string) error {
	digest, err := HashPassword(pass)
	if err != nil {
		return err
	}
	u.PasswordHash = digest
	return fail.Store(a.db.Model(u).Update("password_hash", digest).Error)
}

func (a *Auth) UpdateProfile(u *User, username, email, avatarURL string) error {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || email == "" {
		return ErrMissingFields
	}
	if err := a.checkUnique(u.ID, username, email); err != nil {
		return err
	}
	u.Username = username
	u.Email = email
	if avatarURL != "" {
		u.AvatarURL = avatarURL
	}
	err := a.db.Model(u).Updates(map[string]interface{}{
		"username":   u.Username,
		"email":      u.Email,
		"avatar_url": u.AvatarURL,
	}).Error
	if fail.IsConflict(err) {
		return a.checkUnique(u.ID, username, email)
	}
	return fail.Store(err)
}

func (a *Auth) SetAvatar(u *User, url string) error {
	u.AvatarURL = url
	return fail.Store(a.db.Model(u).Update("avatar_url", url).Error)
}

func (a *Auth) SetAdmin(u *User, admin bool) error {
	u.IsAdmin = admin
	return fail.Store(a.db.Model(u).Update("is_admin", admin).Error)
}

// ToggleAdmin flips the admin flag of another user.
func (a *Auth) ToggleAdmin(actor *User, id uint) (User, error) {
	if err := RequireAdmin(actor); err != nil {
		return User{}, err
	}
	if actor.ID == id {
		return User{}, ErrSelfAdminChange
	}
	u, err := a.User(id)
	if err != nil {
		return User{}, err
	}
	err = a.SetAdmin(&u, !u.IsAdmin)
	return u, err
}

// DeleteUser removes another user with their sessions and every row
// registered through OnDelete, in one transaction.
func (a *Auth) DeleteUser(actor *User, id uint) (User, error) {
	if err := RequireAdmin(actor); err != nil {
		return User{}, err
	}
	if actor.ID == id {
		return User{}, ErrSelfDelete
	}
	u, err := a.User(id)
	if err != nil {
		return User{}, err
	}
	err = a.db.Transaction(func(tx *gorm.DB) error {
		for _, fn := range a.cleanups {
			if err := fn(tx, u.ID); err != nil {
				return err
			}
		}
		if err := tx.Where("user_id = ?", u.ID).Delete(&Session{}).Error; err != nil {
			return err
		}
		return tx.Delete(&User{}, u.ID).Error
	})
	return u, fail.Store(err)
}

func (a *Auth) NewCookie(session *Session) http.Cookie {
	return http.Cookie{
		Name:     CookieName,
		Value:    session.Token,
		MaxAge:   session.timeRemaining(),
		Path:     "/",
		Secure:   a.config.Auth.SecureCookies,
		SameSite: http.SameSiteStrictMode,
		HttpOnly: true}
}

func ExpireCookie(cookie *http.Cookie) *http.Cookie {
	cookie.MaxAge = -1
	cookie.Value = ""
	cookie.Path = "/"
	cookie.Expires = time.Now().Add(-24 * time.Hour)
	return cookie
}

func (a *Auth) CookieSession(cookie *http.Cookie) *Session {
	if cookie == nil || cookie.Name != CookieName {
		return nil
	}
	return a.findSession(cookie.Value)
}

func (a *Auth) TokenSession(token string) *Session {
	return a.findSession(token)
}

func (a *Auth) CheckCookie(cookie *http.Cookie) error {
	session := a.CookieSession(cookie)
	if session == nil {
		return ErrSessionNotFound
	}
	if session.Expired() {
		return ErrSessionExpired
	}
	return nil
}

func (a *Auth) SessionUser(session *Session) (*User, error) {
	u, err := a.User(session.UserID)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (a *Auth) RefreshCookie(session *Session, cookie *http.Cookie) error {
	err := a.Refresh(session)
	if err != nil {
		return err
	}
	cookie.MaxAge = session.timeRemaining()
	cookie.Path = "/"
	cookie.HttpOnly = true
	cookie.Secure = a.config.Auth.SecureCookies
	cookie.SameSite = http.SameSiteStrictMode
	return nil
}

func (a *Auth) Refresh(session *Session) error {
	if session == nil {
		return ErrSessionNotFound
	}
	return a.touch(session)
}

// PurgeSessions deletes expired sessions and returns how many were removed.
func (a *Auth) PurgeSessions() (int64, error) {
	result := a.db.Where("expires < ?", time.Now()).Delete(&Session{})
	return result.RowsAffected, fail.Store(result.Error)
}

func (a *Auth) findSession(token string) *Session {
	if token == "" {
		return nil
	}
	var session Session
	err := a.db.Where("token = ?", token).First(&session).Error
	if err != nil {
		return nil
	}
	return &session
}

func (a *Auth) session(u *User) Session {
	token := uuid.New().String()
	expires := time.Now().Add(a.config.Auth.SessionAge)
	session := Session{UserID: u.ID, Token: token, Expires: expires}
	return session
}

func (a *Auth) touch(s *Session) error {
	s.Expires = time.Now().Add(a.config.Auth.SessionAge)
	return a.db.Model(s).Update("expires", s.Expires).Error
}

func (a *Auth) createUser(u *User) (err error) {
	err = a.db.Create(u).Error
	return
}

func (a *Auth) createSession(s *Session) (err error) {
	err = a.db.Create(s).Error
	return
}

func (s *Session) timeRemaining() int {
	return int(s.Duration().Seconds())
}

func (s *Session) Duration() time.Duration {
	return time.Until(s.Expires)
}
