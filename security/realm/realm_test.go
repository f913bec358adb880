// Copyright (c) Jeevanandam M. (https://github.com/jeevatkm)
// Source code and usage is governed by a MIT style
// license that can be found in the LICENSE file.

package realm

import (
	"testing"
	"time"

	"aahframe.work/authn/config"
	"aahframe.work/authn/security/acrypto"
	"aahframe.work/authn/security/authc"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTOTPSecret = "JBSWY3DPEHPK3PXP"

func testEncoder(t *testing.T) acrypto.PasswordEncoder {
	cfg, _ := config.ParseString(`security { password_encoder { bcrypt { cost = 4 } } }`)
	encoder, err := acrypto.CreatePasswordEncoder(cfg, "bcrypt")
	require.Nil(t, err)
	return encoder
}

func testRealm(t *testing.T) *Realm {
	encoder := testEncoder(t)
	hash, err := encoder.Generate([]byte("Admin123"))
	require.Nil(t, err)

	r, err := New(encoder,
		&Account{
			User:         &authc.User{ID: 1, Username: "admin"},
			PasswordHash: hash,
			TOTPSecret:   testTOTPSecret,
		},
		&Account{
			User:         &authc.User{ID: 2, Username: "nurse"},
			PasswordHash: hash,
		},
	)
	require.Nil(t, err)
	return r
}

func TestRealmVerifyPassword(t *testing.T) {
	r := testRealm(t)
	assert.Equal(t, 2, r.Len())
	assert.Equal(t, []string{"admin", "nurse"}, r.Usernames())

	u, err := r.VerifyPassword("admin", "Admin123")
	assert.Nil(t, err)
	assert.Equal(t, 1, u.ID)

	_, err = r.VerifyPassword("admin", "admin123")
	assert.Equal(t, ErrInvalidCredentials, err)

	_, err = r.VerifyPassword("nobody", "Admin123")
	assert.Equal(t, ErrInvalidCredentials, err)
}

func TestRealmVerifyToken(t *testing.T) {
	r := testRealm(t)
	now := time.Date(2026, 10, 16, 10, 30, 0, 0, time.UTC)
	r.now = func() time.Time { return now }

	code, err := totp.GenerateCodeCustom(testTOTPSecret, now, totp.ValidateOpts{
		Period: 30, Digits: otp.DigitsSix, Algorithm: otp.AlgorithmSHA1,
	})
	require.Nil(t, err)

	admin, _ := r.UserByUsername("admin")
	u, err := r.VerifyToken(admin, code)
	assert.Nil(t, err)
	assert.Equal(t, admin, u)

	// within skew
	r.now = func() time.Time { return now.Add(30 * time.Second) }
	_, err = r.VerifyToken(admin, code)
	assert.Nil(t, err)

	r.now = func() time.Time { return now.Add(5 * time.Minute) }
	_, err = r.VerifyToken(admin, code)
	assert.Equal(t, ErrInvalidCredentials, err)

	// not enrolled
	nurse, _ := r.UserByUsername("nurse")
	_, err = r.VerifyToken(nurse, code)
	assert.Equal(t, ErrInvalidCredentials, err)

	_, err = r.VerifyToken(nil, code)
	assert.Equal(t, ErrInvalidCredentials, err)

	_, err = r.UserByUsername("nobody")
	assert.Equal(t, ErrUserNotFound, err)
}

func TestRealmAdd(t *testing.T) {
	r := testRealm(t)
	err := r.Add(&Account{User: &authc.User{Username: "admin"}})
	assert.Equal(t, "security/realm: user 'admin' already exists", err.Error())
	assert.NotNil(t, r.Add(&Account{}))

	_, err = New(nil)
	assert.Equal(t, acrypto.ErrPasswordEncoderIsNil, err)
}

func TestRealmFromConfig(t *testing.T) {
	cfg, err := config.ParseString(`
	security {
	  realm {
	    password_encoder = "bcrypt"
	    users {
	      admin {
	        id = 1
	        uuid = "a5c9f1a2-0c57-4c4e-9d0b-7b1d8f0e2a11"
	        password = "$2y$10$2A4GsJ6SmLAMvDe8XmTam.MSkKojdobBVJfIU7GiyoM.lWt.XV3H6"
	        totp_secret = "JBSWY3DPEHPK3PXP"
	        properties {
	          authentication {
	            secondaryType = "totp"
	          }
	        }
	      }
	    }
	  }
	}`)
	require.Nil(t, err)

	r, err := NewFromConfig(cfg)
	require.Nil(t, err)
	assert.Equal(t, 1, r.Len())

	u, err := r.VerifyPassword("admin", "welcome123")
	assert.Nil(t, err)
	assert.Equal(t, 1, u.ID)
	assert.Equal(t, "a5c9f1a2-0c57-4c4e-9d0b-7b1d8f0e2a11", u.UUID)
	assert.Equal(t, "totp", u.Property("authentication.secondaryType"))

	cfg, _ = config.ParseString(`security { realm { users { admin { id = 1 } } } }`)
	_, err = NewFromConfig(cfg)
	assert.Equal(t, "security/realm: user 'admin' has no password", err.Error())

	cfg, _ = config.ParseString(`security { realm { password_encoder = "md5" } }`)
	_, err = NewFromConfig(cfg)
	assert.Equal(t, "security/acrypto: unsupported password encoder 'md5'", err.Error())

	cfg, _ = config.ParseString(`security { realm { totp { digits = 7 } } }`)
	_, err = NewFromConfig(cfg)
	assert.NotNil(t, err)
}
