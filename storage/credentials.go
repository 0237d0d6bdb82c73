package storage

import (
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-json"

	"roombook/api"
)

// Credentials is the saved session plus the profile fields shown by
// "auth status" without a round trip.
type Credentials struct {
	AccessToken string    `json:"access_token"`
	Username    string    `json:"username"`
	FullName    string    `json:"full_name,omitempty"`
	Role        string    `json:"role"`
	Email       string    `json:"email,omitempty"`
	SavedAt     time.Time `json:"saved_at"`
}

func NewCredentials(resp api.AuthResponse, now time.Time) *Credentials {
	creds := &Credentials{
		AccessToken: resp.AccessToken,
		Username:    resp.Username,
		FullName:    resp.FullName,
		Role:        resp.Role,
		Email:       resp.Email,
		SavedAt:     now.UTC(),
	}
	if claims, err := api.ParseTokenClaims(resp.AccessToken); err == nil {
		if creds.Username == "" {
			creds.Username = claims.Subject
		}
		if creds.Role == "" {
			creds.Role = claims.Role
		}
	}
	return creds
}

func LoadCredentials() (*Credentials, error) {
	path, err := CredentialsPath()
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("credentials path is a directory: %s", path)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var creds Credentials
	if err := json.NewDecoder(file).Decode(&creds); err != nil {
		return nil, err
	}
	return &creds, nil
}

func SaveCredentials(creds *Credentials) error {
	if _, err := ensureConfigDir(); err != nil {
		return err
	}
	path, err := CredentialsPath()
	if err != nil {
		return err
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(creds)
}

func ClearCredentials() error {
	path, err := CredentialsPath()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return nil
}

// AccessTokenExpired reads the exp claim. Tokens without one never expire
// locally; the server still has the final word.
func (c *Credentials) AccessTokenExpired(now time.Time) bool {
	if c.AccessToken == "" {
		return true
	}
	claims, err := api.ParseTokenClaims(c.AccessToken)
	if err != nil {
		return true
	}
	if claims.ExpiresAt.IsZero() {
		return false
	}
	return !now.Before(claims.ExpiresAt)
}
