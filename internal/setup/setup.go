// Package setup validates and stores the credentials collected by the
// first-run wizard.
package setup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"github.com/CODERTG2/dropbox-assignment-tracker/internal/config"
)

var (
	ErrEmptyCredentials = errors.New("please enter your credentials JSON")
	ErrEmptySheetID     = errors.New("please enter your Sheet ID")
	ErrInvalidJSON      = errors.New("invalid JSON format")
	ErrMissingFields    = errors.New("missing required fields")
)

// RequiredFields must be present in the service-account JSON.
var RequiredFields = []string{"type", "client_email", "private_key"}

type Input struct {
	Credentials  string
	SheetID      string
	DropboxToken string
}

// Validate checks presence of every value and the shape of the credential
// JSON. It does not contact any service.
func (in Input) Validate() error {
	if strings.TrimSpace(in.Credentials) == "" {
		return ErrEmptyCredentials
	}
	if strings.TrimSpace(in.SheetID) == "" {
		return ErrEmptySheetID
	}
	return ValidateCredentials(in.Credentials)
}

func ValidateCredentials(text string) error {
	var data map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &data); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}

	var missing []string
	for _, field := range RequiredFields {
		if _, ok := data[field]; !ok {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingFields, strings.Join(missing, ", "))
	}
	return nil
}

// Lister is satisfied by records.Store.
type Lister interface {
	ListNames(ctx context.Context) ([]string, error)
}

// OpenFunc opens a record store from raw credentials and a sheet id.
type OpenFunc func(ctx context.Context, credentials []byte, sheetID string) (Lister, error)

// Probe opens the sheet with the given credentials and lists assignments,
// returning how many were found.
func Probe(ctx context.Context, open OpenFunc, in Input) (int, error) {
	store, err := open(ctx, []byte(strings.TrimSpace(in.Credentials)), strings.TrimSpace(in.SheetID))
	if err != nil {
		return 0, fmt.Errorf("connect to sheet: %w", err)
	}
	names, err := store.ListNames(ctx)
	if err != nil {
		return 0, fmt.Errorf("list assignments: %w", err)
	}
	return len(names), nil
}

// Paths are the files Save writes. They come from config.Manager so that
// startup reads the same files.
type Paths struct {
	Credentials string
	Env         string
}

// PathsFor returns the credential and .env paths configured in m.
func PathsFor(m *config.Manager) Paths {
	return Paths{Credentials: m.CredentialsPath(), Env: m.EnvPath()}
}

// Save writes the service-account JSON and the .env file.
func Save(paths Paths, in Input) error {
	if err := in.Validate(); err != nil {
		return err
	}
	for _, p := range []string{paths.Credentials, paths.Env} {
		if err := os.MkdirAll(filepath.Dir(p), 0700); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
	}

	if err := os.WriteFile(paths.Credentials, []byte(strings.TrimSpace(in.Credentials)), 0600); err != nil {
		return fmt.Errorf("write credentials: %w", err)
	}

	env := map[string]string{config.EnvSheetID: strings.TrimSpace(in.SheetID)}
	if token := strings.TrimSpace(in.DropboxToken); token != "" {
		env[config.EnvDropboxKey] = token
	}
	if err := godotenv.Write(env, paths.Env); err != nil {
		return fmt.Errorf("write env file: %w", err)
	}
	return nil
}
