// Command admin manages messaging-console admin records in DynamoDB.
//
//	admin put <username> [surface]     read a password on stdin, store the admin
//	admin disable <username> [surface] keep the record but refuse logins
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/streetbite/vendorhub/internal/config"
	"github.com/streetbite/vendorhub/internal/credential"
	"github.com/streetbite/vendorhub/internal/domain"
	"github.com/streetbite/vendorhub/internal/repository/dynamo"
	"github.com/streetbite/vendorhub/internal/storage"
)

const minPasswordLength = 10

// adminWriter is satisfied by dynamo.AdminStore.
type adminWriter interface {
	Put(ctx context.Context, a *domain.Admin) error
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}

	switch os.Args[1] {
	case "put", "disable":
		if len(os.Args) < 3 {
			usage()
		}
		surface := domain.SurfaceWhatsApp
		if len(os.Args) > 3 {
			surface = domain.AdminSurface(os.Args[3])
		}

		var password string
		if os.Args[1] == "put" {
			p, err := readPassword(os.Stdin)
			exitOn(err)
			password = p
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		store, err := openStore(ctx)
		exitOn(err)

		a, err := buildAdmin(os.Args[2], surface, password, os.Args[1] == "disable")
		exitOn(err)
		exitOn(store.Put(ctx, a))
		fmt.Printf("admin %q saved (surface %s, disabled %t)\n", a.Username, a.Surface, a.Disabled)

	default:
		usage()
	}
}

func openStore(ctx context.Context) (adminWriter, error) {
	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	awsCfg, err := storage.LoadAWSConfig(ctx, cfg.Storage.AWSRegion, cfg.Storage.GetAWSProfile())
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}
	return dynamo.NewAdminStore(dynamo.NewClient(awsCfg, cfg.Storage.Endpoint), cfg.Storage.AdminsTable), nil
}

// buildAdmin validates the input and hashes the password. Disabled records
// carry no usable hash.
func buildAdmin(username string, surface domain.AdminSurface, password string, disabled bool) (*domain.Admin, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, errors.New("username is required")
	}
	if surface != domain.SurfaceWhatsApp && surface != domain.SurfaceEmail {
		return nil, fmt.Errorf("unknown surface %q (want %s or %s)", surface, domain.SurfaceWhatsApp, domain.SurfaceEmail)
	}
	a := &domain.Admin{Username: username, Surface: surface, Disabled: disabled}
	if disabled {
		return a, nil
	}
	hash, err := credential.Hash(password)
	if err != nil {
		return nil, err
	}
	a.PasswordHash = hash
	return a, nil
}

// readPassword reads the first line of r.
func readPassword(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	password := strings.TrimRight(line, "\r\n")
	if len(password) < minPasswordLength {
		return "", fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}
	return password, nil
}

func exitOn(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: admin put <username> [surface] | admin disable <username> [surface]")
	os.Exit(2)
}
