package user

import (
	"context"
	"net/mail"

	"github.com/pkg/errors"

	"github.com/specedu/caseboard/core"
	"github.com/specedu/caseboard/core/sheet"
)

var (
	// errors
	ErrNotFound           = core.ErrNotFound
	ErrInvalidCredentials = errors.New("invalid credentials")
)

type Service struct {
	store          *sheet.Store
	allowPlaintext bool
}

func NewService(tables sheet.TableService, conf *core.Config, logger core.Logger) *Service {
	return &Service{
		store:          sheet.NewStore(tables, sheet.TableUsers, logger),
		allowPlaintext: conf.Auth.AllowPlaintextPasswords,
	}
}

func (svc *Service) QueryAll(ctx context.Context) []User {
	recs := svc.store.ReadAll(ctx)
	users := make([]User, 0, len(recs))
	for _, rec := range recs {
		if usr := fromRecord(rec); usr.Username != "" {
			users = append(users, usr)
		}
	}
	return users
}

func (svc *Service) GetByUsername(ctx context.Context, uname string) (User, error) {
	uname = core.CleanString(uname)
	for _, usr := range svc.QueryAll(ctx) {
		if usr.Username == uname {
			return usr, nil
		}
	}
	return User{}, ErrNotFound
}

// QueryByRoles returns the users holding any of roles.
func (svc *Service) QueryByRoles(ctx context.Context, roles ...string) []User {
	users := make([]User, 0)
	for _, usr := range svc.QueryAll(ctx) {
		if usr.Identity().HasAnyRole(roles...) {
			users = append(users, usr)
		}
	}
	return users
}

// EmailAddresses returns the addresses of the users holding any of roles, skipping users without one.
func (svc *Service) EmailAddresses(ctx context.Context, roles ...string) []mail.Address {
	addrs := make([]mail.Address, 0)
	for _, usr := range svc.QueryByRoles(ctx, roles...) {
		if usr.Email == "" {
			continue
		}
		addrs = append(addrs, mail.Address{Name: usr.Name, Address: usr.Email})
	}
	return addrs
}

// Authenticate returns the user matching uname and pwd, or ErrInvalidCredentials.
func (svc *Service) Authenticate(ctx context.Context, uname, pwd string) (User, error) {
	usr, err := svc.GetByUsername(ctx, uname)
	if err != nil {
		if err == ErrNotFound {
			return User{}, ErrInvalidCredentials
		}
		return User{}, errors.Wrap(err, "finding user by username")
	}
	if err := usr.CheckPassword(pwd, svc.allowPlaintext); err != nil {
		return User{}, ErrInvalidCredentials
	}
	return usr, nil
}

// Save updates the user row with the same username, or appends a new one.
func (svc *Service) Save(ctx context.Context, nu NewUser) (User, error) {
	usr := User{
		Username: core.CleanString(nu.Username),
		Role:     core.CleanString(nu.Role, true),
		Name:     core.CleanString(nu.Name),
		Email:    core.CleanString(nu.Email, true),
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}

	if _, err := svc.store.FindAndUpdate(ctx, usr.Username, usr.record()); err != nil {
		if errors.Cause(err) != core.ErrNotFound {
			return User{}, errors.Wrap(err, "updating user")
		}
		if err := svc.store.Append(ctx, usr.record()); err != nil {
			return User{}, errors.Wrap(err, "creating user")
		}
	}
	return usr, nil
}

// ResetPassword stores a new bcrypt hash for the user.
func (svc *Service) ResetPassword(ctx context.Context, uname, pwd string) error {
	usr, err := svc.GetByUsername(ctx, uname)
	if err != nil {
		return err
	}
	if err := usr.SetPassword(pwd); err != nil {
		return errors.Wrap(err, "hashing password")
	}
	if _, err := svc.store.FindAndUpdate(ctx, usr.Username, sheet.Record{"password": usr.Password}); err != nil {
		return errors.Wrap(err, "updating password")
	}
	return nil
}
