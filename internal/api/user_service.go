package api

import (
	"context"
	"fmt"
	"strings"

	"github.com/heyfriend/heyfriend/internal/backend"
	"go.uber.org/zap"
)

const searchLimit = 50

// RegisterUser creates the caller's profile. The first user ever
// registered becomes admin.
func (s *Service) RegisterUser(ctx context.Context, reg backend.Registration) error {
	p, err := caller(ctx)
	if err != nil {
		return err
	}
	reg.PhoneNumber = strings.TrimSpace(reg.PhoneNumber)
	reg.DisplayName = strings.TrimSpace(reg.DisplayName)
	if reg.PhoneNumber == "" || reg.DisplayName == "" {
		return fmt.Errorf("phone number and display name are required: %w", backend.ErrInvalidArgument)
	}
	if reg.Gender == "" {
		reg.Gender = backend.GenderOther
	}
	if !reg.Gender.Valid() {
		return fmt.Errorf("gender %q: %w", reg.Gender, backend.ErrInvalidArgument)
	}

	if existing, err := s.db.GetUser(p); err != nil {
		return fmt.Errorf("get user: %w", err)
	} else if existing != nil {
		return fmt.Errorf("caller already registered: %w", backend.ErrAlreadyExists)
	}
	if taken, err := s.db.UserByPhone(reg.PhoneNumber); err != nil {
		return fmt.Errorf("lookup phone: %w", err)
	} else if taken != nil {
		return fmt.Errorf("phone number %s: %w", reg.PhoneNumber, backend.ErrAlreadyExists)
	}
	pic, err := s.resolveBlob(reg.ProfilePicture)
	if err != nil {
		return err
	}

	count, err := s.db.CountUsers()
	if err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	u := &backend.UserProfile{
		Principal:      p,
		DisplayName:    reg.DisplayName,
		PhoneNumber:    reg.PhoneNumber,
		Gender:         reg.Gender,
		Address:        reg.Address,
		DateOfBirth:    reg.DateOfBirth,
		CreatedAt:      s.now(),
		ProfilePicture: pic,
	}
	if err := s.db.InsertUser(u); err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	role := backend.RoleUser
	if count == 0 {
		role = backend.RoleAdmin
	}
	if err := s.db.SetRole(p, role); err != nil {
		return fmt.Errorf("set role: %w", err)
	}

	s.logger.Info("user registered", zap.String("principal", string(p)), zap.String("role", string(role)))
	s.emit(KindUserRegistered, p)
	return nil
}

func (s *Service) UpdateUser(ctx context.Context, upd backend.ProfileUpdate) error {
	u, err := s.registered(ctx)
	if err != nil {
		return err
	}
	name := strings.TrimSpace(upd.DisplayName)
	if name == "" {
		return fmt.Errorf("display name is required: %w", backend.ErrInvalidArgument)
	}
	if upd.Gender != "" && !upd.Gender.Valid() {
		return fmt.Errorf("gender %q: %w", upd.Gender, backend.ErrInvalidArgument)
	}
	pic, err := s.resolveBlob(upd.ProfilePicture)
	if err != nil {
		return err
	}
	u.DisplayName = name
	if upd.Gender != "" {
		u.Gender = upd.Gender
	}
	u.Address = upd.Address
	if pic != nil {
		u.ProfilePicture = pic
	}
	if err := s.db.SaveUser(u); err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

// SaveCallerUserProfile overwrites the caller's profile. The principal and
// creation time cannot be changed.
func (s *Service) SaveCallerUserProfile(ctx context.Context, profile backend.UserProfile) error {
	u, err := s.registered(ctx)
	if err != nil {
		return err
	}
	profile.PhoneNumber = strings.TrimSpace(profile.PhoneNumber)
	if profile.PhoneNumber == "" || strings.TrimSpace(profile.DisplayName) == "" {
		return fmt.Errorf("phone number and display name are required: %w", backend.ErrInvalidArgument)
	}
	if profile.Gender != "" && !profile.Gender.Valid() {
		return fmt.Errorf("gender %q: %w", profile.Gender, backend.ErrInvalidArgument)
	}
	if profile.PhoneNumber != u.PhoneNumber {
		if taken, err := s.db.UserByPhone(profile.PhoneNumber); err != nil {
			return fmt.Errorf("lookup phone: %w", err)
		} else if taken != nil {
			return fmt.Errorf("phone number %s: %w", profile.PhoneNumber, backend.ErrAlreadyExists)
		}
	}
	pic, err := s.resolveBlob(profile.ProfilePicture)
	if err != nil {
		return err
	}
	profile.Principal = u.Principal
	profile.CreatedAt = u.CreatedAt
	profile.ProfilePicture = pic
	if profile.Gender == "" {
		profile.Gender = u.Gender
	}
	if err := s.db.SaveUser(&profile); err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

func (s *Service) GetCallerUserProfile(ctx context.Context) (*backend.UserProfile, error) {
	p, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	u, err := s.db.GetUser(p)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *Service) GetUserProfile(ctx context.Context, user backend.Principal) (*backend.UserProfile, error) {
	if _, err := caller(ctx); err != nil {
		return nil, err
	}
	u, err := s.db.GetUser(user)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *Service) GetProfile(ctx context.Context) (*backend.UserProfile, error) {
	u, err := s.GetCallerUserProfile(ctx)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, fmt.Errorf("profile: %w", backend.ErrNotFound)
	}
	return u, nil
}

func (s *Service) SearchUsersByDisplayName(ctx context.Context, name string) ([]backend.UserProfile, error) {
	if _, err := caller(ctx); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return []backend.UserProfile{}, nil
	}
	users, err := s.db.SearchUsersByName(name, searchLimit)
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	return users, nil
}

func (s *Service) SearchUsersByPhoneNumber(ctx context.Context, phone string) ([]backend.UserProfile, error) {
	if _, err := caller(ctx); err != nil {
		return nil, err
	}
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return []backend.UserProfile{}, nil
	}
	users, err := s.db.SearchUsersByPhone(phone, searchLimit)
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	return users, nil
}

// AssignCallerUserRole sets another user's role. Only admins may.
func (s *Service) AssignCallerUserRole(ctx context.Context, user backend.Principal, role backend.UserRole) error {
	isAdmin, err := s.IsCallerAdmin(ctx)
	if err != nil {
		return err
	}
	if !isAdmin {
		return fmt.Errorf("only admins assign roles: %w", backend.ErrPermissionDenied)
	}
	if !role.Valid() {
		return fmt.Errorf("role %q: %w", role, backend.ErrInvalidArgument)
	}
	target, err := s.db.GetUser(user)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}
	if target == nil {
		return fmt.Errorf("user %s: %w", user, backend.ErrNotFound)
	}
	if err := s.db.SetRole(user, role); err != nil {
		return fmt.Errorf("set role: %w", err)
	}
	s.logger.Info("role assigned", zap.String("user", string(user)), zap.String("role", string(role)))
	return nil
}

// GetCallerUserRole reports guest for callers without a profile.
func (s *Service) GetCallerUserRole(ctx context.Context) (backend.UserRole, error) {
	p, err := caller(ctx)
	if err != nil {
		return "", err
	}
	u, err := s.db.GetUser(p)
	if err != nil {
		return "", fmt.Errorf("get user: %w", err)
	}
	if u == nil {
		return backend.RoleGuest, nil
	}
	role, err := s.db.GetRole(p)
	if err != nil {
		return "", fmt.Errorf("get role: %w", err)
	}
	if role == "" {
		return backend.RoleUser, nil
	}
	return role, nil
}

func (s *Service) IsCallerAdmin(ctx context.Context) (bool, error) {
	role, err := s.GetCallerUserRole(ctx)
	if err != nil {
		return false, err
	}
	return role == backend.RoleAdmin, nil
}

func (s *Service) AddContact(ctx context.Context, phone, label string) error {
	u, err := s.registered(ctx)
	if err != nil {
		return err
	}
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return fmt.Errorf("phone number is required: %w", backend.ErrInvalidArgument)
	}
	if err := s.db.UpsertContact(u.Principal, phone, strings.TrimSpace(label)); err != nil {
		return fmt.Errorf("upsert contact: %w", err)
	}
	return nil
}

func (s *Service) RemoveContact(ctx context.Context, phone string) error {
	u, err := s.registered(ctx)
	if err != nil {
		return err
	}
	if err := s.db.DeleteContact(u.Principal, strings.TrimSpace(phone)); err != nil {
		return fmt.Errorf("delete contact: %w", err)
	}
	return nil
}

func (s *Service) GetContacts(ctx context.Context) ([]backend.Contact, error) {
	u, err := s.registered(ctx)
	if err != nil {
		return nil, err
	}
	contacts, err := s.db.ListContacts(u.Principal)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	return contacts, nil
}
