package service

import (
	"errors"
	"fmt"
	"strings"

	"go-production-inventory/internal/apperror"
	"go-production-inventory/internal/model"
	"go-production-inventory/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type UserService interface {
	CreateUser(actor Actor, req *CreateUserRequest) (*model.User, error)
	GetAllUsers() ([]model.UserResponse, error)
	ListRoles() ([]model.Role, error)
	DeactivateUser(actor Actor, id uuid.UUID) error
	// ResetPassword sets a new password without the old one. Operator tooling only.
	ResetPassword(email, newPassword string) error
	// EnsureAdmin creates the first ADMIN account when no user has that email yet.
	EnsureAdmin(email, password string) (created bool, err error)
}

type CreateUserRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	FullName string `json:"full_name" validate:"required"`
	RoleCode string `json:"role_code" validate:"required,oneof=ADMIN MANAGER STAFF"`
}

type userService struct {
	userRepo repository.UserRepository
	roleRepo repository.RoleRepository
	log      *zap.Logger
}

func NewUserService(userRepo repository.UserRepository, roleRepo repository.RoleRepository, log *zap.Logger) UserService {
	if log == nil {
		log = zap.NewNop()
	}
	return &userService{
		userRepo: userRepo,
		roleRepo: roleRepo,
		log:      log,
	}
}

func requireAdmin(actor Actor) error {
	if !model.RoleAtLeast(actor.Role, model.RoleAdmin) {
		return apperror.New(apperror.CodeUnauthorized, "permission denied: admin required")
	}
	return nil
}

func (s *userService) CreateUser(actor Actor, req *CreateUserRequest) (*model.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validationError(req); err != nil {
		return nil, err
	}

	if existing, _ := s.userRepo.FindByEmail(req.Email); existing != nil {
		return nil, apperror.Validation("email", "already exists")
	}

	role, err := s.roleRepo.FindByCode(req.RoleCode)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Email:    req.Email,
		FullName: req.FullName,
		RoleID:   &role.ID,
		Role:     role,
		IsActive: true,
	}
	user.CreatedBy = actor.UserID
	user.UpdatedBy = actor.UserID
	if err := user.SetPassword(req.Password); err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}
	s.log.Info("user created", zap.String("user_id", user.ID.String()), zap.String("role", role.Code))
	return user, nil
}

func (s *userService) GetAllUsers() ([]model.UserResponse, error) {
	users, err := s.userRepo.FindAll()
	if err != nil {
		return nil, err
	}
	var responses []model.UserResponse
	for _, u := range users {
		responses = append(responses, u.ToResponse())
	}
	return responses, nil
}

func (s *userService) ListRoles() ([]model.Role, error) {
	return s.roleRepo.FindAll()
}

func (s *userService) DeactivateUser(actor Actor, id uuid.UUID) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if actor.UserID == id.String() {
		return apperror.Validation("id", "cannot deactivate yourself")
	}
	if err := s.userRepo.Deactivate(id, actor.UserID); err != nil {
		return err
	}
	s.log.Info("user deactivated", zap.String("user_id", id.String()), zap.String("actor", actor.UserID))
	return nil
}

func (s *userService) ResetPassword(email, newPassword string) error {
	if len(newPassword) < 6 {
		return apperror.Validation("password", "must be at least 6 characters")
	}
	user, err := s.userRepo.FindByEmail(strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return ErrUserNotFound
	}
	if err := user.SetPassword(newPassword); err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.userRepo.UpdatePassword(user.ID, user.Password); err != nil {
		return err
	}
	return s.userRepo.UpdateTokenVersion(user.ID, uuid.New().String())
}

func (s *userService) EnsureAdmin(email, password string) (bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := s.userRepo.FindByEmail(email); err == nil {
		return false, nil
	} else if !errors.Is(err, apperror.ErrNotFound) {
		return false, err
	}

	role, err := s.roleRepo.FindByCode(model.RoleAdmin)
	if err != nil {
		return false, fmt.Errorf("find admin role: %w", err)
	}

	admin := &model.User{
		Email:    email,
		FullName: "Administrator",
		RoleID:   &role.ID,
		IsActive: true,
	}
	admin.CreatedBy = "system"
	admin.UpdatedBy = "system"
	if err := admin.SetPassword(password); err != nil {
		return false, fmt.Errorf("hash password: %w", err)
	}
	if err := s.userRepo.Create(admin); err != nil {
		return false, err
	}
	return true, nil
}
