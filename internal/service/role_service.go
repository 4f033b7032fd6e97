package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"reportdesk/internal/domain"
	"reportdesk/internal/repo"
)

type RoleInput struct {
	Name string `json:"name" binding:"required,max=64"`
}

type UpdateRoleInput struct {
	ID   uint64 `json:"id" binding:"required"`
	Name string `json:"name" binding:"required,max=64"`
}

type UserRoleInput struct {
	Login    string `json:"login" binding:"required"`
	RoleName string `json:"roleName" binding:"required"`
}

type DeleteUserRoleInput struct {
	Login  string `json:"login" binding:"required"`
	RoleID uint64 `json:"roleId" binding:"required"`
}

type UpdateUserRoleInput struct {
	Login      string `json:"login" binding:"required"`
	FromRoleID uint64 `json:"fromRoleId" binding:"required"`
	ToRoleID   uint64 `json:"toRoleId" binding:"required"`
}

type UserRolesView struct {
	Login string   `json:"login"`
	Roles []string `json:"roles"`
}

type RoleService struct {
	store *repo.Store
	log   *zap.Logger
}

func NewRoleService(store *repo.Store, l *zap.Logger) *RoleService {
	return &RoleService{store: store, log: l.Named("role")}
}

func (s *RoleService) ListRoles(ctx context.Context) ([]domain.Role, error) {
	roles, err := s.store.Roles().List(ctx)
	if err != nil {
		return nil, fail(s.log, "list roles", err)
	}
	return roles, nil
}

func (s *RoleService) CreateRole(ctx context.Context, in RoleInput) (domain.Role, error) {
	existing, err := s.store.Roles().FindByName(ctx, in.Name)
	if err != nil {
		return domain.Role{}, fail(s.log, "create role: lookup", err)
	}
	if existing != nil {
		return domain.Role{}, domain.ErrRoleAlreadyExists
	}
	role := domain.Role{Name: in.Name}
	if err := s.store.Roles().Create(ctx, &role); err != nil {
		if repo.IsDuplicateKey(err) {
			return domain.Role{}, domain.ErrRoleAlreadyExists
		}
		return domain.Role{}, fail(s.log, "create role", err)
	}
	return role, nil
}

func (s *RoleService) UpdateRole(ctx context.Context, in UpdateRoleInput) (domain.Role, error) {
	role, err := s.store.Roles().FindByID(ctx, in.ID)
	if err != nil {
		return domain.Role{}, fail(s.log, "update role: lookup", err)
	}
	if role == nil {
		return domain.Role{}, domain.ErrRoleNotExist
	}
	clash, err := s.store.Roles().FindByName(ctx, in.Name)
	if err != nil {
		return domain.Role{}, fail(s.log, "update role: lookup name", err)
	}
	if clash != nil && clash.ID != role.ID {
		return domain.Role{}, domain.ErrRoleAlreadyExists
	}
	if err := s.store.Roles().Rename(ctx, role.ID, in.Name); err != nil {
		if repo.IsDuplicateKey(err) {
			return domain.Role{}, domain.ErrRoleAlreadyExists
		}
		return domain.Role{}, fail(s.log, "update role", err)
	}
	role.Name = in.Name
	return *role, nil
}

// DeleteRole removes the role together with every membership that grants it.
func (s *RoleService) DeleteRole(ctx context.Context, id uint64) (domain.Role, error) {
	role, err := s.store.Roles().FindByID(ctx, id)
	if err != nil {
		return domain.Role{}, fail(s.log, "delete role: lookup", err)
	}
	if role == nil {
		return domain.Role{}, domain.ErrRoleNotExist
	}
	err = s.store.Tx(ctx, func(tx *repo.Store) error {
		_, err := tx.Roles().Delete(ctx, id)
		return err
	})
	if err != nil {
		return domain.Role{}, fail(s.log, "delete role", err)
	}
	return *role, nil
}

func (s *RoleService) loadUser(ctx context.Context, op, login string) (*domain.User, error) {
	u, err := s.store.Users().FindByLoginWithRoles(ctx, login)
	if err != nil {
		return nil, fail(s.log, op, err)
	}
	if u == nil {
		return nil, domain.ErrUserNotFound
	}
	return u, nil
}

func (s *RoleService) AddRoleForUser(ctx context.Context, in UserRoleInput) (UserRolesView, error) {
	u, err := s.loadUser(ctx, "add user role: load user", in.Login)
	if err != nil {
		return UserRolesView{}, err
	}
	if u.HasRole(in.RoleName) {
		return UserRolesView{}, domain.ErrRoleAlreadyExists
	}
	role, err := s.store.Roles().FindByName(ctx, in.RoleName)
	if err != nil {
		return UserRolesView{}, fail(s.log, "add user role: load role", err)
	}
	if role == nil {
		return UserRolesView{}, domain.ErrRoleNotFound
	}
	if err := s.store.Roles().AddToUser(ctx, u.ID, role.ID); err != nil {
		if repo.IsDuplicateKey(err) {
			return UserRolesView{}, domain.ErrRoleAlreadyExists
		}
		return UserRolesView{}, fail(s.log, "add user role", err)
	}
	return UserRolesView{Login: u.Login, Roles: append(u.RoleNames(), role.Name)}, nil
}

func (s *RoleService) DeleteRoleForUser(ctx context.Context, in DeleteUserRoleInput) (UserRolesView, error) {
	u, err := s.loadUser(ctx, "delete user role: load user", in.Login)
	if err != nil {
		return UserRolesView{}, err
	}
	if _, ok := u.FindRole(in.RoleID); !ok {
		return UserRolesView{}, domain.ErrRoleNotFound
	}
	if _, err := s.store.Roles().RemoveFromUser(ctx, u.ID, in.RoleID); err != nil {
		return UserRolesView{}, fail(s.log, "delete user role", err)
	}
	names := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		if r.ID != in.RoleID {
			names = append(names, r.Name)
		}
	}
	return UserRolesView{Login: u.Login, Roles: names}, nil
}

// UpdateRoleForUser moves the user from one role to another. The delete and
// the insert commit together or not at all.
func (s *RoleService) UpdateRoleForUser(ctx context.Context, in UpdateUserRoleInput) (UserRolesView, error) {
	u, err := s.loadUser(ctx, "update user role: load user", in.Login)
	if err != nil {
		return UserRolesView{}, err
	}
	if _, ok := u.FindRole(in.FromRoleID); !ok {
		return UserRolesView{}, domain.ErrRoleNotFound
	}
	to, err := s.store.Roles().FindByID(ctx, in.ToRoleID)
	if err != nil {
		return UserRolesView{}, fail(s.log, "update user role: load role", err)
	}
	if to == nil {
		return UserRolesView{}, domain.ErrRoleNotFound
	}
	if in.FromRoleID == in.ToRoleID {
		return UserRolesView{Login: u.Login, Roles: u.RoleNames()}, nil
	}
	if _, held := u.FindRole(to.ID); held {
		return UserRolesView{}, domain.ErrRoleAlreadyExists
	}

	err = s.store.Tx(ctx, func(tx *repo.Store) error {
		if _, err := tx.Roles().RemoveFromUser(ctx, u.ID, in.FromRoleID); err != nil {
			return err
		}
		return tx.Roles().AddToUser(ctx, u.ID, to.ID)
	})
	if err != nil {
		return UserRolesView{}, fail(s.log, "update user role", err)
	}

	names := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		if r.ID == in.FromRoleID {
			names = append(names, to.Name)
			continue
		}
		names = append(names, r.Name)
	}
	return UserRolesView{Login: u.Login, Roles: names}, nil
}

// EnsureAdmin grants the admin role to login if it is missing. An unknown
// login is reported as UserNotFound.
func (s *RoleService) EnsureAdmin(ctx context.Context, login string) error {
	_, err := s.AddRoleForUser(ctx, UserRoleInput{Login: login, RoleName: domain.AdminRoleName})
	if errors.Is(err, domain.ErrRoleAlreadyExists) {
		return nil
	}
	return err
}
