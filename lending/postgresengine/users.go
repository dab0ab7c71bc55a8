package postgresengine

import (
	"context"
	"errors"
	"strings"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"

	"github.com/liblend/library-lending-go/lending"
)

const (
	opCreateUser = "create_user"
	opGetUser    = "get_user"

	logMsgUserCreated = "user created"
)

// NewUser is the caller-supplied data for registering a user. The password
// hash is produced by the auth collaborator before it reaches the store.
type NewUser struct {
	Email        string
	Name         string
	PasswordHash string
	Role         lending.Role
}

// CreateUser registers a user. The email must be unique; the role defaults
// to MEMBER when unset.
func (s *Store) CreateUser(ctx context.Context, user NewUser) (lending.User, error) {
	ctx, finish := s.instrument(ctx, opCreateUser)

	created, err := s.createUser(ctx, user)
	finish(err)

	if err != nil {
		return lending.User{}, err
	}

	s.logOperation(ctx, logMsgUserCreated, logAttrUserID, created.ID.String())

	return created, nil
}

func (s *Store) createUser(ctx context.Context, user NewUser) (lending.User, error) {
	var empty lending.User

	if strings.TrimSpace(user.Email) == "" || strings.TrimSpace(user.Name) == "" {
		return empty, lending.ErrMissingUserFields
	}

	role := user.Role
	if role == "" {
		role = lending.RoleMember
	}

	created := lending.User{
		ID:           uuid.New(),
		Email:        user.Email,
		Name:         user.Name,
		PasswordHash: user.PasswordHash,
		Role:         role,
		CreatedAt:    s.clock(),
	}

	stmt := s.builder().Insert(tableUsers).Rows(goqu.Record{
		colID:           created.ID.String(),
		colEmail:        created.Email,
		colName:         created.Name,
		colPasswordHash: created.PasswordHash,
		colRole:         string(created.Role),
		colCreatedAt:    created.CreatedAt,
	})

	sqlQuery, buildErr := s.toSQL(stmt)
	if buildErr != nil {
		return empty, buildErr
	}

	if _, _, execErr := s.executeStatement(ctx, s.db, sqlQuery); execErr != nil {
		return empty, execErr
	}

	return created, nil
}

// GetUser loads one user by id.
func (s *Store) GetUser(ctx context.Context, userID uuid.UUID) (lending.User, error) {
	ctx, finish := s.instrument(ctx, opGetUser)

	user, err := s.getUser(ctx, userID)
	finish(err)

	return user, err
}

func (s *Store) getUser(ctx context.Context, userID uuid.UUID) (lending.User, error) {
	var empty lending.User

	stmt := s.builder().
		From(tableUsers).
		Select(colID, colEmail, colName, colPasswordHash, colRole, colCreatedAt).
		Where(goqu.C(colID).Eq(userID.String()))

	sqlQuery, buildErr := s.toSQL(stmt)
	if buildErr != nil {
		return empty, buildErr
	}

	rows, _, queryErr := s.executeQuery(ctx, s.db, sqlQuery)
	if queryErr != nil {
		return empty, queryErr
	}
	defer s.closeRows(rows)

	if !rows.Next() {
		return empty, lending.ErrUserNotFound
	}

	var user lending.User
	var role string

	scanErr := rows.Scan(&user.ID, &user.Email, &user.Name, &user.PasswordHash, &role, &user.CreatedAt)
	if scanErr != nil {
		s.logError(logMsgScanRowFailed, scanErr)
		return empty, errors.Join(lending.ErrInternal, scanErr)
	}

	user.Role = lending.Role(role)

	return user, nil
}
