package user

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Asim-Shah-2004/medicine-app/internal/shared/errors"
	"github.com/Asim-Shah-2004/medicine-app/internal/shared/types"
)

// Repository provides database operations for users
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new user repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const userColumns = `
	id, email, username, password_hash,
	first_name, last_name, date_of_birth, gender, phone_number,
	health_profile, emergency_contacts,
	onboarding_step, onboarding_complete,
	created_at, updated_at`

// Create inserts a new user. Email and username collisions surface as
// Conflict with a field hint so the handler can report which one clashed.
func (r *Repository) Create(ctx context.Context, u *User) error {
	health, contacts, err := encodeDocuments(u)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO users (
			id, email, username, password_hash,
			first_name, last_name, date_of_birth, gender, phone_number,
			health_profile, emergency_contacts,
			onboarding_step, onboarding_complete
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err = r.pool.Exec(ctx, query,
		u.ID, u.Email, u.Username, u.PasswordHash,
		u.FirstName, u.LastName, dateOrNil(u.DateOfBirth), u.Gender, u.PhoneNumber,
		health, contacts,
		u.OnboardingStep, u.OnboardingComplete,
	)

	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			if strings.Contains(err.Error(), "username") {
				return errors.Conflict("username already taken")
			}
			return errors.Conflict("email already registered")
		}
		return errors.Wrap(err, "failed to create user")
	}

	return nil
}

// GetByID retrieves a user by ID
func (r *Repository) GetByID(ctx context.Context, id types.ID) (*User, error) {
	return r.getBy(ctx, "id = $1", id, id.String())
}

// GetByEmail retrieves a user by email
func (r *Repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.getBy(ctx, "email = $1", email, email)
}

// GetByUsername retrieves a user by username
func (r *Repository) GetByUsername(ctx context.Context, username string) (*User, error) {
	return r.getBy(ctx, "username = $1", username, username)
}

func (r *Repository) getBy(ctx context.Context, where string, arg any, ident string) (*User, error) {
	u := &User{}
	var (
		health   []byte
		contacts []byte
		dob      *time.Time
	)

	err := r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE `+where, arg,
	).Scan(
		&u.ID, &u.Email, &u.Username, &u.PasswordHash,
		&u.FirstName, &u.LastName, &dob, &u.Gender, &u.PhoneNumber,
		&health, &contacts,
		&u.OnboardingStep, &u.OnboardingComplete,
		&u.CreatedAt, &u.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("user", ident)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get user")
	}

	if dob != nil {
		d := types.DateOf(*dob)
		u.DateOfBirth = &d
	}
	if err := json.Unmarshal(health, &u.HealthProfile); err != nil {
		return nil, errors.Wrap(err, "failed to decode health profile")
	}
	if err := json.Unmarshal(contacts, &u.EmergencyContacts); err != nil {
		return nil, errors.Wrap(err, "failed to decode emergency contacts")
	}

	return u, nil
}

// UpdateProfile writes the mutable profile fields. Password hash,
// created_at and the medicines document are untouchable through this path.
func (r *Repository) UpdateProfile(ctx context.Context, u *User) error {
	health, contacts, err := encodeDocuments(u)
	if err != nil {
		return err
	}

	query := `
		UPDATE users SET
			email = $2, username = $3,
			first_name = $4, last_name = $5, date_of_birth = $6,
			gender = $7, phone_number = $8,
			health_profile = $9, emergency_contacts = $10,
			onboarding_step = $11, onboarding_complete = $12,
			updated_at = NOW()
		WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query,
		u.ID, u.Email, u.Username,
		u.FirstName, u.LastName, dateOrNil(u.DateOfBirth),
		u.Gender, u.PhoneNumber,
		health, contacts,
		u.OnboardingStep, u.OnboardingComplete,
	)

	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			if strings.Contains(err.Error(), "username") {
				return errors.Conflict("username already taken")
			}
			return errors.Conflict("email already registered")
		}
		return errors.Wrap(err, "failed to update user")
	}
	if tag.RowsAffected() == 0 {
		return errors.NotFound("user", u.ID.String())
	}

	return nil
}

// UpdatePasswordHash replaces the stored password hash
func (r *Repository) UpdatePasswordHash(ctx context.Context, id types.ID, hash string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`,
		id, hash,
	)
	if err != nil {
		return errors.Wrap(err, "failed to update password")
	}
	if tag.RowsAffected() == 0 {
		return errors.NotFound("user", id.String())
	}
	return nil
}

func encodeDocuments(u *User) (health, contacts []byte, err error) {
	health, err = json.Marshal(u.HealthProfile)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to encode health profile")
	}

	if u.EmergencyContacts == nil {
		u.EmergencyContacts = []EmergencyContact{}
	}
	contacts, err = json.Marshal(u.EmergencyContacts)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to encode emergency contacts")
	}
	return health, contacts, nil
}

func dateOrNil(d *types.Date) any {
	if d == nil {
		return nil
	}
	return d.String()
}
