package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/dtroode/identity-server/internal/model"
)

var _ model.ProfileQuery = (*ProfileRepository)(nil)

// ProfileRepository joins identities with active credentials on the logical
// identity_id reference.
type ProfileRepository struct {
	db DBTX
}

func NewProfileRepository(db DBTX) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) Search(ctx context.Context, term string) ([]model.Profile, error) {
	const query = `
        SELECT i.id, i.username, i.role, c.first_name, c.last_name, c.address, c.phone
        FROM identity.identities i
        JOIN credential.credentials c ON c.identity_id = i.id
        WHERE c.is_active
          AND ($1 = '' OR i.username ILIKE $2 OR c.first_name ILIKE $2 OR c.last_name ILIKE $2)
        ORDER BY i.id
    `

	rows, err := r.db.Query(ctx, query, term, "%"+escapeLike(term)+"%")
	if err != nil {
		return nil, fmt.Errorf("failed to search profiles: %w", err)
	}

	profiles, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Profile, error) {
		var (
			p    model.Profile
			role string
		)
		if err := row.Scan(&p.ID, &p.Username, &role, &p.FirstName, &p.LastName, &p.Address, &p.Phone); err != nil {
			return model.Profile{}, err
		}
		p.Role, _ = model.ParseRole(role)
		return p, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan profiles: %w", err)
	}

	return profiles, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes term match literally inside an ILIKE pattern.
func escapeLike(term string) string {
	return likeEscaper.Replace(term)
}
