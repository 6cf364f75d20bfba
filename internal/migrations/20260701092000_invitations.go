package migrations

import (
	"github.com/jmoiron/sqlx"
)

func init() {
	m.addMigration(&migration{
		version: "20260701092000",
		up:      mig_20260701092000_invitations_up,
		down:    mig_20260701092000_invitations_down,
	})
}

func mig_20260701092000_invitations_up(tx *sqlx.Tx) error {
	_, err := tx.Exec(`
        CREATE TABLE IF NOT EXISTS invitations (
            id BIGSERIAL PRIMARY KEY,
            project_id BIGINT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
            email VARCHAR(255) NOT NULL,
            role VARCHAR(50) NOT NULL CHECK (role IN ('MEMBER', 'MANAGER', 'ADMIN')),
            created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
            UNIQUE (project_id, email)
        );
    `)
	if err != nil {
		return err
	}

	_, err = tx.Exec(`
        CREATE INDEX IF NOT EXISTS idx_invitations_email ON invitations(email);
    `)

	return err
}

func mig_20260701092000_invitations_down(tx *sqlx.Tx) error {
	_, err := tx.Exec(`DROP TABLE IF EXISTS invitations;`)
	return err
}
