package migrations

import (
	"github.com/jmoiron/sqlx"
)

func init() {
	m.addMigration(&migration{
		version: "20260701095000",
		up:      mig_20260701095000_subtasks_up,
		down:    mig_20260701095000_subtasks_down,
	})
}

func mig_20260701095000_subtasks_up(tx *sqlx.Tx) error {
	_, err := tx.Exec(`
        CREATE TABLE IF NOT EXISTS subtasks (
            id BIGSERIAL PRIMARY KEY,
            parent_id BIGINT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
            title VARCHAR(255) NOT NULL,
            status VARCHAR(50) NOT NULL DEFAULT 'PENDING' CHECK (status IN ('PENDING', 'DONE')),
            created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
        );
    `)
	if err != nil {
		return err
	}

	_, err = tx.Exec(`
        CREATE INDEX IF NOT EXISTS idx_subtasks_parent_id ON subtasks(parent_id);
    `)

	return err
}

func mig_20260701095000_subtasks_down(tx *sqlx.Tx) error {
	_, err := tx.Exec(`DROP TABLE IF EXISTS subtasks;`)
	return err
}
