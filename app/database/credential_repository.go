package database

import (
	"fmt"
)

var _ CredentialRepository = (*credentialRepository)(nil)

// credentialRepository stores mailbox credentials. Passwords are kept in
// clear text; swapping this implementation is the intended place to add
// encryption at rest.
type credentialRepository struct {
	db *DB
}

func NewCredentialRepository(db *DB) CredentialRepository {
	return &credentialRepository{db: db}
}

func (r *credentialRepository) Add(credential *EmailCredential) error {
	result, err := r.db.Exec(`
		INSERT INTO email_credentials (protocol, server, port, username, password)
		VALUES (?, ?, ?, ?, ?)
	`, credential.Protocol, credential.Server, credential.Port, credential.Username, credential.Password)
	if err != nil {
		return fmt.Errorf("failed to store email credential: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get credential id: %w", err)
	}
	credential.ID = id

	return nil
}

func (r *credentialRepository) GetAll() ([]EmailCredential, error) {
	rows, err := r.db.Query(`
		SELECT id, protocol, server, port, username, password FROM email_credentials ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get email credentials: %w", err)
	}
	defer rows.Close()

	var credentials []EmailCredential
	for rows.Next() {
		var c EmailCredential
		if err := rows.Scan(&c.ID, &c.Protocol, &c.Server, &c.Port, &c.Username, &c.Password); err != nil {
			return nil, fmt.Errorf("failed to scan credential row: %w", err)
		}
		credentials = append(credentials, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating credential rows: %w", err)
	}

	return credentials, nil
}
