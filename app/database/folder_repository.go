package database

import (
	"database/sql"
	"fmt"
)

var _ FolderRepository = (*folderRepository)(nil)

type folderRepository struct {
	db *DB
}

func NewFolderRepository(db *DB) FolderRepository {
	return &folderRepository{db: db}
}

func (r *folderRepository) Create(name string) (*Folder, error) {
	result, err := r.db.Exec(`INSERT INTO folders (name, is_root) VALUES (?, 0)`, name)
	if err != nil {
		return nil, fmt.Errorf("failed to create folder: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get folder id: %w", err)
	}

	return &Folder{ID: id, Name: name}, nil
}

func (r *folderRepository) GetByID(id int64) (*Folder, error) {
	var folder Folder
	err := r.db.QueryRow(`
		SELECT id, COALESCE(name, ''), is_root FROM folders WHERE id = ?
	`, id).Scan(&folder.ID, &folder.Name, &folder.IsRoot)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get folder by id: %w", err)
	}
	return &folder, nil
}

func (r *folderRepository) GetByName(name string) (*Folder, error) {
	var folder Folder
	err := r.db.QueryRow(`
		SELECT id, COALESCE(name, ''), is_root FROM folders WHERE name = ?
	`, name).Scan(&folder.ID, &folder.Name, &folder.IsRoot)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get folder by name: %w", err)
	}
	return &folder, nil
}

func (r *folderRepository) GetAll() ([]Folder, error) {
	rows, err := r.db.Query(`SELECT id, COALESCE(name, ''), is_root FROM folders ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to get folders: %w", err)
	}
	defer rows.Close()

	var folders []Folder
	for rows.Next() {
		var folder Folder
		if err := rows.Scan(&folder.ID, &folder.Name, &folder.IsRoot); err != nil {
			return nil, fmt.Errorf("failed to scan folder row: %w", err)
		}
		folders = append(folders, folder)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating folder rows: %w", err)
	}

	return folders, nil
}

// GetOrCreateRootID returns the id of the distinguished root folder, creating
// it if the database predates the seeded row.
func (r *folderRepository) GetOrCreateRootID() (int64, error) {
	var id int64
	err := r.db.QueryRow(`SELECT id FROM folders WHERE is_root = 1`).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, fmt.Errorf("failed to get root folder: %w", err)
	}

	result, err := r.db.Exec(`INSERT INTO folders (name, is_root) VALUES (NULL, 1)`)
	if err != nil {
		return 0, fmt.Errorf("failed to create root folder: %w", err)
	}

	id, err = result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get root folder id: %w", err)
	}

	return id, nil
}

func (r *folderRepository) Rename(id int64, name string) error {
	_, err := r.db.Exec(`UPDATE folders SET name = ? WHERE id = ?`, name, id)
	if err != nil {
		return fmt.Errorf("failed to rename folder: %w", err)
	}
	return nil
}

// Delete removes a folder together with its feeds and their articles.
func (r *folderRepository) Delete(id int64) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM feeds WHERE folder_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete folder feeds: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM folders WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete folder: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit folder deletion: %w", err)
	}

	return nil
}
