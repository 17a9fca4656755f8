package folder

import (
	"errors"
	"fmt"
	"strings"

	"github.com/paulstaab/headless-rss/app/database"
)

var (
	ErrFolderNotFound = errors.New("folder not found")
	ErrFolderExists   = errors.New("folder already exists")
	ErrInvalidName    = errors.New("folder name must not be empty")
)

type Service struct {
	folders database.FolderRepository
}

func NewService(folders database.FolderRepository) *Service {
	return &Service{folders: folders}
}

// Create adds a named folder. Names are unique across the database; the
// unnamed root folder never conflicts.
func (s *Service) Create(name string) (*database.Folder, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidName
	}

	existing, err := s.folders.GetByName(name)
	if err != nil {
		return nil, fmt.Errorf("failed to look up folder: %w", err)
	}
	if existing != nil {
		return nil, ErrFolderExists
	}

	return s.folders.Create(name)
}

func (s *Service) GetAll() ([]database.Folder, error) {
	return s.folders.GetAll()
}

func (s *Service) RootID() (int64, error) {
	return s.folders.GetOrCreateRootID()
}

func (s *Service) Rename(id int64, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrInvalidName
	}

	folder, err := s.get(id)
	if err != nil {
		return err
	}
	if folder.IsRoot {
		return ErrFolderNotFound
	}

	existing, err := s.folders.GetByName(name)
	if err != nil {
		return fmt.Errorf("failed to look up folder: %w", err)
	}
	if existing != nil && existing.ID != id {
		return ErrFolderExists
	}

	return s.folders.Rename(id, name)
}

// Delete removes a folder together with its feeds and their articles. The
// root folder cannot be deleted.
func (s *Service) Delete(id int64) error {
	folder, err := s.get(id)
	if err != nil {
		return err
	}
	if folder.IsRoot {
		return ErrFolderNotFound
	}
	return s.folders.Delete(id)
}

func (s *Service) get(id int64) (*database.Folder, error) {
	folder, err := s.folders.GetByID(id)
	if err != nil {
		return nil, fmt.Errorf("failed to look up folder: %w", err)
	}
	if folder == nil {
		return nil, ErrFolderNotFound
	}
	return folder, nil
}
