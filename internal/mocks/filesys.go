// Package mocks holds shared testify mocks for Akari's filesystem
// abstractions.
package mocks

import (
	"os"

	"github.com/stretchr/testify/mock"

	"github.com/Kuraiyume/Akari/internal/filesys"
)

var _ filesys.FileOps = (*MockFileOps)(nil)

// MockFileOps is a mock implementation of the FileOps interface,
// used to exercise the report sink's failure paths.
type MockFileOps struct {
	mock.Mock
}

// Open mocks the Open method.
func (m *MockFileOps) Open(p string) (*os.File, error) {
	args := m.Called(p)
	var file *os.File
	if args.Get(0) != nil {
		file = args.Get(0).(*os.File)
	}
	return file, args.Error(1)
}

// MkdirAll mocks the MkdirAll method.
func (m *MockFileOps) MkdirAll(p string, mode os.FileMode) error {
	args := m.Called(p, mode)
	return args.Error(0)
}

// CreateTemp mocks the CreateTemp method.
func (m *MockFileOps) CreateTemp(dir, pat string) (*os.File, error) {
	args := m.Called(dir, pat)
	var file *os.File
	if args.Get(0) != nil {
		file = args.Get(0).(*os.File)
	}
	return file, args.Error(1)
}

// Rename mocks the Rename method.
func (m *MockFileOps) Rename(oldName, newName string) error {
	args := m.Called(oldName, newName)
	return args.Error(0)
}

// Remove mocks the Remove method.
func (m *MockFileOps) Remove(p string) error {
	args := m.Called(p)
	return args.Error(0)
}

// Chmod mocks the Chmod method.
func (m *MockFileOps) Chmod(p string, mode os.FileMode) error {
	args := m.Called(p, mode)
	return args.Error(0)
}
