// Package mocks provides mock implementations for testing
package mocks

import (
	"os"

	"github.com/stretchr/testify/mock"

	"github.com/brettbedarf/fuzzyfs"
)

// MockHost is a mock implementation of fuzzyfs.Host
type MockHost struct {
	mock.Mock
}

func (m *MockHost) Lstat(name string) (os.FileInfo, error) {
	args := m.Called(name)
	if fi := args.Get(0); fi != nil {
		return fi.(os.FileInfo), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockHost) ListNames(name string) ([]string, error) {
	args := m.Called(name)
	if names := args.Get(0); names != nil {
		return names.([]string), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockHost) List(name string) ([]fuzzyfs.DirEntry, error) {
	args := m.Called(name)
	if ents := args.Get(0); ents != nil {
		return ents.([]fuzzyfs.DirEntry), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockHost) OpenFile(name string, flags int) (fuzzyfs.File, error) {
	args := m.Called(name, flags)
	if f := args.Get(0); f != nil {
		return f.(fuzzyfs.File), args.Error(1)
	}
	return nil, args.Error(1)
}
