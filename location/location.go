// Copyright (c) Jeevanandam M. (https://github.com/jeevatkm)
// Source code and usage is governed by a MIT style
// license that can be found in the LICENSE file.

// Package location provides the login location lookups used by the
// `basic_location` authentication scheme.
package location

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// ErrLocationNotFound returned when no location matches the lookup.
var ErrLocationNotFound = errors.New("location: not found")

// Service interface is the location lookup collaborator.
type Service interface {
	LocationByID(id int) (*Location, error)
	LocationByUUID(uuid string) (*Location, error)
}

// Location is a place a user can log into.
type Location struct {
	ID   int      `yaml:"id"`
	UUID string   `yaml:"uuid"`
	Name string   `yaml:"name"`
	Tags []string `yaml:"tags"`
}

// HasTag method returns true if the location carries the given tag, the
// comparison is case insensitive.
func (l *Location) HasTag(tag string) bool {
	for _, t := range l.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// String method is stringer interface implementation.
func (l Location) String() string {
	return fmt.Sprintf("location(id:%d uuid:%s name:%s tags:%v)", l.ID, l.UUID, l.Name, l.Tags)
}

//‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾
// Directory
//___________________________________

var _ Service = (*Directory)(nil)

// Directory is an in-memory `Service` implementation.
type Directory struct {
	mu     sync.RWMutex
	byID   map[int]*Location
	byUUID map[string]*Location
}

type directoryFile struct {
	Locations []*Location `yaml:"locations"`
}

// NewDirectory method returns the directory for the given locations.
// IDs must be positive and unique, UUIDs must be valid and unique.
func NewDirectory(locations ...*Location) (*Directory, error) {
	d := &Directory{byID: map[int]*Location{}, byUUID: map[string]*Location{}}
	for _, l := range locations {
		if err := d.add(l); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// LoadFile method loads the directory from YAML file.
//
//	locations:
//	  - id: 1
//	    uuid: "8d6c993e-c2cc-11de-8d13-0010c6dffd0f"
//	    name: "Outpatient Clinic"
//	    tags: ["Login Location"]
func LoadFile(file string) (*Directory, error) {
	b, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	return Parse(b)
}

// Parse method parses the directory from YAML bytes.
func Parse(b []byte) (*Directory, error) {
	var df directoryFile
	if err := yaml.Unmarshal(b, &df); err != nil {
		return nil, fmt.Errorf("location: %v", err)
	}
	return NewDirectory(df.Locations...)
}

// LocationByID method returns the location for the given ID.
func (d *Directory) LocationByID(id int) (*Location, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if l, found := d.byID[id]; found {
		return l, nil
	}
	return nil, ErrLocationNotFound
}

// LocationByUUID method returns the location for the given UUID, any
// valid UUID textual form is accepted.
func (d *Directory) LocationByUUID(v string) (*Location, error) {
	u, err := uuid.Parse(v)
	if err != nil {
		return nil, ErrLocationNotFound
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if l, found := d.byUUID[u.String()]; found {
		return l, nil
	}
	return nil, ErrLocationNotFound
}

// Len method returns the count of locations.
func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.byID)
}

func (d *Directory) add(l *Location) error {
	if l == nil || l.ID <= 0 {
		return errors.New("location: id must be positive")
	}

	u, err := uuid.Parse(l.UUID)
	if err != nil {
		return fmt.Errorf("location: id %d invalid uuid '%s'", l.ID, l.UUID)
	}
	l.UUID = u.String()

	d.mu.Lock()
	defer d.mu.Unlock()
	if _, found := d.byID[l.ID]; found {
		return fmt.Errorf("location: duplicate id %d", l.ID)
	}
	if _, found := d.byUUID[l.UUID]; found {
		return fmt.Errorf("location: duplicate uuid '%s'", l.UUID)
	}
	d.byID[l.ID] = l
	d.byUUID[l.UUID] = l
	return nil
}
