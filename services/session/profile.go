package session

import (
	"context"
	"fmt"
	"strings"

	"jepet/models"
	"jepet/services/identity"

	"go.uber.org/zap"
)

// defaultName is shown when the account has no display name.
const defaultName = "Usuário"

// defaultProfile is the Session synthesized for an account without a profile document.
func defaultProfile(u *identity.User) *models.Profile {
	return effectiveProfile(u, &models.Profile{ID: u.UID})
}

// effectiveProfile fills the gaps of a stored document from the identity.
func effectiveProfile(u *identity.User, doc *models.Profile) *models.Profile {
	p := doc.Clone()
	p.ID = u.UID
	if p.Name == "" {
		p.Name = u.DisplayName
	}
	if p.Name == "" {
		p.Name = defaultName
	}
	if p.Email == "" {
		p.Email = u.Email
	}
	return normalizeProfile(p)
}

func normalizeProfile(p *models.Profile) *models.Profile {
	p = p.Clone()
	if p.Pets == nil {
		p.Pets = []models.Pet{}
	}
	return p
}

func (s *Store) applyProfile(gen uint64, doc *models.Profile, exists bool) {
	s.mu.Lock()
	if gen != s.gen || s.user == nil {
		s.mu.Unlock()
		return
	}
	u := s.user
	s.mu.Unlock()

	if !exists {
		s.createDefaultProfile(gen, u)
		return
	}

	p := effectiveProfile(u, doc)
	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return
	}
	s.state.Session = p
	s.state.Restored = false
	s.mu.Unlock()

	s.saveCachedSession(p)
	s.publishState()
}

// createDefaultProfile sets the synthesized Session immediately and writes
// it remotely. The write echoes back through the profile subscription as an
// identical Session.
func (s *Store) createDefaultProfile(gen uint64, u *identity.User) {
	p := defaultProfile(u)
	_, err := s.submit("profile.create", u.UID,
		func() error {
			if gen != s.gen {
				return ErrAuthRequired
			}
			s.state.Session = p.Clone()
			s.state.Restored = false
			return nil
		},
		func(ctx context.Context) error {
			return s.deps.Profiles.Set(ctx, p.Clone())
		})
	if err != nil {
		return
	}
	s.saveCachedSession(p)
}

// AddPet appends a pet to the Session. The remote append reads the stored
// list inside the write, so concurrent additions from other devices survive
// and an identical pet added twice is kept twice.
func (s *Store) AddPet(pet models.Pet) (*Task, error) {
	pet.Name = strings.TrimSpace(pet.Name)
	pet.Type = strings.TrimSpace(pet.Type)
	pet.Breed = strings.TrimSpace(pet.Breed)
	if pet.Name == "" || pet.Type == "" {
		return nil, fmt.Errorf("%w: pet name and type are required", ErrInvalidInput)
	}

	var uid string
	var updated *models.Profile
	task, err := s.submit("pet.add", pet.Name,
		func() error {
			if s.user == nil || s.state.Session == nil {
				return ErrAuthRequired
			}
			uid = s.user.UID
			s.state.Session.Pets = append(s.state.Session.Pets, pet)
			updated = s.state.Session.Clone()
			return nil
		},
		func(ctx context.Context) error {
			return s.deps.Profiles.AppendPet(ctx, uid, pet)
		})
	if err != nil {
		return nil, err
	}
	s.saveCachedSession(updated)
	s.logger.Info("session.AddPet: pet added", zap.String("uid", uid), zap.String("pet", pet.Name))
	return task, nil
}
