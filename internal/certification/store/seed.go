package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"certo/internal/certification/models"
	id "certo/pkg/domain"
)

// SeedCompetencies creates a small default competency catalog for development
// setups that start with an empty store.
func SeedCompetencies(ctx context.Context, s *InMemoryStore) []*models.Competency {
	now := time.Now()
	seeds := []struct {
		code     id.CompetencyCode
		name     string
		validity time.Duration
	}{
		{"ELEC-01", "Instalaciones eléctricas residenciales", 3 * 365 * 24 * time.Hour},
		{"SOLD-02", "Soldadura de estructuras metálicas", 3 * 365 * 24 * time.Hour},
		{"REDES-01", "Administración de redes de datos", 0},
	}

	out := make([]*models.Competency, 0, len(seeds))
	for _, seed := range seeds {
		c, err := models.NewCompetency(id.CompetencyID(uuid.New()), seed.code, seed.name, now)
		if err != nil {
			continue
		}
		c.CertificateValidity = seed.validity
		_ = s.CreateCompetency(ctx, c)
		out = append(out, c)
	}
	return out
}
